package main

import (
	"log"

	"github.com/dxcccii/taskdesk/cmd/server/app"
)

func main() {
	err := app.New().Execute()
	if err != nil {
		log.Fatal(err)
	}
}
