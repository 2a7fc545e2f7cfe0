package app

import (
	"fmt"

	"github.com/dxcccii/taskdesk/pkg/logging"
)

const (
	StorageDriverCSV      = "csv"
	StorageDriverPostgres = "postgres"
)

type TCPConfig struct {
	Port int `yaml:"port"`
}

type StorageConfig struct {
	// Driver selects the record store: "csv" or "postgres".
	Driver string `yaml:"driver"`
	// Path is the record directory for the csv driver; any afs URL works.
	Path string `yaml:"path"`
	// DSN is the connection string for the postgres driver.
	DSN string `yaml:"dsn"`
}

type BootstrapConfig struct {
	// Allocations is the roster file of client_id,service_id[,password] rows.
	Allocations string `yaml:"allocations"`
}

type NotifierConfig struct {
	QueueSize int `yaml:"queue_size"`
}

type Config struct {
	Logger    *logging.LoggerConfig `yaml:"logger"`
	TCP       *TCPConfig            `yaml:"tcp"`
	Storage   *StorageConfig        `yaml:"storage"`
	Bootstrap *BootstrapConfig      `yaml:"bootstrap"`
	Notifier  *NotifierConfig       `yaml:"notifier"`
}

func (c *Config) Validate() error {
	if c.TCP == nil || c.TCP.Port <= 0 {
		return fmt.Errorf("tcp port is required")
	}

	if c.Storage == nil {
		return fmt.Errorf("storage config is required")
	}

	switch c.Storage.Driver {
	case StorageDriverCSV:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage path is required for the csv driver")
		}
	case StorageDriverPostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage driver: %q", c.Storage.Driver)
	}

	if c.Bootstrap == nil || c.Bootstrap.Allocations == "" {
		return fmt.Errorf("bootstrap allocations file is required")
	}

	return nil
}
