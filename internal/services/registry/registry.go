package registry

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/viant/afs"
)

// Entry is one bootstrap roster row.
type Entry struct {
	ServiceID string
	Password  string
}

// Registry maps worker client ids to their home service, loaded once at
// startup from the roster file. Read-mostly after load.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]Entry
}

func New() *Registry {
	return &Registry{
		clients: make(map[string]Entry),
	}
}

// Load reads the roster from rosterURL, rows of
// client_id,service_id[,password].
func Load(ctx context.Context, rosterURL string) (*Registry, error) {
	fs := afs.New()

	data, err := fs.DownloadWithURL(ctx, rosterURL)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster %s: %w", rosterURL, err)
	}

	r := New()
	if err := r.parse(data); err != nil {
		return nil, fmt.Errorf("bad roster %s: %w", rosterURL, err)
	}

	return r, nil
}

func (r *Registry) parse(data []byte) error {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	line := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		line++

		if len(row) < 2 {
			return fmt.Errorf("line %d: expected client_id,service_id", line)
		}

		entry := Entry{ServiceID: strings.TrimSpace(row[1])}
		if len(row) > 2 {
			entry.Password = strings.TrimSpace(row[2])
		}
		r.clients[strings.TrimSpace(row[0])] = entry
	}
}

// Register adds or replaces a client entry.
func (r *Registry) Register(clientID string, entry Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[clientID] = entry
}

// ServiceFor implements tasks.ServiceResolver.
func (r *Registry) ServiceFor(clientID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.clients[clientID]
	if !ok || entry.ServiceID == "" {
		return "", false
	}
	return entry.ServiceID, true
}

// Password returns the client's password and whether one is required.
func (r *Registry) Password(clientID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.clients[clientID]
	if !ok || entry.Password == "" {
		return "", false
	}
	return entry.Password, true
}
