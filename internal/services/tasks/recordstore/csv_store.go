package recordstore

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dxcccii/taskdesk/internal/services/tasks"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
)

var csvHeader = []string{"task_id", "description", "status", "holder"}

// csvStore keeps one <serviceID>.csv per service under a base URL.
// Any scheme afs understands works (file://, mem://).
type csvStore struct {
	baseURL string
	fs      afs.Service
	mu      sync.Mutex
}

func NewCSVStore(baseURL string) (*csvStore, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}

	fs := afs.New()

	ctx := context.Background()
	exists, _ := fs.Exists(ctx, baseURL)
	if !exists {
		if err := fs.Create(ctx, baseURL, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create record directory: %w", err)
		}
	}

	baseURL = url.Normalize(baseURL, file.Scheme)

	return &csvStore{
		baseURL: baseURL,
		fs:      fs,
	}, nil
}

var _ Store = (*csvStore)(nil)

func (s *csvStore) Services(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	objects, err := s.fs.List(ctx, s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to list record files: %w", err)
	}

	var services []string
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".csv") {
			continue
		}
		serviceID := strings.TrimSuffix(object.Name(), ".csv")
		if !tasks.ValidServiceID(serviceID) {
			continue
		}
		services = append(services, serviceID)
	}

	return services, nil
}

func (s *csvStore) Load(ctx context.Context, serviceID string) ([]tasks.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	filePath := s.servicePath(serviceID)
	exists, err := s.fs.Exists(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to check record file %s: %w", filePath, err)
	}
	if !exists {
		return nil, ErrServiceNotFound
	}

	data, err := s.fs.DownloadWithURL(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read record file %s: %w", filePath, err)
	}

	records, err := decodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("bad record file %s: %w", filePath, err)
	}

	return records, nil
}

func (s *csvStore) Save(ctx context.Context, serviceID string, records []tasks.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := encodeRecords(records)
	if err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}

	filePath := s.servicePath(serviceID)
	if err := s.fs.Upload(ctx, filePath, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save record file %s: %w", filePath, err)
	}

	return nil
}

func (s *csvStore) servicePath(serviceID string) string {
	return url.Join(s.baseURL, serviceID+".csv")
}

func encodeRecords(records []tasks.Task) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, r := range records {
		row := []string{r.ID, r.Description, string(r.Status), r.Holder}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}

// decodeRecords tolerates legacy files: an optional header line and rows
// with fewer than four columns (missing holder, or a description doubling
// as the id).
func decodeRecords(data []byte) ([]tasks.Task, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var records []tasks.Task
	line := 0
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++

		if line == 1 && looksLikeHeader(row) {
			continue
		}

		rec, err := decodeRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}

	return records, nil
}

func looksLikeHeader(row []string) bool {
	return len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), csvHeader[0])
}

func decodeRow(row []string) (tasks.Task, error) {
	for i := range row {
		row[i] = strings.TrimSpace(row[i])
	}

	var rec tasks.Task
	switch len(row) {
	case 2: // description,status
		rec = tasks.Task{ID: row[0], Description: row[0], Status: tasks.Status(row[1])}
	case 3: // task_id,description,status
		rec = tasks.Task{ID: row[0], Description: row[1], Status: tasks.Status(row[2])}
	case 4:
		rec = tasks.Task{ID: row[0], Description: row[1], Status: tasks.Status(row[2]), Holder: row[3]}
	default:
		return tasks.Task{}, fmt.Errorf("expected 2 to 4 fields, got %d", len(row))
	}

	status, err := tasks.ParseStatus(string(rec.Status))
	if err != nil {
		return tasks.Task{}, fmt.Errorf("%w: %q", err, rec.Status)
	}
	rec.Status = status

	if rec.Status == tasks.StatusUnallocated {
		rec.Holder = ""
	}

	return rec, nil
}
