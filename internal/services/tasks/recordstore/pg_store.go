package recordstore

import (
	"context"
	"fmt"

	"github.com/dxcccii/taskdesk/internal/services/tasks"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgStore is a PostgreSQL-backed Store, for deployments where flat files
// are not an option. Same contract as the CSV store: a service's record
// set is replaced as a whole.
type pgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *pgStore {
	return &pgStore{pool: pool}
}

var _ Store = (*pgStore)(nil)

// EnsureTable creates the record table if it doesn't exist.
func (s *pgStore) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS task_records (
			service_id  TEXT NOT NULL,
			position    INTEGER NOT NULL,
			task_id     TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status      TEXT NOT NULL DEFAULT 'Unallocated',
			holder      TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (service_id, position)
		)`)
	return err
}

func (s *pgStore) Services(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT service_id FROM task_records ORDER BY service_id`)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	var services []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		services = append(services, id)
	}
	return services, rows.Err()
}

func (s *pgStore) Load(ctx context.Context, serviceID string) ([]tasks.Task, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT task_id, description, status, holder
		FROM task_records WHERE service_id = $1 ORDER BY position`, serviceID)
	if err != nil {
		return nil, fmt.Errorf("load records for %s: %w", serviceID, err)
	}
	defer rows.Close()

	var records []tasks.Task
	for rows.Next() {
		var rec tasks.Task
		var status string
		if err := rows.Scan(&rec.ID, &rec.Description, &status, &rec.Holder); err != nil {
			return nil, err
		}
		rec.Status, err = tasks.ParseStatus(status)
		if err != nil {
			return nil, fmt.Errorf("bad status in stored record %s/%s: %w", serviceID, rec.ID, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if records == nil {
		return nil, ErrServiceNotFound
	}
	return records, nil
}

func (s *pgStore) Save(ctx context.Context, serviceID string, records []tasks.Task) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("save records for %s: %w", serviceID, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM task_records WHERE service_id = $1`, serviceID); err != nil {
		return fmt.Errorf("save records for %s: %w", serviceID, err)
	}

	for i, rec := range records {
		_, err := tx.Exec(ctx, `
			INSERT INTO task_records (service_id, position, task_id, description, status, holder)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			serviceID, i, rec.ID, rec.Description, string(rec.Status), rec.Holder)
		if err != nil {
			return fmt.Errorf("save records for %s: %w", serviceID, err)
		}
	}

	return tx.Commit(ctx)
}
