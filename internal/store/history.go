package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Dispatch is one fired command.
type Dispatch struct {
	ID        string        `json:"id"`
	Action    string        `json:"action"`
	Operation string        `json:"operation"`
	Modality  string        `json:"modality"`
	Volume    int           `json:"volume"`
	Latency   time.Duration `json:"latency"`
	FiredAt   time.Time     `json:"fired_at"`
}

// HistoryRepository records fired commands.
type HistoryRepository struct {
	db *sql.DB
}

// History returns the history repository for this store.
func (s *Store) History() *HistoryRepository {
	return &HistoryRepository{db: s.db}
}

// Record inserts d, assigning an id when empty.
func (r *HistoryRepository) Record(d *Dispatch) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.FiredAt.IsZero() {
		d.FiredAt = time.Now()
	}
	_, err := r.db.Exec(
		`INSERT INTO dispatches (id, action, operation, modality, volume, latency_us, fired_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Action, d.Operation, d.Modality, d.Volume, d.Latency.Microseconds(), d.FiredAt,
	)
	return err
}

// Recent returns up to limit dispatches, newest first.
func (r *HistoryRepository) Recent(limit int) ([]Dispatch, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(
		`SELECT id, action, operation, modality, volume, latency_us, fired_at
		 FROM dispatches ORDER BY fired_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Dispatch{}
	for rows.Next() {
		var d Dispatch
		var us int64
		if err := rows.Scan(&d.ID, &d.Action, &d.Operation, &d.Modality, &d.Volume, &us, &d.FiredAt); err != nil {
			return nil, err
		}
		d.Latency = time.Duration(us) * time.Microsecond
		out = append(out, d)
	}
	return out, rows.Err()
}

// Prune keeps the newest keep dispatches and deletes the rest.
func (r *HistoryRepository) Prune(keep int) (int64, error) {
	res, err := r.db.Exec(
		`DELETE FROM dispatches WHERE id NOT IN (
			SELECT id FROM dispatches ORDER BY fired_at DESC, rowid DESC LIMIT ?
		)`,
		keep,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
