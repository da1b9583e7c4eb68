package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/tubecontrol/internal/focus"
	"github.com/google/uuid"
)

// Calibration is one completed calibration walk.
type Calibration struct {
	ID         string           `json:"id"`
	Margin     float64          `json:"margin"`
	Samples    int              `json:"samples"`
	Thresholds focus.Thresholds `json:"thresholds"`
	CreatedAt  time.Time        `json:"created_at"`
}

// CalibrationSample is a raw face sample recorded during a walk.
type CalibrationSample struct {
	ID            int64           `json:"id"`
	CalibrationID string          `json:"calibration_id"`
	SampleIndex   int             `json:"sample_index"`
	Data          json.RawMessage `json:"data"`
}

// CalibrationRepository stores calibration results.
type CalibrationRepository struct {
	db *sql.DB
}

// Calibrations returns the calibration repository for this store.
func (s *Store) Calibrations() *CalibrationRepository {
	return &CalibrationRepository{db: s.db}
}

// Save stores c together with its raw samples in one transaction. An empty
// ID is assigned a new session id.
func (r *CalibrationRepository) Save(c *Calibration, samples []json.RawMessage) error {
	if err := c.Thresholds.Validate(); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO calibrations (id, margin, samples, created_at) VALUES (?, ?, ?, ?)`,
		c.ID, c.Margin, c.Samples, c.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert calibration: %w", err)
	}

	for name, v := range c.Thresholds {
		if _, err := tx.Exec(
			`INSERT INTO calibration_thresholds (calibration_id, blendshape, threshold) VALUES (?, ?, ?)`,
			c.ID, name, v,
		); err != nil {
			return fmt.Errorf("insert threshold %s: %w", name, err)
		}
	}

	stmt, err := tx.Prepare(`INSERT INTO calibration_samples (calibration_id, sample_index, data) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, data := range samples {
		if _, err := stmt.Exec(c.ID, i, string(data)); err != nil {
			return fmt.Errorf("insert sample %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// Latest returns the most recent calibration, or ErrNotFound.
func (r *CalibrationRepository) Latest() (*Calibration, error) {
	c := &Calibration{}
	err := r.db.QueryRow(
		`SELECT id, margin, samples, created_at FROM calibrations
		 ORDER BY created_at DESC, rowid DESC LIMIT 1`,
	).Scan(&c.ID, &c.Margin, &c.Samples, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(
		`SELECT blendshape, threshold FROM calibration_thresholds WHERE calibration_id = ?`,
		c.ID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	c.Thresholds = make(focus.Thresholds)
	for rows.Next() {
		var name string
		var v float64
		if err := rows.Scan(&name, &v); err != nil {
			return nil, err
		}
		c.Thresholds[name] = v
	}
	return c, rows.Err()
}

// Thresholds returns the active thresholds, or the defaults when no
// calibration has been stored.
func (r *CalibrationRepository) Thresholds() (focus.Thresholds, error) {
	c, err := r.Latest()
	if errors.Is(err, ErrNotFound) {
		return focus.DefaultThresholds(), nil
	}
	if err != nil {
		return nil, err
	}
	return c.Thresholds.Merge(), nil
}

// Samples returns the raw samples of a calibration in recording order.
func (r *CalibrationRepository) Samples(calibrationID string) ([]CalibrationSample, error) {
	rows, err := r.db.Query(
		`SELECT id, calibration_id, sample_index, data FROM calibration_samples
		 WHERE calibration_id = ? ORDER BY sample_index`,
		calibrationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CalibrationSample
	for rows.Next() {
		var s CalibrationSample
		var data string
		if err := rows.Scan(&s.ID, &s.CalibrationID, &s.SampleIndex, &data); err != nil {
			return nil, err
		}
		s.Data = json.RawMessage(data)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Reset deletes every stored calibration, reverting to defaults. It reports
// how many calibrations were removed.
func (r *CalibrationRepository) Reset() (int64, error) {
	res, err := r.db.Exec(`DELETE FROM calibrations`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
