package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/tubecontrol/internal/gesture"
)

// BindingRepository stores action to operation bindings.
type BindingRepository struct {
	db *sql.DB
}

// Bindings returns the binding repository for this store.
func (s *Store) Bindings() *BindingRepository {
	return &BindingRepository{db: s.db}
}

// List returns all bindings ordered by action.
func (r *BindingRepository) List() ([]gesture.Binding, error) {
	rows, err := r.db.Query(`SELECT action, operation FROM bindings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make(map[string]string)
	for rows.Next() {
		var action, op string
		if err := rows.Scan(&action, &op); err != nil {
			return nil, err
		}
		names[action] = op
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	b, err := gesture.NewBindings(names)
	if err != nil {
		return nil, fmt.Errorf("stored bindings: %w", err)
	}
	return b.List(), nil
}

// Snapshot returns the stored bindings as an immutable table.
func (r *BindingRepository) Snapshot() (gesture.Bindings, error) {
	list, err := r.List()
	if err != nil {
		return gesture.Bindings{}, err
	}
	return gesture.BindingsOf(list...), nil
}

// Get returns the operation bound to action.
func (r *BindingRepository) Get(a gesture.Action) (gesture.Operation, error) {
	var name string
	err := r.db.QueryRow(`SELECT operation FROM bindings WHERE action = ?`, a.String()).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return gesture.OperationNone, ErrNotFound
	}
	if err != nil {
		return gesture.OperationNone, err
	}
	return gesture.ParseOperation(name)
}

// Set binds action to op, replacing any previous binding.
func (r *BindingRepository) Set(a gesture.Action, op gesture.Operation) error {
	if !a.Valid() {
		return fmt.Errorf("%w: %v", gesture.ErrUnknownAction, a)
	}
	if !op.Valid() {
		return fmt.Errorf("%w: %v", gesture.ErrUnknownOperation, op)
	}
	_, err := r.db.Exec(
		`INSERT INTO bindings (action, operation, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(action) DO UPDATE SET operation = excluded.operation, updated_at = excluded.updated_at`,
		a.String(), op.String(), time.Now(),
	)
	return err
}

// Delete unbinds action.
func (r *BindingRepository) Delete(a gesture.Action) error {
	res, err := r.db.Exec(`DELETE FROM bindings WHERE action = ?`, a.String())
	if err != nil {
		return err
	}
	return affected(res)
}

// Seed stores b if no binding exists yet. It reports whether it wrote.
func (r *BindingRepository) Seed(b gesture.Bindings) (bool, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var n int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM bindings`).Scan(&n); err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	now := time.Now()
	for _, bd := range b.List() {
		if _, err := tx.Exec(
			`INSERT INTO bindings (action, operation, updated_at) VALUES (?, ?, ?)`,
			bd.Action.String(), bd.Operation.String(), now,
		); err != nil {
			return false, err
		}
	}
	return true, tx.Commit()
}
