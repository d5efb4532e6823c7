package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vbonduro/dishcarbon/internal/domain"
)

// ErrNotFound is returned when no estimation has the requested ID.
var ErrNotFound = errors.New("estimation not found")

type EstimationStore struct {
	db *sql.DB
}

func NewEstimationStore(db *sql.DB) *EstimationStore {
	return &EstimationStore{db: db}
}

// Create inserts the estimation and its ingredient rows in one transaction and
// returns the stored entry.
func (s *EstimationStore) Create(ctx context.Context, entry *domain.HistoryEntry) (*domain.HistoryEntry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO estimations (session_id, method, query, dish, estimated_carbon_kg, photo_key)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.SessionID, string(entry.Method), entry.Query, entry.Dish, entry.EstimatedCarbonKg, entry.PhotoKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create estimation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	for i, ing := range entry.Ingredients {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO estimation_ingredients (estimation_id, position, name, carbon_kg) VALUES (?, ?, ?, ?)
		`, id, i, ing.Name, ing.CarbonKg); err != nil {
			return nil, fmt.Errorf("failed to create ingredient: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit estimation: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *EstimationStore) GetByID(ctx context.Context, id int64) (*domain.HistoryEntry, error) {
	entry := &domain.HistoryEntry{}
	var method string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, session_id, method, query, dish, estimated_carbon_kg, photo_key, created_at
		FROM estimations WHERE id = ?
	`, id).Scan(&entry.ID, &entry.SessionID, &method, &entry.Query, &entry.Dish, &entry.EstimatedCarbonKg, &entry.PhotoKey, &entry.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get estimation: %w", err)
	}
	entry.Method = domain.Method(method)

	ingredients, err := s.ingredientsFor(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	entry.Ingredients = ingredients[id]
	return entry, nil
}

// ListRecent returns the newest estimations first.
func (s *EstimationStore) ListRecent(ctx context.Context, limit int) ([]*domain.HistoryEntry, error) {
	return s.list(ctx, `
		SELECT id, session_id, method, query, dish, estimated_carbon_kg, photo_key, created_at
		FROM estimations ORDER BY created_at DESC, id DESC LIMIT ?
	`, limit)
}

func (s *EstimationStore) ListBySession(ctx context.Context, sessionID string, limit int) ([]*domain.HistoryEntry, error) {
	return s.list(ctx, `
		SELECT id, session_id, method, query, dish, estimated_carbon_kg, photo_key, created_at
		FROM estimations WHERE session_id = ? ORDER BY created_at DESC, id DESC LIMIT ?
	`, sessionID, limit)
}

func (s *EstimationStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM estimations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete estimation: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *EstimationStore) list(ctx context.Context, query string, args ...any) ([]*domain.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list estimations: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	var entries []*domain.HistoryEntry
	var ids []int64
	for rows.Next() {
		entry := &domain.HistoryEntry{}
		var method string
		if err := rows.Scan(&entry.ID, &entry.SessionID, &method, &entry.Query, &entry.Dish, &entry.EstimatedCarbonKg, &entry.PhotoKey, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan estimation: %w", err)
		}
		entry.Method = domain.Method(method)
		entries = append(entries, entry)
		ids = append(ids, entry.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating estimations: %w", err)
	}

	if len(ids) == 0 {
		return entries, nil
	}
	ingredients, err := s.ingredientsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		e.Ingredients = ingredients[e.ID]
	}
	return entries, nil
}

// maxInParams bounds the IN list of one ingredient query, well under
// SQLite's host parameter limit.
const maxInParams = 500

// ingredientsFor loads the ingredient rows of every listed estimation, one
// query per batch of IDs, keyed by estimation ID and kept in breakdown order.
func (s *EstimationStore) ingredientsFor(ctx context.Context, ids []int64) (map[int64][]domain.Ingredient, error) {
	out := make(map[int64][]domain.Ingredient, len(ids))
	for start := 0; start < len(ids); start += maxInParams {
		end := min(start+maxInParams, len(ids))
		if err := s.loadIngredients(ctx, ids[start:end], out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *EstimationStore) loadIngredients(ctx context.Context, ids []int64, out map[int64][]domain.Ingredient) error {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")

	rows, err := s.db.QueryContext(ctx, `
		SELECT estimation_id, name, carbon_kg FROM estimation_ingredients
		WHERE estimation_id IN (`+placeholders+`)
		ORDER BY estimation_id, position ASC
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to list ingredients: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	for rows.Next() {
		var id int64
		var ing domain.Ingredient
		if err := rows.Scan(&id, &ing.Name, &ing.CarbonKg); err != nil {
			return fmt.Errorf("failed to scan ingredient: %w", err)
		}
		out[id] = append(out[id], ing)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating ingredients: %w", err)
	}
	return nil
}
