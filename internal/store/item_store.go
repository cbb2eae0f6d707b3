package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ecol-app/ecol/internal/domain"
)

type ItemStore struct {
	db *sql.DB
}

func NewItemStore(db *sql.DB) *ItemStore {
	return &ItemStore{db: db}
}

func (s *ItemStore) List(ctx context.Context) ([]*domain.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, image FROM items ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return scanItems(rows)
}

// ListByPointID returns the items accepted by a point, ordered by title.
func (s *ItemStore) ListByPointID(ctx context.Context, pointID int64) ([]*domain.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.id, i.title, i.image FROM items i
		JOIN point_items pi ON pi.item_id = i.id
		WHERE pi.point_id = ?
		ORDER BY i.title ASC
	`, pointID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items for point: %w", err)
	}
	return scanItems(rows)
}

// ExistingIDs returns the subset of ids that refer to stored items.
func (s *ItemStore) ExistingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	marks, args := inClause(ids)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM items WHERE id IN (`+marks+`) ORDER BY id ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to look up items: %w", err)
	}
	defer closeRows(rows)

	var found []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan item id: %w", err)
		}
		found = append(found, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item ids: %w", err)
	}

	return found, nil
}

func scanItems(rows *sql.Rows) ([]*domain.Item, error) {
	defer closeRows(rows)

	var items []*domain.Item
	for rows.Next() {
		item := &domain.Item{}
		if err := rows.Scan(&item.ID, &item.Title, &item.Image); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	return items, nil
}

// inClause builds the "?, ?, ?" list and matching arguments for an IN filter.
func inClause(ids []int64) (string, []any) {
	marks := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		marks[i] = "?"
		args[i] = id
	}
	return strings.Join(marks, ", "), args
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		slog.Error("failed to close rows", "error", err)
	}
}
