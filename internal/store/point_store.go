package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ecol-app/ecol/internal/domain"
)

type PointStore struct {
	db *sql.DB
}

func NewPointStore(db *sql.DB) *PointStore {
	return &PointStore{db: db}
}

const pointColumns = `p.id, p.image, p.name, p.email, p.whatsapp, p.latitude, p.longitude, p.city, p.state`

// CreateWithItems inserts the point and one point_items row per item id in a
// single transaction. On any failure nothing is written.
func (s *PointStore) CreateWithItems(ctx context.Context, p *domain.Point, itemIDs []int64) (*domain.Point, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			slog.Error("failed to roll back point transaction", "error", err)
		}
	}()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO points (image, name, email, whatsapp, latitude, longitude, city, state)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, p.Image, p.Name, p.Email, p.Whatsapp, p.Latitude, p.Longitude, p.City, p.State)
	if err != nil {
		return nil, fmt.Errorf("failed to create point: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO point_items (point_id, item_id) VALUES (?, ?)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare point item insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, itemID := range itemIDs {
		if _, err := stmt.ExecContext(ctx, id, itemID); err != nil {
			return nil, fmt.Errorf("failed to link item %d to point: %w", itemID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit point: %w", err)
	}

	created := *p
	created.ID = id
	return &created, nil
}

func (s *PointStore) GetByID(ctx context.Context, id int64) (*domain.Point, error) {
	point := &domain.Point{}
	err := s.db.QueryRowContext(ctx, `
		SELECT `+pointColumns+` FROM points p WHERE p.id = ?
	`, id).Scan(&point.ID, &point.Image, &point.Name, &point.Email, &point.Whatsapp,
		&point.Latitude, &point.Longitude, &point.City, &point.State)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get point: %w", err)
	}

	return point, nil
}

// List returns the distinct points matching filter, ordered by id.
func (s *PointStore) List(ctx context.Context, filter domain.PointFilter) ([]*domain.Point, error) {
	var (
		query strings.Builder
		where []string
		args  []any
	)

	query.WriteString(`SELECT DISTINCT ` + pointColumns + ` FROM points p`)

	if len(filter.ItemIDs) > 0 {
		query.WriteString(` JOIN point_items pi ON pi.point_id = p.id`)
		marks, idArgs := inClause(filter.ItemIDs)
		where = append(where, `pi.item_id IN (`+marks+`)`)
		args = append(args, idArgs...)
	}
	if filter.City != "" {
		where = append(where, `p.city = ?`)
		args = append(args, filter.City)
	}
	if filter.State != "" {
		where = append(where, `p.state = ?`)
		args = append(args, filter.State)
	}

	if len(where) > 0 {
		query.WriteString(` WHERE ` + strings.Join(where, ` AND `))
	}
	query.WriteString(` ORDER BY p.id ASC`)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list points: %w", err)
	}
	defer closeRows(rows)

	var points []*domain.Point
	for rows.Next() {
		point := &domain.Point{}
		if err := rows.Scan(&point.ID, &point.Image, &point.Name, &point.Email, &point.Whatsapp,
			&point.Latitude, &point.Longitude, &point.City, &point.State); err != nil {
			return nil, fmt.Errorf("failed to scan point: %w", err)
		}
		points = append(points, point)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating points: %w", err)
	}

	return points, nil
}

func (s *PointStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM points WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete point: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("point not found")
	}

	return nil
}
