package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/ecol-app/ecol/internal/db"
	"github.com/ecol-app/ecol/internal/domain"
	"github.com/stretchr/testify/require"
)

// Seeded item ids (see migration 000002).
const (
	itemLightBulb  int64 = 1
	itemBatteries  int64 = 2
	itemPaper      int64 = 3
	itemElectronic int64 = 4
	itemOrganic    int64 = 5
	itemCookingOil int64 = 6
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func newPoint(name, city, state string) *domain.Point {
	return &domain.Point{
		Image:     "https://images.example.com/point.jpg",
		Name:      name,
		Email:     "contact@example.com",
		Whatsapp:  "31999990000",
		Latitude:  -19.8731291,
		Longitude: -44.0294353,
		City:      city,
		State:     state,
	}
}

func createPoint(t *testing.T, s *PointStore, p *domain.Point, itemIDs ...int64) *domain.Point {
	t.Helper()
	created, err := s.CreateWithItems(context.Background(), p, itemIDs)
	require.NoError(t, err)
	return created
}

// pointItems reads the association rows of a point straight from the table.
func pointItems(t *testing.T, d *sql.DB, pointID int64) []*domain.PointItem {
	t.Helper()
	rows, err := d.QueryContext(context.Background(),
		`SELECT id, point_id, item_id FROM point_items WHERE point_id = ? ORDER BY item_id ASC`, pointID)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	var links []*domain.PointItem
	for rows.Next() {
		link := &domain.PointItem{}
		require.NoError(t, rows.Scan(&link.ID, &link.PointID, &link.ItemID))
		links = append(links, link)
	}
	require.NoError(t, rows.Err())
	return links
}
