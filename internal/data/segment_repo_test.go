package data

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curbmap/curbmap-api/internal/testutil"
)

func TestAssembleSegments(t *testing.T) {
	segRows := []segmentRow{
		{ID: "seg-1", GID: 1, FullName: "Market St", StartLng: -122.39, StartLat: 37.79, EndLng: -122.40, EndLat: 37.78},
		{ID: "seg-2", GID: 2, FullName: "Mission St"},
	}
	ptRows := []pointRow{
		{ID: "pt-1", SegmentID: "seg-1", Position: 0, Lng: -122.39, Lat: 37.79},
		{ID: "pt-2", SegmentID: "seg-1", Position: 1, Lng: -122.395, Lat: 37.785},
	}
	restrRows := []restrictionRow{
		{PointID: "pt-1", Kind: "1P", Days: "MTWThF", TimeLimit: 60},
		{PointID: "pt-1", Kind: "NP", Days: "SaSu"},
	}

	segments := assembleSegments(segRows, ptRows, restrRows)
	require.Len(t, segments, 2)

	first := segments[0]
	assert.Equal(t, "Market St", first.FullName)
	assert.Equal(t, [2]float64{-122.39, 37.79}, first.Start)
	require.Len(t, first.Points, 2)
	require.Len(t, first.Points[0].Restrictions, 2)
	assert.Equal(t, "1P", first.Points[0].Restrictions[0].Kind)
	assert.Equal(t, float64(60), first.Points[0].Restrictions[0].Limit)
	assert.Empty(t, first.Points[1].Restrictions)

	// Segment with no surveyed points comes back without points.
	assert.Empty(t, segments[1].Points)
}

func TestAssembleSegments_Empty(t *testing.T) {
	assert.Empty(t, assembleSegments(nil, nil, nil))
}

func TestSegmentRepo_FindNear(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	ctx := context.Background()

	var segmentID string
	err := db.QueryRowContext(ctx, `
		INSERT INTO street_segments (gid, cams_id, fullname, status, type, start_lng, start_lat, end_lng, end_lat)
		VALUES (1, 10, 'Market St', 'active', 'street', -122.3969, 37.7937, -122.3985, 37.7924)
		RETURNING id
	`).Scan(&segmentID)
	require.NoError(t, err)

	var pointID string
	err = db.QueryRowContext(ctx, `
		INSERT INTO segment_points (segment_id, position, lng, lat)
		VALUES ($1, 0, -122.3969, 37.7937)
		RETURNING id
	`, segmentID).Scan(&pointID)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `
		INSERT INTO point_restrictions (point_id, kind, days, start_time, end_time, updated_by, time_limit)
		VALUES ($1, '1P', 'MTWThF', '0800', '1800', 'jane', 120)
	`, pointID)
	require.NoError(t, err)

	// A far-away segment that must not be returned.
	_, err = db.ExecContext(ctx, `
		INSERT INTO street_segments (gid, cams_id, fullname, status, type, start_lng, start_lat, end_lng, end_lat)
		VALUES (2, 20, 'Wilshire Blvd', 'active', 'street', -118.3, 34.06, -118.31, 34.06)
	`)
	require.NoError(t, err)

	repo := NewSegmentRepo(db)

	t.Run("returns nearby segment with nested data", func(t *testing.T) {
		segments, err := repo.FindNear(ctx, -122.3970, 37.7936, 500)
		require.NoError(t, err)
		require.Len(t, segments, 1)

		seg := segments[0]
		assert.Equal(t, "Market St", seg.FullName)
		require.Len(t, seg.Points, 1)
		require.Len(t, seg.Points[0].Restrictions, 1)
		assert.Equal(t, "1P", seg.Points[0].Restrictions[0].Kind)
		assert.Equal(t, "jane", seg.Points[0].Restrictions[0].UpdatedBy)
	})

	t.Run("empty far from data", func(t *testing.T) {
		segments, err := repo.FindNear(ctx, 0, 0, 500)
		require.NoError(t, err)
		assert.Empty(t, segments)
	})

	t.Run("rejects non-positive radius", func(t *testing.T) {
		_, err := repo.FindNear(ctx, -122.39, 37.79, 0)
		assert.Error(t, err)
	})
}

func TestSegmentRepo_FindNearKeepsPointOrder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	ctx := context.Background()

	var segmentID string
	err := db.QueryRowContext(ctx, `
		INSERT INTO street_segments (gid, cams_id, fullname, status, type, start_lng, start_lat, end_lng, end_lat)
		VALUES (3, 30, 'Valencia St', 'active', 'street', -122.4210, 37.7650, -122.4220, 37.7600)
		RETURNING id
	`).Scan(&segmentID)
	require.NoError(t, err)

	// The polyline runs south along Valencia. Insert the vertices in
	// reverse so row storage order disagrees with vertex order.
	const vertices = 12
	for i := vertices - 1; i >= 0; i-- {
		lat := 37.7650 - 0.0005*float64(i)
		_, err = db.ExecContext(ctx, `
			INSERT INTO segment_points (segment_id, position, lng, lat)
			VALUES ($1, $2, -122.4210, $3)
		`, segmentID, i, lat)
		require.NoError(t, err)
	}

	repo := NewSegmentRepo(db)
	segments, err := repo.FindNear(ctx, -122.4210, 37.7650, 1000)
	require.NoError(t, err)
	require.Len(t, segments, 1)
	require.Len(t, segments[0].Points, vertices)

	for i, pt := range segments[0].Points {
		want := 37.7650 - 0.0005*float64(i)
		assert.InDelta(t, want, pt.Coordinates[1], 1e-9, "vertex %d out of order", i)
	}
}
