package data

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"

	"github.com/curbmap/curbmap-api/internal/data/pgxutil"
	"github.com/curbmap/curbmap-api/internal/domain/geo"
)

// metersPerDegreeLat is the approximate north-south span of one degree of latitude.
const metersPerDegreeLat = 111320.0

// SegmentRepo provides read access to street segments and their curb
// restrictions. The gateway only reads map data; contributions flow
// through a separate ingestion pipeline.
type SegmentRepo struct {
	DB *sql.DB
}

// NewSegmentRepo creates a new SegmentRepo.
func NewSegmentRepo(db *sql.DB) *SegmentRepo {
	return &SegmentRepo{DB: db}
}

type segmentRow struct {
	ID       string  `db:"id"`
	GID      int64   `db:"gid"`
	CamsID   int64   `db:"cams_id"`
	FullName string  `db:"fullname"`
	Status   string  `db:"status"`
	Type     string  `db:"type"`
	StartLng float64 `db:"start_lng"`
	StartLat float64 `db:"start_lat"`
	EndLng   float64 `db:"end_lng"`
	EndLat   float64 `db:"end_lat"`
}

type pointRow struct {
	ID        string  `db:"id"`
	SegmentID string  `db:"segment_id"`
	Position  int     `db:"position"`
	Lng       float64 `db:"lng"`
	Lat       float64 `db:"lat"`
}

type restrictionRow struct {
	PointID   string  `db:"point_id"`
	Kind      string  `db:"kind"`
	Days      string  `db:"days"`
	StartTime string  `db:"start_time"`
	EndTime   string  `db:"end_time"`
	UpdatedBy string  `db:"updated_by"`
	Bearing   string  `db:"bearing"`
	Cost      float64 `db:"cost"`
	TimeLimit float64 `db:"time_limit"`
	Permit    float64 `db:"permit"`
	Rating    float64 `db:"rating"`
}

// FindNear returns segments whose endpoints fall inside a bounding box of
// the given radius (meters) around the coordinate, with points and
// restrictions attached.
func (r *SegmentRepo) FindNear(ctx context.Context, lng, lat, radiusMeters float64) ([]geo.Segment, error) {
	if radiusMeters <= 0 {
		return nil, fmt.Errorf("radius must be positive, got %v", radiusMeters)
	}

	dLat := radiusMeters / metersPerDegreeLat
	// Longitude degrees shrink with latitude; clamp near the poles.
	cosLat := math.Cos(lat * math.Pi / 180)
	if cosLat < 0.01 {
		cosLat = 0.01
	}
	dLng := radiusMeters / (metersPerDegreeLat * cosLat)

	var (
		segRows   []segmentRow
		ptRows    []pointRow
		restrRows []restrictionRow
	)
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT id, gid, cams_id, fullname, status, type, start_lng, start_lat, end_lng, end_lat
			FROM street_segments
			WHERE start_lng BETWEEN $1 AND $2 AND start_lat BETWEEN $3 AND $4
			ORDER BY gid
		`, lng-dLng, lng+dLng, lat-dLat, lat+dLat)
		if err != nil {
			return err
		}
		segRows, err = pgx.CollectRows(rows, pgx.RowToStructByName[segmentRow])
		if err != nil {
			return err
		}
		if len(segRows) == 0 {
			return nil
		}

		segIDs := make([]string, len(segRows))
		for i, s := range segRows {
			segIDs[i] = s.ID
		}

		rows, err = conn.Query(ctx, `
			SELECT id, segment_id, position, lng, lat
			FROM segment_points
			WHERE segment_id = ANY($1)
			ORDER BY segment_id, position
		`, segIDs)
		if err != nil {
			return err
		}
		ptRows, err = pgx.CollectRows(rows, pgx.RowToStructByName[pointRow])
		if err != nil {
			return err
		}
		if len(ptRows) == 0 {
			return nil
		}

		ptIDs := make([]string, len(ptRows))
		for i, p := range ptRows {
			ptIDs[i] = p.ID
		}

		rows, err = conn.Query(ctx, `
			SELECT point_id, kind, days, start_time, end_time, updated_by, bearing, cost, time_limit, permit, rating
			FROM point_restrictions
			WHERE point_id = ANY($1)
			ORDER BY point_id
		`, ptIDs)
		if err != nil {
			return err
		}
		restrRows, err = pgx.CollectRows(rows, pgx.RowToStructByName[restrictionRow])
		return err
	}); err != nil {
		return nil, fmt.Errorf("find segments near (%v, %v): %w", lng, lat, err)
	}

	return assembleSegments(segRows, ptRows, restrRows), nil
}

// assembleSegments nests points under segments and restrictions under points.
func assembleSegments(segRows []segmentRow, ptRows []pointRow, restrRows []restrictionRow) []geo.Segment {
	restrsByPoint := make(map[string][]geo.Restriction, len(ptRows))
	for _, rr := range restrRows {
		restrsByPoint[rr.PointID] = append(restrsByPoint[rr.PointID], geo.Restriction{
			Kind:      rr.Kind,
			Days:      rr.Days,
			StartTime: rr.StartTime,
			EndTime:   rr.EndTime,
			UpdatedBy: rr.UpdatedBy,
			Bearing:   rr.Bearing,
			Cost:      rr.Cost,
			Limit:     rr.TimeLimit,
			Permit:    rr.Permit,
			Rating:    rr.Rating,
		})
	}

	pointsBySegment := make(map[string][]geo.Point, len(segRows))
	for _, pr := range ptRows {
		pointsBySegment[pr.SegmentID] = append(pointsBySegment[pr.SegmentID], geo.Point{
			Coordinates:  [2]float64{pr.Lng, pr.Lat},
			Restrictions: restrsByPoint[pr.ID],
		})
	}

	segments := make([]geo.Segment, 0, len(segRows))
	for _, sr := range segRows {
		segments = append(segments, geo.Segment{
			ID:       sr.ID,
			GID:      sr.GID,
			CamsID:   sr.CamsID,
			FullName: sr.FullName,
			Status:   sr.Status,
			Type:     sr.Type,
			Start:    [2]float64{sr.StartLng, sr.StartLat},
			End:      [2]float64{sr.EndLng, sr.EndLat},
			Points:   pointsBySegment[sr.ID],
		})
	}
	return segments
}
