package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/curbmap/curbmap-api/internal/domain/geo"
)

const (
	defaultSearchRadiusMeters = 250
	maxSearchRadiusMeters     = 5000
)

// SegmentFinder looks up street segments near a coordinate.
type SegmentFinder interface {
	FindNear(ctx context.Context, lng, lat, radiusMeters float64) ([]geo.Segment, error)
}

// SegmentHandlers provides HTTP handlers for street segment queries.
type SegmentHandlers struct {
	Repo   SegmentFinder
	Logger *slog.Logger
}

func (h *SegmentHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Near returns segments around a point, with their per-point restrictions.
// GET /api/segments?lng=<lng>&lat=<lat>&radius=<meters>.
func (h *SegmentHandlers) Near(w http.ResponseWriter, r *http.Request) {
	lng, lngErr := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if lngErr != nil || latErr != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_coordinates",
			Err:     errors.New("lng and lat query parameters are required"),
		})
		return
	}
	if lng < -180 || lng > 180 || lat < -90 || lat > 90 {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_coordinates",
			Err:     errors.New("coordinates are out of range"),
		})
		return
	}

	radius := float64(defaultSearchRadiusMeters)
	if raw := r.URL.Query().Get("radius"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			WriteError(w, ErrorParams{
				Code:    http.StatusBadRequest,
				ErrCode: "invalid_radius",
				Err:     errors.New("radius must be a positive number of meters"),
			})
			return
		}
		radius = min(parsed, maxSearchRadiusMeters)
	}

	segments, err := h.Repo.FindNear(r.Context(), lng, lat, radius)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "segment lookup failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "segment_lookup_failed",
			Err:     errors.New("segment lookup failed"),
		})
		return
	}
	if segments == nil {
		segments = []geo.Segment{}
	}

	WriteJSON(w, http.StatusOK, map[string]any{"segments": segments})
}
