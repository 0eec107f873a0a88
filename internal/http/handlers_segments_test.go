package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/curbmap/curbmap-api/internal/domain/auth"
	"github.com/curbmap/curbmap-api/internal/domain/geo"
)

type stubSegmentFinder struct {
	segments   []geo.Segment
	err        error
	lastRadius float64
}

func (s *stubSegmentFinder) FindNear(_ context.Context, _, _, radiusMeters float64) ([]geo.Segment, error) {
	s.lastRadius = radiusMeters
	return s.segments, s.err
}

func newSegmentGateway(t *testing.T, finder SegmentFinder) (http.Handler, *http.Cookie) {
	t.Helper()

	svc, _ := newTestAuthService(domainauth.User{Username: "jane", PasswordHash: "hunter2"})
	router := NewRouter(RouterServices{
		Auth:     svc,
		Segments: finder,
		Logger:   slog.New(slog.DiscardHandler),
	})
	handler := Session(svc, "")(router)

	login := postLogin(t, handler, "jane", "hunter2")
	require.Equal(t, http.StatusOK, login.Code)
	cookie := sessionCookieFrom(t, login)
	require.NotNil(t, cookie)

	return handler, cookie
}

func TestSegmentsEndpoint_RequiresAuth(t *testing.T) {
	handler, _ := newSegmentGateway(t, &stubSegmentFinder{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/segments?lng=-122.4&lat=37.77", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSegmentsEndpoint_ReturnsSegments(t *testing.T) {
	finder := &stubSegmentFinder{
		segments: []geo.Segment{{
			ID:       "seg-1",
			FullName: "Market St",
			Points: []geo.Point{{
				Coordinates:  [2]float64{-122.4, 37.77},
				Restrictions: []geo.Restriction{{Kind: "1P", Days: "MTWThF"}},
			}},
		}},
	}
	handler, cookie := newSegmentGateway(t, finder)

	req := httptest.NewRequest(http.MethodGet, "/api/segments?lng=-122.4&lat=37.77", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Segments []geo.Segment `json:"segments"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Segments, 1)
	assert.Equal(t, "Market St", resp.Segments[0].FullName)
	assert.Equal(t, float64(defaultSearchRadiusMeters), finder.lastRadius)
}

func TestSegmentsEndpoint_RadiusHandling(t *testing.T) {
	finder := &stubSegmentFinder{}
	handler, cookie := newSegmentGateway(t, finder)

	doReq := func(query string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/segments?"+query, nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("explicit radius", func(t *testing.T) {
		require.Equal(t, http.StatusOK, doReq("lng=0&lat=0&radius=1000").Code)
		assert.Equal(t, float64(1000), finder.lastRadius)
	})

	t.Run("radius clamped to max", func(t *testing.T) {
		require.Equal(t, http.StatusOK, doReq(fmt.Sprintf("lng=0&lat=0&radius=%d", maxSearchRadiusMeters*10)).Code)
		assert.Equal(t, float64(maxSearchRadiusMeters), finder.lastRadius)
	})

	t.Run("negative radius rejected", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, doReq("lng=0&lat=0&radius=-5").Code)
	})
}

func TestSegmentsEndpoint_InvalidCoordinates(t *testing.T) {
	handler, cookie := newSegmentGateway(t, &stubSegmentFinder{})

	for _, query := range []string{
		"",
		"lng=abc&lat=37.77",
		"lng=-122.4",
		"lng=-200&lat=37.77",
		"lng=-122.4&lat=95",
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/segments?"+query, nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equalf(t, http.StatusBadRequest, rec.Code, "query %q", query)
	}
}

func TestSegmentsEndpoint_LookupFailure(t *testing.T) {
	handler, cookie := newSegmentGateway(t, &stubSegmentFinder{err: errors.New("db down")})

	req := httptest.NewRequest(http.MethodGet, "/api/segments?lng=0&lat=0", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db down", "internal detail must stay server-side")
}

func TestSegmentsEndpoint_EmptyResultIsEmptyArray(t *testing.T) {
	handler, cookie := newSegmentGateway(t, &stubSegmentFinder{})

	req := httptest.NewRequest(http.MethodGet, "/api/segments?lng=0&lat=0", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"segments":[]}`, rec.Body.String())
}
