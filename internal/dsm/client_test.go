package dsm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaishiraishi/sightline/internal/geodesy"
	"github.com/kaishiraishi/sightline/internal/resilience"
)

func fastRetry() resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.InitialBackoff = time.Millisecond
	cfg.MaxBackoff = 5 * time.Millisecond
	return cfg
}

func TestClient_ProfileDecodesAndReconstructsPositions(t *testing.T) {
	start := geodesy.Point{Lng: 139.70, Lat: 35.68}
	end := geodesy.Point{Lng: 139.71, Lat: 35.68}

	elev := func(v float64) *float64 { return &v }
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/profile", r.URL.Path)

		var req profileRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, [2]float64{139.70, 35.68}, req.Start)
		assert.Equal(t, [2]float64{139.71, 35.68}, req.End)
		assert.Equal(t, 3, req.SampleCount)

		json.NewEncoder(w).Encode(profileResponse{ //nolint:errcheck
			DistancesM: []float64{0, 450, 900},
			ElevM:      []*float64{elev(12), nil, elev(15.5)},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithRetry(fastRetry()))
	profile, err := c.Profile(context.Background(), start, end, 3)
	require.NoError(t, err)
	require.NoError(t, profile.Validate())

	assert.Equal(t, []float64{0, 450, 900}, profile.Distances)
	assert.Nil(t, profile.Elevations[1])
	assert.InDelta(t, 15.5, *profile.Elevations[2], 1e-9)

	// Sample positions lie on the geodesic toward the endpoint.
	assert.InDelta(t, start.Lng, profile.Lngs[0], 1e-9)
	assert.InDelta(t, start.Lat, profile.Lats[0], 1e-9)
	bearing := geodesy.InitialBearing(start, end)
	want := geodesy.Destination(start, bearing, 900)
	assert.InDelta(t, want.Lng, profile.Lngs[2], 1e-7)
	assert.InDelta(t, want.Lat, profile.Lats[2], 1e-7)
}

func TestClient_ProfileRetriesTransientStatus(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(profileResponse{ //nolint:errcheck
			DistancesM: []float64{0},
			ElevM:      []*float64{nil},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithRetry(fastRetry()))
	profile, err := c.Profile(context.Background(), geodesy.Point{Lng: 139.7, Lat: 35.68}, geodesy.Point{Lng: 139.71, Lat: 35.68}, 1)
	require.NoError(t, err)
	assert.Len(t, profile.Distances, 1)
	assert.Equal(t, int64(2), calls.Load())
}

func TestClient_ProfilePermanentStatusNotRetried(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithRetry(fastRetry()))
	_, err := c.Profile(context.Background(), geodesy.Point{Lng: 139.7, Lat: 35.68}, geodesy.Point{Lng: 139.71, Lat: 35.68}, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Equal(t, int64(1), calls.Load())
}

func TestClient_ProfileRejectsMismatchedArrays(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(profileResponse{ //nolint:errcheck
			DistancesM: []float64{0, 10},
			ElevM:      []*float64{nil},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithRetry(fastRetry()))
	_, err := c.Profile(context.Background(), geodesy.Point{Lng: 139.7, Lat: 35.68}, geodesy.Point{Lng: 139.71, Lat: 35.68}, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disagree")
}

func TestClient_ProfileCircuitBreakerFailsFast(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cb := resilience.NewCircuitBreaker(resilience.CircuitConfig{FailureThreshold: 2, ResetTimeout: time.Hour})
	retry := fastRetry()
	retry.MaxAttempts = 1
	c := NewClient(srv.URL, WithRetry(retry), WithCircuitBreaker(cb))

	ctx := context.Background()
	start := geodesy.Point{Lng: 139.7, Lat: 35.68}
	end := geodesy.Point{Lng: 139.71, Lat: 35.68}

	_, err := c.Profile(ctx, start, end, 1)
	require.Error(t, err)
	_, err = c.Profile(ctx, start, end, 1)
	require.Error(t, err)

	// Breaker is open now; the backend must not see further requests.
	before := calls.Load()
	_, err = c.Profile(ctx, start, end, 1)
	require.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, before, calls.Load())
}

func TestClient_Health(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	assert.NoError(t, c.Health(context.Background()))

	bad := NewClient(srv.URL + "/nope")
	assert.Error(t, bad.Health(context.Background()))
}
