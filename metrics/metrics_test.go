package metrics_test

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity"
	"github.com/tsinghua-fib-lab/multimodal-sim/entity/person/route"
	"github.com/tsinghua-fib-lab/multimodal-sim/metrics"
	"github.com/tsinghua-fib-lab/multimodal-sim/output"
)

func TestCollectorCounts(t *testing.T) {
	c := metrics.NewCollector()
	c.ObserveCompose(entity.Mode_CAR_DRIVING, nil)
	c.ObserveCompose(entity.Mode_CAR_DRIVING, route.ErrResourceUnavailable)
	c.ObserveCompose(entity.Mode_CAR_DRIVING, route.ErrResourceUnavailable)
	c.ObserveFallback(entity.Mode_TRAIN, route.ErrNoConnectingRoute)
	c.ObserveTransition(entity.Mode_BUS, true)
	c.ObserveTransition(entity.Mode_BUS, false)
	c.ObserveReplan(entity.Mode_CAR_DRIVING, route.ErrTransientOccupancy)

	assert.Equal(t, 1., testutil.ToFloat64(c.Compositions.WithLabelValues(entity.Mode_CAR_DRIVING.String(), "none")))
	assert.Equal(t, 2., testutil.ToFloat64(c.Compositions.WithLabelValues(entity.Mode_CAR_DRIVING.String(), "resource_unavailable")))
	assert.Equal(t, 1., testutil.ToFloat64(c.Fallbacks.WithLabelValues(entity.Mode_TRAIN.String(), "no_connecting_route")))
	assert.Equal(t, 1., testutil.ToFloat64(c.Transitions.WithLabelValues(entity.Mode_BUS.String(), "ok")))
	assert.Equal(t, 1., testutil.ToFloat64(c.Transitions.WithLabelValues(entity.Mode_BUS.String(), "failed")))
	assert.Equal(t, 1., testutil.ToFloat64(c.Replans.WithLabelValues(entity.Mode_CAR_DRIVING.String(), "transient_occupancy")))
}

func TestCollectorTrips(t *testing.T) {
	c := metrics.NewCollector()
	c.ObserveTripEnd(&output.TripRecord{DominantMode: "car_driving", ActualTravelTime: 600, ExpectedTravelTime: 500})
	c.ObserveTripEnd(&output.TripRecord{DominantMode: "walking", ActualTravelTime: 900, ForcedWalk: true})
	c.ObserveTick(3*time.Millisecond, 120, 7)

	assert.Equal(t, 1., testutil.ToFloat64(c.TripsFinished.WithLabelValues("car_driving")))
	assert.Equal(t, 1., testutil.ToFloat64(c.ForcedWalks))
	assert.Equal(t, 7., testutil.ToFloat64(c.ActivePersons))
	assert.Equal(t, 120., testutil.ToFloat64(c.SimTime))
	assert.Equal(t, 1, testutil.CollectAndCount(c.TravelTime))
}

func TestHandler(t *testing.T) {
	c := metrics.NewCollector()
	c.ObserveReplan(entity.Mode_TRAIN, route.ErrNoConnectingRoute)
	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "multimodal_replans_total"))
	assert.True(t, strings.Contains(string(body), "multimodal_tick_duration_seconds"))
}
