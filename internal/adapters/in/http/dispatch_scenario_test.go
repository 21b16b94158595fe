package http_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	httpadapter "fulfillment/internal/adapters/in/http"
	"fulfillment/internal/adapters/out/memory/sitedir"
	"fulfillment/internal/adapters/out/memory/timelinestore"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/core/application/usecases/queries"
	"fulfillment/internal/core/domain/model/site"
	"fulfillment/internal/core/domain/services"
	"fulfillment/internal/jobs"
	"fulfillment/internal/pkg/metrics"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastPlanner keeps the full timeline well under a second.
var fastPlanner = services.PlannerConfig{
	PerItemPickDuration: 20 * time.Millisecond,
	SpeedFactor:         10 * time.Millisecond,
	PickingStartDelay:   time.Millisecond,
	DeliveredGrace:      10 * time.Millisecond,
}

type liveStack struct {
	router    *echo.Echo
	directory *sitedir.Directory
	scheduler *jobs.TimelineScheduler
}

func newLiveStack(t *testing.T, sites []site.Site) *liveStack {
	t.Helper()

	m := metrics.New()
	directory := sitedir.New(nil, m, discardLogger)
	require.NoError(t, directory.Replace(sites))

	ledger := timelinestore.New()
	recorder := commands.NewRecordStageCommandHandler(ledger, nil, m, discardLogger)
	scheduler := jobs.NewTimelineScheduler(recorder, time.Second, m, discardLogger)
	require.NoError(t, scheduler.Start())
	t.Cleanup(scheduler.Stop)

	planner, err := services.NewDeliveryPlanner(fastPlanner)
	require.NoError(t, err)

	clock := commands.SystemClock{}
	server := httpadapter.NewServer(
		commands.NewDispatchOrderCommandHandler(directory, ledger, scheduler, nil, planner, clock, m, discardLogger),
		commands.NewCancelOrderCommandHandler(ledger, scheduler, nil, clock, m, discardLogger),
		queries.NewGetOrderStatusQueryHandler(ledger),
		false,
	)
	router, err := httpadapter.NewRouter(server, m, discardLogger)
	require.NoError(t, err)

	return &liveStack{router: router, directory: directory, scheduler: scheduler}
}

func (s *liveStack) do(method, target, body string) *httpResult {
	f := &fixture{router: s.router}
	rec := f.do(method, target, body)
	return &httpResult{code: rec.Code, body: rec.Body.Bytes()}
}

type httpResult struct {
	code int
	body []byte
}

func (s *liveStack) pollUntilTerminal(t *testing.T, orderID string) []httpadapter.OrderStatus {
	t.Helper()

	var snapshots []httpadapter.OrderStatus
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		res := s.do(http.MethodGet, "/status/"+orderID, "")
		require.Equal(t, http.StatusOK, res.code, string(res.body))

		var status httpadapter.OrderStatus
		require.NoError(t, json.Unmarshal(res.body, &status))
		snapshots = append(snapshots, status)

		if n := len(status.Updates); n > 0 {
			last := status.Updates[n-1].Stage
			if last == "Delivered" || last == "Cancelled" {
				return snapshots
			}
		}
		time.Sleep(5 * time.Millisecond)
	}

	t.Fatalf("order %s did not reach a terminal stage", orderID)
	return nil
}

func scenarioSites(t *testing.T) []site.Site {
	return []site.Site{
		mustSite(t, "F1", 0, 0, site.Facility),
		mustSite(t, "F2", 10, 10, site.Facility),
		mustSite(t, "R1", 1, 1, site.RelayPoint),
		mustSite(t, "R2", 9, 9, site.RelayPoint),
	}
}

func TestDispatchScenario_EndToEnd(t *testing.T) {
	// Given
	stack := newLiveStack(t, scenarioSites(t))

	// When
	res := stack.do(http.MethodPost, "/dispatch", `{"orderId":"scenario-1","userX":2,"userY":2,"quantity":2}`)

	// Then
	require.Equal(t, http.StatusOK, res.code, string(res.body))
	var result httpadapter.DispatchResult
	require.NoError(t, json.Unmarshal(res.body, &result))
	assert.Equal(t, "F1", result.AssignedFacility.Name)
	assert.Equal(t, "R1", result.AssignedRelayPoint.Name)
	assert.Equal(t, 2.83, result.DistanceToFacility)
	assert.Equal(t, 1.41, result.DistanceFacilityToRelay)

	snapshots := stack.pollUntilTerminal(t, "scenario-1")
	final := snapshots[len(snapshots)-1]

	stages := make([]string, 0, len(final.Updates))
	for _, u := range final.Updates {
		stages = append(stages, u.Stage)
	}
	assert.Equal(t, []string{"Pending", "Picking", "FacilityToRelay", "RelayToDestination", "Delivered"}, stages)

	delivered := final.Updates[len(final.Updates)-1].Time
	assert.GreaterOrEqual(t,
		delivered.Sub(result.DispatchedAt).Milliseconds(), result.EstimatedTotalDurationMs)

	// every snapshot is a prefix of the final timeline
	for _, snap := range snapshots {
		require.LessOrEqual(t, len(snap.Updates), len(final.Updates))
		for i, u := range snap.Updates {
			assert.Equal(t, final.Updates[i].Stage, u.Stage)
		}
	}

	// a terminal timeline no longer changes
	again := stack.pollUntilTerminal(t, "scenario-1")
	assert.Equal(t, final, again[len(again)-1])
	assert.Zero(t, stack.scheduler.Armed())
}

func TestDispatchScenario_EmptyDirectory(t *testing.T) {
	stack := newLiveStack(t, nil)

	res := stack.do(http.MethodPost, "/dispatch", `{"orderId":"nowhere","userX":2,"userY":2}`)

	require.Equal(t, http.StatusInternalServerError, res.code)
	var body httpadapter.Error
	require.NoError(t, json.Unmarshal(res.body, &body))
	assert.Equal(t, httpadapter.KindNoCandidatesAvailable, body.Kind)

	status := stack.do(http.MethodGet, "/status/nowhere", "")
	require.Equal(t, http.StatusOK, status.code)
	assert.JSONEq(t, `{"orderId":"nowhere","updates":[]}`, string(status.body))
}

func TestDispatchScenario_CancelStopsTimeline(t *testing.T) {
	// Given
	stack := newLiveStack(t, scenarioSites(t))
	res := stack.do(http.MethodPost, "/dispatch", `{"orderId":"cancel-me","userX":2,"userY":2,"quantity":10000}`)
	require.Equal(t, http.StatusOK, res.code, string(res.body))

	// When
	cancel := stack.do(http.MethodDelete, "/dispatch/cancel-me", "")

	// Then
	require.Equal(t, http.StatusOK, cancel.code, string(cancel.body))
	var status httpadapter.OrderStatus
	require.NoError(t, json.Unmarshal(cancel.body, &status))
	require.NotEmpty(t, status.Updates)
	assert.Equal(t, "Cancelled", status.Updates[len(status.Updates)-1].Stage)
	assert.Zero(t, stack.scheduler.Armed())

	again := stack.do(http.MethodDelete, "/dispatch/cancel-me", "")
	assert.Equal(t, http.StatusConflict, again.code)

	unknown := stack.do(http.MethodDelete, "/dispatch/never-dispatched", "")
	assert.Equal(t, http.StatusNotFound, unknown.code)
}
