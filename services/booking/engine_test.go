package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bikebooker/models"
	"bikebooker/services/rental"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeRepo is an in-memory booking repository.
type fakeRepo struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
	updates  []map[string]interface{}
}

func newFakeRepo(bookings ...*models.Booking) *fakeRepo {
	r := &fakeRepo{bookings: make(map[string]*models.Booking)}
	for _, b := range bookings {
		r.bookings[b.ID] = b
	}
	return r
}

func (r *fakeRepo) Create(b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now
	r.bookings[b.ID] = b
	return nil
}

func (r *fakeRepo) GetByID(id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, errors.New("booking not found")
	}
	snapshot := *b
	return &snapshot, nil
}

func (r *fakeRepo) ListByRequester(requesterRef string) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.RequesterRef == requesterRef {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *fakeRepo) UpdateFields(id string, fields map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return errors.New("booking not found")
	}
	copied := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		copied[k] = v
		switch k {
		case "status":
			b.Status = v.(string)
		case "matched_bike_id":
			b.MatchedBikeID = v.(string)
		case "matched_bike_address":
			b.MatchedBikeAddress = v.(string)
		case "matched_bike_label":
			b.MatchedBikeLabel = v.(string)
		case "failure_detail":
			b.FailureDetail = v.(string)
		}
	}
	b.UpdatedAt = time.Now()
	r.updates = append(r.updates, copied)
	return nil
}

func (r *fakeRepo) setStatus(id, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[id].Status = status
}

// listResult scripts one ListNearby response.
type listResult struct {
	bikes []models.BikeCandidate
	err   error
}

// fakeRental replays scripted responses and records calls.
type fakeRental struct {
	mu          sync.Mutex
	results     []listResult
	listCalls   int
	reserved    []int
	reserveErr  error
	afterList   func(call int)
	cancelCalls int
}

func (f *fakeRental) ListNearby(ctx context.Context, lat, lng float64) ([]models.BikeCandidate, error) {
	f.mu.Lock()
	f.listCalls++
	call := f.listCalls
	var res listResult
	if len(f.results) > 0 {
		res = f.results[0]
		if len(f.results) > 1 {
			f.results = f.results[1:]
		}
	}
	hook := f.afterList
	f.mu.Unlock()
	if hook != nil {
		hook(call)
	}
	return res.bikes, res.err
}

func (f *fakeRental) Reserve(ctx context.Context, bikeID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reserved = append(f.reserved, bikeID)
	return f.reserveErr
}

func (f *fakeRental) CancelActiveRental(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelCalls++
	return nil
}

// recordingDispatcher counts outcome notifications.
type recordingDispatcher struct {
	mu        sync.Mutex
	snapshots []models.Booking
}

func (d *recordingDispatcher) Notify(ctx context.Context, b *models.Booking) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.snapshots = append(d.snapshots, *b)
}

func pendingBooking() *models.Booking {
	return &models.Booking{
		ID:              "b-1",
		RequesterRef:    "rider@example.com",
		RawQuery:        "1 Market St",
		ResolvedAddress: "1 Market St, San Francisco",
		Latitude:        37.7936,
		Longitude:       -122.3953,
		Status:          models.StatusPending,
		AutoBook:        true,
	}
}

func newTestEngine(repo *fakeRepo, client *fakeRental, dispatcher *recordingDispatcher, maxAttempts int) *FulfillmentEngine {
	return &FulfillmentEngine{
		Repo:       repo,
		Rental:     client,
		Dispatcher: dispatcher,
		Config: EngineConfig{
			MaxAttempts: maxAttempts,
			Backoff:     time.Millisecond,
			Selection:   DefaultSelectionCriteria(),
		},
		Logger: zap.NewNop(),
	}
}

func qualifyingBike() models.BikeCandidate {
	return models.BikeCandidate{ID: 42, Label: "0042", Address: "Market St & 5th", DistanceMeters: 120, BatteryPercent: 80}
}

func TestFulfillBooksClosestBike(t *testing.T) {
	b := pendingBooking()
	repo := newFakeRepo(b)
	client := &fakeRental{results: []listResult{{bikes: []models.BikeCandidate{qualifyingBike()}}}}
	dispatcher := &recordingDispatcher{}
	engine := newTestEngine(repo, client, dispatcher, 10)

	require.NoError(t, engine.Fulfill(context.Background(), "b-1"))

	stored, _ := repo.GetByID("b-1")
	assert.Equal(t, models.StatusBooked, stored.Status)
	assert.Equal(t, "42", stored.MatchedBikeID)
	assert.Equal(t, "Market St & 5th", stored.MatchedBikeAddress)
	assert.Equal(t, "0042", stored.MatchedBikeLabel)
	assert.Equal(t, []int{42}, client.reserved)
	require.Len(t, dispatcher.snapshots, 1)
	assert.Equal(t, models.StatusBooked, dispatcher.snapshots[0].Status)
}

func TestFulfillMatchedWithoutAutoBook(t *testing.T) {
	b := pendingBooking()
	b.AutoBook = false
	repo := newFakeRepo(b)
	client := &fakeRental{results: []listResult{{bikes: []models.BikeCandidate{qualifyingBike()}}}}
	dispatcher := &recordingDispatcher{}
	engine := newTestEngine(repo, client, dispatcher, 10)

	require.NoError(t, engine.Fulfill(context.Background(), "b-1"))

	stored, _ := repo.GetByID("b-1")
	assert.Equal(t, models.StatusMatched, stored.Status)
	assert.Equal(t, "42", stored.MatchedBikeID)
	assert.Empty(t, client.reserved, "reserve must not be called when autoBook is off")
	require.Len(t, dispatcher.snapshots, 1)
	assert.Equal(t, models.StatusMatched, dispatcher.snapshots[0].Status)
}

func TestFulfillExhaustsAfterExactlyMaxAttempts(t *testing.T) {
	b := pendingBooking()
	repo := newFakeRepo(b)
	client := &fakeRental{results: []listResult{{bikes: nil}}}
	dispatcher := &recordingDispatcher{}
	engine := newTestEngine(repo, client, dispatcher, 3)

	require.NoError(t, engine.Fulfill(context.Background(), "b-1"))

	stored, _ := repo.GetByID("b-1")
	assert.Equal(t, models.StatusNotFound, stored.Status)
	assert.Equal(t, 3, client.listCalls, "exactly maxAttempts search attempts")
	assert.Empty(t, client.reserved)
	require.Len(t, dispatcher.snapshots, 1)
	assert.Equal(t, models.StatusNotFound, dispatcher.snapshots[0].Status)
	assert.Empty(t, dispatcher.snapshots[0].MatchedBikeID)
}

func TestFulfillRetriesOnceOnNetworkFailure(t *testing.T) {
	b := pendingBooking()
	repo := newFakeRepo(b)
	netErr := &rental.NetworkError{StatusCode: 503, Body: "upstream down"}
	client := &fakeRental{results: []listResult{
		{err: netErr},
		{bikes: []models.BikeCandidate{qualifyingBike()}},
	}}
	dispatcher := &recordingDispatcher{}
	engine := newTestEngine(repo, client, dispatcher, 10)

	require.NoError(t, engine.Fulfill(context.Background(), "b-1"))

	stored, _ := repo.GetByID("b-1")
	assert.Equal(t, models.StatusBooked, stored.Status, "one transient failure must not escalate")
	assert.Equal(t, 2, client.listCalls)
}

func TestFulfillLeavesBookingPendingOnContextCancel(t *testing.T) {
	b := pendingBooking()
	repo := newFakeRepo(b)
	client := &fakeRental{results: []listResult{{err: context.Canceled}}}
	dispatcher := &recordingDispatcher{}
	engine := newTestEngine(repo, client, dispatcher, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := engine.Fulfill(ctx, "b-1")
	require.ErrorIs(t, err, context.Canceled)

	stored, _ := repo.GetByID("b-1")
	assert.Equal(t, models.StatusPending, stored.Status, "worker shutdown must leave the booking for re-delivery")
	assert.Empty(t, stored.FailureDetail)
	assert.Empty(t, dispatcher.snapshots)
	assert.Equal(t, 1, client.listCalls, "no immediate retry on a cancelled context")
}

func TestFulfillRunsAtLeastOneAttempt(t *testing.T) {
	b := pendingBooking()
	repo := newFakeRepo(b)
	client := &fakeRental{results: []listResult{{bikes: nil}}}
	dispatcher := &recordingDispatcher{}
	engine := newTestEngine(repo, client, dispatcher, 0)

	require.NoError(t, engine.Fulfill(context.Background(), "b-1"))

	stored, _ := repo.GetByID("b-1")
	assert.Equal(t, models.StatusNotFound, stored.Status, "a non-positive attempt budget still reaches a terminal status")
	assert.Equal(t, 1, client.listCalls)
	require.Len(t, dispatcher.snapshots, 1)
}

func TestFulfillGivesUpAfterTwoConsecutiveFailures(t *testing.T) {
	b := pendingBooking()
	repo := newFakeRepo(b)
	netErr := &rental.NetworkError{StatusCode: 503, Body: "upstream down"}
	client := &fakeRental{results: []listResult{{err: netErr}}}
	dispatcher := &recordingDispatcher{}
	engine := newTestEngine(repo, client, dispatcher, 10)

	require.NoError(t, engine.Fulfill(context.Background(), "b-1"))

	stored, _ := repo.GetByID("b-1")
	assert.Equal(t, models.StatusError, stored.Status)
	assert.Contains(t, stored.FailureDetail, "503")
	assert.Equal(t, 2, client.listCalls, "exactly one immediate retry before giving up")
	assert.Empty(t, stored.MatchedBikeID)
	require.Len(t, dispatcher.snapshots, 1)
}

func TestFulfillReservationFailureKeepsMatch(t *testing.T) {
	b := pendingBooking()
	repo := newFakeRepo(b)
	client := &fakeRental{
		results:    []listResult{{bikes: []models.BikeCandidate{qualifyingBike()}}},
		reserveErr: &rental.NetworkError{StatusCode: 409, Body: "bike already rented"},
	}
	dispatcher := &recordingDispatcher{}
	engine := newTestEngine(repo, client, dispatcher, 10)

	require.NoError(t, engine.Fulfill(context.Background(), "b-1"))

	stored, _ := repo.GetByID("b-1")
	assert.Equal(t, models.StatusError, stored.Status)
	assert.Equal(t, "42", stored.MatchedBikeID, "match details must survive a failed reservation")
	assert.Equal(t, "0042", stored.MatchedBikeLabel)
	assert.Contains(t, stored.FailureDetail, "failed to reserve bike 42")
	require.Len(t, dispatcher.snapshots, 1)
	assert.Equal(t, models.StatusError, dispatcher.snapshots[0].Status)
}

func TestFulfillSkipsNonPendingBooking(t *testing.T) {
	b := pendingBooking()
	b.Status = models.StatusCancelled
	repo := newFakeRepo(b)
	client := &fakeRental{}
	dispatcher := &recordingDispatcher{}
	engine := newTestEngine(repo, client, dispatcher, 10)

	require.NoError(t, engine.Fulfill(context.Background(), "b-1"))

	assert.Zero(t, client.listCalls)
	assert.Empty(t, dispatcher.snapshots)
}

func TestFulfillStopsWhenCancelledDuringBackoff(t *testing.T) {
	b := pendingBooking()
	repo := newFakeRepo(b)
	client := &fakeRental{results: []listResult{{bikes: nil}}}
	client.afterList = func(call int) {
		if call == 1 {
			repo.setStatus("b-1", models.StatusCancelled)
		}
	}
	dispatcher := &recordingDispatcher{}
	engine := newTestEngine(repo, client, dispatcher, 5)

	require.NoError(t, engine.Fulfill(context.Background(), "b-1"))

	stored, _ := repo.GetByID("b-1")
	assert.Equal(t, models.StatusCancelled, stored.Status)
	assert.Equal(t, 1, client.listCalls, "no further attempts after cancellation")
	assert.Empty(t, dispatcher.snapshots, "the cancellation path owns the outcome, not the engine")
}

func TestFulfillTransitionsAreAtomicPerUpdate(t *testing.T) {
	b := pendingBooking()
	b.AutoBook = false
	repo := newFakeRepo(b)
	client := &fakeRental{results: []listResult{{bikes: []models.BikeCandidate{qualifyingBike()}}}}
	dispatcher := &recordingDispatcher{}
	engine := newTestEngine(repo, client, dispatcher, 10)

	require.NoError(t, engine.Fulfill(context.Background(), "b-1"))

	// The matched transition must carry status and matched fields in one write.
	require.Len(t, repo.updates, 1)
	update := repo.updates[0]
	assert.Equal(t, models.StatusMatched, update["status"])
	assert.Equal(t, "42", update["matched_bike_id"])
	assert.Equal(t, "Market St & 5th", update["matched_bike_address"])
	assert.Equal(t, "0042", update["matched_bike_label"])
}

func TestFulfillUnknownBooking(t *testing.T) {
	repo := newFakeRepo()
	engine := newTestEngine(repo, &fakeRental{}, &recordingDispatcher{}, 10)
	require.Error(t, engine.Fulfill(context.Background(), "missing"))
}
