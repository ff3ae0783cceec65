package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/experiencias-arroyo/sierra-explora/internal/lifecycle"
	"github.com/experiencias-arroyo/sierra-explora/internal/model"
	"github.com/experiencias-arroyo/sierra-explora/internal/repository"
	"github.com/experiencias-arroyo/sierra-explora/internal/utils"
)

const testSecret = "handler-test-secret"

// testLoc is UTC-6, the zone of the tour operators.
var testLoc = time.FixedZone("CST", -6*60*60)

// fakeReservations mirrors ReservationRepo in memory, including the
// lifecycle check done under the row lock.
type fakeReservations struct {
	mu      sync.Mutex
	rows    map[uint64]model.Reservation
	history map[uint64][]model.StatusChange
	nextID  uint64
	clock   time.Time
}

func newFakeReservations() *fakeReservations {
	return &fakeReservations{
		rows:    map[uint64]model.Reservation{},
		history: map[uint64][]model.StatusChange{},
		clock:   time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fakeReservations) Create(_ context.Context, res *model.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.clock = f.clock.Add(time.Minute)
	res.ID = f.nextID
	res.Status = model.StatusPending
	res.CreatedAt, res.UpdatedAt = f.clock, f.clock
	f.rows[res.ID] = *res
	return nil
}

func (f *fakeReservations) GetByID(_ context.Context, id uint64) (model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok {
		return model.Reservation{}, repository.ErrNotFound
	}
	return r, nil
}

func (f *fakeReservations) sorted(keep func(model.Reservation) bool) []model.Reservation {
	out := []model.Reservation{}
	for _, r := range f.rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakeReservations) ListByUser(_ context.Context, userID uint64) ([]model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(func(r model.Reservation) bool { return r.UserID == userID }), nil
}

func (f *fakeReservations) ListAll(_ context.Context, statuses ...model.Status) ([]model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sorted(func(r model.Reservation) bool {
		if len(statuses) == 0 {
			return true
		}
		for _, s := range statuses {
			if r.Status == s {
				return true
			}
		}
		return false
	}), nil
}

func (f *fakeReservations) UpdateStatus(_ context.Context, id uint64, target model.Status, actor lifecycle.Actor) (model.Reservation, model.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok {
		return model.Reservation{}, "", repository.ErrNotFound
	}
	from := r.Status
	if err := lifecycle.Transition(from, r.UserID, target, actor); err != nil {
		return model.Reservation{}, from, err
	}
	r.Status = target
	f.rows[id] = r
	f.history[id] = append(f.history[id], model.StatusChange{
		ID: uint64(len(f.history[id]) + 1), ReservationID: id, FromStatus: from, ToStatus: target,
		ActorID: actor.UserID, ActorRole: actor.Role(),
	})
	return r, from, nil
}

func (f *fakeReservations) History(_ context.Context, id uint64) ([]model.StatusChange, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.StatusChange{}, f.history[id]...), nil
}

func (f *fakeReservations) seed(r model.Reservation) model.Reservation {
	_ = f.Create(context.Background(), &r)
	return r
}

type fakeBookables struct {
	rows   map[uint64]model.Bookable
	nextID uint64
}

func newFakeBookables(items ...model.Bookable) *fakeBookables {
	f := &fakeBookables{rows: map[uint64]model.Bookable{}}
	for _, b := range items {
		f.rows[b.ID] = b
		if b.ID > f.nextID {
			f.nextID = b.ID
		}
	}
	return f
}

func (f *fakeBookables) GetByID(_ context.Context, id uint64) (model.Bookable, error) {
	b, ok := f.rows[id]
	if !ok {
		return model.Bookable{}, repository.ErrNotFound
	}
	return b, nil
}

func (f *fakeBookables) List(_ context.Context, kind model.Kind) ([]model.Bookable, error) {
	out := []model.Bookable{}
	for _, b := range f.rows {
		if kind == "" || b.Kind == kind {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeBookables) Create(_ context.Context, b *model.Bookable) error {
	f.nextID++
	b.ID = f.nextID
	f.rows[b.ID] = *b
	return nil
}

func (f *fakeBookables) Update(_ context.Context, b *model.Bookable) error {
	cur, ok := f.rows[b.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if cur.Kind != b.Kind {
		return repository.ErrConflict
	}
	f.rows[b.ID] = *b
	return nil
}

func (f *fakeBookables) Delete(_ context.Context, id uint64) error {
	if _, ok := f.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

type countingPurger struct{ n int }

func (p *countingPurger) Purge(context.Context) error { p.n++; return nil }

type recordingNotifier struct {
	created     []model.Reservation
	transitions []model.Status
}

func (n *recordingNotifier) Created(_ context.Context, r model.Reservation) {
	n.created = append(n.created, r)
}

func (n *recordingNotifier) Transitioned(_ context.Context, r model.Reservation, from model.Status, _ lifecycle.Actor) {
	n.transitions = append(n.transitions, from, r.Status)
}

// Catalog fixtures.
func tour() model.Bookable {
	b := model.Bookable{ID: 1, Kind: model.KindService, Name: "Tour Cascada"}
	b.Resolve(model.FixedSlot{}, model.WeeklyWindow{DayStart: "Lunes", DayEnd: "Viernes", TimeStart: "09:00 AM", TimeEnd: "06:00 PM"})
	return b
}

func concert() model.Bookable {
	b := model.Bookable{ID: 2, Kind: model.KindEvent, Name: "Concierto"}
	b.Resolve(model.FixedSlot{Date: "2025-12-24", Time: "20:00:00"}, model.WeeklyWindow{})
	return b
}

func bearer(t *testing.T, userID uint64, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(testSecret, userID, role, "Cliente", 10)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func do(e *echo.Echo, method, path, auth, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}
