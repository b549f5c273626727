package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrSnakeDoc/cradle/internal/babybuddy"
	"github.com/MrSnakeDoc/cradle/internal/domain"
	"github.com/MrSnakeDoc/cradle/internal/logger"
)

type recordedPost struct {
	endpoint string
	data     map[string]any
}

type fakeAPI struct {
	posts   []recordedPost
	deletes []int
	timer   *babybuddy.Timer
	postErr error
}

func (f *fakeAPI) Post(_ context.Context, endpoint string, data map[string]any) error {
	if f.postErr != nil {
		return f.postErr
	}
	f.posts = append(f.posts, recordedPost{endpoint: endpoint, data: data})
	return nil
}

func (f *fakeAPI) Delete(_ context.Context, _ string, entry int) error {
	f.deletes = append(f.deletes, entry)
	return nil
}

func (f *fakeAPI) ActiveTimer(_ context.Context, _ int) (*babybuddy.Timer, error) {
	return f.timer, nil
}

func testDispatcher(api *fakeAPI) *Dispatcher {
	d := NewDispatcher(api, logger.New("error", false))
	d.Now = func() time.Time {
		return time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)
	}
	return d
}

func testChild() *domain.Child {
	return &domain.Child{ID: 7, Slug: "june-doe", FirstName: "June", LastName: "Doe"}
}

func lastPost(t *testing.T, api *fakeAPI) recordedPost {
	t.Helper()
	if len(api.posts) != 1 {
		t.Fatalf("recorded %d posts, want 1", len(api.posts))
	}
	return api.posts[0]
}

func TestDispatchAddChild(t *testing.T) {
	api := &fakeAPI{}
	d := testDispatcher(api)

	err := d.Dispatch(context.Background(), "add_child", nil, map[string]any{
		"first_name": "June",
		"last_name":  "Doe",
		"birth_date": "2026-03-01",
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	post := lastPost(t, api)
	if post.endpoint != babybuddy.EndpointChildren {
		t.Errorf("endpoint = %q, want %q", post.endpoint, babybuddy.EndpointChildren)
	}
	if post.data["birth_date"] != "2026-03-01" {
		t.Errorf("birth_date = %v, want 2026-03-01", post.data["birth_date"])
	}
	if post.data["first_name"] != "June" {
		t.Errorf("first_name = %v, want June", post.data["first_name"])
	}
}

func TestDispatchChildRequired(t *testing.T) {
	d := testDispatcher(&fakeAPI{})

	err := d.Dispatch(context.Background(), "add_sleep", nil, map[string]any{})
	if !errors.Is(err, ErrChildRequired) {
		t.Fatalf("Dispatch() error = %v, want ErrChildRequired", err)
	}
}

func TestDispatchFeedingWithTimer(t *testing.T) {
	api := &fakeAPI{timer: &babybuddy.Timer{ID: 42, Active: true}}
	d := testDispatcher(api)

	err := d.Dispatch(context.Background(), "add_feeding", testChild(), map[string]any{
		"timer":  true,
		"type":   "Breast milk",
		"method": "Both breasts",
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	post := lastPost(t, api)
	if post.endpoint != babybuddy.EndpointFeedings {
		t.Errorf("endpoint = %q, want %q", post.endpoint, babybuddy.EndpointFeedings)
	}
	if post.data["timer"] != 42 {
		t.Errorf("timer = %v, want 42", post.data["timer"])
	}
	if _, ok := post.data["child"]; ok {
		t.Error("timer-linked entry should not carry a child field")
	}
	if post.data["type"] != "Breast milk" {
		t.Errorf("type = %v, want Breast milk", post.data["type"])
	}
}

func TestDispatchFeedingNoActiveTimer(t *testing.T) {
	d := testDispatcher(&fakeAPI{})

	err := d.Dispatch(context.Background(), "add_feeding", testChild(), map[string]any{
		"timer":  true,
		"type":   "Fortified breast milk",
		"method": "Bottle",
	})
	if !errors.Is(err, ErrNoActiveTimer) {
		t.Fatalf("Dispatch() error = %v, want ErrNoActiveTimer", err)
	}
}

func TestDispatchSleepExplicitSpan(t *testing.T) {
	api := &fakeAPI{}
	d := testDispatcher(api)

	err := d.Dispatch(context.Background(), "add_sleep", testChild(), map[string]any{
		"start": "13:00",
		"end":   "14:30",
		"notes": "afternoon nap",
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	post := lastPost(t, api)
	if post.endpoint != babybuddy.EndpointSleep {
		t.Errorf("endpoint = %q, want %q", post.endpoint, babybuddy.EndpointSleep)
	}
	if post.data["child"] != 7 {
		t.Errorf("child = %v, want 7", post.data["child"])
	}
	if post.data["start"] != "2026-03-14T13:00:00Z" {
		t.Errorf("start = %v, want 2026-03-14T13:00:00Z", post.data["start"])
	}
	if post.data["end"] != "2026-03-14T14:30:00Z" {
		t.Errorf("end = %v, want 2026-03-14T14:30:00Z", post.data["end"])
	}
	if post.data["notes"] != "afternoon nap" {
		t.Errorf("notes = %v, want afternoon nap", post.data["notes"])
	}
}

func TestDispatchSleepFutureStart(t *testing.T) {
	d := testDispatcher(&fakeAPI{})

	err := d.Dispatch(context.Background(), "add_sleep", testChild(), map[string]any{
		"start": "23:59",
	})
	if !errors.Is(err, babybuddy.ErrFutureTime) {
		t.Fatalf("Dispatch() error = %v, want ErrFutureTime", err)
	}
}

func TestDispatchDiaperChange(t *testing.T) {
	cases := []struct {
		kind      string
		wet, soil bool
	}{
		{"wet", true, false},
		{"Wet", true, false},
		{"Solid", false, true},
	}

	for _, tc := range cases {
		t.Run(tc.kind, func(t *testing.T) {
			api := &fakeAPI{}
			d := testDispatcher(api)

			err := d.Dispatch(context.Background(), "add_diaper_change", testChild(), map[string]any{
				"type":  tc.kind,
				"time":  "09:15",
				"color": "Brown",
			})
			if err != nil {
				t.Fatalf("Dispatch() error = %v", err)
			}

			post := lastPost(t, api)
			if post.endpoint != babybuddy.EndpointChanges {
				t.Errorf("endpoint = %q, want %q", post.endpoint, babybuddy.EndpointChanges)
			}
			if post.data["wet"] != tc.wet || post.data["solid"] != tc.soil {
				t.Errorf("wet/solid = %v/%v, want %v/%v", post.data["wet"], post.data["solid"], tc.wet, tc.soil)
			}
			if post.data["time"] != "2026-03-14T09:15:00Z" {
				t.Errorf("time = %v, want 2026-03-14T09:15:00Z", post.data["time"])
			}
			if post.data["color"] != "Brown" {
				t.Errorf("color = %v, want Brown", post.data["color"])
			}
		})
	}
}

func TestDispatchTemperature(t *testing.T) {
	api := &fakeAPI{}
	d := testDispatcher(api)

	err := d.Dispatch(context.Background(), "add_temperature", testChild(), map[string]any{
		"temperature": 98.6,
		"time":        "08:00",
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	post := lastPost(t, api)
	if post.endpoint != babybuddy.EndpointTemperature {
		t.Errorf("endpoint = %q, want %q", post.endpoint, babybuddy.EndpointTemperature)
	}
	if post.data["temperature"] != 98.6 {
		t.Errorf("temperature = %v, want 98.6", post.data["temperature"])
	}
}

func TestDispatchWeight(t *testing.T) {
	api := &fakeAPI{}
	d := testDispatcher(api)

	err := d.Dispatch(context.Background(), "add_weight", testChild(), map[string]any{
		"weight": 4.2,
		"date":   "2026-03-10",
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	post := lastPost(t, api)
	if post.endpoint != babybuddy.EndpointWeight {
		t.Errorf("endpoint = %q, want %q", post.endpoint, babybuddy.EndpointWeight)
	}
	if post.data["date"] != "2026-03-10" {
		t.Errorf("date = %v, want 2026-03-10", post.data["date"])
	}
}

func TestDispatchStartTimer(t *testing.T) {
	api := &fakeAPI{}
	d := testDispatcher(api)

	err := d.Dispatch(context.Background(), "start_timer", testChild(), map[string]any{
		"name": "feeding",
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	post := lastPost(t, api)
	if post.endpoint != babybuddy.EndpointTimers {
		t.Errorf("endpoint = %q, want %q", post.endpoint, babybuddy.EndpointTimers)
	}
	if post.data["child"] != 7 {
		t.Errorf("child = %v, want 7", post.data["child"])
	}
	if post.data["name"] != "feeding" {
		t.Errorf("name = %v, want feeding", post.data["name"])
	}
}

func TestStopTimer(t *testing.T) {
	api := &fakeAPI{timer: &babybuddy.Timer{ID: 42, Active: true}}
	d := testDispatcher(api)

	if err := d.StopTimer(context.Background(), testChild()); err != nil {
		t.Fatalf("StopTimer() error = %v", err)
	}
	if len(api.deletes) != 1 || api.deletes[0] != 42 {
		t.Errorf("deletes = %v, want [42]", api.deletes)
	}
}

func TestStopTimerNoneActive(t *testing.T) {
	d := testDispatcher(&fakeAPI{})

	err := d.StopTimer(context.Background(), testChild())
	if !errors.Is(err, ErrNoActiveTimer) {
		t.Fatalf("StopTimer() error = %v, want ErrNoActiveTimer", err)
	}
}

func TestDispatchUnknownService(t *testing.T) {
	d := testDispatcher(&fakeAPI{})

	err := d.Dispatch(context.Background(), "add_bath", testChild(), map[string]any{})
	if err == nil {
		t.Fatal("Dispatch() expected error for unknown service")
	}
}
