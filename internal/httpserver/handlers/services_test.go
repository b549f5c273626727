package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/cradle/internal/babybuddy"
	"github.com/MrSnakeDoc/cradle/internal/dispatch"
	"github.com/MrSnakeDoc/cradle/internal/domain"
	"github.com/MrSnakeDoc/cradle/internal/httpserver/deps"
	"github.com/MrSnakeDoc/cradle/internal/index"
	"github.com/MrSnakeDoc/cradle/internal/logger"
	"github.com/MrSnakeDoc/cradle/internal/manifest"
	"github.com/MrSnakeDoc/cradle/internal/metrics"
)

type fakeAPI struct {
	posts []string // endpoints posted to
	timer *babybuddy.Timer
}

func (f *fakeAPI) Post(_ context.Context, endpoint string, _ map[string]any) error {
	f.posts = append(f.posts, endpoint)
	return nil
}

func (f *fakeAPI) Delete(_ context.Context, _ string, _ int) error {
	return nil
}

func (f *fakeAPI) ActiveTimer(_ context.Context, _ int) (*babybuddy.Timer, error) {
	return f.timer, nil
}

var testMetrics = metrics.New()

func testDeps(t *testing.T, api *fakeAPI) deps.Deps {
	t.Helper()

	table, err := manifest.Build("")
	if err != nil {
		t.Fatalf("manifest.Build() error = %v", err)
	}

	log := logger.New("error", false)
	memIndex := index.NewMemoryIndex()
	memIndex.UpdateChildren([]*domain.Child{
		{ID: 7, Slug: "june-doe", FirstName: "June", LastName: "Doe", BirthDate: "2026-01-15"},
	})

	dispatcher := dispatch.NewDispatcher(api, log)
	dispatcher.Now = func() time.Time {
		return time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)
	}

	return deps.Deps{
		Logger:      log,
		StartTime:   time.Now(),
		MemoryIndex: memIndex,
		Table:       table,
		Dispatcher:  dispatcher,
		Metrics:     testMetrics,
	}
}

func invoke(t *testing.T, d deps.Deps, service, body string) *httptest.ResponseRecorder {
	t.Helper()

	r := chi.NewRouter()
	r.Post("/api/services/{service}", InvokeService(d))

	req := httptest.NewRequest(http.MethodPost, "/api/services/"+service, strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp
}

func TestListServices(t *testing.T) {
	d := testDeps(t, &fakeAPI{})

	req := httptest.NewRequest(http.MethodGet, "/api/services", nil)
	rec := httptest.NewRecorder()
	ListServices(d)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var views []serviceView
	if err := json.Unmarshal(rec.Body.Bytes(), &views); err != nil {
		t.Fatalf("failed to decode listing: %v", err)
	}
	if len(views) != 8 {
		t.Fatalf("listed %d services, want 8", len(views))
	}
	if views[0].Service != "add_child" {
		t.Errorf("first service = %q, want add_child", views[0].Service)
	}

	feeding := views[2]
	if feeding.Service != "add_feeding" {
		t.Fatalf("third service = %q, want add_feeding", feeding.Service)
	}
	if feeding.Target == nil || feeding.Target.Domain != "switch" {
		t.Errorf("add_feeding target = %+v, want switch domain", feeding.Target)
	}
	if feeding.Fields[0].Key != "timer" {
		t.Errorf("add_feeding first field = %q, want timer", feeding.Fields[0].Key)
	}
}

func TestInvokeUnknownService(t *testing.T) {
	d := testDeps(t, &fakeAPI{})

	rec := invoke(t, d, "add_bath", `{"data":{}}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if resp := decodeError(t, rec); resp.Kind != "unknown_service" {
		t.Errorf("kind = %q, want unknown_service", resp.Kind)
	}
}

func TestInvokeMissingRequiredField(t *testing.T) {
	d := testDeps(t, &fakeAPI{})

	rec := invoke(t, d, "add_child", `{"data":{"first_name":"June"}}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	resp := decodeError(t, rec)
	if resp.Kind != "missing_required_field" {
		t.Errorf("kind = %q, want missing_required_field", resp.Kind)
	}
	if resp.Field != "last_name" {
		t.Errorf("field = %q, want last_name", resp.Field)
	}
}

func TestInvokeOutOfRange(t *testing.T) {
	d := testDeps(t, &fakeAPI{})

	rec := invoke(t, d, "add_temperature", `{"child":"june-doe","data":{"temperature":200,"time":"08:00"}}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	resp := decodeError(t, rec)
	if resp.Kind != "out_of_range" {
		t.Errorf("kind = %q, want out_of_range", resp.Kind)
	}
	if resp.Field != "temperature" {
		t.Errorf("field = %q, want temperature", resp.Field)
	}
}

func TestInvokeUnexpectedField(t *testing.T) {
	d := testDeps(t, &fakeAPI{})

	rec := invoke(t, d, "add_sleep", `{"child":"june-doe","data":{"mood":"sleepy"}}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if resp := decodeError(t, rec); resp.Kind != "unexpected_field" {
		t.Errorf("kind = %q, want unexpected_field", resp.Kind)
	}
}

func TestInvokeTargetMismatch(t *testing.T) {
	d := testDeps(t, &fakeAPI{})

	rec := invoke(t, d, "add_feeding", `{
		"child": "june-doe",
		"target": {"domain": "sensor"},
		"data": {"type": "Breast milk", "method": "Both breasts", "start": "13:00", "end": "13:30"}
	}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if resp := decodeError(t, rec); resp.Kind != "target_mismatch" {
		t.Errorf("kind = %q, want target_mismatch", resp.Kind)
	}
}

func TestInvokeUnknownChild(t *testing.T) {
	d := testDeps(t, &fakeAPI{})

	rec := invoke(t, d, "add_sleep", `{"child":"nobody","data":{"start":"13:00","end":"14:00"}}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestInvokeSuccess(t *testing.T) {
	api := &fakeAPI{}
	d := testDeps(t, api)

	rec := invoke(t, d, "add_diaper_change", `{"child":"june-doe","data":{"time":"09:00","color":"Brown"}}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp invokeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "ok" || resp.Child != "june-doe" {
		t.Errorf("response = %+v, want ok for june-doe", resp)
	}
	// Default diaper type applied verbatim
	if resp.Resolved["type"] != "wet" {
		t.Errorf("resolved type = %v, want wet", resp.Resolved["type"])
	}

	if len(api.posts) != 1 || api.posts[0] != babybuddy.EndpointChanges {
		t.Errorf("posts = %v, want one to %q", api.posts, babybuddy.EndpointChanges)
	}

	// Counter incremented on the child
	child, _ := d.MemoryIndex.GetChild(7)
	if child.Counter != 1 {
		t.Errorf("child counter = %d, want 1", child.Counter)
	}
}

func TestInvokeNoActiveTimer(t *testing.T) {
	d := testDeps(t, &fakeAPI{})

	rec := invoke(t, d, "add_feeding", `{"child":"june-doe","data":{"timer":true,"type":"Breast milk","method":"Bottle"}}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestStopTimerEndpoint(t *testing.T) {
	api := &fakeAPI{timer: &babybuddy.Timer{ID: 42, Active: true}}
	d := testDeps(t, api)

	r := chi.NewRouter()
	r.Delete("/api/children/{id}/timer", StopTimer(d))

	req := httptest.NewRequest(http.MethodDelete, "/api/children/june-doe/timer", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	// Without an active timer the discard conflicts
	api.timer = nil
	req = httptest.NewRequest(http.MethodDelete, "/api/children/june-doe/timer", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status without timer = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestGetChildBySlugAndID(t *testing.T) {
	d := testDeps(t, &fakeAPI{})

	r := chi.NewRouter()
	r.Get("/api/children/{id}", GetChild(d))

	for _, key := range []string{"7", "june-doe"} {
		req := httptest.NewRequest(http.MethodGet, "/api/children/"+key, nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s status = %d, want %d", key, rec.Code, http.StatusOK)
		}
		var view childView
		if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
			t.Fatalf("failed to decode child: %v", err)
		}
		if view.Slug != "june-doe" || view.Name != "June Doe" {
			t.Errorf("child = %+v, want june-doe / June Doe", view)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/children/999", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing child status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
