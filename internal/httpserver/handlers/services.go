package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/cradle/internal/babybuddy"
	"github.com/MrSnakeDoc/cradle/internal/dispatch"
	"github.com/MrSnakeDoc/cradle/internal/domain"
	"github.com/MrSnakeDoc/cradle/internal/httpserver/deps"
	"github.com/MrSnakeDoc/cradle/internal/logger"
	"github.com/MrSnakeDoc/cradle/internal/schema"
)

// serviceView is the listing shape for one service definition.
type serviceView struct {
	Service     string      `json:"service"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Target      *targetView `json:"target,omitempty"`
	Fields      []fieldView `json:"fields"`
}

type targetView struct {
	Integration string `json:"integration,omitempty"`
	Domain      string `json:"domain"`
	DeviceClass string `json:"device_class,omitempty"`
}

type fieldView struct {
	Key         string       `json:"key"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Required    bool         `json:"required"`
	Default     any          `json:"default,omitempty"`
	Selector    selectorView `json:"selector"`
}

type selectorView struct {
	Type      string   `json:"type"`
	Multiline bool     `json:"multiline,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	Step      *float64 `json:"step,omitempty"`
	Mode      string   `json:"mode,omitempty"`
	Options   []string `json:"options,omitempty"`
}

// ListServices renders the service schema table in declaration order.
func ListServices(d deps.Deps) http.HandlerFunc {
	// The table is immutable, render once.
	views := make([]serviceView, 0, d.Table.Len())
	for _, def := range d.Table.Definitions() {
		views = append(views, viewOf(def))
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(views)
	}
}

func viewOf(def *schema.ServiceDefinition) serviceView {
	view := serviceView{
		Service:     def.Name,
		Name:        def.Label,
		Description: def.Description,
		Fields:      make([]fieldView, 0, len(def.Fields)),
	}
	if def.Target != nil {
		view.Target = &targetView{
			Integration: def.Target.Integration,
			Domain:      def.Target.Domain,
			DeviceClass: def.Target.DeviceClass,
		}
	}
	for _, field := range def.Fields {
		view.Fields = append(view.Fields, fieldView{
			Key:         field.Key,
			Name:        field.Label,
			Description: field.Description,
			Required:    field.Required,
			Default:     field.Default,
			Selector:    selectorViewOf(field.Selector),
		})
	}
	return view
}

func selectorViewOf(sel schema.Selector) selectorView {
	view := selectorView{Type: sel.Kind()}
	switch {
	case sel.Text != nil:
		view.Multiline = sel.Text.Multiline
	case sel.Number != nil:
		view.Min = sel.Number.Min
		view.Max = sel.Number.Max
		view.Step = sel.Number.Step
		view.Mode = sel.Number.Mode
	case sel.Select != nil:
		view.Options = sel.Select.Options
	}
	return view
}

// invokeRequest is the body of POST /api/services/{service}.
type invokeRequest struct {
	// Child selects the target child by slug or numeric id. Required for
	// every service with an entity target.
	Child json.RawMessage `json:"child,omitempty"`

	// Target optionally carries the entity domain/device-class the caller
	// addressed, checked against the service's declared target.
	Target *invokeTarget `json:"target,omitempty"`

	// Data is the service payload.
	Data map[string]any `json:"data"`
}

type invokeTarget struct {
	Domain      string `json:"domain"`
	DeviceClass string `json:"device_class,omitempty"`
}

type invokeResponse struct {
	Status   string         `json:"status"`
	Service  string         `json:"service"`
	Child    string         `json:"child,omitempty"`
	Resolved map[string]any `json:"resolved"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Service string `json:"service,omitempty"`
	Field   string `json:"field,omitempty"`
}

// InvokeService validates a service call against the schema table and
// dispatches it to the Baby Buddy API.
func InvokeService(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		service := chi.URLParam(r, "service")

		var req invokeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, errorResponse{
				Error: "invalid JSON body: " + err.Error(),
			})
			return
		}
		if req.Data == nil {
			req.Data = map[string]any{}
		}

		def, err := d.Table.Get(service)
		if err != nil {
			d.Metrics.ValidationFailures.WithLabelValues(service, string(schema.UnknownService)).Inc()
			writeSchemaError(w, http.StatusNotFound, err)
			return
		}

		// Target filter first, then payload validation.
		if req.Target != nil {
			target := schema.Target{Domain: req.Target.Domain, DeviceClass: req.Target.DeviceClass}
			if err := d.Table.ValidateTarget(service, target); err != nil {
				d.Metrics.ValidationFailures.WithLabelValues(service, string(schema.TargetMismatch)).Inc()
				writeSchemaError(w, http.StatusBadRequest, err)
				return
			}
		}

		resolved, err := d.Table.Validate(service, req.Data)
		if err != nil {
			kind := schema.KindOf(err)
			d.Metrics.ValidationFailures.WithLabelValues(service, string(kind)).Inc()
			d.Metrics.ServiceCallsTotal.WithLabelValues(service, "invalid").Inc()
			writeSchemaError(w, http.StatusBadRequest, err)
			return
		}

		// Resolve the target child for services that need one.
		var child *domain.Child
		if def.Target != nil {
			child = resolveChild(d, req.Child)
			if child == nil {
				d.Metrics.ServiceCallsTotal.WithLabelValues(service, "invalid").Inc()
				writeError(w, http.StatusNotFound, errorResponse{
					Error:   "target child not found",
					Service: service,
				})
				return
			}
		}

		if err := d.Dispatcher.Dispatch(r.Context(), service, child, resolved); err != nil {
			status, resp := dispatchError(service, err)
			d.Metrics.ServiceCallsTotal.WithLabelValues(service, "error").Inc()
			d.Logger.Error("service dispatch failed",
				logger.String("service", service),
				logger.Error(err))
			writeError(w, status, resp)
			return
		}

		d.Metrics.ServiceCallsTotal.WithLabelValues(service, "ok").Inc()
		if child != nil {
			d.MemoryIndex.IncrementCounter(child.ID)
		}
		if d.Store != nil {
			if err := d.Store.IncrementServiceCalls(r.Context(), service); err != nil {
				d.Logger.Debug("failed to record call stat", logger.Error(err))
			}
		}

		resp := invokeResponse{Status: "ok", Service: service, Resolved: resolved}
		if child != nil {
			resp.Child = child.Slug
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// resolveChild looks the requested child up by slug or numeric id.
func resolveChild(d deps.Deps, raw json.RawMessage) *domain.Child {
	if len(raw) == 0 {
		return nil
	}

	var slug string
	if err := json.Unmarshal(raw, &slug); err == nil {
		if child, ok := d.MemoryIndex.GetChildBySlug(slug); ok && !child.Disabled {
			return child
		}
		// Slugs are the canonical form, but accept a numeric string too.
		if id, err := strconv.Atoi(slug); err == nil {
			if child, ok := d.MemoryIndex.GetChild(id); ok && !child.Disabled {
				return child
			}
		}
		return nil
	}

	var id int
	if err := json.Unmarshal(raw, &id); err == nil {
		if child, ok := d.MemoryIndex.GetChild(id); ok && !child.Disabled {
			return child
		}
	}
	return nil
}

// dispatchError maps dispatch failures onto HTTP statuses: caller mistakes
// are 4xx, upstream failures are 502.
func dispatchError(service string, err error) (int, errorResponse) {
	resp := errorResponse{Error: err.Error(), Service: service}

	switch {
	case errors.Is(err, dispatch.ErrNoActiveTimer),
		errors.Is(err, babybuddy.ErrFutureTime),
		errors.Is(err, dispatch.ErrChildRequired):
		return http.StatusConflict, resp
	default:
		return http.StatusBadGateway, resp
	}
}

func writeSchemaError(w http.ResponseWriter, status int, err error) {
	resp := errorResponse{Error: err.Error(), Kind: string(schema.KindOf(err))}
	var schemaErr *schema.Error
	if errors.As(err, &schemaErr) {
		resp.Service = schemaErr.Service
		resp.Field = schemaErr.Field
	}
	writeError(w, status, resp)
}

func writeError(w http.ResponseWriter, status int, resp errorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
