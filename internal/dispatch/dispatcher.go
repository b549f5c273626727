// Package dispatch routes validated service-call payloads to the Baby Buddy
// API. Validation happens before dispatch, in the schema table; this package
// only translates resolved payloads into API writes.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrSnakeDoc/cradle/internal/babybuddy"
	"github.com/MrSnakeDoc/cradle/internal/domain"
	"github.com/MrSnakeDoc/cradle/internal/logger"
)

// ErrNoActiveTimer is returned when a call sets the timer flag but the child
// has no running timer.
var ErrNoActiveTimer = errors.New("dispatch: no active timer for child")

// ErrChildRequired is returned when a service needs a target child and none
// was resolved.
var ErrChildRequired = errors.New("dispatch: service requires a target child")

// API is the slice of the Baby Buddy client the dispatcher needs.
type API interface {
	Post(ctx context.Context, endpoint string, data map[string]any) error
	Delete(ctx context.Context, endpoint string, entry int) error
	ActiveTimer(ctx context.Context, childID int) (*babybuddy.Timer, error)
}

// Dispatcher translates resolved service payloads into Baby Buddy writes.
type Dispatcher struct {
	api    API
	logger logger.Logger

	// Now is the clock used to resolve time-of-day fields. Overridable in
	// tests.
	Now func() time.Time
}

// NewDispatcher creates a dispatcher backed by api.
func NewDispatcher(api API, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		api:    api,
		logger: log,
		Now:    time.Now,
	}
}

// Dispatch posts one validated service call. child is the resolved target
// child; it may be nil only for add_child.
func (d *Dispatcher) Dispatch(ctx context.Context, service string, child *domain.Child, resolved map[string]any) error {
	if service != "add_child" && child == nil {
		return ErrChildRequired
	}

	switch service {
	case "add_child":
		return d.addChild(ctx, resolved)
	case "start_timer":
		return d.startTimer(ctx, child, resolved)
	case "add_feeding":
		return d.addFeeding(ctx, child, resolved)
	case "add_sleep":
		return d.addSleep(ctx, child, resolved)
	case "add_tummy_time":
		return d.addTummyTime(ctx, child, resolved)
	case "add_diaper_change":
		return d.addDiaperChange(ctx, child, resolved)
	case "add_temperature":
		return d.addTemperature(ctx, child, resolved)
	case "add_weight":
		return d.addWeight(ctx, child, resolved)
	}
	return fmt.Errorf("dispatch: no handler for service %q", service)
}

func (d *Dispatcher) addChild(ctx context.Context, resolved map[string]any) error {
	birthDate, err := d.resolveDate(resolved, "birth_date")
	if err != nil {
		return err
	}

	return d.api.Post(ctx, babybuddy.EndpointChildren, map[string]any{
		"first_name": resolved["first_name"],
		"last_name":  resolved["last_name"],
		"birth_date": birthDate,
	})
}

func (d *Dispatcher) startTimer(ctx context.Context, child *domain.Child, resolved map[string]any) error {
	data := map[string]any{"child": child.ID}
	if name, ok := resolved["name"]; ok {
		data["name"] = name
	}
	if err := d.putInstant(resolved, data, "start"); err != nil {
		return err
	}
	return d.api.Post(ctx, babybuddy.EndpointTimers, data)
}

func (d *Dispatcher) addFeeding(ctx context.Context, child *domain.Child, resolved map[string]any) error {
	data := map[string]any{
		"type":   resolved["type"],
		"method": resolved["method"],
	}
	copyOptional(resolved, data, "amount", "notes")

	if err := d.applySpan(ctx, child, resolved, data); err != nil {
		return err
	}
	return d.api.Post(ctx, babybuddy.EndpointFeedings, data)
}

func (d *Dispatcher) addSleep(ctx context.Context, child *domain.Child, resolved map[string]any) error {
	data := map[string]any{}
	copyOptional(resolved, data, "notes")

	if err := d.applySpan(ctx, child, resolved, data); err != nil {
		return err
	}
	return d.api.Post(ctx, babybuddy.EndpointSleep, data)
}

func (d *Dispatcher) addTummyTime(ctx context.Context, child *domain.Child, resolved map[string]any) error {
	data := map[string]any{}
	copyOptional(resolved, data, "milestone")

	if err := d.applySpan(ctx, child, resolved, data); err != nil {
		return err
	}
	return d.api.Post(ctx, babybuddy.EndpointTummyTimes, data)
}

func (d *Dispatcher) addDiaperChange(ctx context.Context, child *domain.Child, resolved map[string]any) error {
	// The type option maps to a pair of API booleans.
	kind, _ := resolved["type"].(string)
	data := map[string]any{
		"child": child.ID,
		"wet":   strings.EqualFold(kind, "wet"),
		"solid": strings.EqualFold(kind, "solid"),
	}
	copyOptional(resolved, data, "color", "amount", "notes")

	if err := d.putInstant(resolved, data, "time"); err != nil {
		return err
	}
	return d.api.Post(ctx, babybuddy.EndpointChanges, data)
}

func (d *Dispatcher) addTemperature(ctx context.Context, child *domain.Child, resolved map[string]any) error {
	data := map[string]any{
		"child":       child.ID,
		"temperature": resolved["temperature"],
	}
	copyOptional(resolved, data, "notes")

	if err := d.putInstant(resolved, data, "time"); err != nil {
		return err
	}
	return d.api.Post(ctx, babybuddy.EndpointTemperature, data)
}

func (d *Dispatcher) addWeight(ctx context.Context, child *domain.Child, resolved map[string]any) error {
	data := map[string]any{
		"child":  child.ID,
		"weight": resolved["weight"],
	}
	copyOptional(resolved, data, "notes")

	if _, ok := resolved["date"]; ok {
		date, err := d.resolveDate(resolved, "date")
		if err != nil {
			return err
		}
		data["date"] = date
	}
	return d.api.Post(ctx, babybuddy.EndpointWeight, data)
}

// StopTimer discards the child's active timer without recording an entry.
func (d *Dispatcher) StopTimer(ctx context.Context, child *domain.Child) error {
	if child == nil {
		return ErrChildRequired
	}

	timer, err := d.api.ActiveTimer(ctx, child.ID)
	if err != nil {
		return err
	}
	if timer == nil {
		return fmt.Errorf("%w %q", ErrNoActiveTimer, child.Slug)
	}

	d.logger.Info("discarding active timer",
		logger.String("child", child.Slug),
		logger.Int("timer_id", timer.ID))
	return d.api.Delete(ctx, babybuddy.EndpointTimers, timer.ID)
}

// applySpan fills the start/end/child fields of span-shaped entries. When
// the timer flag is set the entry is linked to the child's active timer and
// the explicit start/end values are ignored.
func (d *Dispatcher) applySpan(ctx context.Context, child *domain.Child, resolved, data map[string]any) error {
	if useTimer, _ := resolved["timer"].(bool); useTimer {
		timer, err := d.api.ActiveTimer(ctx, child.ID)
		if err != nil {
			return err
		}
		if timer == nil {
			return fmt.Errorf("%w %q", ErrNoActiveTimer, child.Slug)
		}
		d.logger.Debug("resolved active timer",
			logger.String("child", child.Slug),
			logger.Int("timer_id", timer.ID))
		data["timer"] = timer.ID
		return nil
	}

	data["child"] = child.ID
	if err := d.putInstant(resolved, data, "start"); err != nil {
		return err
	}
	return d.putInstant(resolved, data, "end")
}

// putInstant resolves a validated time field into an RFC3339 instant.
func (d *Dispatcher) putInstant(resolved, data map[string]any, key string) error {
	raw, ok := resolved[key].(string)
	if !ok {
		return nil
	}
	instant, err := babybuddy.DatetimeFromClock(raw, d.Now())
	if err != nil {
		return err
	}
	data[key] = instant.Format(time.RFC3339)
	return nil
}

// resolveDate resolves a validated time field into a YYYY-MM-DD date.
func (d *Dispatcher) resolveDate(resolved map[string]any, key string) (string, error) {
	raw, _ := resolved[key].(string)
	instant, err := babybuddy.DatetimeFromClock(raw, d.Now())
	if err != nil {
		return "", err
	}
	return instant.Format("2006-01-02"), nil
}

func copyOptional(resolved, data map[string]any, keys ...string) {
	for _, key := range keys {
		if value, ok := resolved[key]; ok {
			data[key] = value
		}
	}
}
