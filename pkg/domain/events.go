package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventClick        EventType = "click"
	EventPhaseAdvance EventType = "phase_advance"
	EventDispatch     EventType = "dispatch"
	EventDerive       EventType = "derive"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// ClickEvent reports a handled (or ignored) click.
type ClickEvent struct {
	EventBase
	TargetID string `json:"target_id"`
	Effect   Effect `json:"effect"`
}

// PhaseEvent reports a phase change. The transient state was reset.
type PhaseEvent struct {
	EventBase
	From Phase `json:"from"`
	To   Phase `json:"to"`
}

// DispatchEvent reports a transaction slot replacement.
type DispatchEvent struct {
	EventBase
	Slot string `json:"slot"`
}

// DeriveEvent reports a refund derivation.
type DeriveEvent struct {
	EventBase
	Atoms            int   `json:"atoms"`
	TotalValueCents  int64 `json:"total_value_cents"`
	UnreceiptedQty   int   `json:"unreceipted_qty"`
	UnreceiptedCents int64 `json:"unreceipted_cents"`
}

// Hooks defines callbacks for observability. Nil callbacks are skipped.
type Hooks struct {
	OnClick    func(context.Context, *ClickEvent)
	OnPhase    func(context.Context, *PhaseEvent)
	OnDispatch func(context.Context, *DispatchEvent)
	OnDerive   func(context.Context, *DeriveEvent)
}

// Merge returns hooks that call h first and then other.
func (h Hooks) Merge(other Hooks) Hooks {
	return Hooks{
		OnClick:    chain(h.OnClick, other.OnClick),
		OnPhase:    chain(h.OnPhase, other.OnPhase),
		OnDispatch: chain(h.OnDispatch, other.OnDispatch),
		OnDerive:   chain(h.OnDerive, other.OnDerive),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
