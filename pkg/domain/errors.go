package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrUnknownSlot is returned when a wire adapter names a transaction slot that does not exist.
var ErrUnknownSlot = errors.New("unknown transaction slot")

// ErrUnknownPhase is returned when advancing to a phase outside the workflow.
var ErrUnknownPhase = errors.New("unknown phase")

// ErrPhaseRejected is returned when a phase guard refuses to leave the current phase.
var ErrPhaseRejected = errors.New("phase change rejected")

// ErrUnknownNode is returned when a click targets an id that is not part of the screen.
var ErrUnknownNode = errors.New("unknown node")

// ErrInvalidNode is returned when a screen declaration is malformed.
var ErrInvalidNode = errors.New("invalid node")

// ErrInvalidSetting is returned when a setting or transient state holds anything but true.
var ErrInvalidSetting = errors.New("invalid setting")

// ErrInvoiceNotFound is returned by invoice sources for unknown invoice ids.
var ErrInvoiceNotFound = errors.New("invoice not found")
