package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// State is the lifecycle state of a soft-deletable record.
type State string

const (
	StateActive  State = "ACTIVE"
	StateTrashed State = "TRASHED"
)

// DeleteView selects which lifecycle state a listing shows. The wire values
// are shared with the transition tags: "SD" lists active records, "PD" lists
// trashed ones.
type DeleteView string

const (
	ViewActive  DeleteView = "SD"
	ViewTrashed DeleteView = "PD"
)

// ParseDeleteView parses a deleteType query value. Empty input means the
// active view.
func ParseDeleteView(s string) (DeleteView, error) {
	switch DeleteView(strings.ToUpper(strings.TrimSpace(s))) {
	case "", ViewActive:
		return ViewActive, nil
	case ViewTrashed:
		return ViewTrashed, nil
	default:
		return "", NewAppError(CodeInvalidOperation, fmt.Sprintf("invalid deleteType %q: must be SD or PD", s), nil)
	}
}

// State returns the lifecycle state the view lists.
func (v DeleteView) State() State {
	if v == ViewTrashed {
		return StateTrashed
	}
	return StateActive
}

// Transition is a lifecycle transition tag.
type Transition string

const (
	SoftDelete      Transition = "SD"
	Restore         Transition = "RSD"
	PermanentDelete Transition = "PD"
)

// ParseTransition parses a deleteType body value. Unknown tags are rejected.
func ParseTransition(s string) (Transition, error) {
	switch t := Transition(strings.ToUpper(strings.TrimSpace(s))); t {
	case SoftDelete, Restore, PermanentDelete:
		return t, nil
	default:
		return "", NewAppError(CodeInvalidOperation, fmt.Sprintf("invalid deleteType %q: must be SD, RSD or PD", s), nil)
	}
}

// From returns the state a record must be in for the transition to apply.
func (t Transition) From() State {
	if t == SoftDelete {
		return StateActive
	}
	return StateTrashed
}

// Verb is the past-tense description used in response messages.
func (t Transition) Verb() string {
	switch t {
	case SoftDelete:
		return "moved into trash"
	case Restore:
		return "restored"
	case PermanentDelete:
		return "deleted permanently"
	}
	return "updated"
}

// Offered returns the transitions a listing in view v exposes.
func Offered(v DeleteView) []Transition {
	if v == ViewTrashed {
		return []Transition{Restore, PermanentDelete}
	}
	return []Transition{SoftDelete}
}

// IsOffered reports whether t is available from view v.
func IsOffered(v DeleteView, t Transition) bool {
	return slices.Contains(Offered(v), t)
}

// Caller carries the externally supplied identity of the requester.
// Admin is the only capability the lifecycle and listing operations consult.
type Caller struct {
	Subject string
	Admin   bool
}

// LifecycleEvent describes an applied lifecycle transition.
type LifecycleEvent struct {
	Resource   string     `json:"resource"`
	Transition Transition `json:"deleteType"`
	IDs        []string   `json:"ids"`
	Affected   int64      `json:"affected"`
	Actor      string     `json:"actor,omitempty"`
	At         time.Time  `json:"at"`
}
