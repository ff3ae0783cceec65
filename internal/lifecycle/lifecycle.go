// Package lifecycle is the reservation state machine.  A reservation starts
// pending and ends confirmed or cancelled; who may move it depends on the
// actor: administrators confirm or reject, the owning user may cancel.
package lifecycle

import (
	"errors"
	"fmt"

	"github.com/experiencias-arroyo/sierra-explora/internal/model"
)

var (
	// ErrInvalidTransition is matched by every *TransitionError.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrForbidden is returned when the actor may not drive the requested
	// transition on this reservation, whatever its state.
	ErrForbidden = errors.New("forbidden")
)

// TransitionError reports a request to move a reservation from a state
// that does not allow it.
type TransitionError struct {
	From model.Status
	To   model.Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move reservation from %s to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// Actor is whoever requests a transition.  It is passed in explicitly by
// the caller, typically from the authenticated request.
type Actor struct {
	UserID uint64
	Admin  bool
}

// Role returns the role name recorded in status history.
func (a Actor) Role() string {
	if a.Admin {
		return model.RoleAdmin
	}
	return model.RoleUser
}

// Action is a named transition as exposed to users.
type Action string

const (
	ActionConfirm Action = "confirm"
	ActionReject  Action = "reject"
	ActionCancel  Action = "cancel"
)

// Target returns the status an action leads to.
func (a Action) Target() (model.Status, bool) {
	switch a {
	case ActionConfirm:
		return model.StatusConfirmed, true
	case ActionReject, ActionCancel:
		return model.StatusCancelled, true
	}
	return "", false
}

// transitions lists, per source status, the reachable targets.
var transitions = map[model.Status][]model.Status{
	model.StatusPending:   {model.StatusConfirmed, model.StatusCancelled},
	model.StatusConfirmed: {},
	model.StatusCancelled: {},
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s model.Status) bool { return len(transitions[s]) == 0 }

// CanTransition reports whether the state machine has an edge from → to,
// regardless of actor.
func CanTransition(from, to model.Status) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// entitled reports whether actor may ever request target on a reservation
// owned by ownerID.
func entitled(actor Actor, ownerID uint64, target model.Status) bool {
	if actor.Admin {
		return true
	}
	return actor.UserID != 0 && actor.UserID == ownerID && target == model.StatusCancelled
}

// Transition checks whether actor may move a reservation owned by ownerID
// from current to target.  Entitlement is checked first so callers cannot
// probe the state of reservations they have no rights over.
func Transition(current model.Status, ownerID uint64, target model.Status, actor Actor) error {
	if !entitled(actor, ownerID, target) {
		return ErrForbidden
	}
	if !CanTransition(current, target) {
		return &TransitionError{From: current, To: target}
	}
	return nil
}

// Apply runs Transition against r and, on success, sets the new status.
func Apply(r *model.Reservation, target model.Status, actor Actor) error {
	if err := Transition(r.Status, r.UserID, target, actor); err != nil {
		return err
	}
	r.Status = target
	return nil
}

// Actions lists what actor may do with r right now; views use it to decide
// which controls to render.
func Actions(r model.Reservation, actor Actor) []Action {
	var out []Action
	for _, a := range []Action{ActionConfirm, ActionReject, ActionCancel} {
		if (a == ActionReject && !actor.Admin) || (a == ActionCancel && actor.Admin && r.UserID != actor.UserID) {
			continue
		}
		target, _ := a.Target()
		if Transition(r.Status, r.UserID, target, actor) == nil {
			out = append(out, a)
		}
	}
	return out
}
