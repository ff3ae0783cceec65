package lifecycle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/experiencias-arroyo/sierra-explora/internal/model"
)

const owner = uint64(42)

var (
	admin    = Actor{UserID: 1, Admin: true}
	ownerAct = Actor{UserID: owner}
	stranger = Actor{UserID: 99}
)

func TestPendingTransitions(t *testing.T) {
	tests := []struct {
		name    string
		actor   Actor
		target  model.Status
		wantErr error
	}{
		{"admin confirms", admin, model.StatusConfirmed, nil},
		{"admin rejects", admin, model.StatusCancelled, nil},
		{"owner cancels", ownerAct, model.StatusCancelled, nil},
		{"owner cannot confirm", ownerAct, model.StatusConfirmed, ErrForbidden},
		{"stranger cannot cancel", stranger, model.StatusCancelled, ErrForbidden},
		{"anonymous cannot cancel", Actor{}, model.StatusCancelled, ErrForbidden},
		{"admin cannot move back to pending", admin, model.StatusPending, ErrInvalidTransition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Transition(model.StatusPending, owner, tt.target, tt.actor)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestTerminalStatesRejectEverything(t *testing.T) {
	for _, from := range []model.Status{model.StatusConfirmed, model.StatusCancelled} {
		assert.True(t, IsTerminal(from))
		for _, to := range []model.Status{model.StatusConfirmed, model.StatusCancelled} {
			err := Transition(from, owner, to, admin)
			require.Error(t, err, "%s -> %s", from, to)
			assert.ErrorIs(t, err, ErrInvalidTransition)

			var te *TransitionError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, from, te.From)
			assert.Equal(t, to, te.To)
		}
		assert.ErrorIs(t, Transition(from, owner, model.StatusCancelled, ownerAct), ErrInvalidTransition)
	}
	assert.False(t, IsTerminal(model.StatusPending))
}

func TestScenarioConfirmThenCancel(t *testing.T) {
	r := model.Reservation{ID: 5, UserID: owner, Status: model.StatusPending}
	require.NoError(t, Apply(&r, model.StatusConfirmed, admin))
	assert.Equal(t, model.StatusConfirmed, r.Status)

	err := Apply(&r, model.StatusCancelled, admin)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, model.StatusConfirmed, r.Status)

	err = Apply(&r, model.StatusCancelled, ownerAct)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestActions(t *testing.T) {
	pending := model.Reservation{UserID: owner, Status: model.StatusPending}
	assert.Equal(t, []Action{ActionConfirm, ActionReject}, Actions(pending, admin))
	assert.Equal(t, []Action{ActionCancel}, Actions(pending, ownerAct))
	assert.Empty(t, Actions(pending, stranger))

	selfBooked := model.Reservation{UserID: admin.UserID, Status: model.StatusPending}
	assert.Equal(t, []Action{ActionConfirm, ActionReject, ActionCancel}, Actions(selfBooked, admin))

	done := model.Reservation{UserID: owner, Status: model.StatusConfirmed}
	assert.Empty(t, Actions(done, admin))
	assert.Empty(t, Actions(done, ownerAct))
}

func TestActionTarget(t *testing.T) {
	s, ok := ActionConfirm.Target()
	assert.True(t, ok)
	assert.Equal(t, model.StatusConfirmed, s)
	s, _ = ActionReject.Target()
	assert.Equal(t, model.StatusCancelled, s)
	_, ok = Action("archive").Target()
	assert.False(t, ok)
}
