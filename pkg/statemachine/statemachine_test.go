package statemachine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oficaz/billing-engine/pkg/statemachine"
)

type testState string

type testEvent string

const (
	stateDraft     testState = "draft"
	statePublished testState = "published"
	stateArchived  testState = "archived"

	eventPublish testEvent = "publish"
	eventArchive testEvent = "archive"
)

func TestFire_BasicTransition(t *testing.T) {
	t.Parallel()

	m := statemachine.MustNew(
		statemachine.Transition[testState, testEvent]{From: stateDraft, To: statePublished, Event: eventPublish},
		statemachine.Transition[testState, testEvent]{From: statePublished, To: stateArchived, Event: eventArchive},
	)

	next, err := m.Fire(context.Background(), stateDraft, eventPublish, nil)
	require.NoError(t, err)
	assert.Equal(t, statePublished, next)

	next, err = m.Fire(context.Background(), next, eventArchive, nil)
	require.NoError(t, err)
	assert.Equal(t, stateArchived, next)
}

func TestFire_NoTransition(t *testing.T) {
	t.Parallel()

	m := statemachine.MustNew(
		statemachine.Transition[testState, testEvent]{From: stateDraft, To: statePublished, Event: eventPublish},
	)

	next, err := m.Fire(context.Background(), stateArchived, eventPublish, nil)
	assert.True(t, statemachine.IsNoTransition(err))
	assert.Equal(t, stateArchived, next, "state unchanged on error")
}

func TestFire_GuardBranching(t *testing.T) {
	t.Parallel()

	// Two transitions for the same from/event pair; the first one whose
	// guards pass wins.
	m := statemachine.MustNew(
		statemachine.Transition[testState, testEvent]{
			From: stateDraft, To: statePublished, Event: eventPublish,
			Guards: []statemachine.Guard[testState, testEvent]{
				func(ctx context.Context, from testState, event testEvent, data any) bool {
					return data == "approved"
				},
			},
		},
		statemachine.Transition[testState, testEvent]{
			From: stateDraft, To: stateArchived, Event: eventPublish,
		},
	)

	next, err := m.Fire(context.Background(), stateDraft, eventPublish, "approved")
	require.NoError(t, err)
	assert.Equal(t, statePublished, next)

	next, err = m.Fire(context.Background(), stateDraft, eventPublish, "anything else")
	require.NoError(t, err)
	assert.Equal(t, stateArchived, next)
}

func TestFire_AllGuardsRejected(t *testing.T) {
	t.Parallel()

	m := statemachine.MustNew(
		statemachine.Transition[testState, testEvent]{
			From: stateDraft, To: statePublished, Event: eventPublish,
			Guards: []statemachine.Guard[testState, testEvent]{
				func(ctx context.Context, from testState, event testEvent, data any) bool { return false },
			},
		},
	)

	next, err := m.Fire(context.Background(), stateDraft, eventPublish, nil)
	assert.True(t, statemachine.IsRejected(err))
	assert.Equal(t, stateDraft, next)
}

func TestFire_ActionFailureAbortsTransition(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	m := statemachine.MustNew(
		statemachine.Transition[testState, testEvent]{
			From: stateDraft, To: statePublished, Event: eventPublish,
			Actions: []statemachine.Action[testState, testEvent]{
				func(ctx context.Context, from, to testState, event testEvent, data any) error { return boom },
			},
		},
	)

	next, err := m.Fire(context.Background(), stateDraft, eventPublish, nil)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, stateDraft, next)
}

func TestCanFire(t *testing.T) {
	t.Parallel()

	m := statemachine.MustNew(
		statemachine.Transition[testState, testEvent]{From: stateDraft, To: statePublished, Event: eventPublish},
	)

	assert.True(t, m.CanFire(context.Background(), stateDraft, eventPublish, nil))
	assert.False(t, m.CanFire(context.Background(), statePublished, eventPublish, nil))
}

func TestNew_InvalidTransition(t *testing.T) {
	t.Parallel()

	_, err := statemachine.New(
		statemachine.Transition[testState, testEvent]{From: "", To: statePublished, Event: eventPublish},
	)
	assert.ErrorIs(t, err, statemachine.ErrInvalidTransition)
}
