package fsm

import (
	"context"
	"errors"
	"testing"

	"github.com/looplab/fsm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMachine(before fsm.Callback) *fsm.FSM {
	return fsm.NewFSM(
		"idle",
		fsm.Events{
			{Name: "run", Src: []string{"idle"}, Dst: "running"},
			{Name: "touch", Src: []string{"running"}, Dst: "running"},
		},
		fsm.Callbacks{"before_run": before},
	)
}

func TestWrapEventCancelsOnError(t *testing.T) {
	boom := errors.New("boom")
	m := newMachine(WrapEvent(func(context.Context, *fsm.Event) error { return boom }))

	err := m.Event(context.Background(), "run")
	var canceled fsm.CanceledError
	require.ErrorAs(t, err, &canceled)
	assert.Equal(t, boom, canceled.Err)
	assert.Equal(t, "idle", m.Current())
}

func TestFireIgnoresSelfTransition(t *testing.T) {
	m := newMachine(WrapEvent(func(context.Context, *fsm.Event) error { return nil }))

	require.NoError(t, Fire(context.Background(), m, "run"))
	require.NoError(t, Fire(context.Background(), m, "touch"))
	assert.Equal(t, "running", m.Current())

	assert.Error(t, Fire(context.Background(), m, "run"))
}
