package task

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChuLiYu/dynapool/pkg/pool"
)

func TestSubmitWaitRoundTrip(t *testing.T) {
	core := pool.New(2)
	p := New(core)
	defer core.Close()

	fut, err := Submit(p, func() (int, error) {
		return 42, nil
	})
	require.NoError(t, err)

	v, err := fut.Wait()
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestSubmitPropagatesFunctionError(t *testing.T) {
	core := pool.New(1)
	p := New(core)
	defer core.Close()

	boom := errors.New("boom")
	fut, err := Submit(p, func() (string, error) {
		return "", boom
	})
	require.NoError(t, err)

	_, err = fut.Wait()
	assert.ErrorIs(t, err, boom)
}

func TestSubmitAfterStopReturnsAborted(t *testing.T) {
	core := pool.New(1)
	p := New(core)

	core.Stop()
	core.Join()

	fut, err := Submit(p, func() (int, error) { return 1, nil })
	assert.ErrorIs(t, err, ErrAborted)

	_, waitErr := fut.Wait()
	assert.ErrorIs(t, waitErr, ErrAborted)
}

func TestPendingTaskAbortedWhenPoolStopsBeforeDispatch(t *testing.T) {
	core := pool.New(1)
	// Cap the pool at its one worker so the second task cannot get a
	// worker of its own.
	require.NoError(t, core.SetUpperLimit(1))
	p := New(core)

	block := make(chan struct{})
	_, err := Submit(p, func() (int, error) {
		<-block
		return 0, nil
	})
	require.NoError(t, err)

	// Second task sits in pendingTasks behind the first, which never
	// returns until we close `block` below, giving Stop a real pending
	// task to drop.
	fut2, err := Submit(p, func() (int, error) { return 2, nil })
	require.NoError(t, err)

	core.Stop()
	close(block)
	core.Join()

	_, err = fut2.Wait()
	assert.ErrorIs(t, err, ErrAborted)
}

func TestCoreReturnsUnderlyingPool(t *testing.T) {
	core := pool.New(0)
	p := New(core)
	defer core.Close()

	assert.Same(t, core, p.Core())
}

func TestFutureDoneChannelClosesOnCompletion(t *testing.T) {
	core := pool.New(1)
	p := New(core)
	defer core.Close()

	fut, err := Submit(p, func() (int, error) { return 7, nil })
	require.NoError(t, err)

	select {
	case <-fut.Done():
	case <-time.After(time.Second):
		t.Fatal("future never completed")
	}

	v, err := fut.Wait()
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}
