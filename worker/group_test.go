package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupRunsTasks(t *testing.T) {
	g := NewGroup()
	var ran atomic.Int32

	for i := 0; i < 5; i++ {
		require.True(t, g.Go("task", func() { ran.Add(1) }))
	}
	require.NoError(t, g.Drain(context.Background()))

	assert.Equal(t, int32(5), ran.Load())
}

func TestGroupRefusesAfterDrain(t *testing.T) {
	g := NewGroup()
	require.NoError(t, g.Drain(context.Background()))

	assert.False(t, g.Go("late", func() { t.Error("must not run") }))
}

func TestGroupDrainWaitsForInflightWork(t *testing.T) {
	g := NewGroup()
	release := make(chan struct{})
	var done atomic.Bool

	g.Go("slow", func() {
		<-release
		done.Store(true)
	})

	close(release)
	require.NoError(t, g.Drain(context.Background()))
	assert.True(t, done.Load())
}

func TestGroupDrainHonorsContext(t *testing.T) {
	g := NewGroup()
	release := make(chan struct{})
	defer close(release)

	g.Go("stuck", func() { <-release })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, g.Drain(ctx), context.DeadlineExceeded)
}

func TestGroupContainsPanics(t *testing.T) {
	g := NewGroup()
	var after atomic.Bool

	g.Go("boom", func() { panic("boom") })
	g.Go("fine", func() { after.Store(true) })

	require.NoError(t, g.Drain(context.Background()))
	assert.True(t, after.Load())
}
