package main

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSyncCronRejectsBadSchedule(t *testing.T) {
	_, err := newSyncCron("every full moon", func() {})
	assert.Error(t, err)
}

func TestNewSyncCronSkipsWhileRunning(t *testing.T) {
	var active, overlaps, runs int32

	// Each run outlasts several schedule ticks.
	c, err := newSyncCron("@every 50ms", func() {
		if atomic.AddInt32(&active, 1) > 1 {
			atomic.AddInt32(&overlaps, 1)
		}
		atomic.AddInt32(&runs, 1)
		time.Sleep(200 * time.Millisecond)
		atomic.AddInt32(&active, -1)
	})
	require.NoError(t, err)

	c.Start()
	time.Sleep(500 * time.Millisecond)
	<-c.Stop().Done()

	assert.GreaterOrEqual(t, atomic.LoadInt32(&runs), int32(1))
	assert.Zero(t, atomic.LoadInt32(&overlaps),
		"a tick during a slow run must be skipped, not stacked")
}
