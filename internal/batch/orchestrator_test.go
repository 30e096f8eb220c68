package batch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leozw/vitals-guardian/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testTargets(n int) []core.Target {
	urls := []string{"https://a.test/", "https://b.test/", "https://c.test/", "https://d.test/"}
	out := make([]core.Target, n)
	for i := range out {
		out[i] = core.Target{ID: string(rune('a' + i)), URL: urls[i]}
	}
	return out
}

func newOrchestrator(delay time.Duration) (*Orchestrator, *[]time.Duration) {
	o := NewOrchestrator(delay, zap.NewNop())
	var slept []time.Duration
	o.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return o, &slept
}

func TestRun_SequentialWithProgress(t *testing.T) {
	o, slept := newOrchestrator(DefaultDelay)
	list := testTargets(3)

	var calls []string
	fetch := func(_ context.Context, tg core.Target) (*core.Snapshot, error) {
		calls = append(calls, tg.ID)
		if tg.ID == "b" {
			return nil, errors.New("provider timeout")
		}
		return &core.Snapshot{Performance: core.Float(90)}, nil
	}
	var progress []Progress
	results := o.Run(context.Background(), list, fetch, func(p Progress) { progress = append(progress, p) })

	assert.Equal(t, []string{"a", "b", "c"}, calls)
	// no pause after the last request
	assert.Equal(t, []time.Duration{DefaultDelay, DefaultDelay}, *slept)

	require.Len(t, results, 3)
	assert.True(t, results[0].Success)
	assert.NotNil(t, results[0].Data)
	assert.False(t, results[1].Success)
	assert.Equal(t, "provider timeout", results[1].Error)
	assert.Nil(t, results[1].Data)
	assert.True(t, results[2].Success)
	assert.Equal(t, 1, Failed(results))

	assert.Equal(t, []Progress{
		{Current: 1, Total: 3, URL: "https://a.test/", Status: StatusProcessing},
		{Current: 1, Total: 3, URL: "https://a.test/", Status: StatusCompleted},
		{Current: 2, Total: 3, URL: "https://b.test/", Status: StatusProcessing},
		{Current: 2, Total: 3, URL: "https://b.test/", Status: StatusError},
		{Current: 3, Total: 3, URL: "https://c.test/", Status: StatusProcessing},
		{Current: 3, Total: 3, URL: "https://c.test/", Status: StatusCompleted},
	}, progress)
}

func TestRun_Empty(t *testing.T) {
	o, slept := newOrchestrator(DefaultDelay)
	results := o.Run(context.Background(), nil, nil, nil)
	assert.Empty(t, results)
	assert.Empty(t, *slept)
}

func TestRun_CancelledDuringDelay(t *testing.T) {
	o := NewOrchestrator(time.Hour, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	fetched := 0
	fetch := func(context.Context, core.Target) (*core.Snapshot, error) {
		fetched++
		cancel()
		return &core.Snapshot{}, nil
	}

	done := make(chan []Result)
	go func() { done <- o.Run(ctx, testTargets(3), fetch, nil) }()

	select {
	case results := <-done:
		assert.Equal(t, 1, fetched)
		require.Len(t, results, 3)
		assert.True(t, results[0].Success)
		for _, r := range results[1:] {
			assert.False(t, r.Success)
			assert.Equal(t, context.Canceled.Error(), r.Error)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("batch did not stop after cancellation")
	}
}

func TestRun_RealDelay(t *testing.T) {
	o := NewOrchestrator(20*time.Millisecond, zap.NewNop())
	fetch := func(context.Context, core.Target) (*core.Snapshot, error) { return &core.Snapshot{}, nil }

	start := time.Now()
	results := o.Run(context.Background(), testTargets(3), fetch, nil)
	assert.Len(t, results, 3)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}
