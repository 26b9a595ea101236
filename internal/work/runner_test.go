package work

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigman78/termprogress/internal/progress"
)

// recorder is a progress.Reporter that keeps every call.
type recorder struct {
	mu       sync.Mutex
	advanced int64
	calls    int
	messages []string
	failAt   int // fail from the Nth Advance call on; 0 never fails
}

var errReporter = errors.New("reporter failed")

func (r *recorder) Advance(n int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.failAt > 0 && r.calls >= r.failAt {
		return errReporter
	}
	r.advanced += n
	return nil
}

func (r *recorder) Message(msg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return nil
}

func (r *recorder) Finish() error { return nil }

func TestRunReportsEveryItem(t *testing.T) {
	rec := &recorder{}
	stats, err := Run(context.Background(), Config{
		Items:        50,
		Step:         3,
		Threads:      4,
		MessageEvery: 10,
	}, rec)
	require.NoError(t, err)

	assert.Equal(t, 50, stats.Items)
	assert.Equal(t, 5, stats.Messages)
	assert.Equal(t, int64(150), rec.advanced)
	assert.Equal(t, []string{
		"processed 10/50 items",
		"processed 20/50 items",
		"processed 30/50 items",
		"processed 40/50 items",
		"processed 50/50 items",
	}, rec.messages)
}

func TestRunDrivesTrackerToFullRuler(t *testing.T) {
	var buf bytes.Buffer
	tr, err := progress.New(200, progress.WithWriter(&buf))
	require.NoError(t, err)

	_, err = Run(context.Background(), Config{Items: 100, Step: 2, Threads: 8}, tr)
	require.NoError(t, err)
	require.NoError(t, tr.Finish())

	assert.Equal(t, progress.Scale, tr.Tick())
	assert.Equal(t, int64(200), tr.Count())
	assert.Contains(t, buf.String(), progress.Ruler(progress.Scale, "."))
	assert.True(t, strings.HasSuffix(buf.String(), "\r"))
}

func TestRunStopsOnReporterError(t *testing.T) {
	rec := &recorder{failAt: 5}
	stats, err := Run(context.Background(), Config{Items: 1000, Step: 1, Threads: 2, ItemCost: time.Millisecond}, rec)
	require.ErrorIs(t, err, errReporter)
	// Only the four reported items count as done.
	assert.Equal(t, 4, stats.Items)
	assert.Equal(t, int64(4), rec.advanced)
}

func TestRunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := &recorder{}
	stats, err := Run(ctx, Config{Items: 10, Step: 1, Threads: 2, RatePerSec: 1}, rec)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, stats.Items)
}

func TestRunRateLimits(t *testing.T) {
	rec := &recorder{}
	start := time.Now()
	_, err := Run(context.Background(), Config{Items: 5, Step: 1, Threads: 5, RatePerSec: 50}, rec)
	require.NoError(t, err)
	// Four waits at 20ms each after the initial burst.
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestRunValidatesConfig(t *testing.T) {
	_, err := Run(context.Background(), Config{Items: 0, Threads: 1}, &recorder{})
	assert.Error(t, err)
	_, err = Run(context.Background(), Config{Items: 1, Threads: 0}, &recorder{})
	assert.Error(t, err)
}
