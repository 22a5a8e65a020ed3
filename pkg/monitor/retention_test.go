package monitor

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeStatsPruner struct {
	calls  int32
	cutoff int64
}

func (f *fakeStatsPruner) PruneStatsOlderThan(ctx context.Context, cutoff int64) (int64, error) {
	atomic.AddInt32(&f.calls, 1)
	f.cutoff = cutoff
	return 3, nil
}

type fakeAlertPruner struct {
	calls int32
}

func (f *fakeAlertPruner) PruneResolvedAlertsOlderThan(ctx context.Context, cutoff int64) (int64, error) {
	atomic.AddInt32(&f.calls, 1)
	return 2, nil
}

func TestRetentionSweepPrunesStatsAndAlertsWithConfiguredCutoffs(t *testing.T) {
	stats := &fakeStatsPruner{}
	alerts := &fakeAlertPruner{}
	r := NewRetention(stats, alerts, RetentionConfig{KeepStatsForDays: 7, KeepAlertsForDays: 30})
	r.Now = func() int64 { return 1_000_000 }

	r.sweep(context.Background())

	assert.EqualValues(t, 1, atomic.LoadInt32(&stats.calls))
	assert.EqualValues(t, 1, atomic.LoadInt32(&alerts.calls))
	assert.Equal(t, int64(1_000_000-7*24*60*60), stats.cutoff)
}

func TestRetentionSweepSkipsPrunersWhenRetentionDaysZero(t *testing.T) {
	stats := &fakeStatsPruner{}
	alerts := &fakeAlertPruner{}
	r := NewRetention(stats, alerts, RetentionConfig{})
	r.Now = func() int64 { return 1_000_000 }

	r.sweep(context.Background())

	assert.EqualValues(t, 0, atomic.LoadInt32(&stats.calls))
	assert.EqualValues(t, 0, atomic.LoadInt32(&alerts.calls))
}

func TestRetentionStartStopIsIdempotentAndClean(t *testing.T) {
	stats := &fakeStatsPruner{}
	alerts := &fakeAlertPruner{}
	r := NewRetention(stats, alerts, RetentionConfig{KeepStatsForDays: 1})

	r.Start(context.Background())
	r.Start(context.Background()) // second call is a no-op
	r.Stop()

	assert.GreaterOrEqual(t, atomic.LoadInt32(&stats.calls), int32(1))
}
