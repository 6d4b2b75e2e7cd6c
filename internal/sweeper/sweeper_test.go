package sweeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	boostdomain "github.com/listora/listora/internal/boost/domain"
	"github.com/listora/listora/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeBoostSvc struct {
	mu      sync.Mutex
	results []boostdomain.SweepResult
	errs    []error
	calls   int
	limits  []int
}

func (f *fakeBoostSvc) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeBoostSvc) SweepExpired(ctx context.Context, limit int) (boostdomain.SweepResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.calls
	f.calls++
	f.limits = append(f.limits, limit)
	var result boostdomain.SweepResult
	var err error
	if idx < len(f.results) {
		result = f.results[idx]
	}
	if idx < len(f.errs) {
		err = f.errs[idx]
	}
	return result, err
}

func (f *fakeBoostSvc) Enqueue(context.Context, boostdomain.EnqueueRequest) (*boostdomain.QueueEntry, error) {
	return nil, nil
}
func (f *fakeBoostSvc) Cancel(context.Context, string, snowflake.ID) (bool, error) {
	return false, nil
}
func (f *fakeBoostSvc) PromoteNext(context.Context, string) (*boostdomain.QueueEntry, error) {
	return nil, nil
}
func (f *fakeBoostSvc) ExpireCurrent(context.Context, string) (*boostdomain.ExpireResult, error) {
	return nil, nil
}
func (f *fakeBoostSvc) QueueStatus(context.Context, string) (*boostdomain.QueueStatus, error) {
	return nil, nil
}
func (f *fakeBoostSvc) EntryStatus(context.Context, string, snowflake.ID) (*boostdomain.EntryStatus, error) {
	return nil, nil
}

func newTestSweeper(t *testing.T, svc boostdomain.Service, cfg Config) *Sweeper {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	sweep, err := New(Params{
		Log:      zap.NewNop(),
		BoostSvc: svc,
		GenID:    node,
		Clock:    clock.NewFakeClock(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)),
		Config:   cfg,
	})
	require.NoError(t, err)
	return sweep
}

func TestRunOnceDrainsUntilEmpty(t *testing.T) {
	svc := &fakeBoostSvc{
		results: []boostdomain.SweepResult{
			{QueuesSwept: 2, Expired: 2, Promoted: 1},
			{QueuesSwept: 1, Expired: 1, Promoted: 1},
			{},
		},
	}
	sweep := newTestSweeper(t, svc, Config{BatchSize: 2})

	require.NoError(t, sweep.RunOnce(context.Background()))
	assert.Equal(t, 3, svc.calls)
	assert.Equal(t, []int{2, 2, 2}, svc.limits)
}

func TestRunOnceReturnsSweepErrors(t *testing.T) {
	boom := errors.New("boom")
	svc := &fakeBoostSvc{
		results: []boostdomain.SweepResult{{QueuesSwept: 1, Expired: 1}, {}},
		errs:    []error{boom, nil},
	}
	sweep := newTestSweeper(t, svc, Config{})

	err := sweep.RunOnce(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, svc.calls)
}

func TestRunOnceSwallowsDeadline(t *testing.T) {
	svc := &fakeBoostSvc{
		errs: []error{context.DeadlineExceeded},
	}
	sweep := newTestSweeper(t, svc, Config{})

	require.NoError(t, sweep.RunOnce(context.Background()))
}

func TestNewValidatesDependencies(t *testing.T) {
	_, err := New(Params{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, time.Minute, cfg.RunInterval)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 30*time.Second, cfg.JobTimeout)

	custom := Config{RunInterval: 5 * time.Second, BatchSize: 10, JobTimeout: time.Second}.withDefaults()
	assert.Equal(t, 5*time.Second, custom.RunInterval)
	assert.Equal(t, 10, custom.BatchSize)
	assert.Equal(t, time.Second, custom.JobTimeout)
}
