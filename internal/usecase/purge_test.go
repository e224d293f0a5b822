package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type purgeRecorder struct {
	mu     sync.Mutex
	cutoff []time.Time
	err    error
}

func (p *purgeRecorder) PurgeDrafts(_ context.Context, olderThan time.Time) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cutoff = append(p.cutoff, olderThan)
	return 2, p.err
}

func (p *purgeRecorder) runs() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.cutoff)
}

func TestJanitorRunOnceUsesMaxAge(t *testing.T) {
	rec := &purgeRecorder{}
	j := NewJanitor(rec, "@every 1h", 48*time.Hour, nil)
	now := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	j.now = func() time.Time { return now }

	n, err := j.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, []time.Time{now.Add(-48 * time.Hour)}, rec.cutoff)

	rec.err = errors.New("boom")
	_, err = j.RunOnce(context.Background())
	assert.Error(t, err)
}

func TestJanitorRunsOnSchedule(t *testing.T) {
	rec := &purgeRecorder{}
	j := NewJanitor(rec, "@every 1s", time.Hour, nil)
	require.NoError(t, j.Start())
	defer j.Stop(context.Background())

	assert.Eventually(t, func() bool { return rec.runs() > 0 }, 3*time.Second, 50*time.Millisecond)
}

func TestJanitorRejectsBadSchedule(t *testing.T) {
	j := NewJanitor(&purgeRecorder{}, "every now and then", time.Hour, nil)
	assert.Error(t, j.Start())
	j.Stop(context.Background())
}
