package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DraftPurger removes drafts nobody touched for a while.
type DraftPurger interface {
	PurgeDrafts(ctx context.Context, olderThan time.Time) (int64, error)
}

// Janitor periodically purges abandoned drafts on a cron schedule.
type Janitor struct {
	purger DraftPurger
	maxAge time.Duration
	spec   string
	log    *zap.Logger
	now    func() time.Time
	cron   *cron.Cron
}

func NewJanitor(purger DraftPurger, spec string, maxAge time.Duration, log *zap.Logger) *Janitor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Janitor{purger: purger, maxAge: maxAge, spec: spec, log: log, now: time.Now}
}

// Start schedules the purge job. The schedule uses standard cron syntax or
// descriptors such as "@every 1h".
func (j *Janitor) Start() error {
	c := cron.New(cron.WithLogger(cron.PrintfLogger(zap.NewStdLog(j.log))))
	if _, err := c.AddFunc(j.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := j.RunOnce(ctx); err != nil {
			j.log.Error("draft purge failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule draft purge %q: %w", j.spec, err)
	}
	j.cron = c
	c.Start()
	j.log.Info("draft purge scheduled", zap.String("spec", j.spec), zap.Duration("max_age", j.maxAge))
	return nil
}

// RunOnce purges drafts older than the configured age right away.
func (j *Janitor) RunOnce(ctx context.Context) (int64, error) {
	n, err := j.purger.PurgeDrafts(ctx, j.now().Add(-j.maxAge))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		j.log.Info("stale drafts purged", zap.Int64("count", n))
	}
	return n, nil
}

// Stop waits for a running purge to finish or for ctx to expire.
func (j *Janitor) Stop(ctx context.Context) {
	if j.cron == nil {
		return
	}
	select {
	case <-j.cron.Stop().Done():
	case <-ctx.Done():
	}
}
