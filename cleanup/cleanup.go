// Package cleanup periodically prunes authorizations that can no longer be used.
package cleanup

import (
	"context"
	"time"

	"github.com/jrsteele09/go-oidc-grants/authorizations"
	"github.com/jrsteele09/go-oidc-grants/configuration"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const DefaultInterval = time.Hour

// Job prunes authorizations older than the configured MinimumAgeToCleanup.
type Job struct {
	pruner     authorizations.Pruner
	minimumAge time.Duration
	interval   time.Duration
	nowTime    func() time.Time
	logger     zerolog.Logger
}

type JobOption func(*Job)

func WithInterval(interval time.Duration) JobOption {
	return func(j *Job) {
		j.interval = interval
	}
}

func WithNowTime(nowTime func() time.Time) JobOption {
	return func(j *Job) {
		j.nowTime = nowTime
	}
}

func WithLogger(logger zerolog.Logger) JobOption {
	return func(j *Job) {
		j.logger = logger
	}
}

func NewJob(pruner authorizations.Pruner, config *configuration.OpenIDConnectConfig, options ...JobOption) (*Job, error) {
	if pruner == nil || config == nil {
		return nil, errors.New("[cleanup.NewJob] pruner and config are required")
	}
	minimumAge, err := config.GetMinimumAgeToCleanup()
	if err != nil {
		return nil, err
	}
	j := &Job{
		pruner:     pruner,
		minimumAge: minimumAge,
		interval:   DefaultInterval,
		nowTime:    time.Now,
		logger:     zerolog.Nop(),
	}
	for _, opt := range options {
		opt(j)
	}
	if j.interval <= 0 {
		return nil, errors.New("[cleanup.NewJob] interval must be positive")
	}
	return j, nil
}

// RunOnce prunes once and returns the number of removed authorizations.
func (j *Job) RunOnce(ctx context.Context) (int, error) {
	threshold := j.nowTime().Add(-j.minimumAge)
	pruned, err := j.pruner.Prune(ctx, threshold)
	if err != nil {
		return 0, errors.Wrap(err, "[cleanup.Job.RunOnce] prune authorizations")
	}
	j.logger.Info().Int("pruned", pruned).Time("threshold", threshold).Msg("pruned authorizations")
	return pruned, nil
}

// Run prunes straight away and then on every interval until ctx is cancelled. Failed runs are
// logged and retried on the next tick.
func (j *Job) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		if _, err := j.RunOnce(ctx); err != nil {
			j.logger.Error().Err(err).Msg("authorization cleanup failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
