package lifecycle

import (
	"context"
	"errors"
	"time"

	"github.com/cloudmasa/engine/internal/awscloud"
	"github.com/cloudmasa/engine/internal/errdefs"
	"github.com/cloudmasa/engine/internal/log"
	"github.com/cloudmasa/engine/internal/util/retry"
)

const (
	defaultDrainInterval = 15 * time.Second
	defaultDrainAttempts = 120 // 30 minutes at the default interval
)

// Reaper drains a cluster's nodegroups before the control plane may
// be destroyed. Deleting the control plane first leaves orphaned
// worker infrastructure behind.
type Reaper struct {
	Interval    time.Duration
	MaxAttempts int
}

// Drain deletes every nodegroup and polls until the cluster reports
// none left.
func (r *Reaper) Drain(ctx context.Context, cloud awscloud.NodegroupAPI, cluster string) error {
	interval := r.Interval
	if interval <= 0 {
		interval = defaultDrainInterval
	}
	attempts := r.MaxAttempts
	if attempts <= 0 {
		attempts = defaultDrainAttempts
	}

	logger := log.WithCluster(cluster)

	groups, err := cloud.ListNodegroups(ctx, cluster)
	if err != nil {
		return errdefs.WithStep("nodegroup-drain", err)
	}
	if len(groups) == 0 {
		return nil
	}

	logger.Info().Int("nodegroups", len(groups)).Msg("draining nodegroups")
	for _, group := range groups {
		if err := cloud.DeleteNodegroup(ctx, cluster, group); err != nil {
			return errdefs.WithStep("nodegroup-drain", err)
		}
	}

	err = retry.Poll(ctx, interval, attempts, func() (bool, error) {
		remaining, err := cloud.ListNodegroups(ctx, cluster)
		if err != nil {
			return false, err
		}
		logger.Debug().Int("remaining", len(remaining)).Msg("waiting for nodegroups to drain")
		return len(remaining) == 0, nil
	})
	if err != nil {
		var classified *errdefs.Error
		if !errors.As(err, &classified) {
			// Poll exhaustion or cancellation rather than an API failure.
			return errdefs.Timeout("nodegroup-drain", err)
		}
		return errdefs.WithStep("nodegroup-drain", err)
	}

	logger.Info().Msg("nodegroups drained")
	return nil
}
