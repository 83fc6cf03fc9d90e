// Package lifecycle sequences cluster provisioning, adoption, upgrade
// and destruction. It owns ClusterRecord state: a record is created
// only after a successful apply and deleted only after a successful
// destroy.
package lifecycle

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cloudmasa/engine/internal/activity"
	"github.com/cloudmasa/engine/internal/awscloud"
	"github.com/cloudmasa/engine/internal/credentials"
	"github.com/cloudmasa/engine/internal/errdefs"
	"github.com/cloudmasa/engine/internal/log"
	"github.com/cloudmasa/engine/internal/metrics"
	"github.com/cloudmasa/engine/internal/netclass"
	"github.com/cloudmasa/engine/internal/store"
	"github.com/cloudmasa/engine/internal/terraform"
)

// CreateRequest describes a cluster to provision.
type CreateRequest struct {
	Name      string
	AccountID string
	VPCID     string
	SubnetIDs []string

	KubernetesVersion string
	DesiredSize       int
	MinSize           int
	MaxSize           int
	InstanceTypes     []string
	CapacityType      string

	IngressCIDR           string
	EndpointPublicAccess  bool
	EndpointPrivateAccess bool
}

// SaveRequest adopts a cluster that already exists cloud-side.
type SaveRequest struct {
	Name        string
	AccountID   string
	KubeContext string
}

// Controller is the cluster lifecycle state machine.
type Controller struct {
	store  store.Store
	creds  *credentials.Resolver
	cloud  awscloud.Factory
	tf     *terraform.Runner
	reaper *Reaper
	feed   *activity.Feed
}

// NewController wires the lifecycle engine.
func NewController(st store.Store, creds *credentials.Resolver, cloud awscloud.Factory, tf *terraform.Runner, reaper *Reaper, feed *activity.Feed) *Controller {
	if reaper == nil {
		reaper = &Reaper{}
	}
	return &Controller{store: st, creds: creds, cloud: cloud, tf: tf, reaper: reaper, feed: feed}
}

// Create provisions a new cluster. No record is persisted unless the
// apply succeeds, so a record's existence implies live infrastructure.
func (c *Controller) Create(ctx context.Context, req CreateRequest) (rec *store.ClusterRecord, err error) {
	start := time.Now()
	defer func() { c.finish("create", req.Name, req.AccountID, start, err) }()

	if err = validateCreate(req); err != nil {
		return nil, err
	}

	// Reject duplicates before any credential or cloud work; an apply can
	// run for the better part of an hour.
	if existing, getErr := c.store.GetCluster(req.AccountID, req.Name); getErr == nil && existing != nil {
		return nil, errdefs.Conflict("cluster %s already exists for account %s", req.Name, req.AccountID)
	}

	ws, release, err := c.tf.Acquire(req.Name)
	if err != nil {
		return nil, err
	}
	defer release()

	cred, err := c.creds.Resolve(ctx, req.AccountID)
	if err != nil {
		return nil, errdefs.WithStep("credential-resolve", err)
	}

	cloud, err := c.cloud(ctx, cred)
	if err != nil {
		return nil, errdefs.CloudAPI("cloud-client", err)
	}

	subnets, err := cloud.DescribeSubnets(ctx, req.SubnetIDs)
	if err != nil {
		return nil, errdefs.WithStep("subnet-query", err)
	}
	part := netclass.Classify(subnets)
	if !part.Complete() {
		return nil, errdefs.Validation("subnets must include at least one public and one private subnet (got %d public, %d private)",
			len(part.Public), len(part.Private))
	}

	if err = c.tf.WriteModule(ws, terraform.Vars{
		ClusterName:           req.Name,
		Region:                cred.Region,
		VPCID:                 req.VPCID,
		PublicSubnetIDs:       part.Public,
		PrivateSubnetIDs:      part.Private,
		KubernetesVersion:     req.KubernetesVersion,
		DesiredSize:           req.DesiredSize,
		MinSize:               req.MinSize,
		MaxSize:               req.MaxSize,
		InstanceTypes:         req.InstanceTypes,
		CapacityType:          req.CapacityType,
		IngressCIDR:           req.IngressCIDR,
		EndpointPublicAccess:  req.EndpointPublicAccess,
		EndpointPrivateAccess: req.EndpointPrivateAccess,
	}); err != nil {
		return nil, err
	}

	if err = c.tf.Init(ctx, ws, cred); err != nil {
		return nil, err
	}
	if err = c.tf.Apply(ctx, ws, cred); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rec = &store.ClusterRecord{
		ID:                uuid.NewString(),
		Name:              req.Name,
		Region:            cred.Region,
		AccountID:         req.AccountID,
		Status:            store.StatusRunning,
		NodeCount:         req.DesiredSize,
		KubernetesVersion: req.KubernetesVersion,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err = c.store.CreateCluster(rec); err != nil {
		return nil, errdefs.WithStep("record-persist", err)
	}
	return rec, nil
}

// SaveExisting adopts a cloud-side cluster without running an apply.
// The cluster must report ACTIVE and must not already be recorded for
// the account.
func (c *Controller) SaveExisting(ctx context.Context, req SaveRequest) (rec *store.ClusterRecord, err error) {
	start := time.Now()
	defer func() { c.finish("save-existing", req.Name, req.AccountID, start, err) }()

	if err = validateClusterName(req.Name); err != nil {
		return nil, err
	}
	if err = validateAccountID(req.AccountID); err != nil {
		return nil, err
	}
	if req.KubeContext == "" {
		return nil, errdefs.Validation("kubeContext is required")
	}

	if existing, getErr := c.store.GetCluster(req.AccountID, req.Name); getErr == nil && existing != nil {
		return nil, errdefs.Conflict("cluster %s already exists for account %s", req.Name, req.AccountID)
	}

	cred, err := c.creds.Resolve(ctx, req.AccountID)
	if err != nil {
		return nil, errdefs.WithStep("credential-resolve", err)
	}
	cloud, err := c.cloud(ctx, cred)
	if err != nil {
		return nil, errdefs.CloudAPI("cloud-client", err)
	}

	info, err := cloud.DescribeCluster(ctx, req.Name)
	if err != nil {
		return nil, errdefs.WithStep("cluster-describe", err)
	}
	if info.Status != awscloud.ClusterStatusActive {
		return nil, errdefs.Validation("cluster is not ACTIVE, current status: %s", info.Status)
	}

	now := time.Now().UTC()
	rec = &store.ClusterRecord{
		ID:                uuid.NewString(),
		Name:              info.Name,
		Region:            cred.Region,
		AccountID:         req.AccountID,
		Status:            store.StatusRunning,
		KubernetesVersion: info.Version,
		KubeContext:       req.KubeContext,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err = c.store.CreateCluster(rec); err != nil {
		return nil, errdefs.WithStep("record-persist", err)
	}
	return rec, nil
}

// Upgrade requests a control-plane version upgrade. The record moves
// to upgrading as soon as the API accepts the request; it is not
// reconciled back to running when the rollout completes.
func (c *Controller) Upgrade(ctx context.Context, accountID, name, version string) (rec *store.ClusterRecord, err error) {
	start := time.Now()
	defer func() { c.finish("upgrade", name, accountID, start, err) }()

	if version == "" {
		return nil, errdefs.Validation("target version is required")
	}

	rec, err = c.store.GetCluster(accountID, name)
	if err != nil {
		return nil, err
	}

	_, release, err := c.tf.Acquire(name)
	if err != nil {
		return nil, err
	}
	defer release()

	cred, err := c.creds.Resolve(ctx, accountID)
	if err != nil {
		return nil, errdefs.WithStep("credential-resolve", err)
	}
	cloud, err := c.cloud(ctx, cred)
	if err != nil {
		return nil, errdefs.CloudAPI("cloud-client", err)
	}

	if err = cloud.UpdateClusterVersion(ctx, name, version); err != nil {
		return nil, errdefs.WithStep("version-update", err)
	}

	rec.Status = store.StatusUpgrading
	rec.KubernetesVersion = version
	rec.UpdatedAt = time.Now().UTC()
	if err = c.store.UpdateCluster(rec); err != nil {
		return nil, errdefs.WithStep("record-persist", err)
	}
	return rec, nil
}

// Destroy drains nodegroups, tears down the infrastructure and then
// removes the record. A failed destroy leaves the record in the
// destroying state so the operation can be retried.
func (c *Controller) Destroy(ctx context.Context, accountID, name string) (err error) {
	start := time.Now()
	defer func() { c.finish("destroy", name, accountID, start, err) }()

	rec, err := c.store.GetCluster(accountID, name)
	if err != nil {
		return err
	}

	ws, release, err := c.tf.Acquire(name)
	if err != nil {
		return err
	}
	defer release()

	cred, err := c.creds.Resolve(ctx, accountID)
	if err != nil {
		return errdefs.WithStep("credential-resolve", err)
	}
	cloud, err := c.cloud(ctx, cred)
	if err != nil {
		return errdefs.CloudAPI("cloud-client", err)
	}

	rec.Status = store.StatusDestroying
	rec.UpdatedAt = time.Now().UTC()
	if err = c.store.UpdateCluster(rec); err != nil {
		return errdefs.WithStep("record-persist", err)
	}

	if err = c.reaper.Drain(ctx, cloud, name); err != nil {
		return err
	}

	if err = c.tf.Init(ctx, ws, cred); err != nil {
		return err
	}
	if err = c.tf.Destroy(ctx, ws, cred); err != nil {
		return err
	}

	if err = c.store.DeleteCluster(accountID, name); err != nil {
		return errdefs.WithStep("record-delete", err)
	}
	return nil
}

// LiveNodeCount queries running worker instances directly and
// refreshes the cached count on the record.
func (c *Controller) LiveNodeCount(ctx context.Context, accountID, name string) (int, error) {
	rec, err := c.store.GetCluster(accountID, name)
	if err != nil {
		return 0, err
	}

	cred, err := c.creds.Resolve(ctx, accountID)
	if err != nil {
		return 0, errdefs.WithStep("credential-resolve", err)
	}
	cloud, err := c.cloud(ctx, cred)
	if err != nil {
		return 0, errdefs.CloudAPI("cloud-client", err)
	}

	count, err := cloud.CountClusterNodes(ctx, name)
	if err != nil {
		return 0, errdefs.WithStep("node-count", err)
	}

	if count != rec.NodeCount {
		rec.NodeCount = count
		rec.UpdatedAt = time.Now().UTC()
		if err := c.store.UpdateCluster(rec); err != nil {
			log.WithCluster(name).Warn().Err(err).Msg("failed to refresh cached node count")
		}
	}
	return count, nil
}

// Get returns the persisted record for one cluster.
func (c *Controller) Get(accountID, name string) (*store.ClusterRecord, error) {
	return c.store.GetCluster(accountID, name)
}

// List returns persisted records, optionally filtered by account.
func (c *Controller) List(accountID string) ([]*store.ClusterRecord, error) {
	if accountID == "" {
		return c.store.ListClusters()
	}
	return c.store.ListClustersByAccount(accountID)
}

func (c *Controller) finish(operation, cluster, accountID string, start time.Time, err error) {
	metrics.Observe(operation, start, err)

	ev := activity.Event{
		Operation: operation,
		Cluster:   cluster,
		AccountID: accountID,
		Outcome:   "ok",
	}
	logger := log.WithCluster(cluster)
	if err != nil {
		ev.Outcome = "error"
		ev.Detail = err.Error()
		logger.Error().Err(err).Str("operation", operation).Msg("cluster operation failed")
	} else {
		logger.Info().Str("operation", operation).Dur("took", time.Since(start)).Msg("cluster operation complete")
	}
	if c.feed != nil {
		c.feed.Push(ev)
	}
}
