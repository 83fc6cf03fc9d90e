// Package gitops deploys applications onto managed clusters through a
// declarative GitOps controller. It owns DeploymentRecord state: the
// record is written as pending before the remote apply and settles to
// deployed or failed afterwards.
package gitops

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/cloudmasa/engine/internal/activity"
	"github.com/cloudmasa/engine/internal/awscloud"
	"github.com/cloudmasa/engine/internal/credentials"
	"github.com/cloudmasa/engine/internal/errdefs"
	"github.com/cloudmasa/engine/internal/execx"
	"github.com/cloudmasa/engine/internal/log"
	"github.com/cloudmasa/engine/internal/metrics"
	"github.com/cloudmasa/engine/internal/store"
	"github.com/cloudmasa/engine/internal/util/naming"
)

// DefaultKubectlTimeout bounds one kubectl invocation.
const DefaultKubectlTimeout = 2 * time.Minute

// KubeconfigMinter writes a single-use kubeconfig for a cluster.
type KubeconfigMinter interface {
	WriteScoped(ctx context.Context, cred *credentials.Credential, info *awscloud.ClusterInfo) (string, func(), error)
}

// Config carries the deployer's environment.
type Config struct {
	KubectlBinary      string
	AllowedOrg         string   // repositories must live under this org
	ReservedNamespaces []string // never deleted on undeploy
	TempDir            string
	KubectlTimeout     time.Duration
}

// DeployRequest describes one application deployment.
type DeployRequest struct {
	Tool      string
	Cluster   string
	Namespace string
	RepoURL   string
	Folder    string
	AccountID string
	SCMToken  string
}

// Deployer applies GitOps applications to clusters.
type Deployer struct {
	cfg      Config
	store    store.Store
	creds    *credentials.Resolver
	cloud    awscloud.Factory
	exec     execx.Runner
	kube     KubeconfigMinter
	identity IdentityResolver
	feed     *activity.Feed
}

// NewDeployer wires the deployer.
func NewDeployer(cfg Config, st store.Store, creds *credentials.Resolver, cloud awscloud.Factory, exec execx.Runner, kube KubeconfigMinter, identity IdentityResolver, feed *activity.Feed) *Deployer {
	if cfg.KubectlBinary == "" {
		cfg.KubectlBinary = "kubectl"
	}
	if cfg.KubectlTimeout <= 0 {
		cfg.KubectlTimeout = DefaultKubectlTimeout
	}
	if len(cfg.ReservedNamespaces) == 0 {
		cfg.ReservedNamespaces = []string{"default", "kube-system", gitopsNamespace}
	}
	return &Deployer{cfg: cfg, store: st, creds: creds, cloud: cloud, exec: exec, kube: kube, identity: identity, feed: feed}
}

func (d *Deployer) validate(req DeployRequest) error {
	if req.Tool == "" {
		return errdefs.Validation("tool name is required")
	}
	if req.Cluster == "" {
		return errdefs.Validation("cluster name is required")
	}
	if len(req.Namespace) == 0 || len(req.Namespace) > 63 {
		return errdefs.Validation("namespace must be 1-63 characters")
	}
	if req.Folder == "" {
		return errdefs.Validation("folder path is required")
	}
	if req.AccountID == "" {
		return errdefs.Validation("account id is required")
	}
	if req.SCMToken == "" {
		return errdefs.Validation("source-control token is required")
	}
	u, err := url.Parse(req.RepoURL)
	if err != nil || u.Hostname() != "github.com" || !hasOrgPrefix(u.Path, d.cfg.AllowedOrg) {
		return errdefs.Validation("repository must belong to %s on github.com", d.cfg.AllowedOrg)
	}
	return nil
}

func hasOrgPrefix(path, org string) bool {
	prefix := "/" + org + "/"
	return org != "" && len(path) > len(prefix) && path[:len(prefix)] == prefix
}

// Deploy provisions the repository secret and Application on the
// target cluster and settles the DeploymentRecord.
func (d *Deployer) Deploy(ctx context.Context, req DeployRequest) (rec *store.DeploymentRecord, err error) {
	start := time.Now()
	defer func() { d.finish("deploy", req.Cluster, req.AccountID, start, err) }()

	if err = d.validate(req); err != nil {
		return nil, err
	}

	folder := naming.Folder(req.Folder)
	appName := naming.AppName(req.Namespace, req.Tool)

	cred, err := d.creds.Resolve(ctx, req.AccountID)
	if err != nil {
		return nil, errdefs.WithStep("credential-resolve", err)
	}
	cloud, err := d.cloud(ctx, cred)
	if err != nil {
		return nil, errdefs.CloudAPI("cloud-client", err)
	}

	info, err := cloud.DescribeCluster(ctx, req.Cluster)
	if err != nil {
		return nil, errdefs.WithStep("cluster-describe", err)
	}
	if info.Status != awscloud.ClusterStatusActive {
		return nil, errdefs.Validation("cluster %q is not ACTIVE, current status: %s", req.Cluster, info.Status)
	}

	kubeconfigPath, cleanupKubeconfig, err := d.kube.WriteScoped(ctx, cred, info)
	if err != nil {
		return nil, errdefs.WithStep("kubeconfig", err)
	}
	defer cleanupKubeconfig()

	username := FallbackIdentity
	if d.identity != nil {
		username = d.identity.Username(ctx, req.SCMToken)
	}

	now := time.Now().UTC()
	rec = &store.DeploymentRecord{
		ID:          uuid.NewString(),
		Tool:        req.Tool,
		ClusterName: req.Cluster,
		AccountID:   req.AccountID,
		Namespace:   req.Namespace,
		RepoURL:     req.RepoURL,
		Folder:      folder,
		AppName:     appName,
		SCMUsername: username,
		TokenHint:   credentials.MaskToken(req.SCMToken),
		Status:      store.DeploymentPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err = d.store.CreateDeployment(rec); err != nil {
		return nil, errdefs.WithStep("record-persist", err)
	}

	if applyErr := d.applyManifests(ctx, kubeconfigPath, rec, req.SCMToken); applyErr != nil {
		rec.Status = store.DeploymentFailed
		rec.Error = applyErr.Error()
		rec.UpdatedAt = time.Now().UTC()
		if updErr := d.store.UpdateDeployment(rec); updErr != nil {
			log.WithCluster(req.Cluster).Error().Err(updErr).Msg("failed to record deployment failure")
		}
		err = applyErr
		return nil, err
	}

	rec.Status = store.DeploymentDeployed
	rec.UpdatedAt = time.Now().UTC()
	if err = d.store.UpdateDeployment(rec); err != nil {
		return nil, errdefs.WithStep("record-persist", err)
	}

	d.syncBestEffort(ctx, kubeconfigPath, appName)
	return rec, nil
}

func (d *Deployer) applyManifests(ctx context.Context, kubeconfigPath string, rec *store.DeploymentRecord, token string) error {
	secret, err := renderRepoSecret(rec.RepoURL, rec.SCMUsername, token)
	if err != nil {
		return errdefs.WithStep("manifest-render", err)
	}
	app, err := renderApplication(rec.AppName, rec.Tool, rec.ClusterName, rec.AccountID, rec.RepoURL, rec.Folder, rec.Namespace)
	if err != nil {
		return errdefs.WithStep("manifest-render", err)
	}

	secretPath, removeSecret, err := d.writeTemp("secret", secret)
	if err != nil {
		return err
	}
	defer removeSecret()

	appPath, removeApp, err := d.writeTemp("application", app)
	if err != nil {
		return err
	}
	defer removeApp()

	if err := d.kubectl(ctx, kubeconfigPath, "apply", "-f", secretPath); err != nil {
		return errdefs.WithStep("kubectl-apply-secret", err)
	}
	if err := d.kubectl(ctx, kubeconfigPath, "apply", "-f", appPath); err != nil {
		return errdefs.WithStep("kubectl-apply-application", err)
	}
	return nil
}

// syncBestEffort nudges an immediate sync. The Application is already
// applied with automated sync, so a failure here is logged and
// swallowed rather than flipping the record to failed.
func (d *Deployer) syncBestEffort(ctx context.Context, kubeconfigPath, appName string) {
	if err := d.kubectl(ctx, kubeconfigPath, "argo", "app", "sync", appName, "-n", gitopsNamespace); err != nil {
		metrics.ExternalToolFailures.WithLabelValues("app-sync").Inc()
		log.WithComponent("gitops").Warn().Str("app", appName).Err(err).Msg("explicit sync failed, automated sync will converge")
	}
}

// Undeploy removes the Application, the namespace (unless reserved)
// and the record.
func (d *Deployer) Undeploy(ctx context.Context, tool, cluster, namespace string) (err error) {
	start := time.Now()
	defer func() { d.finish("undeploy", cluster, "", start, err) }()

	rec, err := d.store.GetDeployment(tool, cluster, namespace)
	if err != nil {
		return err
	}

	cred, err := d.creds.Resolve(ctx, rec.AccountID)
	if err != nil {
		return errdefs.WithStep("credential-resolve", err)
	}
	cloud, err := d.cloud(ctx, cred)
	if err != nil {
		return errdefs.CloudAPI("cloud-client", err)
	}
	info, err := cloud.DescribeCluster(ctx, cluster)
	if err != nil {
		return errdefs.WithStep("cluster-describe", err)
	}

	kubeconfigPath, cleanupKubeconfig, err := d.kube.WriteScoped(ctx, cred, info)
	if err != nil {
		return errdefs.WithStep("kubeconfig", err)
	}
	defer cleanupKubeconfig()

	if err = d.kubectl(ctx, kubeconfigPath, "delete", "application", rec.AppName, "-n", gitopsNamespace, "--ignore-not-found"); err != nil {
		return errdefs.WithStep("kubectl-delete-application", err)
	}

	if d.isReserved(namespace) {
		log.WithCluster(cluster).Info().Str("namespace", namespace).Msg("skipping reserved namespace")
	} else if nsErr := d.kubectl(ctx, kubeconfigPath, "delete", "namespace", namespace, "--ignore-not-found"); nsErr != nil {
		// Namespaces stuck in Terminating are common; the application
		// is already gone, so carry on.
		log.WithCluster(cluster).Warn().Str("namespace", namespace).Err(nsErr).Msg("namespace delete failed")
	}

	if err = d.store.DeleteDeployment(tool, cluster, namespace); err != nil {
		return errdefs.WithStep("record-delete", err)
	}
	return nil
}

func (d *Deployer) isReserved(namespace string) bool {
	for _, reserved := range d.cfg.ReservedNamespaces {
		if namespace == reserved {
			return true
		}
	}
	return false
}

func (d *Deployer) kubectl(ctx context.Context, kubeconfigPath string, args ...string) error {
	_, err := d.exec.Run(ctx, execx.Spec{
		Path:    d.cfg.KubectlBinary,
		Args:    args,
		Env:     map[string]string{"KUBECONFIG": kubeconfigPath},
		Timeout: d.cfg.KubectlTimeout,
	})
	return err
}

func (d *Deployer) writeTemp(kind string, data []byte) (string, func(), error) {
	dir := d.cfg.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.yaml", kind, uuid.NewString()))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", nil, fmt.Errorf("failed to write %s manifest: %w", kind, err)
	}
	return path, func() { os.Remove(path) }, nil
}

func (d *Deployer) finish(operation, cluster, accountID string, start time.Time, err error) {
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
		logger.Error().Err(err).Str("operation", operation).Msg("deployment operation failed")
	} else {
		logger.Info().Str("operation", operation).Dur("took", time.Since(start)).Msg("deployment operation complete")
	}
	if d.feed != nil {
		d.feed.Push(ev)
	}
}
