// Package terraform drives the infrastructure module through the
// terraform CLI. Operations against one cluster share a working
// directory and must hold that cluster's workspace before running.
package terraform

import (
	"context"
	"time"

	"github.com/cloudmasa/engine/internal/credentials"
	"github.com/cloudmasa/engine/internal/errdefs"
	"github.com/cloudmasa/engine/internal/execx"
	"github.com/cloudmasa/engine/internal/log"
	"github.com/cloudmasa/engine/internal/metrics"
)

// DefaultTimeout bounds a single apply or destroy. Cluster
// provisioning legitimately runs for tens of minutes.
const DefaultTimeout = 60 * time.Minute

// Config locates the terraform binary and the module sources.
type Config struct {
	Binary    string        // terraform executable, e.g. "terraform"
	ModuleDir string        // cluster module source directory
	StateDir  string        // root for per-cluster working directories
	Timeout   time.Duration // per-command budget; DefaultTimeout when zero
}

// Runner executes terraform commands inside cluster workspaces.
type Runner struct {
	cfg  Config
	exec execx.Runner
	ws   *workspaces
}

// New builds a Runner on top of a process runner.
func New(cfg Config, exec execx.Runner) *Runner {
	if cfg.Binary == "" {
		cfg.Binary = "terraform"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Runner{cfg: cfg, exec: exec, ws: newWorkspaces(cfg.StateDir)}
}

// Acquire locks the named cluster's workspace and ensures its working
// directory exists. The returned release func must be called on every
// exit path.
func (r *Runner) Acquire(cluster string) (*Workspace, func(), error) {
	return r.ws.acquire(cluster)
}

// Init prepares the workspace. Provider plugins are refreshed on every
// init so version bumps in the rendered module are picked up.
func (r *Runner) Init(ctx context.Context, ws *Workspace, cred *credentials.Credential) error {
	if err := r.run(ctx, ws, cred, []string{"init", "-input=false", "-upgrade"}); err != nil {
		return errdefs.WithStep("terraform-init", err)
	}
	return nil
}

// Apply provisions or updates the cluster infrastructure.
func (r *Runner) Apply(ctx context.Context, ws *Workspace, cred *credentials.Credential) error {
	if err := r.run(ctx, ws, cred, []string{"apply", "-auto-approve", "-input=false"}); err != nil {
		return errdefs.WithStep("terraform-apply", err)
	}
	return nil
}

// Destroy tears the cluster infrastructure down.
func (r *Runner) Destroy(ctx context.Context, ws *Workspace, cred *credentials.Credential) error {
	if err := r.run(ctx, ws, cred, []string{"destroy", "-auto-approve", "-input=false"}); err != nil {
		return errdefs.WithStep("terraform-destroy", err)
	}
	return nil
}

func (r *Runner) run(ctx context.Context, ws *Workspace, cred *credentials.Credential, args []string) error {
	logger := log.WithComponent("terraform")
	logger.Info().Str("cluster", ws.Cluster).Str("command", args[0]).Msg("running terraform")

	res, err := r.exec.Stream(ctx, execx.Spec{
		Path:    r.cfg.Binary,
		Args:    args,
		Dir:     ws.Dir,
		Env:     credentialEnv(cred),
		Timeout: r.cfg.Timeout,
	}, func(line string) {
		logger.Debug().Str("cluster", ws.Cluster).Msg(line)
	})
	if err != nil {
		metrics.ExternalToolFailures.WithLabelValues("terraform-" + args[0]).Inc()
		logger.Error().Str("cluster", ws.Cluster).Str("command", args[0]).
			Int("exit_code", res.ExitCode).Msg("terraform failed")
		return err
	}
	return nil
}

// credentialEnv is the entire environment handed to terraform beyond
// the process-runner baseline. Credentials reach the provider only
// through these variables.
func credentialEnv(cred *credentials.Credential) map[string]string {
	if cred == nil {
		return nil
	}
	return map[string]string{
		"AWS_ACCESS_KEY_ID":     cred.AccessKeyID,
		"AWS_SECRET_ACCESS_KEY": cred.SecretAccessKey,
		"AWS_DEFAULT_REGION":    cred.Region,
	}
}
