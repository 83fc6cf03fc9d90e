// Package handlers implements the business logic for CLI commands.
//
// Handlers are framework-agnostic and can be tested independently of
// the CLI framework.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudmasa/engine/internal/activity"
	"github.com/cloudmasa/engine/internal/api"
	"github.com/cloudmasa/engine/internal/awscloud"
	"github.com/cloudmasa/engine/internal/config"
	"github.com/cloudmasa/engine/internal/credentials"
	"github.com/cloudmasa/engine/internal/execx"
	"github.com/cloudmasa/engine/internal/gitops"
	"github.com/cloudmasa/engine/internal/kubeauth"
	"github.com/cloudmasa/engine/internal/lifecycle"
	"github.com/cloudmasa/engine/internal/log"
	"github.com/cloudmasa/engine/internal/store"
	"github.com/cloudmasa/engine/internal/terraform"
)

const shutdownGrace = 15 * time.Second

// Serve loads the configuration, assembles the engine and runs the API
// server until the context is cancelled or a termination signal arrives.
func Serve(ctx context.Context, configPath string) error {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return err
	}

	log.Init(log.Config{Level: log.Level(cfg.Log.Level), JSONOutput: cfg.Log.JSON})

	srv, st, err := buildServer(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := log.WithComponent("server")

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

// buildServer assembles the store, credential resolver, terraform
// runner, lifecycle controller and gitops deployer behind an HTTP
// server. The caller owns the returned store.
func buildServer(cfg *config.Config) (*http.Server, store.Store, error) {
	key, err := cfg.EncryptionKey()
	if err != nil {
		return nil, nil, err
	}
	cipher, err := credentials.NewCipher(key)
	if err != nil {
		return nil, nil, err
	}

	st, err := store.NewBoltStore(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}

	resolver := credentials.NewResolver(st, cipher)
	exec := execx.New()

	tf := terraform.New(terraform.Config{
		Binary:    cfg.Terraform.Binary,
		ModuleDir: cfg.Terraform.ModuleDir,
		StateDir:  cfg.Terraform.StateDir,
		Timeout:   cfg.TerraformTimeout(),
	}, exec)

	feed := activity.NewFeed(cfg.ActivityCapacity)

	clusters := lifecycle.NewController(st, resolver, awscloud.NewClient, tf, &lifecycle.Reaper{}, feed)

	deployments := gitops.NewDeployer(gitops.Config{
		KubectlBinary:      cfg.Kubectl.Binary,
		AllowedOrg:         cfg.GitOps.AllowedOrg,
		ReservedNamespaces: cfg.GitOps.ReservedNamespaces,
		KubectlTimeout:     cfg.KubectlTimeout(),
	}, st, resolver, awscloud.NewClient, exec, &kubeauth.Minter{}, &gitops.GitHubResolver{}, feed)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.New(clusters, deployments, st, feed).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv, st, nil
}
