// Package main is the entry point for the masa-engine server.
//
// masa-engine provisions and manages EKS clusters through Terraform and
// the AWS API, and deploys applications onto them through Argo CD. It
// exposes a REST API for cluster lifecycle and GitOps operations and
// persists its records in an embedded bbolt database.
//
// For detailed usage information, run:
//
//	masa-engine --help
package main

import (
	"fmt"
	"os"

	"github.com/cloudmasa/engine/cmd/masa-engine/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
