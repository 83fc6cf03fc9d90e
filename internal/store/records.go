package store

import "time"

// ClusterStatus tracks where a cluster is in its lifecycle.
type ClusterStatus string

const (
	StatusProvisioning ClusterStatus = "provisioning"
	StatusRunning      ClusterStatus = "running"
	StatusUpgrading    ClusterStatus = "upgrading"
	StatusDestroying   ClusterStatus = "destroying"
	StatusStopped      ClusterStatus = "stopped"
	StatusUnknown      ClusterStatus = "unknown"
	StatusNotFound     ClusterStatus = "not-found"
)

// DeploymentStatus tracks a GitOps deployment. Transitions are
// pending -> deployed or pending -> failed, never backwards.
type DeploymentStatus string

const (
	DeploymentPending  DeploymentStatus = "pending"
	DeploymentDeployed DeploymentStatus = "deployed"
	DeploymentFailed   DeploymentStatus = "failed"
)

// ClusterRecord is the persisted view of a managed cluster.
// Name is unique per account. NodeCount is the last-known value;
// the authoritative count comes from a live compute query.
type ClusterRecord struct {
	ID                string        `json:"id"`
	Name              string        `json:"name"`
	Region            string        `json:"region"`
	AccountID         string        `json:"account_id"`
	Status            ClusterStatus `json:"status"`
	NodeCount         int           `json:"node_count"`
	KubernetesVersion string        `json:"kubernetes_version"`
	KubeContext       string        `json:"kube_context"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// DeploymentRecord tracks one GitOps application on one cluster.
// (Tool, ClusterName, Namespace) is the natural key; each record owns
// exactly one remote Application resource.
type DeploymentRecord struct {
	ID          string           `json:"id"`
	Tool        string           `json:"tool"`
	ClusterName string           `json:"cluster_name"`
	AccountID   string           `json:"account_id"`
	Namespace   string           `json:"namespace"`
	RepoURL     string           `json:"repo_url"`
	Folder      string           `json:"folder"`
	AppName     string           `json:"app_name"`
	SCMUsername string           `json:"scm_username,omitempty"`
	TokenHint   string           `json:"token_hint,omitempty"`
	Status      DeploymentStatus `json:"status"`
	Error       string           `json:"error,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// AccountRecord holds one cloud account's credential material.
// AccessKeyID and SecretAccessKey are encrypted payloads; they are
// only ever decrypted in memory by the credential resolver.
type AccountRecord struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	AccessKeyID     string    `json:"access_key_id"`
	SecretAccessKey string    `json:"secret_access_key"`
	Region          string    `json:"region"`
	CreatedAt       time.Time `json:"created_at"`
}
