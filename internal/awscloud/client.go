// Package awscloud wraps the EKS and EC2 APIs behind small interfaces.
package awscloud

import (
	"context"

	"github.com/cloudmasa/engine/internal/netclass"
)

// ClusterStatusActive is the cloud-side status gating adopt and deploy.
const ClusterStatusActive = "ACTIVE"

// ClusterInfo is the subset of a described cluster the engine needs.
type ClusterInfo struct {
	Name                 string
	ARN                  string
	Status               string
	Version              string
	Endpoint             string
	CertificateAuthority string // base64 CA bundle
}

// ClusterAPI reads and mutates managed cluster control planes.
type ClusterAPI interface {
	// DescribeCluster returns cluster metadata, or a not-found error.
	DescribeCluster(ctx context.Context, name string) (*ClusterInfo, error)

	// UpdateClusterVersion requests a control-plane version upgrade.
	// It returns once the API accepts the request; the rollout
	// continues cloud-side.
	UpdateClusterVersion(ctx context.Context, name, version string) error
}

// NodegroupAPI manages a cluster's worker-node groups.
type NodegroupAPI interface {
	ListNodegroups(ctx context.Context, cluster string) ([]string, error)
	DeleteNodegroup(ctx context.Context, cluster, nodegroup string) error
}

// NetworkAPI reads VPC networking.
type NetworkAPI interface {
	DescribeSubnets(ctx context.Context, subnetIDs []string) ([]netclass.Subnet, error)
}

// ComputeAPI reads worker instances.
type ComputeAPI interface {
	// CountClusterNodes returns the number of running instances owned
	// by or shared with the named cluster.
	CountClusterNodes(ctx context.Context, cluster string) (int, error)
}

// Client is the full cloud surface used by the lifecycle engine.
type Client interface {
	ClusterAPI
	NodegroupAPI
	NetworkAPI
	ComputeAPI
}
