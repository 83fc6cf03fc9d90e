package awscloud

import (
	"context"

	"github.com/cloudmasa/engine/internal/errdefs"
	"github.com/cloudmasa/engine/internal/netclass"
)

// MockClient is a mock implementation of Client for tests.
type MockClient struct {
	DescribeClusterFunc      func(ctx context.Context, name string) (*ClusterInfo, error)
	UpdateClusterVersionFunc func(ctx context.Context, name, version string) error

	ListNodegroupsFunc  func(ctx context.Context, cluster string) ([]string, error)
	DeleteNodegroupFunc func(ctx context.Context, cluster, nodegroup string) error

	DescribeSubnetsFunc   func(ctx context.Context, subnetIDs []string) ([]netclass.Subnet, error)
	CountClusterNodesFunc func(ctx context.Context, cluster string) (int, error)
}

// NewMockClient creates a MockClient whose unset methods fail loudly.
func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) DescribeCluster(ctx context.Context, name string) (*ClusterInfo, error) {
	if m.DescribeClusterFunc != nil {
		return m.DescribeClusterFunc(ctx, name)
	}
	return nil, errdefs.NotFound("mock: cluster %s", name)
}

func (m *MockClient) UpdateClusterVersion(ctx context.Context, name, version string) error {
	if m.UpdateClusterVersionFunc != nil {
		return m.UpdateClusterVersionFunc(ctx, name, version)
	}
	return nil
}

func (m *MockClient) ListNodegroups(ctx context.Context, cluster string) ([]string, error) {
	if m.ListNodegroupsFunc != nil {
		return m.ListNodegroupsFunc(ctx, cluster)
	}
	return nil, nil
}

func (m *MockClient) DeleteNodegroup(ctx context.Context, cluster, nodegroup string) error {
	if m.DeleteNodegroupFunc != nil {
		return m.DeleteNodegroupFunc(ctx, cluster, nodegroup)
	}
	return nil
}

func (m *MockClient) DescribeSubnets(ctx context.Context, subnetIDs []string) ([]netclass.Subnet, error) {
	if m.DescribeSubnetsFunc != nil {
		return m.DescribeSubnetsFunc(ctx, subnetIDs)
	}
	return nil, nil
}

func (m *MockClient) CountClusterNodes(ctx context.Context, cluster string) (int, error) {
	if m.CountClusterNodesFunc != nil {
		return m.CountClusterNodesFunc(ctx, cluster)
	}
	return 0, nil
}
