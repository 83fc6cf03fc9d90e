package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudmasa/engine/internal/errdefs"
)

func newTestStore(t *testing.T) *BoltStore {
	t.Helper()
	s, err := NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestClusterCRUD(t *testing.T) {
	s := newTestStore(t)

	rec := &ClusterRecord{
		ID:                "c-1",
		Name:              "demo",
		Region:            "us-east-1",
		AccountID:         "acct-1",
		Status:            StatusRunning,
		KubernetesVersion: "1.31",
		CreatedAt:         time.Now().UTC(),
	}
	require.NoError(t, s.CreateCluster(rec))

	got, err := s.GetCluster("acct-1", "demo")
	require.NoError(t, err)
	assert.Equal(t, "demo", got.Name)
	assert.Equal(t, StatusRunning, got.Status)

	got.Status = StatusUpgrading
	got.KubernetesVersion = "1.32"
	require.NoError(t, s.UpdateCluster(got))

	got, err = s.GetCluster("acct-1", "demo")
	require.NoError(t, err)
	assert.Equal(t, StatusUpgrading, got.Status)
	assert.Equal(t, "1.32", got.KubernetesVersion)

	require.NoError(t, s.DeleteCluster("acct-1", "demo"))
	_, err = s.GetCluster("acct-1", "demo")
	assert.True(t, errdefs.IsKind(err, errdefs.KindNotFound))
}

func TestCreateClusterDuplicateConflicts(t *testing.T) {
	s := newTestStore(t)

	rec := &ClusterRecord{Name: "demo", AccountID: "acct-1", Status: StatusRunning}
	require.NoError(t, s.CreateCluster(rec))

	err := s.CreateCluster(rec)
	require.Error(t, err)
	assert.True(t, errdefs.IsKind(err, errdefs.KindConflict))

	// Same name under a different account is a distinct key.
	other := &ClusterRecord{Name: "demo", AccountID: "acct-2", Status: StatusRunning}
	assert.NoError(t, s.CreateCluster(other))
}

func TestListClustersByAccount(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.CreateCluster(&ClusterRecord{Name: "a", AccountID: "acct-1"}))
	require.NoError(t, s.CreateCluster(&ClusterRecord{Name: "b", AccountID: "acct-1"}))
	require.NoError(t, s.CreateCluster(&ClusterRecord{Name: "c", AccountID: "acct-2"}))

	all, err := s.ListClusters()
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := s.ListClustersByAccount("acct-1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	for _, rec := range mine {
		assert.Equal(t, "acct-1", rec.AccountID)
	}
}

func TestDeploymentNaturalKey(t *testing.T) {
	s := newTestStore(t)

	rec := &DeploymentRecord{
		Tool:        "nginx",
		ClusterName: "demo",
		Namespace:   "web",
		Status:      DeploymentPending,
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, s.CreateDeployment(rec))

	err := s.CreateDeployment(rec)
	assert.True(t, errdefs.IsKind(err, errdefs.KindConflict))

	rec.Status = DeploymentDeployed
	require.NoError(t, s.UpdateDeployment(rec))

	got, err := s.GetDeployment("nginx", "demo", "web")
	require.NoError(t, err)
	assert.Equal(t, DeploymentDeployed, got.Status)

	require.NoError(t, s.DeleteDeployment("nginx", "demo", "web"))
	_, err = s.GetDeployment("nginx", "demo", "web")
	assert.True(t, errdefs.IsKind(err, errdefs.KindNotFound))
}

func TestLatestDeployment(t *testing.T) {
	s := newTestStore(t)

	_, err := s.LatestDeployment()
	assert.True(t, errdefs.IsKind(err, errdefs.KindNotFound))

	base := time.Now().UTC()
	require.NoError(t, s.CreateDeployment(&DeploymentRecord{
		Tool: "nginx", ClusterName: "demo", Namespace: "web",
		CreatedAt: base.Add(-time.Hour),
	}))
	require.NoError(t, s.CreateDeployment(&DeploymentRecord{
		Tool: "redis", ClusterName: "demo", Namespace: "cache",
		CreatedAt: base,
	}))

	latest, err := s.LatestDeployment()
	require.NoError(t, err)
	assert.Equal(t, "redis", latest.Tool)

	byCluster, err := s.ListDeploymentsByCluster("demo")
	require.NoError(t, err)
	assert.Len(t, byCluster, 2)
	assert.Equal(t, "redis", byCluster[0].Tool)
}

func TestDeploymentsByToolAndCount(t *testing.T) {
	s := newTestStore(t)

	n, err := s.CountDeployments()
	require.NoError(t, err)
	assert.Zero(t, n)

	base := time.Now().UTC()
	require.NoError(t, s.CreateDeployment(&DeploymentRecord{
		Tool: "nginx", ClusterName: "demo", Namespace: "web",
		CreatedAt: base.Add(-time.Hour),
	}))
	require.NoError(t, s.CreateDeployment(&DeploymentRecord{
		Tool: "nginx", ClusterName: "other", Namespace: "web",
		CreatedAt: base,
	}))
	require.NoError(t, s.CreateDeployment(&DeploymentRecord{
		Tool: "redis", ClusterName: "demo", Namespace: "cache",
		CreatedAt: base,
	}))

	byTool, err := s.ListDeploymentsByTool("nginx")
	require.NoError(t, err)
	require.Len(t, byTool, 2)
	assert.Equal(t, "other", byTool[0].ClusterName, "newest first")

	none, err := s.ListDeploymentsByTool("grafana")
	require.NoError(t, err)
	assert.Empty(t, none)

	n, err = s.CountDeployments()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestAccountRoundTrip(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.PutAccount(&AccountRecord{
		ID:              "123456789012",
		Name:            "prod",
		AccessKeyID:     "deadbeef:cafe:0102",
		SecretAccessKey: "deadbeef:cafe:0304",
		Region:          "us-west-2",
	}))

	got, err := s.GetAccount("123456789012")
	require.NoError(t, err)
	assert.Equal(t, "prod", got.Name)
	assert.Equal(t, "us-west-2", got.Region)

	accounts, err := s.ListAccounts()
	require.NoError(t, err)
	assert.Len(t, accounts, 1)

	require.NoError(t, s.DeleteAccount("123456789012"))
	_, err = s.GetAccount("123456789012")
	assert.True(t, errdefs.IsKind(err, errdefs.KindNotFound))
}

func TestReopenPersists(t *testing.T) {
	dir := t.TempDir()

	s, err := NewBoltStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.CreateCluster(&ClusterRecord{Name: "demo", AccountID: "acct-1", Status: StatusRunning}))
	require.NoError(t, s.Close())

	s, err = NewBoltStore(dir)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetCluster("acct-1", "demo")
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, got.Status)
}
