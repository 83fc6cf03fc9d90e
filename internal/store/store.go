// Package store persists cluster, deployment, and account records.
package store

// Store is the persistence contract for lifecycle and deployment state.
// Implementations must return a not-found error (errdefs.KindNotFound)
// for missing records and a conflict error (errdefs.KindConflict) when
// creating a record whose natural key already exists.
type Store interface {
	// Clusters, keyed by (account, name).
	CreateCluster(rec *ClusterRecord) error
	GetCluster(accountID, name string) (*ClusterRecord, error)
	ListClusters() ([]*ClusterRecord, error)
	ListClustersByAccount(accountID string) ([]*ClusterRecord, error)
	UpdateCluster(rec *ClusterRecord) error
	DeleteCluster(accountID, name string) error

	// Deployments, keyed by (tool, cluster, namespace).
	CreateDeployment(rec *DeploymentRecord) error
	GetDeployment(tool, cluster, namespace string) (*DeploymentRecord, error)
	ListDeployments() ([]*DeploymentRecord, error)
	ListDeploymentsByCluster(cluster string) ([]*DeploymentRecord, error)
	ListDeploymentsByTool(tool string) ([]*DeploymentRecord, error)
	CountDeployments() (int, error)
	LatestDeployment() (*DeploymentRecord, error)
	UpdateDeployment(rec *DeploymentRecord) error
	DeleteDeployment(tool, cluster, namespace string) error

	// Accounts, keyed by id. Writes exist for account management;
	// the lifecycle core only reads.
	PutAccount(rec *AccountRecord) error
	GetAccount(id string) (*AccountRecord, error)
	ListAccounts() ([]*AccountRecord, error)
	DeleteAccount(id string) error

	Close() error
}
