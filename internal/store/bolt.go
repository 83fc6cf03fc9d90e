package store

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	bolt "go.etcd.io/bbolt"

	"github.com/cloudmasa/engine/internal/errdefs"
)

var (
	bucketClusters    = []byte("clusters")
	bucketDeployments = []byte("deployments")
	bucketAccounts    = []byte("accounts")
)

// BoltStore implements Store on a single bbolt file.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) the database under dataDir.
func NewBoltStore(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "engine.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketClusters, bucketDeployments, bucketAccounts} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func clusterKey(accountID, name string) []byte {
	return []byte(accountID + "/" + name)
}

func deploymentKey(tool, cluster, namespace string) []byte {
	return []byte(tool + "/" + cluster + "/" + namespace)
}

func (s *BoltStore) put(bucket, key []byte, v any) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return tx.Bucket(bucket).Put(key, data)
	})
}

func (s *BoltStore) create(bucket, key []byte, v any, what string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b.Get(key) != nil {
			return errdefs.Conflict("%s already exists: %s", what, key)
		}
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return b.Put(key, data)
	})
}

func (s *BoltStore) get(bucket, key []byte, v any, what string) error {
	return s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucket).Get(key)
		if data == nil {
			return errdefs.NotFound("%s not found: %s", what, key)
		}
		return json.Unmarshal(data, v)
	})
}

func (s *BoltStore) delete(bucket, key []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Delete(key)
	})
}

// Cluster operations

func (s *BoltStore) CreateCluster(rec *ClusterRecord) error {
	return s.create(bucketClusters, clusterKey(rec.AccountID, rec.Name), rec, "cluster")
}

func (s *BoltStore) GetCluster(accountID, name string) (*ClusterRecord, error) {
	var rec ClusterRecord
	if err := s.get(bucketClusters, clusterKey(accountID, name), &rec, "cluster"); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *BoltStore) ListClusters() ([]*ClusterRecord, error) {
	var recs []*ClusterRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketClusters).ForEach(func(k, v []byte) error {
			var rec ClusterRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			recs = append(recs, &rec)
			return nil
		})
	})
	return recs, err
}

func (s *BoltStore) ListClustersByAccount(accountID string) ([]*ClusterRecord, error) {
	var recs []*ClusterRecord
	prefix := []byte(accountID + "/")
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketClusters).Cursor()
		for k, v := c.Seek(prefix); k != nil && strings.HasPrefix(string(k), string(prefix)); k, v = c.Next() {
			var rec ClusterRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			recs = append(recs, &rec)
		}
		return nil
	})
	return recs, err
}

func (s *BoltStore) UpdateCluster(rec *ClusterRecord) error {
	return s.put(bucketClusters, clusterKey(rec.AccountID, rec.Name), rec)
}

func (s *BoltStore) DeleteCluster(accountID, name string) error {
	return s.delete(bucketClusters, clusterKey(accountID, name))
}

// Deployment operations

func (s *BoltStore) CreateDeployment(rec *DeploymentRecord) error {
	return s.create(bucketDeployments, deploymentKey(rec.Tool, rec.ClusterName, rec.Namespace), rec, "deployment")
}

func (s *BoltStore) GetDeployment(tool, cluster, namespace string) (*DeploymentRecord, error) {
	var rec DeploymentRecord
	if err := s.get(bucketDeployments, deploymentKey(tool, cluster, namespace), &rec, "deployment"); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *BoltStore) ListDeployments() ([]*DeploymentRecord, error) {
	var recs []*DeploymentRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDeployments).ForEach(func(k, v []byte) error {
			var rec DeploymentRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			recs = append(recs, &rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].CreatedAt.After(recs[j].CreatedAt) })
	return recs, nil
}

func (s *BoltStore) ListDeploymentsByCluster(cluster string) ([]*DeploymentRecord, error) {
	all, err := s.ListDeployments()
	if err != nil {
		return nil, err
	}
	var recs []*DeploymentRecord
	for _, rec := range all {
		if rec.ClusterName == cluster {
			recs = append(recs, rec)
		}
	}
	return recs, nil
}

func (s *BoltStore) ListDeploymentsByTool(tool string) ([]*DeploymentRecord, error) {
	var recs []*DeploymentRecord
	prefix := []byte(tool + "/")
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketDeployments).Cursor()
		for k, v := c.Seek(prefix); k != nil && strings.HasPrefix(string(k), string(prefix)); k, v = c.Next() {
			var rec DeploymentRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			recs = append(recs, &rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].CreatedAt.After(recs[j].CreatedAt) })
	return recs, nil
}

// CountDeployments returns the number of deployment records.
func (s *BoltStore) CountDeployments() (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketDeployments).Stats().KeyN
		return nil
	})
	return n, err
}

// LatestDeployment returns the most recently created deployment record.
func (s *BoltStore) LatestDeployment() (*DeploymentRecord, error) {
	all, err := s.ListDeployments()
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, errdefs.NotFound("no deployments recorded")
	}
	return all[0], nil
}

func (s *BoltStore) UpdateDeployment(rec *DeploymentRecord) error {
	return s.put(bucketDeployments, deploymentKey(rec.Tool, rec.ClusterName, rec.Namespace), rec)
}

func (s *BoltStore) DeleteDeployment(tool, cluster, namespace string) error {
	return s.delete(bucketDeployments, deploymentKey(tool, cluster, namespace))
}

// Account operations

func (s *BoltStore) PutAccount(rec *AccountRecord) error {
	return s.put(bucketAccounts, []byte(rec.ID), rec)
}

func (s *BoltStore) GetAccount(id string) (*AccountRecord, error) {
	var rec AccountRecord
	if err := s.get(bucketAccounts, []byte(id), &rec, "account"); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *BoltStore) ListAccounts() ([]*AccountRecord, error) {
	var recs []*AccountRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketAccounts).ForEach(func(k, v []byte) error {
			var rec AccountRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			recs = append(recs, &rec)
			return nil
		})
	})
	return recs, err
}

func (s *BoltStore) DeleteAccount(id string) error {
	return s.delete(bucketAccounts, []byte(id))
}
