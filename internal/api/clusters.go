package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cloudmasa/engine/internal/errdefs"
	"github.com/cloudmasa/engine/internal/lifecycle"
)

type createClusterRequest struct {
	Name      string   `json:"name"`
	AccountID string   `json:"accountId"`
	VPCID     string   `json:"vpcId"`
	SubnetIDs []string `json:"subnetIds"`

	KubernetesVersion string   `json:"kubernetesVersion"`
	DesiredSize       int      `json:"desiredSize"`
	MinSize           int      `json:"minSize"`
	MaxSize           int      `json:"maxSize"`
	InstanceTypes     []string `json:"instanceTypes"`
	CapacityType      string   `json:"capacityType"`

	IngressCIDR           string `json:"ingressCidr"`
	EndpointPublicAccess  bool   `json:"endpointPublicAccess"`
	EndpointPrivateAccess bool   `json:"endpointPrivateAccess"`
}

// CreateCluster provisions a new cluster.
func (h *Handlers) CreateCluster(c *gin.Context) {
	var req createClusterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errdefs.Validation("invalid request body: %v", err))
		return
	}

	rec, err := h.clusters.Create(c.Request.Context(), lifecycle.CreateRequest{
		Name:                  req.Name,
		AccountID:             req.AccountID,
		VPCID:                 req.VPCID,
		SubnetIDs:             req.SubnetIDs,
		KubernetesVersion:     req.KubernetesVersion,
		DesiredSize:           req.DesiredSize,
		MinSize:               req.MinSize,
		MaxSize:               req.MaxSize,
		InstanceTypes:         req.InstanceTypes,
		CapacityType:          req.CapacityType,
		IngressCIDR:           req.IngressCIDR,
		EndpointPublicAccess:  req.EndpointPublicAccess,
		EndpointPrivateAccess: req.EndpointPrivateAccess,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

type adoptClusterRequest struct {
	Name        string `json:"name"`
	AccountID   string `json:"accountId"`
	KubeContext string `json:"kubeContext"`
}

// AdoptCluster records a cluster that already exists cloud-side.
func (h *Handlers) AdoptCluster(c *gin.Context) {
	var req adoptClusterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errdefs.Validation("invalid request body: %v", err))
		return
	}

	rec, err := h.clusters.SaveExisting(c.Request.Context(), lifecycle.SaveRequest{
		Name:        req.Name,
		AccountID:   req.AccountID,
		KubeContext: req.KubeContext,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// ListClusters returns persisted cluster records, optionally filtered
// by the account query parameter.
func (h *Handlers) ListClusters(c *gin.Context) {
	recs, err := h.clusters.List(c.Query("account"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"clusters": recs})
}

// GetCluster returns one cluster record.
func (h *Handlers) GetCluster(c *gin.Context) {
	rec, err := h.clusters.Get(c.Param("account"), c.Param("name"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// LiveNodeCount queries running worker instances for the cluster.
func (h *Handlers) LiveNodeCount(c *gin.Context) {
	count, err := h.clusters.LiveNodeCount(c.Request.Context(), c.Param("account"), c.Param("name"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"nodes": count})
}

type upgradeClusterRequest struct {
	Version string `json:"version"`
}

// UpgradeCluster requests a control-plane version upgrade.
func (h *Handlers) UpgradeCluster(c *gin.Context) {
	var req upgradeClusterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errdefs.Validation("invalid request body: %v", err))
		return
	}

	rec, err := h.clusters.Upgrade(c.Request.Context(), c.Param("account"), c.Param("name"), req.Version)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// DestroyCluster drains nodegroups, destroys infrastructure and
// removes the record.
func (h *Handlers) DestroyCluster(c *gin.Context) {
	if err := h.clusters.Destroy(c.Request.Context(), c.Param("account"), c.Param("name")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("name")})
}
