package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cloudmasa/engine/internal/errdefs"
	"github.com/cloudmasa/engine/internal/gitops"
)

type deployRequest struct {
	Tool      string `json:"tool"`
	Cluster   string `json:"cluster"`
	Namespace string `json:"namespace"`
	RepoURL   string `json:"repoUrl"`
	Folder    string `json:"folder"`
	AccountID string `json:"accountId"`
	SCMToken  string `json:"scmToken"`
}

// Deploy applies a GitOps application to a cluster.
func (h *Handlers) Deploy(c *gin.Context) {
	var req deployRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errdefs.Validation("invalid request body: %v", err))
		return
	}

	rec, err := h.deployments.Deploy(c.Request.Context(), gitops.DeployRequest{
		Tool:      req.Tool,
		Cluster:   req.Cluster,
		Namespace: req.Namespace,
		RepoURL:   req.RepoURL,
		Folder:    req.Folder,
		AccountID: req.AccountID,
		SCMToken:  req.SCMToken,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// Undeploy removes an application, its namespace and its record.
func (h *Handlers) Undeploy(c *gin.Context) {
	err := h.deployments.Undeploy(c.Request.Context(),
		c.Param("tool"), c.Param("cluster"), c.Param("namespace"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tool":      c.Param("tool"),
		"cluster":   c.Param("cluster"),
		"namespace": c.Param("namespace"),
	})
}

// ListDeployments returns deployment records, newest first, optionally
// filtered by the cluster or tool query parameters.
func (h *Handlers) ListDeployments(c *gin.Context) {
	var err error
	var recs any
	switch {
	case c.Query("cluster") != "":
		recs, err = h.store.ListDeploymentsByCluster(c.Query("cluster"))
	case c.Query("tool") != "":
		recs, err = h.store.ListDeploymentsByTool(c.Query("tool"))
	default:
		recs, err = h.store.ListDeployments()
	}
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deployments": recs})
}

// CountDeployments returns the number of deployment records.
func (h *Handlers) CountDeployments(c *gin.Context) {
	n, err := h.store.CountDeployments()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

// LatestDeployment returns the most recently created deployment,
// optionally scoped to one tool.
func (h *Handlers) LatestDeployment(c *gin.Context) {
	if tool := c.Query("tool"); tool != "" {
		recs, err := h.store.ListDeploymentsByTool(tool)
		if err != nil {
			fail(c, err)
			return
		}
		if len(recs) == 0 {
			fail(c, errdefs.NotFound("no deployments recorded for tool %q", tool))
			return
		}
		c.JSON(http.StatusOK, recs[0])
		return
	}

	rec, err := h.store.LatestDeployment()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Activity returns recent engine events, newest first.
func (h *Handlers) Activity(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"events": h.feed.List()})
}
