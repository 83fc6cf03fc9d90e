// Package api exposes the engine operations over HTTP.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cloudmasa/engine/internal/activity"
	"github.com/cloudmasa/engine/internal/errdefs"
	"github.com/cloudmasa/engine/internal/gitops"
	"github.com/cloudmasa/engine/internal/lifecycle"
	"github.com/cloudmasa/engine/internal/store"
)

// Handlers contains all HTTP handlers.
type Handlers struct {
	clusters    *lifecycle.Controller
	deployments *gitops.Deployer
	store       store.Store
	feed        *activity.Feed
}

// New creates a new Handlers instance.
func New(clusters *lifecycle.Controller, deployments *gitops.Deployer, st store.Store, feed *activity.Feed) *Handlers {
	return &Handlers{clusters: clusters, deployments: deployments, store: st, feed: feed}
}

// Router builds the HTTP routing table.
func (h *Handlers) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.POST("/clusters", h.CreateCluster)
		api.POST("/clusters/adopt", h.AdoptCluster)
		api.GET("/clusters", h.ListClusters)
		api.GET("/clusters/:account/:name", h.GetCluster)
		api.GET("/clusters/:account/:name/nodes", h.LiveNodeCount)
		api.POST("/clusters/:account/:name/upgrade", h.UpgradeCluster)
		api.DELETE("/clusters/:account/:name", h.DestroyCluster)

		api.POST("/deployments", h.Deploy)
		api.GET("/deployments", h.ListDeployments)
		api.GET("/deployments/count", h.CountDeployments)
		api.GET("/deployments/latest", h.LatestDeployment)
		api.DELETE("/deployments/:tool/:cluster/:namespace", h.Undeploy)

		api.GET("/accounts", h.ListAccounts)

		api.GET("/activity", h.Activity)
	}
	return r
}

// fail writes the JSON error envelope with a status derived from the
// error's kind.
func fail(c *gin.Context, err error) {
	kind := errdefs.KindOf(err)
	c.JSON(statusFor(kind), gin.H{
		"kind":  string(kind),
		"error": err.Error(),
	})
}

func statusFor(kind errdefs.Kind) int {
	switch kind {
	case errdefs.KindValidation:
		return http.StatusBadRequest
	case errdefs.KindNotFound:
		return http.StatusNotFound
	case errdefs.KindConflict:
		return http.StatusConflict
	case errdefs.KindCredential:
		return http.StatusForbidden
	case errdefs.KindTimeout:
		return http.StatusGatewayTimeout
	case errdefs.KindCloudAPI, errdefs.KindExternalTool:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
