package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// accountView is the safe projection of an account record. Key material,
// even encrypted, never leaves the store through the API.
type accountView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Region    string    `json:"region"`
	CreatedAt time.Time `json:"createdAt"`
}

// ListAccounts returns the registered accounts without credential fields.
func (h *Handlers) ListAccounts(c *gin.Context) {
	recs, err := h.store.ListAccounts()
	if err != nil {
		fail(c, err)
		return
	}

	views := make([]accountView, 0, len(recs))
	for _, rec := range recs {
		views = append(views, accountView{
			ID:        rec.ID,
			Name:      rec.Name,
			Region:    rec.Region,
			CreatedAt: rec.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"accounts": views})
}
