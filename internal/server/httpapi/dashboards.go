package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mkalinins/dashvault/internal/authz"
	"github.com/mkalinins/dashvault/internal/dashboards"
)

// authorize resolves the session and checks the policy for op, writing the
// response itself on deny.
func (h *Handler) authorize(c *gin.Context, op authz.Operation) bool {
	sess, ok := SessionFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return false
	}
	if err := authz.Authorize(sess.Role, op); err != nil {
		writeError(c, err)
		return false
	}
	return true
}

func (h *Handler) ListDashboards(c *gin.Context) {
	if !h.authorize(c, authz.OpListDashboards) {
		return
	}

	entries, err := h.dashboards.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if entries == nil {
		entries = []dashboards.IndexEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"dashboards": entries})
}

func (h *Handler) GetDashboard(c *gin.Context) {
	if !h.authorize(c, authz.OpReadDashboard) {
		return
	}

	dash, err := h.dashboards.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":    dash.Meta.ID,
		"name":  dash.Meta.Name,
		"state": dash.State,
		"meta":  dash.Meta,
	})
}

type saveDashboardRequest struct {
	Name  string         `json:"name"`
	State map[string]any `json:"state" binding:"required"`
}

func (h *Handler) SaveDashboard(c *gin.Context) {
	if !h.authorize(c, authz.OpWriteDashboard) {
		return
	}

	var req saveDashboardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "state is required"})
		return
	}

	sess, _ := SessionFromContext(c)
	dash, err := h.dashboards.Save(c.Request.Context(), c.Param("id"), req.Name, req.State, sess.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "id": dash.Meta.ID, "meta": dash.Meta})
}

func (h *Handler) DeleteDashboard(c *gin.Context) {
	if !h.authorize(c, authz.OpDeleteDashboard) {
		return
	}

	if err := h.dashboards.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) RebuildIndex(c *gin.Context) {
	if !h.authorize(c, authz.OpRebuildIndex) {
		return
	}

	entries, err := h.dashboards.Index().Rebuild(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if entries == nil {
		entries = []dashboards.IndexEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "dashboards": entries})
}
