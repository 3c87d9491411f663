package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mkalinins/dashvault/internal/authz"
)

// userResponse is the API view of a user record: the password hash never
// leaves the server.
type userResponse struct {
	UserID    string     `json:"userId"`
	Role      authz.Role `json:"role"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (h *Handler) ListUsers(c *gin.Context) {
	if !h.authorize(c, authz.OpManageUsers) {
		return
	}

	records, err := h.users.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]userResponse, 0, len(records))
	for _, u := range records {
		out = append(out, userResponse{
			UserID:    u.UserID,
			Role:      u.Role,
			CreatedAt: u.CreatedAt,
			UpdatedAt: u.UpdatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}

type upsertUserRequest struct {
	UserID   string `json:"userId" binding:"required"`
	Role     string `json:"role" binding:"required"`
	Password string `json:"password"`
}

func (h *Handler) UpsertUser(c *gin.Context) {
	if !h.authorize(c, authz.OpManageUsers) {
		return
	}

	var req upsertUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId and role are required"})
		return
	}

	user, err := h.users.Upsert(c.Request.Context(), req.UserID, authz.Role(req.Role), req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": userResponse{
		UserID:    user.UserID,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}})
}

func (h *Handler) DeleteUser(c *gin.Context) {
	if !h.authorize(c, authz.OpManageUsers) {
		return
	}

	if err := h.users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
