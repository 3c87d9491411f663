package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mkalinins/dashvault/internal/common"
	"github.com/mkalinins/dashvault/internal/session"
)

type loginRequest struct {
	UserID   string `json:"userId" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials against the users document and sets the
// session cookie. Unknown users and wrong passwords produce the same
// response.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId and password are required"})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.UserID, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	token, err := h.codec.Sign(user.UserID, user.Role)
	if err != nil {
		h.logger.Error(c.Request.Context(), "token signing failed", "error", err)
		writeError(c, err)
		return
	}

	http.SetCookie(c.Writer, session.NewCookie(token, h.codec.TTL(), h.secureCookies))
	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"userId":        user.UserID,
		"role":          user.Role,
	})
}

// Logout clears the session cookie. The token itself stays valid until it
// expires: sessions are stateless by design.
func (h *Handler) Logout(c *gin.Context) {
	http.SetCookie(c.Writer, session.ExpiredCookie(h.secureCookies))
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Me reports the current session without requiring one: an absent or
// invalid cookie simply reads as unauthenticated.
func (h *Handler) Me(c *gin.Context) {
	token, err := c.Cookie(common.SessionCookieName)
	if err != nil || token == "" {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}

	sess, err := h.codec.Verify(token)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"userId":        sess.UserID,
		"role":          sess.Role,
		"expiresAt":     sess.ExpiresAt,
	})
}
