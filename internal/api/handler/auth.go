package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shahadulhaider/meeting-note-taker/internal/api/middleware"
	"github.com/shahadulhaider/meeting-note-taker/internal/identity"
	"github.com/shahadulhaider/meeting-note-taker/internal/logger"
)

// AuthHandler exposes the authenticated-user endpoints. Sessions live
// in the external identity service; this handler only reflects and
// revokes them.
type AuthHandler struct {
	identity *identity.Verifier
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(verifier *identity.Verifier) *AuthHandler {
	return &AuthHandler{identity: verifier}
}

// Me returns the user resolved from the bearer token.
func (h *AuthHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Logout revokes the current session at the identity service. Revocation
// failures are logged but do not fail the request; the client discards
// its token either way.
func (h *AuthHandler) Logout(c *gin.Context) {
	token := middleware.CurrentToken(c)
	if token != "" {
		if err := h.identity.SignOut(c.Request.Context(), token); err != nil {
			logger.CtxWarn(c.Request.Context(), "Sign-out failed: %v", err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "signed out"})
}
