package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Gabrielpanashe/Face-Access-System/internal/storage"
	"github.com/Gabrielpanashe/Face-Access-System/pkg/dto"
)

// AdminHandler serves identity management for the admin dashboard.
type AdminHandler struct {
	db     *storage.PostgresStore
	images *storage.MinIOStore
}

func NewAdminHandler(db *storage.PostgresStore, images *storage.MinIOStore) *AdminHandler {
	return &AdminHandler{db: db, images: images}
}

// ListIdentities returns every enrolled identity (without embeddings).
func (h *AdminHandler) ListIdentities(c *gin.Context) {
	identities, err := h.db.ListIdentitySummaries(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.IdentityResponse, 0, len(identities))
	for _, ident := range identities {
		resp = append(resp, dto.IdentityResponse{
			ID:        ident.ID,
			Name:      ident.Name,
			ImageURL:  fmt.Sprintf("/api/admin/users/%s/image", ident.Name),
			CreatedAt: ident.CreatedAt.Format(time.RFC3339),
			UpdatedAt: ident.UpdatedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, gin.H{"users": resp, "total": len(resp)})
}

// DeleteIdentity removes an enrolled identity and its reference image.
func (h *AdminHandler) DeleteIdentity(c *gin.Context) {
	name := c.Param("name")

	ident, err := h.db.FindIdentityByName(c.Request.Context(), name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if ident == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	if err := h.db.DeleteIdentity(c.Request.Context(), name); err != nil {
		if errors.Is(err, storage.ErrIdentityNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Best-effort: the audit image is advisory, a leftover is acceptable.
	key := fmt.Sprintf("faces/%s.jpg", ident.ID)
	if err := h.images.DeleteObject(c.Request.Context(), key); err != nil {
		slog.Warn("delete reference image", "key", key, "error", err)
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "message": fmt.Sprintf("User %s deleted", name)})
}

// GetIdentityImage serves the reference face crop stored at enrollment.
func (h *AdminHandler) GetIdentityImage(c *gin.Context) {
	name := c.Param("name")

	ident, err := h.db.FindIdentityByName(c.Request.Context(), name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if ident == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	data, err := h.images.GetObject(c.Request.Context(), fmt.Sprintf("faces/%s.jpg", ident.ID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no reference image"})
		return
	}

	c.Data(http.StatusOK, "image/jpeg", data)
}
