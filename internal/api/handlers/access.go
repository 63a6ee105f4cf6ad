package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Gabrielpanashe/Face-Access-System/internal/access"
	"github.com/Gabrielpanashe/Face-Access-System/pkg/dto"
)

// AccessHandler exposes the two kiosk-facing operations, Verify and Enroll.
type AccessHandler struct {
	service *access.Service
}

func NewAccessHandler(service *access.Service) *AccessHandler {
	return &AccessHandler{service: service}
}

// Verify decides access for a submitted probe image.
// POST /api/verify, form fields: image (base64, data-URI accepted).
func (h *AccessHandler) Verify(c *gin.Context) {
	var req dto.VerifyRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image field required"})
		return
	}

	result, err := h.service.Verify(c.Request.Context(), req.Image)
	if err != nil {
		if errors.Is(err, access.ErrInvalidImage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image data"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "verification failed"})
		return
	}

	c.JSON(http.StatusOK, dto.VerifyResponse{
		Status:          result.Status,
		Identity:        result.Identity,
		MatchConfidence: result.MatchConfidence,
		Access:          result.Access,
		Reason:          string(result.Reason),
	})
}

// Enroll registers a named identity from a reference photo.
// POST /api/enroll, form fields: name, image.
func (h *AccessHandler) Enroll(c *gin.Context) {
	var req dto.EnrollRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and image fields required"})
		return
	}

	result, err := h.service.Enroll(c.Request.Context(), req.Name, req.Image)
	if err != nil {
		switch {
		case errors.Is(err, access.ErrLivenessRejected):
			c.JSON(http.StatusForbidden, gin.H{"error": "submitted face failed the liveness check"})
		case access.IsUserError(err):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "enrollment failed"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.EnrollResponse{
		Status:  result.Status,
		Message: result.Message,
	})
}
