package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Gabrielpanashe/Face-Access-System/internal/storage"
	"github.com/Gabrielpanashe/Face-Access-System/pkg/dto"
)

type LogsHandler struct {
	db *storage.PostgresStore
}

func NewLogsHandler(db *storage.PostgresStore) *LogsHandler {
	return &LogsHandler{db: db}
}

// List returns the most recent access records, newest first.
func (h *LogsHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	entries, err := h.db.ListAccessRecords(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.AccessLogResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, dto.AccessLogResponse{
			ID:              e.ID,
			IdentityName:    e.IdentityName,
			Status:          string(e.Status),
			LivenessScore:   e.LivenessScore,
			MatchConfidence: e.MatchConfidence,
			Timestamp:       e.Timestamp.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, gin.H{"logs": resp, "total": len(resp)})
}
