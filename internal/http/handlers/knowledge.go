package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"github.com/bms-ged/backend/internal/knowledge"
	"github.com/bms-ged/backend/internal/models"
)

type IngestRequest struct {
	ComplaintID int64 `json:"complaint_id"`
	Backfill    bool  `json:"backfill"`
}

// @Summary Ingest resolved complaints into the knowledge base
// @Tags knowledge
// @Accept json
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/knowledge/ingest [post]
func (h *Handler) KnowledgeIngest(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if !req.Backfill && req.ComplaintID == 0 {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "complaint_id or backfill is required", nil)
		return
	}

	ctx := c.Request.Context()
	var complaints []models.Complaint
	if req.Backfill {
		var err error
		complaints, err = h.Store.ListResolvedWithSolutions(ctx)
		if err != nil {
			writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load resolved complaints", err.Error())
			return
		}
	} else {
		complaint, err := h.Store.GetComplaint(ctx, req.ComplaintID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				writeError(c, http.StatusNotFound, "NOT_FOUND", "Complaint not found", nil)
				return
			}
			writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load complaint", err.Error())
			return
		}
		complaints = []models.Complaint{complaint}
	}

	ingested := 0
	skipped := 0
	for _, complaint := range complaints {
		kc, err := knowledge.CaseFromComplaint(complaint)
		if err != nil {
			skipped++
			h.Logger.Warn().Err(err).Int64("complaint_id", complaint.ID).Msg("complaint not ingestable")
			continue
		}
		if err := h.Knowledge.Insert(ctx, kc); err != nil {
			skipped++
			h.Logger.Error().Err(err).Int64("complaint_id", complaint.ID).Msg("knowledge insert failed")
			continue
		}
		ingested++
	}

	c.JSON(http.StatusOK, gin.H{"ingested": ingested, "skipped": skipped})
}

// @Summary Knowledge base statistics
// @Tags knowledge
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/knowledge/stats [get]
func (h *Handler) KnowledgeStats(c *gin.Context) {
	count, err := h.Knowledge.Stats(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to count cases", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"total_cases": count})
}

// @Summary Clear the knowledge base
// @Tags knowledge
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/knowledge/clear [post]
func (h *Handler) KnowledgeClear(c *gin.Context) {
	if err := h.Knowledge.Clear(c.Request.Context()); err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to clear knowledge base", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

// KnowledgeSimilar previews similarity search results for operability checks.
func (h *Handler) KnowledgeSimilar(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "q is required", nil)
		return
	}
	category := models.Category(strings.TrimSpace(c.Query("category")))
	topK, _ := strconv.Atoi(c.DefaultQuery("top_k", "3"))

	matches := h.Knowledge.Search(c.Request.Context(), query, category, topK)
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}
