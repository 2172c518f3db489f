package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/bms-ged/backend/internal/db"
	"github.com/bms-ged/backend/internal/knowledge"
	"github.com/bms-ged/backend/internal/models"
	"github.com/bms-ged/backend/internal/service"
)

type Handler struct {
	Store     *db.Store
	Pipeline  *service.Pipeline
	Knowledge *knowledge.Store
	Assigner  *service.AssignmentResolver
	Validator *validator.Validate
	Logger    zerolog.Logger
	AdminKey  string
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type SubmitRequest struct {
	BuildingID       int64    `json:"building_id" validate:"required"`
	SubmitterID      int64    `json:"submitter_id" validate:"required"`
	Category         string   `json:"category"`
	Title            string   `json:"title" validate:"required"`
	Description      string   `json:"description" validate:"required"`
	ImageBase64      string   `json:"image_base64"`
	ImageContentType string   `json:"image_content_type"`
	PictureURLs      []string `json:"picture_urls"`
	ProposedSolution string   `json:"proposed_solution"`
	Selection        string   `json:"responder_selection"`
	ResponderContact string   `json:"responder_contact"`
}

// @Summary Submit a self-resolved complaint
// @Tags complaints
// @Accept json
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Router /api/complaints/resolved [post]
func (h *Handler) SubmitResolved(c *gin.Context) {
	h.submit(c, models.StatusResolved)
}

// @Summary Submit a pending complaint with responder assignment
// @Tags complaints
// @Accept json
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Router /api/complaints/pending [post]
func (h *Handler) SubmitPending(c *gin.Context) {
	h.submit(c, models.StatusPending)
}

func (h *Handler) submit(c *gin.Context, status models.Status) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	draft := &service.Draft{
		BuildingID:       req.BuildingID,
		SubmitterID:      req.SubmitterID,
		Category:         models.Category(req.Category),
		Title:            req.Title,
		Description:      req.Description,
		PictureURLs:      req.PictureURLs,
		ProposedSolution: req.ProposedSolution,
		Selection:        req.Selection,
		ContactOverride:  req.ResponderContact,
	}
	if req.ImageBase64 != "" {
		data, err := base64.StdEncoding.DecodeString(req.ImageBase64)
		if err != nil {
			writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "image_base64 is not valid base64", err.Error())
			return
		}
		draft.ImageData = data
		draft.ImageContentType = req.ImageContentType
	}

	var (
		outcome service.Outcome
		err     error
	)
	if status == models.StatusResolved {
		outcome, err = h.Pipeline.SubmitResolved(c.Request.Context(), draft)
	} else {
		outcome, err = h.Pipeline.SubmitPending(c.Request.Context(), draft)
	}
	if err != nil {
		var mismatch *service.ImageMismatchError
		switch {
		case errors.Is(err, service.ErrValidation):
			writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		case errors.As(err, &mismatch):
			writeError(c, http.StatusUnprocessableEntity, "IMAGE_MISMATCH", mismatch.Error(), mismatch.Reason)
		default:
			h.Logger.Error().Err(err).Msg("complaint submission failed")
			writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to save complaint", err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Complaint saved",
		"outcome": outcome,
	})
}

func (h *Handler) ComplaintsList(c *gin.Context) {
	status := strings.TrimSpace(c.Query("status"))
	category := strings.TrimSpace(c.Query("category"))
	q := c.Query("q")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	items, err := h.Store.ListComplaints(c.Request.Context(), status, category, q, limit, offset)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list complaints", err.Error())
		return
	}
	if items == nil {
		items = []models.Complaint{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "limit": limit, "offset": offset})
}

func (h *Handler) ComplaintDetails(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "id must be an integer", nil)
		return
	}
	complaint, err := h.Store.GetComplaint(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Complaint not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to get complaint", err.Error())
		return
	}
	c.JSON(http.StatusOK, complaint)
}

// RespondersList exposes the assignment candidates offered for a category so
// the conversational layer can present a selection.
func (h *Handler) RespondersList(c *gin.Context) {
	category := models.Category(strings.TrimSpace(c.Query("category")))
	resolution := h.Assigner.Resolve(c.Request.Context(), category)
	c.JSON(http.StatusOK, gin.H{
		"offer_shown": resolution.OfferShown,
		"candidates":  resolution.Offered,
		"default":     resolution.Default,
	})
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}
