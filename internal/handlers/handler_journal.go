package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kakeibo-dev/kakeibo_app/internal/apperrors"
	portssvc "github.com/kakeibo-dev/kakeibo_app/internal/core/ports/services"
	"github.com/kakeibo-dev/kakeibo_app/internal/dto"
	"github.com/kakeibo-dev/kakeibo_app/internal/middleware"
)

// journalHandler handles HTTP requests related to journal entries.
type journalHandler struct {
	journal portssvc.JournalSvcFacade
}

func newJournalHandler(journal portssvc.JournalSvcFacade) *journalHandler {
	return &journalHandler{journal: journal}
}

// registerJournalRoutes registers routes related to journal entries.
func registerJournalRoutes(rg *gin.RouterGroup, journal portssvc.JournalSvcFacade) {
	h := newJournalHandler(journal)

	entries := rg.Group("/entries")
	{
		entries.POST("", h.submitEntry)
		entries.GET("", h.queryEntries)
		entries.GET("/:id", h.getEntry)
		entries.POST("/:id/void", h.voidEntry)
		entries.POST("/:id/reverse", h.reverseEntry)
	}
}

// submitEntry godoc
// @Summary Submit a journal entry
// @Description Validates and appends a balanced journal entry. Debits and credits must sum to the same exact amount
// @Tags entries
// @Accept  json
// @Produce  json
// @Param   entry body dto.SubmitEntryRequest true "Entry details"
// @Success 201 {object} dto.EntryResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 500 {object} map[string]string "Failed to submit entry"
// @Router /entries [post]
func (h *journalHandler) submitEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.SubmitEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for submitEntry", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	logger.Info("Received request to submit entry", slog.String("date", req.Date), slog.Int("line_count", len(req.Lines)))

	entry, err := h.journal.SubmitEntry(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			logger.Warn("Validation error submitting entry", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, validationBody(err))
		} else {
			logger.Error("Failed to submit entry in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit entry"})
		}
		return
	}

	logger.Info("Entry submitted successfully", slog.String("entry_id", entry.EntryID), slog.Int64("sequence", entry.Sequence))
	c.JSON(http.StatusCreated, dto.ToEntryResponse(entry))
}

// queryEntries godoc
// @Summary List journal entries
// @Description Lists entries ordered by business date then sequence, optionally filtered by date range and referenced account. Voided entries are included with their status marked
// @Tags entries
// @Produce  json
// @Param   dateFrom query string false "Inclusive lower bound (YYYY-MM-DD)"
// @Param   dateTo query string false "Inclusive upper bound (YYYY-MM-DD)"
// @Param   accountID query string false "Only entries with a line touching this account"
// @Success 200 {array} dto.EntryResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 500 {object} map[string]string "Failed to list entries"
// @Router /entries [get]
func (h *journalHandler) queryEntries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.QueryEntriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query params for queryEntries", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	entries, err := h.journal.QueryEntries(c.Request.Context(), params)
	if err != nil {
		logger.Error("Failed to query entries from service", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list entries"})
		return
	}

	c.JSON(http.StatusOK, dto.ToEntryResponses(entries))
}

// getEntry godoc
// @Summary Get a journal entry by ID
// @Description Retrieves one entry with all its lines
// @Tags entries
// @Produce  json
// @Param   id path string true "Entry ID"
// @Success 200 {object} dto.EntryResponse
// @Failure 404 {object} map[string]string "Entry not found"
// @Failure 500 {object} map[string]string "Failed to retrieve entry"
// @Router /entries/{id} [get]
func (h *journalHandler) getEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entryID := c.Param("id")

	entry, err := h.journal.GetEntryByID(c.Request.Context(), entryID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Entry not found", slog.String("entry_id", entryID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
		} else {
			logger.Error("Failed to get entry from service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve entry"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

// voidEntry godoc
// @Summary Void a journal entry
// @Description Excludes an entry from all aggregation while keeping it in the audit trail. Only POSTED entries can be voided
// @Tags entries
// @Produce  json
// @Param   id path string true "Entry ID"
// @Success 200 {object} dto.EntryResponse
// @Failure 404 {object} map[string]string "Entry not found"
// @Failure 409 {object} map[string]string "Entry is not in a voidable state"
// @Failure 500 {object} map[string]string "Failed to void entry"
// @Router /entries/{id}/void [post]
func (h *journalHandler) voidEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entryID := c.Param("id")

	logger.Info("Received request to void entry", slog.String("entry_id", entryID))

	entry, err := h.journal.VoidEntry(c.Request.Context(), entryID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Entry not found for void", slog.String("entry_id", entryID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
		} else if errors.Is(err, apperrors.ErrConflict) {
			logger.Warn("Entry not voidable", slog.String("entry_id", entryID), slog.String("error", err.Error()))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to void entry in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to void entry"})
		}
		return
	}

	logger.Info("Entry voided successfully", slog.String("entry_id", entryID))
	c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

// reverseEntry godoc
// @Summary Reverse a journal entry
// @Description Appends a mirror-image entry that cancels the original and links the pair. The original stays in aggregation
// @Tags entries
// @Produce  json
// @Param   id path string true "Entry ID to reverse"
// @Success 201 {object} dto.EntryResponse
// @Failure 404 {object} map[string]string "Entry not found"
// @Failure 409 {object} map[string]string "Entry is not in a reversible state"
// @Failure 500 {object} map[string]string "Failed to reverse entry"
// @Router /entries/{id}/reverse [post]
func (h *journalHandler) reverseEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entryID := c.Param("id")

	logger.Info("Received request to reverse entry", slog.String("entry_id", entryID))

	reversal, err := h.journal.ReverseEntry(c.Request.Context(), entryID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Entry not found for reversal", slog.String("entry_id", entryID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
		} else if errors.Is(err, apperrors.ErrConflict) {
			logger.Warn("Entry not reversible", slog.String("entry_id", entryID), slog.String("error", err.Error()))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to reverse entry in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reverse entry"})
		}
		return
	}

	logger.Info("Entry reversed successfully", slog.String("entry_id", entryID), slog.String("reversal_entry_id", reversal.EntryID))
	c.JSON(http.StatusCreated, dto.ToEntryResponse(reversal))
}
