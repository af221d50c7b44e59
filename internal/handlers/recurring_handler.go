package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "pocketplan/internal/errors"
	"pocketplan/internal/models"
	"pocketplan/internal/pagination"
	"pocketplan/internal/services"
)

// RecurringHandler handles recurring-transaction requests.
type RecurringHandler struct {
	recurringService services.RecurringServicer
	auditService     services.AuditServicer
}

// NewRecurringHandler creates a new RecurringHandler.
func NewRecurringHandler(recurringService services.RecurringServicer, auditService services.AuditServicer) *RecurringHandler {
	return &RecurringHandler{recurringService: recurringService, auditService: auditService}
}

// CreateRecurringRequest represents the request payload for creating a recurring transaction.
type CreateRecurringRequest struct {
	AccountID         string  `json:"account_id" binding:"required,uuid"`
	CategoryID        *string `json:"category_id" binding:"omitempty,uuid"`
	Amount            int64   `json:"amount" binding:"required"`
	Description       string  `json:"description" binding:"max=500"`
	Frequency         string  `json:"frequency" binding:"required,frequency"`
	NextExecutionDate string  `json:"next_execution_date" binding:"required"`
	EndDate           *string `json:"end_date"`
}

// UpdateRecurringRequest represents the request payload for updating a recurring transaction.
type UpdateRecurringRequest struct {
	AccountID         *string `json:"account_id" binding:"omitempty,uuid"`
	CategoryID        *string `json:"category_id" binding:"omitempty,uuid"`
	ClearCategory     bool    `json:"clear_category"`
	Amount            *int64  `json:"amount"`
	Description       *string `json:"description" binding:"omitempty,max=500"`
	Frequency         *string `json:"frequency" binding:"omitempty,frequency"`
	NextExecutionDate *string `json:"next_execution_date"`
	EndDate           *string `json:"end_date"`
	ClearEndDate      bool    `json:"clear_end_date"`
	IsActive          *bool   `json:"is_active"`
}

// CreateRecurringTransaction handles the creation of a recurring transaction template
// @Summary     Create a recurring transaction
// @Description Create a template that generates a transaction each time its next execution date passes
// @Tags        recurring
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateRecurringRequest true "Recurring transaction details"
// @Success     201 {object} models.RecurringTransaction "Template created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account or category not found"
// @Router      /recurring-transactions [post]
func (h *RecurringHandler) CreateRecurringTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateRecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	nextDate, err := parseDate(req.NextExecutionDate)
	if err != nil {
		respondWithError(c, err)
		return
	}
	endDate, err := parseOptionalDate(req.EndDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	recurring, err := h.recurringService.CreateRecurringTransaction(
		userID,
		req.AccountID,
		req.CategoryID,
		req.Amount,
		req.Description,
		models.Frequency(req.Frequency),
		nextDate,
		endDate,
	)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_RECURRING", "recurring_transaction", recurring.ID, c.ClientIP(),
		map[string]interface{}{"frequency": req.Frequency, "amount": req.Amount})

	c.JSON(http.StatusCreated, gin.H{"recurring_transaction": recurring})
}

// GetUserRecurringTransactions handles the retrieval of recurring transactions
// @Summary     Get recurring transactions
// @Description Get a paginated list of recurring transaction templates for the authenticated user
// @Tags        recurring
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int  false "Page number (default 1)"
// @Param       page_size query int  false "Items per page (default 20, max 100)"
// @Param       is_active query bool false "Filter by active flag"
// @Success     200 {object} pagination.PageResponse[models.RecurringTransaction] "Paginated templates"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /recurring-transactions [get]
func (h *RecurringHandler) GetUserRecurringTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var isActive *bool
	if raw := c.Query("is_active"); raw != "" {
		parsed, parseErr := strconv.ParseBool(raw)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid is_active"))
			return
		}
		isActive = &parsed
	}

	result, err := h.recurringService.GetUserRecurringTransactions(userID, page, isActive)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetRecurringTransaction handles the retrieval of a single template
// @Summary     Get a recurring transaction
// @Description Get a single recurring transaction template owned by the authenticated user
// @Tags        recurring
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Recurring transaction ID"
// @Success     200 {object} models.RecurringTransaction "Template"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Template not found"
// @Router      /recurring-transactions/{id} [get]
func (h *RecurringHandler) GetRecurringTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	recurringID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	recurring, err := h.recurringService.GetRecurringTransactionByID(userID, recurringID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recurring_transaction": recurring})
}

// UpdateRecurringTransaction handles template updates
// @Summary     Update a recurring transaction
// @Description Update a recurring transaction template
// @Tags        recurring
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                 true "Recurring transaction ID"
// @Param       request body UpdateRecurringRequest true "Fields to update"
// @Success     200 {object} models.RecurringTransaction "Updated template"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Template not found"
// @Router      /recurring-transactions/{id} [put]
func (h *RecurringHandler) UpdateRecurringTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	recurringID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateRecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	nextDate, err := parseOptionalDate(req.NextExecutionDate)
	if err != nil {
		respondWithError(c, err)
		return
	}
	endDate, err := parseOptionalDate(req.EndDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var frequency *models.Frequency
	if req.Frequency != nil {
		f := models.Frequency(*req.Frequency)
		frequency = &f
	}

	recurring, err := h.recurringService.UpdateRecurringTransaction(userID, recurringID, services.RecurringUpdateFields{
		AccountID:         req.AccountID,
		CategoryID:        req.CategoryID,
		ClearCategory:     req.ClearCategory,
		Amount:            req.Amount,
		Description:       req.Description,
		Frequency:         frequency,
		NextExecutionDate: nextDate,
		EndDate:           endDate,
		ClearEndDate:      req.ClearEndDate,
		IsActive:          req.IsActive,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_RECURRING", "recurring_transaction", recurring.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"recurring_transaction": recurring})
}

// DeleteRecurringTransaction handles template deletion
// @Summary     Delete a recurring transaction
// @Description Delete a template. Transactions it already generated are kept.
// @Tags        recurring
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Recurring transaction ID"
// @Success     200 {object} MessageResponse "Template deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Template not found"
// @Router      /recurring-transactions/{id} [delete]
func (h *RecurringHandler) DeleteRecurringTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	recurringID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.recurringService.DeleteRecurringTransaction(userID, recurringID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_RECURRING", "recurring_transaction", recurringID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Recurring transaction deleted"})
}

// ProcessRecurringTransactions triggers a processing pass over all due templates
// @Summary     Process due recurring transactions
// @Description Materialize one transaction for every active template whose next execution date has passed. Internal endpoint guarded by the job API key.
// @Tags        internal
// @Produce     json
// @Param       X-API-Key header string true "Job API key"
// @Success     200 {object} services.ProcessResult "Processing result"
// @Failure     401 {object} ErrorResponse "Missing or invalid API key"
// @Router      /internal/jobs/recurring [post]
func (h *RecurringHandler) ProcessRecurringTransactions(c *gin.Context) {
	result, err := h.recurringService.ProcessDue(time.Now().UTC())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
