package wallet

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vuchungbt/hotel-booking-sub000/internal/middleware"
	"github.com/vuchungbt/hotel-booking-sub000/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/wallet/balance", h.Balance)
	rg.GET("/wallet/transactions", h.ListTransactions)
	rg.POST("/wallet/withdrawals", h.RequestWithdrawal)

	admin := rg.Group("/")
	admin.Use(middleware.AdminOnly())
	{
		admin.GET("/wallet/withdrawals/pending", h.ListPendingWithdrawals)
		admin.POST("/wallet/withdrawals/:id/process", h.ProcessWithdrawal)
	}
}

func (h *Handler) Balance(c *gin.Context) {
	uid := c.GetInt64("user_id")
	balance, err := h.service.Balance(c.Request.Context(), uid)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, BalanceResponse{UserID: uid, Balance: balance})
}

func (h *Handler) ListTransactions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	out, err := h.service.ListTransactions(c.Request.Context(), c.GetInt64("user_id"), limit, offset)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

func (h *Handler) RequestWithdrawal(c *gin.Context) {
	var req WithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	txn, err := h.service.RequestWithdrawal(c.Request.Context(), c.GetInt64("user_id"), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, txn)
}

func (h *Handler) ListPendingWithdrawals(c *gin.Context) {
	out, err := h.service.ListPendingWithdrawals(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

func (h *Handler) ProcessWithdrawal(c *gin.Context) {
	txnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid id")
		return
	}
	var req ProcessWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	txn, err := h.service.ProcessWithdrawal(c.Request.Context(), txnID, c.GetInt64("user_id"), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, txn)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, ErrNoBankAccount):
		response.Error(c, http.StatusBadRequest, "NO_BANK_ACCOUNT", err.Error())
	case errors.Is(err, ErrInsufficientBalance):
		response.Error(c, http.StatusBadRequest, "INSUFFICIENT_BALANCE", err.Error())
	case errors.Is(err, ErrNotPending):
		response.Error(c, http.StatusConflict, "NOT_PENDING", err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Request failed")
	}
}
