package payment

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vuchungbt/hotel-booking-sub000/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires the authenticated payment endpoints.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/payments/url", h.CreatePaymentURL)
	rg.GET("/payments/:txnRef", h.GetTransaction)
	rg.GET("/bookings/:id/payments", h.ListBookingPayments)
}

// RegisterGatewayRoutes wires the two callback endpoints the gateway calls
// without authentication. The signature is the authentication.
func (h *Handler) RegisterGatewayRoutes(rg *gin.RouterGroup) {
	rg.GET("/payments/vnpay/ipn", h.IPN)
	rg.GET("/payments/vnpay/return", h.Return)
}

func (h *Handler) CreatePaymentURL(c *gin.Context) {
	var req CreatePaymentURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	out, err := h.service.CreatePaymentURL(c.Request.Context(), req, c.ClientIP())
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, out)
}

// IPN answers in the gateway's own contract, not the API envelope, and
// always with HTTP 200.
func (h *Handler) IPN(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.HandleIPN(c.Request.Context(), c.Request.URL.Query()))
}

func (h *Handler) Return(c *gin.Context) {
	out, err := h.service.HandleReturn(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

func (h *Handler) GetTransaction(c *gin.Context) {
	txn, err := h.service.GetByTxnRef(c.Request.Context(), c.Param("txnRef"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, txn)
}

func (h *Handler) ListBookingPayments(c *gin.Context) {
	bookingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid id")
		return
	}
	out, err := h.service.ListByBooking(c.Request.Context(), bookingID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrBookingNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, ErrBookingNotPayable):
		response.Error(c, http.StatusConflict, "NOT_PAYABLE", err.Error())
	case errors.Is(err, ErrInvalidSignature):
		response.Error(c, http.StatusBadRequest, "INVALID_SIGNATURE", err.Error())
	case errors.Is(err, ErrAmountMismatch):
		response.Error(c, http.StatusBadRequest, "AMOUNT_MISMATCH", err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Request failed")
	}
}
