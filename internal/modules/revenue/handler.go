package revenue

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

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
	host := rg.Group("/")
	host.Use(middleware.HostOrAdmin())
	{
		host.GET("/hotels/:id/revenue", h.HotelSummary)
	}

	admin := rg.Group("/")
	admin.Use(middleware.AdminOnly())
	{
		admin.POST("/hotels/:id/revenue/recalculate", h.Recalculate)
	}
}

func (h *Handler) HotelSummary(c *gin.Context) {
	hotelID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid id")
		return
	}
	out, err := h.service.HotelSummary(c.Request.Context(), hotelID, c.GetInt64("user_id"), c.GetString("role"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

// Recalculate rebuilds the accumulator. use_frozen_rate=true reproduces the
// incremental path; the default reprices history at the current rate.
func (h *Handler) Recalculate(c *gin.Context) {
	hotelID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid id")
		return
	}
	useFrozen := c.Query("use_frozen_rate") == "true"
	out, err := h.service.RecalculateHotelRevenue(c.Request.Context(), hotelID, useFrozen)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, out)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Request failed")
	}
}
