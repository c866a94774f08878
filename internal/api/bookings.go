package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/satriahrh/teletale/domain/entities"
)

type bookingHandler struct {
	documentHandler
}

// list narrows to one customer's bookings when ?email= is given
func (h *bookingHandler) list(c echo.Context) error {
	var filter entities.Filter
	if email := c.QueryParam("email"); email != "" {
		filter = entities.Filter{"email": email}
	}
	return h.listWhere(c, filter)
}

// updateStatus stores newData under data, creating the booking when the id is unknown
func (h *bookingHandler) updateStatus(c echo.Context) error {
	id, err := entities.ParseID(c.Param("id"))
	if err != nil {
		return err
	}

	var req BookingStatusRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	result, err := h.repo.UpdateOne(c.Request().Context(), entities.ByID(id),
		entities.Document{"data": req.NewData}, true)
	if err != nil {
		return fmt.Errorf("update booking %s: %w", id.Hex(), err)
	}
	return c.JSON(http.StatusOK, result)
}
