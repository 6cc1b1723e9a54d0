package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/minhokang/car-sharing-reservation/internal/service"
)

// BrowseHandler exposes the unauthenticated read endpoints: available
// cars in a zone with price previews and a car's reserved windows.
// These routes sit behind the response cache and rate limiter.
type BrowseHandler struct {
	Browse *service.BrowseService
}

// NewBrowseHandler constructs a BrowseHandler.
func NewBrowseHandler(b *service.BrowseService) *BrowseHandler {
	if b == nil {
		panic("nil service passed to NewBrowseHandler")
	}
	return &BrowseHandler{Browse: b}
}

// AvailableCars handles GET /v1/carzones/:id/cars?from=&to=.  The from
// and to query parameters use the same yyyymmddHHMM wall-clock format
// as booking.
func (h *BrowseHandler) AvailableCars(c echo.Context) error {
	zoneID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid car zone id"})
	}
	rawFrom := c.QueryParam("from")
	rawTo := c.QueryParam("to")
	if rawFrom == "" || rawTo == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from and to query parameters are required"})
	}
	cars, err := h.Browse.ListAvailableCars(c.Request().Context(), zoneID, rawFrom, rawTo)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"cars": cars})
}

// CarTimeTable handles GET /v1/cars/:id/timetable.
func (h *BrowseHandler) CarTimeTable(c echo.Context) error {
	carID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid car id"})
	}
	windows, err := h.Browse.GetCarTimeTable(c.Request().Context(), carID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"windows": windows})
}
