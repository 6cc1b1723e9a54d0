package handler // handler defines http handlers

import (
	"errors"  // errors provides sentinel comparisons for response mapping
	"net/http"
	"strconv" // strconv converts strings to numeric types

	"github.com/labstack/echo/v4"

	"github.com/minhokang/car-sharing-reservation/internal/apperrors"
	"github.com/minhokang/car-sharing-reservation/internal/repository"
)

// getMemberID extracts the user_id from echo.Context and converts it to uint64.
func getMemberID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

// fail renders a service error: taxonomy errors carry their own status
// and stable code, ownership violations become 403, everything else is
// a generic 500.
func fail(c echo.Context, err error) error {
	var ae *apperrors.Error
	if errors.As(err, &ae) {
		return c.JSON(ae.Status, echo.Map{"error": ae.Code, "message": ae.Message})
	}
	if errors.Is(err, repository.ErrForbidden) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
