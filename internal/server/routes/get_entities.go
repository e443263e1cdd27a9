package routes

import (
	"net/http"
	"time"

	"github.com/OFFIS-RIT/kiwi-linker/internal/server/middleware"
	"github.com/OFFIS-RIT/kiwi-linker/pkg/logger"

	"github.com/labstack/echo/v4"
)

type entityQuery struct {
	URI string `query:"uri" validate:"required"`
}

// GetEntityTypesHandler lists every type recorded for an entity.
func GetEntityTypesHandler(c echo.Context) error {
	type typesResponse struct {
		Message string   `json:"message,omitempty"`
		URI     string   `json:"uri,omitempty"`
		Types   []string `json:"types"`
		Found   bool     `json:"found"`
	}

	data := new(entityQuery)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, typesResponse{
			Message: "Invalid query",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, typesResponse{
			Message: "Invalid query",
		})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	start := time.Now()
	types, found, err := app.Linker.GetTypes(ctx, data.URI)
	app.Metrics.Observe("types", start, found, err)
	if err != nil {
		logger.Error("[Routes][GetEntityTypes] Lookup failed", "uri", data.URI, "err", err)
		return c.JSON(http.StatusInternalServerError, typesResponse{
			Message: "Internal server error",
		})
	}
	if types == nil {
		types = []string{}
	}

	return c.JSON(http.StatusOK, typesResponse{
		URI:   data.URI,
		Types: types,
		Found: found,
	})
}

// GetDeepestTypeHandler returns the most specific type of an entity.
func GetDeepestTypeHandler(c echo.Context) error {
	type deepestResponse struct {
		Message string `json:"message,omitempty"`
		URI     string `json:"uri,omitempty"`
		Type    string `json:"type,omitempty"`
		Found   bool   `json:"found"`
	}

	data := new(entityQuery)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, deepestResponse{
			Message: "Invalid query",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, deepestResponse{
			Message: "Invalid query",
		})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	start := time.Now()
	typ, found, err := app.Linker.GetDeepestType(ctx, data.URI)
	app.Metrics.Observe("deepest_type", start, found, err)
	if err != nil {
		logger.Error("[Routes][GetDeepestType] Lookup failed", "uri", data.URI, "err", err)
		return c.JSON(http.StatusInternalServerError, deepestResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, deepestResponse{
		URI:   data.URI,
		Type:  typ,
		Found: found,
	})
}
