package routes

import (
	"net/http"
	"time"

	"github.com/OFFIS-RIT/kiwi-linker/internal/server/middleware"
	"github.com/OFFIS-RIT/kiwi-linker/pkg/logger"

	"github.com/labstack/echo/v4"
)

// LinkMentionHandler resolves a single mention to its entity.
func LinkMentionHandler(c echo.Context) error {
	type linkBody struct {
		Mention string `json:"mention" validate:"required"`
	}

	type linkResponse struct {
		Message string `json:"message,omitempty"`
		Mention string `json:"mention,omitempty"`
		Entity  string `json:"entity,omitempty"`
		Found   bool   `json:"found"`
	}

	data := new(linkBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, linkResponse{
			Message: "Invalid request body",
		})
	}

	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, linkResponse{
			Message: "Invalid request body",
		})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	start := time.Now()
	entity, found, err := app.Linker.LinkMention(ctx, data.Mention)
	app.Metrics.Observe("link", start, found, err)
	if err != nil {
		logger.Error("[Routes][LinkMention] Lookup failed", "mention", data.Mention, "err", err)
		return c.JSON(http.StatusInternalServerError, linkResponse{
			Message: "Internal server error",
		})
	}

	return c.JSON(http.StatusOK, linkResponse{
		Mention: data.Mention,
		Entity:  entity,
		Found:   found,
	})
}
