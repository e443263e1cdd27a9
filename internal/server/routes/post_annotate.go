package routes

import (
	"net/http"

	"github.com/OFFIS-RIT/kiwi-linker/internal/server/middleware"
	"github.com/OFFIS-RIT/kiwi-linker/pkg/annotate"
	"github.com/OFFIS-RIT/kiwi-linker/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AnnotateHandler links a batch of mentions and returns them in input order.
func AnnotateHandler(c echo.Context) error {
	type annotateBody struct {
		Mentions []annotate.Mention `json:"mentions" validate:"required,min=1,max=1000,dive"`
	}

	type annotateResponse struct {
		Message     string                `json:"message,omitempty"`
		Annotations []annotate.Annotation `json:"annotations,omitempty"`
	}

	data := new(annotateBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, annotateResponse{
			Message: "Invalid request body",
		})
	}

	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, annotateResponse{
			Message: "Invalid request body",
		})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	annotations, err := app.Annotator.Annotate(ctx, data.Mentions)
	if err != nil {
		logger.Error("[Routes][Annotate] Annotation failed", "mentions", len(data.Mentions), "err", err)
		return c.JSON(http.StatusInternalServerError, annotateResponse{
			Message: "Internal server error",
		})
	}
	app.Metrics.Annotated(len(annotations))

	return c.JSON(http.StatusOK, annotateResponse{
		Annotations: annotations,
	})
}
