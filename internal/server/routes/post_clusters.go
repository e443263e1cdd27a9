package routes

import (
	"net/http"

	"github.com/OFFIS-RIT/kiwi-linker/internal/server/middleware"
	"github.com/OFFIS-RIT/kiwi-linker/pkg/annotate"
	"github.com/OFFIS-RIT/kiwi-linker/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ClustersHandler links the mentions of one document and returns its
// coreference clusters split and merged on the link results.
func ClustersHandler(c echo.Context) error {
	type clustersBody struct {
		Mentions []annotate.ClusterMention `json:"mentions" validate:"required,min=1,max=1000,dive"`
	}

	type clustersResponse struct {
		Message  string             `json:"message,omitempty"`
		Clusters []annotate.Cluster `json:"clusters,omitempty"`
	}

	data := new(clustersBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, clustersResponse{
			Message: "Invalid request body",
		})
	}

	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, clustersResponse{
			Message: "Invalid request body",
		})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	clusters, err := app.Annotator.AnnotateClusters(ctx, data.Mentions)
	if err != nil {
		logger.Error("[Routes][Clusters] Regrouping failed", "mentions", len(data.Mentions), "err", err)
		return c.JSON(http.StatusInternalServerError, clustersResponse{
			Message: "Internal server error",
		})
	}
	app.Metrics.Annotated(len(data.Mentions))

	return c.JSON(http.StatusOK, clustersResponse{
		Clusters: clusters,
	})
}
