package server

import (
	"github.com/OFFIS-RIT/kiwi-linker/internal/server/middleware"
	"github.com/OFFIS-RIT/kiwi-linker/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, app *middleware.App) {
	// Health check route
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	if app.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(app.Metrics.Handler()))
	}

	apiRoutes := e.Group("/api", middleware.AuthMiddleware)

	// Linking routes
	apiRoutes.POST("/link", routes.LinkMentionHandler, middleware.RequirePermission(middleware.PermissionLink))
	apiRoutes.POST("/annotate", routes.AnnotateHandler, middleware.RequirePermission(middleware.PermissionAnnotate))
	apiRoutes.POST("/clusters", routes.ClustersHandler, middleware.RequirePermission(middleware.PermissionAnnotate))

	// Type routes
	apiRoutes.GET("/entities/types", routes.GetEntityTypesHandler, middleware.RequirePermission(middleware.PermissionLink))
	apiRoutes.GET("/entities/deepest-type", routes.GetDeepestTypeHandler, middleware.RequirePermission(middleware.PermissionLink))
}
