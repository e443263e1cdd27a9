package middleware

import (
	"github.com/OFFIS-RIT/kiwi-linker/internal/metrics"
	"github.com/OFFIS-RIT/kiwi-linker/pkg/annotate"
	"github.com/OFFIS-RIT/kiwi-linker/pkg/linker"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type AppUser struct {
	Subject     string
	Role        string
	Permissions []string
	Master      bool
}

type App struct {
	Linker       *linker.Linker
	Annotator    *annotate.Annotator
	Metrics      *metrics.Metrics
	KeyFunc      jwt.Keyfunc
	MasterAPIKey string
}

// AuthEnabled reports whether /api requests need a bearer token.
func (a *App) AuthEnabled() bool {
	return a.KeyFunc != nil || a.MasterAPIKey != ""
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app, nil}
			return next(cc)
		}
	}
}
