package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gatesweb/emlak-directory/internal/auth"
	"github.com/gatesweb/emlak-directory/internal/config"
	"github.com/gatesweb/emlak-directory/internal/handler"
	middlewarepkg "github.com/gatesweb/emlak-directory/internal/middleware"
)

// Handlers aggregates HTTP handlers used by the router.
type Handlers struct {
	Auth        *handler.AuthHandler
	Companies   *handler.CompaniesHandler
	AdminUpload *handler.AdminUploadHandler
	Pipeline    *handler.PipelineHandler
	Users       *handler.UsersHandler
}

// Register wires all HTTP routes for the API.
func Register(e *echo.Echo, cfg *config.Config, jwtManager *auth.JWTManager, handlers Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return handler.Success(c, http.StatusOK, "service healthy", map[string]any{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.POST("/auth/register", handlers.Auth.Register)
	e.POST("/auth/login", handlers.Auth.Login)

	e.GET("/companies", handlers.Companies.List)
	e.GET("/companies/export", handlers.Companies.Export)
	e.GET("/companies/stats", handlers.Companies.Stats)

	secured := e.Group("")
	secured.Use(middlewarepkg.JWT(jwtManager))

	admin := secured.Group("/admin", middlewarepkg.RequireRole("admin"))
	admin.POST("/generate", handlers.Pipeline.Generate)
	admin.POST("/enrich", handlers.Pipeline.Enrich)
	admin.POST("/verify", handlers.Pipeline.Verify, middlewarepkg.VerifyRateLimiter(cfg.RateLimitVerify))
	admin.POST("/expand", handlers.Pipeline.Expand)
	admin.POST("/upload-csv", handlers.AdminUpload.UploadCSV)
	admin.POST("/validate-csv", handlers.AdminUpload.ValidateCSV)

	admin.GET("/users", handlers.Users.List)
	admin.GET("/users/:id", handlers.Users.Get)
	admin.PUT("/users/:id", handlers.Users.Update)
	admin.DELETE("/users/:id", handlers.Users.Delete)
}
