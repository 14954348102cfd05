package router

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"dataridge/internal/auth"
	"dataridge/internal/handler"
	"dataridge/internal/logger"
	"dataridge/internal/metrics"
)

// Deps bundles what Register needs to build the HTTP surface.
type Deps struct {
	Log            *zap.Logger
	Metrics        *metrics.Metrics
	Tokens         *auth.TokenIssuer
	AuthHandler    *handler.AuthHandler
	CompanyHandler *handler.CompanyHandler
	// Health reports readiness; nil means always healthy.
	Health func(c echo.Context) error
}

// Register wires routes and middleware.
func Register(e *echo.Echo, d Deps) {
	e.HideBanner = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = handler.ErrorHandler(d.Log)

	e.Use(middleware.RequestID())
	e.Use(logger.RequestLogger(d.Log))
	// Metrics sits outside Recover so panics are counted as 500s.
	e.Use(d.Metrics.Middleware())
	e.Use(middleware.Recover())

	e.GET("/healthz", func(c echo.Context) error {
		if d.Health != nil {
			if err := d.Health(c); err != nil {
				return c.String(http.StatusServiceUnavailable, "degraded")
			}
		}
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	authGroup := e.Group("/auth")
	authGroup.POST("/register", d.AuthHandler.Register)
	authGroup.POST("/login", d.AuthHandler.Login)
	authGroup.POST("/logout", d.AuthHandler.Logout)

	// Only this path ever receives the refresh cookie.
	e.POST(auth.RefreshCookiePath, d.AuthHandler.Refresh)

	companies := e.Group("/companies", auth.BearerMiddleware(d.Tokens))
	companies.POST("", d.CompanyHandler.CreateCompany)
	companies.GET("", d.CompanyHandler.ListCompanies)
	companies.GET("/:id", d.CompanyHandler.GetCompany)
	companies.PATCH("/:id", d.CompanyHandler.UpdateCompany)
	companies.DELETE("/:id", d.CompanyHandler.DeleteCompany)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
