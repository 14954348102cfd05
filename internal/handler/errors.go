package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"dataridge/internal/auth"
	apperrors "dataridge/internal/errors"
)

// ErrorHandler renders every error returned by a handler as an ErrorResponse.
// Internal causes are logged and never sent to the client.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			_ = c.JSON(he.Code, apperrors.ErrorResponse{
				Error: fmt.Sprint(he.Message),
				Code:  statusCode(he.Code),
			})
			return
		}

		appErr := apperrors.MapErrorToHTTP(err)
		if appErr.Kind == apperrors.KindInternal {
			log.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Error(errors.Unwrap(appErr)),
			)
		}
		_ = c.JSON(appErr.StatusCode, appErr.ToErrorResponse())
	}
}

// statusCode derives a machine-readable code from an HTTP status, e.g. 404 -> NOT_FOUND.
func statusCode(status int) string {
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}

// bindAndValidate decodes the request body into req and runs struct validation.
func bindAndValidate(c echo.Context, req interface{}, invalidMsg string) error {
	if err := c.Bind(req); err != nil {
		return apperrors.Validation("invalid request body")
	}
	if err := c.Validate(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if invalidMsg == "" && errors.As(err, &fieldErrs) {
			return apperrors.Validation(describe(fieldErrs))
		}
		if invalidMsg == "" {
			return apperrors.Validation(err.Error())
		}
		return apperrors.Validation(invalidMsg)
	}
	return nil
}

func describe(errs validator.ValidationErrors) string {
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fe.Field()+" is required")
		case "email":
			parts = append(parts, fe.Field()+" must be a valid email")
		case "max":
			parts = append(parts, fe.Field()+" must be at most "+fe.Param()+" characters")
		default:
			parts = append(parts, fe.Field()+" is invalid")
		}
	}
	return strings.Join(parts, "; ")
}

// requesterID returns the user id of the authenticated caller.
func requesterID(c echo.Context) (uuid.UUID, error) {
	claims, ok := c.Get(auth.ContextKey).(*auth.AccessClaims)
	if !ok || claims == nil {
		return uuid.Nil, apperrors.Authentication("Missing or invalid access token.")
	}
	return claims.UserID, nil
}

func pathID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperrors.Validation("invalid company ID")
	}
	return id, nil
}
