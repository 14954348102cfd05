package auth

import (
	"errors"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	apperrors "dataridge/internal/errors"
)

// ContextKey is the echo context key holding *AccessClaims for authenticated requests.
const ContextKey = "user"

// BearerMiddleware requires a valid access token in the Authorization header.
func BearerMiddleware(issuer *TokenIssuer) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  ContextKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			claims, err := issuer.ParseAccessToken(token)
			if err != nil {
				return nil, err
			}
			return claims, nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			var appErr *apperrors.AppError
			if errors.As(err, &appErr) {
				return appErr
			}
			return apperrors.Authentication("Missing or malformed access token.")
		},
	})
}
