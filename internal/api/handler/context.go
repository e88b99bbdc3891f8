package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nhonest/supermarket-web/internal/api/middleware"
	"github.com/nhonest/supermarket-web/internal/core/ports"
)

// ctxClaims extracts the auth claims injected by the Auth middleware and
// fails fast before any service call when they are absent or carry no
// subject.
func ctxClaims(c echo.Context) (*ports.Claims, error) {
	claims := middleware.ClaimsFrom(c)
	if claims == nil || claims.Role == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	if claims.UserID == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "token missing user identity")
	}
	return claims, nil
}

// ctxViewer builds the ownership/permission view of the caller.
func ctxViewer(c echo.Context) (ports.Viewer, error) {
	claims, err := ctxClaims(c)
	if err != nil {
		return ports.Viewer{}, err
	}
	return ports.Viewer{UserID: claims.UserID, Principal: claims.Principal()}, nil
}

// bindAndValidate decodes the request body into req and runs the echo
// validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
