package handler

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"satshop/internal/auth"
	"satshop/internal/model"
)

// actorFromContext rebuilds the acting user from the verified JWT claims.
// Services re-check the role against the policy, so a stale token can never
// grant more than the role it carries.
func actorFromContext(c echo.Context) (*model.User, error) {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}
	claims, ok := token.Claims.(*auth.Claims)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid token claims")
	}
	return &model.User{
		ID:       claims.UserID,
		Username: claims.Username,
		Role:     claims.Role,
		Active:   true,
	}, nil
}
