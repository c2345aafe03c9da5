package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"satshop/internal/errors"
	"satshop/internal/model"
	"satshop/internal/service"
)

// SettingsHandler bundles company settings endpoints.
type SettingsHandler struct {
	svc service.SettingsService
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(svc service.SettingsService) *SettingsHandler {
	return &SettingsHandler{svc: svc}
}

// SettingsRequest represents the editable company settings.
type SettingsRequest struct {
	CompanyName   string `json:"company_name" validate:"max=120"`
	Address       string `json:"address" validate:"max=200"`
	Phone         string `json:"phone" validate:"max=50"`
	Email         string `json:"email" validate:"omitempty,email"`
	LogoFilename  string `json:"logo_filename" validate:"max=200"`
	WarrantyTerms string `json:"warranty_terms"`
}

// GetSettings godoc
// @Summary Get company settings
// @Tags settings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.Settings
// @Failure 403 {object} errors.ErrorResponse
// @Router /settings [get]
func (h *SettingsHandler) GetSettings(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}

	settings, err := h.svc.GetSettings(c.Request().Context(), actor)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, settings)
}

// UpdateSettings godoc
// @Summary Update company settings
// @Tags settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SettingsRequest true "Settings payload"
// @Success 200 {object} model.Settings
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /settings [put]
func (h *SettingsHandler) UpdateSettings(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}

	var req SettingsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	settings, err := h.svc.UpdateSettings(c.Request().Context(), actor, &model.Settings{
		CompanyName:   req.CompanyName,
		Address:       req.Address,
		Phone:         req.Phone,
		Email:         req.Email,
		LogoFilename:  req.LogoFilename,
		WarrantyTerms: req.WarrantyTerms,
	})
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, settings)
}
