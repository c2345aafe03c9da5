package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"satshop/internal/errors"
	"satshop/internal/model"
	"satshop/internal/service"
)

// OrderHandler bundles repair order endpoints.
type OrderHandler struct {
	svc service.OrderService
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(svc service.OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// OrderRequest represents an order create/update payload.
type OrderRequest struct {
	ClientID      uint   `json:"client_id" validate:"required"`
	Brand         string `json:"brand" validate:"required,max=80"`
	Model         string `json:"model" validate:"required,max=120"`
	IMEI          string `json:"imei" validate:"max=40"`
	Accessories   string `json:"accessories" validate:"max=200"`
	UnlockCode    string `json:"unlock_code" validate:"max=120"`
	ReportedIssue string `json:"reported_issue" validate:"required"`
	Diagnosis     string `json:"diagnosis"`
	EstimatedCost string `json:"estimated_cost"`
	Deposit       string `json:"deposit"`
}

// ChangeStatusRequest moves an order through the workflow.
type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required"`
	Note   string `json:"note"`
}

// PartRequest represents an internal part line.
type PartRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Cost     string `json:"cost" validate:"required"`
	Quantity int    `json:"quantity"`
}

// ShareLinkResponse carries the WhatsApp share URL for an order.
type ShareLinkResponse struct {
	ShareURL string `json:"share_url"`
}

func (r *OrderRequest) toInput() (service.OrderInput, error) {
	input := service.OrderInput{
		ClientID:      r.ClientID,
		Brand:         r.Brand,
		Model:         r.Model,
		IMEI:          r.IMEI,
		Accessories:   r.Accessories,
		UnlockCode:    r.UnlockCode,
		ReportedIssue: r.ReportedIssue,
		Diagnosis:     r.Diagnosis,
		EstimatedCost: decimal.Zero,
		Deposit:       decimal.Zero,
	}
	if r.EstimatedCost != "" {
		v, err := decimal.NewFromString(r.EstimatedCost)
		if err != nil {
			return input, err
		}
		input.EstimatedCost = v
	}
	if r.Deposit != "" {
		v, err := decimal.NewFromString(r.Deposit)
		if err != nil {
			return input, err
		}
		input.Deposit = v
	}
	return input, nil
}

// CreateOrder godoc
// @Summary Create a repair order
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body OrderRequest true "Order payload"
// @Success 201 {object} model.Order
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /orders [post]
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}

	var req OrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	input, err := req.toInput()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid amount",
			Code:  "INVALID_AMOUNT",
		})
	}

	order, err := h.svc.CreateOrder(c.Request().Context(), actor, input)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusCreated, order)
}

// UpdateOrder godoc
// @Summary Update a repair order
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param request body OrderRequest true "Order payload"
// @Success 200 {object} model.Order
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /orders/{id} [put]
func (h *OrderHandler) UpdateOrder(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req OrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	input, err := req.toInput()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid amount",
			Code:  "INVALID_AMOUNT",
		})
	}

	order, err := h.svc.UpdateOrder(c.Request().Context(), uint(id), input)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, order)
}

// GetOrder godoc
// @Summary Get an order with client and history; parts only for technician/admin
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} model.Order
// @Failure 404 {object} errors.ErrorResponse
// @Router /orders/{id} [get]
func (h *OrderHandler) GetOrder(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	order, err := h.svc.GetOrder(c.Request().Context(), actor, uint(id))
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, order)
}

// ListOrders godoc
// @Summary List orders, optionally filtered by text query and status
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param q query string false "Search text"
// @Param status query string false "Workflow status"
// @Success 200 {array} model.Order
// @Failure 400 {object} errors.ErrorResponse
// @Router /orders [get]
func (h *OrderHandler) ListOrders(c echo.Context) error {
	orders, err := h.svc.ListOrders(c.Request().Context(), c.QueryParam("q"), model.OrderStatus(c.QueryParam("status")))
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, orders)
}

// ChangeStatus godoc
// @Summary Change order status
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param request body ChangeStatusRequest true "New status and note"
// @Success 200 {object} model.Order
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /orders/{id}/status [post]
func (h *OrderHandler) ChangeStatus(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req ChangeStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	order, err := h.svc.ChangeStatus(c.Request().Context(), actor, uint(id), model.OrderStatus(req.Status), req.Note)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, order)
}

// ListParts godoc
// @Summary List internal parts of an order (technician/admin only)
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {array} model.Part
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /orders/{id}/parts [get]
func (h *OrderHandler) ListParts(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	parts, err := h.svc.Parts(c.Request().Context(), actor, uint(id))
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, parts)
}

// AddPart godoc
// @Summary Add an internal part to an order
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param request body PartRequest true "Part payload"
// @Success 201 {object} model.Part
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /orders/{id}/parts [post]
func (h *OrderHandler) AddPart(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req PartRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	cost, err := decimal.NewFromString(req.Cost)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid amount",
			Code:  "INVALID_AMOUNT",
		})
	}

	part, err := h.svc.AddPart(c.Request().Context(), actor, uint(id), req.Name, cost, req.Quantity)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusCreated, part)
}

// RemovePart godoc
// @Summary Remove an internal part from an order
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param partID path int true "Part ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /orders/{id}/parts/{partID} [delete]
func (h *OrderHandler) RemovePart(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	partID, err := strconv.Atoi(c.Param("partID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid part id")
	}

	if err := h.svc.RemovePart(c.Request().Context(), actor, uint(id), uint(partID)); err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "part removed"})
}

// ShareLink godoc
// @Summary Get the WhatsApp share link for an order
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} ShareLinkResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /orders/{id}/share [get]
func (h *OrderHandler) ShareLink(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	link, err := h.svc.ShareLink(c.Request().Context(), uint(id))
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, ShareLinkResponse{ShareURL: link})
}

// PublicOrder godoc
// @Summary Public order tracking by token
// @Tags public
// @Produce json
// @Param token path string true "Tracking token"
// @Success 200 {object} service.PublicOrderView
// @Failure 404 {object} errors.ErrorResponse
// @Router /t/{token} [get]
func (h *OrderHandler) PublicOrder(c echo.Context) error {
	view, err := h.svc.PublicOrder(c.Request().Context(), c.Param("token"))
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, view)
}
