package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"satshop/internal/errors"
	"satshop/internal/model"
	"satshop/internal/repository"
	"satshop/internal/service"
)

// CashHandler bundles cash ledger endpoints.
type CashHandler struct {
	ledger service.LedgerService
}

// NewCashHandler creates a new cash handler.
func NewCashHandler(ledger service.LedgerService) *CashHandler {
	return &CashHandler{ledger: ledger}
}

// RecordEntryRequest represents a cash movement to record.
type RecordEntryRequest struct {
	Kind        string `json:"kind" validate:"required,oneof=inflow outflow"`
	Amount      string `json:"amount" validate:"required"`
	Description string `json:"description" validate:"required,max=200"`
	OrderID     *uint  `json:"order_id,omitempty"`
}

// BalanceResponse represents a ledger balance.
type BalanceResponse struct {
	Balance  string  `json:"balance"`
	Sequence *uint64 `json:"sequence,omitempty"`
}

// RecordEntry godoc
// @Summary Record a cash movement
// @Tags cash
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body RecordEntryRequest true "Entry data"
// @Success 201 {object} model.CashEntry
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /cash [post]
func (h *CashHandler) RecordEntry(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}

	var req RecordEntryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid amount",
			Code:  "INVALID_AMOUNT",
		})
	}

	entry, err := h.ledger.RecordEntry(c.Request().Context(), actor, model.EntryKind(req.Kind), amount, req.Description, req.OrderID)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusCreated, entry)
}

// ListEntries godoc
// @Summary List ledger entries in insertion order
// @Tags cash
// @Produce json
// @Security BearerAuth
// @Param from query string false "From date (RFC 3339)"
// @Param to query string false "To date (RFC 3339)"
// @Param order_id query int false "Filter by order reference"
// @Success 200 {array} model.CashEntry
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /cash [get]
func (h *CashHandler) ListEntries(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}

	var filter repository.EntryFilter
	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid from date")
		}
		filter.From = &t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid to date")
		}
		filter.To = &t
	}
	if v := c.QueryParam("order_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid order_id")
		}
		orderID := uint(id)
		filter.OrderID = &orderID
	}

	entries, err := h.ledger.ListEntries(c.Request().Context(), actor, filter)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, entries)
}

// CurrentBalance godoc
// @Summary Get the current ledger balance
// @Tags cash
// @Produce json
// @Security BearerAuth
// @Success 200 {object} BalanceResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /cash/balance [get]
func (h *CashHandler) CurrentBalance(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}

	balance, err := h.ledger.CurrentBalance(c.Request().Context(), actor)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}

	resp := BalanceResponse{Balance: balance.StringFixed(2)}
	if seq, err := h.ledger.LatestSequence(c.Request().Context()); err == nil && seq > 0 {
		resp.Sequence = &seq
	}
	return c.JSON(http.StatusOK, resp)
}

// BalanceAsOf godoc
// @Summary Get the balance as of a sequence number
// @Tags cash
// @Produce json
// @Security BearerAuth
// @Param sequence path int true "Sequence number"
// @Success 200 {object} BalanceResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /cash/balance/{sequence} [get]
func (h *CashHandler) BalanceAsOf(c echo.Context) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}

	seq, err := strconv.ParseUint(c.Param("sequence"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid sequence")
	}

	balance, err := h.ledger.BalanceAsOf(c.Request().Context(), actor, seq)
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, BalanceResponse{Balance: balance.StringFixed(2), Sequence: &seq})
}
