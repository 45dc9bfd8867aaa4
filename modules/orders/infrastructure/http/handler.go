// Package http provides HTTP handlers for the orders module.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rai/storefront-modularmonolith-go/internal/platform/httpserver"
	"github.com/rai/storefront-modularmonolith-go/modules/orders/application/commands"
	"github.com/rai/storefront-modularmonolith-go/modules/orders/application/queries"
	"github.com/rai/storefront-modularmonolith-go/modules/orders/domain"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

type Handler struct {
	checkout     *commands.CheckoutHandler
	cancelOrder  *commands.CancelOrderHandler
	updateStatus *commands.UpdateStatusHandler
	getOrder     *queries.GetOrderHandler
	listOrders   *queries.ListUserOrdersHandler
	countOrders  *queries.CountUserOrdersHandler
	listAll      *queries.ListAllOrdersHandler
}

// RegisterRoutes registers the orders module routes to the given mux.
// Admin routes are guarded by adminToken.
func RegisterRoutes(
	mux *http.ServeMux,
	adminToken string,
	checkout *commands.CheckoutHandler,
	cancelOrder *commands.CancelOrderHandler,
	updateStatus *commands.UpdateStatusHandler,
	getOrder *queries.GetOrderHandler,
	listOrders *queries.ListUserOrdersHandler,
	countOrders *queries.CountUserOrdersHandler,
	listAll *queries.ListAllOrdersHandler,
) {
	h := &Handler{
		checkout:     checkout,
		cancelOrder:  cancelOrder,
		updateStatus: updateStatus,
		getOrder:     getOrder,
		listOrders:   listOrders,
		countOrders:  countOrders,
		listAll:      listAll,
	}

	mux.HandleFunc("POST /orders", h.handleCheckout)
	mux.HandleFunc("GET /orders", h.handleListUserOrders)
	mux.HandleFunc("GET /orders/count", h.handleCountUserOrders)
	mux.HandleFunc("GET /orders/{number}", h.handleGetOrder)
	mux.HandleFunc("POST /orders/{number}/cancel", h.handleCancelOrder)

	mux.Handle("GET /admin/orders", httpserver.RequireAdmin(adminToken, http.HandlerFunc(h.handleListAllOrders)))
	mux.Handle("PUT /admin/orders/{id}/status", httpserver.RequireAdmin(adminToken, http.HandlerFunc(h.handleUpdateStatus)))
}

// Request/Response DTOs

type checkoutRequest struct {
	ShippingAddress string `json:"shipping_address"`
	PaymentMethod   string `json:"payment_method"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type countResponse struct {
	Count int `json:"count"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handlers

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.checkout.Handle(r.Context(), commands.CheckoutCommand{
		UserID:          userID,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	order, err := h.getOrder.Handle(r.Context(), queries.GetOrderQuery{UserID: userID, OrderNumber: r.PathValue("number")})
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	cmd := commands.CancelOrderCommand{UserID: userID, OrderNumber: r.PathValue("number")}
	if err := h.cancelOrder.Handle(r.Context(), cmd); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListUserOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	result, err := h.listOrders.Handle(r.Context(), queries.ListUserOrdersQuery{
		UserID: userID,
		Offset: offset,
		Limit:  limit,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleCountUserOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	n, err := h.countOrders.Handle(r.Context(), queries.CountUserOrdersQuery{UserID: userID})
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, countResponse{Count: n})
}

func (h *Handler) handleListAllOrders(w http.ResponseWriter, r *http.Request) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	result, err := h.listAll.Handle(r.Context(), queries.ListAllOrdersQuery{
		Status: r.URL.Query().Get("status"),
		Offset: offset,
		Limit:  limit,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cmd := commands.UpdateStatusCommand{OrderID: r.PathValue("id"), Status: req.Status}
	if err := h.updateStatus.Handle(r.Context(), cmd); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Helper functions

func requireUser(w http.ResponseWriter, r *http.Request) (types.UserID, bool) {
	userID, ok := httpserver.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing or invalid "+httpserver.UserIDHeader+" header")
	}
	return userID, ok
}

func handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, types.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, types.ErrNotOwner):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, types.ErrInvalidID),
		errors.Is(err, types.ErrInvalidQuantity),
		errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, types.ErrProductUnavailable),
		errors.Is(err, types.ErrInsufficientStock),
		errors.Is(err, domain.ErrNotCancellable),
		errors.Is(err, domain.ErrInvalidStatusTransition):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
