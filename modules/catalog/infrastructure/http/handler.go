// Package http provides HTTP handlers for the catalog module.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rai/storefront-modularmonolith-go/internal/platform/httpserver"
	"github.com/rai/storefront-modularmonolith-go/modules/catalog/application/commands"
	"github.com/rai/storefront-modularmonolith-go/modules/catalog/application/queries"
	"github.com/rai/storefront-modularmonolith-go/modules/catalog/domain"
	"github.com/rai/storefront-modularmonolith-go/modules/shared/types"
)

type Handler struct {
	createProduct *commands.CreateProductHandler
	updateProduct *commands.UpdateProductHandler
	setStock      *commands.SetStockHandler
	getProduct    *queries.GetProductHandler
	listProducts  *queries.ListProductsHandler
	search        *queries.SearchProductsHandler
	categories    *queries.ListCategoriesHandler
}

func NewHandler(
	createProduct *commands.CreateProductHandler,
	updateProduct *commands.UpdateProductHandler,
	setStock *commands.SetStockHandler,
	getProduct *queries.GetProductHandler,
	listProducts *queries.ListProductsHandler,
	search *queries.SearchProductsHandler,
	categories *queries.ListCategoriesHandler,
) *Handler {
	return &Handler{
		createProduct: createProduct,
		updateProduct: updateProduct,
		setStock:      setStock,
		getProduct:    getProduct,
		listProducts:  listProducts,
		search:        search,
		categories:    categories,
	}
}

// RegisterRoutes registers the catalog routes. Admin routes are guarded by adminToken.
func (h *Handler) RegisterRoutes(mux *http.ServeMux, adminToken string) {
	mux.HandleFunc("GET /products", h.handleListProducts)
	mux.HandleFunc("GET /products/search", h.handleSearchProducts)
	mux.HandleFunc("GET /products/categories", h.handleListCategories)
	mux.HandleFunc("GET /products/{id}", h.handleGetProduct)

	admin := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, httpserver.RequireAdmin(adminToken, fn))
	}
	admin("GET /admin/products", h.handleAdminListProducts)
	admin("POST /admin/products", h.handleCreateProduct)
	admin("PUT /admin/products/{id}", h.handleUpdateProduct)
	admin("PUT /admin/products/{id}/stock", h.handleSetStock)
}

type productRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Price       string `json:"price"`
	Stock       int    `json:"stock"`
	Active      *bool  `json:"active"`
}

type setStockRequest struct {
	Stock int `json:"stock"`
}

type createProductResponse struct {
	ID string `json:"id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.getProduct.Handle(r.Context(), queries.GetProductQuery{ProductID: r.PathValue("id")})
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

func (h *Handler) handleAdminListProducts(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, includeInactive bool) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	result, err := h.listProducts.Handle(r.Context(), queries.ListProductsQuery{
		Category:        r.URL.Query().Get("category"),
		MinPrice:        r.URL.Query().Get("min_price"),
		MaxPrice:        r.URL.Query().Get("max_price"),
		IncludeInactive: includeInactive,
		Offset:          offset,
		Limit:           limit,
	})
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleSearchProducts(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	result, err := h.search.Handle(r.Context(), queries.SearchProductsQuery{
		Text:  r.URL.Query().Get("q"),
		Limit: limit,
	})
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.Handle(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"categories": categories})
}

func (h *Handler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := h.createProduct.Handle(r.Context(), commands.CreateProductCommand{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		Stock:       req.Stock,
	})
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createProductResponse{ID: id})
}

func (h *Handler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	err := h.updateProduct.Handle(r.Context(), commands.UpdateProductCommand{
		ProductID:   r.PathValue("id"),
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		Active:      active,
	})
	if err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSetStock(w http.ResponseWriter, r *http.Request) {
	var req setStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.setStock.Handle(r.Context(), commands.SetStockCommand{ProductID: r.PathValue("id"), Stock: req.Stock})
	if err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Helper functions

func handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, types.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, types.ErrInvalidID),
		errors.Is(err, domain.ErrEmptyName),
		errors.Is(err, domain.ErrInvalidPrice),
		errors.Is(err, domain.ErrNegativeStock),
		errors.Is(err, domain.ErrEmptySearch),
		errors.Is(err, domain.ErrInvalidPriceRange):
		writeError(w, http.StatusBadRequest, err.Error())
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
