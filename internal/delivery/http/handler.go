// Package http exposes the storefront over a JSON API.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/aminasaas/storefront-backend/internal/checkout"
	"github.com/aminasaas/storefront-backend/internal/entity"
	"github.com/aminasaas/storefront-backend/internal/imaging"
	"github.com/aminasaas/storefront-backend/internal/seed"
	"github.com/aminasaas/storefront-backend/internal/shop"
)

const maxImageUpload = 10 << 20 // 10 MiB

// Handler handles HTTP requests for the application.
type Handler struct {
	log       *zap.Logger
	shop      *shop.Facade
	images    imaging.Processor
	seedToken string
}

func NewHandler(log *zap.Logger, facade *shop.Facade, images imaging.Processor, seedToken string) *Handler {
	if seedToken == "" {
		seedToken = seed.DefaultToken
	}
	return &Handler{
		log:       log,
		shop:      facade,
		images:    images,
		seedToken: seedToken,
	}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.handleGetProducts)
	mux.HandleFunc("GET /api/products/{id}", h.handleGetProduct)
	mux.HandleFunc("POST /api/products/{id}/reviews", h.handleAddReview)
	mux.HandleFunc("GET /api/categories", h.handleGetCategories)
	mux.HandleFunc("GET /api/settings", h.handleGetSettings)
	mux.HandleFunc("GET /api/status", h.handleGetStatus)

	mux.HandleFunc("GET /api/cart", h.handleGetCart)
	mux.HandleFunc("POST /api/cart/items", h.handleAddCartItem)
	mux.HandleFunc("PUT /api/cart/items/{id}", h.handleSetCartItemQty)
	mux.HandleFunc("DELETE /api/cart/items/{id}", h.handleRemoveCartItem)

	mux.HandleFunc("POST /api/orders", h.handleCheckout)
	mux.HandleFunc("GET /api/orders", h.adminOnly(h.handleGetOrders))

	mux.HandleFunc("POST /api/admin/products", h.adminOnly(h.handleSaveProduct))
	mux.HandleFunc("PUT /api/admin/products/{id}", h.adminOnly(h.handleUpdateProduct))
	mux.HandleFunc("DELETE /api/admin/products/{id}", h.adminOnly(h.handleDeleteProduct))
	mux.HandleFunc("POST /api/admin/categories", h.adminOnly(h.handleSaveCategory))
	mux.HandleFunc("DELETE /api/admin/categories/{id}", h.adminOnly(h.handleDeleteCategory))
	mux.HandleFunc("PUT /api/admin/settings", h.adminOnly(h.handleUpdateSettings))
	mux.HandleFunc("POST /api/admin/images", h.adminOnly(h.handleUploadImage))

	mux.HandleFunc("POST /api/seed", h.handleSeed)
	mux.HandleFunc("POST /api/track/pageview", h.handleTrackPageView)
}

// adminOnly gates a handler behind the X-Admin-Token header.
func (h *Handler) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.shop.IsAdminToken(r.Header.Get("X-Admin-Token")) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (h *Handler) handleGetProducts(w http.ResponseWriter, r *http.Request) {
	products := h.shop.FilteredCatalog(r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, products)
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.shop.Product(r.PathValue("id"))
	if err != nil {
		http.Error(w, "product not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handleAddReview(w http.ResponseWriter, r *http.Request) {
	var review entity.Review
	if err := json.NewDecoder(r.Body).Decode(&review); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.shop.AddReview(r.Context(), r.PathValue("id"), review); err != nil {
		if errors.Is(err, shop.ErrProductNotFound) {
			http.Error(w, "product not found", http.StatusNotFound)
			return
		}
		h.log.Error("failed to add review", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) handleGetCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.shop.Categories())
}

func (h *Handler) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	// Shoppers get the public view; billing and the passcode stay behind.
	writeJSON(w, http.StatusOK, h.shop.Settings().Public())
}

func (h *Handler) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"available": h.shop.Available()})
}

type cartView struct {
	Lines []entity.CartLine `json:"lines"`
	Total string            `json:"total"`
}

func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, cartView{Lines: h.shop.CartLines(), Total: h.shop.CartTotal()})
}

type cartItemRequest struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

func (h *Handler) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.shop.AddToCart(req.ProductID, req.Qty); err != nil {
		switch {
		case errors.Is(err, shop.ErrProductNotFound):
			http.Error(w, "product not found", http.StatusNotFound)
		case errors.Is(err, shop.ErrCartDisabled):
			http.Error(w, "product cannot be added to cart", http.StatusConflict)
		default:
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, cartView{Lines: h.shop.CartLines(), Total: h.shop.CartTotal()})
}

func (h *Handler) handleSetCartItemQty(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Qty int `json:"qty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	h.shop.SetCartQuantity(r.PathValue("id"), req.Qty)
	writeJSON(w, http.StatusOK, cartView{Lines: h.shop.CartLines(), Total: h.shop.CartTotal()})
}

func (h *Handler) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	h.shop.RemoveFromCart(r.PathValue("id"))
	writeJSON(w, http.StatusOK, cartView{Lines: h.shop.CartLines(), Total: h.shop.CartTotal()})
}

type checkoutRequest struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	City      string `json:"city"`
	Mode      string `json:"mode"` // "cart" (default) or "direct"
	ProductID string `json:"product_id,omitempty"`
	Qty       int    `json:"qty,omitempty"`
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	contact := checkout.Contact{Name: req.Name, Phone: req.Phone, City: req.City}
	var (
		res *checkout.Result
		err error
	)
	if req.Mode == "direct" {
		res, err = h.shop.BuyNow(r.Context(), req.ProductID, req.Qty, contact)
	} else {
		res, err = h.shop.Checkout(r.Context(), contact)
	}
	if err != nil {
		var verr *checkout.ValidationError
		switch {
		case errors.As(err, &verr):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": verr.Error(), "field": verr.Field})
		case errors.Is(err, shop.ErrStoreUnavailable):
			http.Error(w, "store is not available", http.StatusForbidden)
		case errors.Is(err, shop.ErrProductNotFound):
			http.Error(w, "product not found", http.StatusNotFound)
		default:
			h.log.Error("checkout failed", zap.Error(err))
			http.Error(w, "failed to place order", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"order_id": res.OrderID,
		"status":   res.Status.String(),
		"total":    res.Order.Total,
	})
}

func (h *Handler) handleGetOrders(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	orders, err := h.shop.RecentOrders(r.Context(), limit)
	if err != nil {
		h.log.Error("failed to get orders", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) handleSaveProduct(w http.ResponseWriter, r *http.Request) {
	var p entity.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	saved, err := h.shop.SaveProduct(r.Context(), p)
	if err != nil {
		h.log.Error("failed to save product", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (h *Handler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var p entity.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	p.ID = r.PathValue("id")
	saved, err := h.shop.SaveProduct(r.Context(), p)
	if err != nil {
		h.log.Error("failed to update product", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *Handler) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.shop.DeleteProduct(r.Context(), r.PathValue("id")); err != nil {
		h.log.Error("failed to delete product", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSaveCategory(w http.ResponseWriter, r *http.Request) {
	var c entity.Category
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	saved, err := h.shop.SaveCategory(r.Context(), c)
	if err != nil {
		h.log.Error("failed to save category", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (h *Handler) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.shop.DeleteCategory(r.Context(), r.PathValue("id")); err != nil {
		h.log.Error("failed to delete category", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch entity.SettingsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	merged, err := h.shop.UpdateSettings(r.Context(), patch)
	if err != nil {
		h.log.Error("failed to update settings", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, merged)
}

func (h *Handler) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	if h.images == nil {
		http.Error(w, "image upload not configured", http.StatusNotImplemented)
		return
	}
	if err := r.ParseMultipartForm(maxImageUpload); err != nil {
		http.Error(w, "invalid multipart body", http.StatusBadRequest)
		return
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "missing image file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	img, err := h.images.Process(r.Context(), file)
	if err != nil {
		h.log.Error("image upload failed", zap.Error(err))
		http.Error(w, "upload failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"url": img.URL, "public_id": img.PublicID})
}

func (h *Handler) handleSeed(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-Seed-Token") != h.seedToken {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	products, err := h.shop.Seed(r.Context())
	if err != nil {
		h.log.Error("seed failed", zap.Error(err))
		http.Error(w, "failed to seed products", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"message":  "demo catalog loaded",
		"products": len(products),
	})
}

func (h *Handler) handleTrackPageView(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Page string `json:"page"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	h.shop.TrackPageView(r.Context(), req.Page)
	w.WriteHeader(http.StatusAccepted)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// EnableCORS allows browser storefronts on other origins to call the API.
func EnableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Admin-Token, X-Seed-Token")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
