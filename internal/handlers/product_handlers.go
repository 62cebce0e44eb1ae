package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopmate/shopmate/internal/models"
	"github.com/shopmate/shopmate/internal/repository"
	"github.com/shopmate/shopmate/internal/service"
	"github.com/sirupsen/logrus"
)

// Catalog is the product-facing surface of the catalog service.
type Catalog interface {
	Create(ctx context.Context, input service.CreateProductInput, files []service.ImageUpload) (*models.Product, error)
	List(ctx context.Context, query service.ListQuery) (*service.Listing, error)
	Get(ctx context.Context, id string) (*models.Product, []models.Product, error)
	Update(ctx context.Context, id string, input service.UpdateProductInput) (*models.Product, error)
	ReplaceImages(ctx context.Context, id string, files []service.ImageUpload) (*models.Product, error)
}

type ProductHandlers struct {
	catalog Catalog
	logger  *logrus.Logger
}

func NewProductHandlers(catalog Catalog, logger *logrus.Logger) *ProductHandlers {
	return &ProductHandlers{
		catalog: catalog,
		logger:  logger,
	}
}

type ProductResponse struct {
	Message string          `json:"message"`
	Product *models.Product `json:"product"`
}

type ProductDetailResponse struct {
	Product        *models.Product  `json:"product"`
	RelatedProduct []models.Product `json:"related_product"`
}

// Create adds a product with its images. Admin only (gated in
// middleware); multipart form with fields title/about/category/price/
// stock plus at least one file.
// POST /api/product/new
func (h *ProductHandlers) Create(w http.ResponseWriter, r *http.Request) {
	files, err := collectImages(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_UPLOAD", err.Error())
		return
	}
	if len(files) == 0 {
		respondWithError(w, http.StatusBadRequest, "NO_FILES", "no files to upload")
		return
	}

	input, err := parseProductForm(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	product, err := h.catalog.Create(r.Context(), input, files)
	if err != nil {
		h.logger.WithError(err).Error("Failed to create product")
		respondWithError(w, http.StatusInternalServerError, "PRODUCT_CREATE_FAILED", "Failed to create product")
		return
	}

	respondWithJSON(w, http.StatusCreated, ProductResponse{
		Message: "Product created",
		Product: product,
	})
}

// List is the public catalog listing with search, category filter,
// price sort and pagination.
// GET /api/product/all
func (h *ProductHandlers) List(w http.ResponseWriter, r *http.Request) {
	query := service.ListQuery{
		Search:      r.URL.Query().Get("search"),
		Category:    r.URL.Query().Get("category"),
		SortByPrice: r.URL.Query().Get("sortByPrice"),
	}
	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		query.Page = page
	}

	listing, err := h.catalog.List(r.Context(), query)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list products")
		respondWithError(w, http.StatusInternalServerError, "PRODUCT_LIST_FAILED", "Failed to list products")
		return
	}

	respondWithJSON(w, http.StatusOK, listing)
}

// Get returns a single product plus related products from the same
// category.
// GET /api/product/{id}
func (h *ProductHandlers) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	product, related, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			respondWithError(w, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found")
			return
		}
		h.logger.WithError(err).Error("Failed to get product")
		respondWithError(w, http.StatusInternalServerError, "PRODUCT_GET_FAILED", "Failed to get product")
		return
	}

	respondWithJSON(w, http.StatusOK, ProductDetailResponse{
		Product:        product,
		RelatedProduct: related,
	})
}

type UpdateProductRequest struct {
	Title    *string  `json:"title"`
	About    *string  `json:"about"`
	Category *string  `json:"category"`
	Price    *float64 `json:"price"`
	Stock    *int     `json:"stock"`
}

// Update applies a partial product update. Admin only.
// PUT /api/product/{id}
func (h *ProductHandlers) Update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	product, err := h.catalog.Update(r.Context(), id, service.UpdateProductInput{
		Title:    req.Title,
		About:    req.About,
		Category: req.Category,
		Price:    req.Price,
		Stock:    req.Stock,
	})
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			respondWithError(w, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found")
			return
		}
		h.logger.WithError(err).Error("Failed to update product")
		respondWithError(w, http.StatusInternalServerError, "PRODUCT_UPDATE_FAILED", "Failed to update product")
		return
	}

	respondWithJSON(w, http.StatusOK, ProductResponse{
		Message: "Product updated",
		Product: product,
	})
}

// ReplaceImages swaps the product's image set for the uploaded files.
// Admin only.
// POST /api/product/{id}
func (h *ProductHandlers) ReplaceImages(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	files, err := collectImages(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "INVALID_UPLOAD", err.Error())
		return
	}
	if len(files) == 0 {
		respondWithError(w, http.StatusBadRequest, "NO_FILES", "no files to upload")
		return
	}

	product, err := h.catalog.ReplaceImages(r.Context(), id, files)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			respondWithError(w, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found")
			return
		}
		h.logger.WithError(err).Error("Failed to replace product images")
		respondWithError(w, http.StatusInternalServerError, "PRODUCT_IMAGE_UPDATE_FAILED", "Failed to update images")
		return
	}

	respondWithJSON(w, http.StatusOK, ProductResponse{
		Message: "Image updated",
		Product: product,
	})
}

func parseProductForm(r *http.Request) (service.CreateProductInput, error) {
	input := service.CreateProductInput{
		Title:    r.FormValue("title"),
		About:    r.FormValue("about"),
		Category: r.FormValue("category"),
	}

	if input.Title == "" || input.About == "" || input.Category == "" {
		return input, errors.New("title, about and category are required")
	}

	price, err := strconv.ParseFloat(r.FormValue("price"), 64)
	if err != nil || price < 0 {
		return input, errors.New("price must be a non-negative number")
	}
	input.Price = price

	stock, err := strconv.Atoi(r.FormValue("stock"))
	if err != nil || stock < 0 {
		return input, errors.New("stock must be a non-negative integer")
	}
	input.Stock = stock

	return input, nil
}
