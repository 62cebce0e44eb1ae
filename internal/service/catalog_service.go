package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopmate/shopmate/internal/models"
	"github.com/sirupsen/logrus"
)

// ErrNoImages is returned when a catalog write that requires images
// received none.
var ErrNoImages = errors.New("no images to upload")

const pageSize = 8

// ProductStore persists catalog records.
type ProductStore interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Save(ctx context.Context, product *models.Product) error
	List(ctx context.Context) ([]models.Product, error)
}

// MediaStore uploads and removes product images on the media host.
type MediaStore interface {
	Upload(ctx context.Context, filename, contentType string, body io.Reader) (models.ProductImage, error)
	Delete(ctx context.Context, key string) error
}

// ImageUpload is a single image file received from a client.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        io.Reader
}

type CreateProductInput struct {
	Title    string
	About    string
	Category string
	Price    float64
	Stock    int
}

// UpdateProductInput carries a partial update; nil fields are left
// untouched.
type UpdateProductInput struct {
	Title    *string
	About    *string
	Category *string
	Price    *float64
	Stock    *int
}

type ListQuery struct {
	Search      string
	Category    string
	SortByPrice string // "lowToHigh" or "highToLow"
	Page        int
}

type Listing struct {
	Products    []models.Product `json:"products"`
	Categories  []string         `json:"categories"`
	NewProducts []models.Product `json:"new_products"`
	TotalPages  int              `json:"total_pages"`
}

type CatalogService struct {
	products ProductStore
	media    MediaStore
	logger   *logrus.Logger
}

func NewCatalogService(products ProductStore, media MediaStore, logger *logrus.Logger) *CatalogService {
	return &CatalogService{
		products: products,
		media:    media,
		logger:   logger,
	}
}

func (s *CatalogService) Create(ctx context.Context, input CreateProductInput, files []ImageUpload) (*models.Product, error) {
	if len(files) == 0 {
		return nil, ErrNoImages
	}

	images, err := s.uploadAll(ctx, files)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		ID:        uuid.New().String(),
		Title:     input.Title,
		About:     input.About,
		Category:  input.Category,
		Price:     input.Price,
		Stock:     input.Stock,
		Images:    images,
		CreatedAt: time.Now(),
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}

	s.logger.WithField("product", product.ID).Info("Product created")
	return product, nil
}

// List applies search, category filter, price sort and pagination over
// the catalog. The response also carries the distinct categories, the
// four newest products and the page count.
func (s *CatalogService) List(ctx context.Context, query ListQuery) (*Listing, error) {
	all, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]models.Product, 0, len(all))
	search := strings.ToLower(query.Search)
	for _, p := range all {
		if search != "" && !strings.Contains(strings.ToLower(p.Title), search) {
			continue
		}
		if query.Category != "" && p.Category != query.Category {
			continue
		}
		filtered = append(filtered, p)
	}

	switch query.SortByPrice {
	case "lowToHigh":
		sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].Price < filtered[j].Price })
	case "highToLow":
		sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].Price > filtered[j].Price })
	default:
		sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].CreatedAt.After(filtered[j].CreatedAt) })
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + pageSize
	if end > len(filtered) {
		end = len(filtered)
	}

	byNewest := make([]models.Product, len(all))
	copy(byNewest, all)
	sort.SliceStable(byNewest, func(i, j int) bool { return byNewest[i].CreatedAt.After(byNewest[j].CreatedAt) })
	newest := byNewest
	if len(newest) > 4 {
		newest = newest[:4]
	}

	return &Listing{
		Products:    filtered[start:end],
		Categories:  distinctCategories(all),
		NewProducts: newest,
		TotalPages:  (len(all) + pageSize - 1) / pageSize,
	}, nil
}

// Get returns a product together with up to four related products from
// the same category.
func (s *CatalogService) Get(ctx context.Context, id string) (*models.Product, []models.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	all, err := s.products.List(ctx)
	if err != nil {
		return nil, nil, err
	}

	related := make([]models.Product, 0, 4)
	for _, p := range all {
		if p.Category == product.Category && p.ID != product.ID {
			related = append(related, p)
			if len(related) == 4 {
				break
			}
		}
	}

	return product, related, nil
}

func (s *CatalogService) Update(ctx context.Context, id string, input UpdateProductInput) (*models.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		product.Title = *input.Title
	}
	if input.About != nil {
		product.About = *input.About
	}
	if input.Category != nil {
		product.Category = *input.Category
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.Stock != nil {
		product.Stock = *input.Stock
	}

	if err := s.products.Save(ctx, product); err != nil {
		return nil, err
	}

	s.logger.WithField("product", product.ID).Info("Product updated")
	return product, nil
}

// ReplaceImages swaps the product's image set: old objects are removed
// from the media host, then the new files are uploaded.
func (s *CatalogService) ReplaceImages(ctx context.Context, id string, files []ImageUpload) (*models.Product, error) {
	if len(files) == 0 {
		return nil, ErrNoImages
	}

	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	for _, img := range product.Images {
		if img.Key == "" {
			continue
		}
		if err := s.media.Delete(ctx, img.Key); err != nil {
			s.logger.WithError(err).WithField("key", img.Key).Warn("Failed to delete old image")
		}
	}

	images, err := s.uploadAll(ctx, files)
	if err != nil {
		return nil, err
	}

	product.Images = images
	if err := s.products.Save(ctx, product); err != nil {
		return nil, err
	}

	s.logger.WithField("product", product.ID).Info("Product images replaced")
	return product, nil
}

func (s *CatalogService) uploadAll(ctx context.Context, files []ImageUpload) ([]models.ProductImage, error) {
	images := make([]models.ProductImage, 0, len(files))
	for _, f := range files {
		img, err := s.media.Upload(ctx, f.Filename, f.ContentType, f.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to upload image %s: %w", f.Filename, err)
		}
		images = append(images, img)
	}
	return images, nil
}

func distinctCategories(products []models.Product) []string {
	seen := make(map[string]struct{}, len(products))
	categories := make([]string, 0, len(products))
	for _, p := range products {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		categories = append(categories, p.Category)
	}
	sort.Strings(categories)
	return categories
}
