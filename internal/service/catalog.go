package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/util"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

const (
	relatedLimit  = 4
	showcaseLimit = 8
)

type CatalogService struct {
	Repo  *repo.GormRepo
	Index ProductIndex
}

type ProductInput struct {
	Name        string
	Price       int64
	OldPrice    int64
	Category    string
	Image       string
	Images      []string
	Description string
	Stock       int64
	Sizes       []string
	Colors      []string
	ColorImages map[string]string
	Featured    bool
}

type ProductDetail struct {
	*models.Product
	OnSale  bool             `json:"on_sale"`
	Related []models.Product `json:"related"`
	Ratings RatingSummary    `json:"rating_summary"`
}

func (in ProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("name is required: %w", ErrValidation)
	}
	if in.Price < 0 || in.OldPrice < 0 {
		return fmt.Errorf("price cannot be negative: %w", ErrValidation)
	}
	if in.Stock < 0 {
		return fmt.Errorf("stock cannot be negative: %w", ErrValidation)
	}
	return nil
}

func (in ProductInput) applyTo(p *models.Product) {
	p.Name = strings.TrimSpace(in.Name)
	p.Price = in.Price
	p.OldPrice = in.OldPrice
	p.Category = strings.TrimSpace(in.Category)
	p.Image = in.Image
	p.Images = in.Images
	p.Description = in.Description
	p.Stock = in.Stock
	p.Sizes = in.Sizes
	p.Colors = in.Colors
	p.ColorImages = in.ColorImages
	p.Featured = in.Featured
	if p.Image == "" && len(p.Images) > 0 {
		p.Image = p.Images[0]
	}
}

func (s *CatalogService) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err, "product")
	}
	return p, nil
}

func (s *CatalogService) GetBySlug(ctx context.Context, sl string) (*models.Product, error) {
	p, err := s.Repo.GetProductBySlug(ctx, sl)
	if err != nil {
		return nil, notFound(err, "product")
	}
	return p, nil
}

// Detail returns the product with up to four related products and its rating histogram.
func (s *CatalogService) Detail(ctx context.Context, id uuid.UUID) (*ProductDetail, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	related, err := s.Repo.RelatedProducts(ctx, p, relatedLimit)
	if err != nil {
		return nil, err
	}
	ratings, err := s.Repo.ProductRatings(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	summary, err := Summarize(ratings)
	if err != nil {
		return nil, err
	}
	return &ProductDetail{Product: p, OnSale: p.OnSale(), Related: related, Ratings: summary}, nil
}

func (s *CatalogService) List(ctx context.Context, f repo.ProductFilter, page, size int) (util.Page[models.Product], error) {
	offset, limit := util.Calculate(page, size)
	total, items, err := s.Repo.ListProducts(ctx, f, offset, limit)
	if err != nil {
		return util.Page[models.Product]{}, err
	}
	return util.NewPage(items, page, limit, total), nil
}

func (s *CatalogService) Featured(ctx context.Context) ([]models.Product, error) {
	_, items, err := s.Repo.ListProducts(ctx, repo.ProductFilter{Featured: true}, 0, showcaseLimit)
	return items, err
}

func (s *CatalogService) BestSellers(ctx context.Context) ([]models.Product, error) {
	return s.Repo.BestSellers(ctx, showcaseLimit)
}

func (s *CatalogService) Categories(ctx context.Context) ([]string, error) {
	return s.Repo.Categories(ctx)
}

// Search asks the product index first and falls back to a database LIKE match when the
// index is not configured or fails.
func (s *CatalogService) Search(ctx context.Context, q string, page, size int) (util.Page[models.Product], error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return util.Page[models.Product]{}, fmt.Errorf("query is required: %w", ErrValidation)
	}
	if s.Index == nil {
		return s.List(ctx, repo.ProductFilter{Query: q}, page, size)
	}

	offset, limit := util.Calculate(page, size)
	total, ids, err := s.Index.Search(ctx, q, offset, limit)
	if err != nil {
		logging.FromContext(ctx).Warn("search_index_error", "q", q, "error", err)
		return s.List(ctx, repo.ProductFilter{Query: q}, page, size)
	}

	found, err := s.Repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return util.Page[models.Product]{}, err
	}
	byID := make(map[uuid.UUID]models.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	items := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			items = append(items, p)
		}
	}
	return util.NewPage(items, page, limit, total), nil
}

func (s *CatalogService) uniqueSlug(ctx context.Context, name string, except uuid.UUID) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = "product"
	}
	candidate := base
	for i := 2; ; i++ {
		taken, err := s.Repo.SlugExists(ctx, candidate, except)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

func (s *CatalogService) index(ctx context.Context, p *models.Product) {
	if s.Index == nil {
		return
	}
	if err := s.Index.IndexProduct(ctx, p); err != nil {
		logging.FromContext(ctx).Warn("search_index_error", "product_id", p.ID, "error", err)
	}
}

func (s *CatalogService) Create(ctx context.Context, actor Actor, in ProductInput) (*models.Product, error) {
	if err := Authorize(actor, models.RoleStaff); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	p := &models.Product{}
	in.applyTo(p)
	sl, err := s.uniqueSlug(ctx, p.Name, uuid.Nil)
	if err != nil {
		return nil, err
	}
	p.Slug = sl

	if _, err := s.Repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	s.index(ctx, p)
	return p, nil
}

// Update overwrites the editable fields. Rating, review count and sold are left alone.
func (s *CatalogService) Update(ctx context.Context, actor Actor, id uuid.UUID, in ProductInput) (*models.Product, error) {
	if err := Authorize(actor, models.RoleStaff); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	renamed := strings.TrimSpace(in.Name) != p.Name
	in.applyTo(p)
	if renamed {
		if p.Slug, err = s.uniqueSlug(ctx, p.Name, p.ID); err != nil {
			return nil, err
		}
	}

	if err := s.Repo.SaveProduct(ctx, p); err != nil {
		return nil, err
	}
	s.index(ctx, p)
	return p, nil
}

// Delete refuses products that any order line still references.
func (s *CatalogService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := Authorize(actor, models.RoleAdmin); err != nil {
		return err
	}
	referenced, err := s.Repo.ProductReferenced(ctx, id)
	if err != nil {
		return err
	}
	if referenced {
		return fmt.Errorf("product is referenced by orders: %w", ErrConflict)
	}
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		return notFound(err, "product")
	}

	if s.Index != nil {
		if err := s.Index.DeleteProduct(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("search_index_error", "product_id", id, "error", err)
		}
	}
	return nil
}

func (s *CatalogService) Count(ctx context.Context) (int64, error) {
	return s.Repo.CountProducts(ctx)
}
