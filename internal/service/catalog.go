// Package service implements the storefront's use cases on top of the
// upstream client: catalog browsing and account management.
package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/sakachris/ecom-frontend/pkg/errors"
	"github.com/sakachris/ecom-frontend/pkg/pagination"
	"github.com/sakachris/ecom-frontend/pkg/tracing"

	"github.com/sakachris/ecom-frontend/internal/domain"
	"github.com/sakachris/ecom-frontend/internal/upstream"
)

// categoriesPageSize covers every category the storefront renders in one
// request.
const categoriesPageSize = 20

// reviewsPageSize is how many reviews the detail page shows at once.
const reviewsPageSize = 10

// ListQuery is a storefront catalog query before translation to upstream
// parameters.
type ListQuery struct {
	Search    string
	Category  string
	PriceMin  string
	PriceMax  string
	MinRating string
	Sort      string
	Page      pagination.Params
}

// ProductDetail is everything the product page needs, assembled from three
// upstream resources.
type ProductDetail struct {
	Product domain.Product        `json:"product"`
	Gallery []string              `json:"gallery"`
	Images  []domain.ProductImage `json:"images"`
	Reviews domain.ReviewsPage    `json:"reviews"`
}

// CatalogService serves product browsing. It is unauthenticated end to end.
type CatalogService struct {
	api    *upstream.Client
	logger *slog.Logger
	tracer trace.Tracer
}

// NewCatalogService creates the catalog service.
func NewCatalogService(api *upstream.Client, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		api:    api,
		logger: logger,
		tracer: tracing.Tracer("catalog-service"),
	}
}

// ListProducts fetches one page of the catalog with the storefront's sort
// keys translated to upstream ordering.
func (s *CatalogService) ListProducts(ctx context.Context, q ListQuery) (domain.ProductsPage, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.ListProducts",
		trace.WithAttributes(attribute.Int("page", q.Page.Page)))
	defer span.End()

	page, err := s.api.ListProducts(ctx, upstream.ProductFilter{
		Search:    q.Search,
		Category:  q.Category,
		PriceMin:  q.PriceMin,
		PriceMax:  q.PriceMax,
		MinRating: q.MinRating,
		Ordering:  domain.OrderingForSort(q.Sort),
		Page:      q.Page.Page,
		PageSize:  q.Page.PageSize,
	})
	if err != nil {
		return domain.ProductsPage{}, s.mapError(err, "product")
	}
	if page.Results == nil {
		page.Results = []domain.Product{}
	}
	return page, nil
}

// GetProductDetail assembles the product page: the product itself, its image
// gallery, and the first page of reviews, fetched concurrently. A missing
// product fails the whole call; missing images or reviews degrade to empty.
func (s *CatalogService) GetProductDetail(ctx context.Context, id string) (ProductDetail, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.GetProductDetail",
		trace.WithAttributes(attribute.String("product_id", id)))
	defer span.End()

	var detail ProductDetail
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		p, err := s.api.GetProduct(gctx, id)
		if err != nil {
			return err
		}
		detail.Product = p
		return nil
	})
	g.Go(func() error {
		images, err := s.api.ListProductImages(gctx, id)
		if err != nil {
			s.logger.WarnContext(gctx, "product images unavailable",
				slog.String("product_id", id),
				slog.String("error", err.Error()))
			return nil
		}
		detail.Images = images
		return nil
	})
	g.Go(func() error {
		reviews, err := s.api.ListReviews(gctx, id, 1, reviewsPageSize)
		if err != nil {
			s.logger.WarnContext(gctx, "product reviews unavailable",
				slog.String("product_id", id),
				slog.String("error", err.Error()))
			return nil
		}
		detail.Reviews = reviews
		return nil
	})

	if err := g.Wait(); err != nil {
		return ProductDetail{}, s.mapError(err, "product")
	}

	if len(detail.Images) == 0 && detail.Product.PrimaryImage != "" {
		detail.Images = []domain.ProductImage{{Image: detail.Product.PrimaryImage, IsPrimary: true}}
	}
	detail.Gallery = domain.BuildGallery(detail.Images)
	if detail.Gallery == nil {
		detail.Gallery = []string{}
	}
	if detail.Reviews.Results == nil {
		detail.Reviews.Results = []domain.Review{}
	}
	return detail, nil
}

// CategoryPage is everything the category landing page needs: the category
// itself plus one page of its products.
type CategoryPage struct {
	Category domain.Category     `json:"category"`
	Products domain.ProductsPage `json:"products"`
}

// GetCategoryPage assembles a category landing page. The category and its
// product listing are fetched concurrently; either failing fails the call.
func (s *CatalogService) GetCategoryPage(ctx context.Context, id string, q ListQuery) (CategoryPage, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.GetCategoryPage",
		trace.WithAttributes(attribute.String("category_id", id)))
	defer span.End()

	var page CategoryPage
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		cat, err := s.api.GetCategory(gctx, id)
		if err != nil {
			return err
		}
		page.Category = cat
		return nil
	})
	g.Go(func() error {
		products, err := s.api.ListProducts(gctx, upstream.ProductFilter{
			Category: id,
			Ordering: domain.OrderingForSort(q.Sort),
			Page:     q.Page.Page,
			PageSize: q.Page.PageSize,
		})
		if err != nil {
			return err
		}
		page.Products = products
		return nil
	})

	if err := g.Wait(); err != nil {
		return CategoryPage{}, s.mapError(err, "category")
	}
	if page.Products.Results == nil {
		page.Products.Results = []domain.Product{}
	}
	return page, nil
}

// ListCategories fetches the category list for navigation.
func (s *CatalogService) ListCategories(ctx context.Context) (domain.CategoriesPage, error) {
	page, err := s.api.ListCategories(ctx, 1, categoriesPageSize)
	if err != nil {
		return domain.CategoriesPage{}, s.mapError(err, "category")
	}
	if page.Results == nil {
		page.Results = []domain.Category{}
	}
	return page, nil
}

// mapError translates upstream failures into the storefront taxonomy.
func (s *CatalogService) mapError(err error, resource string) error {
	switch status := upstream.StatusOf(err); {
	case status == 404:
		return apperrors.NotFound(resource, "")
	case status >= 500:
		return apperrors.ServiceUnavailable("catalog temporarily unavailable")
	case status >= 400:
		var apiErr *upstream.APIError
		if errors.As(err, &apiErr) && apiErr.Message() != "" {
			return apperrors.InvalidInput(apiErr.Message())
		}
		return apperrors.InvalidInput("invalid catalog request")
	default:
		return apperrors.ServiceUnavailable("catalog unreachable")
	}
}
