package upstream

import (
	"context"
	"net/url"
	"strconv"

	"github.com/sakachris/ecom-frontend/internal/domain"
)

// ProductFilter narrows a catalog listing. Zero values are omitted from the
// upstream query.
type ProductFilter struct {
	Search    string
	Category  string
	PriceMin  string
	PriceMax  string
	MinRating string
	Ordering  string
	Page      int
	PageSize  int
}

func (f ProductFilter) values() url.Values {
	q := url.Values{}
	q.Set("search", f.Search)
	q.Set("category", f.Category)
	q.Set("price__gte", f.PriceMin)
	q.Set("price__lte", f.PriceMax)
	q.Set("average_rating__gte", f.MinRating)
	q.Set("ordering", f.Ordering)
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(f.PageSize))
	}
	return q
}

// ListProducts fetches one page of the catalog.
func (c *Client) ListProducts(ctx context.Context, filter ProductFilter) (domain.ProductsPage, error) {
	var page domain.ProductsPage
	err := c.getJSON(ctx, c.BuildURL("/products/", filter.values()), &page)
	return page, err
}

// GetProduct fetches one product by ID.
func (c *Client) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	var p domain.Product
	err := c.getJSON(ctx, c.BuildURL("/products/"+id+"/", nil), &p)
	return p, err
}

// ListProductImages fetches all images for a product.
func (c *Client) ListProductImages(ctx context.Context, productID string) ([]domain.ProductImage, error) {
	var page struct {
		Results []domain.ProductImage `json:"results"`
	}
	q := url.Values{"product": {productID}, "page_size": {"50"}}
	if err := c.getJSON(ctx, c.BuildURL("/product-images/", q), &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}

// ListReviews fetches one page of reviews for a product.
func (c *Client) ListReviews(ctx context.Context, productID string, page, pageSize int) (domain.ReviewsPage, error) {
	q := url.Values{"product": {productID}}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		q.Set("page_size", strconv.Itoa(pageSize))
	}
	var out domain.ReviewsPage
	err := c.getJSON(ctx, c.BuildURL("/reviews/", q), &out)
	return out, err
}

// GetCategory fetches one category by ID.
func (c *Client) GetCategory(ctx context.Context, id string) (domain.Category, error) {
	var cat domain.Category
	err := c.getJSON(ctx, c.BuildURL("/categories/"+id+"/", nil), &cat)
	return cat, err
}

// ListCategories fetches one page of categories.
func (c *Client) ListCategories(ctx context.Context, page, pageSize int) (domain.CategoriesPage, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		q.Set("page_size", strconv.Itoa(pageSize))
	}
	var out domain.CategoriesPage
	err := c.getJSON(ctx, c.BuildURL("/categories/", q), &out)
	return out, err
}
