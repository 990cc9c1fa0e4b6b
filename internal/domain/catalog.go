package domain

// Product is a catalog listing entry as served by the upstream API.
type Product struct {
	ProductID     string  `json:"product_id"`
	Name          string  `json:"name"`
	Description   string  `json:"description,omitempty"`
	Price         string  `json:"price"`
	Stock         int     `json:"stock"`
	Category      string  `json:"category,omitempty"`
	PrimaryImage  string  `json:"primary_image,omitempty"`
	AverageRating float64 `json:"average_rating"`
	ReviewsCount  int     `json:"reviews_count"`
	CreatedAt     string  `json:"created_at,omitempty"`
}

// Meta is the upstream's pagination envelope. The page links are absolute
// URLs, null at the respective ends of the listing.
type Meta struct {
	Page       int     `json:"page"`
	Pages      int     `json:"pages"`
	TotalCount int     `json:"total_count"`
	PageCount  int     `json:"page_count"`
	FirstPage  *string `json:"first_page"`
	LastPage   *string `json:"last_page"`
	Next       *string `json:"next"`
	Previous   *string `json:"previous"`
}

// ProductsPage is one page of catalog results plus paging metadata.
type ProductsPage struct {
	Meta    Meta      `json:"meta"`
	Results []Product `json:"results"`
}

// ProductImage is one image attached to a product.
type ProductImage struct {
	ImageID   string `json:"image_id"`
	Product   string `json:"product,omitempty"`
	Image     string `json:"image"`
	IsPrimary bool   `json:"is_primary"`
}

// Review is a customer review of a product.
type Review struct {
	ReviewID  string `json:"review_id"`
	Product   string `json:"product,omitempty"`
	User      string `json:"user,omitempty"`
	UserName  string `json:"user_name,omitempty"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Category is a product category.
type Category struct {
	CategoryID  string `json:"category_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// CategoriesPage is one page of categories.
type CategoriesPage struct {
	Meta    Meta       `json:"meta"`
	Results []Category `json:"results"`
}

// ReviewsPage is one page of reviews.
type ReviewsPage struct {
	Meta    Meta     `json:"meta"`
	Results []Review `json:"results"`
}

// GalleryFrames is the fixed number of image slots a product detail page
// renders.
const GalleryFrames = 4

// BuildGallery arranges product images for display: the primary image first,
// then the remaining images in order, padded out to GalleryFrames entries by
// repeating the primary. A product with no images yields an empty slice.
func BuildGallery(images []ProductImage) []string {
	if len(images) == 0 {
		return nil
	}

	primary := images[0].Image
	for _, img := range images {
		if img.IsPrimary {
			primary = img.Image
			break
		}
	}

	out := make([]string, 0, GalleryFrames)
	out = append(out, primary)
	for _, img := range images {
		if len(out) == GalleryFrames {
			break
		}
		if img.Image == primary {
			continue
		}
		out = append(out, img.Image)
	}
	for len(out) < GalleryFrames {
		out = append(out, primary)
	}
	return out
}

// OrderingForSort maps a storefront sort key to the upstream ordering
// parameter. Unknown keys fall back to newest-first.
func OrderingForSort(sort string) string {
	switch sort {
	case "price_asc":
		return "price"
	case "price_desc":
		return "-price"
	case "rating":
		return "-average_rating"
	case "reviews":
		return "-reviews_count"
	case "new":
		return "-created_at"
	default:
		return "-created_at"
	}
}
