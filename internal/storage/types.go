package storage

import (
	"time"

	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/sizing"
)

const dateLayout = "2006-01-02"

type Owner struct {
	ID        string `json:"id"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Measurement struct {
	Legacy *string  `json:"legacy,omitempty"`
	Min    *float64 `json:"min"`
	Max    *float64 `json:"max"`
}

type Product struct {
	ID               string                           `json:"id"`
	OwnerID          string                           `json:"owner_id"`
	Title            string                           `json:"title"`
	Description      string                           `json:"description"`
	AdminDescription string                           `json:"admin_description,omitempty"`
	ShortDescription string                           `json:"short_description"`
	Brand            string                           `json:"brand"`
	Color            string                           `json:"color"`
	Fabric           string                           `json:"fabric"`
	Occasion         string                           `json:"occasion"`
	RentalPrice      float64                          `json:"rental_price"`
	SecurityDeposit  float64                          `json:"security_deposit"`
	OriginalPrice    *float64                         `json:"original_price"`
	Measurements     map[sizing.Dimension]Measurement `json:"measurements"`
	Images           []string                         `json:"images"`
	Condition        string                           `json:"condition"`
	Status           string                           `json:"status"`
	IsAvailable      bool                             `json:"is_available"`
	TotalRentals     int                              `json:"total_rentals"`
	AverageRating    float64                          `json:"average_rating"`
	ViewCount        int                              `json:"view_count"`
	AvailableFrom    *string                          `json:"available_from"`
	AvailableUntil   *string                          `json:"available_until"`
	CreatedAt        time.Time                        `json:"created_at"`
	UpdatedAt        time.Time                        `json:"updated_at"`
	Owner            *Owner                           `json:"owner,omitempty"`
	Category         *Category                        `json:"category,omitempty"`
}

type Review struct {
	ID        string    `json:"id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	Images    []string  `json:"images"`
	CreatedAt time.Time `json:"created_at"`
	User      *Owner    `json:"user,omitempty"`
}

type ProductDetail struct {
	Product
	Reviews []Review `json:"reviews"`
}

type ProductPage struct {
	Products []Product `json:"products"`
	Count    int64     `json:"count"`
}

type WishlistItem struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Product   Product   `json:"product"`
}

type SizeChart struct {
	Sections []sizing.ChartSection `json:"sections"`
	Note     string                `json:"note"`
}

type CatalogFilter struct {
	Category string
	Search   string
	MinPrice float64
	MaxPrice float64
	SortBy   string
	Limit    int
	Offset   int
}

func toProduct(row *repository.ProductRow) Product {
	p := Product{
		ID:               row.ID,
		OwnerID:          row.OwnerID,
		Title:            row.Title,
		Description:      row.Description,
		AdminDescription: row.AdminDescription,
		ShortDescription: row.ShortDescription,
		Brand:            row.Brand,
		Color:            row.Color,
		Fabric:           row.Fabric,
		Occasion:         row.Occasion,
		RentalPrice:      row.RentalPrice,
		SecurityDeposit:  row.SecurityDeposit,
		OriginalPrice:    row.OriginalPrice,
		Measurements:     make(map[sizing.Dimension]Measurement, len(sizing.Dimensions)),
		Images:           row.Images,
		Condition:        row.Condition,
		Status:           row.Status,
		IsAvailable:      row.IsAvailable,
		TotalRentals:     row.TotalRentals,
		AverageRating:    row.AverageRating,
		ViewCount:        row.ViewCount,
		AvailableFrom:    formatDate(row.AvailableFrom),
		AvailableUntil:   formatDate(row.AvailableUntil),
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
	if p.Images == nil {
		p.Images = []string{}
	}

	for _, d := range sizing.Dimensions {
		r := row.Range(d)
		legacy := row.Legacy(d)
		if r.IsEmpty() && legacy == nil {
			continue
		}
		p.Measurements[d] = Measurement{Legacy: legacy, Min: r.Min, Max: r.Max}
	}

	if row.OwnerFullName != nil || row.OwnerAvatarURL != nil {
		p.Owner = &Owner{
			ID:        row.OwnerID,
			FullName:  deref(row.OwnerFullName),
			AvatarURL: deref(row.OwnerAvatarURL),
			City:      deref(row.OwnerCity),
			State:     deref(row.OwnerState),
		}
	}
	if row.CategoryID != nil && row.CategoryName != nil {
		p.Category = &Category{
			ID:   *row.CategoryID,
			Name: *row.CategoryName,
			Slug: deref(row.CategorySlug),
		}
	}
	return p
}

func toReview(r *repository.Review) Review {
	review := Review{
		ID:        r.ID,
		Rating:    r.Rating,
		Comment:   deref(r.Comment),
		Images:    r.Images,
		CreatedAt: r.CreatedAt,
	}
	if review.Images == nil {
		review.Images = []string{}
	}
	if r.UserFullName != nil {
		review.User = &Owner{
			ID:        r.UserID,
			FullName:  *r.UserFullName,
			AvatarURL: deref(r.UserAvatarURL),
		}
	}
	return review
}

// sizeHistory collects every value recorded for each dimension of a listing:
// the legacy text column followed by the stored range bounds.
func sizeHistory(p *repository.Product) sizing.SizeHistory {
	history := make(sizing.SizeHistory, len(sizing.Dimensions))
	for _, d := range sizing.Dimensions {
		var values []string
		if legacy := p.Legacy(d); legacy != nil {
			values = append(values, *legacy)
		}
		r := p.Range(d)
		if r.Min != nil {
			values = append(values, sizing.FormatNumber(*r.Min))
		}
		if r.Max != nil {
			values = append(values, sizing.FormatNumber(*r.Max))
		}
		history[d] = values
	}
	return history
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
