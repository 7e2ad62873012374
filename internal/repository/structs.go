package repository

import (
	"errors"
	"time"

	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/sizing"
)

var (
	ErrObjectNotFound = errors.New("not found")
	ErrUnknownUser    = errors.New("user does not exist")
)

type Product struct {
	ID               string     `db:"id"`
	OwnerID          string     `db:"owner_id"`
	CategoryID       *string    `db:"category_id"`
	Title            string     `db:"title"`
	Description      string     `db:"description"`
	AdminDescription string     `db:"admin_description"`
	ShortDescription string     `db:"short_description"`
	Brand            string     `db:"brand"`
	Color            string     `db:"color"`
	Fabric           string     `db:"fabric"`
	Occasion         string     `db:"occasion"`
	RentalPrice      float64    `db:"rental_price"`
	SecurityDeposit  float64    `db:"security_deposit"`
	OriginalPrice    *float64   `db:"original_price"`
	Images           []string   `db:"images"`
	Condition        string     `db:"condition"`
	Status           string     `db:"status"`
	IsAvailable      bool       `db:"is_available"`
	TotalRentals     int        `db:"total_rentals"`
	AverageRating    float64    `db:"average_rating"`
	ViewCount        int        `db:"view_count"`
	AvailableFrom    *time.Time `db:"available_from"`
	AvailableUntil   *time.Time `db:"available_until"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`

	Bust         *string `db:"bust"`
	Waist        *string `db:"waist"`
	Hip          *string `db:"hip"`
	Shoulder     *string `db:"shoulder"`
	Length       *string `db:"length"`
	SleeveLength *string `db:"sleeve_length"`

	BustMin         *float64 `db:"bust_min"`
	BustMax         *float64 `db:"bust_max"`
	WaistMin        *float64 `db:"waist_min"`
	WaistMax        *float64 `db:"waist_max"`
	HipMin          *float64 `db:"hip_min"`
	HipMax          *float64 `db:"hip_max"`
	LengthMin       *float64 `db:"length_min"`
	LengthMax       *float64 `db:"length_max"`
	SleeveLengthMin *float64 `db:"sleeve_length_min"`
	SleeveLengthMax *float64 `db:"sleeve_length_max"`
	ShoulderMin     *float64 `db:"shoulder_min"`
	ShoulderMax     *float64 `db:"shoulder_max"`
}

// Legacy returns the single text column kept for a dimension.
func (p *Product) Legacy(d sizing.Dimension) *string {
	switch d {
	case sizing.Bust:
		return p.Bust
	case sizing.Waist:
		return p.Waist
	case sizing.Hip:
		return p.Hip
	case sizing.Length:
		return p.Length
	case sizing.SleeveLength:
		return p.SleeveLength
	case sizing.Shoulder:
		return p.Shoulder
	}
	return nil
}

func (p *Product) Range(d sizing.Dimension) sizing.Range {
	minPtr, maxPtr := p.rangeFields(d)
	if minPtr == nil {
		return sizing.Range{}
	}
	return sizing.Range{Min: *minPtr, Max: *maxPtr}
}

func (p *Product) SetRange(d sizing.Dimension, r sizing.Range) {
	minPtr, maxPtr := p.rangeFields(d)
	if minPtr == nil {
		return
	}
	*minPtr, *maxPtr = r.Min, r.Max
}

func (p *Product) rangeFields(d sizing.Dimension) (**float64, **float64) {
	switch d {
	case sizing.Bust:
		return &p.BustMin, &p.BustMax
	case sizing.Waist:
		return &p.WaistMin, &p.WaistMax
	case sizing.Hip:
		return &p.HipMin, &p.HipMax
	case sizing.Length:
		return &p.LengthMin, &p.LengthMax
	case sizing.SleeveLength:
		return &p.SleeveLengthMin, &p.SleeveLengthMax
	case sizing.Shoulder:
		return &p.ShoulderMin, &p.ShoulderMax
	}
	return nil, nil
}

// ProductRow is a product joined with its owner profile and category.
type ProductRow struct {
	Product

	OwnerFullName  *string `db:"owner_full_name"`
	OwnerAvatarURL *string `db:"owner_avatar_url"`
	OwnerCity      *string `db:"owner_city"`
	OwnerState     *string `db:"owner_state"`
	CategoryName   *string `db:"category_name"`
	CategorySlug   *string `db:"category_slug"`
}

type CatalogRow struct {
	ProductRow
	TotalCount int64 `db:"total_count"`
}

type WishlistRow struct {
	WishlistID string    `db:"wishlist_id"`
	AddedAt    time.Time `db:"wishlist_created_at"`
	ProductRow
}

type Category struct {
	ID   string `db:"id"`
	Name string `db:"name"`
	Slug string `db:"slug"`
}

type Review struct {
	ID            string    `db:"id"`
	ProductID     string    `db:"product_id"`
	UserID        string    `db:"user_id"`
	Rating        int       `db:"rating"`
	Comment       *string   `db:"comment"`
	Images        []string  `db:"images"`
	CreatedAt     time.Time `db:"created_at"`
	UserFullName  *string   `db:"user_full_name"`
	UserAvatarURL *string   `db:"user_avatar_url"`
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

// ProductChanges lists the editable columns of a listing. Ranges holds only
// the dimensions that should be written.
type ProductChanges struct {
	Title            string
	Description      string
	ShortDescription string
	Brand            string
	Color            string
	Fabric           string
	Occasion         string
	RentalPrice      float64
	SecurityDeposit  float64
	OriginalPrice    *float64
	SleeveLength     *string
	AvailableFrom    *time.Time
	AvailableUntil   *time.Time
	Images           []string
	Ranges           map[sizing.Dimension]sizing.Range
	UpdatedAt        time.Time
}
