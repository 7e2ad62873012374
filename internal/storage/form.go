package storage

import (
	"fmt"
	"strings"
	"time"

	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/sizing"
)

// ProductForm carries the raw listing fields as submitted. Values are
// untyped text keyed by field name; a missing key means the field was not
// submitted at all.
type ProductForm struct {
	Values map[string]string
	Images []string
}

func (f ProductForm) Get(key string) (string, bool) {
	v, ok := f.Values[key]
	return v, ok
}

func (f ProductForm) text(key string) string {
	return strings.TrimSpace(f.Values[key])
}

func (f ProductForm) optionalText(key string) *string {
	v, ok := f.Values[key]
	if !ok {
		return nil
	}
	v = strings.TrimSpace(v)
	return &v
}

func (f ProductForm) number(key string) sizing.Number {
	v, ok := f.Values[key]
	if !ok {
		return sizing.Number{Kind: sizing.Absent}
	}
	return sizing.ParseNumber(v)
}

// measurement reads "<dim>_size" as free text when present, otherwise the
// separate "<dim>_min" and "<dim>_max" fields. ok is false when none of the
// three fields was submitted.
func (f ProductForm) measurement(d sizing.Dimension) (sizing.Range, bool) {
	if raw, ok := f.Values[string(d)+"_size"]; ok {
		return sizing.ParseRange(raw), true
	}
	_, hasMin := f.Values[string(d)+"_min"]
	_, hasMax := f.Values[string(d)+"_max"]
	if !hasMin && !hasMax {
		return sizing.Range{}, false
	}
	return sizing.RangeFromBounds(f.number(string(d)+"_min"), f.number(string(d)+"_max")), true
}

type listingFields struct {
	title            string
	description      string
	shortDescription string
	brand            string
	color            string
	fabric           string
	occasion         string
	rentalPrice      float64
	securityDeposit  float64
	originalPrice    *float64
	sleeveLength     *string
	availableFrom    *time.Time
	availableUntil   *time.Time
	images           []string
	ranges           map[sizing.Dimension]sizing.Range
}

func (f ProductForm) parse() (*listingFields, error) {
	lf := &listingFields{
		title:            f.text("title"),
		description:      f.text("description"),
		shortDescription: f.text("short_description"),
		brand:            f.text("brand"),
		color:            f.text("color"),
		fabric:           f.text("fabric"),
		occasion:         f.text("occasion"),
		sleeveLength:     f.optionalText("sleeve_length"),
		images:           f.Images,
		ranges:           make(map[sizing.Dimension]sizing.Range),
	}
	if lf.title == "" {
		return nil, &ValidationError{Field: "title", Message: "title is required"}
	}
	if lf.images == nil {
		lf.images = []string{}
	}

	var err error
	if lf.rentalPrice, err = requiredPrice(f, "rental_price"); err != nil {
		return nil, err
	}
	if lf.securityDeposit, err = requiredPrice(f, "security_deposit"); err != nil {
		return nil, err
	}

	switch n := f.number("original_price"); n.Kind {
	case sizing.Invalid:
		return nil, &ValidationError{Field: "original_price", Message: "original_price must be a number"}
	case sizing.Parsed:
		if n.Value < 0 {
			return nil, &ValidationError{Field: "original_price", Message: "original_price must not be negative"}
		}
		lf.originalPrice = n.Ptr()
	}

	if lf.availableFrom, err = optionalDate(f, "available_from"); err != nil {
		return nil, err
	}
	if lf.availableUntil, err = optionalDate(f, "available_until"); err != nil {
		return nil, err
	}
	if lf.availableFrom != nil && lf.availableUntil != nil && lf.availableUntil.Before(*lf.availableFrom) {
		return nil, &ValidationError{Field: "available_until", Message: "available_until must not be before available_from"}
	}

	for _, d := range sizing.Dimensions {
		if r, ok := f.measurement(d); ok {
			lf.ranges[d] = r
		}
	}
	return lf, nil
}

func requiredPrice(f ProductForm, key string) (float64, error) {
	n := f.number(key)
	switch n.Kind {
	case sizing.Absent:
		return 0, &ValidationError{Field: key, Message: key + " is required"}
	case sizing.Invalid:
		return 0, &ValidationError{Field: key, Message: key + " must be a number"}
	}
	if n.Value < 0 {
		return 0, &ValidationError{Field: key, Message: key + " must not be negative"}
	}
	return n.Value, nil
}

func optionalDate(f ProductForm, key string) (*time.Time, error) {
	raw := f.text(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, &ValidationError{Field: key, Message: fmt.Sprintf("%s must be a date in YYYY-MM-DD format", key)}
	}
	return &t, nil
}

func (lf *listingFields) newProduct(id, ownerID, categoryID string, now time.Time) *repository.Product {
	p := &repository.Product{
		ID:               id,
		OwnerID:          ownerID,
		CategoryID:       &categoryID,
		Title:            lf.title,
		Description:      lf.description,
		ShortDescription: lf.shortDescription,
		Brand:            lf.brand,
		Color:            lf.color,
		Fabric:           lf.fabric,
		Occasion:         lf.occasion,
		RentalPrice:      lf.rentalPrice,
		SecurityDeposit:  lf.securityDeposit,
		OriginalPrice:    lf.originalPrice,
		SleeveLength:     lf.sleeveLength,
		AvailableFrom:    lf.availableFrom,
		AvailableUntil:   lf.availableUntil,
		Images:           lf.images,
		Condition:        "good",
		Status:           "pending",
		IsAvailable:      true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	for d, r := range lf.ranges {
		p.SetRange(d, r)
	}
	return p
}

func (lf *listingFields) changes(now time.Time) *repository.ProductChanges {
	return &repository.ProductChanges{
		Title:            lf.title,
		Description:      lf.description,
		ShortDescription: lf.shortDescription,
		Brand:            lf.brand,
		Color:            lf.color,
		Fabric:           lf.fabric,
		Occasion:         lf.occasion,
		RentalPrice:      lf.rentalPrice,
		SecurityDeposit:  lf.securityDeposit,
		OriginalPrice:    lf.originalPrice,
		SleeveLength:     lf.sleeveLength,
		AvailableFrom:    lf.availableFrom,
		AvailableUntil:   lf.availableUntil,
		Images:           lf.images,
		Ranges:           lf.ranges,
		UpdatedAt:        now,
	}
}
