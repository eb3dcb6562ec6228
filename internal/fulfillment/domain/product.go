package domain

import "time"

type ProductType string

const (
	TypeNormal    ProductType = "NORMAL"
	TypeSeasonal  ProductType = "SEASONAL"
	TypeExpirable ProductType = "EXPIRABLE"
)

// Product is one catalog item's current fulfillment state. ExpiryDate is
// meaningful only for EXPIRABLE products, SeasonStart/SeasonEnd only for
// SEASONAL ones; for the other types they stay at the zero value.
type Product struct {
	ID           string
	Name         string
	Type         ProductType
	Available    int
	LeadTimeDays int
	ExpiryDate   time.Time
	SeasonStart  time.Time
	SeasonEnd    time.Time
	UpdatedAt    time.Time
}

// InSeason reports whether now falls strictly between the season bounds.
func (p Product) InSeason(now time.Time) bool {
	return now.After(p.SeasonStart) && now.Before(p.SeasonEnd)
}

// Expired reports whether the expiry date is now or in the past.
func (p Product) Expired(now time.Time) bool {
	return !p.ExpiryDate.After(now)
}
