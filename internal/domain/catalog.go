package domain

type TourInput struct {
	Title       string   `json:"title,omitempty" validate:"required,max=200"`
	Description string   `json:"description,omitempty"`
	CityID      string   `json:"cityId,omitempty" validate:"required"`
	CategoryIDs []string `json:"categoryIds,omitempty"`
	Price       float64  `json:"price,omitempty" validate:"gte=0"`
	Currency    string   `json:"currency,omitempty" validate:"omitempty,len=3"`
	Duration    string   `json:"duration,omitempty"`
	IsActive    *bool    `json:"isActive,omitempty"`
}

type OfferInput struct {
	Title      string   `json:"title,omitempty" validate:"required,max=200"`
	TourID     string   `json:"tourId,omitempty" validate:"required"`
	Discount   float64  `json:"discount,omitempty" validate:"gt=0,lte=100"`
	StartsAt   string   `json:"startsAt,omitempty" validate:"required"`
	EndsAt     string   `json:"endsAt,omitempty" validate:"required"`
	IsActive   *bool    `json:"isActive,omitempty"`
	CountryIDs []string `json:"countryIds,omitempty"`
}

type TermInput struct {
	Title    string `json:"title,omitempty" validate:"required,max=200"`
	Content  string `json:"content,omitempty" validate:"required"`
	Language string `json:"language,omitempty" validate:"omitempty,len=2"`
	Version  string `json:"version,omitempty"`
}

// PriceRange is what the tours listing filter needs to draw its slider.
type PriceRange struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Currency string  `json:"currency,omitempty"`
}
