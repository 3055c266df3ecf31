package domain

import "strings"

type Country struct {
	ID           string            `json:"id"`
	Code         string            `json:"code"`
	Name         string            `json:"name"`
	Currency     string            `json:"currency,omitempty"`
	Translations map[string]string `json:"translations,omitempty"`
}

// LocalizedName returns the name for language, or the default name.
func (c Country) LocalizedName(language string) string {
	if name, ok := c.Translations[strings.ToLower(language)]; ok && name != "" {
		return name
	}
	return c.Name
}

// DefaultCountry is used when the backend returns no countries at all.
var DefaultCountry = Country{
	Code:     "MX",
	Name:     "Mexico",
	Currency: "MXN",
	Translations: map[string]string{
		"es": "México",
		"en": "Mexico",
	},
}

type City struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CountryID string `json:"countryId"`
	Image     string `json:"image,omitempty"`
	IsActive  bool   `json:"isActive"`
}

type Category struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug,omitempty"`
	Image    string `json:"image,omitempty"`
	IsActive bool   `json:"isActive"`
}

type CityInput struct {
	Name        string `json:"name,omitempty" validate:"required,max=120"`
	CountryID   string `json:"countryId,omitempty" validate:"required"`
	Description string `json:"description,omitempty"`
	IsActive    *bool  `json:"isActive,omitempty"`
}

type CategoryInput struct {
	Name        string `json:"name,omitempty" validate:"required,max=120"`
	Description string `json:"description,omitempty"`
	IsActive    *bool  `json:"isActive,omitempty"`
}
