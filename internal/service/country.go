package service

import (
	"strings"

	"tour-admin-server/internal/domain"
)

// ResolveCountry revalidates the session's stored country against a freshly
// fetched list. The stored id wins when present in the list. Otherwise the
// first country matching fallbackCode, then one named like the default
// country in any language, then the first country is chosen. An empty list
// yields domain.DefaultCountry for this render only: nothing was learned
// about the stored id, so changed stays false. changed reports that the
// session has to be updated with the returned country.
func ResolveCountry(countries []domain.Country, storedID, language, fallbackCode string) (country domain.Country, changed bool) {
	if storedID != "" {
		for _, c := range countries {
			if c.ID == storedID {
				return c, false
			}
		}
	}

	if len(countries) == 0 {
		return domain.DefaultCountry, false
	}

	if fallbackCode == "" {
		fallbackCode = domain.DefaultCountry.Code
	}
	for _, c := range countries {
		if strings.EqualFold(c.Code, fallbackCode) {
			return c, true
		}
	}

	names := defaultCountryNames()
	for _, c := range countries {
		if _, ok := names[strings.ToLower(c.LocalizedName(language))]; ok {
			return c, true
		}
		if _, ok := names[strings.ToLower(c.Name)]; ok {
			return c, true
		}
	}

	return countries[0], true
}

func defaultCountryNames() map[string]struct{} {
	names := map[string]struct{}{strings.ToLower(domain.DefaultCountry.Name): {}}
	for _, n := range domain.DefaultCountry.Translations {
		names[strings.ToLower(n)] = struct{}{}
	}
	return names
}
