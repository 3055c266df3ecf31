package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"tour-admin-server/internal/cache"
	"tour-admin-server/internal/domain"
	"tour-admin-server/internal/restclient"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	countriesPath  = "/api/countries"
	priceRangeKey  = "price-range"
	countriesKey   = "countries"
	categoriesKey  = "categories"
	referenceLimit = domain.MaxLimit
)

// Bootstrap is the reference data every page loader starts from.
type Bootstrap struct {
	Countries  []domain.Country  `json:"countries"`
	Categories []domain.Category `json:"categories"`
	Cities     []domain.City     `json:"cities"`
	Country    domain.Country    `json:"selectedCountry"`
	// CountryChanged is set when the session's stored country was replaced.
	CountryChanged bool `json:"-"`
	// Degraded is set when any fetch failed and an empty shape was used.
	Degraded bool `json:"degraded,omitempty"`
}

type ReferenceService struct {
	factory      *restclient.Factory
	cities       *CityService
	cache        *cache.ReadThrough
	fallbackCode string
	logger       *logrus.Entry
}

func NewReferenceService(factory *restclient.Factory, cities *CityService, readThrough *cache.ReadThrough, fallbackCode string, logger *logrus.Logger) *ReferenceService {
	if logger == nil {
		logger = logrus.New()
	}
	return &ReferenceService{
		factory:      factory,
		cities:       cities,
		cache:        readThrough,
		fallbackCode: fallbackCode,
		logger:       logger.WithField("component", "reference"),
	}
}

// Load fetches countries and categories concurrently, resolves the session
// country against the fresh list and only then fetches its cities. Failed
// fetches degrade to empty lists.
func (s *ReferenceService) Load(ctx context.Context, token, storedCountryID string) *Bootstrap {
	b := &Bootstrap{Countries: []domain.Country{}, Categories: []domain.Category{}, Cities: []domain.City{}}

	var countriesErr, categoriesErr error
	var g errgroup.Group
	g.Go(func() error {
		countries, err := s.Countries(ctx, token)
		if err != nil {
			countriesErr = err
			return nil
		}
		b.Countries = countries
		return nil
	})
	g.Go(func() error {
		categories, err := s.Categories(ctx, token)
		if err != nil {
			categoriesErr = err
			return nil
		}
		b.Categories = categories
		return nil
	})
	_ = g.Wait()

	for name, err := range map[string]error{"countries": countriesErr, "categories": categoriesErr} {
		if err != nil {
			b.Degraded = true
			s.logger.WithError(err).WithField("resource", name).Warn("reference fetch failed, using empty list")
		}
	}

	b.Country, b.CountryChanged = ResolveCountry(b.Countries, storedCountryID, languageFrom(ctx), s.fallbackCode)

	if b.Country.ID != "" {
		cities, err := s.cities.ForCountry(ctx, b.Country.ID, token)
		if err != nil {
			b.Degraded = true
			s.logger.WithError(err).WithField("country", b.Country.Code).Warn("cities fetch failed, using empty list")
		} else {
			b.Cities = cities
		}
	}

	return b
}

func (s *ReferenceService) Countries(ctx context.Context, token string) ([]domain.Country, error) {
	countries := []domain.Country{}
	if err := s.cachedList(ctx, countriesKey, countriesPath, token, nil, &countries); err != nil {
		return nil, err
	}
	return countries, nil
}

func (s *ReferenceService) Categories(ctx context.Context, token string) ([]domain.Category, error) {
	categories := []domain.Category{}
	if err := s.cachedList(ctx, categoriesKey, categoriesPath, token, nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *ReferenceService) Cities(ctx context.Context, countryID, token string) ([]domain.City, error) {
	return s.cities.ForCountry(ctx, countryID, token)
}

// PriceRange is cached per country and language.
func (s *ReferenceService) PriceRange(ctx context.Context, countryID, token string) (domain.PriceRange, error) {
	params := url.Values{}
	if countryID != "" {
		params.Set("countryId", countryID)
	}

	data, err := s.fetch(ctx, cache.Key(priceRangeKey, countryID, cache.Fold(languageFrom(ctx))), toursPath, "price-range", token, params)
	if err != nil {
		return domain.PriceRange{}, err
	}

	var pr domain.PriceRange
	if err := json.Unmarshal(unwrapData(data), &pr); err != nil {
		return domain.PriceRange{}, &restclient.Error{Kind: restclient.KindDecode, Message: err.Error()}
	}
	return pr, nil
}

// Counts issues the dashboard's totals concurrently. A failed count is
// reported as zero.
func (s *ReferenceService) Counts(ctx context.Context, token string) map[string]int {
	resources := map[string]string{
		"tours":      toursPath,
		"cities":     citiesPath,
		"categories": categoriesPath,
		"users":      usersPath,
		"offers":     offersPath,
	}

	counts := make([]int, 0, len(resources))
	names := make([]string, 0, len(resources))
	for name := range resources {
		names = append(names, name)
		counts = append(counts, 0)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		i := i
		path := resources[name]
		g.Go(func() error {
			res := s.factory.Resource(path, token).Count(gctx, localeOptions(gctx)...)
			if !res.OK() {
				s.logger.WithField("resource", path).WithField("kind", res.Error.Kind).Warn("count failed")
				return nil
			}
			counts[i] = parseCount(res.Data)
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]int, len(names))
	for i, name := range names {
		out[name] = counts[i]
	}
	return out
}

func (s *ReferenceService) cachedList(ctx context.Context, key, path, token string, params url.Values, out interface{}) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("limit", strconv.Itoa(referenceLimit))

	data, err := s.fetch(ctx, cache.Key(key, cache.Fold(languageFrom(ctx))), path, "", token, params)
	if err != nil {
		return err
	}
	if err := domain.DecodeList(data, out); err != nil {
		return &restclient.Error{Kind: restclient.KindDecode, Message: err.Error()}
	}
	return nil
}

func (s *ReferenceService) fetch(ctx context.Context, key, path, subpath, token string, params url.Values) (json.RawMessage, error) {
	fetch := func(ctx context.Context) (json.RawMessage, error) {
		opts := append(localeOptions(ctx), restclient.WithParams(params))
		res := s.factory.Resource(path, token).Do(ctx, http.MethodGet, subpath, nil, opts...)
		if !res.OK() {
			return nil, res.Error
		}
		return res.Data, nil
	}

	if s.cache == nil {
		return fetch(ctx)
	}
	data, _, err := s.cache.Get(ctx, key, fetch)
	return data, err
}

// parseCount accepts 42, {"count": 42}, {"total": 42} or {"data": 42}.
func parseCount(raw json.RawMessage) int {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}

	var envelope struct {
		Count *int `json:"count"`
		Total *int `json:"total"`
		Data  *int `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return 0
	}
	switch {
	case envelope.Count != nil:
		return *envelope.Count
	case envelope.Total != nil:
		return *envelope.Total
	case envelope.Data != nil:
		return *envelope.Data
	}
	return 0
}
