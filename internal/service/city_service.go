package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"tour-admin-server/internal/cache"
	"tour-admin-server/internal/domain"
	"tour-admin-server/internal/restclient"
)

const (
	citiesPath     = "/api/cities"
	citiesCacheKey = "cities"
)

// CityService lists cities per country through the read-through cache and
// drops cached listings whenever a city changes.
type CityService struct {
	Resource
	cache *cache.ReadThrough
}

func NewCityService(factory *restclient.Factory, readThrough *cache.ReadThrough) *CityService {
	return &CityService{Resource: newResource(factory, citiesPath), cache: readThrough}
}

func (s *CityService) Dispatch(ctx context.Context, p Payload, token string) Result {
	switch p.Action() {
	case ActionList:
		return s.List(ctx, p, token)
	case ActionCreate:
		return s.invalidating(ctx, s.create(ctx, cityInput(p), token))
	case ActionUpdate:
		return s.invalidating(ctx, s.update(ctx, p.Get("id"), cityInput(p), token))
	case ActionDelete:
		return s.invalidating(ctx, s.delete(ctx, p, token))
	case ActionUploadImage:
		id := p.Get("id")
		if errBody := required(map[string]string{"id": id}); errBody != nil {
			return Result{Error: errBody}
		}
		return s.invalidating(ctx, s.upload(ctx, p, token, url.PathEscape(id)+"/image", "image", nil, "image"))
	default:
		return InvalidAction()
	}
}

// List returns the cities of the payload's countryId, or of every country
// when it is absent.
func (s *CityService) List(ctx context.Context, p Payload, token string) Result {
	q := p.PageQuery()
	params := p.listParams("countryId", "isActive")

	data, err := s.cached(ctx, params, token)
	if err != nil {
		return Result{Data: domain.EmptyPage(q), Error: errorBodyFrom(err)}
	}
	return Ok(domain.ParsePage(data, q))
}

// ForCountry is the loader path: all cities of one country, decoded.
func (s *CityService) ForCountry(ctx context.Context, countryID, token string) ([]domain.City, error) {
	params := url.Values{}
	params.Set("countryId", countryID)
	params.Set("page", "1")
	params.Set("limit", strconv.Itoa(domain.MaxLimit))

	data, err := s.cached(ctx, params, token)
	if err != nil {
		return nil, err
	}

	cities := []domain.City{}
	if err := domain.DecodeList(data, &cities); err != nil {
		return nil, &restclient.Error{Kind: restclient.KindDecode, Message: err.Error()}
	}
	return cities, nil
}

func (s *CityService) cached(ctx context.Context, params url.Values, token string) (json.RawMessage, error) {
	fetch := func(ctx context.Context) (json.RawMessage, error) {
		res := s.client(token).Get(ctx, s.opts(ctx, restclient.WithParams(params))...)
		if !res.OK() {
			return nil, res.Error
		}
		return res.Data, nil
	}

	if s.cache == nil {
		return fetch(ctx)
	}

	key := cache.Key(citiesCacheKey, params.Get("countryId"), params.Get("page"), params.Get("limit"),
		params.Get("search"), cache.Fold(params.Get("isActive")), cache.Fold(languageFrom(ctx)))
	data, _, err := s.cache.Get(ctx, key, fetch)
	return data, err
}

func (s *CityService) invalidating(ctx context.Context, res Result) Result {
	if res.Success && s.cache != nil {
		s.cache.Invalidate(ctx, citiesCacheKey+"|")
	}
	return res
}

func cityInput(p Payload) domain.CityInput {
	return domain.CityInput{
		Name:        p.Get("name"),
		CountryID:   p.Get("countryId"),
		Description: p.Get("description"),
		IsActive:    p.Bool("isActive"),
	}
}

// errorBodyFrom maps errors coming back through the cache.
func errorBodyFrom(err error) *ErrorBody {
	var remote *restclient.Error
	if errors.As(err, &remote) {
		return remoteError(remote)
	}
	return &ErrorBody{Status: http.StatusInternalServerError, Message: err.Error()}
}
