package service

import (
	"context"
	"net/url"

	"tour-admin-server/internal/cache"
	"tour-admin-server/internal/domain"
	"tour-admin-server/internal/restclient"
)

const categoriesPath = "/api/categories"

// CategoryService drops the cached reference list on every successful write.
type CategoryService struct {
	Resource
	cache *cache.ReadThrough
}

func NewCategoryService(factory *restclient.Factory, readThrough *cache.ReadThrough) *CategoryService {
	return &CategoryService{Resource: newResource(factory, categoriesPath), cache: readThrough}
}

func (s *CategoryService) Dispatch(ctx context.Context, p Payload, token string) Result {
	switch p.Action() {
	case ActionList:
		return s.List(ctx, p, token)
	case ActionCreate:
		return s.invalidating(ctx, s.create(ctx, categoryInput(p), token))
	case ActionUpdate:
		return s.invalidating(ctx, s.update(ctx, p.Get("id"), categoryInput(p), token))
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

func (s *CategoryService) List(ctx context.Context, p Payload, token string) Result {
	return s.list(ctx, p, token, "isActive")
}

func (s *CategoryService) invalidating(ctx context.Context, res Result) Result {
	if res.Success && s.cache != nil {
		s.cache.Invalidate(ctx, categoriesKey+"|")
	}
	return res
}

func categoryInput(p Payload) domain.CategoryInput {
	return domain.CategoryInput{
		Name:        p.Get("name"),
		Description: p.Get("description"),
		IsActive:    p.Bool("isActive"),
	}
}
