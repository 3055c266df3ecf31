package service

import (
	"context"
	"net/http"
	"net/url"

	"tour-admin-server/internal/domain"
	"tour-admin-server/internal/restclient"
)

const toursPath = "/api/tours"

type TourService struct {
	Resource
}

func NewTourService(factory *restclient.Factory) *TourService {
	return &TourService{Resource: newResource(factory, toursPath)}
}

func (s *TourService) Dispatch(ctx context.Context, p Payload, token string) Result {
	switch p.Action() {
	case ActionList:
		return s.List(ctx, p, token)
	case ActionGet:
		return s.get(ctx, p, token)
	case ActionCreate:
		return s.create(ctx, tourInput(p), token)
	case ActionUpdate:
		return s.update(ctx, p.Get("id"), tourInput(p), token)
	case ActionDelete:
		return s.delete(ctx, p, token)
	case ActionToggleStatus:
		return s.patchStatus(ctx, p, token, "isActive")
	case ActionUploadImages:
		return s.uploadImages(ctx, p, token)
	case ActionDeleteImage:
		return s.deleteImage(ctx, p, token)
	default:
		return InvalidAction()
	}
}

// List filters by city, category, status and price bounds.
func (s *TourService) List(ctx context.Context, p Payload, token string) Result {
	return s.list(ctx, p, token, "cityId", "categoryId", "status", "minPrice", "maxPrice", "countryId")
}

func (s *TourService) uploadImages(ctx context.Context, p Payload, token string) Result {
	id := p.Get("id")
	if errBody := required(map[string]string{"id": id}); errBody != nil {
		return Result{Error: errBody}
	}

	fields := map[string]string{}
	if cover := p.Bool("setCover"); cover != nil && *cover {
		fields["setCover"] = "true"
	}
	return s.upload(ctx, p, token, url.PathEscape(id)+"/images", "images", fields, "images", "images[]")
}

func (s *TourService) deleteImage(ctx context.Context, p Payload, token string) Result {
	id, imageID := p.Get("id"), p.Get("imageId")
	if errBody := required(map[string]string{"id": id, "imageId": imageID}); errBody != nil {
		return Result{Error: errBody}
	}
	subpath := url.PathEscape(id) + "/images/" + url.PathEscape(imageID)
	return fromRemote(s.client(token).Do(ctx, http.MethodDelete, subpath, nil, s.opts(ctx)...))
}

func tourInput(p Payload) domain.TourInput {
	return domain.TourInput{
		Title:       p.Get("title"),
		Description: p.Get("description"),
		CityID:      p.Get("cityId"),
		CategoryIDs: p.List("categoryIds"),
		Price:       p.Float("price"),
		Currency:    p.Get("currency"),
		Duration:    p.Get("duration"),
		IsActive:    p.Bool("isActive"),
	}
}
