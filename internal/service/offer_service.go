package service

import (
	"context"

	"tour-admin-server/internal/domain"
	"tour-admin-server/internal/restclient"
)

const offersPath = "/api/offers"

type OfferService struct {
	Resource
}

func NewOfferService(factory *restclient.Factory) *OfferService {
	return &OfferService{Resource: newResource(factory, offersPath)}
}

func (s *OfferService) Dispatch(ctx context.Context, p Payload, token string) Result {
	switch p.Action() {
	case ActionList:
		return s.List(ctx, p, token)
	case ActionCreate:
		return s.create(ctx, offerInput(p), token)
	case ActionUpdate:
		return s.update(ctx, p.Get("id"), offerInput(p), token)
	case ActionDelete:
		return s.delete(ctx, p, token)
	case ActionToggleActive:
		return s.patchStatus(ctx, p, token, "isActive")
	default:
		return InvalidAction()
	}
}

func (s *OfferService) List(ctx context.Context, p Payload, token string) Result {
	return s.list(ctx, p, token, "tourId", "isActive", "countryId")
}

func offerInput(p Payload) domain.OfferInput {
	return domain.OfferInput{
		Title:      p.Get("title"),
		TourID:     p.Get("tourId"),
		Discount:   p.Float("discount"),
		StartsAt:   p.Get("startsAt"),
		EndsAt:     p.Get("endsAt"),
		IsActive:   p.Bool("isActive"),
		CountryIDs: p.List("countryIds"),
	}
}
