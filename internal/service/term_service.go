package service

import (
	"context"

	"tour-admin-server/internal/domain"
	"tour-admin-server/internal/restclient"
)

const termsPath = "/api/terms-conditions"

type TermService struct {
	Resource
}

func NewTermService(factory *restclient.Factory) *TermService {
	return &TermService{Resource: newResource(factory, termsPath)}
}

func (s *TermService) Dispatch(ctx context.Context, p Payload, token string) Result {
	switch p.Action() {
	case ActionList:
		return s.List(ctx, p, token)
	case ActionGet:
		return s.get(ctx, p, token)
	case ActionCreate:
		return s.create(ctx, termInput(p), token)
	case ActionUpdate:
		return s.update(ctx, p.Get("id"), termInput(p), token)
	case ActionDelete:
		return s.delete(ctx, p, token)
	default:
		return InvalidAction()
	}
}

func (s *TermService) List(ctx context.Context, p Payload, token string) Result {
	return s.list(ctx, p, token, "language")
}

func termInput(p Payload) domain.TermInput {
	return domain.TermInput{
		Title:    p.Get("title"),
		Content:  p.Get("content"),
		Language: p.Get("language"),
		Version:  p.Get("version"),
	}
}
