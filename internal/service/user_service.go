package service

import (
	"context"
	"net/http"
	"net/url"

	"tour-admin-server/internal/domain"
	"tour-admin-server/internal/restclient"
)

const usersPath = "/api/users"

type UserService struct {
	Resource
}

func NewUserService(factory *restclient.Factory) *UserService {
	return &UserService{Resource: newResource(factory, usersPath)}
}

func (s *UserService) Dispatch(ctx context.Context, p Payload, token string) Result {
	switch p.Action() {
	case ActionList:
		return s.List(ctx, p, token)
	case ActionCreate:
		input := userInput(p)
		if errBody := required(map[string]string{"password": input.Password}); errBody != nil {
			return Result{Error: errBody}
		}
		return s.create(ctx, input, token)
	case ActionUpdate:
		return s.update(ctx, p.Get("id"), userInput(p), token)
	case ActionDelete:
		return s.delete(ctx, p, token)
	case ActionUploadAvatar:
		id := p.Get("id")
		if errBody := required(map[string]string{"id": id}); errBody != nil {
			return Result{Error: errBody}
		}
		return s.upload(ctx, p, token, url.PathEscape(id)+"/avatar", "avatar", nil, "avatar")
	case ActionToggleStatus:
		return s.patchStatus(ctx, p, token, "isActive")
	case ActionAssignRole:
		return s.assignRole(ctx, p, token)
	default:
		return InvalidAction()
	}
}

func (s *UserService) List(ctx context.Context, p Payload, token string) Result {
	return s.list(ctx, p, token, "roleId", "isActive")
}

func (s *UserService) assignRole(ctx context.Context, p Payload, token string) Result {
	id, roleID := p.Get("id"), p.Get("roleId")
	if errBody := required(map[string]string{"id": id, "roleId": roleID}); errBody != nil {
		return Result{Error: errBody}
	}
	body := map[string]string{"roleId": roleID}
	return fromRemote(s.client(token).Do(ctx, http.MethodPatch, url.PathEscape(id)+"/role", body, s.opts(ctx)...))
}

func userInput(p Payload) domain.UserInput {
	return domain.UserInput{
		FirstName: p.Get("firstName"),
		LastName:  p.Get("lastName"),
		Email:     p.Get("email"),
		Password:  p.Get("password"),
		RoleID:    p.Get("roleId"),
	}
}
