package service

import (
	"context"
	"net/http"
	"net/url"

	"tour-admin-server/internal/domain"
	"tour-admin-server/internal/restclient"
)

const (
	rolesPath       = "/api/roles"
	permissionsPath = "/api/permissions"
)

type RoleService struct {
	Resource
	permissions Resource
}

func NewRoleService(factory *restclient.Factory) *RoleService {
	return &RoleService{
		Resource:    newResource(factory, rolesPath),
		permissions: newResource(factory, permissionsPath),
	}
}

func (s *RoleService) Dispatch(ctx context.Context, p Payload, token string) Result {
	switch p.Action() {
	case ActionList:
		return s.List(ctx, p, token)
	case ActionCreate:
		return s.create(ctx, roleInput(p), token)
	case ActionUpdate:
		return s.update(ctx, p.Get("id"), roleInput(p), token)
	case ActionDelete:
		return s.delete(ctx, p, token)
	case ActionAssignPermission:
		return s.assignPermissions(ctx, p, token)
	case ActionRemovePermission:
		return s.removePermission(ctx, p, token)
	default:
		return InvalidAction()
	}
}

func (s *RoleService) List(ctx context.Context, p Payload, token string) Result {
	return s.list(ctx, p, token)
}

// Permissions lists every permission a role can be granted.
func (s *RoleService) Permissions(ctx context.Context, token string) Result {
	return s.permissions.list(ctx, NewPayload(url.Values{"limit": {"100"}}), token)
}

func (s *RoleService) assignPermissions(ctx context.Context, p Payload, token string) Result {
	id := p.Get("id")
	if errBody := required(map[string]string{"id": id}); errBody != nil {
		return Result{Error: errBody}
	}

	input := domain.RolePermissionsInput{PermissionIDs: p.List("permissionIds")}
	if err := s.validate.Struct(input); err != nil {
		return Result{Error: validationError(err)}
	}
	return fromRemote(s.client(token).Do(ctx, http.MethodPost, url.PathEscape(id)+"/permissions", input, s.opts(ctx)...))
}

func (s *RoleService) removePermission(ctx context.Context, p Payload, token string) Result {
	id, permissionID := p.Get("id"), p.Get("permissionId")
	if errBody := required(map[string]string{"id": id, "permissionId": permissionID}); errBody != nil {
		return Result{Error: errBody}
	}
	subpath := url.PathEscape(id) + "/permissions/" + url.PathEscape(permissionID)
	return fromRemote(s.client(token).Do(ctx, http.MethodDelete, subpath, nil, s.opts(ctx)...))
}

func roleInput(p Payload) domain.RoleInput {
	return domain.RoleInput{
		Name:        p.Get("name"),
		Description: p.Get("description"),
	}
}
