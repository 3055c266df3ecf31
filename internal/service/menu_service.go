package service

import (
	"context"
	"encoding/json"
	"net/http"

	"tour-admin-server/internal/domain"
	"tour-admin-server/internal/restclient"
)

const menusPath = "/api/menus"

type MenuService struct {
	Resource
}

func NewMenuService(factory *restclient.Factory) *MenuService {
	return &MenuService{Resource: newResource(factory, menusPath)}
}

func (s *MenuService) Dispatch(ctx context.Context, p Payload, token string) Result {
	switch p.Action() {
	case ActionList:
		return s.List(ctx, p, token)
	case ActionCreate:
		return s.create(ctx, menuInput(p), token)
	case ActionUpdate:
		return s.update(ctx, p.Get("id"), menuInput(p), token)
	case ActionDelete:
		return s.delete(ctx, p, token)
	case ActionReorder:
		return s.reorder(ctx, p, token)
	default:
		return InvalidAction()
	}
}

// List returns the menu as a tree. The backend stores flat rows.
func (s *MenuService) List(ctx context.Context, p Payload, token string) Result {
	res := s.client(token).Get(ctx, s.opts(ctx)...)
	if !res.OK() {
		return Result{Data: []*domain.MenuNode{}, Error: remoteError(res.Error)}
	}

	menus := []domain.Menu{}
	if err := domain.DecodeList(res.Data, &menus); err != nil {
		return Result{Data: []*domain.MenuNode{}, Error: &ErrorBody{Status: http.StatusBadGateway, Message: "invalid menu payload"}}
	}
	return Ok(domain.BuildMenuTree(menus))
}

// reorder expects an "items" field holding a JSON array of {id, order, parentId}.
func (s *MenuService) reorder(ctx context.Context, p Payload, token string) Result {
	raw := p.Get("items")
	if errBody := required(map[string]string{"items": raw}); errBody != nil {
		return Result{Error: errBody}
	}

	var items []domain.MenuOrder
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return Fail(http.StatusBadRequest, "items must be a JSON array")
	}
	if len(items) == 0 {
		return Fail(http.StatusBadRequest, "items is required")
	}
	if err := s.validate.Struct(struct {
		Items []domain.MenuOrder `json:"items" validate:"dive"`
	}{items}); err != nil {
		return Result{Error: validationError(err)}
	}

	body := map[string]interface{}{"items": items}
	return fromRemote(s.client(token).Do(ctx, http.MethodPut, "reorder", body, s.opts(ctx)...))
}

func menuInput(p Payload) domain.MenuInput {
	return domain.MenuInput{
		Label:    p.Get("label"),
		Path:     p.Get("path"),
		Icon:     p.Get("icon"),
		ParentID: p.Get("parentId"),
		Order:    p.Int("order"),
	}
}
