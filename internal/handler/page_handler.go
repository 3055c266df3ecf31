package handler

import (
	"context"
	"net/http"

	"tour-admin-server/internal/middleware"
	"tour-admin-server/internal/service"
	"tour-admin-server/internal/session"
	"tour-admin-server/internal/state"
	"tour-admin-server/pkg/response"

	"github.com/sirupsen/logrus"
)

// Module is what a dashboard page needs from its business logic.
type Module interface {
	service.Dispatcher
	List(ctx context.Context, p service.Payload, token string) service.Result
}

// LoaderExtra adds page specific data next to the listing under key.
type LoaderExtra struct {
	Key  string
	Load func(ctx context.Context, b *service.Bootstrap, token string) (interface{}, error)
}

type PageData struct {
	Reference *service.Bootstrap     `json:"reference"`
	Auth      state.AuthView         `json:"auth"`
	Language  string                 `json:"language"`
	List      interface{}            `json:"list,omitempty"`
	Extra     map[string]interface{} `json:"extra,omitempty"`
}

type PageHandler struct {
	reference *service.ReferenceService
	registry  *state.Registry
	logger    *logrus.Logger
}

func NewPageHandler(reference *service.ReferenceService, registry *state.Registry, logger *logrus.Logger) *PageHandler {
	return &PageHandler{
		reference: reference,
		registry:  registry,
		logger:    logger,
	}
}

// bootstrap runs the root loader sequence and mirrors it into the session's
// store. The caller saves the session.
func (h *PageHandler) bootstrap(r *http.Request, sess *session.Session) (*service.Bootstrap, state.AppState) {
	store := storeFor(h.registry, sess)
	syncAuth(store, sess)

	b := h.reference.Load(r.Context(), sess.AuthToken(), sess.CountryID())
	if b.CountryChanged {
		sess.SetCountry(b.Country)
	}

	s := store.Dispatch(state.ReferenceLoaded{
		Countries:  b.Countries,
		Cities:     b.Cities,
		Categories: b.Categories,
		Selected:   b.Country,
	})
	return b, s
}

func (h *PageHandler) pageData(b *service.Bootstrap, s state.AppState) *PageData {
	return &PageData{
		Reference: b,
		Auth:      state.View(s.Auth),
		Language:  s.UI.Language,
	}
}

// Bootstrap serves the root loader on its own.
func (h *PageHandler) Bootstrap(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}

	b, s := h.bootstrap(r, sess)
	saveSession(w, r, sess, h.logger)
	response.Success(w, h.pageData(b, s))
}

// Loader answers GET on a dashboard page: reference data plus the module's
// listing, filtered by the query string.
func (h *PageHandler) Loader(module Module, extras ...LoaderExtra) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(w, r)
		if !ok {
			return
		}

		b, s := h.bootstrap(r, sess)
		token := sess.AuthToken()

		query := r.URL.Query()
		if query.Get("countryId") == "" && b.Country.ID != "" {
			query.Set("countryId", b.Country.ID)
		}
		list := module.List(r.Context(), service.NewPayload(query), token)
		if list.Error != nil && list.Error.Status == http.StatusUnauthorized {
			h.dropAuth(r, sess, storeFor(h.registry, sess))
			saveSession(w, r, sess, h.logger)
			response.Redirect(w, r, middleware.LoginPath)
			return
		}

		data := h.pageData(b, s)
		data.List = list.Data
		for _, extra := range extras {
			value, err := extra.Load(r.Context(), b, token)
			if err != nil {
				h.logger.WithError(err).WithField("extra", extra.Key).Warn("loader extra failed")
				continue
			}
			if data.Extra == nil {
				data.Extra = make(map[string]interface{})
			}
			data.Extra[extra.Key] = value
		}

		saveSession(w, r, sess, h.logger)
		writeLoader(w, data, list.Error)
	}
}

// Action answers POST on a dashboard page by dispatching the form's action.
func (h *PageHandler) Action(module service.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(w, r)
		if !ok {
			return
		}

		payload, err := bindPayload(r)
		if err != nil {
			response.BadRequest(w, err.Error())
			return
		}

		store := h.registry.Get(sess.ID())
		store.Dispatch(state.LoadingStarted{})
		res := module.Dispatch(r.Context(), payload, sess.AuthToken())
		store.Dispatch(state.LoadingFinished{})

		if res.Error != nil && res.Error.Status == http.StatusUnauthorized {
			h.dropAuth(r, sess, store)
		}

		saveSession(w, r, sess, h.logger)
		writeResult(w, res)
	}
}

// dropAuth forgets a token the backend no longer accepts.
func (h *PageHandler) dropAuth(r *http.Request, sess *session.Session, store *state.AppStore) {
	h.logger.WithField("user_id", middleware.GetUserID(r)).Info("backend rejected session token, logging out")
	sess.ClearAuth()
	store.Dispatch(state.LoggedOut{})
}

func PriceRangeExtra(reference *service.ReferenceService) LoaderExtra {
	return LoaderExtra{
		Key: "priceRange",
		Load: func(ctx context.Context, b *service.Bootstrap, token string) (interface{}, error) {
			return reference.PriceRange(ctx, b.Country.ID, token)
		},
	}
}

func PermissionsExtra(roles *service.RoleService) LoaderExtra {
	return LoaderExtra{
		Key: "permissions",
		Load: func(ctx context.Context, _ *service.Bootstrap, token string) (interface{}, error) {
			res := roles.Permissions(ctx, token)
			if res.Error != nil {
				return nil, res.Error
			}
			return res.Data, nil
		},
	}
}
