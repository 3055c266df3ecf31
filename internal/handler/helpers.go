package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"tour-admin-server/internal/service"
	"tour-admin-server/internal/session"
	"tour-admin-server/internal/state"
	"tour-admin-server/pkg/response"

	"github.com/sirupsen/logrus"
)

// bindPayload reads a form body, or a flat JSON object for fetch callers.
func bindPayload(r *http.Request) (service.Payload, error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return service.PayloadFromRequest(r)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return service.Payload{}, fmt.Errorf("invalid JSON body: %w", err)
	}

	values := url.Values{}
	for key, value := range body {
		switch v := value.(type) {
		case nil:
		case string:
			values.Set(key, v)
		case []interface{}:
			for _, item := range v {
				values.Add(key, fmt.Sprint(item))
			}
		case map[string]interface{}:
			raw, _ := json.Marshal(v)
			values.Set(key, string(raw))
		default:
			values.Set(key, fmt.Sprint(v))
		}
	}
	return service.NewPayload(values), nil
}

func currentSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := session.FromContext(r.Context())
	if err != nil {
		response.InternalError(w, "Session unavailable")
		return nil, false
	}
	return sess, true
}

func saveSession(w http.ResponseWriter, r *http.Request, sess *session.Session, logger *logrus.Logger) {
	if !sess.Dirty() {
		return
	}
	if err := sess.Save(w, r); err != nil {
		logger.WithError(err).Error("failed to save session")
	}
}

// storeFor returns the session's store. A session whose cookie the browser
// has not sent back yet gets a detached store, so clients that drop cookies
// leave nothing behind in the registry.
func storeFor(registry *state.Registry, sess *session.Session) *state.AppStore {
	if sess.IsNew() {
		return registry.Detached()
	}
	return registry.Get(sess.ID())
}

// syncAuth lines the session's store up with what the cookie says, which
// matters after a restart wiped the in-memory stores.
func syncAuth(store *state.AppStore, sess *session.Session) state.AppState {
	current := store.State()

	switch token, pending := sess.AuthToken(), sess.PendingToken(); {
	case token != "":
		if a, ok := current.Auth.(state.Authenticated); !ok || a.Token != token {
			return store.Dispatch(state.SessionRestored{Token: token})
		}
	case pending != "":
		if p, ok := current.Auth.(state.PendingOTP); !ok || p.Token != pending {
			return store.Dispatch(state.PasswordVerified{Token: pending, User: sess.PendingUser()})
		}
	default:
		if _, ok := current.Auth.(state.Anonymous); !ok {
			return store.Dispatch(state.LoggedOut{})
		}
	}
	return current
}

// writeResult answers an action with the result's own status.
func writeResult(w http.ResponseWriter, res service.Result) {
	body := response.Response{Success: res.Success, Data: res.Data}
	if res.Error != nil {
		body.Error = res.Error.Message
	}
	response.Envelope(w, res.Status(), body)
}

// writeLoader always answers 200: a loader that lost the backend still
// renders, with empty shapes and the error alongside.
func writeLoader(w http.ResponseWriter, data interface{}, errBody *service.ErrorBody) {
	body := response.Response{Success: errBody == nil, Data: data}
	if errBody != nil {
		body.Error = errBody.Message
	}
	response.Envelope(w, http.StatusOK, body)
}
