package handler

import (
	"encoding/json"
	"net/http"

	"tour-admin-server/internal/domain"
	"tour-admin-server/internal/service"
	"tour-admin-server/internal/state"
	"tour-admin-server/pkg/response"

	"github.com/sirupsen/logrus"
)

// PrefsHandler serves the per-session preferences: country, language and the
// UI slice of the store.
type PrefsHandler struct {
	reference *service.ReferenceService
	registry  *state.Registry
	languages []string
	logger    *logrus.Logger
}

func NewPrefsHandler(reference *service.ReferenceService, registry *state.Registry, languages []string, logger *logrus.Logger) *PrefsHandler {
	return &PrefsHandler{
		reference: reference,
		registry:  registry,
		languages: languages,
		logger:    logger,
	}
}

type CountryData struct {
	SelectedCountry domain.Country `json:"selectedCountry"`
	Cities          []domain.City  `json:"cities"`
}

// SelectCountry switches the session's country. Only countries the backend
// lists are accepted.
func (h *PrefsHandler) SelectCountry(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}

	p, err := bindPayload(r)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	countryID := p.Get("countryId")
	if countryID == "" {
		response.BadRequest(w, "countryId is required")
		return
	}

	token := sess.AuthToken()
	countries, err := h.reference.Countries(r.Context(), token)
	if err != nil {
		h.logger.WithError(err).Warn("countries unavailable")
		response.Error(w, http.StatusBadGateway, "Countries unavailable")
		return
	}

	var selected *domain.Country
	for i := range countries {
		if countries[i].ID == countryID {
			selected = &countries[i]
			break
		}
	}
	if selected == nil {
		response.BadRequest(w, "Unknown country")
		return
	}

	cities, err := h.reference.Cities(r.Context(), selected.ID, token)
	if err != nil {
		h.logger.WithError(err).WithField("country", selected.ID).Warn("cities unavailable")
		cities = []domain.City{}
	}

	sess.SetCountry(*selected)
	h.registry.Dispatch(sess.ID(), state.CountrySelected{Country: *selected, Cities: cities})
	saveSession(w, r, sess, h.logger)

	response.Success(w, CountryData{SelectedCountry: *selected, Cities: cities})
}

func (h *PrefsHandler) SetLanguage(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}

	p, err := bindPayload(r)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	language := p.Get("language")
	if !h.supported(language) {
		response.BadRequest(w, "Unsupported language")
		return
	}

	sess.SetLanguage(language)
	s := h.registry.Dispatch(sess.ID(), state.LanguageChanged{Language: language})
	saveSession(w, r, sess, h.logger)

	response.Success(w, s.UI)
}

func (h *PrefsHandler) supported(language string) bool {
	for _, l := range h.languages {
		if l == language && language != "" {
			return true
		}
	}
	return false
}

// Modal opens the named modal, or closes the open one when no name is given.
func (h *PrefsHandler) Modal(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}

	p, err := bindPayload(r)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	var action state.Action = state.ModalClosed{}
	if name := p.Get("name"); name != "" {
		modal := state.Modal{Name: name}
		if raw := p.Get("props"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &modal.Props); err != nil {
				response.BadRequest(w, "props must be a JSON object")
				return
			}
		}
		action = state.ModalOpened{Modal: modal}
	}

	s := storeFor(h.registry, sess).Dispatch(action)
	response.Success(w, s.UI)
}

// State returns the session's store snapshot.
func (h *PrefsHandler) State(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}

	s := syncAuth(storeFor(h.registry, sess), sess)
	saveSession(w, r, sess, h.logger)
	response.Success(w, s)
}

func (h *PrefsHandler) PriceRange(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}

	countryID := r.URL.Query().Get("countryId")
	if countryID == "" {
		countryID = sess.CountryID()
	}

	priceRange, err := h.reference.PriceRange(r.Context(), countryID, sess.AuthToken())
	if err != nil {
		h.logger.WithError(err).Warn("price range unavailable")
		writeLoader(w, domain.PriceRange{}, &service.ErrorBody{Status: http.StatusBadGateway, Message: "Price range unavailable"})
		return
	}
	response.Success(w, priceRange)
}

func (h *PrefsHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.Success(w, map[string]interface{}{
		"status":   "healthy",
		"service":  "tour-admin-server",
		"sessions": h.registry.Len(),
	})
}
