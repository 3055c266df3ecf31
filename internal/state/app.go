package state

import (
	"encoding/json"

	"tour-admin-server/internal/domain"
)

// Action is anything the app reducer understands.
type Action interface {
	isAction()
}

type ReferenceState struct {
	Countries       []domain.Country  `json:"countries"`
	Cities          []domain.City     `json:"cities"`
	Categories      []domain.Category `json:"categories"`
	SelectedCountry *domain.Country   `json:"selectedCountry"`
}

type Modal struct {
	Name  string                 `json:"name"`
	Props map[string]interface{} `json:"props,omitempty"`
}

type UIState struct {
	Language string `json:"language"`
	Loading  int    `json:"loading"`
	Modal    *Modal `json:"modal"`
}

// AppState is everything kept for one browser session.
type AppState struct {
	Auth      AuthState
	Reference ReferenceState
	UI        UIState
}

func (s AppState) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Auth      AuthView       `json:"auth"`
		Reference ReferenceState `json:"reference"`
		UI        UIState        `json:"ui"`
	}{View(s.Auth), s.Reference, s.UI})
}

func InitialState(language string) AppState {
	return AppState{
		Auth: Anonymous{},
		Reference: ReferenceState{
			Countries:  []domain.Country{},
			Cities:     []domain.City{},
			Categories: []domain.Category{},
		},
		UI: UIState{Language: language},
	}
}

// ReferenceLoaded replaces the reference lists with a fresh load.
type ReferenceLoaded struct {
	Countries  []domain.Country
	Cities     []domain.City
	Categories []domain.Category
	Selected   domain.Country
}

// CountrySelected switches the selected country and its cities.
type CountrySelected struct {
	Country domain.Country
	Cities  []domain.City
}

type LanguageChanged struct {
	Language string
}

type LoadingStarted struct{}

type LoadingFinished struct{}

type ModalOpened struct {
	Modal Modal
}

type ModalClosed struct{}

func (ReferenceLoaded) isAction() {}
func (CountrySelected) isAction() {}
func (LanguageChanged) isAction() {}
func (LoadingStarted) isAction()  {}
func (LoadingFinished) isAction() {}
func (ModalOpened) isAction()     {}
func (ModalClosed) isAction()     {}

func Reduce(s AppState, action Action) AppState {
	s.Auth = ReduceAuth(s.Auth, action)

	switch a := action.(type) {
	case ReferenceLoaded:
		selected := a.Selected
		s.Reference = ReferenceState{
			Countries:       nonNil(a.Countries),
			Cities:          nonNil(a.Cities),
			Categories:      nonNil(a.Categories),
			SelectedCountry: &selected,
		}
	case CountrySelected:
		selected := a.Country
		s.Reference.SelectedCountry = &selected
		s.Reference.Cities = nonNil(a.Cities)
	case LanguageChanged:
		if a.Language != "" {
			s.UI.Language = a.Language
		}
	case LoadingStarted:
		s.UI.Loading++
	case LoadingFinished:
		if s.UI.Loading > 0 {
			s.UI.Loading--
		}
	case ModalOpened:
		modal := a.Modal
		s.UI.Modal = &modal
	case ModalClosed:
		s.UI.Modal = nil
	case LoggedOut:
		s.UI.Modal = nil
		s.UI.Loading = 0
	}

	return s
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
