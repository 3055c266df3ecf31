package handler

import (
	"net/http"

	"tour-admin-server/internal/service"
	"tour-admin-server/pkg/response"

	"github.com/gorilla/mux"
)

// Page is one dashboard route with its module and loader extras.
type Page struct {
	Path   string
	Module Module
	Extras []LoaderExtra
}

type Handlers struct {
	Auth      *AuthHandler
	Pages     *PageHandler
	Prefs     *PrefsHandler
	WebSocket *WebSocketHandler
}

// NewRouter mounts every route. Middlewares run in the order given, the first
// being the outermost.
func NewRouter(h Handlers, pages []Page, middlewares ...mux.MiddlewareFunc) *mux.Router {
	r := mux.NewRouter()
	for _, mw := range middlewares {
		r.Use(mw)
	}
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.HandleFunc("/health", h.Prefs.Health).Methods("GET")
	r.HandleFunc("/ws", h.WebSocket.HandleConnection).Methods("GET")

	r.HandleFunc("/", h.Auth.Page).Methods("GET", "OPTIONS")
	r.HandleFunc("/", h.Auth.Login).Methods("POST")
	r.HandleFunc("/verify-otp", h.Auth.Page).Methods("GET", "OPTIONS")
	r.HandleFunc("/verify-otp", h.Auth.VerifyOTP).Methods("POST")
	r.HandleFunc("/logout", h.Auth.Logout).Methods("POST", "OPTIONS")
	r.HandleFunc("/register", h.Auth.Page).Methods("GET", "OPTIONS")
	r.HandleFunc("/register", h.Auth.Register).Methods("POST")
	r.HandleFunc("/forgotPassword", h.Auth.Page).Methods("GET", "OPTIONS")
	r.HandleFunc("/forgotPassword", h.Auth.ForgotPassword).Methods("POST")
	for _, path := range []string{"/newPassword", "/resetPassword"} {
		r.HandleFunc(path, h.Auth.Page).Methods("GET", "OPTIONS")
		r.HandleFunc(path, h.Auth.ResetPassword).Methods("POST")
	}

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/bootstrap", h.Pages.Bootstrap).Methods("GET", "OPTIONS")
	api.HandleFunc("/state", h.Prefs.State).Methods("GET", "OPTIONS")
	api.HandleFunc("/price-range", h.Prefs.PriceRange).Methods("GET", "OPTIONS")
	api.HandleFunc("/country", h.Prefs.SelectCountry).Methods("POST", "OPTIONS")
	api.HandleFunc("/language", h.Prefs.SetLanguage).Methods("POST", "OPTIONS")
	api.HandleFunc("/ui/modal", h.Prefs.Modal).Methods("POST", "OPTIONS")

	for _, page := range pages {
		r.Handle(page.Path, h.Pages.Loader(page.Module, page.Extras...)).Methods("GET", "OPTIONS")
		r.Handle(page.Path, h.Pages.Action(page.Module)).Methods("POST")
	}

	return r
}

// Services is the set of page modules behind the dashboard.
type Services struct {
	Reference  *service.ReferenceService
	Dashboard  *service.DashboardService
	Tours      *service.TourService
	Cities     *service.CityService
	Categories *service.CategoryService
	Menus      *service.MenuService
	Roles      *service.RoleService
	Users      *service.UserService
	Offers     *service.OfferService
	Terms      *service.TermService
}

func DashboardPages(s Services) []Page {
	return []Page{
		{Path: "/dashboard", Module: s.Dashboard},
		{Path: "/tours", Module: s.Tours, Extras: []LoaderExtra{PriceRangeExtra(s.Reference)}},
		{Path: "/cities", Module: s.Cities},
		{Path: "/categories", Module: s.Categories},
		{Path: "/menus", Module: s.Menus},
		{Path: "/roles", Module: s.Roles, Extras: []LoaderExtra{PermissionsExtra(s.Roles)}},
		{Path: "/users", Module: s.Users},
		{Path: "/offers", Module: s.Offers},
		{Path: "/terms-conditions", Module: s.Terms},
	}
}
