package rest

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrijs2005/recipehub/internal/logging"
	"github.com/dmitrijs2005/recipehub/internal/server/metrics"
)

// RouterConfig wires services and browser-facing settings into the router.
// Recorder, Gatherer, UploadDir and Health are optional.
type RouterConfig struct {
	Sessions      SessionService
	PasswordReset PasswordResetService
	Recipes       RecipeService
	Logger        logging.Logger
	Recorder      Recorder
	Gatherer      prometheus.Gatherer
	Cookie        CookieConfig
	AllowedOrigin string
	UploadDir     string
	Health        func(ctx context.Context) error
}

// NewRouter builds the HTTP API:
//
//	/auth  register, login, forgotPassword, resetPassword, profile, logout
//	/api   recipe reads (public) and writes (session cookie required)
func NewRouter(c RouterConfig) http.Handler {
	log := c.Logger
	if log == nil {
		log = logging.Nop{}
	}
	log = log.With("module", "http")
	rec := c.Recorder
	if rec == nil {
		rec = nopRecorder{}
	}

	h := &handler{
		sessions: c.Sessions,
		resets:   c.PasswordReset,
		recipes:  c.Recipes,
		recorder: rec,
		cookie:   c.Cookie,
		log:      log,
	}

	r := chi.NewRouter()
	r.Use(requestLogger(log, rec))
	r.Use(recoverer(log))
	r.Use(cors(c.AllowedOrigin))

	r.Get("/healthz", healthz(c.Health))
	if c.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(c.Gatherer))
	}
	if c.UploadDir != "" {
		r.Handle("/uploads/*", uploads(c.UploadDir))
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
		r.Post("/forgotPassword", h.forgotPassword)
		r.Post("/resetPassword/{identityId}/{resetToken}", h.resetPassword)
		r.Get("/profile", h.profile)
		r.Post("/logout", h.logout)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/getRecipes", h.listRecipes)
		r.Get("/getRecipes/{id}", h.getRecipe)
		r.Get("/respectiveCategory/{category}", h.recipesByCategory)

		r.Group(func(r chi.Router) {
			r.Use(requireSession(c.Sessions))
			r.Post("/addRecipe", h.addRecipe)
			r.Get("/myRecipes", h.myRecipes)
			r.Put("/editRecipe/{id}", h.editRecipe)
			r.Delete("/recipe/{id}", h.deleteRecipe)
		})
	})

	return r
}

func healthz(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// uploads serves stored cover images without directory listings.
func uploads(dir string) http.Handler {
	fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/uploads/" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		fs.ServeHTTP(w, r)
	})
}
