package auth

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/clarion-hms/clarion/internal/shared"
	"github.com/clarion-hms/clarion/internal/view"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	templates      *view.Engine
	sessionManager *shared.SessionManager
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, sessions *shared.SessionManager) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		templates:      templates,
		sessionManager: sessions,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

type loginPageData struct {
	Email string
	Error string
}

// ShowLogin renders the sign-in page. Mounted at /login outside the /auth group
// so unauthenticated redirects have a stable target.
func (h *Handler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	data := loginPageData{}
	switch {
	case r.URL.Query().Get("failed") == "1":
		data.Error = shared.UserSafeMessage(shared.ErrInvalidCredentials)
	case r.URL.Query().Get("expired") == "1":
		data.Error = shared.UserSafeMessage(shared.ErrSessionRequired)
	}
	viewData := view.TemplateData{Title: "Sign in", CurrentPath: r.URL.Path, Data: data}
	if err := h.templates.Render(w, "pages/login.html", viewData); err != nil {
		h.logger.Error("render login", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	form := loginForm{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	if err := h.validator.Struct(form); err != nil {
		http.Redirect(w, r, "/login?failed=1", http.StatusSeeOther)
		return
	}

	user, err := h.service.Authenticate(r.Context(), form.Email, form.Password)
	if err != nil {
		h.logger.Info("login rejected", slog.String("email", form.Email))
		http.Redirect(w, r, "/login?failed=1", http.StatusSeeOther)
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	sess.SetUser(strconv.FormatInt(user.ID, 10), user.Name)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		h.sessionManager.Destroy(sess)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
