package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/liftlog/internal/telemetry/tracing"
	"github.com/2beens/liftlog/pkg"
)

type LoginResponse struct {
	Token string `json:"token"`
}

// Handler serves /a/login and /a/logout. JSON clients get the token in the
// response body; form posts from the dashboard get a session cookie and a redirect.
type Handler struct {
	authService *Service
	ttl         time.Duration
	now         func() time.Time
}

func NewHandler(authService *Service, ttl time.Duration) *Handler {
	return &Handler{
		authService: authService,
		ttl:         ttl,
		now:         time.Now,
	}
}

// SetupRoutes registers login routes on a /a subrouter and returns it, so
// callers can attach rate limiting to it.
func (handler *Handler) SetupRoutes(r *mux.Router) *mux.Router {
	loginRouter := r.PathPrefix("/a").Subrouter()
	loginRouter.HandleFunc("/login", handler.HandleLogin).Methods("POST", "OPTIONS").Name("login")
	loginRouter.HandleFunc("/logout", handler.HandleLogout).Methods("GET", "POST", "OPTIONS").Name("logout")
	return loginRouter
}

func (handler *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.login")
	defer span.End()

	isJSON := pkg.IsJSONRequest(r)

	var credentials Credentials
	if isJSON {
		if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
			log.Errorf("login, unmarshal json params: %s", err)
			http.Error(w, "login failed", http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			log.Errorf("login failed, parse form error: %s", err)
			http.Error(w, "parse form error", http.StatusBadRequest)
			return
		}
		credentials = Credentials{
			Username: r.PostForm.Get("username"),
			Password: r.PostForm.Get("password"),
		}
	}

	if credentials.Username == "" || credentials.Password == "" {
		handler.loginFailed(w, r, isJSON, "error, username or password empty", http.StatusBadRequest)
		return
	}

	token, err := handler.authService.Login(ctx, credentials, handler.now())
	if errors.Is(err, ErrWrongUsername) || errors.Is(err, ErrWrongPassword) {
		log.Tracef("failed login attempt for user %s: %s", credentials.Username, err)
		handler.loginFailed(w, r, isJSON, "error, wrong credentials", http.StatusUnauthorized)
		return
	}
	if err != nil {
		log.Errorf("login failed: %s", err)
		http.Error(w, "login error", http.StatusInternalServerError)
		return
	}

	log.Trace("new login success")
	if !isJSON {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    token,
			Path:     "/",
			MaxAge:   int(handler.ttl.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		redirectHome(w, r, "success", "Logged in.")
		return
	}

	respJson, err := json.Marshal(LoginResponse{Token: token})
	if err != nil {
		http.Error(w, "marshal token error", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSONResponseOK(w, string(respJson))
}

func (handler *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.logout")
	defer span.End()

	fromCookie := r.Header.Get(TokenHeader) == ""
	authToken := TokenFromRequest(r)
	if authToken == "" {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	loggedOut, err := handler.authService.Logout(ctx, authToken)
	if err != nil || !loggedOut {
		log.Tracef("[failed logout] => %s: %v", r.URL.Path, err)
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	if fromCookie {
		http.SetCookie(w, &http.Cookie{
			Name:   SessionCookie,
			Value:  "",
			Path:   "/",
			MaxAge: -1,
		})
		redirectHome(w, r, "success", "Logged out.")
		return
	}

	pkg.WriteTextResponseOK(w, "logged-out")
}

func (handler *Handler) loginFailed(w http.ResponseWriter, r *http.Request, isJSON bool, msg string, status int) {
	if isJSON {
		http.Error(w, msg, status)
		return
	}
	redirectHome(w, r, "error", "Login failed.")
}

func redirectHome(w http.ResponseWriter, r *http.Request, level, msg string) {
	q := url.Values{}
	q.Set("msg", msg)
	q.Set("level", level)
	http.Redirect(w, r, "/?"+q.Encode(), http.StatusSeeOther)
}
