package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"doodoologserver/internal/auth"
	"doodoologserver/internal/email"
	"doodoologserver/internal/service"
)

type RouterOpts struct {
	Logger *slog.Logger
	IsProd bool

	DBPing func(context.Context) error

	Auth         *service.AuthService
	Friends      *service.FriendsService
	Logs         *service.LogsService
	Users        *service.UsersService
	Profile      *service.ProfileService
	Feed         *service.FeedService
	Reset        *service.PasswordResetService
	Email        *email.Sender
	PublicURL    *url.URL
	CookieCodec  auth.CookieCodec
	CookieSecure bool
	SessionTTL   time.Duration
}

func NewRouter(opts RouterOpts) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	api := &api{
		logger:       logger,
		isProd:       opts.IsProd,
		dbPing:       opts.DBPing,
		authSvc:      opts.Auth,
		friendsSvc:   opts.Friends,
		logsSvc:      opts.Logs,
		usersSvc:     opts.Users,
		profileSvc:   opts.Profile,
		feedSvc:      opts.Feed,
		resetSvc:     opts.Reset,
		emailSender:  opts.Email,
		publicURL:    opts.PublicURL,
		cookieCodec:  opts.CookieCodec,
		cookieSecure: opts.CookieSecure,
		sessionTTL:   opts.SessionTTL,
		loginLimiter: newLoginLimiter(),
	}

	publicMux := http.NewServeMux()
	apiMux := http.NewServeMux()

	publicMux.HandleFunc("GET /healthz", api.handleHealthz)

	if api.authSvc == nil {
		apiMux.HandleFunc("POST /v1/auth/register", handleNotImplemented)
		apiMux.HandleFunc("POST /v1/auth/login", handleNotImplemented)
		apiMux.HandleFunc("POST /v1/auth/logout", handleNotImplemented)
		apiMux.HandleFunc("GET /v1/users/me", handleNotImplemented)
	} else {
		apiMux.HandleFunc("POST /v1/auth/register", api.handleAuthRegister)
		apiMux.HandleFunc("POST /v1/auth/login", api.handleAuthLogin)
		apiMux.HandleFunc("POST /v1/auth/forgot", api.handleAuthForgot)
		apiMux.HandleFunc("POST /v1/auth/reset", api.handleAuthReset)
		apiMux.HandleFunc("POST /v1/auth/logout", api.requireAuth(api.handleAuthLogout))
		apiMux.HandleFunc("GET /v1/users/me", api.requireAuth(api.handleUsersMe))
		if api.profileSvc != nil {
			apiMux.HandleFunc("PATCH /v1/users/me", api.requireAuth(api.handleUsersMeUpdate))
		}
		if api.usersSvc != nil {
			apiMux.HandleFunc("GET /v1/users/search", api.requireAuth(api.handleUsersSearch))
		}

		if api.friendsSvc != nil {
			apiMux.HandleFunc("GET /v1/friends", api.requireAuth(api.handleFriendsList))
			apiMux.HandleFunc("POST /v1/friends/requests", api.requireAuth(api.handleFriendsCreateRequest))
			apiMux.HandleFunc("POST /v1/friends/requests/{userID}/accept", api.requireAuth(api.handleFriendsAccept))
			apiMux.HandleFunc("POST /v1/friends/requests/{userID}/deny", api.requireAuth(api.handleFriendsDeny))
			apiMux.HandleFunc("POST /v1/friends/requests/{userID}/cancel", api.requireAuth(api.handleFriendsCancel))
			apiMux.HandleFunc("DELETE /v1/friends/{userID}", api.requireAuth(api.handleFriendsRemove))
		}

		if api.logsSvc != nil {
			apiMux.HandleFunc("POST /v1/logs", api.requireAuth(api.handleLogsCreate))
			apiMux.HandleFunc("GET /v1/logs", api.requireAuth(api.handleLogsList))
			apiMux.HandleFunc("DELETE /v1/logs/commentary", api.requireAuth(api.handleLogsClearCommentary))
			apiMux.HandleFunc("DELETE /v1/logs/{id}", api.requireAuth(api.handleLogsDelete))
			apiMux.HandleFunc("GET /v1/stats/daily", api.requireAuth(api.handleStatsDaily))
			apiMux.HandleFunc("POST /v1/users/me/prestige", api.requireAuth(api.handleUsersMePrestige))
		}

		if api.feedSvc != nil {
			apiMux.HandleFunc("GET /v1/feed", api.requireAuth(api.handleFeed))
			apiMux.HandleFunc("POST /v1/feed/{entryID}/reactions", api.requireAuth(api.handleFeedReact))
		}
	}

	apiHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, pattern := apiMux.Handler(r)
		if pattern == "" {
			handleV1NotFound(w, r)
			return
		}
		apiMux.ServeHTTP(w, r)
	})

	root := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/v1/") || r.URL.Path == "/v1" {
			apiHandler.ServeHTTP(w, r)
			return
		}
		publicMux.ServeHTTP(w, r)
	})

	var h http.Handler = root
	h = RequestLogger(logger)(h)
	h = RequestID()(h)
	h = Recoverer(logger, opts.IsProd)(h)
	return h
}

func handleNotImplemented(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, http.StatusNotImplemented, "not_implemented", "not implemented")
}

func handleV1NotFound(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, http.StatusNotFound, "not_found", "not found")
}

type api struct {
	logger *slog.Logger
	isProd bool

	dbPing func(context.Context) error

	authSvc      *service.AuthService
	friendsSvc   *service.FriendsService
	logsSvc      *service.LogsService
	usersSvc     *service.UsersService
	profileSvc   *service.ProfileService
	feedSvc      *service.FeedService
	resetSvc     *service.PasswordResetService
	emailSender  *email.Sender
	publicURL    *url.URL
	cookieCodec  auth.CookieCodec
	cookieSecure bool
	sessionTTL   time.Duration

	loginLimiter *loginLimiter
}

func (a *api) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if a.dbPing != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()
		if err := a.dbPing(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db down"))
			return
		}
	}

	_, _ = w.Write([]byte("ok"))
}
