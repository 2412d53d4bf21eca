package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pingmatch/ping/internal/app"
	"github.com/pingmatch/ping/internal/auth"
	"github.com/pingmatch/ping/internal/blob"
	"github.com/pingmatch/ping/internal/db"
)

// NewRouter wires every route the API exposes.
func NewRouter(appCtx *app.AppContext, store *blob.Store) http.Handler {
	h := NewHandlers(appCtx, store)
	r := mux.NewRouter()

	r.HandleFunc("/healthz", h.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.PathPrefix("/uploads/").Handler(
		http.StripPrefix("/uploads/", http.FileServer(http.Dir(store.Dir()))))

	api := r.PathPrefix("/api").Subrouter()

	// public
	api.HandleFunc("/auth/register", h.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", h.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/auth/verify", h.handleVerify).Methods(http.MethodPost)
	api.HandleFunc("/billing/webhook", h.handleBillingWebhook).Methods(http.MethodPost)

	// authenticated
	authed := api.NewRoute().Subrouter()
	authed.Use(auth.Middleware(appCtx.Cfg.Auth.JWTSecret))
	authed.HandleFunc("/auth/logout", h.handleLogout).Methods(http.MethodPost)
	authed.HandleFunc("/auth/me", h.handleMe).Methods(http.MethodGet)
	authed.HandleFunc("/profile", h.handleGetProfile).Methods(http.MethodGet)
	authed.HandleFunc("/profile", h.handleUpdateProfile).Methods(http.MethodPut)
	authed.HandleFunc("/upload", h.handleUpload).Methods(http.MethodPost)
	authed.HandleFunc("/discover", h.handleDiscover).Methods(http.MethodGet)
	authed.HandleFunc("/swipe", h.handleSwipe).Methods(http.MethodPost)
	authed.HandleFunc("/matches", h.handleListMatches).Methods(http.MethodGet)
	authed.HandleFunc("/matches/{id:[0-9]+}/messages", h.handleListMessages).Methods(http.MethodGet)
	authed.HandleFunc("/matches/{id:[0-9]+}/messages", h.handleSendMessage).Methods(http.MethodPost)
	authed.HandleFunc("/notifications", h.handleListNotifications).Methods(http.MethodGet)
	authed.HandleFunc("/notifications/read", h.handleMarkNotificationsRead).Methods(http.MethodPost)
	authed.HandleFunc("/push/subscribe", h.handlePushSubscribe).Methods(http.MethodPost)
	authed.HandleFunc("/billing/checkout", h.handleBillingCheckout).Methods(http.MethodPost)
	authed.HandleFunc("/support", h.handleCreateTicket).Methods(http.MethodPost)
	authed.HandleFunc("/report", h.handleCreateReport).Methods(http.MethodPost)

	// admin
	adm := api.PathPrefix("/admin").Subrouter()
	adm.Use(auth.Middleware(appCtx.Cfg.Auth.JWTSecret), auth.RequireRole(db.RoleAdmin))
	adm.HandleFunc("/users", h.handleAdminListUsers).Methods(http.MethodGet)
	adm.HandleFunc("/reports", h.handleAdminListReports).Methods(http.MethodGet)
	adm.HandleFunc("/reports/{id:[0-9]+}/resolve", h.handleAdminResolveReport).Methods(http.MethodPost)
	adm.HandleFunc("/tickets", h.handleAdminListTickets).Methods(http.MethodGet)
	adm.HandleFunc("/push/sweep", h.handlePushSweep).Methods(http.MethodPost)

	return loggingMiddleware(appCtx.Logger, h.metrics, r)
}

func loggingMiddleware(logger *slog.Logger, m *Metrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		path := r.URL.Path
		m.RequestsTotal.WithLabelValues(path, r.Method, strconv.Itoa(rec.status)).Inc()
		if rec.status >= 400 && rec.status < 500 {
			m.BadRequests.WithLabelValues(path).Inc()
		}

		logger.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// pathID extracts the numeric {id} path variable.
func pathID(r *http.Request) (uint64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}
