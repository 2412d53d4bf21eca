package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/pingmatch/ping/internal/app"
	"github.com/pingmatch/ping/internal/auth"
	"github.com/pingmatch/ping/internal/blob"
	"github.com/pingmatch/ping/internal/db"
	"github.com/pingmatch/ping/internal/httperr"
	"github.com/pingmatch/ping/internal/service/account"
	"github.com/pingmatch/ping/internal/service/admin"
	"github.com/pingmatch/ping/internal/service/billing"
	"github.com/pingmatch/ping/internal/service/chat"
	"github.com/pingmatch/ping/internal/service/notify"
	"github.com/pingmatch/ping/internal/service/profile"
	"github.com/pingmatch/ping/internal/service/swipe"
)

const maxBodyBytes = 1 << 20

// Handlers holds every route handler and its service dependencies.
type Handlers struct {
	appCtx  *app.AppContext
	store   *blob.Store
	metrics *Metrics

	account *account.Service
	profile *profile.Service
	swipe   *swipe.Service
	chat    *chat.Service
	notify  *notify.Service
	billing *billing.Service
	admin   *admin.Service
}

func NewHandlers(appCtx *app.AppContext, store *blob.Store) *Handlers {
	return &Handlers{
		appCtx:  appCtx,
		store:   store,
		metrics: InitMetrics(),
		account: account.NewService(appCtx),
		profile: profile.NewService(appCtx),
		swipe:   swipe.NewService(appCtx),
		chat:    chat.NewService(appCtx),
		notify:  notify.NewService(appCtx),
		billing: billing.NewService(appCtx),
		admin:   admin.NewService(appCtx),
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return httperr.Validation("malformed JSON body")
	}
	return nil
}

// principal returns the authenticated caller. Routes behind the auth
// middleware always have one.
func principal(r *http.Request) *auth.Principal {
	p, _ := auth.PrincipalFrom(r.Context())
	return p
}

func (h *Handlers) fail(w http.ResponseWriter, err error) {
	if httperr.Status(err) >= 500 {
		h.appCtx.Logger.Error("request failed", "err", err)
	}
	httperr.Write(w, err)
}

// --- ops ---

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	payload := map[string]any{"status": "ok"}
	status := http.StatusOK

	if sqlDB, err := h.appCtx.DB.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		payload["status"] = "degraded"
		payload["db"] = "down"
		status = http.StatusServiceUnavailable
	}
	if err := h.appCtx.RedisCache.Ping(ctx); err != nil {
		payload["status"] = "degraded"
		payload["redis"] = "down"
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, payload)
}

// --- auth ---

func (h *Handlers) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req account.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	sess, err := h.account.Register(r.Context(), &req)
	if err != nil {
		h.fail(w, err)
		return
	}
	auth.SetSessionCookie(w, sess.Token, h.appCtx.Cfg.Auth.CookieTTL)
	respondJSON(w, http.StatusCreated, map[string]any{"success": true, "user": sess})
}

func (h *Handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req account.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	sess, err := h.account.Login(r.Context(), &req)
	if err != nil {
		h.fail(w, err)
		return
	}
	auth.SetSessionCookie(w, sess.Token, h.appCtx.Cfg.Auth.CookieTTL)
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "user": sess})
}

func (h *Handlers) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req account.VerifyRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	if err := h.account.Verify(r.Context(), &req); err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w)
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handlers) handleMe(w http.ResponseWriter, r *http.Request) {
	sess, err := h.account.Me(r.Context(), principal(r).UserID)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "user": sess})
}

// --- profile ---

func (h *Handlers) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	view, err := h.profile.Get(r.Context(), principal(r).UserID)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "profile": view})
}

func (h *Handlers) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profile.UpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	view, err := h.profile.Update(r.Context(), principal(r).UserID, &req)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "profile": view})
}

func (h *Handlers) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(blob.MaxUploadBytes); err != nil {
		h.fail(w, httperr.Validation("malformed multipart body"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.fail(w, httperr.Validation("file field is required"))
		return
	}
	defer file.Close()

	url, err := h.store.Save(file, header)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"success": true, "url": url})
}

// --- swiping ---

func (h *Handlers) handleDiscover(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	candidates, err := h.swipe.Discover(r.Context(), principal(r).UserID, limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "candidates": candidates})
}

func (h *Handlers) handleSwipe(w http.ResponseWriter, r *http.Request) {
	var req swipe.Request
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	resp, err := h.swipe.Swipe(r.Context(), principal(r).UserID, &req)
	if err != nil {
		h.fail(w, err)
		return
	}

	h.metrics.SwipesRecorded.WithLabelValues(req.Direction).Inc()
	if resp.IsMatch && !resp.AlreadyMatched {
		h.metrics.MatchesCreated.Inc()
	}
	respondJSON(w, http.StatusOK, resp)
}

// --- matches & chat ---

func (h *Handlers) handleListMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := h.chat.ListMatches(r.Context(), principal(r).UserID)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "matches": matches})
}

func (h *Handlers) handleListMessages(w http.ResponseWriter, r *http.Request) {
	matchID, err := pathID(r)
	if err != nil {
		h.fail(w, httperr.Validation("invalid match id"))
		return
	}

	var token *string
	if t := r.URL.Query().Get("cursor"); t != "" {
		token = &t
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	messages, next, err := h.chat.ListMessages(r.Context(), matchID, principal(r).UserID, token, limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	payload := map[string]any{"success": true, "messages": messages}
	if next != nil {
		payload["nextCursor"] = *next
	}
	respondJSON(w, http.StatusOK, payload)
}

func (h *Handlers) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	matchID, err := pathID(r)
	if err != nil {
		h.fail(w, httperr.Validation("invalid match id"))
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	msg, err := h.chat.SendMessage(r.Context(), matchID, principal(r).UserID, req.Content)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.metrics.MessagesSent.Inc()
	respondJSON(w, http.StatusCreated, map[string]any{"success": true, "message": msg})
}

// --- notifications & push ---

func (h *Handlers) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	resp, err := h.notify.List(r.Context(), principal(r).UserID, limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"notifications": resp.Notifications,
		"unreadCount":   resp.UnreadCount,
	})
}

func (h *Handlers) handleMarkNotificationsRead(w http.ResponseWriter, r *http.Request) {
	if err := h.notify.MarkAllRead(r.Context(), principal(r).UserID); err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handlers) handlePushSubscribe(w http.ResponseWriter, r *http.Request) {
	var req notify.SubscribeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	if err := h.notify.Subscribe(r.Context(), principal(r).UserID, &req); err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"success": true})
}

func (h *Handlers) handlePushSweep(w http.ResponseWriter, r *http.Request) {
	batch, _ := strconv.Atoi(r.URL.Query().Get("batch"))
	result, err := h.notify.Sweep(r.Context(), batch)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "result": result})
}

// --- billing ---

func (h *Handlers) handleBillingCheckout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tier db.Tier `json:"tier"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	session, err := h.billing.Checkout(r.Context(), principal(r).UserID, req.Tier)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "url": session.URL, "sessionId": session.SessionID})
}

func (h *Handlers) handleBillingWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.fail(w, httperr.Validation("unreadable body"))
		return
	}
	defer r.Body.Close()

	signature := r.Header.Get("X-Webhook-Signature")
	if err := h.billing.HandleWebhook(r.Context(), body, signature); err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

// --- support & reports ---

func (h *Handlers) handleCreateTicket(w http.ResponseWriter, r *http.Request) {
	var req admin.TicketRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	ticket, err := h.admin.CreateTicket(r.Context(), principal(r).UserID, &req)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"success": true, "ticket": ticket})
}

func (h *Handlers) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	var req admin.ReportRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, err)
		return
	}
	report, err := h.admin.CreateReport(r.Context(), principal(r).UserID, &req)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"success": true, "report": report})
}

// --- admin ---

func (h *Handlers) handleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	users, err := h.admin.ListUsers(r.Context(), limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "users": users})
}

func (h *Handlers) handleAdminListReports(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	reports, err := h.admin.ListReports(r.Context(), limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "reports": reports})
}

func (h *Handlers) handleAdminResolveReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, httperr.Validation("invalid report id"))
		return
	}
	if err := h.admin.ResolveReport(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handlers) handleAdminListTickets(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	tickets, err := h.admin.ListTickets(r.Context(), limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "tickets": tickets})
}
