package api

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"

	"corridor/internal/retention"
	"corridor/pkg/config"
	"corridor/pkg/httpx"
	"corridor/pkg/logger"
	"corridor/pkg/middleware"
	"corridor/pkg/request"
	"corridor/pkg/store"
	"corridor/pkg/utils"
)

// RegisterAdmin registers admin-only routes onto the admin subrouter.
func RegisterAdmin(r *mux.Router, mws []middleware.Middleware, opts ...httpx.Option) {
	r.Handle("/health", route(httpx.HandlerFunc(adminHealth), mws, opts...)).Methods(http.MethodGet)
	r.Handle("/stats", route(httpx.HandlerFunc(adminStats), mws, opts...)).Methods(http.MethodGet)
	r.Handle("/notes", route(httpx.HandlerFunc(adminListNotes), mws, opts...)).Methods(http.MethodGet)
	r.Handle("/keys", route(httpx.HandlerFunc(adminListKeys), mws, opts...)).Methods(http.MethodGet)
	r.Handle("/keys/{key}", route(httpx.HandlerFunc(adminGetKey), mws, opts...)).Methods(http.MethodGet)
	r.Handle("/retention/run", route(httpx.HandlerFunc(adminRunRetention), mws, opts...)).Methods(http.MethodPost)
	logger.Info("admin_routes_registered")
}

// requireAdmin writes a 403 unless the caller resolved to RoleAdmin.
// The auth middleware already gates /admin; handlers re-check so a
// router assembled without it still fails closed.
func requireAdmin(w httpx.ResponseWriter, r *request.Request) bool {
	ident, ok := middleware.IdentityFrom(r)
	if !ok || ident.Role != middleware.RoleAdmin {
		utils.JSONError(w, http.StatusForbidden, "forbidden")
		return false
	}
	return true
}

func adminHealth(w httpx.ResponseWriter, r *request.Request) {
	if !requireAdmin(w, r) {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok","service":"corridor"}`))
}

func adminStats(w httpx.ResponseWriter, r *request.Request) {
	if !requireAdmin(w, r) {
		return
	}
	st := store.CollectStats()
	out := struct {
		Notes     int    `json:"notes"`
		Versions  int    `json:"versions"`
		DiskBytes uint64 `json:"disk_bytes"`
		Keys      struct {
			Backend  int `json:"backend"`
			Frontend int `json:"frontend"`
			Admin    int `json:"admin"`
		} `json:"keys"`
	}{Notes: st.Notes, Versions: st.Versions, DiskBytes: st.DiskBytes}
	out.Keys.Backend = len(config.GetBackendKeys())
	out.Keys.Frontend = len(config.GetFrontendKeys())
	out.Keys.Admin = len(config.GetAdminKeys())
	_ = utils.JSONWrite(w, http.StatusOK, out)
}

func adminListNotes(w httpx.ResponseWriter, r *request.Request) {
	if !requireAdmin(w, r) {
		return
	}
	vals, err := store.ListNotes()
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Notes []json.RawMessage `json:"notes"`
	}{Notes: utils.ToRawMessages(vals)})
}

// adminListKeys lists keys in the underlying store. Optional query param
// `prefix` limits keys by prefix.
func adminListKeys(w httpx.ResponseWriter, r *request.Request) {
	if !requireAdmin(w, r) {
		return
	}
	keys, err := store.ListKeys(r.URL.Query().Get("prefix"))
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Keys []string `json:"keys"`
	}{Keys: keys})
}

// adminGetKey returns the raw value stored under a key. The key path
// variable is URL-unescaped before lookup.
func adminGetKey(w httpx.ResponseWriter, r *request.Request) {
	if !requireAdmin(w, r) {
		return
	}
	keyEnc := pathVar(r, "key")
	if keyEnc == "" {
		utils.JSONError(w, http.StatusBadRequest, "missing key")
		return
	}
	// gorilla/mux does not unescape path variables, so use PathUnescape
	// to recover the original key string.
	key, err := url.PathUnescape(keyEnc)
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid key encoding")
		return
	}
	v, err := store.GetKey(key)
	if err != nil {
		utils.JSONError(w, http.StatusNotFound, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write([]byte(v))
}

// adminRunRetention triggers one retention sweep outside the cron
// schedule and reports the outcome.
func adminRunRetention(w httpx.ResponseWriter, r *request.Request) {
	if !requireAdmin(w, r) {
		return
	}
	if err := retention.RunImmediate(); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	logger.Info("admin_retention_run")
	_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"status": "ok"})
}
