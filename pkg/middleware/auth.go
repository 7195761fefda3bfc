package middleware

import (
	"net/http"
	"strings"

	"corridor/pkg/httpx"
	"corridor/pkg/logger"
	"corridor/pkg/request"
	"corridor/pkg/utils"
)

// Role is the resolved caller role for a request.
type Role int

const (
	RoleUnauth Role = iota
	RoleFrontend
	RoleBackend
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleFrontend:
		return "frontend"
	case RoleBackend:
		return "backend"
	case RoleAdmin:
		return "admin"
	default:
		return "unauth"
	}
}

// Identity is the authenticated caller, stored in the request's
// extension store by Auth.
type Identity struct {
	Role Role
	Key  string
}

// AuthConfig drives authentication and the IP whitelist.
type AuthConfig struct {
	BackendKeys  map[string]struct{}
	FrontendKeys map[string]struct{}
	AdminKeys    map[string]struct{}
	IPWhitelist  []string
}

// Auth resolves the caller's API key to a role and stores the Identity
// in the extension store. Unauthenticated requests are rejected with
// 401, except GET probes on /healthz and /readyz. Frontend keys are
// scoped to the public notes API; admin paths require an admin key.
func Auth(cfg AuthConfig) Middleware {
	return func(next httpx.Handler) httpx.Handler {
		return httpx.HandlerFunc(func(w httpx.ResponseWriter, r *request.Request) {
			if len(cfg.IPWhitelist) > 0 {
				ip := clientIP(r.RemoteAddr)
				if !ipWhitelisted(ip, cfg.IPWhitelist) {
					logger.Warn("request_blocked", "reason", "ip_not_whitelisted", "ip", ip, "path", r.URL.Path)
					utils.JSONError(w, http.StatusForbidden, "forbidden")
					return
				}
			}

			role, key, hasKey := authenticate(r, cfg)

			// probes stay reachable without a key
			if probePath(r.URL.Path) && r.Method == http.MethodGet {
				request.ExtSet(r.Extensions, Identity{Role: role, Key: key})
				next.Serve(w, r)
				return
			}

			if role == RoleUnauth || !hasKey {
				logger.Warn("request_unauthorized", "path", r.URL.Path, "remote", addrString(r.RemoteAddr))
				utils.JSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			if !roleAllowed(role, r.Method, r.URL.Path) {
				logger.Warn("request_forbidden", "role", role.String(), "method", r.Method, "path", r.URL.Path)
				utils.JSONError(w, http.StatusForbidden, "forbidden")
				return
			}

			request.ExtSet(r.Extensions, Identity{Role: role, Key: key})
			logger.Debug("request_allowed", "method", r.Method, "path", r.URL.Path, "role", role.String())
			next.Serve(w, r)
		})
	}
}

// IdentityFrom returns the Identity stored by Auth, if any.
func IdentityFrom(r *request.Request) (Identity, bool) {
	return request.ExtGet[Identity](r.Extensions)
}

// authenticate prefers Authorization: Bearer <key>, falling back to
// X-API-Key. Without a key the client IP becomes the rate-limit key.
func authenticate(r *request.Request, cfg AuthConfig) (Role, string, bool) {
	auth := r.Header.Get("Authorization")
	var key string
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		key = strings.TrimSpace(auth[7:])
	}
	if key == "" {
		key = r.Header.Get("X-API-Key")
	}
	if key == "" {
		return RoleUnauth, clientIP(r.RemoteAddr), false
	}
	if _, ok := cfg.AdminKeys[key]; ok {
		return RoleAdmin, key, true
	}
	if _, ok := cfg.BackendKeys[key]; ok {
		return RoleBackend, key, true
	}
	if _, ok := cfg.FrontendKeys[key]; ok {
		return RoleFrontend, key, true
	}
	return RoleUnauth, key, true
}

func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

func roleAllowed(role Role, method, path string) bool {
	switch role {
	case RoleAdmin:
		return true
	case RoleBackend:
		return !strings.HasPrefix(path, "/admin")
	case RoleFrontend:
		// frontend keys only reach the public notes API
		return strings.HasPrefix(path, "/v1/notes")
	default:
		return false
	}
}

func ipWhitelisted(ip string, list []string) bool {
	for _, w := range list {
		if ip == w {
			return true
		}
	}
	return false
}
