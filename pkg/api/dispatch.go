package api

import (
	"net/http"

	"corridor/pkg/httpx"
	"corridor/pkg/middleware"
	"corridor/pkg/request"
	"corridor/pkg/utils"
)

// Dispatch routes requests at the corridor level, for engines that do
// not speak net/http. The route table mirrors Register; path variables
// are parsed by hand and recorded in the extensions the same way the
// mux routes record them, so handlers cannot tell the engines apart.
func Dispatch(mws ...middleware.Middleware) httpx.Handler {
	return middleware.Chain(httpx.HandlerFunc(dispatch), mws...)
}

func dispatch(w httpx.ResponseWriter, r *request.Request) {
	// Split the escaped form so encoded segments reach handlers exactly
	// as gorilla/mux would hand them over.
	parts := utils.SplitPath(r.URL.EscapedPath())

	if len(parts) == 0 {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, "GET")
			return
		}
		index(w, r)
		return
	}

	if len(parts) == 1 && (parts[0] == "healthz" || parts[0] == "readyz") {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, "GET")
			return
		}
		if parts[0] == "healthz" {
			health(w, r)
		} else {
			ready(w, r)
		}
		return
	}

	if parts[0] == "v1" && len(parts) >= 2 && parts[1] == "notes" {
		dispatchNotes(w, r, parts[2:])
		return
	}
	if parts[0] == "admin" {
		dispatchAdmin(w, r, parts[1:])
		return
	}
	utils.JSONError(w, http.StatusNotFound, "not found")
}

func dispatchNotes(w httpx.ResponseWriter, r *request.Request, rest []string) {
	switch {
	case len(rest) == 0:
		switch r.Method {
		case http.MethodPost:
			createNote(w, r)
		case http.MethodGet:
			listNotes(w, r)
		default:
			methodNotAllowed(w, "GET, POST")
		}
	case len(rest) == 1:
		request.ExtSet(r.Extensions, RouteVars{"id": rest[0]})
		switch r.Method {
		case http.MethodGet:
			getNote(w, r)
		case http.MethodPut:
			putNote(w, r)
		case http.MethodDelete:
			deleteNote(w, r)
		default:
			methodNotAllowed(w, "GET, PUT, DELETE")
		}
	case len(rest) == 2 && rest[1] == "versions":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, "GET")
			return
		}
		request.ExtSet(r.Extensions, RouteVars{"id": rest[0]})
		listNoteVersions(w, r)
	default:
		utils.JSONError(w, http.StatusNotFound, "not found")
	}
}

func dispatchAdmin(w httpx.ResponseWriter, r *request.Request, rest []string) {
	switch {
	case len(rest) == 1:
		if r.Method != http.MethodGet {
			methodNotAllowed(w, "GET")
			return
		}
		switch rest[0] {
		case "health":
			adminHealth(w, r)
		case "stats":
			adminStats(w, r)
		case "notes":
			adminListNotes(w, r)
		case "keys":
			adminListKeys(w, r)
		default:
			utils.JSONError(w, http.StatusNotFound, "not found")
		}
	case len(rest) == 2 && rest[0] == "keys":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, "GET")
			return
		}
		request.ExtSet(r.Extensions, RouteVars{"key": rest[1]})
		adminGetKey(w, r)
	case len(rest) == 2 && rest[0] == "retention" && rest[1] == "run":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, "POST")
			return
		}
		adminRunRetention(w, r)
	default:
		utils.JSONError(w, http.StatusNotFound, "not found")
	}
}

func methodNotAllowed(w httpx.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	utils.JSONError(w, http.StatusMethodNotAllowed, "method not allowed")
}
