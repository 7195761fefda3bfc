package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"corridor/pkg/httpx"
	"corridor/pkg/logger"
	"corridor/pkg/middleware"
	"corridor/pkg/models"
	"corridor/pkg/request"
	"corridor/pkg/store"
	"corridor/pkg/utils"
	"corridor/pkg/validation"
)

func health(w httpx.ResponseWriter, r *request.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func ready(w httpx.ResponseWriter, r *request.Request) {
	if !store.Ready() {
		utils.JSONError(w, http.StatusServiceUnavailable, "store not ready")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ready"}`))
}

func index(w httpx.ResponseWriter, r *request.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"endpoints":["POST /v1/notes","GET /v1/notes?limit=<n>","GET /v1/notes/{id}","PUT /v1/notes/{id}","DELETE /v1/notes/{id}","GET /v1/notes/{id}/versions"]}`))
}

func createNote(w httpx.ResponseWriter, r *request.Request) {
	b, err := io.ReadAll(r.Body)
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, "unreadable body")
		return
	}
	var n models.Note
	if err := json.Unmarshal(b, &n); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if n.ID == "" {
		n.ID = utils.GenNoteID()
	}
	if n.CreatedTS == 0 {
		n.CreatedTS = time.Now().UTC().UnixNano()
	}
	if n.Author == "" {
		n.Author = "none"
	}
	if err := validation.ValidateNote(n); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	nb, err := json.Marshal(n)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "marshal failed")
		return
	}
	if err := store.SaveNote(n.ID, string(nb)); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	rid, _ := middleware.RequestIDFrom(r)
	logger.Info("note_created", "note", n.ID, "request_id", string(rid))
	_ = utils.JSONWrite(w, http.StatusCreated, n)
}

func listNotes(w httpx.ResponseWriter, r *request.Request) {
	var vals []string
	var err error
	if limStr := r.URL.Query().Get("limit"); limStr != "" {
		lim, aerr := strconv.Atoi(limStr)
		if aerr != nil || lim < 0 {
			utils.JSONError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		vals, err = store.ListNotes(lim)
	} else {
		vals, err = store.ListNotes()
	}
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		Notes []json.RawMessage `json:"notes"`
	}{Notes: utils.ToRawMessages(vals)})
}

func getNote(w httpx.ResponseWriter, r *request.Request) {
	id := pathVar(r, "id")
	if id == "" {
		utils.JSONError(w, http.StatusBadRequest, "note id missing")
		return
	}
	s, err := store.GetNote(id)
	if err != nil {
		utils.JSONError(w, http.StatusNotFound, "note not found")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(s))
}

func putNote(w httpx.ResponseWriter, r *request.Request) {
	id := pathVar(r, "id")
	if id == "" {
		utils.JSONError(w, http.StatusBadRequest, "note id missing")
		return
	}
	b, err := io.ReadAll(r.Body)
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, "unreadable body")
		return
	}
	var n models.Note
	if err := json.Unmarshal(b, &n); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	// enforce ID; keep the original creation time when the note exists
	n.ID = id
	if s, err := store.GetNote(id); err == nil {
		var prev models.Note
		if json.Unmarshal([]byte(s), &prev) == nil && prev.CreatedTS != 0 {
			n.CreatedTS = prev.CreatedTS
		}
	}
	if n.CreatedTS == 0 {
		n.CreatedTS = time.Now().UTC().UnixNano()
	}
	n.UpdatedTS = time.Now().UTC().UnixNano()
	if err := validation.ValidateNote(n); err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	nb, _ := json.Marshal(n)
	if err := store.SaveNote(n.ID, string(nb)); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, n)
}

func deleteNote(w httpx.ResponseWriter, r *request.Request) {
	id := pathVar(r, "id")
	if id == "" {
		utils.JSONError(w, http.StatusBadRequest, "note id missing")
		return
	}
	actor := "unknown"
	if ident, ok := middleware.IdentityFrom(r); ok {
		actor = ident.Key
	}
	if err := store.SoftDeleteNote(id, actor); err != nil {
		utils.JSONError(w, http.StatusNotFound, "note not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func listNoteVersions(w httpx.ResponseWriter, r *request.Request) {
	id := pathVar(r, "id")
	if id == "" {
		utils.JSONError(w, http.StatusBadRequest, "note id missing")
		return
	}
	vs, err := store.ListNoteVersions(id)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, struct {
		ID       string            `json:"id"`
		Versions []json.RawMessage `json:"versions"`
	}{ID: id, Versions: utils.ToRawMessages(vs)})
}
