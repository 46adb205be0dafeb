package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/sowilo/internal/recordservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *recordservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *recordservice.Service) *Handler {
	return &Handler{svc: svc}
}

// docPath extracts the vault path from the wildcard segment.
// Supports encoded slashes from OpenAPI clients (e.g. posts%2Fhello.md).
func docPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func requirePath(w http.ResponseWriter, r *http.Request) (string, bool) {
	p := docPath(r)
	if p == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return "", false
	}
	return p, true
}

// GetIndex handles GET /index.
//
//	@Summary		Get the aggregate index of a base folder
//	@Tags			index
//	@Produce		json
//	@Param			folder	query		string	true	"Base folder"
//	@Success		200		{object}	export.Index
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/index [get]
func (h *Handler) GetIndex(w http.ResponseWriter, r *http.Request) {
	folder := r.URL.Query().Get("folder")
	idx, err := h.svc.Index(r.Context(), folder)
	if err != nil {
		writeError(w, "get index", folder, err)
		return
	}
	writeJSON(w, http.StatusOK, idx)
}

// GetRecord handles GET /records/*. With draft=true the draft artifact is
// returned.
//
//	@Summary		Get the stored artifact of a document
//	@Tags			records
//	@Produce		json
//	@Param			path	path	string	true	"Document path"
//	@Param			draft	query	bool	false	"Return the draft artifact"
//	@Success		200
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/records/{path} [get]
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	path, ok := requirePath(w, r)
	if !ok {
		return
	}
	draft, _ := strconv.ParseBool(r.URL.Query().Get("draft"))
	raw, err := h.svc.Artifact(r.Context(), path, draft)
	if err != nil {
		writeError(w, "get record", path, err)
		return
	}
	writeJSON(w, http.StatusOK, raw)
}

// ParseDocument handles GET /parse/*.
//
//	@Summary		Assemble a document without writing artifacts
//	@Tags			records
//	@Produce		json
//	@Param			path	path	string	true	"Document path"
//	@Success		200
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/parse/{path} [get]
func (h *Handler) ParseDocument(w http.ResponseWriter, r *http.Request) {
	path, ok := requirePath(w, r)
	if !ok {
		return
	}
	rec, err := h.svc.Parse(r.Context(), path)
	if err != nil {
		writeError(w, "parse", path, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Publish handles POST /publish/*.
//
//	@Summary		Publish one document and update its folder index
//	@Tags			exports
//	@Produce		json
//	@Param			path	path		string	true	"Document path"
//	@Success		200		{object}	PublishResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/publish/{path} [post]
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	path, ok := requirePath(w, r)
	if !ok {
		return
	}
	diff, err := h.svc.Publish(r.Context(), path)
	if err != nil {
		writeError(w, "publish", path, err)
		return
	}
	writeJSON(w, http.StatusOK, diff)
}

// Draft handles POST /draft/*.
//
//	@Summary		Export one document as a draft
//	@Tags			exports
//	@Produce		json
//	@Param			path	path		string	true	"Document path"
//	@Success		200		{object}	DraftResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/draft/{path} [post]
func (h *Handler) Draft(w http.ResponseWriter, r *http.Request) {
	path, ok := requirePath(w, r)
	if !ok {
		return
	}
	res, err := h.svc.Draft(r.Context(), path)
	if err != nil {
		writeError(w, "draft", path, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Rebuild handles POST /rebuild.
//
//	@Summary		Rebuild one base folder, or all of them
//	@Tags			exports
//	@Produce		json
//	@Param			folder	query		string	false	"Base folder (empty for all)"
//	@Success		200		{object}	RebuildResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/rebuild [post]
func (h *Handler) Rebuild(w http.ResponseWriter, r *http.Request) {
	folder := r.URL.Query().Get("folder")
	sum, err := h.svc.Rebuild(r.Context(), folder)
	if err != nil {
		writeError(w, "rebuild", folder, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// Search handles GET /search.
//
//	@Summary		Full-text search across exported records
//	@Tags			catalog
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", q, err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// ListTags handles GET /tags.
//
//	@Summary		List tags with record counts
//	@Tags			catalog
//	@Produce		json
//	@Success		200	{object}	TagsResponse
//	@Security		BearerAuth
//	@Router			/tags [get]
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.svc.Tags(r.Context())
	if err != nil {
		writeError(w, "list tags", "", err)
		return
	}
	writeJSON(w, http.StatusOK, TagsResponse{Tags: tags})
}

// ByTag handles GET /tags/*. Nested tags keep their slashes.
//
//	@Summary		List the records carrying a tag
//	@Tags			catalog
//	@Produce		json
//	@Param			tag	path		string	true	"Tag"
//	@Success		200	{object}	TagRecordsResponse
//	@Security		BearerAuth
//	@Router			/tags/{tag} [get]
func (h *Handler) ByTag(w http.ResponseWriter, r *http.Request) {
	tag := docPath(r)
	if tag == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("tag is required"))
		return
	}
	rows, err := h.svc.ByTag(r.Context(), tag)
	if err != nil {
		writeError(w, "by tag", tag, err)
		return
	}
	writeJSON(w, http.StatusOK, TagRecordsResponse{Tag: tag, Records: rows})
}

// Backlinks handles GET /backlinks/*.
//
//	@Summary		List records linking to a vault path
//	@Tags			catalog
//	@Produce		json
//	@Param			path	path		string	true	"Target vault path"
//	@Success		200		{object}	BacklinksResponse
//	@Security		BearerAuth
//	@Router			/backlinks/{path} [get]
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	path, ok := requirePath(w, r)
	if !ok {
		return
	}
	links, err := h.svc.Backlinks(r.Context(), path)
	if err != nil {
		writeError(w, "backlinks", path, err)
		return
	}
	writeJSON(w, http.StatusOK, BacklinksResponse{Target: path, Links: links})
}
