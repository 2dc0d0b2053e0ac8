package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notegraph/internal/noteservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

// Share handles GET /api/share.
//
//	@Summary		Describe the shared subtree
//	@Tags			share
//	@Produce		json
//	@Success		200	{object}	ShareInfo
//	@Failure		404	{object}	errResponse
//	@Failure		503	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/share [get]
func (h *Handler) Share(w http.ResponseWriter, r *http.Request) {
	info, err := h.svc.ShareRoot(r.Context())
	if err != nil {
		writeError(w, "share root", err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// GetNote handles GET /api/notes/{noteId}.
//
//	@Summary		Get a note with its resolved attributes
//	@Tags			notes
//	@Produce		json
//	@Param			noteId	path		string	true	"Note id"
//	@Success		200		{object}	NoteDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{noteId} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.GetNote(r.Context(), chi.URLParam(r, "noteId"))
	if err != nil {
		writeError(w, "get note", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// Attributes handles GET /api/notes/{noteId}/attributes.
//
//	@Summary		List the effective attributes of a note
//	@Description	Owned attributes first, then inherited and template attributes.
//	@Tags			notes
//	@Produce		json
//	@Param			noteId	path		string	true	"Note id"
//	@Param			type	query		string	false	"Attribute type"	Enums(label, relation)
//	@Param			name	query		string	false	"Attribute name"
//	@Success		200		{object}	AttributeListResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{noteId}/attributes [get]
func (h *Handler) Attributes(w http.ResponseWriter, r *http.Request) {
	noteID := chi.URLParam(r, "noteId")
	q := r.URL.Query()
	attrs, err := h.svc.Attributes(r.Context(), noteID, q.Get("type"), q.Get("name"))
	if err != nil {
		writeError(w, "attributes", err)
		return
	}
	writeJSON(w, http.StatusOK, AttributeListResponse{NoteID: noteID, Attributes: attrs})
}

// Children handles GET /api/notes/{noteId}/children.
//
//	@Summary		List the visible children of a note
//	@Tags			notes
//	@Produce		json
//	@Param			noteId	path		string	true	"Note id"
//	@Success		200		{object}	ChildListResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{noteId}/children [get]
func (h *Handler) Children(w http.ResponseWriter, r *http.Request) {
	noteID := chi.URLParam(r, "noteId")
	children, err := h.svc.Children(r.Context(), noteID)
	if err != nil {
		writeError(w, "children", err)
		return
	}
	writeJSON(w, http.StatusOK, ChildListResponse{NoteID: noteID, Children: children})
}

// NoteContent handles GET /api/notes/{noteId}/content.
//
//	@Summary		Read the body of a note
//	@Tags			notes
//	@Produce		octet-stream
//	@Param			noteId			path	string	true	"Note id"
//	@Param			If-None-Match	header	string	false	"ETag from a previous response"
//	@Success		200				"Raw content"
//	@Success		304				"Not modified"
//	@Failure		403				{object}	errResponse
//	@Failure		404				{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{noteId}/content [get]
func (h *Handler) NoteContent(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Content(r.Context(), chi.URLParam(r, "noteId"))
	if err != nil {
		writeError(w, "note content", err)
		return
	}
	writeContent(w, r, c)
}

// NoteByAlias handles GET /api/alias/{alias}.
//
//	@Summary		Find a note by its shareAlias label
//	@Tags			share
//	@Produce		json
//	@Param			alias	path		string	true	"Alias"
//	@Success		200		{object}	NoteDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/alias/{alias} [get]
func (h *Handler) NoteByAlias(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.NoteByAlias(r.Context(), chi.URLParam(r, "alias"))
	if err != nil {
		writeError(w, "note by alias", err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// Branch handles GET /api/branches/{branchId}.
//
//	@Summary		Get a branch
//	@Tags			tree
//	@Produce		json
//	@Param			branchId	path		string	true	"Branch id"
//	@Success		200			{object}	BranchDTO
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/branches/{branchId} [get]
func (h *Handler) Branch(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.Branch(r.Context(), chi.URLParam(r, "branchId"))
	if err != nil {
		writeError(w, "branch", err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// Entity handles GET /api/entities/{kind}/{id}.
//
//	@Summary		Get any cached entity by kind and id
//	@Tags			tree
//	@Produce		json
//	@Param			kind	path	string	true	"Entity kind"	Enums(notes, branches, attributes, attachments)
//	@Param			id		path	string	true	"Entity id"
//	@Success		200		"Entity payload"
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entities/{kind}/{id} [get]
func (h *Handler) Entity(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.Entity(r.Context(), chi.URLParam(r, "kind"), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "entity", err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// ResetCache handles POST /api/cache/reset.
//
//	@Summary		Drop the cached graph
//	@Description	The next read reloads the whole subtree from the store.
//	@Tags			cache
//	@Produce		json
//	@Success		200	{object}	ResetResponse
//	@Security		BearerAuth
//	@Router			/cache/reset [post]
func (h *Handler) ResetCache(w http.ResponseWriter, r *http.Request) {
	h.svc.Reset()
	writeJSON(w, http.StatusOK, ResetResponse{Reset: true})
}
