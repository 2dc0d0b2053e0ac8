package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notegraph/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/share", h.Share)
	r.Get("/alias/{alias}", h.NoteByAlias)

	r.Route("/notes/{noteId}", func(r chi.Router) {
		r.Get("/", h.GetNote)
		r.Get("/attributes", h.Attributes)
		r.Get("/children", h.Children)
		r.Get("/content", h.NoteContent)
	})

	r.Get("/branches/{branchId}", h.Branch)
	r.Get("/attachments/{attachmentId}", h.GetAttachment)
	r.Get("/attachments/{attachmentId}/content", h.AttachmentContent)
	r.Get("/entities/{kind}/{id}", h.Entity)

	r.Post("/cache/reset", h.ResetCache)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
