package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notegraph/internal/checksum"
	"github.com/starford/notegraph/internal/noteservice"
)

const defaultMime = "application/octet-stream"

// GetAttachment handles GET /api/attachments/{attachmentId}.
//
//	@Summary		Get attachment metadata
//	@Tags			attachments
//	@Produce		json
//	@Param			attachmentId	path		string	true	"Attachment id"
//	@Success		200				{object}	AttachmentDTO
//	@Failure		404				{object}	errResponse
//	@Security		BearerAuth
//	@Router			/attachments/{attachmentId} [get]
func (h *Handler) GetAttachment(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Attachment(r.Context(), chi.URLParam(r, "attachmentId"))
	if err != nil {
		writeError(w, "get attachment", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// AttachmentContent handles GET /api/attachments/{attachmentId}/content.
//
//	@Summary		Read the body of an attachment
//	@Tags			attachments
//	@Produce		octet-stream
//	@Param			attachmentId	path	string	true	"Attachment id"
//	@Param			If-None-Match	header	string	false	"ETag from a previous response"
//	@Success		200				"Raw content"
//	@Success		304				"Not modified"
//	@Failure		404				{object}	errResponse
//	@Security		BearerAuth
//	@Router			/attachments/{attachmentId}/content [get]
func (h *Handler) AttachmentContent(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.AttachmentContent(r.Context(), chi.URLParam(r, "attachmentId"))
	if err != nil {
		writeError(w, "attachment content", err)
		return
	}
	writeContent(w, r, c)
}

// writeContent sends raw content with a strong ETag derived from its
// checksum and answers a matching If-None-Match with 304.
func writeContent(w http.ResponseWriter, r *http.Request, c *noteservice.Content) {
	etag := checksum.ETag(c.Checksum)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")

	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	mime := c.Mime
	if mime == "" {
		mime = defaultMime
	}
	if c.IsText && !strings.Contains(mime, "charset") {
		mime += "; charset=utf-8"
	}
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(c.Data)))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(c.Data)
}

func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}
