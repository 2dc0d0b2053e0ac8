package api

import (
	"github.com/starford/notegraph/internal/graph"
	"github.com/starford/notegraph/internal/noteservice"
)

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// ChildItem is a visible child in a listing (aliased from the domain layer).
type ChildItem = noteservice.ChildItem

// ShareInfo describes the shared subtree (aliased from the domain layer).
type ShareInfo = noteservice.ShareInfo

// AttributeDTO is a resolved label or relation.
type AttributeDTO = graph.AttributePojo

// BranchDTO is a parent/child link.
type BranchDTO = graph.BranchPojo

// AttachmentDTO is attachment metadata.
type AttachmentDTO = graph.AttachmentPojo

// AttributeListResponse wraps the resolved attributes of a note.
type AttributeListResponse struct {
	NoteID     string         `json:"note_id" example:"abc123" validate:"required"`
	Attributes []AttributeDTO `json:"attributes" validate:"required"`
}

// ChildListResponse wraps the visible children of a note.
type ChildListResponse struct {
	NoteID   string      `json:"note_id" example:"abc123" validate:"required"`
	Children []ChildItem `json:"children" validate:"required"`
}

// ResetResponse is returned after the cache is dropped.
type ResetResponse struct {
	Reset bool `json:"reset" example:"true" validate:"required"`
}
