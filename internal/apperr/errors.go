package apperr

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrProtected       = errors.New("protected")
	ErrNotRelation     = errors.New("attribute is not a relation")
	ErrUnknownKind     = errors.New("unknown entity kind")
	ErrInvalidFixture  = errors.New("invalid fixture")
	ErrInvalidArgument = errors.New("invalid argument")
)
