package dto

import (
	"bytes"
	"encoding/json"

	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// Nullable records whether a JSON key was present, so PATCH bodies can tell
// an omitted field from an explicit null.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// UnmarshalJSON is only called for keys present in the document.
func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// Optional converts to the repository form.
func (n Nullable[T]) Optional() repository.Optional[T] {
	return repository.Optional[T]{Set: n.Set, Value: n.Value}
}
