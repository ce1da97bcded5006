package repository

import (
	"encoding/json"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/totegamma/tentd/internal/domain"
)

// translate maps store errors onto the domain taxonomy so that gorm errors
// never reach callers.
func translate(err error, resource, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NotFoundError{Resource: resource}
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		// owning entity is gone, e.g. deleted by another process
		return domain.NotFoundError{Resource: "entity"}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ValidationError{Reason: resource + " already exists"}
	}
	return errors.Wrap(err, op)
}

func encodeContent(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode content")
	}
	return string(b), nil
}

func decodeContent(s string) (any, error) {
	if s == "" {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, errors.Wrap(err, "failed to decode content")
	}
	return v, nil
}
