package service

import (
	"context"
	"encoding/json"
	"errors"

	"opsportal/internal/apperror"
	"opsportal/internal/model"
	"opsportal/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// parseID validates a client-supplied uuid
func parseID(raw, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperror.Validation("invalid " + what + ": " + raw)
	}
	return id, nil
}

// lookupError turns a repository lookup failure into not_found or internal
func lookupError(err error, notFoundMsg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(notFoundMsg)
	}
	return apperror.Internal(err)
}

// storeError keeps already classified errors and marks the rest internal
func storeError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.Internal(err)
}

// loadActor fetches the authenticated user named in the token subject
func loadActor(ctx context.Context, users repository.UserRepository, userID string) (*model.User, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, apperror.Unauthorized("invalid user in token")
	}
	user, err := users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Unauthorized("user no longer exists")
		}
		return nil, apperror.Internal(err)
	}
	return user, nil
}

func userPtr(id uuid.UUID) *uuid.UUID {
	return &id
}

// auditDetails serializes an audit payload; a payload that cannot be encoded is recorded as empty
func auditDetails(v map[string]interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
