package application

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/kitchenlog/recipebox/internal/platform/apperror"
	"github.com/kitchenlog/recipebox/internal/platform/logger"
	"github.com/kitchenlog/recipebox/internal/recipes/domain"
	"github.com/kitchenlog/recipebox/internal/recipes/ports"
)

var (
	ErrAttributeNotFound = apperror.New(
		apperror.CodeNotFound,
		apperror.BusinessCodeAttributeNotFound,
		"not found",
		http.StatusNotFound,
	)

	ErrInvalidAttributeData = apperror.New(
		apperror.CodeValidationFailed,
		apperror.BusinessCodeInvalidFormat,
		"invalid data",
		http.StatusBadRequest,
	)
)

// AttributesService manages a user's tags and ingredients outside the recipe
// write path: creating, listing with the assigned-only filter, renaming and
// deleting.
type AttributesService struct {
	attrs  ports.AttributeRepository
	logger logger.Logger
}

// NewAttributesService creates a new attributes service.
func NewAttributesService(attrs ports.AttributeRepository, logger logger.Logger) *AttributesService {
	return &AttributesService{
		attrs:  attrs,
		logger: logger,
	}
}

// Create adds an attribute for the owner. Posting a name the owner already
// has returns the existing row; (owner, name) stays unique either way.
func (s *AttributesService) Create(ctx context.Context, userID int64, kind domain.Kind, name string) (*domain.Attribute, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidAttributeData.WithDetails(map[string]any{"name": "this field may not be blank"})
	}

	attr, err := s.attrs.GetOrCreate(ctx, userID, kind, name)
	if err != nil {
		s.logger.Error(ctx, "failed to create attribute", "error", err, "kind", kind, "user_id", userID)
		return nil, apperror.Wrap(err, apperror.CodeInternalError, apperror.BusinessCodeGeneral,
			"failed to create", http.StatusInternalServerError)
	}
	return attr, nil
}

// List returns the owner's attributes of the given kind, reverse-alphabetical.
// With assignedOnly, only attributes referenced by at least one of the
// owner's recipes are returned.
func (s *AttributesService) List(ctx context.Context, userID int64, kind domain.Kind, assignedOnly bool) ([]*domain.Attribute, error) {
	attrs, err := s.attrs.List(ctx, userID, kind, assignedOnly)
	if err != nil {
		s.logger.Error(ctx, "failed to list attributes", "error", err, "kind", kind, "user_id", userID)
		return nil, apperror.Wrap(err, apperror.CodeInternalError, apperror.BusinessCodeGeneral,
			"failed to list", http.StatusInternalServerError)
	}
	return attrs, nil
}

// Rename changes an attribute's name. A foreign or missing attribute is the
// same not-found error.
func (s *AttributesService) Rename(ctx context.Context, userID int64, kind domain.Kind, id int64, name string) (*domain.Attribute, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidAttributeData.WithDetails(map[string]any{"name": "this field may not be blank"})
	}

	attr, err := s.attrs.FindByID(ctx, kind, id, userID)
	if err != nil {
		if errors.Is(err, ports.ErrAttributeNotFound) {
			return nil, ErrAttributeNotFound
		}
		s.logger.Error(ctx, "failed to load attribute", "error", err, "kind", kind, "id", id)
		return nil, apperror.Wrap(err, apperror.CodeInternalError, apperror.BusinessCodeGeneral,
			"failed to load", http.StatusInternalServerError)
	}

	attr.Name = name
	if err := s.attrs.Update(ctx, kind, attr); err != nil {
		if errors.Is(err, ports.ErrAttributeNotFound) {
			return nil, ErrAttributeNotFound
		}
		if errors.Is(err, ports.ErrAttributeNameTaken) {
			return nil, ErrInvalidAttributeData.WithDetails(map[string]any{"name": "this name is already in use"})
		}
		s.logger.Error(ctx, "failed to update attribute", "error", err, "kind", kind, "id", id)
		return nil, apperror.Wrap(err, apperror.CodeInternalError, apperror.BusinessCodeGeneral,
			"failed to update", http.StatusInternalServerError)
	}

	return attr, nil
}

// Delete removes one of the owner's attributes and, via the store's cascade,
// its recipe associations.
func (s *AttributesService) Delete(ctx context.Context, userID int64, kind domain.Kind, id int64) error {
	if err := s.attrs.Delete(ctx, kind, id, userID); err != nil {
		if errors.Is(err, ports.ErrAttributeNotFound) {
			return ErrAttributeNotFound
		}
		s.logger.Error(ctx, "failed to delete attribute", "error", err, "kind", kind, "id", id)
		return apperror.Wrap(err, apperror.CodeInternalError, apperror.BusinessCodeGeneral,
			"failed to delete", http.StatusInternalServerError)
	}
	return nil
}
