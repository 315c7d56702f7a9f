package storage

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
)

// PathGenerator derives storage keys for uploaded recipe images. Only the
// extension of the original filename survives; the body is replaced by a
// fresh UUID so keys never collide and user input never reaches the path.
type PathGenerator struct {
	newID func() uuid.UUID
}

// NewPathGenerator creates a generator using uuid.New.
func NewPathGenerator() *PathGenerator {
	return &PathGenerator{newID: uuid.New}
}

// NewPathGeneratorWithSource creates a generator with an injected ID source,
// for tests.
func NewPathGeneratorWithSource(newID func() uuid.UUID) *PathGenerator {
	return &PathGenerator{newID: newID}
}

// RecipeImagePath returns a fresh storage key of the form
// uploads/recipe/<uuid><ext>, preserving the original extension as given.
func (g *PathGenerator) RecipeImagePath(originalFilename string) string {
	ext := filepath.Ext(originalFilename)
	return fmt.Sprintf("uploads/recipe/%s%s", g.newID(), ext)
}
