package domain

import (
	"errors"
	"strings"
)

// ErrEmptyAttributeName rejects a tag/ingredient spec without a name.
var ErrEmptyAttributeName = errors.New("name cannot be empty")

// Kind distinguishes the two attribute label spaces. They have identical
// shape and lifecycle but are never interchangeable.
type Kind string

const (
	KindTag        Kind = "tag"
	KindIngredient Kind = "ingredient"
)

// Attribute is a named label (tag or ingredient) scoped to its owner.
// Uniqueness is per (owner, name) via get-or-create, not global.
type Attribute struct {
	ID     int64
	UserID int64
	Name   string
}

// NewAttribute creates an attribute for the given owner.
func NewAttribute(userID int64, name string) (*Attribute, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyAttributeName
	}
	return &Attribute{UserID: userID, Name: name}, nil
}

// AttributeSpec names an attribute to resolve against the owner's existing
// set during reconciliation.
type AttributeSpec struct {
	Name string
}
