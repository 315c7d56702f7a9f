// Package api holds the wire types of the public REST surface. They are
// kept separate from the domain so the JSON contract can evolve without
// touching business types.
package api

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

// Error is the uniform error envelope of every non-2xx response. Details
// carries field-level validation errors when present.
type Error struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// NewUserRequest is the body of POST /users.
type NewUserRequest struct {
	Email    openapi_types.Email `json:"email"`
	Password string              `json:"password"`
	Name     string              `json:"name"`
}

// UpdateUserRequest is the body of PATCH /users/me. Absent fields are left
// untouched.
type UpdateUserRequest struct {
	Name     *string `json:"name,omitempty"`
	Password *string `json:"password,omitempty"`
}

// User is the public user projection. The password never appears in any
// response.
type User struct {
	Email openapi_types.Email `json:"email"`
	Name  string              `json:"name"`
}

// TokenRequest is the body of POST /users/token.
type TokenRequest struct {
	Email    openapi_types.Email `json:"email"`
	Password string              `json:"password"`
}

// TokenResponse carries a freshly issued bearer token.
type TokenResponse struct {
	Token string `json:"token"`
}

// AttributeName references a tag or ingredient by name in a recipe payload.
type AttributeName struct {
	Name string `json:"name"`
}

// Attribute is the public tag/ingredient projection.
type Attribute struct {
	Id   int64  `json:"id"`
	Name string `json:"name"`
}

// UpdateAttributeRequest is the body of PATCH /tags/{id} and
// PATCH /ingredients/{id}.
type UpdateAttributeRequest struct {
	Name string `json:"name"`
}

// NewRecipeRequest is the body of POST /recipes. Tags and Ingredients are
// optional; when present they name the attributes to resolve or create.
type NewRecipeRequest struct {
	Title       string          `json:"title"`
	TimeMinutes int             `json:"time_minutes"`
	Price       string          `json:"price"`
	Link        *string         `json:"link,omitempty"`
	Description *string         `json:"description,omitempty"`
	Tags        []AttributeName `json:"tags,omitempty"`
	Ingredients []AttributeName `json:"ingredients,omitempty"`
}

// UpdateRecipeRequest is the body of PUT and PATCH on /recipes/{id}. A nil
// field is absent from the payload; for Tags and Ingredients an empty
// non-nil list clears all associations of that kind.
type UpdateRecipeRequest struct {
	Title       *string          `json:"title,omitempty"`
	TimeMinutes *int             `json:"time_minutes,omitempty"`
	Price       *string          `json:"price,omitempty"`
	Link        *string          `json:"link,omitempty"`
	Description *string          `json:"description,omitempty"`
	Tags        *[]AttributeName `json:"tags,omitempty"`
	Ingredients *[]AttributeName `json:"ingredients,omitempty"`
}

// Recipe is the list projection. The description only appears on the detail
// view.
type Recipe struct {
	Id          int64       `json:"id"`
	Title       string      `json:"title"`
	TimeMinutes int         `json:"time_minutes"`
	Price       string      `json:"price"`
	Link        string      `json:"link"`
	Tags        []Attribute `json:"tags"`
	Ingredients []Attribute `json:"ingredients"`
	Image       *string     `json:"image"`
	CreatedAt   time.Time   `json:"created_at"`
}

// RecipeDetail is the detail projection returned by /recipes/{id}.
type RecipeDetail struct {
	Recipe
	Description string `json:"description"`
}

// RecipeImage is the response of the image upload endpoint.
type RecipeImage struct {
	Id    int64   `json:"id"`
	Image *string `json:"image"`
}

// HealthResponse is the body of the health probe endpoints.
type HealthResponse struct {
	Status   string  `json:"status"`
	Database *string `json:"database,omitempty"`
}
