package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/kitchenlog/recipebox/internal/adapters/auth"
	"github.com/kitchenlog/recipebox/internal/adapters/rest"
	"github.com/kitchenlog/recipebox/internal/adapters/rest/middleware"
	"github.com/kitchenlog/recipebox/internal/platform/postgres"
	"github.com/kitchenlog/recipebox/internal/platform/storage"
	recipesapp "github.com/kitchenlog/recipebox/internal/recipes/application"
	recipesdomain "github.com/kitchenlog/recipebox/internal/recipes/domain"
	recipesports "github.com/kitchenlog/recipebox/internal/recipes/ports"
	usersapp "github.com/kitchenlog/recipebox/internal/users/application"
	usersdomain "github.com/kitchenlog/recipebox/internal/users/domain"
	usersports "github.com/kitchenlog/recipebox/internal/users/ports"
)

// apiStore is the shared in-memory backing store for the repository fakes.
type apiStore struct {
	users        map[int64]*usersdomain.User
	recipes      map[int64]*recipesdomain.Recipe
	attrs        map[recipesdomain.Kind]map[int64]*recipesdomain.Attribute
	links        map[recipesdomain.Kind]map[int64]map[int64]bool
	nextUserID   int64
	nextRecipeID int64
	nextAttrID   int64
}

func newAPIStore() *apiStore {
	return &apiStore{
		users:   make(map[int64]*usersdomain.User),
		recipes: make(map[int64]*recipesdomain.Recipe),
		attrs: map[recipesdomain.Kind]map[int64]*recipesdomain.Attribute{
			recipesdomain.KindTag:        {},
			recipesdomain.KindIngredient: {},
		},
		links: map[recipesdomain.Kind]map[int64]map[int64]bool{
			recipesdomain.KindTag:        {},
			recipesdomain.KindIngredient: {},
		},
		nextUserID:   1,
		nextRecipeID: 1,
		nextAttrID:   1,
	}
}

func (s *apiStore) attributesFor(kind recipesdomain.Kind, recipeID int64) []*recipesdomain.Attribute {
	var out []*recipesdomain.Attribute
	for aid := range s.links[kind][recipeID] {
		if a, ok := s.attrs[kind][aid]; ok {
			clone := *a
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// memUserRepo implements usersports.UserRepository over the shared store.
type memUserRepo struct {
	store *apiStore
}

func (r *memUserRepo) Create(_ context.Context, user *usersdomain.User) error {
	for _, existing := range r.store.users {
		if existing.Email == user.Email {
			return usersports.ErrEmailTaken
		}
	}
	user.ID = r.store.nextUserID
	r.store.nextUserID++
	clone := *user
	r.store.users[user.ID] = &clone
	return nil
}

func (r *memUserRepo) FindByID(_ context.Context, id int64) (*usersdomain.User, error) {
	user, ok := r.store.users[id]
	if !ok {
		return nil, usersports.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*usersdomain.User, error) {
	for _, user := range r.store.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, usersports.ErrUserNotFound
}

func (r *memUserRepo) Update(_ context.Context, user *usersdomain.User) error {
	if _, ok := r.store.users[user.ID]; !ok {
		return usersports.ErrUserNotFound
	}
	clone := *user
	r.store.users[user.ID] = &clone
	return nil
}

func (r *memUserRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.store.users[id]; !ok {
		return usersports.ErrUserNotFound
	}
	delete(r.store.users, id)
	return nil
}

// plainHasher is a transparent stand-in for the argon2 hasher.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed::" + password, nil }

func (plainHasher) Verify(password, encoded string) (bool, error) {
	return encoded == "hashed::"+password, nil
}

// memRecipeRepo implements recipesports.RecipeRepository over the shared store.
type memRecipeRepo struct {
	store *apiStore
}

func (r *memRecipeRepo) WithTx(_ pgx.Tx) recipesports.RecipeRepository { return r }

func (r *memRecipeRepo) Create(_ context.Context, recipe *recipesdomain.Recipe) error {
	recipe.ID = r.store.nextRecipeID
	r.store.nextRecipeID++
	clone := *recipe
	clone.Tags = nil
	clone.Ingredients = nil
	r.store.recipes[recipe.ID] = &clone
	return nil
}

func (r *memRecipeRepo) Update(_ context.Context, recipe *recipesdomain.Recipe) error {
	stored, ok := r.store.recipes[recipe.ID]
	if !ok || stored.UserID != recipe.UserID {
		return recipesports.ErrRecipeNotFound
	}
	clone := *recipe
	clone.Tags = nil
	clone.Ingredients = nil
	r.store.recipes[recipe.ID] = &clone
	return nil
}

func (r *memRecipeRepo) Delete(_ context.Context, id, userID int64) error {
	stored, ok := r.store.recipes[id]
	if !ok || stored.UserID != userID {
		return recipesports.ErrRecipeNotFound
	}
	delete(r.store.recipes, id)
	delete(r.store.links[recipesdomain.KindTag], id)
	delete(r.store.links[recipesdomain.KindIngredient], id)
	return nil
}

func (r *memRecipeRepo) FindByID(_ context.Context, id, userID int64) (*recipesdomain.Recipe, error) {
	stored, ok := r.store.recipes[id]
	if !ok || stored.UserID != userID {
		return nil, recipesports.ErrRecipeNotFound
	}
	clone := *stored
	clone.Tags = r.store.attributesFor(recipesdomain.KindTag, id)
	clone.Ingredients = r.store.attributesFor(recipesdomain.KindIngredient, id)
	return &clone, nil
}

func (r *memRecipeRepo) List(_ context.Context, userID int64, filter recipesports.RecipeFilter) ([]*recipesdomain.Recipe, error) {
	matchesAny := func(kind recipesdomain.Kind, recipeID int64, ids []int64) bool {
		for _, id := range ids {
			if r.store.links[kind][recipeID][id] {
				return true
			}
		}
		return false
	}

	out := []*recipesdomain.Recipe{}
	for id, stored := range r.store.recipes {
		if stored.UserID != userID {
			continue
		}
		if len(filter.TagIDs) > 0 && !matchesAny(recipesdomain.KindTag, id, filter.TagIDs) {
			continue
		}
		if len(filter.IngredientIDs) > 0 && !matchesAny(recipesdomain.KindIngredient, id, filter.IngredientIDs) {
			continue
		}
		clone := *stored
		clone.Tags = r.store.attributesFor(recipesdomain.KindTag, id)
		clone.Ingredients = r.store.attributesFor(recipesdomain.KindIngredient, id)
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memRecipeRepo) UpdateImage(_ context.Context, id, userID int64, image string) error {
	stored, ok := r.store.recipes[id]
	if !ok || stored.UserID != userID {
		return recipesports.ErrRecipeNotFound
	}
	stored.Image = image
	return nil
}

// memAttrRepo implements recipesports.AttributeRepository over the shared store.
type memAttrRepo struct {
	store *apiStore
}

func (r *memAttrRepo) WithTx(_ pgx.Tx) recipesports.AttributeRepository { return r }

func (r *memAttrRepo) GetOrCreate(_ context.Context, userID int64, kind recipesdomain.Kind, name string) (*recipesdomain.Attribute, error) {
	for _, a := range r.store.attrs[kind] {
		if a.UserID == userID && a.Name == name {
			clone := *a
			return &clone, nil
		}
	}
	attr := &recipesdomain.Attribute{ID: r.store.nextAttrID, UserID: userID, Name: name}
	r.store.nextAttrID++
	clone := *attr
	r.store.attrs[kind][attr.ID] = &clone
	return attr, nil
}

func (r *memAttrRepo) Attach(_ context.Context, kind recipesdomain.Kind, recipeID, attributeID int64) error {
	set, ok := r.store.links[kind][recipeID]
	if !ok {
		set = make(map[int64]bool)
		r.store.links[kind][recipeID] = set
	}
	set[attributeID] = true
	return nil
}

func (r *memAttrRepo) Clear(_ context.Context, kind recipesdomain.Kind, recipeID int64) error {
	delete(r.store.links[kind], recipeID)
	return nil
}

func (r *memAttrRepo) List(_ context.Context, userID int64, kind recipesdomain.Kind, assignedOnly bool) ([]*recipesdomain.Attribute, error) {
	assigned := make(map[int64]bool)
	if assignedOnly {
		for recipeID, set := range r.store.links[kind] {
			stored, ok := r.store.recipes[recipeID]
			if !ok || stored.UserID != userID {
				continue
			}
			for aid := range set {
				assigned[aid] = true
			}
		}
	}

	out := []*recipesdomain.Attribute{}
	for _, a := range r.store.attrs[kind] {
		if a.UserID != userID {
			continue
		}
		if assignedOnly && !assigned[a.ID] {
			continue
		}
		clone := *a
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name > out[j].Name })
	return out, nil
}

func (r *memAttrRepo) FindByID(_ context.Context, kind recipesdomain.Kind, id, userID int64) (*recipesdomain.Attribute, error) {
	a, ok := r.store.attrs[kind][id]
	if !ok || a.UserID != userID {
		return nil, recipesports.ErrAttributeNotFound
	}
	clone := *a
	return &clone, nil
}

func (r *memAttrRepo) Update(_ context.Context, kind recipesdomain.Kind, attr *recipesdomain.Attribute) error {
	stored, ok := r.store.attrs[kind][attr.ID]
	if !ok || stored.UserID != attr.UserID {
		return recipesports.ErrAttributeNotFound
	}
	for _, other := range r.store.attrs[kind] {
		if other.ID != attr.ID && other.UserID == attr.UserID && other.Name == attr.Name {
			return recipesports.ErrAttributeNameTaken
		}
	}
	clone := *attr
	r.store.attrs[kind][attr.ID] = &clone
	return nil
}

func (r *memAttrRepo) Delete(_ context.Context, kind recipesdomain.Kind, id, userID int64) error {
	stored, ok := r.store.attrs[kind][id]
	if !ok || stored.UserID != userID {
		return recipesports.ErrAttributeNotFound
	}
	delete(r.store.attrs[kind], id)
	for _, set := range r.store.links[kind] {
		delete(set, id)
	}
	return nil
}

// passTxManager satisfies the transaction manager without transactional
// behavior; the rollback semantics are covered by the service tests.
type passTxManager struct{}

func (passTxManager) BeginTx(_ context.Context) (postgres.Transaction, error) {
	return passTx{}, nil
}

type passTx struct{}

func (passTx) Commit(_ context.Context) error   { return nil }
func (passTx) Rollback(_ context.Context) error { return nil }
func (passTx) Tx() pgx.Tx                       { return nil }

// memBlobStore records blobs in memory.
type memBlobStore struct {
	blobs map[string][]byte
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{blobs: make(map[string][]byte)}
}

func (s *memBlobStore) Save(_ context.Context, key string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.blobs[key] = data
	return nil
}

func (s *memBlobStore) Remove(_ context.Context, key string) error {
	if _, ok := s.blobs[key]; !ok {
		return storage.ErrNotFound
	}
	delete(s.blobs, key)
	return nil
}

// apiFixture wires the full handler stack over in-memory repositories, so
// tests exercise routing, middleware and JSON mapping end to end.
type apiFixture struct {
	t      *testing.T
	router http.Handler
	store  *apiStore
	blobs  *memBlobStore
	users  *usersapp.UserService
	tokens *auth.TokenService
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	store := newAPIStore()
	blobs := newMemBlobStore()
	log := &mockLogger{}

	userService := usersapp.NewUserService(&memUserRepo{store: store}, plainHasher{}, log)
	recipesService := recipesapp.NewRecipesService(
		&memRecipeRepo{store: store},
		&memAttrRepo{store: store},
		passTxManager{},
		blobs,
		storage.NewPathGeneratorWithSource(uuid.New),
		log,
	)
	attrsService := recipesapp.NewAttributesService(&memAttrRepo{store: store}, log)

	tokens, err := auth.NewTokenService([]byte("test-secret-at-least-32-bytes-long"), "recipebox-test", time.Hour)
	require.NoError(t, err)

	base := rest.NewBaseHandler(log)
	router := rest.NewRouter(
		rest.NewUserHandler(base, userService, tokens),
		rest.NewRecipesHandler(base, recipesService),
		rest.NewAttributesHandler(base, attrsService),
		rest.NewHealthHandler(base, nil),
		middleware.NewAuthMiddleware(tokens, userService),
	)

	return &apiFixture{
		t:      t,
		router: router,
		store:  store,
		blobs:  blobs,
		users:  userService,
		tokens: tokens,
	}
}

// registerUser creates an account and returns a bearer token for it.
func (f *apiFixture) registerUser(email, name string) (int64, string) {
	f.t.Helper()

	user, err := f.users.Register(context.Background(), usersapp.RegisterParams{
		Email:    email,
		Name:     name,
		Password: "password123",
	})
	require.NoError(f.t, err)

	token, err := f.tokens.Issue(user.ID)
	require.NoError(f.t, err)

	return user.ID, "Bearer " + token
}

// doJSON performs a JSON request against the router. A nil body sends no
// payload; an empty token leaves the request unauthenticated.
func (f *apiFixture) doJSON(method, path, token string, body any) *httptest.ResponseRecorder {
	f.t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(f.t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

// decode unmarshals a recorded JSON body into out.
func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), "body: %s", rec.Body.String())
}

// recipePayload builds a minimal valid create payload.
func recipePayload(overrides map[string]any) map[string]any {
	payload := map[string]any{
		"title":        "Sample recipe",
		"time_minutes": 10,
		"price":        "5.00",
	}
	for k, v := range overrides {
		payload[k] = v
	}
	return payload
}
