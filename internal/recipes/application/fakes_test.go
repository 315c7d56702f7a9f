package application

import (
	"context"
	"io"
	"sort"

	"github.com/jackc/pgx/v5"

	"github.com/kitchenlog/recipebox/internal/platform/postgres"
	"github.com/kitchenlog/recipebox/internal/platform/storage"
	"github.com/kitchenlog/recipebox/internal/recipes/domain"
	"github.com/kitchenlog/recipebox/internal/recipes/ports"
)

// memStore backs the repository fakes. The fake transaction manager snapshots
// it on BeginTx and restores on Rollback, so atomicity assertions hold.
type memStore struct {
	recipes      map[int64]*domain.Recipe
	attrs        map[domain.Kind]map[int64]*domain.Attribute
	links        map[domain.Kind]map[int64]map[int64]bool // recipeID -> attrID set
	nextRecipeID int64
	nextAttrID   int64
}

func newMemStore() *memStore {
	return &memStore{
		recipes: make(map[int64]*domain.Recipe),
		attrs: map[domain.Kind]map[int64]*domain.Attribute{
			domain.KindTag:        {},
			domain.KindIngredient: {},
		},
		links: map[domain.Kind]map[int64]map[int64]bool{
			domain.KindTag:        {},
			domain.KindIngredient: {},
		},
		nextRecipeID: 1,
		nextAttrID:   1,
	}
}

func (s *memStore) snapshot() *memStore {
	snap := newMemStore()
	snap.nextRecipeID = s.nextRecipeID
	snap.nextAttrID = s.nextAttrID
	for id, r := range s.recipes {
		clone := *r
		snap.recipes[id] = &clone
	}
	for kind, attrs := range s.attrs {
		for id, a := range attrs {
			clone := *a
			snap.attrs[kind][id] = &clone
		}
	}
	for kind, links := range s.links {
		for rid, set := range links {
			dst := make(map[int64]bool, len(set))
			for aid := range set {
				dst[aid] = true
			}
			snap.links[kind][rid] = dst
		}
	}
	return snap
}

func (s *memStore) restore(snap *memStore) {
	s.recipes = snap.recipes
	s.attrs = snap.attrs
	s.links = snap.links
	s.nextRecipeID = snap.nextRecipeID
	s.nextAttrID = snap.nextAttrID
}

func (s *memStore) attributesFor(kind domain.Kind, recipeID int64) []*domain.Attribute {
	var out []*domain.Attribute
	for aid := range s.links[kind][recipeID] {
		if a, ok := s.attrs[kind][aid]; ok {
			clone := *a
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// fakeTxManager implements postgres.TransactionManager over a memStore.
type fakeTxManager struct {
	store     *memStore
	commits   int
	rollbacks int
}

func (m *fakeTxManager) BeginTx(ctx context.Context) (postgres.Transaction, error) {
	return &fakeTx{mgr: m, snap: m.store.snapshot()}, nil
}

type fakeTx struct {
	mgr  *fakeTxManager
	snap *memStore
	done bool
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.done = true
	t.mgr.commits++
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.mgr.rollbacks++
	t.mgr.store.restore(t.snap)
	return nil
}

func (t *fakeTx) Tx() pgx.Tx { return nil }

// fakeRecipeRepo implements ports.RecipeRepository over a memStore.
type fakeRecipeRepo struct {
	store *memStore
}

func (r *fakeRecipeRepo) WithTx(tx pgx.Tx) ports.RecipeRepository { return r }

func (r *fakeRecipeRepo) Create(ctx context.Context, recipe *domain.Recipe) error {
	recipe.ID = r.store.nextRecipeID
	r.store.nextRecipeID++
	clone := *recipe
	clone.Tags = nil
	clone.Ingredients = nil
	r.store.recipes[recipe.ID] = &clone
	return nil
}

func (r *fakeRecipeRepo) Update(ctx context.Context, recipe *domain.Recipe) error {
	stored, ok := r.store.recipes[recipe.ID]
	if !ok || stored.UserID != recipe.UserID {
		return ports.ErrRecipeNotFound
	}
	clone := *recipe
	clone.Tags = nil
	clone.Ingredients = nil
	r.store.recipes[recipe.ID] = &clone
	return nil
}

func (r *fakeRecipeRepo) Delete(ctx context.Context, id, userID int64) error {
	stored, ok := r.store.recipes[id]
	if !ok || stored.UserID != userID {
		return ports.ErrRecipeNotFound
	}
	delete(r.store.recipes, id)
	delete(r.store.links[domain.KindTag], id)
	delete(r.store.links[domain.KindIngredient], id)
	return nil
}

func (r *fakeRecipeRepo) FindByID(ctx context.Context, id, userID int64) (*domain.Recipe, error) {
	stored, ok := r.store.recipes[id]
	if !ok || stored.UserID != userID {
		return nil, ports.ErrRecipeNotFound
	}
	clone := *stored
	clone.Tags = r.store.attributesFor(domain.KindTag, id)
	clone.Ingredients = r.store.attributesFor(domain.KindIngredient, id)
	return &clone, nil
}

func (r *fakeRecipeRepo) List(ctx context.Context, userID int64, filter ports.RecipeFilter) ([]*domain.Recipe, error) {
	matchesAny := func(kind domain.Kind, recipeID int64, ids []int64) bool {
		for _, id := range ids {
			if r.store.links[kind][recipeID][id] {
				return true
			}
		}
		return false
	}

	var out []*domain.Recipe
	for id, stored := range r.store.recipes {
		if stored.UserID != userID {
			continue
		}
		if len(filter.TagIDs) > 0 && !matchesAny(domain.KindTag, id, filter.TagIDs) {
			continue
		}
		if len(filter.IngredientIDs) > 0 && !matchesAny(domain.KindIngredient, id, filter.IngredientIDs) {
			continue
		}
		clone := *stored
		clone.Tags = r.store.attributesFor(domain.KindTag, id)
		clone.Ingredients = r.store.attributesFor(domain.KindIngredient, id)
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *fakeRecipeRepo) UpdateImage(ctx context.Context, id, userID int64, image string) error {
	stored, ok := r.store.recipes[id]
	if !ok || stored.UserID != userID {
		return ports.ErrRecipeNotFound
	}
	stored.Image = image
	return nil
}

// fakeAttrRepo implements ports.AttributeRepository over a memStore.
// failGetOrCreateName forces an error mid-reconciliation for rollback tests.
type fakeAttrRepo struct {
	store                *memStore
	failGetOrCreateName  string
	failGetOrCreateError error
}

func (r *fakeAttrRepo) WithTx(tx pgx.Tx) ports.AttributeRepository { return r }

func (r *fakeAttrRepo) GetOrCreate(ctx context.Context, userID int64, kind domain.Kind, name string) (*domain.Attribute, error) {
	if r.failGetOrCreateName != "" && name == r.failGetOrCreateName {
		return nil, r.failGetOrCreateError
	}
	for _, a := range r.store.attrs[kind] {
		if a.UserID == userID && a.Name == name {
			clone := *a
			return &clone, nil
		}
	}
	attr := &domain.Attribute{ID: r.store.nextAttrID, UserID: userID, Name: name}
	r.store.nextAttrID++
	clone := *attr
	r.store.attrs[kind][attr.ID] = &clone
	return attr, nil
}

func (r *fakeAttrRepo) Attach(ctx context.Context, kind domain.Kind, recipeID, attributeID int64) error {
	set, ok := r.store.links[kind][recipeID]
	if !ok {
		set = make(map[int64]bool)
		r.store.links[kind][recipeID] = set
	}
	set[attributeID] = true
	return nil
}

func (r *fakeAttrRepo) Clear(ctx context.Context, kind domain.Kind, recipeID int64) error {
	delete(r.store.links[kind], recipeID)
	return nil
}

func (r *fakeAttrRepo) List(ctx context.Context, userID int64, kind domain.Kind, assignedOnly bool) ([]*domain.Attribute, error) {
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

	var out []*domain.Attribute
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

func (r *fakeAttrRepo) FindByID(ctx context.Context, kind domain.Kind, id, userID int64) (*domain.Attribute, error) {
	a, ok := r.store.attrs[kind][id]
	if !ok || a.UserID != userID {
		return nil, ports.ErrAttributeNotFound
	}
	clone := *a
	return &clone, nil
}

func (r *fakeAttrRepo) Update(ctx context.Context, kind domain.Kind, attr *domain.Attribute) error {
	stored, ok := r.store.attrs[kind][attr.ID]
	if !ok || stored.UserID != attr.UserID {
		return ports.ErrAttributeNotFound
	}
	for _, other := range r.store.attrs[kind] {
		if other.ID != attr.ID && other.UserID == attr.UserID && other.Name == attr.Name {
			return ports.ErrAttributeNameTaken
		}
	}
	clone := *attr
	r.store.attrs[kind][attr.ID] = &clone
	return nil
}

func (r *fakeAttrRepo) Delete(ctx context.Context, kind domain.Kind, id, userID int64) error {
	stored, ok := r.store.attrs[kind][id]
	if !ok || stored.UserID != userID {
		return ports.ErrAttributeNotFound
	}
	delete(r.store.attrs[kind], id)
	for _, set := range r.store.links[kind] {
		delete(set, id)
	}
	return nil
}

// fakeBlobStore records saves and removals.
type fakeBlobStore struct {
	blobs map[string][]byte
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: make(map[string][]byte)}
}

func (s *fakeBlobStore) Save(ctx context.Context, key string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.blobs[key] = data
	return nil
}

func (s *fakeBlobStore) Remove(ctx context.Context, key string) error {
	if _, ok := s.blobs[key]; !ok {
		return storage.ErrNotFound
	}
	delete(s.blobs, key)
	return nil
}

type nopLogger struct{}

func (nopLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (nopLogger) Info(ctx context.Context, msg string, args ...any)  {}
func (nopLogger) Warn(ctx context.Context, msg string, args ...any)  {}
func (nopLogger) Error(ctx context.Context, msg string, args ...any) {}
