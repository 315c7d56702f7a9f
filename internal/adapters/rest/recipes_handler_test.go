package rest_test

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitchenlog/recipebox/internal/adapters/api"
)

func createRecipe(t *testing.T, f *apiFixture, token string, payload map[string]any) api.RecipeDetail {
	t.Helper()

	rec := f.doJSON(http.MethodPost, "/api/v1/recipes", token, payload)
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

	var detail api.RecipeDetail
	decode(t, rec, &detail)
	return detail
}

func TestCreateRecipe(t *testing.T) {
	f := newAPIFixture(t)
	_, token := f.registerUser("cook@example.com", "Cook")

	detail := createRecipe(t, f, token, recipePayload(map[string]any{
		"title":        "Thai Prawn Curry",
		"time_minutes": 30,
		"price":        "2.50",
		"tags":         []map[string]any{{"name": "Thai"}, {"name": "Dinner"}},
	}))

	assert.Equal(t, "Thai Prawn Curry", detail.Title)
	assert.Equal(t, 30, detail.TimeMinutes)
	assert.Equal(t, "2.50", detail.Price)
	assert.Len(t, detail.Tags, 2)
	assert.Nil(t, detail.Image)
}

func TestCreateRecipe_NormalizesPrice(t *testing.T) {
	f := newAPIFixture(t)
	_, token := f.registerUser("cook@example.com", "Cook")

	detail := createRecipe(t, f, token, recipePayload(map[string]any{"price": "5"}))

	assert.Equal(t, "5.00", detail.Price)
}

func TestCreateRecipe_InvalidPayloads(t *testing.T) {
	f := newAPIFixture(t)
	_, token := f.registerUser("cook@example.com", "Cook")

	tests := []struct {
		name    string
		payload map[string]any
	}{
		{"blank title", recipePayload(map[string]any{"title": "  "})},
		{"zero time", recipePayload(map[string]any{"time_minutes": 0})},
		{"negative time", recipePayload(map[string]any{"time_minutes": -5})},
		{"malformed price", recipePayload(map[string]any{"price": "2.505"})},
		{"price out of range", recipePayload(map[string]any{"price": "1000.00"})},
		{"blank tag name", recipePayload(map[string]any{"tags": []map[string]any{{"name": ""}}})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.doJSON(http.MethodPost, "/api/v1/recipes", token, tt.payload)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCreateRecipe_RequiresAuth(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.doJSON(http.MethodPost, "/api/v1/recipes", "", recipePayload(nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListRecipes_ScopedToOwnerNewestFirst(t *testing.T) {
	f := newAPIFixture(t)
	_, token := f.registerUser("cook@example.com", "Cook")
	_, other := f.registerUser("other@example.com", "Other")

	createRecipe(t, f, token, recipePayload(map[string]any{"title": "First"}))
	createRecipe(t, f, token, recipePayload(map[string]any{"title": "Second"}))
	createRecipe(t, f, other, recipePayload(map[string]any{"title": "Foreign"}))

	rec := f.doJSON(http.MethodGet, "/api/v1/recipes", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var recipes []api.Recipe
	decode(t, rec, &recipes)
	require.Len(t, recipes, 2)
	assert.Equal(t, "Second", recipes[0].Title)
	assert.Equal(t, "First", recipes[1].Title)
}

func TestListRecipes_ExcludesDescription(t *testing.T) {
	f := newAPIFixture(t)
	_, token := f.registerUser("cook@example.com", "Cook")

	createRecipe(t, f, token, recipePayload(map[string]any{"description": "A long story"}))

	rec := f.doJSON(http.MethodGet, "/api/v1/recipes", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "description")
}

func TestListRecipes_FilterByTags(t *testing.T) {
	f := newAPIFixture(t)
	_, token := f.registerUser("cook@example.com", "Cook")

	curry := createRecipe(t, f, token, recipePayload(map[string]any{
		"title": "Curry",
		"tags":  []map[string]any{{"name": "Vegan"}},
	}))
	createRecipe(t, f, token, recipePayload(map[string]any{"title": "Plain"}))

	require.Len(t, curry.Tags, 1)
	rec := f.doJSON(http.MethodGet, fmt.Sprintf("/api/v1/recipes?tags=%d", curry.Tags[0].Id), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var recipes []api.Recipe
	decode(t, rec, &recipes)
	require.Len(t, recipes, 1)
	assert.Equal(t, "Curry", recipes[0].Title)
}

func TestListRecipes_InvalidFilter(t *testing.T) {
	f := newAPIFixture(t)
	_, token := f.registerUser("cook@example.com", "Cook")

	rec := f.doJSON(http.MethodGet, "/api/v1/recipes?tags=1,abc", token, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetRecipe_DetailIncludesDescription(t *testing.T) {
	f := newAPIFixture(t)
	_, token := f.registerUser("cook@example.com", "Cook")

	created := createRecipe(t, f, token, recipePayload(map[string]any{"description": "Slow cooked"}))

	rec := f.doJSON(http.MethodGet, fmt.Sprintf("/api/v1/recipes/%d", created.Id), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var detail api.RecipeDetail
	decode(t, rec, &detail)
	assert.Equal(t, "Slow cooked", detail.Description)
}

func TestGetRecipe_ForeignReturnsNotFound(t *testing.T) {
	f := newAPIFixture(t)
	_, token := f.registerUser("cook@example.com", "Cook")
	_, other := f.registerUser("other@example.com", "Other")

	created := createRecipe(t, f, other, recipePayload(nil))

	rec := f.doJSON(http.MethodGet, fmt.Sprintf("/api/v1/recipes/%d", created.Id), token, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotContains(t, rec.Body.String(), "forbidden")
}

func TestGetRecipe_NonNumericID(t *testing.T) {
	f := newAPIFixture(t)
	_, token := f.registerUser("cook@example.com", "Cook")

	rec := f.doJSON(http.MethodGet, "/api/v1/recipes/abc", token, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPatchRecipe_PartialUpdate(t *testing.T) {
	f := newAPIFixture(t)
	_, token := f.registerUser("cook@example.com", "Cook")

	created := createRecipe(t, f, token, recipePayload(map[string]any{
		"title": "Original",
		"tags":  []map[string]any{{"name": "Lunch"}},
	}))

	rec := f.doJSON(http.MethodPatch, fmt.Sprintf("/api/v1/recipes/%d", created.Id), token, map[string]any{
		"title": "Renamed",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var detail api.RecipeDetail
	decode(t, rec, &detail)
	assert.Equal(t, "Renamed", detail.Title)
	assert.Len(t, detail.Tags, 1, "absent tags field must leave associations untouched")
}

func TestPatchRecipe_EmptyTagsClears(t *testing.T) {
	f := newAPIFixture(t)
	_, token := f.registerUser("cook@example.com", "Cook")

	created := createRecipe(t, f, token, recipePayload(map[string]any{
		"tags": []map[string]any{{"name": "Lunch"}, {"name": "Quick"}},
	}))
	require.Len(t, created.Tags, 2)

	rec := f.doJSON(http.MethodPatch, fmt.Sprintf("/api/v1/recipes/%d", created.Id), token, map[string]any{
		"tags": []map[string]any{},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var detail api.RecipeDetail
	decode(t, rec, &detail)
	assert.Empty(t, detail.Tags)
}

func TestPatchRecipe_OwnerFieldIgnored(t *testing.T) {
	f := newAPIFixture(t)
	userID, token := f.registerUser("cook@example.com", "Cook")
	f.registerUser("other@example.com", "Other")

	created := createRecipe(t, f, token, recipePayload(nil))

	rec := f.doJSON(http.MethodPatch, fmt.Sprintf("/api/v1/recipes/%d", created.Id), token, map[string]any{
		"title": "Still mine",
		"user":  userID + 1,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// The recipe stays visible to its original owner.
	get := f.doJSON(http.MethodGet, fmt.Sprintf("/api/v1/recipes/%d", created.Id), token, nil)
	assert.Equal(t, http.StatusOK, get.Code)
}

func TestPutRecipe_RequiresAllWritableFields(t *testing.T) {
	f := newAPIFixture(t)
	_, token := f.registerUser("cook@example.com", "Cook")

	created := createRecipe(t, f, token, recipePayload(nil))

	rec := f.doJSON(http.MethodPut, fmt.Sprintf("/api/v1/recipes/%d", created.Id), token, map[string]any{
		"title": "Only a title",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "time_minutes")
	assert.Contains(t, rec.Body.String(), "price")
}

func TestPutRecipe_FullUpdate(t *testing.T) {
	f := newAPIFixture(t)
	_, token := f.registerUser("cook@example.com", "Cook")

	created := createRecipe(t, f, token, recipePayload(nil))

	rec := f.doJSON(http.MethodPut, fmt.Sprintf("/api/v1/recipes/%d", created.Id), token, map[string]any{
		"title":        "Replaced",
		"time_minutes": 45,
		"price":        "9.99",
		"link":         "https://example.com/replaced",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var detail api.RecipeDetail
	decode(t, rec, &detail)
	assert.Equal(t, "Replaced", detail.Title)
	assert.Equal(t, 45, detail.TimeMinutes)
	assert.Equal(t, "9.99", detail.Price)
}

func TestDeleteRecipe(t *testing.T) {
	f := newAPIFixture(t)
	_, token := f.registerUser("cook@example.com", "Cook")

	created := createRecipe(t, f, token, recipePayload(nil))

	rec := f.doJSON(http.MethodDelete, fmt.Sprintf("/api/v1/recipes/%d", created.Id), token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	get := f.doJSON(http.MethodGet, fmt.Sprintf("/api/v1/recipes/%d", created.Id), token, nil)
	assert.Equal(t, http.StatusNotFound, get.Code)
}

func TestDeleteRecipe_Foreign(t *testing.T) {
	f := newAPIFixture(t)
	_, token := f.registerUser("cook@example.com", "Cook")
	_, other := f.registerUser("other@example.com", "Other")

	created := createRecipe(t, f, other, recipePayload(nil))

	rec := f.doJSON(http.MethodDelete, fmt.Sprintf("/api/v1/recipes/%d", created.Id), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Still visible to its owner.
	get := f.doJSON(http.MethodGet, fmt.Sprintf("/api/v1/recipes/%d", created.Id), other, nil)
	assert.Equal(t, http.StatusOK, get.Code)
}

func uploadImage(t *testing.T, f *apiFixture, token string, recipeID int64, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/v1/recipes/%d/upload-image", recipeID), &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", token)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func validPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestUploadRecipeImage(t *testing.T) {
	f := newAPIFixture(t)
	_, token := f.registerUser("cook@example.com", "Cook")

	created := createRecipe(t, f, token, recipePayload(nil))

	rec := uploadImage(t, f, token, created.Id, "dinner.png", validPNG(t))
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	var resp api.RecipeImage
	decode(t, rec, &resp)
	assert.Equal(t, created.Id, resp.Id)
	require.NotNil(t, resp.Image)
	assert.True(t, strings.HasPrefix(*resp.Image, "uploads/recipe/"))
	assert.True(t, strings.HasSuffix(*resp.Image, ".png"))

	_, stored := f.blobs.blobs[*resp.Image]
	assert.True(t, stored)
}

func TestUploadRecipeImage_InvalidFile(t *testing.T) {
	f := newAPIFixture(t)
	_, token := f.registerUser("cook@example.com", "Cook")

	created := createRecipe(t, f, token, recipePayload(nil))

	rec := uploadImage(t, f, token, created.Id, "notes.txt", []byte("not an image"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.blobs.blobs)
}

func TestUploadRecipeImage_Foreign(t *testing.T) {
	f := newAPIFixture(t)
	_, token := f.registerUser("cook@example.com", "Cook")
	_, other := f.registerUser("other@example.com", "Other")

	created := createRecipe(t, f, other, recipePayload(nil))

	rec := uploadImage(t, f, token, created.Id, "dinner.png", validPNG(t))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
