package rest

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/kitchenlog/recipebox/internal/adapters/rest/middleware"
	"github.com/kitchenlog/recipebox/internal/recipes/domain"
)

// NewRouter builds the API route tree. Everything under /api/v1 except user
// registration, token issuing and the health probes requires a bearer token.
func NewRouter(
	users *UserHandler,
	recipes *RecipesHandler,
	attrs *AttributesHandler,
	health *HealthHandler,
	authMW *middleware.AuthMiddleware,
) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.StripSlashes)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health/live", health.GetLiveness)
		r.Get("/health/ready", health.GetReadiness)

		r.Route("/users", func(r chi.Router) {
			r.Post("/", users.CreateUser)
			r.Post("/token", users.CreateToken)

			r.Group(func(r chi.Router) {
				r.Use(authMW.Middleware)
				r.Get("/me", users.GetCurrentUser)
				r.Patch("/me", users.UpdateCurrentUser)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(authMW.Middleware)

			r.Route("/recipes", func(r chi.Router) {
				r.Get("/", recipes.ListRecipes)
				r.Post("/", recipes.CreateRecipe)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", recipes.GetRecipe)
					r.Put("/", recipes.ReplaceRecipe)
					r.Patch("/", recipes.PatchRecipe)
					r.Delete("/", recipes.DeleteRecipe)
					r.Post("/upload-image", recipes.UploadRecipeImage)
				})
			})

			registerAttributeRoutes(r, "/tags", attrs, domain.KindTag)
			registerAttributeRoutes(r, "/ingredients", attrs, domain.KindIngredient)
		})
	})

	return r
}

// registerAttributeRoutes wires the shared attribute handler under a kind
// specific path prefix.
func registerAttributeRoutes(r chi.Router, prefix string, attrs *AttributesHandler, kind domain.Kind) {
	r.Route(prefix, func(r chi.Router) {
		r.Get("/", attrs.List(kind))
		r.Post("/", attrs.Create(kind))
		r.Route("/{id}", func(r chi.Router) {
			r.Patch("/", attrs.Update(kind))
			r.Delete("/", attrs.Delete(kind))
		})
	})
}
