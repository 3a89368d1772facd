// Package api serves the recipe lookups over HTTP/JSON.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/Keksclan/mealsquirrel/breaker"
	"github.com/Keksclan/mealsquirrel/contextx"
	"github.com/Keksclan/mealsquirrel/meal"
)

// Meals is the lookup surface the handlers need. *meal.Service satisfies it.
type Meals interface {
	Categories(ctx context.Context) (meal.Result, error)
	MealsByCategory(ctx context.Context, category string) (meal.Result, error)
	Search(ctx context.Context, term string) (meal.Result, error)
	Random(ctx context.Context) (meal.Result, error)
	Lookup(ctx context.Context, id string) (meal.Result, error)
	ClearCache(ctx context.Context) error
}

// Handler holds the HTTP handlers.
type Handler struct {
	meals Meals
}

// NewHandler creates a Handler backed by meals.
func NewHandler(meals Meals) *Handler {
	return &Handler{meals: meals}
}

// Register adds the API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", h.health)
	mux.HandleFunc("GET /api/categories", h.categories)
	mux.HandleFunc("GET /api/categories/{category}", h.mealsByCategory)
	mux.HandleFunc("GET /api/meals", h.search)
	mux.HandleFunc("GET /api/meals/random", h.random)
	mux.HandleFunc("GET /api/meals/{id}", h.lookup)
	mux.HandleFunc("POST /api/admin/cache/clear", h.clearCache)
	mux.HandleFunc("/api/", notFound)
}

// Routes returns a mux serving only the API.
func Routes(meals Meals) *http.ServeMux {
	mux := http.NewServeMux()
	NewHandler(meals).Register(mux)
	return mux
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		OK bool `json:"ok"`
	}{OK: true})
}

func (h *Handler) categories(w http.ResponseWriter, r *http.Request) {
	res, err := h.meals.Categories(r.Context())
	if err != nil {
		fail(w, r, err, "Failed to fetch categories")
		return
	}
	writeData(w, res.Data, res.Cached)
}

func (h *Handler) mealsByCategory(w http.ResponseWriter, r *http.Request) {
	category := r.PathValue("category")
	res, err := h.meals.MealsByCategory(r.Context(), category)
	if err != nil {
		fail(w, r, err, "Failed to fetch meals for category: "+category)
		return
	}
	writeData(w, res.Data, res.Cached)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("search")
	res, err := h.meals.Search(r.Context(), term)
	if err != nil {
		fail(w, r, err, "Failed to search meals: "+term)
		return
	}
	writeData(w, res.Data, res.Cached)
}

func (h *Handler) random(w http.ResponseWriter, r *http.Request) {
	res, err := h.meals.Random(r.Context())
	if err != nil {
		fail(w, r, err, "Failed to fetch random meal")
		return
	}
	writeData(w, res.Data, false)
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	res, err := h.meals.Lookup(r.Context(), id)
	if err != nil {
		fail(w, r, err, "Failed to fetch meal details: "+id)
		return
	}
	writeData(w, res.Data, res.Cached)
}

func (h *Handler) clearCache(w http.ResponseWriter, r *http.Request) {
	if err := h.meals.ClearCache(r.Context()); err != nil {
		fail(w, r, err, "Failed to clear cache")
		return
	}
	writeData(w, []byte(`{"cleared":true}`), false)
}

func notFound(w http.ResponseWriter, _ *http.Request) {
	WriteError(w, http.StatusNotFound, "Not found")
}

// fail maps err to a status, logs it and writes the error envelope.
func fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, meal.ErrSearchTermRequired):
		WriteError(w, http.StatusBadRequest, "Search term is required")
		return
	case errors.Is(err, breaker.ErrOpen):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	contextx.Logger(r.Context()).Error(msg, "error", err, "status", status)
	WriteError(w, status, msg)
}
