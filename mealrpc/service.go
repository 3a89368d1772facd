// Package mealrpc serves the recipe lookups over gRPC as the
// mealsquirrel.Meals service. Registration goes through a hand-written
// [grpc.ServiceDesc], so no protobuf code generation is required.
//
// The messages are plain Go structs. Importing the package registers a codec
// under the "proto" name that JSON-encodes them and delegates every real
// protobuf message to the standard proto codec.
package mealrpc

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Keksclan/mealsquirrel/breaker"
	"github.com/Keksclan/mealsquirrel/contextx"
	"github.com/Keksclan/mealsquirrel/meal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "mealsquirrel.Meals"

type (
	HealthRequest  struct{}
	HealthResponse struct {
		OK bool `json:"ok"`
	}

	CategoriesRequest      struct{}
	MealsByCategoryRequest struct {
		Category string `json:"category"`
	}
	SearchRequest struct {
		Term string `json:"term"`
	}
	RandomRequest struct{}
	LookupRequest struct {
		ID string `json:"id"`
	}

	ClearCacheRequest  struct{}
	ClearCacheResponse struct {
		Cleared bool `json:"cleared"`
	}
)

// DataResponse carries the result of every lookup. Data is the raw JSON the
// HTTP API would put in its "data" field and may be null.
type DataResponse struct {
	Data   json.RawMessage `json:"data"`
	Cached bool            `json:"cached"`
}

// Meals is the lookup surface the service needs. *meal.Service satisfies it.
type Meals interface {
	Categories(ctx context.Context) (meal.Result, error)
	MealsByCategory(ctx context.Context, category string) (meal.Result, error)
	Search(ctx context.Context, term string) (meal.Result, error)
	Random(ctx context.Context) (meal.Result, error)
	Lookup(ctx context.Context, id string) (meal.Result, error)
	ClearCache(ctx context.Context) error
}

// Server implements the mealsquirrel.Meals service on top of Meals.
type Server struct {
	meals Meals
}

// NewServer returns a Server backed by meals.
func NewServer(meals Meals) *Server {
	return &Server{meals: meals}
}

// Register registers the service on s.
func Register(s *grpc.Server, meals Meals) {
	s.RegisterService(&ServiceDesc, NewServer(meals))
}

func (s *Server) Health(context.Context, *HealthRequest) (*HealthResponse, error) {
	return &HealthResponse{OK: true}, nil
}

func (s *Server) Categories(ctx context.Context, _ *CategoriesRequest) (*DataResponse, error) {
	res, err := s.meals.Categories(ctx)
	return respond(ctx, res, err, "Failed to fetch categories")
}

func (s *Server) MealsByCategory(ctx context.Context, req *MealsByCategoryRequest) (*DataResponse, error) {
	res, err := s.meals.MealsByCategory(ctx, req.Category)
	return respond(ctx, res, err, "Failed to fetch meals for category: "+req.Category)
}

func (s *Server) Search(ctx context.Context, req *SearchRequest) (*DataResponse, error) {
	res, err := s.meals.Search(ctx, req.Term)
	return respond(ctx, res, err, "Failed to search meals: "+req.Term)
}

func (s *Server) Random(ctx context.Context, _ *RandomRequest) (*DataResponse, error) {
	res, err := s.meals.Random(ctx)
	res.Cached = false
	return respond(ctx, res, err, "Failed to fetch random meal")
}

func (s *Server) Lookup(ctx context.Context, req *LookupRequest) (*DataResponse, error) {
	res, err := s.meals.Lookup(ctx, req.ID)
	return respond(ctx, res, err, "Failed to fetch meal details: "+req.ID)
}

func (s *Server) ClearCache(ctx context.Context, _ *ClearCacheRequest) (*ClearCacheResponse, error) {
	if err := s.meals.ClearCache(ctx); err != nil {
		return nil, statusError(ctx, err, "Failed to clear cache")
	}
	return &ClearCacheResponse{Cleared: true}, nil
}

func respond(ctx context.Context, res meal.Result, err error, msg string) (*DataResponse, error) {
	if err != nil {
		return nil, statusError(ctx, err, msg)
	}
	data := res.Data
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	return &DataResponse{Data: data, Cached: res.Cached}, nil
}

// statusError maps a lookup failure onto a gRPC status, logging everything
// that is not the caller's fault.
func statusError(ctx context.Context, err error, msg string) error {
	code := codes.Internal
	switch {
	case errors.Is(err, meal.ErrSearchTermRequired):
		return status.Error(codes.InvalidArgument, "Search term is required")
	case errors.Is(err, breaker.ErrOpen):
		code = codes.Unavailable
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, msg)
	}
	contextx.Logger(ctx).Error(msg, "error", err, "code", code.String())
	return status.Error(code, msg)
}
