package mealrpc

import (
	"context"

	"google.golang.org/grpc"
)

// Client calls the mealsquirrel.Meals service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient returns a Client that issues calls on cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) Health(ctx context.Context, opts ...grpc.CallOption) (*HealthResponse, error) {
	out := new(HealthResponse)
	if err := c.cc.Invoke(ctx, FullMethod("Health"), &HealthRequest{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Categories(ctx context.Context, opts ...grpc.CallOption) (*DataResponse, error) {
	return c.data(ctx, "Categories", &CategoriesRequest{}, opts)
}

func (c *Client) MealsByCategory(ctx context.Context, category string, opts ...grpc.CallOption) (*DataResponse, error) {
	return c.data(ctx, "MealsByCategory", &MealsByCategoryRequest{Category: category}, opts)
}

func (c *Client) Search(ctx context.Context, term string, opts ...grpc.CallOption) (*DataResponse, error) {
	return c.data(ctx, "Search", &SearchRequest{Term: term}, opts)
}

func (c *Client) Random(ctx context.Context, opts ...grpc.CallOption) (*DataResponse, error) {
	return c.data(ctx, "Random", &RandomRequest{}, opts)
}

func (c *Client) Lookup(ctx context.Context, id string, opts ...grpc.CallOption) (*DataResponse, error) {
	return c.data(ctx, "Lookup", &LookupRequest{ID: id}, opts)
}

func (c *Client) ClearCache(ctx context.Context, opts ...grpc.CallOption) (*ClearCacheResponse, error) {
	out := new(ClearCacheResponse)
	if err := c.cc.Invoke(ctx, FullMethod("ClearCache"), &ClearCacheRequest{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) data(ctx context.Context, method string, req any, opts []grpc.CallOption) (*DataResponse, error) {
	out := new(DataResponse)
	if err := c.cc.Invoke(ctx, FullMethod(method), req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
