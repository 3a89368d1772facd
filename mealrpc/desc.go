package mealrpc

import (
	"context"

	"google.golang.org/grpc"
)

// MealsServer is the server API of the mealsquirrel.Meals service.
type MealsServer interface {
	Health(context.Context, *HealthRequest) (*HealthResponse, error)
	Categories(context.Context, *CategoriesRequest) (*DataResponse, error)
	MealsByCategory(context.Context, *MealsByCategoryRequest) (*DataResponse, error)
	Search(context.Context, *SearchRequest) (*DataResponse, error)
	Random(context.Context, *RandomRequest) (*DataResponse, error)
	Lookup(context.Context, *LookupRequest) (*DataResponse, error)
	ClearCache(context.Context, *ClearCacheRequest) (*ClearCacheResponse, error)
}

var _ MealsServer = (*Server)(nil)

// ServiceDesc is the grpc.ServiceDesc for the mealsquirrel.Meals service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MealsServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Health", Handler: unary("Health", MealsServer.Health)},
		{MethodName: "Categories", Handler: unary("Categories", MealsServer.Categories)},
		{MethodName: "MealsByCategory", Handler: unary("MealsByCategory", MealsServer.MealsByCategory)},
		{MethodName: "Search", Handler: unary("Search", MealsServer.Search)},
		{MethodName: "Random", Handler: unary("Random", MealsServer.Random)},
		{MethodName: "Lookup", Handler: unary("Lookup", MealsServer.Lookup)},
		{MethodName: "ClearCache", Handler: unary("ClearCache", MealsServer.ClearCache)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "mealsquirrel/meals.proto",
}

// FullMethod returns the full gRPC method name of method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// unary adapts a typed Server method to a grpc.MethodHandler.
func unary[Req, Resp any](method string, call func(MealsServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	fullMethod := FullMethod(method)
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := new(Req)
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(MealsServer), ctx, req)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, r any) (any, error) {
			return call(srv.(MealsServer), ctx, r.(*Req))
		}
		return interceptor(ctx, req, info, handler)
	}
}
