package auth

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

const userIDMetadataKey = "x-user-id"

type userIDKey struct{}

// WithUserID stores the caller's user id on ctx.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// GetUserID returns the user id set by ContextInterceptor, falling back to incoming metadata.
// Unauthenticated calls yield "unknown".
func GetUserID(ctx context.Context) string {
	if val, ok := ctx.Value(userIDKey{}).(string); ok && val != "" {
		return val
	}

	md, ok := metadata.FromIncomingContext(ctx)
	if ok {
		if val := md.Get(userIDMetadataKey); len(val) > 0 && val[0] != "" {
			return val[0]
		}
	}
	return "unknown"
}

// ContextInterceptor copies the x-user-id header into the request context.
func ContextInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if val := md.Get(userIDMetadataKey); len(val) > 0 && val[0] != "" {
				ctx = WithUserID(ctx, val[0])
			}
		}
		return handler(ctx, req)
	}
}
