package editor

import "context"

// Actor là danh tính người đang soạn thảo, được truyền tường minh vào phiên
// và gắn vào context của mọi lời gọi repository/gateway.
type Actor struct {
	UserID         string // ID người dùng
	OrganizationID string // ID tổ chức
}

type actorContextKey struct{}

// SetActorToContext gắn actor vào context
func SetActorToContext(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext lấy actor từ context nếu có
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}
