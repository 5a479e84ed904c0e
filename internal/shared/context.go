package shared

import (
	"context"
	"strconv"
	"strings"
)

type sessionContextKey struct{}

// SessionUserNameKey holds the display name of the signed-in user.
const SessionUserNameKey = "user_name"

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// CurrentUser returns the signed-in user's ID and display name.
func CurrentUser(ctx context.Context) (int64, string, bool) {
	sess := SessionFromContext(ctx)
	if sess == nil {
		return 0, "", false
	}
	id, err := strconv.ParseInt(strings.TrimSpace(sess.User()), 10, 64)
	if err != nil || id <= 0 {
		return 0, "", false
	}
	return id, sess.Get(SessionUserNameKey), true
}
