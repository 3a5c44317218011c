package trace_info

import (
	"context"

	"doing_now/authdb/biz/util/id_gen"
)

type logIdKey struct{}

func WithLogId(ctx context.Context, logId string) context.Context {
	return context.WithValue(ctx, logIdKey{}, logId)
}

func GetLogId(ctx context.Context) string {
	logId, ok := ctx.Value(logIdKey{}).(string)
	if ok {
		return logId
	}
	return ""
}

// EnsureLogId keeps an existing log id or attaches a new one.
func EnsureLogId(ctx context.Context) (context.Context, string) {
	if logId := GetLogId(ctx); logId != "" {
		return ctx, logId
	}
	logId := id_gen.NewID()
	return WithLogId(ctx, logId), logId
}
