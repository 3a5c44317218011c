package trace_info

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTraceInfo(t *testing.T) {
	ctx := context.Background()
	logId := "123456zbcd"
	ctx = WithLogId(ctx, logId)

	assert.Equal(t, logId, GetLogId(ctx))
}

func TestEnsureLogId(t *testing.T) {
	ctx, logId := EnsureLogId(context.Background())
	assert.NotEmpty(t, logId)
	assert.Equal(t, logId, GetLogId(ctx))

	same, again := EnsureLogId(ctx)
	assert.Equal(t, logId, again)
	assert.Equal(t, ctx, same)
}
