package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"doing_now/authdb/biz/adapter"
	"doing_now/authdb/biz/model/options"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	now := time.Now()
	row := adapter.Record{"name": "alice", "age": int64(30), "at": now, "nothing": nil}

	cases := []struct {
		w    adapter.CleanedWhere
		want bool
	}{
		{adapter.CleanedWhere{Field: "name", Operator: adapter.OpEq, Value: "alice"}, true},
		{adapter.CleanedWhere{Field: "name", Operator: adapter.OpNe, Value: "alice"}, false},
		{adapter.CleanedWhere{Field: "age", Operator: adapter.OpEq, Value: 30}, true},
		{adapter.CleanedWhere{Field: "age", Operator: adapter.OpGt, Value: 29.5}, true},
		{adapter.CleanedWhere{Field: "age", Operator: adapter.OpLte, Value: int32(29)}, false},
		{adapter.CleanedWhere{Field: "at", Operator: adapter.OpLt, Value: now.Add(time.Second)}, true},
		{adapter.CleanedWhere{Field: "at", Operator: adapter.OpGte, Value: now}, true},
		{adapter.CleanedWhere{Field: "name", Operator: adapter.OpIn, Value: []any{"bob", "alice"}}, true},
		{adapter.CleanedWhere{Field: "name", Operator: adapter.OpNotIn, Value: []any{"alice"}}, false},
		{adapter.CleanedWhere{Field: "name", Operator: adapter.OpContains, Value: "lic"}, true},
		{adapter.CleanedWhere{Field: "name", Operator: adapter.OpStartsWith, Value: "al"}, true},
		{adapter.CleanedWhere{Field: "name", Operator: adapter.OpEndsWith, Value: "al"}, false},
		{adapter.CleanedWhere{Field: "nothing", Operator: adapter.OpEq, Value: nil}, true},
		{adapter.CleanedWhere{Field: "nothing", Operator: adapter.OpContains, Value: ""}, false},
		{adapter.CleanedWhere{Field: "name", Operator: adapter.OpGt, Value: 1}, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, evaluate(row, c.w), "%s %s %v", c.w.Field, c.w.Operator, c.w.Value)
	}
}

func TestMatches(t *testing.T) {
	row := adapter.Record{"a": "1", "b": "2"}
	and := adapter.CleanedWhere{Field: "a", Value: "1", Operator: adapter.OpEq, Connector: adapter.ConnectorAnd}
	orHit := adapter.CleanedWhere{Field: "b", Value: "2", Operator: adapter.OpEq, Connector: adapter.ConnectorOr}
	orMiss := adapter.CleanedWhere{Field: "b", Value: "3", Operator: adapter.OpEq, Connector: adapter.ConnectorOr}

	assert.True(t, matches(row, nil))
	assert.True(t, matches(row, []adapter.CleanedWhere{and, orMiss, orHit}))
	assert.False(t, matches(row, []adapter.CleanedWhere{and, orMiss}))
}

func TestBackend_IDs(t *testing.T) {
	ctx := context.Background()

	serial, err := NewFactory(NewStore(), DefaultConfig())(&options.Options{
		Advanced: options.AdvancedOptions{Database: options.DatabaseOptions{UseNumberID: true}},
	})
	require.NoError(t, err)
	first, err := serial.Create(ctx, adapter.CreateRequest{Model: "user", Data: adapter.Record{"name": "a", "email": "a@x.com"}})
	require.NoError(t, err)
	second, err := serial.Create(ctx, adapter.CreateRequest{Model: "user", Data: adapter.Record{"name": "b", "email": "b@x.com"}})
	require.NoError(t, err)
	assert.Equal(t, "1", first["id"])
	assert.Equal(t, "2", second["id"])

	uuids, err := NewFactory(NewStore(), DefaultConfig())(&options.Options{
		Advanced: options.AdvancedOptions{Database: options.DatabaseOptions{GenerateID: options.GenerateIDUUID}},
	})
	require.NoError(t, err)
	u, err := uuids.Create(ctx, adapter.CreateRequest{Model: "user", Data: adapter.Record{"name": "a", "email": "a@x.com"}})
	require.NoError(t, err)
	_, err = uuid.Parse(u["id"].(string))
	assert.NoError(t, err)
}

func TestBackend_Transaction(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	a, err := NewFactory(store, DefaultConfig())(&options.Options{})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = a.Transaction(ctx, func(ctx context.Context, tx adapter.DBTransactionAdapter) error {
		_, err := tx.Create(ctx, adapter.CreateRequest{Model: "user", Data: adapter.Record{"name": "a", "email": "a@x.com"}})
		require.NoError(t, err)
		n, err := tx.Count(ctx, adapter.CountRequest{Model: "user"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		assert.Empty(t, store.Rows("user"))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, store.Rows("user"))
}

func TestPage(t *testing.T) {
	rows := []adapter.Record{{"i": 0}, {"i": 1}, {"i": 2}}
	assert.Len(t, page(rows, 0, 0), 3)
	assert.Len(t, page(rows, 1, 1), 1)
	assert.Equal(t, 2, page(rows, 2, 5)[0]["i"])
	assert.Nil(t, page(rows, 3, 1))
}
