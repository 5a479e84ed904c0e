package orders

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amsilks/amsilks-erp/internal/fabric"
)

func newTestCartStore(t *testing.T) (*RedisCartStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCartStore(client, time.Hour), mr
}

func TestRedisCartStoreRoundTrip(t *testing.T) {
	store, mr := newTestCartStore(t)
	ctx := context.Background()

	empty, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())

	calc, err := NewCalculatedItem("Majlis", fabric.Measurement{
		Kind: fabric.KindCurtain, WidthCm: 200, HeightCm: 250, Quantity: 2, FullnessRatio: 3, FabricWidthM: 2.8,
	}, fabric.Pricing{UnitFabricPrice: decimal.NewFromInt(25), StitchingPerPiece: decimal.NewFromInt(40), FixingPerPiece: decimal.NewFromInt(15)})
	require.NoError(t, err)
	direct, err := NewDirectItem("Motorised track", 1, decimal.NewFromInt(650))
	require.NoError(t, err)

	order := Order{
		Customer: Customer{Name: "Fatima", Phone: "55001122"},
		Lines:    []LineItem{calc, direct},
		Discount: decimal.NewFromInt(60),
	}
	require.NoError(t, store.Store(ctx, "sess-1", order))
	assert.True(t, mr.Exists("cart:sess-1"))
	assert.Equal(t, time.Hour, mr.TTL("cart:sess-1"))

	loaded, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, loaded.Lines, 2)
	assert.Equal(t, LineCalculated, loaded.Lines[0].Kind())
	assert.Equal(t, LineDirect, loaded.Lines[1].Kind())
	assert.Equal(t, fabric.LayoutRailroad, loaded.Lines[0].(CalculatedItem).Layout)
	assert.True(t, decimal.NewFromInt(1000).Equal(loaded.NetTotal()))

	other, err := store.Load(ctx, "sess-2")
	require.NoError(t, err)
	assert.True(t, other.IsEmpty())

	require.NoError(t, store.Clear(ctx, "sess-1"))
	assert.False(t, mr.Exists("cart:sess-1"))
}

func TestRedisCartStoreExpires(t *testing.T) {
	store, mr := newTestCartStore(t)
	ctx := context.Background()
	direct, err := NewDirectItem("Hooks", 10, decimal.NewFromInt(2))
	require.NoError(t, err)
	require.NoError(t, store.Store(ctx, "s", Order{Lines: []LineItem{direct}}))

	mr.FastForward(2 * time.Hour)
	order, err := store.Load(ctx, "s")
	require.NoError(t, err)
	assert.True(t, order.IsEmpty())
}

func TestRedisCartStoreRejectsCorruptPayload(t *testing.T) {
	store, mr := newTestCartStore(t)
	require.NoError(t, mr.Set("cart:s", `{"lines":[{"kind":"mystery"}]}`))
	_, err := store.Load(context.Background(), "s")
	require.Error(t, err)
}
