package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/safar/agromarket/internal/market"
)

// Quantities are rejected before any round trip, so the client never dials.
func TestQuantityMustFitCents(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { client.Close() })
	s := NewStore(client, time.Hour)
	ctx := context.Background()

	for _, qty := range []string{"1.005", "0.001"} {
		q := decimal.RequireFromString(qty)
		assert.ErrorIs(t, s.Add(ctx, uuid.New(), uuid.New(), q), market.ErrInvalidQuantity, qty)
		assert.ErrorIs(t, s.Set(ctx, uuid.New(), uuid.New(), q), market.ErrInvalidQuantity, qty)
	}
	assert.ErrorIs(t, s.Add(ctx, uuid.New(), uuid.New(), decimal.Zero), market.ErrInvalidQuantity)
}
