package cart

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/safar/agromarket/internal/market"
)

const keyPrefix = "cart:"

// maxWatchRetries bounds optimistic retries when two requests edit one cart.
const maxWatchRetries = 5

type Item struct {
	ListingID uuid.UUID       `json:"listing_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// Store keeps one Redis hash per buyer, field listing id, value quantity.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func key(buyerID uuid.UUID) string {
	return keyPrefix + buyerID.String()
}

// Add merges quantity into any existing line for the listing.
func (s *Store) Add(ctx context.Context, buyerID, listingID uuid.UUID, quantity decimal.Decimal) error {
	if err := market.ValidateQuantity(quantity); err != nil {
		return err
	}

	k := key(buyerID)
	field := listingID.String()

	update := func(tx *redis.Tx) error {
		current := decimal.Zero
		raw, err := tx.HGet(ctx, k, field).Result()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			current, err = decimal.NewFromString(raw)
			if err != nil {
				return fmt.Errorf("parse cart quantity: %w", err)
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, k, field, current.Add(quantity).String())
			pipe.Expire(ctx, k, s.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxWatchRetries; i++ {
		err := s.client.Watch(ctx, update, k)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("add cart item: %w", err)
		}
		return nil
	}
	return fmt.Errorf("add cart item: %w", redis.TxFailedErr)
}

// Set replaces the line's quantity. Zero or less removes the line.
func (s *Store) Set(ctx context.Context, buyerID, listingID uuid.UUID, quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return s.Remove(ctx, buyerID, listingID)
	}
	if err := market.ValidateQuantity(quantity); err != nil {
		return err
	}

	k := key(buyerID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k, listingID.String(), quantity.String())
		pipe.Expire(ctx, k, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("set cart item: %w", err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, buyerID, listingID uuid.UUID) error {
	if err := s.client.HDel(ctx, key(buyerID), listingID.String()).Err(); err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context, buyerID uuid.UUID) error {
	if err := s.client.Del(ctx, key(buyerID)).Err(); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// Items returns the cart lines ordered by listing id. Unparseable fields are
// skipped.
func (s *Store) Items(ctx context.Context, buyerID uuid.UUID) ([]Item, error) {
	raw, err := s.client.HGetAll(ctx, key(buyerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	items := make([]Item, 0, len(raw))
	for field, value := range raw {
		id, err := uuid.Parse(field)
		if err != nil {
			continue
		}
		qty, err := decimal.NewFromString(value)
		if err != nil {
			continue
		}
		items = append(items, Item{ListingID: id, Quantity: qty})
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].ListingID.String() < items[j].ListingID.String()
	})
	return items, nil
}
