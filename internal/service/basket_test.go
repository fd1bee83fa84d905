package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

func mugInput(qty int) domain.BasketInput {
	return domain.BasketInput{ID: "mug", Name: "Mug", Price: domain.NewPrice("8.50"), Quantity: qty}
}

func TestBasket_GetEmpty(t *testing.T) {
	env := newTestEnv(t)

	b, err := env.basket.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.NotNil(t, b.Items)
	assert.Zero(t, b.LineCount)
	assert.True(t, b.Shipping.IsZero())
	assert.True(t, b.Total.IsZero())
}

func TestBasket_AddItemPricesBasket(t *testing.T) {
	env := newTestEnv(t)

	b, err := env.basket.AddItem(context.Background(), "s1", mugInput(2))
	require.NoError(t, err)

	assert.Equal(t, 1, b.LineCount)
	assert.Equal(t, 2, b.ItemCount)
	assert.Equal(t, "17", b.Subtotal.String())
	assert.Equal(t, "15", b.Shipping.String())
	assert.Equal(t, "32", b.Total.String())
	assert.Equal(t, []string{"Added to basket"}, env.toasts.titles())
}

func TestBasket_AddItemDefaultsToOneUnit(t *testing.T) {
	env := newTestEnv(t)

	b, err := env.basket.AddItem(context.Background(), "s1", mugInput(0))
	require.NoError(t, err)
	assert.Equal(t, 1, b.Items[0].Quantity)
}

func TestBasket_AddItemMergesAndCaps(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.basket.AddItem(ctx, "s1", mugInput(60))
	require.NoError(t, err)
	b, err := env.basket.AddItem(ctx, "s1", mugInput(3))
	require.NoError(t, err)
	assert.Equal(t, 63, b.Items[0].Quantity)

	b, err = env.basket.AddItem(ctx, "s1", mugInput(90))
	require.NoError(t, err)
	assert.Equal(t, domain.MaxQuantityPerItem, b.Items[0].Quantity)
	assert.Equal(t, 1, b.LineCount)
}

func TestBasket_AddItemRejectsOverLimitQuantity(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.basket.AddItem(context.Background(), "s1", mugInput(101))
	require.Error(t, err)
}

func TestBasket_AddItemLineLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for i := 0; i < domain.MaxItemsPerBasket; i++ {
		_, err := env.basket.AddItem(ctx, "s1", domain.BasketInput{ID: fmt.Sprint(i), Name: "x", Price: domain.NewPrice("1")})
		require.NoError(t, err)
	}

	_, err := env.basket.AddItem(ctx, "s1", domain.BasketInput{ID: "one-too-many", Name: "x", Price: domain.NewPrice("1")})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	// Merging into an existing line is still allowed.
	_, err = env.basket.AddItem(ctx, "s1", domain.BasketInput{ID: "0", Name: "x", Price: domain.NewPrice("1")})
	assert.NoError(t, err)
}

func TestBasket_UpdateQuantity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.basket.AddItem(ctx, "s1", mugInput(1))
	require.NoError(t, err)
	toasts := len(env.toasts.titles())

	b, err := env.basket.UpdateQuantity(ctx, "s1", "mug", 4)
	require.NoError(t, err)
	assert.Equal(t, 4, b.ItemCount)
	assert.Len(t, env.toasts.titles(), toasts, "quantity changes are silent")

	tests := []struct {
		name string
		id   string
		qty  int
		want error
	}{
		{"zero", "mug", 0, apperrors.ErrInvalidInput},
		{"negative", "mug", -2, apperrors.ErrInvalidInput},
		{"over cap", "mug", 101, apperrors.ErrInvalidInput},
		{"missing line", "nope", 2, apperrors.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.basket.UpdateQuantity(ctx, "s1", tt.id, tt.qty)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	b, err = env.basket.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 4, b.ItemCount)
}

func TestBasket_RemoveItem(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.basket.AddItem(ctx, "s1", mugInput(1))
	require.NoError(t, err)

	_, removed, err := env.basket.RemoveItem(ctx, "s1", "nope")
	require.NoError(t, err)
	assert.False(t, removed)

	b, removed, err := env.basket.RemoveItem(ctx, "s1", "mug")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Zero(t, b.LineCount)
	assert.True(t, b.Shipping.IsZero())
}

func TestBasket_Clear(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.basket.AddItem(ctx, "s1", mugInput(3))
	require.NoError(t, err)

	b, err := env.basket.Clear(ctx, "s1")
	require.NoError(t, err)
	assert.Zero(t, b.ItemCount)
	assert.Contains(t, env.toasts.titles(), "Basket cleared")
}
