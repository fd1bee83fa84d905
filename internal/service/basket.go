package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/validator"
)

// BasketService implements the basket operations for a session.
type BasketService struct {
	sessions *Sessions
	shipping domain.Price
	logger   *slog.Logger
}

// NewBasketService creates a basket service charging flatShipping on every
// non-empty basket.
func NewBasketService(sessions *Sessions, flatShipping domain.Price, logger *slog.Logger) *BasketService {
	return &BasketService{sessions: sessions, shipping: flatShipping, logger: logger}
}

// Get returns the priced basket.
func (s *BasketService) Get(ctx context.Context, sessionID string) (domain.Basket, error) {
	sf, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.Basket{}, err
	}
	return s.summary(sf), nil
}

// AddItem adds in to the basket. When the id is already present the
// quantities are summed, capped at MaxQuantityPerItem, and the line's
// product details are refreshed.
func (s *BasketService) AddItem(ctx context.Context, sessionID string, in domain.BasketInput) (domain.Basket, error) {
	if err := validator.Validate(in); err != nil {
		return domain.Basket{}, err
	}
	sf, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.Basket{}, err
	}

	item := in.Item()
	if item.Price.IsNegative() {
		logger.WithContext(ctx, s.logger).WarnContext(ctx, "basket item has negative price",
			slog.String("id", item.ID),
			slog.String("price", item.Price.String()),
		)
	}

	if _, err := s.add(ctx, sf, item); err != nil {
		return domain.Basket{}, err
	}
	return s.summary(sf), nil
}

// UpdateQuantity sets the quantity of line id. Quantities below one are
// rejected; use RemoveItem to drop a line.
func (s *BasketService) UpdateQuantity(ctx context.Context, sessionID, id string, quantity int) (domain.Basket, error) {
	if quantity < 1 {
		return domain.Basket{}, apperrors.InvalidInput("quantity must be at least 1")
	}
	if quantity > domain.MaxQuantityPerItem {
		return domain.Basket{}, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", domain.MaxQuantityPerItem))
	}
	sf, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.Basket{}, err
	}

	_, err = sf.Basket.Update(ctx, id, func(cur domain.BasketItem) (domain.BasketItem, error) {
		cur.Quantity = quantity
		return cur, nil
	})
	if err != nil {
		return domain.Basket{}, err
	}
	return s.summary(sf), nil
}

// RemoveItem drops line id and reports whether it was present.
func (s *BasketService) RemoveItem(ctx context.Context, sessionID, id string) (domain.Basket, bool, error) {
	sf, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.Basket{}, false, err
	}

	removed := true
	if _, err := sf.Basket.Remove(ctx, id); err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return domain.Basket{}, false, err
		}
		removed = false
	}
	return s.summary(sf), removed, nil
}

// Clear empties the basket.
func (s *BasketService) Clear(ctx context.Context, sessionID string) (domain.Basket, error) {
	sf, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.Basket{}, err
	}
	sf.Basket.Clear(ctx)
	return s.summary(sf), nil
}

// add upserts item and reports whether a new line was created.
func (s *BasketService) add(ctx context.Context, sf *Storefront, item domain.BasketItem) (bool, error) {
	if !sf.Basket.Contains(item.ID) && sf.Basket.Count() >= domain.MaxItemsPerBasket {
		return false, apperrors.InvalidInput(fmt.Sprintf("basket must not exceed %d items", domain.MaxItemsPerBasket))
	}

	_, created, err := sf.Basket.Upsert(ctx, item, func(existing domain.BasketItem) (domain.BasketItem, error) {
		merged := item
		merged.Quantity = min(existing.Quantity+item.Quantity, domain.MaxQuantityPerItem)
		if merged.Color == "" {
			merged.Color = existing.Color
		}
		return merged, nil
	})
	return created, err
}

func (s *BasketService) summary(sf *Storefront) domain.Basket {
	return domain.NewBasket(sf.Basket.List(), s.shipping)
}
