package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/validator"
)

// ListOptions shapes the wishlist page view.
type ListOptions struct {
	Sort     domain.SortKey
	Category string
}

// WishlistView is the wishlist as the page shows it.
type WishlistView struct {
	Items []domain.Entry `json:"items"`
	// Count is the size of the whole wishlist, not of the filtered Items.
	Count      int      `json:"count"`
	Categories []string `json:"categories"`
	Version    uint64   `json:"version"`
}

// MoveResult reports what MoveToBasket did. Skipped counts entries the
// basket refused because it was full.
type MoveResult struct {
	Added   int           `json:"added"`
	Merged  int           `json:"merged"`
	Skipped int           `json:"skipped"`
	Basket  domain.Basket `json:"basket"`
}

// WishlistService implements the wishlist operations for a session.
type WishlistService struct {
	sessions *Sessions
	basket   *BasketService
	logger   *slog.Logger
}

// NewWishlistService creates a wishlist service. basket is used by
// MoveToBasket.
func NewWishlistService(sessions *Sessions, basket *BasketService, logger *slog.Logger) *WishlistService {
	return &WishlistService{sessions: sessions, basket: basket, logger: logger}
}

// List returns the wishlist filtered by category and sorted by opts.Sort.
func (s *WishlistService) List(ctx context.Context, sessionID string, opts ListOptions) (WishlistView, error) {
	sf, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return WishlistView{}, err
	}

	snap := sf.Wishlist.Snapshot()
	if opts.Sort == "" {
		opts.Sort = domain.SortByDateAdded
	}
	items := domain.SortEntries(domain.FilterByCategory(snap.Items, opts.Category), opts.Sort)
	if items == nil {
		items = []domain.Entry{}
	}

	return WishlistView{
		Items:      items,
		Count:      snap.Count,
		Categories: domain.Categories(snap.Items),
		Version:    snap.Version,
	}, nil
}

// Add validates in and adds it to the wishlist. An id already present yields
// an AlreadyExists error.
func (s *WishlistService) Add(ctx context.Context, sessionID string, in domain.EntryInput) (domain.Entry, error) {
	if err := validator.Validate(in); err != nil {
		return domain.Entry{}, err
	}
	sf, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.Entry{}, err
	}

	candidate := in.Entry()
	s.warnOutOfRange(ctx, candidate)

	if err := sf.Wishlist.Add(ctx, candidate); err != nil {
		return domain.Entry{}, err
	}
	added, _ := sf.Wishlist.Get(candidate.ID)
	return added, nil
}

// Remove removes id from the wishlist and reports whether it was present.
// Removing an absent id is not an error.
func (s *WishlistService) Remove(ctx context.Context, sessionID, id string) (bool, error) {
	sf, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return false, err
	}

	if _, err := sf.Wishlist.Remove(ctx, id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Toggle removes in.ID when present and adds in otherwise. It reports
// whether the entry is in the wishlist afterwards.
func (s *WishlistService) Toggle(ctx context.Context, sessionID string, in domain.EntryInput) (bool, error) {
	if err := validator.Validate(in); err != nil {
		return false, err
	}
	sf, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return false, err
	}

	if sf.Wishlist.Contains(in.ID) {
		if _, err := sf.Wishlist.Remove(ctx, in.ID); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return false, err
		}
		return false, nil
	}

	candidate := in.Entry()
	s.warnOutOfRange(ctx, candidate)
	if err := sf.Wishlist.Add(ctx, candidate); err != nil && !errors.Is(err, apperrors.ErrAlreadyExists) {
		return false, err
	}
	return true, nil
}

// Contains reports whether id is in the wishlist.
func (s *WishlistService) Contains(ctx context.Context, sessionID, id string) (bool, error) {
	sf, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return sf.Wishlist.Contains(id), nil
}

// Count returns the wishlist size.
func (s *WishlistService) Count(ctx context.Context, sessionID string) (int, error) {
	sf, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	return sf.Wishlist.Count(), nil
}

// Clear empties the wishlist.
func (s *WishlistService) Clear(ctx context.Context, sessionID string) error {
	sf, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	sf.Wishlist.Clear(ctx)
	return nil
}

// MoveToBasket puts one unit of every wishlist entry in the basket. Entries
// already in the basket have their quantity raised by one. The wishlist is
// left as it is.
func (s *WishlistService) MoveToBasket(ctx context.Context, sessionID string) (MoveResult, error) {
	sf, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return MoveResult{}, err
	}

	var res MoveResult
	for _, e := range sf.Wishlist.List() {
		created, err := s.basket.add(ctx, sf, domain.BasketItemFromEntry(e))
		switch {
		case errors.Is(err, apperrors.ErrInvalidInput):
			res.Skipped++
		case err != nil:
			return MoveResult{}, err
		case created:
			res.Added++
		default:
			res.Merged++
		}
	}

	res.Basket = s.basket.summary(sf)
	return res, nil
}

func (s *WishlistService) warnOutOfRange(ctx context.Context, e domain.Entry) {
	warnings := e.RangeWarnings()
	if len(warnings) == 0 {
		return
	}
	logger.WithContext(ctx, s.logger).WarnContext(ctx, "wishlist entry has out-of-range attributes",
		slog.String("id", e.ID),
		slog.Any("warnings", warnings),
	)
}
