package cart

import (
	"context"
	"strings"
)

type Service interface {
	Get(ctx context.Context, userID uint) ([]Line, error)
	Replace(ctx context.Context, userID uint, items []Line) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Get(ctx context.Context, userID uint) ([]Line, error) {
	return s.repo.GetSnapshot(ctx, userID)
}

func (s *service) Replace(ctx context.Context, userID uint, items []Line) error {
	normalized, err := normalize(items)
	if err != nil {
		return err
	}
	return s.repo.ReplaceSnapshot(ctx, userID, normalized)
}

// normalize trims ids and folds repeated product ids into the first occurrence.
func normalize(items []Line) ([]Line, error) {
	out := make([]Line, 0, len(items))
	index := make(map[string]int, len(items))

	for _, it := range items {
		it.ProductID = strings.TrimSpace(it.ProductID)
		if it.ProductID == "" {
			return nil, ErrEmptyProduct
		}
		if it.Price.IsNegative() {
			return nil, ErrNegativePrice
		}

		if i, ok := index[it.ProductID]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		index[it.ProductID] = len(out)
		out = append(out, it)
	}
	return out, nil
}
