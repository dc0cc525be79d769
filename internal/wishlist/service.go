package wishlist

import (
	"context"
	"strings"
)

type Service interface {
	Get(ctx context.Context, userID uint) ([]string, error)
	Replace(ctx context.Context, userID uint, ids []string) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Get(ctx context.Context, userID uint) ([]string, error) {
	return s.repo.GetSnapshot(ctx, userID)
}

func (s *service) Replace(ctx context.Context, userID uint, ids []string) error {
	return s.repo.ReplaceSnapshot(ctx, userID, Normalize(ids))
}

// Normalize trims ids, drops blanks and keeps the first occurrence of each id.
func Normalize(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
