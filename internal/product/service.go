package product

import (
	"context"
	"strings"

	"stackstore-be/internal/logger"
	"stackstore-be/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Service interface {
	List(ctx context.Context, opts ListOptions) (*ListResult, error)
	GetBySlug(ctx context.Context, slug string) (*Product, error)
	Create(ctx context.Context, input CreateInput) (*Product, error)
	Update(ctx context.Context, id string, input UpdateInput) (*Product, error)
	ListAll(ctx context.Context) ([]Product, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	opts.Limit, opts.Page, _ = utils.ClampPage(opts.Limit, opts.Page, defaultPageSize, maxPageSize)

	items, total, err := s.repo.ListActive(ctx, opts)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []Product{}
	}
	return &ListResult{Items: items, Total: total, Page: opts.Page, Limit: opts.Limit}, nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (*Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, ErrProductNotFound
	}
	return s.repo.GetBySlug(ctx, slug)
}

func (s *service) Create(ctx context.Context, input CreateInput) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Create"),
	)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if !input.Price.IsPositive() {
		return nil, ErrInvalidPrice
	}

	slug := utils.Slugify(input.Slug)
	if slug == "" {
		slug = utils.Slugify(name)
	}

	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}

	p := &Product{
		ID:          uuid.NewString(),
		Slug:        slug,
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		ImageURL:    strings.TrimSpace(input.ImageURL),
		Price:       input.Price.Round(2),
		Stock:       input.Stock,
		IsActive:    active,
	}

	created, err := s.repo.Create(ctx, p)
	if err != nil {
		log.Error("failed to create product", zap.String("slug", slug), zap.Error(err))
		return nil, err
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, id string, input UpdateInput) (*Product, error) {
	if input.Price != nil {
		if !input.Price.IsPositive() {
			return nil, ErrInvalidPrice
		}
		rounded := input.Price.Round(2)
		input.Price = &rounded
	}
	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		if trimmed == "" {
			return nil, ErrEmptyName
		}
		input.Name = &trimmed
	}

	return s.repo.Update(ctx, id, input)
}

func (s *service) ListAll(ctx context.Context) ([]Product, error) {
	return s.repo.ListAll(ctx)
}

func (s *service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrProductNotFound
	}
	return s.repo.Delete(ctx, id)
}
