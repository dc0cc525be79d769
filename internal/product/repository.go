package product

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"stackstore-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

const foreignKeyViolation = "23503"

const productColumns = `id, slug, name, description, image_url, price, stock, is_active, created_at, updated_at`

type Repository interface {
	FindActiveByIDs(ctx context.Context, ids []string) ([]Product, error)
	DecrementStock(ctx context.Context, items []StockDecrement) error
	GetBySlug(ctx context.Context, slug string) (*Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	ListActive(ctx context.Context, opts ListOptions) ([]Product, int, error)
	Create(ctx context.Context, p *Product) (*Product, error)
	Update(ctx context.Context, id string, input UpdateInput) (*Product, error)
	ListAll(ctx context.Context) ([]Product, error)
	Delete(ctx context.Context, id string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner, extra ...any) (Product, error) {
	var p Product
	dest := []any{
		&p.ID, &p.Slug, &p.Name, &p.Description, &p.ImageURL,
		&p.Price, &p.Stock, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	}
	err := row.Scan(append(dest, extra...)...)
	return p, err
}

func (r *repository) FindActiveByIDs(ctx context.Context, ids []string) ([]Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "FindActiveByIDs"),
		zap.Int("requested", len(ids)),
	)

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ANY($1) AND is_active = TRUE`,
		pq.Array(ids),
	)
	if err != nil {
		log.Error("failed to query products", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			log.Error("failed to scan product", zap.Error(err))
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	log.Debug("active products loaded", zap.Int("found", len(products)))
	return products, nil
}

// DecrementStockTx applies guarded decrements inside tx. A line whose stock would go
// negative matches no row and yields *StockConflictError; the caller owns rollback.
func DecrementStockTx(ctx context.Context, tx *sql.Tx, items []StockDecrement) error {
	for _, it := range items {
		res, err := tx.ExecContext(ctx,
			`UPDATE products SET stock = stock - $1, updated_at = NOW() WHERE id = $2 AND stock >= $1`,
			it.Quantity, it.ProductID,
		)
		if err != nil {
			return fmt.Errorf("decrement stock for %s: %w", it.ProductID, err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return &StockConflictError{ProductID: it.ProductID}
		}
	}
	return nil
}

func (r *repository) DecrementStock(ctx context.Context, items []StockDecrement) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "DecrementStock"),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", zap.Error(err))
		return err
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := DecrementStockTx(ctx, tx, items); err != nil {
		log.Warn("stock decrement rejected", zap.Error(err))
		return err
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit stock decrement", zap.Error(err))
		return err
	}
	committed = true

	return nil
}

func (r *repository) GetBySlug(ctx context.Context, slug string) (*Product, error) {
	return r.getOne(ctx, "GetBySlug",
		`SELECT `+productColumns+` FROM products WHERE slug = $1 AND is_active = TRUE`, slug)
}

func (r *repository) GetByID(ctx context.Context, id string) (*Product, error) {
	return r.getOne(ctx, "GetByID",
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

func (r *repository) getOne(ctx context.Context, method, query string, arg any) (*Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to load product",
			zap.String("layer", "repository"),
			zap.String("method", method),
			zap.Error(err),
		)
		return nil, err
	}
	return &p, nil
}

func (r *repository) ListActive(ctx context.Context, opts ListOptions) ([]Product, int, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ListActive"),
	)

	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`SELECT ` + productColumns + `, COUNT(*) OVER() AS total FROM products WHERE is_active = TRUE`)

	if s := strings.TrimSpace(opts.Search); s != "" {
		args = append(args, "%"+s+"%")
		fmt.Fprintf(&sb, " AND (name ILIKE $%d OR description ILIKE $%d)", len(args), len(args))
	}

	args = append(args, opts.Limit, (opts.Page-1)*opts.Limit)
	fmt.Fprintf(&sb, " ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		log.Error("failed to list products", zap.Error(err))
		return nil, 0, err
	}
	defer rows.Close()

	var (
		products []Product
		total    int
	)
	for rows.Next() {
		p, err := scanProduct(rows, &total)
		if err != nil {
			log.Error("failed to scan product", zap.Error(err))
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, p *Product) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Create"),
		zap.String("slug", p.Slug),
	)

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO products (id, slug, name, description, image_url, price, stock, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at, updated_at`,
		p.ID, p.Slug, p.Name, p.Description, p.ImageURL, p.Price, p.Stock, p.IsActive,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrSlugTaken
		}
		log.Error("failed to insert product", zap.Error(err))
		return nil, err
	}

	log.Info("product created", zap.String("product_id", p.ID))
	return p, nil
}

func (r *repository) Update(ctx context.Context, id string, input UpdateInput) (*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Update"),
		zap.String("product_id", id),
	)

	// COALESCE keeps the stored value for nil inputs
	p, err := scanProduct(r.db.QueryRowContext(ctx,
		`UPDATE products
		 SET name = COALESCE($2, name),
		     description = COALESCE($3, description),
		     image_url = COALESCE($4, image_url),
		     price = COALESCE($5, price),
		     stock = COALESCE($6, stock),
		     is_active = COALESCE($7, is_active),
		     updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+productColumns,
		id, input.Name, input.Description, input.ImageURL, input.Price, input.Stock, input.IsActive,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		log.Error("failed to update product", zap.Error(err))
		return nil, err
	}

	log.Info("product updated")
	return &p, nil
}

// ListAll returns every product, inactive ones included, newest first.
func (r *repository) ListAll(ctx context.Context) ([]Product, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC`)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to list all products",
			zap.String("layer", "repository"),
			zap.String("method", "ListAll"),
			zap.Error(err),
		)
		return nil, err
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *repository) Delete(ctx context.Context, id string) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Delete"),
		zap.String("product_id", id),
	)

	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
			return ErrProductInUse
		}
		log.Error("failed to delete product", zap.Error(err))
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}

	log.Info("product deleted")
	return nil
}
