package cart

import (
	"context"
	"database/sql"

	"stackstore-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	GetSnapshot(ctx context.Context, userID uint) ([]Line, error)
	ReplaceSnapshot(ctx context.Context, userID uint, items []Line) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetSnapshot(ctx context.Context, userID uint) ([]Line, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "GetSnapshot"),
	)

	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, name, price, image_url, quantity
		FROM user_cart_items
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC
	`, userID)
	if err != nil {
		log.Error("failed to query cart", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	items := []Line{}
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ProductID, &l.Name, &l.Price, &l.ImageURL, &l.Quantity); err != nil {
			log.Error("failed to scan cart row", zap.Error(err))
			return nil, err
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

// ReplaceSnapshot swaps the user's whole cart in one transaction.
func (r *repository) ReplaceSnapshot(ctx context.Context, userID uint, items []Line) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ReplaceSnapshot"),
		zap.Int("items", len(items)),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", zap.Error(err))
		return err
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
				log.Error("rollback failed", zap.Error(rbErr))
			}
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_cart_items WHERE user_id = $1`, userID); err != nil {
		log.Error("failed to clear cart", zap.Error(err))
		return err
	}

	for _, it := range items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO user_cart_items (user_id, product_id, name, price, image_url, quantity)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, userID, it.ProductID, it.Name, it.Price, it.ImageURL, it.Quantity); err != nil {
			log.Error("failed to insert cart row", zap.String("product_id", it.ProductID), zap.Error(err))
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit cart snapshot", zap.Error(err))
		return err
	}
	committed = true

	log.Debug("cart snapshot replaced")
	return nil
}
