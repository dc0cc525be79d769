package wishlist

import (
	"context"
	"database/sql"

	"stackstore-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	GetSnapshot(ctx context.Context, userID uint) ([]string, error)
	ReplaceSnapshot(ctx context.Context, userID uint, ids []string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetSnapshot(ctx context.Context, userID uint) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id FROM user_wishlist_items
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC
	`, userID)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to query wishlist",
			zap.String("layer", "repository"),
			zap.String("method", "GetSnapshot"),
			zap.Error(err),
		)
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *repository) ReplaceSnapshot(ctx context.Context, userID uint, ids []string) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ReplaceSnapshot"),
		zap.Int("ids", len(ids)),
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

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_wishlist_items WHERE user_id = $1`, userID); err != nil {
		log.Error("failed to clear wishlist", zap.Error(err))
		return err
	}

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO user_wishlist_items (user_id, product_id) VALUES ($1, $2)`,
			userID, id,
		); err != nil {
			log.Error("failed to insert wishlist row", zap.String("product_id", id), zap.Error(err))
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit wishlist snapshot", zap.Error(err))
		return err
	}
	committed = true
	return nil
}
