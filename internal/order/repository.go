package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"stackstore-be/internal/logger"
	"stackstore-be/internal/product"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

const (
	orderColumns   = `id, customer_email, status, payment_method, total_amount, payment_ref, created_at, updated_at`
	userOrderLimit = 50
)

type Repository interface {
	CommitOrder(ctx context.Context, o NewOrder) (*Order, error)
	SetPaymentRef(ctx context.Context, orderID, ref string) error
	MarkPaid(ctx context.Context, orderID, ref string) (bool, error)
	UpdateStatus(ctx context.Context, orderID string, status Status) (*Order, error)
	GetByID(ctx context.Context, orderID string) (*Order, error)
	ListByEmail(ctx context.Context, email string) ([]Order, error)
	List(ctx context.Context, filter ListFilter) ([]Order, int, error)
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

func scanOrder(row rowScanner, extra ...any) (Order, error) {
	var (
		o   Order
		ref sql.NullString
	)
	dest := []any{
		&o.ID, &o.CustomerEmail, &o.Status, &o.PaymentMethod,
		&o.TotalAmount, &ref, &o.CreatedAt, &o.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return o, err
	}
	if ref.Valid {
		o.PaymentRef = &ref.String
	}
	return o, nil
}

// CommitOrder writes the order, its items and the guarded stock decrements in
// one transaction. A lost stock race rolls everything back.
func (r *repository) CommitOrder(ctx context.Context, o NewOrder) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "CommitOrder"),
		zap.String("order_id", o.ID),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction", zap.Error(err))
		return nil, err
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	out := Order{
		ID:            o.ID,
		CustomerEmail: o.CustomerEmail,
		Status:        StatusPending,
		PaymentMethod: o.PaymentMethod,
		TotalAmount:   o.Total,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (id, customer_email, status, payment_method, total_amount)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		o.ID, o.CustomerEmail, StatusPending, o.PaymentMethod, o.Total,
	).Scan(&out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		log.Error("failed to insert order", zap.Error(err))
		return nil, err
	}

	decrements := make([]product.StockDecrement, 0, len(o.Items))
	for _, it := range o.Items {
		item := it
		item.OrderID = o.ID
		err := tx.QueryRowContext(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4)
			RETURNING id`,
			o.ID, item.ProductID, item.Quantity, item.UnitPrice,
		).Scan(&item.ID)
		if err != nil {
			log.Error("failed to insert order item", zap.String("product_id", item.ProductID), zap.Error(err))
			return nil, err
		}
		out.Items = append(out.Items, item)
		decrements = append(decrements, product.StockDecrement{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	if err := product.DecrementStockTx(ctx, tx, decrements); err != nil {
		var conflict *product.StockConflictError
		if errors.As(err, &conflict) {
			log.Warn("stock changed during commit", zap.String("product_id", conflict.ProductID))
			return nil, &InsufficientStockError{ProductID: conflict.ProductID, Name: itemName(o.Items, conflict.ProductID)}
		}
		log.Error("failed to decrement stock", zap.Error(err))
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		log.Error("failed to commit order", zap.Error(err))
		return nil, err
	}
	committed = true

	log.Info("order committed", zap.Int("items", len(out.Items)), zap.String("total", o.Total.String()))
	return &out, nil
}

func itemName(items []Item, productID string) string {
	for _, it := range items {
		if it.ProductID == productID && it.ProductName != "" {
			return it.ProductName
		}
	}
	return productID
}

func (r *repository) SetPaymentRef(ctx context.Context, orderID, ref string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET payment_ref = $2, updated_at = NOW() WHERE id = $1`, orderID, ref)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to set payment ref",
			zap.String("layer", "repository"),
			zap.String("order_id", orderID),
			zap.Error(err),
		)
		return err
	}
	return expectOne(res)
}

// MarkPaid moves a PENDING or FAILED order to PAID. It reports false without error
// when the order is already past that point, so provider redeliveries are harmless.
func (r *repository) MarkPaid(ctx context.Context, orderID, ref string) (bool, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "MarkPaid"),
		zap.String("order_id", orderID),
	)

	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $2, payment_ref = $3, updated_at = NOW()
		WHERE id = $1 AND status IN ($4, $5)`,
		orderID, StatusPaid, ref, StatusPending, StatusFailed,
	)
	if err != nil {
		log.Error("failed to mark order paid", zap.Error(err))
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}

	var current Status
	err = r.db.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = $1`, orderID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrOrderNotFound
	}
	if err != nil {
		return false, err
	}

	log.Info("order already settled", zap.String("status", string(current)))
	return false, nil
}

func (r *repository) UpdateStatus(ctx context.Context, orderID string, status Status) (*Order, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE orders SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+orderColumns,
		orderID, status,
	)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to update order status",
			zap.String("layer", "repository"),
			zap.String("order_id", orderID),
			zap.Error(err),
		)
		return nil, err
	}

	orders := []Order{o}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *repository) GetByID(ctx context.Context, orderID string) (*Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	orders := []Order{o}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *repository) ListByEmail(ctx context.Context, email string) ([]Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE LOWER(customer_email) = LOWER($1)
		ORDER BY created_at DESC
		LIMIT $2`,
		email, userOrderLimit,
	)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to list orders by email",
			zap.String("layer", "repository"),
			zap.Error(err),
		)
		return nil, err
	}
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Order, int, error) {
	args := []any{}
	where := ""
	if filter.Status != nil {
		args = append(args, *filter.Status)
		where = "WHERE status = $1"
	}
	offset := (filter.Page - 1) * filter.Limit
	args = append(args, filter.Limit, offset)

	query := fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER()
		FROM orders
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		orderColumns, where, len(args)-1, len(args),
	)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to list orders",
			zap.String("layer", "repository"),
			zap.Error(err),
		)
		return nil, 0, err
	}
	defer rows.Close()

	var (
		orders = []Order{}
		total  int
	)
	for rows.Next() {
		o, err := scanOrder(rows, &total)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *repository) attachItems(ctx context.Context, orders []Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, len(orders))
	index := make(map[string]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
		orders[i].Items = []Item{}
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT oi.id, oi.order_id, oi.product_id, COALESCE(p.name, ''), oi.quantity, oi.unit_price
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.id ASC`,
		pq.Array(ids),
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.UnitPrice); err != nil {
			return err
		}
		if i, ok := index[it.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, it)
		}
	}
	return rows.Err()
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrOrderNotFound
	}
	return nil
}
