package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/safar/collectibles-store/internal/database"
	"github.com/safar/collectibles-store/internal/models"
)

const orderColumns = `id, user_id, total, shipping_address, shipping_city, shipping_postal_code,
	shipping_phone, payment_method, payment_status, status, tracking_number, tracking_courier,
	created_at, updated_at`

// Orders is the order-write side of the persistence collaborator. It
// satisfies both checkout writer contracts; checkout prefers the atomic
// path, and the plain two-step methods remain available to callers that
// lack transaction support.
type Orders struct {
	db *sql.DB
}

func NewOrders(db *sql.DB) *Orders {
	return &Orders{db: db}
}

func (o *Orders) InsertOrder(ctx context.Context, order models.Order) (string, error) {
	return insertOrder(ctx, o.db, order)
}

func (o *Orders) InsertOrderItems(ctx context.Context, orderID string, items []models.OrderItem) error {
	return insertOrderItems(ctx, o.db, orderID, items)
}

func (o *Orders) DeleteOrder(ctx context.Context, orderID string) error {
	_, err := o.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}

// CreateOrderWithItems writes the header and every item row in a single
// serializable transaction, retrying on serialization conflicts.
func (o *Orders) CreateOrderWithItems(ctx context.Context, order models.Order, items []models.OrderItem) (string, error) {
	var orderID string

	err := database.WithRetry(ctx, o.db, database.TxOptions{
		IsolationLevel: sql.LevelSerializable,
		MaxRetries:     3,
	}, func(tx *sql.Tx) error {
		id, err := insertOrder(ctx, tx, order)
		if err != nil {
			return err
		}
		if err := insertOrderItems(ctx, tx, id, items); err != nil {
			return err
		}
		orderID = id
		return nil
	})
	if err != nil {
		return "", err
	}

	return orderID, nil
}

// execer covers *sql.DB and *sql.Tx for the shared insert helpers.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func insertOrder(ctx context.Context, db execer, order models.Order) (string, error) {
	id := order.ID
	if id == "" {
		id = uuid.NewString()
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO orders (id, user_id, total, shipping_address, shipping_city, shipping_postal_code,
		                     shipping_phone, payment_method, payment_status, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())`,
		id, order.UserID, order.Total,
		order.Shipping.Address, order.Shipping.City, order.Shipping.PostalCode, order.Shipping.Phone,
		order.PaymentMethod, order.PaymentStatus, order.Status)
	if err != nil {
		return "", fmt.Errorf("insert order: %w", err)
	}

	return id, nil
}

func insertOrderItems(ctx context.Context, db execer, orderID string, items []models.OrderItem) error {
	for _, item := range items {
		_, err := db.ExecContext(ctx,
			`INSERT INTO order_items (order_id, product_id, quantity, price, created_at)
			 VALUES ($1, $2, $3, $4, NOW())`,
			orderID, item.ProductID, item.Quantity, item.Price)
		if err != nil {
			return fmt.Errorf("insert order item (product %d): %w", item.ProductID, err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(s rowScanner, order *models.Order) error {
	var trackingNumber, trackingCourier sql.NullString

	err := s.Scan(
		&order.ID,
		&order.UserID,
		&order.Total,
		&order.Shipping.Address,
		&order.Shipping.City,
		&order.Shipping.PostalCode,
		&order.Shipping.Phone,
		&order.PaymentMethod,
		&order.PaymentStatus,
		&order.Status,
		&trackingNumber,
		&trackingCourier,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if trackingNumber.Valid {
		order.TrackingNumber = &trackingNumber.String
	}
	if trackingCourier.Valid {
		order.TrackingCourier = &trackingCourier.String
	}
	return nil
}

func GetOrder(ctx context.Context, db *sql.DB, id string) (*models.Order, error) {
	order := &models.Order{}

	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	if err := scanOrder(db.QueryRowContext(ctx, query, id), order); err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	items, err := listOrderItems(ctx, db, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

// GetOrderForUser looks an order up scoped to its owner. An order that
// exists but belongs to someone else reads as not found.
func GetOrderForUser(ctx context.Context, db *sql.DB, id, userID string) (*models.Order, error) {
	order := &models.Order{}

	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND user_id = $2`

	if err := scanOrder(db.QueryRowContext(ctx, query, id, userID), order); err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	items, err := listOrderItems(ctx, db, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

// ListOrdersForUser returns the user's full order history, newest first,
// each order carrying its item snapshots joined with the product's
// current display fields.
func ListOrdersForUser(ctx context.Context, db *sql.DB, userID string) ([]models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`

	rows, err := db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var order models.Order
		if err := scanOrder(rows, &order); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	for i := range orders {
		items, err := listOrderItems(ctx, db, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}

	return orders, nil
}

func listOrderItems(ctx context.Context, db *sql.DB, orderID string) ([]models.OrderItem, error) {
	query := `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.price, oi.created_at,
		       p.name, p.image
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.id`

	rows, err := db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Quantity,
			&item.Price,
			&item.CreatedAt,
			&item.ProductName,
			&item.ProductImage,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

// ListOrdersCursor pages a user's order history with a keyset cursor,
// newest first. Items are not loaded here; the history page only shows
// headers until an order is opened.
func ListOrdersCursor(ctx context.Context, db *sql.DB, userID string, cursor string, limit int) (*CursorPage, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`
	args := []interface{}{userID, limit + 1}

	if cursor != "" {
		cursorData, err := DecodeCursor(cursor)
		if err != nil {
			return nil, fmt.Errorf("decode cursor: %w", err)
		}
		query = `
			SELECT ` + orderColumns + `
			FROM orders
			WHERE user_id = $1
			  AND (created_at, id) < ($2, $3)
			ORDER BY created_at DESC, id DESC
			LIMIT $4`
		args = []interface{}{userID, cursorData.CreatedAt, cursorData.ID, limit + 1}
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var order models.Order
		if err := scanOrder(rows, &order); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}

	var nextCursor string
	if hasMore && len(orders) > 0 {
		last := orders[len(orders)-1]
		nextCursor = EncodeCursor(OrderCursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}

	return &CursorPage{
		Items:      orders,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// UpdateOrderStatus is the fulfillment collaborator's write: it moves an
// order along processing → in_transit → delivered (or cancelled) and
// attaches tracking details when known.
func UpdateOrderStatus(ctx context.Context, db *sql.DB, id, status string, trackingNumber, trackingCourier *string) error {
	switch status {
	case models.OrderStatusProcessing, models.OrderStatusInTransit,
		models.OrderStatusDelivered, models.OrderStatusCancelled:
	default:
		return fmt.Errorf("unknown order status %q", status)
	}

	result, err := db.ExecContext(ctx,
		`UPDATE orders
		 SET status = $1,
		     tracking_number = COALESCE($2, tracking_number),
		     tracking_courier = COALESCE($3, tracking_courier),
		     updated_at = NOW()
		 WHERE id = $4`,
		status, trackingNumber, trackingCourier, id)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrOrderNotFound
	}

	return nil
}
