// Package checkout turns a cart snapshot, shipping details and a payment
// method into a persisted order. All validation happens before the first
// collaborator call, so a rejected request has no side effects.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"github.com/safar/collectibles-store/internal/cart"
	"github.com/safar/collectibles-store/internal/models"
)

// DefaultShippingFee is the flat surcharge added to the cart subtotal.
var DefaultShippingFee = decimal.NewFromInt(150)

// ErrInvalidRequest is the base of every validation failure; callers
// match it with errors.Is to distinguish bad input from collaborator
// failures.
var ErrInvalidRequest = errors.New("invalid order request")

var (
	ErrEmptyCart            = fmt.Errorf("%w: cart is empty", ErrInvalidRequest)
	ErrMissingUser          = fmt.Errorf("%w: missing user id", ErrInvalidRequest)
	ErrIncompleteShipping   = fmt.Errorf("%w: incomplete shipping details", ErrInvalidRequest)
	ErrUnknownPaymentMethod = fmt.Errorf("%w: unknown payment method", ErrInvalidRequest)
	ErrInvalidGCashNumber   = fmt.Errorf("%w: gcash number must be 11 digits", ErrInvalidRequest)
	ErrIncompleteCard       = fmt.Errorf("%w: incomplete card details", ErrInvalidRequest)
	ErrIncompleteBank       = fmt.Errorf("%w: incomplete bank transfer details", ErrInvalidRequest)
)

// OrderWriter is the persistence collaborator contract the assembler
// needs. InsertOrder returns the generated order identifier.
type OrderWriter interface {
	InsertOrder(ctx context.Context, order models.Order) (string, error)
	InsertOrderItems(ctx context.Context, orderID string, items []models.OrderItem) error
	DeleteOrder(ctx context.Context, orderID string) error
}

// AtomicOrderWriter is an optional collaborator capability: header and
// items land in one transaction, closing the partial-write gap entirely.
type AtomicOrderWriter interface {
	CreateOrderWithItems(ctx context.Context, order models.Order, items []models.OrderItem) (string, error)
}

// PaymentDetails carries the method-specific fields collected at
// checkout. Only the fields for the chosen method are examined.
type PaymentDetails struct {
	GCashNumber   string `json:"gcash_number,omitempty"`
	CardNumber    string `json:"card_number,omitempty"`
	CardExpiry    string `json:"card_expiry,omitempty"`
	CardCVC       string `json:"card_cvc,omitempty"`
	BankName      string `json:"bank_name,omitempty"`
	AccountNumber string `json:"account_number,omitempty"`
}

// Request is one checkout attempt. Total is the cart subtotal plus the
// shipping fee, computed by the caller against the same cart snapshot.
type Request struct {
	UserID        string
	Items         []cart.Line
	Total         decimal.Decimal
	Shipping      models.ShippingInfo
	PaymentMethod string
	Payment       PaymentDetails
}

type Assembler struct {
	writer OrderWriter
}

func NewAssembler(writer OrderWriter) *Assembler {
	return &Assembler{writer: writer}
}

// CreateOrder validates the request, derives the payment status, and
// persists the order header plus one item row per cart line. On any
// failure the caller must leave the cart intact so the user can resubmit.
func (a *Assembler) CreateOrder(ctx context.Context, req Request) (string, error) {
	if err := validate(req); err != nil {
		return "", err
	}

	order := models.Order{
		UserID:        req.UserID,
		Total:         req.Total,
		Shipping:      req.Shipping,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: paymentStatusFor(req.PaymentMethod),
		Status:        models.OrderStatusProcessing,
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	for _, line := range req.Items {
		items = append(items, models.OrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     line.Price,
		})
	}

	if atomic, ok := a.writer.(AtomicOrderWriter); ok {
		orderID, err := atomic.CreateOrderWithItems(ctx, order, items)
		if err != nil {
			return "", fmt.Errorf("create order: %w", err)
		}
		return orderID, nil
	}

	return a.createTwoStep(ctx, order, items)
}

// createTwoStep is the fallback for collaborators without an atomic
// create: insert the header, then the items, compensating with a header
// delete when the item insert fails. A failed compensation leaves an
// orphaned header, which is logged rather than silently ignored.
func (a *Assembler) createTwoStep(ctx context.Context, order models.Order, items []models.OrderItem) (string, error) {
	orderID, err := a.writer.InsertOrder(ctx, order)
	if err != nil {
		return "", fmt.Errorf("insert order: %w", err)
	}

	if err := a.writer.InsertOrderItems(ctx, orderID, items); err != nil {
		if delErr := a.writer.DeleteOrder(ctx, orderID); delErr != nil {
			log.Printf("Order %s left without items: compensation failed: %v", orderID, delErr)
			return "", fmt.Errorf("insert order items (order %s not rolled back): %w", orderID, err)
		}
		return "", fmt.Errorf("insert order items: %w", err)
	}

	return orderID, nil
}

func validate(req Request) error {
	if len(req.Items) == 0 {
		return ErrEmptyCart
	}
	if req.UserID == "" {
		return ErrMissingUser
	}
	if req.Shipping.Address == "" || req.Shipping.City == "" ||
		req.Shipping.PostalCode == "" || req.Shipping.Phone == "" {
		return ErrIncompleteShipping
	}

	switch req.PaymentMethod {
	case models.PaymentMethodCOD:
		return nil
	case models.PaymentMethodGCash:
		if !isDigits(req.Payment.GCashNumber) || len(req.Payment.GCashNumber) != 11 {
			return ErrInvalidGCashNumber
		}
	case models.PaymentMethodCard:
		if req.Payment.CardNumber == "" || req.Payment.CardExpiry == "" || req.Payment.CardCVC == "" {
			return ErrIncompleteCard
		}
	case models.PaymentMethodBank:
		if req.Payment.BankName == "" || req.Payment.AccountNumber == "" {
			return ErrIncompleteBank
		}
	default:
		return ErrUnknownPaymentMethod
	}
	return nil
}

// Cash on delivery is the only method whose payment is still outstanding
// when the order is placed.
func paymentStatusFor(method string) string {
	if method == models.PaymentMethodCOD {
		return models.PaymentStatusPending
	}
	return models.PaymentStatusPaid
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
