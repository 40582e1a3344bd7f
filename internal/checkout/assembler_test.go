package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safar/collectibles-store/internal/cart"
	"github.com/safar/collectibles-store/internal/models"
)

// fakeWriter records collaborator calls and can be told to fail either step.
type fakeWriter struct {
	insertedOrders []models.Order
	insertedItems  map[string][]models.OrderItem
	deletedOrders  []string

	failInsertOrder bool
	failInsertItems bool
	failDelete      bool
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{insertedItems: make(map[string][]models.OrderItem)}
}

func (f *fakeWriter) InsertOrder(_ context.Context, order models.Order) (string, error) {
	if f.failInsertOrder {
		return "", errors.New("insert order failed")
	}
	f.insertedOrders = append(f.insertedOrders, order)
	return "order-1", nil
}

func (f *fakeWriter) InsertOrderItems(_ context.Context, orderID string, items []models.OrderItem) error {
	if f.failInsertItems {
		return errors.New("insert items failed")
	}
	f.insertedItems[orderID] = items
	return nil
}

func (f *fakeWriter) DeleteOrder(_ context.Context, orderID string) error {
	if f.failDelete {
		return errors.New("delete failed")
	}
	f.deletedOrders = append(f.deletedOrders, orderID)
	return nil
}

func (f *fakeWriter) calls() int {
	return len(f.insertedOrders) + len(f.insertedItems) + len(f.deletedOrders)
}

// atomicFakeWriter adds the single-call capability on top of fakeWriter.
type atomicFakeWriter struct {
	fakeWriter
	atomicCalls int
}

func (f *atomicFakeWriter) CreateOrderWithItems(_ context.Context, order models.Order, items []models.OrderItem) (string, error) {
	f.atomicCalls++
	f.insertedOrders = append(f.insertedOrders, order)
	f.insertedItems["order-1"] = items
	return "order-1", nil
}

func shipping() models.ShippingInfo {
	return models.ShippingInfo{
		Address:    "123 Diecast St",
		City:       "Quezon City",
		PostalCode: "1100",
		Phone:      "09171234567",
	}
}

func twoCarCart() []cart.Line {
	return []cart.Line{
		{ProductID: 1, Name: "Hellcat", Price: decimal.NewFromInt(1500), Quantity: 2},
		{ProductID: 6, Name: "Batmobile", Price: decimal.NewFromInt(2000), Quantity: 1},
	}
}

func validRequest() Request {
	items := twoCarCart()
	subtotal := decimal.Zero
	for _, l := range items {
		subtotal = subtotal.Add(l.Subtotal())
	}
	return Request{
		UserID:        "user-1",
		Items:         items,
		Total:         subtotal.Add(DefaultShippingFee),
		Shipping:      shipping(),
		PaymentMethod: models.PaymentMethodCOD,
	}
}

func TestCreateOrderPersistsHeaderAndItems(t *testing.T) {
	w := newFakeWriter()
	a := NewAssembler(w)

	orderID, err := a.CreateOrder(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, "order-1", orderID)

	require.Len(t, w.insertedOrders, 1)
	order := w.insertedOrders[0]

	// 1500*2 + 2000*1 + 150 shipping
	assert.True(t, order.Total.Equal(decimal.NewFromInt(6650)), "total = %s", order.Total)
	assert.Equal(t, models.OrderStatusProcessing, order.Status)
	assert.Equal(t, shipping(), order.Shipping)

	items := w.insertedItems["order-1"]
	require.Len(t, items, 2)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, 1, items[1].Quantity)
	assert.True(t, items[0].Price.Equal(decimal.NewFromInt(1500)))
	assert.True(t, items[1].Price.Equal(decimal.NewFromInt(2000)))
}

func TestCreateOrderDerivesPaymentStatus(t *testing.T) {
	cases := []struct {
		method  string
		payment PaymentDetails
		want    string
	}{
		{models.PaymentMethodCOD, PaymentDetails{}, models.PaymentStatusPending},
		{models.PaymentMethodGCash, PaymentDetails{GCashNumber: "09171234567"}, models.PaymentStatusPaid},
		{models.PaymentMethodCard, PaymentDetails{CardNumber: "4111111111111111", CardExpiry: "12/27", CardCVC: "123"}, models.PaymentStatusPaid},
		{models.PaymentMethodBank, PaymentDetails{BankName: "BDO", AccountNumber: "001234567890"}, models.PaymentStatusPaid},
	}

	for _, tc := range cases {
		t.Run(tc.method, func(t *testing.T) {
			w := newFakeWriter()
			req := validRequest()
			req.PaymentMethod = tc.method
			req.Payment = tc.payment

			_, err := NewAssembler(w).CreateOrder(context.Background(), req)
			require.NoError(t, err)
			require.Len(t, w.insertedOrders, 1)
			assert.Equal(t, tc.want, w.insertedOrders[0].PaymentStatus)
		})
	}
}

func TestCreateOrderRejectsBeforeAnyWrite(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Request)
		wantErr error
	}{
		{"empty cart", func(r *Request) { r.Items = nil }, ErrEmptyCart},
		{"missing user", func(r *Request) { r.UserID = "" }, ErrMissingUser},
		{"missing shipping phone", func(r *Request) { r.Shipping.Phone = "" }, ErrIncompleteShipping},
		{"unknown payment method", func(r *Request) { r.PaymentMethod = "crypto" }, ErrUnknownPaymentMethod},
		{"short gcash number", func(r *Request) {
			r.PaymentMethod = models.PaymentMethodGCash
			r.Payment.GCashNumber = "0917"
		}, ErrInvalidGCashNumber},
		{"non-numeric gcash number", func(r *Request) {
			r.PaymentMethod = models.PaymentMethodGCash
			r.Payment.GCashNumber = "0917abc4567"
		}, ErrInvalidGCashNumber},
		{"missing card cvc", func(r *Request) {
			r.PaymentMethod = models.PaymentMethodCard
			r.Payment = PaymentDetails{CardNumber: "4111", CardExpiry: "12/27"}
		}, ErrIncompleteCard},
		{"missing bank account", func(r *Request) {
			r.PaymentMethod = models.PaymentMethodBank
			r.Payment = PaymentDetails{BankName: "BDO"}
		}, ErrIncompleteBank},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := newFakeWriter()
			req := validRequest()
			tc.mutate(&req)

			_, err := NewAssembler(w).CreateOrder(context.Background(), req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.ErrorIs(t, err, ErrInvalidRequest)
			assert.Zero(t, w.calls(), "validation failures must not reach the collaborator")
		})
	}
}

func TestCreateOrderCompensatesFailedItemInsert(t *testing.T) {
	w := newFakeWriter()
	w.failInsertItems = true

	_, err := NewAssembler(w).CreateOrder(context.Background(), validRequest())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidRequest)

	// The header must not be left orphaned.
	require.Len(t, w.deletedOrders, 1)
	assert.Equal(t, "order-1", w.deletedOrders[0])
}

func TestCreateOrderReportsFailedCompensation(t *testing.T) {
	w := newFakeWriter()
	w.failInsertItems = true
	w.failDelete = true

	_, err := NewAssembler(w).CreateOrder(context.Background(), validRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not rolled back")
}

func TestCreateOrderSurfacesHeaderInsertFailure(t *testing.T) {
	w := newFakeWriter()
	w.failInsertOrder = true

	_, err := NewAssembler(w).CreateOrder(context.Background(), validRequest())
	require.Error(t, err)
	assert.Empty(t, w.insertedItems)
	assert.Empty(t, w.deletedOrders)
}

func TestCreateOrderPrefersAtomicWriter(t *testing.T) {
	w := &atomicFakeWriter{fakeWriter: *newFakeWriter()}

	orderID, err := NewAssembler(w).CreateOrder(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, "order-1", orderID)
	assert.Equal(t, 1, w.atomicCalls)
	require.Len(t, w.insertedItems["order-1"], 2)
}
