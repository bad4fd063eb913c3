package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"app/internal/domain/model"
	"app/internal/infra/carrier"
	"app/internal/infra/payment"
	repo "app/internal/repository"
)

// =====================
// インメモリのTxRepos/TransactionManager。
// WithinTxはエラー時にスナップショットへ巻き戻してDBのrollbackを再現する
// =====================

type memStore struct {
	orders    map[int64]model.Order
	items     map[int64][]model.OrderItem
	variants  map[int64]model.ProductVariant
	products  map[int64]model.Product
	movements []model.InventoryMovement
	intents   map[string]model.PaymentIntentRecord
	events    map[string]model.WebhookEvent
	users     map[int64]model.User
	zones     []model.ShippingZone
	nextID    int64
}

func newMemStore() *memStore {
	return &memStore{
		orders:   map[int64]model.Order{},
		items:    map[int64][]model.OrderItem{},
		variants: map[int64]model.ProductVariant{},
		products: map[int64]model.Product{},
		intents:  map[string]model.PaymentIntentRecord{},
		events:   map[string]model.WebhookEvent{},
		users:    map[int64]model.User{},
		nextID:   1000,
	}
}

func (s *memStore) clone() *memStore {
	c := newMemStore()
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.items {
		c.items[k] = append([]model.OrderItem{}, v...)
	}
	for k, v := range s.variants {
		c.variants[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	c.movements = append([]model.InventoryMovement{}, s.movements...)
	for k, v := range s.intents {
		c.intents[k] = v
	}
	for k, v := range s.events {
		c.events[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	c.zones = append([]model.ShippingZone{}, s.zones...)
	c.nextID = s.nextID
	return c
}

func (s *memStore) restore(c *memStore) {
	s.orders = c.orders
	s.items = c.items
	s.variants = c.variants
	s.products = c.products
	s.movements = c.movements
	s.intents = c.intents
	s.events = c.events
	s.users = c.users
	s.zones = c.zones
	s.nextID = c.nextID
}

type memTx struct{ s *memStore }

func (t *memTx) Orders() repo.OrderRepository          { return &memOrders{t.s} }
func (t *memTx) OrderItems() repo.OrderItemRepository  { return &memOrderItems{t.s} }
func (t *memTx) Variants() repo.VariantRepository      { return &memVariants{t.s} }
func (t *memTx) Movements() repo.MovementRepository    { return &memMovements{t.s} }
func (t *memTx) Intents() repo.PaymentIntentRepository { return &memIntents{t.s} }
func (t *memTx) Events() repo.WebhookEventRepository   { return &memEvents{t.s} }

type memTxManager struct{ s *memStore }

func (m *memTxManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	snapshot := m.s.clone()
	if err := fn(&memTx{m.s}); err != nil {
		m.s.restore(snapshot)
		return err
	}
	return nil
}

// ---- orders ----

type memOrders struct{ s *memStore }

func (r *memOrders) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	o, ok := r.s.orders[orderID]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (r *memOrders) FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error) {
	return r.FindByID(ctx, orderID)
}

func (r *memOrders) FindByTrackingNumber(ctx context.Context, trackingNumber string) (model.Order, error) {
	for _, o := range r.s.orders {
		if o.TrackingNumber == trackingNumber {
			return o, nil
		}
	}
	return model.Order{}, repo.ErrNotFound
}

func (r *memOrders) Create(ctx context.Context, order model.Order) (int64, error) {
	r.s.nextID++
	order.ID = r.s.nextID
	r.s.orders[order.ID] = order
	return order.ID, nil
}

func (r *memOrders) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	o, ok := r.s.orders[orderID]
	if !ok {
		return repo.ErrNotFound
	}
	o.Status = status
	r.s.orders[orderID] = o
	return nil
}

func (r *memOrders) UpdatePaymentStatus(ctx context.Context, orderID int64, status model.PaymentStatus) error {
	o, ok := r.s.orders[orderID]
	if !ok {
		return repo.ErrNotFound
	}
	o.PaymentStatus = status
	r.s.orders[orderID] = o
	return nil
}

func (r *memOrders) UpdateShipment(ctx context.Context, orderID int64, shipmentID string, trackingNumber string) error {
	o, ok := r.s.orders[orderID]
	if !ok {
		return repo.ErrNotFound
	}
	o.CarrierShipmentID = shipmentID
	o.TrackingNumber = trackingNumber
	r.s.orders[orderID] = o
	return nil
}

// ---- order items ----

type memOrderItems struct{ s *memStore }

func (r *memOrderItems) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	for i := range items {
		items[i].OrderID = orderID
	}
	r.s.items[orderID] = append(r.s.items[orderID], items...)
	return nil
}

func (r *memOrderItems) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	return append([]model.OrderItem{}, r.s.items[orderID]...), nil
}

// ---- variants ----

type memVariants struct{ s *memStore }

func (r *memVariants) FindByID(ctx context.Context, variantID int64) (model.ProductVariant, error) {
	v, ok := r.s.variants[variantID]
	if !ok {
		return model.ProductVariant{}, repo.ErrNotFound
	}
	return v, nil
}

func (r *memVariants) AddReserved(ctx context.Context, variantID int64, qty int64) error {
	v, ok := r.s.variants[variantID]
	if !ok {
		return repo.ErrNotFound
	}
	v.ReservedQuantity += qty
	r.s.variants[variantID] = v
	return nil
}

func (r *memVariants) ReleaseReserved(ctx context.Context, variantID int64, qty int64) (bool, error) {
	v, ok := r.s.variants[variantID]
	if !ok || v.ReservedQuantity < qty {
		return false, nil
	}
	v.ReservedQuantity -= qty
	r.s.variants[variantID] = v
	return true, nil
}

func (r *memVariants) FulfillReserved(ctx context.Context, variantID int64, qty int64) (bool, error) {
	v, ok := r.s.variants[variantID]
	if !ok || v.ReservedQuantity < qty {
		return false, nil
	}
	v.ReservedQuantity -= qty
	v.StockQuantity -= qty
	r.s.variants[variantID] = v
	return true, nil
}

// ---- movements ----

type memMovements struct{ s *memStore }

func (r *memMovements) Create(ctx context.Context, m model.InventoryMovement) error {
	m.CreatedAt = time.Now()
	r.s.movements = append(r.s.movements, m)
	return nil
}

func (r *memMovements) Exists(ctx context.Context, referenceID int64, variantID int64, t model.MovementType) (bool, error) {
	for _, m := range r.s.movements {
		if m.ReferenceID == referenceID && m.VariantID == variantID && m.Type == t {
			return true, nil
		}
	}
	return false, nil
}

func (r *memMovements) ListByReference(ctx context.Context, referenceID int64) ([]model.InventoryMovement, error) {
	var out []model.InventoryMovement
	for _, m := range r.s.movements {
		if m.ReferenceID == referenceID {
			out = append(out, m)
		}
	}
	return out, nil
}

// ---- intents ----

type memIntents struct{ s *memStore }

func (r *memIntents) Create(ctx context.Context, rec model.PaymentIntentRecord) error {
	r.s.intents[rec.ExternalID] = rec
	return nil
}

func (r *memIntents) FindByExternalID(ctx context.Context, externalID string) (model.PaymentIntentRecord, error) {
	rec, ok := r.s.intents[externalID]
	if !ok {
		return model.PaymentIntentRecord{}, repo.ErrNotFound
	}
	return rec, nil
}

func (r *memIntents) UpdateStatus(ctx context.Context, externalID string, status string) error {
	rec, ok := r.s.intents[externalID]
	if !ok {
		return repo.ErrNotFound
	}
	rec.Status = status
	r.s.intents[externalID] = rec
	return nil
}

// ---- webhook events ----

type memEvents struct{ s *memStore }

func (r *memEvents) Exists(ctx context.Context, eventID string) (bool, error) {
	_, ok := r.s.events[eventID]
	return ok, nil
}

func (r *memEvents) Create(ctx context.Context, ev model.WebhookEvent) error {
	r.s.events[ev.EventID] = ev
	return nil
}

// ---- users ----

type memUsers struct{ s *memStore }

func (r *memUsers) FindByID(ctx context.Context, userID int64) (model.User, error) {
	u, ok := r.s.users[userID]
	if !ok {
		return model.User{}, repo.ErrNotFound
	}
	return u, nil
}

func (r *memUsers) UpdateGatewayCustomerID(ctx context.Context, userID int64, customerID string) error {
	u, ok := r.s.users[userID]
	if !ok {
		return repo.ErrNotFound
	}
	u.GatewayCustomerID = customerID
	r.s.users[userID] = u
	return nil
}

// ---- zones / products ----

type memZones struct{ s *memStore }

func (r *memZones) ListActive(ctx context.Context) ([]model.ShippingZone, error) {
	var out []model.ShippingZone
	for _, z := range r.s.zones {
		if z.IsActive {
			out = append(out, z)
		}
	}
	return out, nil
}

type memProducts struct{ s *memStore }

func (r *memProducts) FindByID(ctx context.Context, productID int64) (model.Product, error) {
	p, ok := r.s.products[productID]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

// =====================
// 外部プロバイダのフェイク
// =====================

type fakeGateway struct {
	customerSeq int
	intents     map[string]payment.Intent

	createCustomerErr error
	createIntentErr   error
	retrieveErr       error
	confirmErr        error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{intents: map[string]payment.Intent{}}
}

func (g *fakeGateway) CreateCustomer(ctx context.Context, email string) (payment.Customer, error) {
	if g.createCustomerErr != nil {
		return payment.Customer{}, g.createCustomerErr
	}
	g.customerSeq++
	return payment.Customer{ID: fmt.Sprintf("cus_test_%d", g.customerSeq), Email: email}, nil
}

func (g *fakeGateway) CreateIntent(ctx context.Context, p payment.CreateIntentParams) (payment.Intent, error) {
	if g.createIntentErr != nil {
		return payment.Intent{}, g.createIntentErr
	}
	in := payment.Intent{
		ID:           "pi_test_1",
		ClientSecret: "pi_test_1_secret",
		Status:       "requires_payment_method",
		Amount:       p.Amount,
		Currency:     p.Currency,
		CustomerID:   p.CustomerID,
		Metadata:     p.Metadata,
	}
	g.intents[in.ID] = in
	return in, nil
}

func (g *fakeGateway) RetrieveIntent(ctx context.Context, intentID string) (payment.Intent, error) {
	if g.retrieveErr != nil {
		return payment.Intent{}, g.retrieveErr
	}
	in, ok := g.intents[intentID]
	if !ok {
		return payment.Intent{}, errors.New("no such intent")
	}
	return in, nil
}

func (g *fakeGateway) ConfirmIntent(ctx context.Context, intentID string, paymentMethodID string) (payment.Intent, error) {
	if g.confirmErr != nil {
		return payment.Intent{}, g.confirmErr
	}
	in, ok := g.intents[intentID]
	if !ok {
		return payment.Intent{}, errors.New("no such intent")
	}
	in.Status = "succeeded"
	g.intents[intentID] = in
	return in, nil
}

type fakeCarrier struct {
	rates    []carrier.Rate
	ratesErr error

	shipment    carrier.Shipment
	shipmentErr error

	tracking    carrier.Tracking
	trackingErr error

	canceled []string
}

func (f *fakeCarrier) CreateShipment(ctx context.Context, req carrier.CreateShipmentRequest) (carrier.Shipment, error) {
	if f.shipmentErr != nil {
		return carrier.Shipment{}, f.shipmentErr
	}
	return f.shipment, nil
}

func (f *fakeCarrier) TrackShipment(ctx context.Context, trackingNumber string) (carrier.Tracking, error) {
	if f.trackingErr != nil {
		return carrier.Tracking{}, f.trackingErr
	}
	return f.tracking, nil
}

func (f *fakeCarrier) CancelShipment(ctx context.Context, shipmentID string, reason string) error {
	f.canceled = append(f.canceled, shipmentID)
	return nil
}

func (f *fakeCarrier) GetRates(ctx context.Context, origin string, destination string, packages []carrier.Package) ([]carrier.Rate, error) {
	if f.ratesErr != nil {
		return nil, f.ratesErr
	}
	return f.rates, nil
}

// 台帳の不変条件チェック用: reserved == Σreserve − Σrelease
func reservedFromMovements(s *memStore, variantID int64) int64 {
	var sum int64
	for _, m := range s.movements {
		if m.VariantID != variantID {
			continue
		}
		switch m.Type {
		case model.MovementTypeReserve:
			sum += m.Quantity
		case model.MovementTypeRelease:
			sum -= m.Quantity
		case model.MovementTypeFulfill:
			sum -= m.Quantity
		}
	}
	return sum
}

func countMovements(s *memStore, variantID int64, t model.MovementType) int {
	n := 0
	for _, m := range s.movements {
		if m.VariantID == variantID && m.Type == t {
			n++
		}
	}
	return n
}
