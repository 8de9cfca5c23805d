package cart

import (
	"errors"

	"github.com/google/uuid"
	"github.com/lalith-99/deliverypro/internal/models"
	"github.com/shopspring/decimal"
)

var (
	ErrNoTenant          = errors.New("select a company")
	ErrEmptyCart         = errors.New("add at least one product to the cart")
	ErrAddressIncomplete = errors.New("delivery address is incomplete")
	ErrNoPaymentMethod   = errors.New("choose a payment method")
)

// Line is one product in the cart. Name and UnitPrice are captured when the
// product is first added and become the order item snapshot.
type Line struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// Subtotal is UnitPrice × Quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart maps productID → line, keeping insertion order for stable output.
// Every line has Quantity >= 1. Not safe for concurrent use.
type Cart struct {
	lines map[uuid.UUID]*Line
	order []uuid.UUID
}

func New() *Cart {
	return &Cart{lines: make(map[uuid.UUID]*Line)}
}

// Add puts one unit of p in the cart, incrementing the line if p is already
// there.
func (c *Cart) Add(p models.Product) {
	if l, ok := c.lines[p.ID]; ok {
		l.Quantity++
		return
	}
	c.lines[p.ID] = &Line{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Quantity:  1,
	}
	c.order = append(c.order, p.ID)
}

// Decrement removes one unit; the line disappears when it reaches zero.
func (c *Cart) Decrement(productID uuid.UUID) {
	l, ok := c.lines[productID]
	if !ok {
		return
	}
	l.Quantity--
	if l.Quantity <= 0 {
		c.Remove(productID)
	}
}

// Remove drops the whole line.
func (c *Cart) Remove(productID uuid.UUID) {
	if _, ok := c.lines[productID]; !ok {
		return
	}
	delete(c.lines, productID)
	for i, id := range c.order {
		if id == productID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Lines returns a copy of the cart contents in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.lines[id])
	}
	return out
}

func (c *Cart) Len() int { return len(c.order) }

// Total is Σ(unit price × quantity), recomputed on every call.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, id := range c.order {
		total = total.Add(c.lines[id].Subtotal())
	}
	return total
}

// CheckoutInput is everything the client picks besides the products.
type CheckoutInput struct {
	TenantID      uuid.UUID
	Address       models.Address
	PaymentMethod models.PaymentMethod
	ChangeFor     *decimal.Decimal
}

// Draft is a validated order payload, ready to be written as one order plus
// its items.
type Draft struct {
	TenantID      uuid.UUID
	Address       models.Address
	PaymentMethod models.PaymentMethod
	ChangeFor     *decimal.Decimal
	Lines         []Line
	Total         decimal.Decimal
}

// Checkout validates the cart and the client's choices. Nothing is written;
// the caller persists the draft. ChangeFor is dropped unless paying in cash.
func (c *Cart) Checkout(in CheckoutInput) (*Draft, error) {
	if in.TenantID == uuid.Nil {
		return nil, ErrNoTenant
	}
	if c.Len() == 0 {
		return nil, ErrEmptyCart
	}
	if !in.Address.Complete() {
		return nil, ErrAddressIncomplete
	}
	if in.PaymentMethod == "" {
		return nil, ErrNoPaymentMethod
	}

	d := &Draft{
		TenantID:      in.TenantID,
		Address:       in.Address,
		PaymentMethod: in.PaymentMethod,
		Lines:         c.Lines(),
		Total:         c.Total(),
	}
	if in.PaymentMethod == models.PaymentCash && in.ChangeFor != nil {
		v := *in.ChangeFor
		d.ChangeFor = &v
	}
	return d, nil
}
