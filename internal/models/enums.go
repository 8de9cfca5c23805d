package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownEnum is returned whenever a status/role/type string read from a
// request body or a database row is not one of the known values.
//
// Unknown values are rejected at the boundary instead of being carried
// around as opaque strings, so everything past the decoder can switch on
// the constants below exhaustively.
var ErrUnknownEnum = errors.New("unknown enum value")

type Role string

const (
	RoleAdminMaster  Role = "admin_master"
	RoleCompanyAdmin Role = "company_admin"
	RoleDriver       Role = "driver"
	RoleClient       Role = "client"
)

type TenantStatus string

const (
	TenantActive    TenantStatus = "ACTIVE"
	TenantSuspended TenantStatus = "SUSPENDED"
)

type BillingType string

const (
	BillingPercentage BillingType = "percentage"
	BillingMonthly    BillingType = "monthly"
)

// DriverStatus mirrors the drivers.status column. ONLINE and IN_SERVICE exist
// in the schema but the availability toggle only ever writes INACTIVE/ACTIVE.
type DriverStatus string

const (
	DriverInactive  DriverStatus = "INACTIVE"
	DriverActive    DriverStatus = "ACTIVE"
	DriverOnline    DriverStatus = "ONLINE"
	DriverInService DriverStatus = "IN_SERVICE"
)

type ProductType string

const (
	ProductTypeProduct ProductType = "product"
	ProductTypeService ProductType = "service"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDENTE"
	OrderAccepted  OrderStatus = "ACEITO"
	OrderPreparing OrderStatus = "EM_PREPARO"
	OrderOnTheWay  OrderStatus = "A_CAMINHO"
	OrderAtDoor    OrderStatus = "NA_PORTA"
	OrderDelivered OrderStatus = "ENTREGUE"
	OrderCancelled OrderStatus = "CANCELADO"
)

// Terminal reports whether no further status mutation is allowed.
func (s OrderStatus) Terminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

type PaymentMethod string

const (
	PaymentPix  PaymentMethod = "PIX"
	PaymentCard PaymentMethod = "CARD"
	PaymentCash PaymentMethod = "CASH"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	PaymentFailed  PaymentStatus = "FAILED"
)

func parseEnum[T ~string](kind, raw string, valid ...T) (T, error) {
	for _, v := range valid {
		if string(v) == raw {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%w: %s %q", ErrUnknownEnum, kind, raw)
}

func ParseRole(s string) (Role, error) {
	return parseEnum("role", s, RoleAdminMaster, RoleCompanyAdmin, RoleDriver, RoleClient)
}

func ParseTenantStatus(s string) (TenantStatus, error) {
	return parseEnum("tenant status", s, TenantActive, TenantSuspended)
}

func ParseBillingType(s string) (BillingType, error) {
	return parseEnum("billing type", s, BillingPercentage, BillingMonthly)
}

func ParseDriverStatus(s string) (DriverStatus, error) {
	return parseEnum("driver status", s, DriverInactive, DriverActive, DriverOnline, DriverInService)
}

func ParseProductType(s string) (ProductType, error) {
	return parseEnum("product type", s, ProductTypeProduct, ProductTypeService)
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	return parseEnum("order status", s,
		OrderPending, OrderAccepted, OrderPreparing, OrderOnTheWay, OrderAtDoor, OrderDelivered, OrderCancelled)
}

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	return parseEnum("payment method", s, PaymentPix, PaymentCard, PaymentCash)
}

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	return parseEnum("payment status", s, PaymentPending, PaymentPaid, PaymentFailed)
}

// ---------------------------------------------------------------
// JSON and database decoding.
//
// Each enum decodes through its Parse function, both from request bodies
// (UnmarshalJSON) and from rows (Scan, picked up by pgx as a sql.Scanner).
// ---------------------------------------------------------------

func unmarshalEnum[T ~string](data []byte, dst *T, parse func(string) (T, error)) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := parse(raw)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func scanEnum[T ~string](src any, dst *T, parse func(string) (T, error)) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	case nil:
		return fmt.Errorf("%w: NULL", ErrUnknownEnum)
	default:
		return fmt.Errorf("cannot scan %T into enum", src)
	}
	v, err := parse(raw)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func (r *Role) UnmarshalJSON(b []byte) error { return unmarshalEnum(b, r, ParseRole) }
func (r *Role) Scan(src any) error            { return scanEnum(src, r, ParseRole) }

func (s *TenantStatus) UnmarshalJSON(b []byte) error { return unmarshalEnum(b, s, ParseTenantStatus) }
func (s *TenantStatus) Scan(src any) error            { return scanEnum(src, s, ParseTenantStatus) }

func (t *BillingType) UnmarshalJSON(b []byte) error { return unmarshalEnum(b, t, ParseBillingType) }
func (t *BillingType) Scan(src any) error            { return scanEnum(src, t, ParseBillingType) }

func (s *DriverStatus) UnmarshalJSON(b []byte) error { return unmarshalEnum(b, s, ParseDriverStatus) }
func (s *DriverStatus) Scan(src any) error            { return scanEnum(src, s, ParseDriverStatus) }

func (t *ProductType) UnmarshalJSON(b []byte) error { return unmarshalEnum(b, t, ParseProductType) }
func (t *ProductType) Scan(src any) error            { return scanEnum(src, t, ParseProductType) }

func (s *OrderStatus) UnmarshalJSON(b []byte) error { return unmarshalEnum(b, s, ParseOrderStatus) }
func (s *OrderStatus) Scan(src any) error            { return scanEnum(src, s, ParseOrderStatus) }

func (m *PaymentMethod) UnmarshalJSON(b []byte) error { return unmarshalEnum(b, m, ParsePaymentMethod) }
func (m *PaymentMethod) Scan(src any) error            { return scanEnum(src, m, ParsePaymentMethod) }

func (s *PaymentStatus) UnmarshalJSON(b []byte) error { return unmarshalEnum(b, s, ParsePaymentStatus) }
func (s *PaymentStatus) Scan(src any) error            { return scanEnum(src, s, ParsePaymentStatus) }
