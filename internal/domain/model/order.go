package model

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusShipped   OrderStatus = "SHIPPED"
	OrderStatusDelivered OrderStatus = "DELIVERED"
	OrderStatusCanceled  OrderStatus = "CANCELED"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "UNPAID"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

// statusとpayment_statusは独立した軸。CANCELEDでも支払状態は保持する
type Order struct {
	ID                int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID            int64         `gorm:"not null;index" json:"user_id"`
	Status            OrderStatus   `gorm:"type:varchar(20);not null;index" json:"status"`
	PaymentStatus     PaymentStatus `gorm:"type:varchar(20);not null;index" json:"payment_status"`
	Currency          string        `gorm:"type:varchar(3);not null" json:"currency"`
	Subtotal          float64       `gorm:"not null" json:"subtotal"`
	Tax               float64       `gorm:"not null" json:"tax"`
	ShippingCost      float64       `gorm:"not null" json:"shipping_cost"`
	Total             float64       `gorm:"not null" json:"total"`
	TrackingNumber    string        `gorm:"type:varchar(100);index" json:"tracking_number,omitempty"`
	CarrierShipmentID string        `gorm:"type:varchar(100)" json:"carrier_shipment_id,omitempty"`
	CreatedAt         time.Time     `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time     `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
