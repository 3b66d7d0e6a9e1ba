package models

import (
	"gorm.io/datatypes"
)

// PaymentOrder 支付网关订单记录
type PaymentOrder struct {
	BaseModel
	UserID uint `gorm:"not null;index" json:"user_id"`

	// 网关标识
	OrderID string `gorm:"size:64;not null;uniqueIndex" json:"order_id"`
	Receipt string `gorm:"size:64" json:"receipt"`

	// 金额与用途
	Amount   int64  `gorm:"not null" json:"amount"` // 单位：分
	Currency string `gorm:"size:10;default:'INR'" json:"currency"`
	Purpose  string `gorm:"size:20;not null;index" json:"purpose"` // booking/subscription
	RefID    *uint  `gorm:"index" json:"ref_id"`                   // 关联的合同/订阅ID

	// 状态
	Status    string `gorm:"size:20;not null;default:'created'" json:"status"` // created/paid/failed
	PaymentID string `gorm:"size:64" json:"payment_id"`

	// 网关回调原始数据等
	Metadata datatypes.JSON `gorm:"type:json" json:"metadata,omitempty"`
}

// TableName 表名
func (p *PaymentOrder) TableName() string {
	return "payment_orders"
}

// 订单状态常量
const (
	PaymentOrderStatusCreated = "created"
	PaymentOrderStatusPaid    = "paid"
	PaymentOrderStatusFailed  = "failed"
)

// 订单用途常量
const (
	PaymentPurposeBooking      = "booking"
	PaymentPurposeSubscription = "subscription"
)

// MarkPaid 标记支付成功
func (p *PaymentOrder) MarkPaid(paymentID string) {
	p.Status = PaymentOrderStatusPaid
	p.PaymentID = paymentID
}
