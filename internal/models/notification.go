package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification 站内通知（队列投递失败不影响业务，落库保底）
type Notification struct {
	BaseModel
	RecipientID uint `gorm:"not null;index" json:"recipient_id"`

	Kind  string `gorm:"size:40;not null" json:"kind"`
	Title string `gorm:"size:200;not null" json:"title"`
	Body  string `gorm:"size:1000" json:"body"`

	Payload datatypes.JSON `gorm:"type:json" json:"payload,omitempty"`

	ReadAt *time.Time `json:"read_at,omitempty"`

	// 关联
	Recipient *User `gorm:"foreignKey:RecipientID" json:"recipient,omitempty"`
}

// TableName 表名
func (n *Notification) TableName() string {
	return "notifications"
}

// 通知类型常量
const (
	NotifyKindBookingCreated     = "booking_created"
	NotifyKindContractApproved   = "contract_approved"
	NotifyKindContractSigned     = "contract_signed"
	NotifyKindContractTerminated = "contract_terminated"
	NotifyKindContractExpired    = "contract_expired"
	NotifyKindSubscriptionActive = "subscription_active"
	NotifyKindSubscriptionEnded  = "subscription_ended"
)

// MarkRead 标记已读
func (n *Notification) MarkRead() {
	now := time.Now()
	n.ReadAt = &now
}

// IsRead 是否已读
func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}
