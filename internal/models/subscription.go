package models

import (
	"time"
)

// Subscription 餐饮订阅模型
type Subscription struct {
	BaseModel
	TenantID  uint `gorm:"not null;index" json:"tenant_id"`
	CanteenID uint `gorm:"not null;index" json:"canteen_id"`

	// 套餐
	Plan           string `gorm:"size:30;not null" json:"plan"`
	FoodType       string `gorm:"size:20" json:"food_type"`
	MonthlyPrice   int64  `gorm:"not null" json:"monthly_price"`   // 月价（卢比）
	DurationMonths int    `gorm:"not null" json:"duration_months"` // 购买月数
	TotalAmount    int64  `gorm:"not null" json:"total_amount"`    // 月价 × 月数

	// 状态机：paused -> active（支付确认后）-> cancelled/expired
	Status        string `gorm:"size:20;not null;default:'paused';index" json:"status"`
	PaymentStatus string `gorm:"size:20;not null;default:'pending'" json:"payment_status"`
	AutoRenew     bool   `gorm:"default:false" json:"auto_renew"`

	// 周期
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`

	CancelledAt *time.Time `json:"cancelled_at,omitempty"`

	// 关联
	Tenant  *User    `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
	Canteen *Canteen `gorm:"foreignKey:CanteenID" json:"canteen,omitempty"`
}

// TableName 表名
func (s *Subscription) TableName() string {
	return "subscriptions"
}

// 订阅状态常量
const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusPaused    = "paused"
	SubscriptionStatusCancelled = "cancelled"
	SubscriptionStatusExpired   = "expired"
)

// 套餐常量
const (
	PlanBreakfast      = "breakfast"
	PlanLunch          = "lunch"
	PlanDinner         = "dinner"
	PlanBreakfastLunch = "breakfast_lunch"
	PlanLunchDinner    = "lunch_dinner"
	PlanAllMeals       = "all_meals"
)

// IsValidPlan 套餐是否有效
func IsValidPlan(plan string) bool {
	switch plan {
	case PlanBreakfast, PlanLunch, PlanDinner, PlanBreakfastLunch, PlanLunchDinner, PlanAllMeals:
		return true
	default:
		return false
	}
}

// Activate 支付确认后激活
// 注意：激活周期固定为1个月，与购买月数无关（沿用线上行为）
func (s *Subscription) Activate() {
	now := time.Now()
	end := now.AddDate(0, 1, 0)
	s.Status = SubscriptionStatusActive
	s.PaymentStatus = PaymentStatusPaid
	s.StartDate = &now
	s.EndDate = &end
	s.AutoRenew = true
}

// Cancel 标记取消
func (s *Subscription) Cancel() {
	now := time.Now()
	s.Status = SubscriptionStatusCancelled
	s.AutoRenew = false
	s.CancelledAt = &now
}

// IsActive 是否生效中
func (s *Subscription) IsActive() bool {
	return s.Status == SubscriptionStatusActive
}

// CountsAsSubscriber 是否已计入食堂订阅人数
// 激活时计入，暂停不扣回，进入终态（取消/过期）时扣回一次
func (s *Subscription) CountsAsSubscriber() bool {
	return s.PaymentStatus == PaymentStatusPaid &&
		(s.Status == SubscriptionStatusActive || s.Status == SubscriptionStatusPaused)
}
