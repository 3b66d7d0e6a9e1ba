package models

import (
	"time"
)

// Signature 签署记录（签署人、时间、请求来源地址，用于审计）
type Signature struct {
	Signed     bool       `json:"signed" gorm:"default:false"`
	SignedAt   *time.Time `json:"signed_at"`
	SignedFrom string     `json:"signed_from" gorm:"size:64"` // 请求来源IP
}

// Contract 租约合同模型
type Contract struct {
	BaseModel
	ContractNo string `gorm:"size:40;uniqueIndex" json:"contract_no"`

	// 当事人与标的
	TenantID uint `gorm:"not null;index" json:"tenant_id"`
	OwnerID  uint `gorm:"not null;index" json:"owner_id"`
	RoomID   uint `gorm:"not null;index" json:"room_id"`
	HostelID uint `gorm:"not null;index" json:"hostel_id"`

	// 费用（卢比）
	MonthlyRent     int64 `gorm:"not null" json:"monthly_rent"`
	SecurityDeposit int64 `gorm:"default:0" json:"security_deposit"`

	// 租期
	StartDate time.Time  `gorm:"not null" json:"start_date"`
	EndDate   *time.Time `json:"end_date"`

	// 状态机：draft -> pending_signatures -> active；terminated/expired为终态
	Status        string `gorm:"size:30;not null;default:'draft';index" json:"status"`
	PaymentStatus string `gorm:"size:20;not null;default:'pending'" json:"payment_status"`

	// 双方签署
	TenantSignature Signature `gorm:"embedded;embeddedPrefix:tenant_sig_" json:"tenant_signature"`
	OwnerSignature  Signature `gorm:"embedded;embeddedPrefix:owner_sig_" json:"owner_signature"`

	// 终止信息
	TerminatedAt     *time.Time `json:"terminated_at,omitempty"`
	TerminateReason  string     `gorm:"size:300" json:"terminate_reason,omitempty"`
	TerminatedByUser *uint      `json:"terminated_by,omitempty"`

	// 关联
	Tenant *User   `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
	Owner  *User   `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Room   *Room   `gorm:"foreignKey:RoomID" json:"room,omitempty"`
	Hostel *Hostel `gorm:"foreignKey:HostelID" json:"hostel,omitempty"`
}

// TableName 表名
func (c *Contract) TableName() string {
	return "contracts"
}

// 合同状态常量
const (
	ContractStatusDraft             = "draft"
	ContractStatusPendingSignatures = "pending_signatures"
	ContractStatusActive            = "active"
	ContractStatusExpired           = "expired"
	ContractStatusTerminated        = "terminated"
)

// 支付状态常量
const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// LiveContractStatuses 占用租客名额的合同状态（同一租客同时最多一份）
var LiveContractStatuses = []string{
	ContractStatusDraft,
	ContractStatusPendingSignatures,
	ContractStatusActive,
}

// IsLive 合同是否占用租客名额
func (c *Contract) IsLive() bool {
	switch c.Status {
	case ContractStatusDraft, ContractStatusPendingSignatures, ContractStatusActive:
		return true
	default:
		return false
	}
}

// IsTerminal 是否终态
func (c *Contract) IsTerminal() bool {
	return c.Status == ContractStatusTerminated || c.Status == ContractStatusExpired
}

// HoldsRoom 是否仍占用房间名额
// 到期扫描只改合同状态不释放房间，expired合同的名额要等终止流程回收
func (c *Contract) HoldsRoom() bool {
	return c.Status == ContractStatusActive || c.Status == ContractStatusExpired
}

// BothSigned 双方是否都已签署
func (c *Contract) BothSigned() bool {
	return c.TenantSignature.Signed && c.OwnerSignature.Signed
}

// CanActivate 激活条件：双签且已支付
func (c *Contract) CanActivate() bool {
	return c.BothSigned() && c.PaymentStatus == PaymentStatusPaid
}

// SignTenant 租客签署
func (c *Contract) SignTenant(origin string) {
	now := time.Now()
	c.TenantSignature.Signed = true
	c.TenantSignature.SignedAt = &now
	c.TenantSignature.SignedFrom = origin
}

// SignOwner 房东签署
func (c *Contract) SignOwner(origin string) {
	now := time.Now()
	c.OwnerSignature.Signed = true
	c.OwnerSignature.SignedAt = &now
	c.OwnerSignature.SignedFrom = origin
}

// Terminate 标记终止
func (c *Contract) Terminate(actorID uint, reason string) {
	now := time.Now()
	c.Status = ContractStatusTerminated
	c.TerminatedAt = &now
	c.EndDate = &now
	c.TerminateReason = reason
	c.TerminatedByUser = &actorID
}
