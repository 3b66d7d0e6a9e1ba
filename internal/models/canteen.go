package models

// Canteen 食堂模型
type Canteen struct {
	BaseModel
	ProviderID uint `gorm:"not null;uniqueIndex:idx_provider_canteen" json:"provider_id"`

	// 核心字段
	Name    string `gorm:"size:100;not null;uniqueIndex:idx_provider_canteen" json:"name"`
	Address string `gorm:"size:300" json:"address"`
	City    string `gorm:"size:100;index" json:"city"`

	// 订阅人数（冗余缓存，仅在订阅激活/取消事务内更新）
	SubscriberCount int `gorm:"default:0" json:"subscriber_count"`

	// 元数据
	Description string `gorm:"size:500" json:"description"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`

	// 关联
	Provider *User         `gorm:"foreignKey:ProviderID" json:"provider,omitempty"`
	Plans    []CanteenPlan `gorm:"foreignKey:CanteenID" json:"plans,omitempty"`
}

// TableName 表名
func (c *Canteen) TableName() string {
	return "canteens"
}

// DecSubscriberCount 订阅人数减1（下限0）
func (c *Canteen) DecSubscriberCount() {
	if c.SubscriberCount > 0 {
		c.SubscriberCount--
	}
}

// CanteenPlan 食堂套餐定价
type CanteenPlan struct {
	BaseModel
	CanteenID uint `gorm:"not null;index;uniqueIndex:idx_canteen_plan" json:"canteen_id"`

	Plan         string `gorm:"size:30;not null;uniqueIndex:idx_canteen_plan" json:"plan"`
	FoodType     string `gorm:"size:20" json:"food_type"` // veg/non_veg/both
	MonthlyPrice int64  `gorm:"not null" json:"monthly_price"`
	IsActive     bool   `gorm:"default:true" json:"is_active"`

	// 关联
	Canteen *Canteen `gorm:"foreignKey:CanteenID" json:"canteen,omitempty"`
}

// TableName 表名
func (p *CanteenPlan) TableName() string {
	return "canteen_plans"
}
