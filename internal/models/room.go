package models

// Room 房间模型
type Room struct {
	BaseModel
	HostelID uint `gorm:"not null;uniqueIndex:idx_hostel_room" json:"hostel_id"`

	// 核心字段
	Number      string `gorm:"size:20;not null;uniqueIndex:idx_hostel_room" json:"number"`
	RoomType    string `gorm:"size:20" json:"room_type"` // single/double/triple/dorm
	Capacity    int    `gorm:"not null" json:"capacity"`
	MonthlyRent int64  `gorm:"not null" json:"monthly_rent"` // 月租（卢比）
	Deposit     int64  `gorm:"default:0" json:"deposit"`     // 押金（卢比）

	// 入住状态
	// 不变量：0 <= CurrentOccupancy <= Capacity，IsAvailable == (CurrentOccupancy < Capacity)
	CurrentOccupancy int  `gorm:"default:0" json:"current_occupancy"`
	IsAvailable      bool `gorm:"default:true" json:"is_available"`

	// 元数据
	Description string `gorm:"size:500" json:"description"`

	// 关联
	Hostel    *Hostel `gorm:"foreignKey:HostelID" json:"hostel,omitempty"`
	Occupants []User  `gorm:"many2many:room_occupants;" json:"occupants,omitempty"`
}

// TableName 表名
func (r *Room) TableName() string {
	return "rooms"
}

// Recompute 按住户数量重算入住状态
func (r *Room) Recompute(occupantCount int) {
	if occupantCount < 0 {
		occupantCount = 0
	}
	if occupantCount > r.Capacity {
		occupantCount = r.Capacity
	}
	r.CurrentOccupancy = occupantCount
	r.IsAvailable = r.CurrentOccupancy < r.Capacity
}

// HasVacancy 是否还有空位
func (r *Room) HasVacancy() bool {
	return r.CurrentOccupancy < r.Capacity
}
