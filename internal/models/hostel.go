package models

// Hostel 宿舍（房源）模型
type Hostel struct {
	BaseModel
	OwnerID uint `gorm:"not null;uniqueIndex:idx_owner_hostel" json:"owner_id"`

	// 核心字段
	Name    string `gorm:"size:100;not null;uniqueIndex:idx_owner_hostel" json:"name"`
	Address string `gorm:"size:300" json:"address"`
	City    string `gorm:"size:100;index" json:"city"`

	// 房间计数（冗余缓存，仅在审批/退租事务内更新）
	TotalRooms     int `gorm:"default:0" json:"total_rooms"`
	AvailableRooms int `gorm:"default:0" json:"available_rooms"`

	// 元数据
	Description string `gorm:"size:500" json:"description"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`

	// 关联
	Owner *User  `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Rooms []Room `gorm:"foreignKey:HostelID" json:"rooms,omitempty"`
}

// TableName 表名
func (h *Hostel) TableName() string {
	return "hostels"
}

// DecAvailableRooms 可用房间数减1（下限0）
func (h *Hostel) DecAvailableRooms() {
	if h.AvailableRooms > 0 {
		h.AvailableRooms--
	}
}

// IncAvailableRooms 可用房间数加1（上限TotalRooms）
func (h *Hostel) IncAvailableRooms() {
	if h.AvailableRooms < h.TotalRooms {
		h.AvailableRooms++
	}
}
