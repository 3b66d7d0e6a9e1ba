package services

import (
	"fmt"

	"stayhub/internal/models"

	"gorm.io/gorm"
)

// HostelService 房源服务（宿舍与房间库存）
type HostelService struct {
	db *gorm.DB
}

// NewHostelService 创建房源服务
func NewHostelService(db *gorm.DB) *HostelService {
	return &HostelService{db: db}
}

// CreateHostelRequest 创建宿舍参数
type CreateHostelRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=100"`
	Address     string `json:"address" binding:"max=300"`
	City        string `json:"city" binding:"max=100"`
	Description string `json:"description" binding:"max=500"`
}

// CreateHostel 创建宿舍
func (s *HostelService) CreateHostel(ownerID uint, req *CreateHostelRequest) (*models.Hostel, error) {
	// 同一房东下名称不能重复
	var count int64
	s.db.Model(&models.Hostel{}).Where("owner_id = ? AND name = ?", ownerID, req.Name).Count(&count)
	if count > 0 {
		return nil, gorm.ErrDuplicatedKey
	}

	hostel := &models.Hostel{
		OwnerID:     ownerID,
		Name:        req.Name,
		Address:     req.Address,
		City:        req.City,
		Description: req.Description,
		IsActive:    true,
	}

	err := s.db.Create(hostel).Error
	return hostel, err
}

// UpdateHostel 更新宿舍信息
func (s *HostelService) UpdateHostel(ownerID, hostelID uint, req *CreateHostelRequest) (*models.Hostel, error) {
	hostel, err := s.GetHostelByID(hostelID)
	if err != nil {
		return nil, err
	}
	if hostel.OwnerID != ownerID {
		return nil, ErrNotHostelOwner
	}

	hostel.Name = req.Name
	hostel.Address = req.Address
	hostel.City = req.City
	hostel.Description = req.Description

	err = s.db.Save(hostel).Error
	return hostel, err
}

// GetHostelByID 根据ID获取宿舍
func (s *HostelService) GetHostelByID(id uint) (*models.Hostel, error) {
	var hostel models.Hostel
	err := s.db.First(&hostel, id).Error
	return &hostel, err
}

// GetHostelsWithPage 宿舍列表（分页，支持城市/关键词过滤）
func (s *HostelService) GetHostelsWithPage(city, keyword string, page, pageSize int) ([]*models.Hostel, int64, error) {
	var hostels []*models.Hostel
	var total int64

	query := s.db.Model(&models.Hostel{}).Where("is_active = ?", true)

	if city != "" {
		query = query.Where("city = ?", city)
	}
	if keyword != "" {
		searchPattern := fmt.Sprintf("%%%s%%", keyword)
		query = query.Where("name LIKE ? OR address LIKE ?", searchPattern, searchPattern)
	}

	// 计算总数
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 分页查询
	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&hostels).Error
	if err != nil {
		return nil, 0, err
	}

	return hostels, total, nil
}

// GetHostelsByOwner 房东名下的宿舍
func (s *HostelService) GetHostelsByOwner(ownerID uint) ([]*models.Hostel, error) {
	var hostels []*models.Hostel
	err := s.db.Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&hostels).Error
	return hostels, err
}

// CreateRoomRequest 创建房间参数
type CreateRoomRequest struct {
	Number      string `json:"number" binding:"required,max=20"`
	RoomType    string `json:"room_type" binding:"omitempty,oneof=single double triple dorm"`
	Capacity    int    `json:"capacity" binding:"required,min=1,max=20"`
	MonthlyRent int64  `json:"monthly_rent" binding:"required,min=1"`
	Deposit     int64  `json:"deposit" binding:"min=0"`
	Description string `json:"description" binding:"max=500"`
}

// CreateRoom 在宿舍下添加房间，同步宿舍房间计数
func (s *HostelService) CreateRoom(ownerID, hostelID uint, req *CreateRoomRequest) (*models.Room, error) {
	room := &models.Room{
		HostelID:    hostelID,
		Number:      req.Number,
		RoomType:    req.RoomType,
		Capacity:    req.Capacity,
		MonthlyRent: req.MonthlyRent,
		Deposit:     req.Deposit,
		Description: req.Description,
		IsAvailable: true,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var hostel models.Hostel
		if err := tx.First(&hostel, hostelID).Error; err != nil {
			return err
		}
		if hostel.OwnerID != ownerID {
			return ErrNotHostelOwner
		}

		// 同一宿舍下房间号不能重复
		var count int64
		tx.Model(&models.Room{}).Where("hostel_id = ? AND number = ?", hostelID, req.Number).Count(&count)
		if count > 0 {
			return gorm.ErrDuplicatedKey
		}

		if err := tx.Create(room).Error; err != nil {
			return err
		}

		// 新房间默认可用，计数同事务更新
		hostel.TotalRooms++
		hostel.AvailableRooms++
		return tx.Save(&hostel).Error
	})

	if err != nil {
		return nil, err
	}
	return room, nil
}

// GetRoomByID 根据ID获取房间
func (s *HostelService) GetRoomByID(id uint) (*models.Room, error) {
	var room models.Room
	err := s.db.Preload("Hostel").First(&room, id).Error
	return &room, err
}

// GetRoomsWithPage 房间列表（分页，支持仅看可用）
func (s *HostelService) GetRoomsWithPage(hostelID uint, onlyAvailable bool, page, pageSize int) ([]*models.Room, int64, error) {
	var rooms []*models.Room
	var total int64

	query := s.db.Model(&models.Room{}).Where("hostel_id = ?", hostelID)
	if onlyAvailable {
		query = query.Where("is_available = ?", true)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("number").Find(&rooms).Error
	if err != nil {
		return nil, 0, err
	}

	return rooms, total, nil
}

// DeleteRoom 删除房间，有住户时拒绝
func (s *HostelService) DeleteRoom(ownerID, roomID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var room models.Room
		if err := tx.First(&room, roomID).Error; err != nil {
			return err
		}

		var hostel models.Hostel
		if err := tx.First(&hostel, room.HostelID).Error; err != nil {
			return err
		}
		if hostel.OwnerID != ownerID {
			return ErrNotHostelOwner
		}

		if room.CurrentOccupancy > 0 {
			return ErrRoomOccupied
		}

		if err := tx.Delete(&room).Error; err != nil {
			return err
		}

		hostel.TotalRooms--
		if hostel.TotalRooms < 0 {
			hostel.TotalRooms = 0
		}
		hostel.DecAvailableRooms()
		return tx.Save(&hostel).Error
	})
}
