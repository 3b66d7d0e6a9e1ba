package services

import (
	"fmt"

	"stayhub/internal/models"

	"gorm.io/gorm"
)

// CanteenService 食堂与套餐服务
type CanteenService struct {
	db *gorm.DB
}

// NewCanteenService 创建食堂服务
func NewCanteenService(db *gorm.DB) *CanteenService {
	return &CanteenService{db: db}
}

// CreateCanteenRequest 创建食堂参数
type CreateCanteenRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=100"`
	Address     string `json:"address" binding:"max=300"`
	City        string `json:"city" binding:"max=100"`
	Description string `json:"description" binding:"max=500"`
}

// CreateCanteen 创建食堂
func (s *CanteenService) CreateCanteen(providerID uint, req *CreateCanteenRequest) (*models.Canteen, error) {
	var count int64
	s.db.Model(&models.Canteen{}).Where("provider_id = ? AND name = ?", providerID, req.Name).Count(&count)
	if count > 0 {
		return nil, gorm.ErrDuplicatedKey
	}

	canteen := &models.Canteen{
		ProviderID:  providerID,
		Name:        req.Name,
		Address:     req.Address,
		City:        req.City,
		Description: req.Description,
		IsActive:    true,
	}

	err := s.db.Create(canteen).Error
	return canteen, err
}

// GetCanteenByID 根据ID获取食堂
func (s *CanteenService) GetCanteenByID(id uint) (*models.Canteen, error) {
	var canteen models.Canteen
	err := s.db.Preload("Plans", "is_active = ?", true).First(&canteen, id).Error
	return &canteen, err
}

// GetCanteensWithPage 食堂列表（分页，支持城市/关键词过滤）
func (s *CanteenService) GetCanteensWithPage(city, keyword string, page, pageSize int) ([]*models.Canteen, int64, error) {
	var canteens []*models.Canteen
	var total int64

	query := s.db.Model(&models.Canteen{}).Where("is_active = ?", true)

	if city != "" {
		query = query.Where("city = ?", city)
	}
	if keyword != "" {
		searchPattern := fmt.Sprintf("%%%s%%", keyword)
		query = query.Where("name LIKE ?", searchPattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&canteens).Error
	if err != nil {
		return nil, 0, err
	}

	return canteens, total, nil
}

// SetPlanRequest 套餐定价参数
type SetPlanRequest struct {
	Plan         string `json:"plan" binding:"required"`
	FoodType     string `json:"food_type" binding:"omitempty,oneof=veg non_veg both"`
	MonthlyPrice int64  `json:"monthly_price" binding:"required,min=1"`
}

// SetPlan 设置套餐定价（同套餐已存在则更新价格）
func (s *CanteenService) SetPlan(providerID, canteenID uint, req *SetPlanRequest) (*models.CanteenPlan, error) {
	if !models.IsValidPlan(req.Plan) {
		return nil, ErrInvalidSubscriptionPlan
	}

	canteen, err := s.GetCanteenByID(canteenID)
	if err != nil {
		return nil, err
	}
	if canteen.ProviderID != providerID {
		return nil, fmt.Errorf("只有食堂经营者才能设置套餐")
	}

	var plan models.CanteenPlan
	err = s.db.Where("canteen_id = ? AND plan = ?", canteenID, req.Plan).First(&plan).Error
	if err == gorm.ErrRecordNotFound {
		plan = models.CanteenPlan{
			CanteenID:    canteenID,
			Plan:         req.Plan,
			FoodType:     req.FoodType,
			MonthlyPrice: req.MonthlyPrice,
			IsActive:     true,
		}
		err = s.db.Create(&plan).Error
		return &plan, err
	}
	if err != nil {
		return nil, err
	}

	plan.FoodType = req.FoodType
	plan.MonthlyPrice = req.MonthlyPrice
	plan.IsActive = true
	err = s.db.Save(&plan).Error
	return &plan, err
}

// GetPlan 获取食堂指定套餐
func (s *CanteenService) GetPlan(canteenID uint, planName string) (*models.CanteenPlan, error) {
	var plan models.CanteenPlan
	err := s.db.Where("canteen_id = ? AND plan = ? AND is_active = ?", canteenID, planName, true).First(&plan).Error
	return &plan, err
}
