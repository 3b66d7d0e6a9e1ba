package services

import (
	"fmt"
	"time"

	"stayhub/internal/models"

	"gorm.io/gorm"
)

// UserService 用户服务
type UserService struct {
	db *gorm.DB
}

// NewUserService 创建用户服务
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// RegisterRequest 注册参数
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required,max=100"`
	Phone    string `json:"phone" binding:"omitempty,max=20"`
	Role     string `json:"role" binding:"required"`
}

// Register 注册用户（角色别名在此边界归一化）
func (s *UserService) Register(req *RegisterRequest) (*models.User, error) {
	role, ok := models.NormalizeRole(req.Role)
	if !ok {
		return nil, fmt.Errorf("不支持的角色: %s", req.Role)
	}

	// 检查用户名/邮箱是否已被占用
	var count int64
	s.db.Model(&models.User{}).Where("username = ? OR email = ?", req.Username, req.Email).Count(&count)
	if count > 0 {
		return nil, gorm.ErrDuplicatedKey
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Name:     req.Name,
		Role:     role,
		Status:   models.UserStatusActive,
	}
	if req.Phone != "" {
		user.Phone = &req.Phone
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, err
	}

	err := s.db.Create(user).Error
	return user, err
}

// Authenticate 校验用户名密码
func (s *UserService) Authenticate(username, password string) (*models.User, error) {
	var user models.User
	err := s.db.Where("username = ? OR email = ?", username, username).First(&user).Error
	if err != nil {
		return nil, fmt.Errorf("用户名或密码错误")
	}

	if !user.CheckPassword(password) {
		return nil, fmt.Errorf("用户名或密码错误")
	}
	if !s.IsActive(&user) {
		return nil, fmt.Errorf("用户已被禁用")
	}

	// 记录最后登录时间
	now := time.Now()
	s.db.Model(&user).Update("last_login_at", &now)
	user.LastLoginAt = &now

	return &user, nil
}

// GetByID 根据ID获取用户
func (s *UserService) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := s.db.First(&user, id).Error
	return &user, err
}

// IsActive 检查用户是否激活
func (s *UserService) IsActive(user *models.User) bool {
	return user.Status == models.UserStatusActive
}

// IsAdmin 检查用户是否为平台管理员
func (s *UserService) IsAdmin(userID uint) bool {
	var user models.User
	if err := s.db.Select("role").First(&user, userID).Error; err != nil {
		return false
	}
	return user.IsAdmin()
}
