package models

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User 用户模型
type User struct {
	BaseModel
	Username     string     `json:"username" gorm:"unique;not null;size:50;index"`
	Email        string     `json:"email" gorm:"unique;not null;size:100;index"`
	PasswordHash string     `json:"-" gorm:"not null;size:255"`
	Name         string     `json:"name" gorm:"not null;size:100"`
	Phone        *string    `json:"phone" gorm:"size:20"`
	Role         string     `json:"role" gorm:"not null;size:20;index"`
	Status       string     `json:"status" gorm:"default:'active';size:20"`
	LastLoginAt  *time.Time `json:"last_login_at"`
}

// TableName 表名
func (u *User) TableName() string {
	return "users"
}

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// 角色常量 - 系统内部只使用这四个值
const (
	RoleTenant   = "tenant"   // 租客
	RoleOwner    = "owner"    // 房东
	RoleProvider = "provider" // 食堂经营者
	RoleAdmin    = "admin"    // 平台管理员
)

// NormalizeRole 角色归一化 - 外部输入的角色别名只在系统边界做一次映射
func NormalizeRole(input string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "tenant", "student", "user":
		return RoleTenant, true
	case "owner", "hostel_owner", "landlord":
		return RoleOwner, true
	case "provider", "canteen", "canteen_provider", "mess_provider":
		return RoleProvider, true
	case "admin", "master_admin", "super_admin":
		return RoleAdmin, true
	default:
		return "", false
	}
}

// SetPassword 设置密码 - 数据操作方法
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

// CheckPassword 验证密码 - 数据操作方法
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// IsAdmin 是否平台管理员
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
