package database

import (
	"stayhub/internal/models"
	"stayhub/pkg/logger"
)

// Migrate 执行数据库迁移
func Migrate() error {
	appLogger := logger.GetLogger()
	appLogger.Info("Starting database migration...")

	err := DB.AutoMigrate(
		&models.User{},
		// 房源
		&models.Hostel{},
		&models.Room{},
		&models.Contract{},
		// 食堂订阅
		&models.Canteen{},
		&models.CanteenPlan{},
		&models.Subscription{},
		// 支付与通知
		&models.PaymentOrder{},
		&models.Notification{},
	)

	if err != nil {
		appLogger.Errorf("Database migration failed: %v", err)
		return err
	}

	appLogger.Info("Database migration completed successfully")

	return nil
}
