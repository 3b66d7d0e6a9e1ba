package services

import (
	"fmt"
	"testing"
	"time"

	"stayhub/internal/models"
	"stayhub/pkg/payment"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Hostel{},
		&models.Room{},
		&models.Contract{},
		&models.Canteen{},
		&models.CanteenPlan{},
		&models.Subscription{},
		&models.PaymentOrder{},
		&models.Notification{},
	)
	require.NoError(t, err)
	return db
}

func newTestVerifier() *payment.Verifier {
	return payment.NewVerifier("key_test", "secret_test", false, "order_test_")
}

func createUser(t *testing.T, db *gorm.DB, name, role string) *models.User {
	user := &models.User{
		Username: fmt.Sprintf("%s_%s", name, uuid.New().String()[:8]),
		Email:    fmt.Sprintf("%s_%s@test.local", name, uuid.New().String()[:8]),
		Name:     name,
		Role:     role,
		Status:   models.UserStatusActive,
	}
	require.NoError(t, user.SetPassword("Passw0rd!"))
	require.NoError(t, db.Create(user).Error)
	return user
}

// createHostelWithRoom 通过服务层建宿舍和房间，保证房间计数正确
func createHostelWithRoom(t *testing.T, db *gorm.DB, ownerID uint, capacity int) (*models.Hostel, *models.Room) {
	svc := NewHostelService(db)

	hostel, err := svc.CreateHostel(ownerID, &CreateHostelRequest{
		Name: "测试宿舍_" + uuid.New().String()[:8],
		City: "Pune",
	})
	require.NoError(t, err)

	room, err := svc.CreateRoom(ownerID, hostel.ID, &CreateRoomRequest{
		Number:      "101",
		RoomType:    "double",
		Capacity:    capacity,
		MonthlyRent: 5000,
		Deposit:     2000,
	})
	require.NoError(t, err)

	hostel, err = svc.GetHostelByID(hostel.ID)
	require.NoError(t, err)
	return hostel, room
}

// createPendingContract 直接落库一份租客已签、已支付、等待房东确认的合同
func createPendingContract(t *testing.T, db *gorm.DB, tenantID, ownerID uint, room *models.Room) *models.Contract {
	contract := &models.Contract{
		ContractNo:      "CT-TEST-" + uuid.New().String()[:8],
		TenantID:        tenantID,
		OwnerID:         ownerID,
		RoomID:          room.ID,
		HostelID:        room.HostelID,
		MonthlyRent:     room.MonthlyRent,
		SecurityDeposit: room.Deposit,
		StartDate:       time.Now(),
		Status:          models.ContractStatusPendingSignatures,
		PaymentStatus:   models.PaymentStatusPaid,
	}
	contract.SignTenant("10.0.0.1")
	require.NoError(t, db.Create(contract).Error)
	return contract
}
