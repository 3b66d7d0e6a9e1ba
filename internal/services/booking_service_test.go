package services

import (
	"testing"
	"time"

	"stayhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookRoom_CreatesPendingContract(t *testing.T) {
	db := setupTestDB(t)
	verifier := newTestVerifier()
	svc := NewBookingService(db, verifier, NewNotifyService(db, nil))

	owner := createUser(t, db, "owner", models.RoleOwner)
	tenant := createUser(t, db, "tenant", models.RoleTenant)
	_, room := createHostelWithRoom(t, db, owner.ID, 2)

	order, err := svc.CreateBookingOrder(tenant.ID, room.ID)
	require.NoError(t, err)
	// 首月租金+押金，单位分
	assert.Equal(t, int64((5000+2000)*100), order.Amount)

	contract, err := svc.BookRoom(tenant.ID, &BookRoomRequest{
		RoomID:    room.ID,
		HostelID:  room.HostelID,
		StartDate: time.Now(),
		OrderID:   order.OrderID,
		PaymentID: "pay_abc123",
		Signature: verifier.Sign(order.OrderID, "pay_abc123"),
		Origin:    "10.0.0.1",
	})
	require.NoError(t, err)

	assert.Equal(t, models.ContractStatusPendingSignatures, contract.Status)
	assert.Equal(t, models.PaymentStatusPaid, contract.PaymentStatus)
	assert.True(t, contract.TenantSignature.Signed)
	assert.False(t, contract.OwnerSignature.Signed)
	assert.Equal(t, owner.ID, contract.OwnerID)

	// 预订成功不占用房间，占用发生在房东审批时
	var fresh models.Room
	require.NoError(t, db.First(&fresh, room.ID).Error)
	assert.Equal(t, 0, fresh.CurrentOccupancy)

	// 支付订单被标记已支付并关联合同
	var record models.PaymentOrder
	require.NoError(t, db.Where("order_id = ?", order.OrderID).First(&record).Error)
	assert.Equal(t, models.PaymentOrderStatusPaid, record.Status)
	require.NotNil(t, record.RefID)
	assert.Equal(t, contract.ID, *record.RefID)

	// 房东收到站内通知
	var count int64
	db.Model(&models.Notification{}).Where("recipient_id = ?", owner.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestBookRoom_RejectsShortDuration(t *testing.T) {
	db := setupTestDB(t)
	verifier := newTestVerifier()
	svc := NewBookingService(db, verifier, NewNotifyService(db, nil))

	owner := createUser(t, db, "owner", models.RoleOwner)
	tenant := createUser(t, db, "tenant", models.RoleTenant)
	_, room := createHostelWithRoom(t, db, owner.ID, 2)

	start := time.Now()
	end := start.Add(7 * 24 * time.Hour)
	_, err := svc.BookRoom(tenant.ID, &BookRoomRequest{
		RoomID:    room.ID,
		HostelID:  room.HostelID,
		StartDate: start,
		EndDate:   &end,
		OrderID:   "order_x",
		PaymentID: "pay_x",
		Signature: verifier.Sign("order_x", "pay_x"),
	})
	assert.ErrorIs(t, err, ErrDurationTooShort)
}

func TestBookRoom_RejectsInvalidSignature(t *testing.T) {
	db := setupTestDB(t)
	verifier := newTestVerifier()
	svc := NewBookingService(db, verifier, NewNotifyService(db, nil))

	owner := createUser(t, db, "owner", models.RoleOwner)
	tenant := createUser(t, db, "tenant", models.RoleTenant)
	_, room := createHostelWithRoom(t, db, owner.ID, 2)

	_, err := svc.BookRoom(tenant.ID, &BookRoomRequest{
		RoomID:    room.ID,
		HostelID:  room.HostelID,
		StartDate: time.Now(),
		OrderID:   "order_x",
		PaymentID: "pay_x",
		Signature: "deadbeef",
	})
	assert.ErrorIs(t, err, ErrInvalidPaymentSignature)

	// 校验失败不落任何合同数据
	var count int64
	db.Model(&models.Contract{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestBookRoom_RejectsDuplicateLiveContract(t *testing.T) {
	db := setupTestDB(t)
	verifier := newTestVerifier()
	svc := NewBookingService(db, verifier, NewNotifyService(db, nil))

	owner := createUser(t, db, "owner", models.RoleOwner)
	tenant := createUser(t, db, "tenant", models.RoleTenant)
	_, room := createHostelWithRoom(t, db, owner.ID, 2)

	createPendingContract(t, db, tenant.ID, owner.ID, room)

	_, err := svc.BookRoom(tenant.ID, &BookRoomRequest{
		RoomID:    room.ID,
		HostelID:  room.HostelID,
		StartDate: time.Now(),
		OrderID:   "order_x",
		PaymentID: "pay_x",
		Signature: verifier.Sign("order_x", "pay_x"),
	})
	assert.ErrorIs(t, err, ErrDuplicateActiveBooking)

	// 事务内拦截，第二份合同不落库
	var count int64
	db.Model(&models.Contract{}).Where("tenant_id = ?", tenant.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestBookRoom_RejectsFullRoom(t *testing.T) {
	db := setupTestDB(t)
	verifier := newTestVerifier()
	svc := NewBookingService(db, verifier, NewNotifyService(db, nil))

	owner := createUser(t, db, "owner", models.RoleOwner)
	occupant := createUser(t, db, "occupant", models.RoleTenant)
	tenant := createUser(t, db, "tenant", models.RoleTenant)
	_, room := createHostelWithRoom(t, db, owner.ID, 1)

	// 先把唯一床位占满
	first := createPendingContract(t, db, occupant.ID, owner.ID, room)
	_, err := svc.Approve(first.ID, owner.ID, "10.0.0.2")
	require.NoError(t, err)

	_, err = svc.BookRoom(tenant.ID, &BookRoomRequest{
		RoomID:    room.ID,
		HostelID:  room.HostelID,
		StartDate: time.Now(),
		OrderID:   "order_x",
		PaymentID: "pay_x",
		Signature: verifier.Sign("order_x", "pay_x"),
	})
	assert.ErrorIs(t, err, ErrRoomUnavailable)
}

func TestApprove_ActivatesContractAndOccupiesRoom(t *testing.T) {
	db := setupTestDB(t)
	svc := NewBookingService(db, newTestVerifier(), NewNotifyService(db, nil))

	owner := createUser(t, db, "owner", models.RoleOwner)
	tenant := createUser(t, db, "tenant", models.RoleTenant)
	hostel, room := createHostelWithRoom(t, db, owner.ID, 1)
	assert.Equal(t, 1, hostel.AvailableRooms)

	contract := createPendingContract(t, db, tenant.ID, owner.ID, room)

	approved, err := svc.Approve(contract.ID, owner.ID, "10.0.0.2")
	require.NoError(t, err)
	assert.Equal(t, models.ContractStatusActive, approved.Status)
	assert.True(t, approved.OwnerSignature.Signed)

	var freshRoom models.Room
	require.NoError(t, db.First(&freshRoom, room.ID).Error)
	assert.Equal(t, 1, freshRoom.CurrentOccupancy)
	assert.False(t, freshRoom.IsAvailable)

	// 房间满员，宿舍可用房间数同事务扣减
	var freshHostel models.Hostel
	require.NoError(t, db.First(&freshHostel, hostel.ID).Error)
	assert.Equal(t, 0, freshHostel.AvailableRooms)
}

func TestApprove_PartialOccupancyKeepsRoomAvailable(t *testing.T) {
	db := setupTestDB(t)
	svc := NewBookingService(db, newTestVerifier(), NewNotifyService(db, nil))

	owner := createUser(t, db, "owner", models.RoleOwner)
	tenant := createUser(t, db, "tenant", models.RoleTenant)
	hostel, room := createHostelWithRoom(t, db, owner.ID, 2)

	contract := createPendingContract(t, db, tenant.ID, owner.ID, room)
	_, err := svc.Approve(contract.ID, owner.ID, "10.0.0.2")
	require.NoError(t, err)

	var freshRoom models.Room
	require.NoError(t, db.First(&freshRoom, room.ID).Error)
	assert.Equal(t, 1, freshRoom.CurrentOccupancy)
	assert.True(t, freshRoom.IsAvailable)

	// 房间未满员，宿舍可用房间数不变
	var freshHostel models.Hostel
	require.NoError(t, db.First(&freshHostel, hostel.ID).Error)
	assert.Equal(t, 1, freshHostel.AvailableRooms)
}

func TestApprove_LastSlotOnlyOneWins(t *testing.T) {
	db := setupTestDB(t)
	svc := NewBookingService(db, newTestVerifier(), NewNotifyService(db, nil))

	owner := createUser(t, db, "owner", models.RoleOwner)
	tenantA := createUser(t, db, "tenant_a", models.RoleTenant)
	tenantB := createUser(t, db, "tenant_b", models.RoleTenant)
	_, room := createHostelWithRoom(t, db, owner.ID, 1)

	contractA := createPendingContract(t, db, tenantA.ID, owner.ID, room)
	contractB := createPendingContract(t, db, tenantB.ID, owner.ID, room)

	_, err := svc.Approve(contractA.ID, owner.ID, "10.0.0.2")
	require.NoError(t, err)

	// 最后一个空位已被占用，锁内复查拦截第二次审批
	_, err = svc.Approve(contractB.ID, owner.ID, "10.0.0.2")
	assert.ErrorIs(t, err, ErrRoomUnavailable)

	var freshRoom models.Room
	require.NoError(t, db.First(&freshRoom, room.ID).Error)
	assert.Equal(t, 1, freshRoom.CurrentOccupancy)

	var freshB models.Contract
	require.NoError(t, db.First(&freshB, contractB.ID).Error)
	assert.Equal(t, models.ContractStatusPendingSignatures, freshB.Status)
}

func TestApprove_RejectsNonOwner(t *testing.T) {
	db := setupTestDB(t)
	svc := NewBookingService(db, newTestVerifier(), NewNotifyService(db, nil))

	owner := createUser(t, db, "owner", models.RoleOwner)
	stranger := createUser(t, db, "stranger", models.RoleOwner)
	tenant := createUser(t, db, "tenant", models.RoleTenant)
	_, room := createHostelWithRoom(t, db, owner.ID, 2)

	contract := createPendingContract(t, db, tenant.ID, owner.ID, room)

	_, err := svc.Approve(contract.ID, stranger.ID, "10.0.0.2")
	assert.ErrorIs(t, err, ErrNotContractOwner)
}

func TestApprove_AdminCanActOnBehalf(t *testing.T) {
	db := setupTestDB(t)
	svc := NewBookingService(db, newTestVerifier(), NewNotifyService(db, nil))

	owner := createUser(t, db, "owner", models.RoleOwner)
	admin := createUser(t, db, "admin", models.RoleAdmin)
	tenant := createUser(t, db, "tenant", models.RoleTenant)
	_, room := createHostelWithRoom(t, db, owner.ID, 2)

	contract := createPendingContract(t, db, tenant.ID, owner.ID, room)

	approved, err := svc.Approve(contract.ID, admin.ID, "10.0.0.2")
	require.NoError(t, err)
	assert.Equal(t, models.ContractStatusActive, approved.Status)
}

func TestApprove_RejectsUnpaidContract(t *testing.T) {
	db := setupTestDB(t)
	svc := NewBookingService(db, newTestVerifier(), NewNotifyService(db, nil))

	owner := createUser(t, db, "owner", models.RoleOwner)
	tenant := createUser(t, db, "tenant", models.RoleTenant)
	_, room := createHostelWithRoom(t, db, owner.ID, 2)

	contract := createPendingContract(t, db, tenant.ID, owner.ID, room)
	require.NoError(t, db.Model(contract).Update("payment_status", models.PaymentStatusPending).Error)

	_, err := svc.Approve(contract.ID, owner.ID, "10.0.0.2")
	assert.ErrorIs(t, err, ErrContractNotPayable)
}

func TestTerminate_ReleasesRoom(t *testing.T) {
	db := setupTestDB(t)
	svc := NewBookingService(db, newTestVerifier(), NewNotifyService(db, nil))

	owner := createUser(t, db, "owner", models.RoleOwner)
	tenant := createUser(t, db, "tenant", models.RoleTenant)
	hostel, room := createHostelWithRoom(t, db, owner.ID, 1)

	contract := createPendingContract(t, db, tenant.ID, owner.ID, room)
	_, err := svc.Approve(contract.ID, owner.ID, "10.0.0.2")
	require.NoError(t, err)

	terminated, err := svc.Terminate(contract.ID, owner.ID, "租客退租")
	require.NoError(t, err)
	assert.Equal(t, models.ContractStatusTerminated, terminated.Status)
	assert.Equal(t, "租客退租", terminated.TerminateReason)
	require.NotNil(t, terminated.TerminatedByUser)
	assert.Equal(t, owner.ID, *terminated.TerminatedByUser)

	var freshRoom models.Room
	require.NoError(t, db.First(&freshRoom, room.ID).Error)
	assert.Equal(t, 0, freshRoom.CurrentOccupancy)
	assert.True(t, freshRoom.IsAvailable)

	var freshHostel models.Hostel
	require.NoError(t, db.First(&freshHostel, hostel.ID).Error)
	assert.Equal(t, 1, freshHostel.AvailableRooms)
}

func TestTerminate_IsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	svc := NewBookingService(db, newTestVerifier(), NewNotifyService(db, nil))

	owner := createUser(t, db, "owner", models.RoleOwner)
	tenant := createUser(t, db, "tenant", models.RoleTenant)
	hostel, room := createHostelWithRoom(t, db, owner.ID, 1)

	contract := createPendingContract(t, db, tenant.ID, owner.ID, room)
	_, err := svc.Approve(contract.ID, owner.ID, "10.0.0.2")
	require.NoError(t, err)

	_, err = svc.Terminate(contract.ID, owner.ID, "第一次")
	require.NoError(t, err)
	_, err = svc.Terminate(contract.ID, owner.ID, "第二次")
	require.NoError(t, err)

	// 重复终止不重复回加计数
	var freshHostel models.Hostel
	require.NoError(t, db.First(&freshHostel, hostel.ID).Error)
	assert.Equal(t, 1, freshHostel.AvailableRooms)

	var freshRoom models.Room
	require.NoError(t, db.First(&freshRoom, room.ID).Error)
	assert.Equal(t, 0, freshRoom.CurrentOccupancy)

	// 终止原因保留第一次的
	var fresh models.Contract
	require.NoError(t, db.First(&fresh, contract.ID).Error)
	assert.Equal(t, "第一次", fresh.TerminateReason)
}

func TestTerminate_AfterExpiryReleasesRoom(t *testing.T) {
	db := setupTestDB(t)
	svc := NewBookingService(db, newTestVerifier(), NewNotifyService(db, nil))
	scheduler := NewExpiryScheduler(db, NewNotifyService(db, nil))

	owner := createUser(t, db, "owner", models.RoleOwner)
	tenant := createUser(t, db, "tenant", models.RoleTenant)
	hostel, room := createHostelWithRoom(t, db, owner.ID, 1)

	contract := createPendingContract(t, db, tenant.ID, owner.ID, room)
	_, err := svc.Approve(contract.ID, owner.ID, "10.0.0.2")
	require.NoError(t, err)

	// 合同先被到期扫描落为expired（扫描不释放房间）
	past := time.Now().AddDate(0, 0, -1)
	require.NoError(t, db.Model(&models.Contract{}).Where("id = ?", contract.ID).
		Update("end_date", past).Error)
	scheduler.SweepContracts()

	var expired models.Contract
	require.NoError(t, db.First(&expired, contract.ID).Error)
	require.Equal(t, models.ContractStatusExpired, expired.Status)

	var occupiedRoom models.Room
	require.NoError(t, db.First(&occupiedRoom, room.ID).Error)
	require.Equal(t, 1, occupiedRoom.CurrentOccupancy)

	// 房东对过期合同走终止流程，房间与计数必须回收
	terminated, err := svc.Terminate(contract.ID, owner.ID, "租期届满退房")
	require.NoError(t, err)
	assert.Equal(t, models.ContractStatusTerminated, terminated.Status)

	var freshRoom models.Room
	require.NoError(t, db.First(&freshRoom, room.ID).Error)
	assert.Equal(t, 0, freshRoom.CurrentOccupancy)
	assert.True(t, freshRoom.IsAvailable)

	var freshHostel models.Hostel
	require.NoError(t, db.First(&freshHostel, hostel.ID).Error)
	assert.Equal(t, 1, freshHostel.AvailableRooms)

	// 再次终止幂等，计数不重复回加
	_, err = svc.Terminate(contract.ID, owner.ID, "重复终止")
	require.NoError(t, err)
	require.NoError(t, db.First(&freshHostel, hostel.ID).Error)
	assert.Equal(t, 1, freshHostel.AvailableRooms)
}

func TestTerminate_PendingContractDoesNotTouchRoom(t *testing.T) {
	db := setupTestDB(t)
	svc := NewBookingService(db, newTestVerifier(), NewNotifyService(db, nil))

	owner := createUser(t, db, "owner", models.RoleOwner)
	tenant := createUser(t, db, "tenant", models.RoleTenant)
	hostel, room := createHostelWithRoom(t, db, owner.ID, 1)

	contract := createPendingContract(t, db, tenant.ID, owner.ID, room)

	_, err := svc.Terminate(contract.ID, owner.ID, "房东拒绝")
	require.NoError(t, err)

	// 未激活的合同终止不影响房间与计数
	var freshRoom models.Room
	require.NoError(t, db.First(&freshRoom, room.ID).Error)
	assert.Equal(t, 0, freshRoom.CurrentOccupancy)

	var freshHostel models.Hostel
	require.NoError(t, db.First(&freshHostel, hostel.ID).Error)
	assert.Equal(t, 1, freshHostel.AvailableRooms)
}
