package services

import (
	"testing"

	"stayhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCreateRoom_UpdatesHostelCounters(t *testing.T) {
	db := setupTestDB(t)
	svc := NewHostelService(db)

	owner := createUser(t, db, "owner", models.RoleOwner)
	hostel, err := svc.CreateHostel(owner.ID, &CreateHostelRequest{Name: "绿园宿舍", City: "Pune"})
	require.NoError(t, err)

	_, err = svc.CreateRoom(owner.ID, hostel.ID, &CreateRoomRequest{
		Number: "101", Capacity: 2, MonthlyRent: 5000,
	})
	require.NoError(t, err)
	_, err = svc.CreateRoom(owner.ID, hostel.ID, &CreateRoomRequest{
		Number: "102", Capacity: 1, MonthlyRent: 6000,
	})
	require.NoError(t, err)

	fresh, err := svc.GetHostelByID(hostel.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, fresh.TotalRooms)
	assert.Equal(t, 2, fresh.AvailableRooms)
}

func TestCreateRoom_RejectsDuplicateNumber(t *testing.T) {
	db := setupTestDB(t)
	svc := NewHostelService(db)

	owner := createUser(t, db, "owner", models.RoleOwner)
	hostel, err := svc.CreateHostel(owner.ID, &CreateHostelRequest{Name: "绿园宿舍"})
	require.NoError(t, err)

	_, err = svc.CreateRoom(owner.ID, hostel.ID, &CreateRoomRequest{
		Number: "101", Capacity: 2, MonthlyRent: 5000,
	})
	require.NoError(t, err)

	_, err = svc.CreateRoom(owner.ID, hostel.ID, &CreateRoomRequest{
		Number: "101", Capacity: 2, MonthlyRent: 5000,
	})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	// 失败的创建不影响计数
	fresh, err := svc.GetHostelByID(hostel.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.TotalRooms)
}

func TestCreateRoom_RejectsNonOwner(t *testing.T) {
	db := setupTestDB(t)
	svc := NewHostelService(db)

	owner := createUser(t, db, "owner", models.RoleOwner)
	stranger := createUser(t, db, "stranger", models.RoleOwner)
	hostel, err := svc.CreateHostel(owner.ID, &CreateHostelRequest{Name: "绿园宿舍"})
	require.NoError(t, err)

	_, err = svc.CreateRoom(stranger.ID, hostel.ID, &CreateRoomRequest{
		Number: "101", Capacity: 2, MonthlyRent: 5000,
	})
	assert.ErrorIs(t, err, ErrNotHostelOwner)
}

func TestDeleteRoom_RejectsOccupiedRoom(t *testing.T) {
	db := setupTestDB(t)
	svc := NewHostelService(db)
	bookingSvc := NewBookingService(db, newTestVerifier(), NewNotifyService(db, nil))

	owner := createUser(t, db, "owner", models.RoleOwner)
	tenant := createUser(t, db, "tenant", models.RoleTenant)
	hostel, room := createHostelWithRoom(t, db, owner.ID, 1)

	contract := createPendingContract(t, db, tenant.ID, owner.ID, room)
	_, err := bookingSvc.Approve(contract.ID, owner.ID, "10.0.0.2")
	require.NoError(t, err)

	err = svc.DeleteRoom(owner.ID, room.ID)
	assert.ErrorIs(t, err, ErrRoomOccupied)

	// 退租后可以删除，计数同步回收
	_, err = bookingSvc.Terminate(contract.ID, owner.ID, "退租")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteRoom(owner.ID, room.ID))

	fresh, err := svc.GetHostelByID(hostel.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, fresh.TotalRooms)
	assert.Equal(t, 0, fresh.AvailableRooms)
}

func TestGetRoomsWithPage_OnlyAvailableFilter(t *testing.T) {
	db := setupTestDB(t)
	svc := NewHostelService(db)
	bookingSvc := NewBookingService(db, newTestVerifier(), NewNotifyService(db, nil))

	owner := createUser(t, db, "owner", models.RoleOwner)
	tenant := createUser(t, db, "tenant", models.RoleTenant)
	hostel, room := createHostelWithRoom(t, db, owner.ID, 1)

	_, err := svc.CreateRoom(owner.ID, hostel.ID, &CreateRoomRequest{
		Number: "102", Capacity: 2, MonthlyRent: 4500,
	})
	require.NoError(t, err)

	// 占满101
	contract := createPendingContract(t, db, tenant.ID, owner.ID, room)
	_, err = bookingSvc.Approve(contract.ID, owner.ID, "10.0.0.2")
	require.NoError(t, err)

	all, total, err := svc.GetRoomsWithPage(hostel.ID, false, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)

	available, total, err := svc.GetRoomsWithPage(hostel.ID, true, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, available, 1)
	assert.Equal(t, "102", available[0].Number)
}

func TestUpdateHostel_OwnerOnly(t *testing.T) {
	db := setupTestDB(t)
	svc := NewHostelService(db)

	owner := createUser(t, db, "owner", models.RoleOwner)
	stranger := createUser(t, db, "stranger", models.RoleOwner)
	hostel, err := svc.CreateHostel(owner.ID, &CreateHostelRequest{Name: "绿园宿舍", City: "Pune"})
	require.NoError(t, err)

	_, err = svc.UpdateHostel(stranger.ID, hostel.ID, &CreateHostelRequest{Name: "改名"})
	assert.ErrorIs(t, err, ErrNotHostelOwner)

	updated, err := svc.UpdateHostel(owner.ID, hostel.ID, &CreateHostelRequest{Name: "新绿园", City: "Mumbai"})
	require.NoError(t, err)
	assert.Equal(t, "新绿园", updated.Name)
	assert.Equal(t, "Mumbai", updated.City)
}
