package services

import (
	"testing"
	"time"

	"stayhub/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// newCanteenWithPlan 建食堂并挂一个指定月价的套餐
func newCanteenWithPlan(t *testing.T, db *gorm.DB, providerID uint, plan string, monthlyPrice int64) *models.Canteen {
	svc := NewCanteenService(db)

	canteen, err := svc.CreateCanteen(providerID, &CreateCanteenRequest{
		Name: "测试食堂_" + uuid.New().String()[:8],
		City: "Pune",
	})
	require.NoError(t, err)

	_, err = svc.SetPlan(providerID, canteen.ID, &SetPlanRequest{
		Plan:         plan,
		FoodType:     "veg",
		MonthlyPrice: monthlyPrice,
	})
	require.NoError(t, err)
	return canteen
}

func TestSubscriptionCreateOrder_TotalIsPriceTimesDuration(t *testing.T) {
	db := setupTestDB(t)
	verifier := newTestVerifier()
	svc := NewSubscriptionService(db, verifier, NewNotifyService(db, nil))

	provider := createUser(t, db, "provider", models.RoleProvider)
	tenant := createUser(t, db, "tenant", models.RoleTenant)
	canteen := newCanteenWithPlan(t, db, provider.ID, models.PlanLunchDinner, 300)

	result, err := svc.CreateOrder(tenant.ID, &CreateOrderRequest{
		CanteenID:      canteen.ID,
		Plan:           models.PlanLunchDinner,
		DurationMonths: 3,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(900), result.Subscription.TotalAmount)
	assert.Equal(t, int64(300), result.Subscription.MonthlyPrice)
	assert.Equal(t, 3, result.Subscription.DurationMonths)
	assert.Equal(t, models.SubscriptionStatusPaused, result.Subscription.Status)
	assert.Equal(t, models.PaymentStatusPending, result.Subscription.PaymentStatus)
	// 网关订单金额单位为分
	assert.Equal(t, int64(90000), result.Order.Amount)
}

func TestSubscriptionCreateOrder_RejectsInvalidPlan(t *testing.T) {
	db := setupTestDB(t)
	svc := NewSubscriptionService(db, newTestVerifier(), NewNotifyService(db, nil))

	provider := createUser(t, db, "provider", models.RoleProvider)
	tenant := createUser(t, db, "tenant", models.RoleTenant)
	canteen := newCanteenWithPlan(t, db, provider.ID, models.PlanLunchDinner, 300)

	_, err := svc.CreateOrder(tenant.ID, &CreateOrderRequest{
		CanteenID:      canteen.ID,
		Plan:           "midnight_snacks",
		DurationMonths: 1,
	})
	assert.ErrorIs(t, err, ErrInvalidSubscriptionPlan)
}

func TestVerifyPayment_ActivatesForOneMonth(t *testing.T) {
	db := setupTestDB(t)
	verifier := newTestVerifier()
	svc := NewSubscriptionService(db, verifier, NewNotifyService(db, nil))

	provider := createUser(t, db, "provider", models.RoleProvider)
	tenant := createUser(t, db, "tenant", models.RoleTenant)
	canteen := newCanteenWithPlan(t, db, provider.ID, models.PlanAllMeals, 500)

	result, err := svc.CreateOrder(tenant.ID, &CreateOrderRequest{
		CanteenID:      canteen.ID,
		Plan:           models.PlanAllMeals,
		DurationMonths: 6,
	})
	require.NoError(t, err)

	sub, err := svc.VerifyPayment(tenant.ID, result.Order.OrderID, "pay_sub1",
		verifier.Sign(result.Order.OrderID, "pay_sub1"))
	require.NoError(t, err)

	assert.Equal(t, models.SubscriptionStatusActive, sub.Status)
	assert.Equal(t, models.PaymentStatusPaid, sub.PaymentStatus)
	assert.True(t, sub.AutoRenew)

	// 激活周期固定为1个月，与购买月数无关
	require.NotNil(t, sub.EndDate)
	expected := time.Now().AddDate(0, 1, 0)
	assert.WithinDuration(t, expected, *sub.EndDate, time.Minute)

	var freshCanteen models.Canteen
	require.NoError(t, db.First(&freshCanteen, canteen.ID).Error)
	assert.Equal(t, 1, freshCanteen.SubscriberCount)
}

func TestVerifyPayment_IsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	verifier := newTestVerifier()
	svc := NewSubscriptionService(db, verifier, NewNotifyService(db, nil))

	provider := createUser(t, db, "provider", models.RoleProvider)
	tenant := createUser(t, db, "tenant", models.RoleTenant)
	canteen := newCanteenWithPlan(t, db, provider.ID, models.PlanLunch, 200)

	result, err := svc.CreateOrder(tenant.ID, &CreateOrderRequest{
		CanteenID:      canteen.ID,
		Plan:           models.PlanLunch,
		DurationMonths: 1,
	})
	require.NoError(t, err)

	signature := verifier.Sign(result.Order.OrderID, "pay_sub1")
	_, err = svc.VerifyPayment(tenant.ID, result.Order.OrderID, "pay_sub1", signature)
	require.NoError(t, err)
	_, err = svc.VerifyPayment(tenant.ID, result.Order.OrderID, "pay_sub1", signature)
	require.NoError(t, err)

	// 重复回调不重复累计订阅人数
	var freshCanteen models.Canteen
	require.NoError(t, db.First(&freshCanteen, canteen.ID).Error)
	assert.Equal(t, 1, freshCanteen.SubscriberCount)
}

func TestVerifyPayment_RejectsBadSignatureAndWrongTenant(t *testing.T) {
	db := setupTestDB(t)
	verifier := newTestVerifier()
	svc := NewSubscriptionService(db, verifier, NewNotifyService(db, nil))

	provider := createUser(t, db, "provider", models.RoleProvider)
	tenant := createUser(t, db, "tenant", models.RoleTenant)
	other := createUser(t, db, "other", models.RoleTenant)
	canteen := newCanteenWithPlan(t, db, provider.ID, models.PlanLunch, 200)

	result, err := svc.CreateOrder(tenant.ID, &CreateOrderRequest{
		CanteenID:      canteen.ID,
		Plan:           models.PlanLunch,
		DurationMonths: 1,
	})
	require.NoError(t, err)

	_, err = svc.VerifyPayment(tenant.ID, result.Order.OrderID, "pay_sub1", "bogus")
	assert.ErrorIs(t, err, ErrInvalidPaymentSignature)

	_, err = svc.VerifyPayment(other.ID, result.Order.OrderID, "pay_sub1",
		verifier.Sign(result.Order.OrderID, "pay_sub1"))
	assert.ErrorIs(t, err, ErrNotSubscriptionOwner)

	// 两次失败都不激活订阅
	var fresh models.Subscription
	require.NoError(t, db.First(&fresh, result.Subscription.ID).Error)
	assert.Equal(t, models.SubscriptionStatusPaused, fresh.Status)
}

func TestVerifyPayment_RejectsCancelledSubscription(t *testing.T) {
	db := setupTestDB(t)
	verifier := newTestVerifier()
	svc := NewSubscriptionService(db, verifier, NewNotifyService(db, nil))

	provider := createUser(t, db, "provider", models.RoleProvider)
	tenant := createUser(t, db, "tenant", models.RoleTenant)
	canteen := newCanteenWithPlan(t, db, provider.ID, models.PlanLunch, 200)

	result, err := svc.CreateOrder(tenant.ID, &CreateOrderRequest{
		CanteenID:      canteen.ID,
		Plan:           models.PlanLunch,
		DurationMonths: 1,
	})
	require.NoError(t, err)

	_, err = svc.Cancel(tenant.ID, result.Subscription.ID)
	require.NoError(t, err)

	_, err = svc.VerifyPayment(tenant.ID, result.Order.OrderID, "pay_sub1",
		verifier.Sign(result.Order.OrderID, "pay_sub1"))
	assert.ErrorIs(t, err, ErrSubscriptionClosed)
}

func TestCancel_DecrementsSubscriberCountOnce(t *testing.T) {
	db := setupTestDB(t)
	verifier := newTestVerifier()
	svc := NewSubscriptionService(db, verifier, NewNotifyService(db, nil))

	provider := createUser(t, db, "provider", models.RoleProvider)
	tenant := createUser(t, db, "tenant", models.RoleTenant)
	canteen := newCanteenWithPlan(t, db, provider.ID, models.PlanDinner, 250)

	result, err := svc.CreateOrder(tenant.ID, &CreateOrderRequest{
		CanteenID:      canteen.ID,
		Plan:           models.PlanDinner,
		DurationMonths: 2,
	})
	require.NoError(t, err)

	_, err = svc.VerifyPayment(tenant.ID, result.Order.OrderID, "pay_sub1",
		verifier.Sign(result.Order.OrderID, "pay_sub1"))
	require.NoError(t, err)

	sub, err := svc.Cancel(tenant.ID, result.Subscription.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusCancelled, sub.Status)
	require.NotNil(t, sub.CancelledAt)

	// 重复取消幂等
	_, err = svc.Cancel(tenant.ID, result.Subscription.ID)
	require.NoError(t, err)

	var freshCanteen models.Canteen
	require.NoError(t, db.First(&freshCanteen, canteen.ID).Error)
	assert.Equal(t, 0, freshCanteen.SubscriberCount)
}

func TestPauseAndResume(t *testing.T) {
	db := setupTestDB(t)
	verifier := newTestVerifier()
	svc := NewSubscriptionService(db, verifier, NewNotifyService(db, nil))

	provider := createUser(t, db, "provider", models.RoleProvider)
	tenant := createUser(t, db, "tenant", models.RoleTenant)
	other := createUser(t, db, "other", models.RoleTenant)
	canteen := newCanteenWithPlan(t, db, provider.ID, models.PlanBreakfast, 150)

	result, err := svc.CreateOrder(tenant.ID, &CreateOrderRequest{
		CanteenID:      canteen.ID,
		Plan:           models.PlanBreakfast,
		DurationMonths: 1,
	})
	require.NoError(t, err)

	// 未激活不能暂停
	_, err = svc.Pause(tenant.ID, result.Subscription.ID)
	assert.ErrorIs(t, err, ErrSubscriptionNotActive)

	_, err = svc.VerifyPayment(tenant.ID, result.Order.OrderID, "pay_sub1",
		verifier.Sign(result.Order.OrderID, "pay_sub1"))
	require.NoError(t, err)

	// 非本人不能操作
	_, err = svc.Pause(other.ID, result.Subscription.ID)
	assert.ErrorIs(t, err, ErrNotSubscriptionOwner)

	paused, err := svc.Pause(tenant.ID, result.Subscription.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusPaused, paused.Status)
	assert.False(t, paused.AutoRenew)

	resumed, err := svc.Resume(tenant.ID, result.Subscription.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionStatusActive, resumed.Status)
	assert.True(t, resumed.AutoRenew)

	// 已激活的不能再恢复
	_, err = svc.Resume(tenant.ID, result.Subscription.ID)
	assert.ErrorIs(t, err, ErrSubscriptionNotPaused)
}
