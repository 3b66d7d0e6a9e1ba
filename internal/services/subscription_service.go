package services

import (
	"encoding/json"
	"fmt"

	"stayhub/internal/models"
	"stayhub/pkg/logger"
	"stayhub/pkg/payment"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SubscriptionService 餐饮订阅服务
type SubscriptionService struct {
	db       *gorm.DB
	verifier *payment.Verifier
	notifier *NotifyService
	log      *logrus.Logger
}

// NewSubscriptionService 创建订阅服务
func NewSubscriptionService(db *gorm.DB, verifier *payment.Verifier, notifier *NotifyService) *SubscriptionService {
	return &SubscriptionService{
		db:       db,
		verifier: verifier,
		notifier: notifier,
		log:      logger.GetLogger(),
	}
}

// CreateOrderRequest 创建订阅订单参数
type CreateOrderRequest struct {
	CanteenID      uint   `json:"canteen_id" binding:"required"`
	Plan           string `json:"plan" binding:"required"`
	DurationMonths int    `json:"duration_months" binding:"required,min=1,max=12"`
}

// CreateOrderResult 创建订阅订单结果
type CreateOrderResult struct {
	Subscription *models.Subscription `json:"subscription"`
	Order        *payment.Order       `json:"order"`
}

// CreateOrder 创建订阅并开启支付订单
// 总价 = 套餐月价 × 购买月数；订阅先落库为paused，支付确认后激活
func (s *SubscriptionService) CreateOrder(tenantID uint, req *CreateOrderRequest) (*CreateOrderResult, error) {
	if !models.IsValidPlan(req.Plan) {
		return nil, ErrInvalidSubscriptionPlan
	}

	var canteen models.Canteen
	if err := s.db.First(&canteen, req.CanteenID).Error; err != nil {
		return nil, err
	}
	if !canteen.IsActive {
		return nil, fmt.Errorf("食堂已停业")
	}

	var plan models.CanteenPlan
	err := s.db.Where("canteen_id = ? AND plan = ? AND is_active = ?", req.CanteenID, req.Plan, true).
		First(&plan).Error
	if err != nil {
		return nil, fmt.Errorf("该食堂未提供此套餐")
	}

	subscription := &models.Subscription{
		TenantID:       tenantID,
		CanteenID:      req.CanteenID,
		Plan:           req.Plan,
		FoodType:       plan.FoodType,
		MonthlyPrice:   plan.MonthlyPrice,
		DurationMonths: req.DurationMonths,
		TotalAmount:    plan.MonthlyPrice * int64(req.DurationMonths),
		Status:         models.SubscriptionStatusPaused,
		PaymentStatus:  models.PaymentStatusPending,
	}

	order := s.verifier.NewOrder(subscription.TotalAmount*100, models.PaymentPurposeSubscription)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(subscription).Error; err != nil {
			return err
		}

		record := &models.PaymentOrder{
			UserID:   tenantID,
			OrderID:  order.OrderID,
			Receipt:  order.Receipt,
			Amount:   order.Amount,
			Currency: order.Currency,
			Purpose:  models.PaymentPurposeSubscription,
			RefID:    &subscription.ID,
			Status:   models.PaymentOrderStatusCreated,
		}
		return tx.Create(record).Error
	})
	if err != nil {
		return nil, err
	}

	return &CreateOrderResult{Subscription: subscription, Order: order}, nil
}

// VerifyPayment 网关回调/前端确认后校验签名并激活订阅
// 幂等：同一订单重复确认直接返回已激活的订阅
func (s *SubscriptionService) VerifyPayment(tenantID uint, orderID, paymentID, signature string) (*models.Subscription, error) {
	if !s.verifier.Verify(orderID, paymentID, signature) {
		return nil, ErrInvalidPaymentSignature
	}

	var subscription models.Subscription

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var order models.PaymentOrder
		if err := lockForUpdate(tx).
			Where("order_id = ? AND purpose = ?", orderID, models.PaymentPurposeSubscription).
			First(&order).Error; err != nil {
			return err
		}
		if order.UserID != tenantID {
			return ErrNotSubscriptionOwner
		}
		if order.RefID == nil {
			return fmt.Errorf("订单未关联订阅")
		}

		if err := lockForUpdate(tx).
			First(&subscription, *order.RefID).Error; err != nil {
			return err
		}

		// 重复回调：订单已支付则不再变更任何状态
		if order.Status == models.PaymentOrderStatusPaid {
			return nil
		}
		if subscription.Status == models.SubscriptionStatusCancelled {
			return ErrSubscriptionClosed
		}

		// 激活周期固定为1个月，与购买月数无关（沿用线上行为）
		subscription.Activate()
		if err := tx.Save(&subscription).Error; err != nil {
			return err
		}

		order.MarkPaid(paymentID)
		if meta, err := json.Marshal(map[string]string{"payment_id": paymentID, "signature": signature}); err == nil {
			order.Metadata = meta
		}
		if err := tx.Save(&order).Error; err != nil {
			return err
		}

		// 订阅人数与激活同一事务更新
		var canteen models.Canteen
		if err := lockForUpdate(tx).
			First(&canteen, subscription.CanteenID).Error; err != nil {
			return err
		}
		canteen.SubscriberCount++
		return tx.Save(&canteen).Error
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Send(tenantID, models.NotifyKindSubscriptionActive,
		"订阅已生效",
		fmt.Sprintf("套餐 %s 订阅已生效", subscription.Plan),
		map[string]interface{}{"subscription_id": subscription.ID})

	return &subscription, nil
}

// Cancel 取消订阅
// 幂等：重复取消不重复扣减订阅人数
func (s *SubscriptionService) Cancel(tenantID, subscriptionID uint) (*models.Subscription, error) {
	var subscription models.Subscription

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).
			First(&subscription, subscriptionID).Error; err != nil {
			return err
		}
		if subscription.TenantID != tenantID {
			return ErrNotSubscriptionOwner
		}

		// 幂等保护
		if subscription.Status == models.SubscriptionStatusCancelled {
			return nil
		}

		wasCounted := subscription.CountsAsSubscriber()
		subscription.Cancel()
		if err := tx.Save(&subscription).Error; err != nil {
			return err
		}

		if !wasCounted {
			return nil
		}

		var canteen models.Canteen
		if err := lockForUpdate(tx).
			First(&canteen, subscription.CanteenID).Error; err != nil {
			return err
		}
		canteen.DecSubscriberCount()
		return tx.Save(&canteen).Error
	})
	if err != nil {
		return nil, err
	}

	return &subscription, nil
}

// Pause 暂停订阅（停止自动续费，周期到期后过期）
func (s *SubscriptionService) Pause(tenantID, subscriptionID uint) (*models.Subscription, error) {
	var subscription models.Subscription
	if err := s.db.First(&subscription, subscriptionID).Error; err != nil {
		return nil, err
	}
	if subscription.TenantID != tenantID {
		return nil, ErrNotSubscriptionOwner
	}
	if !subscription.IsActive() {
		return nil, ErrSubscriptionNotActive
	}

	subscription.Status = models.SubscriptionStatusPaused
	subscription.AutoRenew = false
	err := s.db.Save(&subscription).Error
	return &subscription, err
}

// Resume 恢复已暂停的订阅
func (s *SubscriptionService) Resume(tenantID, subscriptionID uint) (*models.Subscription, error) {
	var subscription models.Subscription
	if err := s.db.First(&subscription, subscriptionID).Error; err != nil {
		return nil, err
	}
	if subscription.TenantID != tenantID {
		return nil, ErrNotSubscriptionOwner
	}
	if subscription.Status != models.SubscriptionStatusPaused {
		return nil, ErrSubscriptionNotPaused
	}
	if subscription.PaymentStatus != models.PaymentStatusPaid {
		return nil, fmt.Errorf("订阅未完成支付")
	}

	subscription.Status = models.SubscriptionStatusActive
	subscription.AutoRenew = true
	err := s.db.Save(&subscription).Error
	return &subscription, err
}

// GetByTenantWithPage 租客的订阅列表（分页）
func (s *SubscriptionService) GetByTenantWithPage(tenantID uint, status string, page, pageSize int) ([]*models.Subscription, int64, error) {
	var subscriptions []*models.Subscription
	var total int64

	query := s.db.Model(&models.Subscription{}).Where("tenant_id = ?", tenantID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Preload("Canteen").Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&subscriptions).Error
	if err != nil {
		return nil, 0, err
	}

	return subscriptions, total, nil
}
