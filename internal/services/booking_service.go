package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"stayhub/internal/models"
	"stayhub/pkg/logger"
	"stayhub/pkg/payment"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MinBookingDuration 最短租期
const MinBookingDuration = 30 * 24 * time.Hour

// BookingService 预订编排服务
// 多实体状态变更（合同/房间/宿舍计数）全部在单个事务内完成，
// 房间行加排它锁后复查空位，并发审批最后一个空位时只有一个能成功
type BookingService struct {
	db       *gorm.DB
	verifier *payment.Verifier
	notifier *NotifyService
	log      *logrus.Logger
}

// NewBookingService 创建预订编排服务
func NewBookingService(db *gorm.DB, verifier *payment.Verifier, notifier *NotifyService) *BookingService {
	return &BookingService{
		db:       db,
		verifier: verifier,
		notifier: notifier,
		log:      logger.GetLogger(),
	}
}

// CreateBookingOrder 创建预订支付订单（首月租金+押金）
func (s *BookingService) CreateBookingOrder(tenantID, roomID uint) (*payment.Order, error) {
	var room models.Room
	if err := s.db.First(&room, roomID).Error; err != nil {
		return nil, err
	}
	if !room.HasVacancy() {
		return nil, ErrRoomUnavailable
	}

	// 金额单位为分
	amount := (room.MonthlyRent + room.Deposit) * 100
	order := s.verifier.NewOrder(amount, models.PaymentPurposeBooking)

	record := &models.PaymentOrder{
		UserID:   tenantID,
		OrderID:  order.OrderID,
		Receipt:  order.Receipt,
		Amount:   order.Amount,
		Currency: order.Currency,
		Purpose:  models.PaymentPurposeBooking,
		Status:   models.PaymentOrderStatusCreated,
	}
	if err := s.db.Create(record).Error; err != nil {
		return nil, err
	}

	return order, nil
}

// BookRoomRequest 预订参数
type BookRoomRequest struct {
	RoomID    uint       `json:"room_id" binding:"required"`
	HostelID  uint       `json:"hostel_id" binding:"required"`
	StartDate time.Time  `json:"start_date" binding:"required"`
	EndDate   *time.Time `json:"end_date"`
	OrderID   string     `json:"order_id" binding:"required"`
	PaymentID string     `json:"payment_id" binding:"required"`
	Signature string     `json:"signature" binding:"required"`
	Origin    string     `json:"-"` // 请求来源IP，处理器填充
}

// BookRoom 租客自助预订
// 校验顺序：租期 -> 房间可用 -> 支付签名 -> 无进行中租约（事务内锁租客行复查）
// 成功后合同进入pending_signatures（租客已签、已支付），房间状态不变更，等待房东审批
func (s *BookingService) BookRoom(tenantID uint, req *BookRoomRequest) (*models.Contract, error) {
	// 租期下限30天（不填结束日期视为长租）
	if req.EndDate != nil && req.EndDate.Sub(req.StartDate) < MinBookingDuration {
		return nil, ErrDurationTooShort
	}

	var room models.Room
	if err := s.db.Preload("Hostel").First(&room, req.RoomID).Error; err != nil {
		return nil, err
	}
	if room.HostelID != req.HostelID {
		return nil, fmt.Errorf("房间不属于该宿舍")
	}
	if room.Hostel == nil || !room.Hostel.IsActive {
		return nil, ErrRoomUnavailable
	}
	if !room.HasVacancy() {
		return nil, ErrRoomUnavailable
	}

	// 支付签名校验（失败即拒绝，不落任何数据）
	if !s.verifier.Verify(req.OrderID, req.PaymentID, req.Signature) {
		return nil, ErrInvalidPaymentSignature
	}

	contract := &models.Contract{
		ContractNo:      "CT-" + strings.ToUpper(uuid.New().String()[:8]),
		TenantID:        tenantID,
		OwnerID:         room.Hostel.OwnerID,
		RoomID:          room.ID,
		HostelID:        room.HostelID,
		MonthlyRent:     room.MonthlyRent,
		SecurityDeposit: room.Deposit,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		Status:          models.ContractStatusPendingSignatures,
		PaymentStatus:   models.PaymentStatusPaid,
	}
	contract.SignTenant(req.Origin)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// 同一租客同时最多一份进行中的合同
		// 先锁租客行再计数，串行化同一租客的并发预订
		if err := ensureNoLiveContractTx(tx, tenantID); err != nil {
			return err
		}

		if err := tx.Create(contract).Error; err != nil {
			return err
		}

		// 关联支付订单（订单可能由网关直接回调，未落库时跳过）
		var order models.PaymentOrder
		if err := tx.Where("order_id = ? AND user_id = ?", req.OrderID, tenantID).First(&order).Error; err == nil {
			order.MarkPaid(req.PaymentID)
			order.RefID = &contract.ID
			if meta, err := json.Marshal(map[string]string{"payment_id": req.PaymentID, "signature": req.Signature}); err == nil {
				order.Metadata = meta
			}
			if err := tx.Save(&order).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 通知房东（尽力而为）
	s.notifier.Send(contract.OwnerID, models.NotifyKindBookingCreated,
		"新的预订申请",
		fmt.Sprintf("房间 %s 收到新的预订申请，合同号 %s", room.Number, contract.ContractNo),
		map[string]interface{}{"contract_id": contract.ID, "room_id": room.ID})

	return contract, nil
}

// Approve 房东审批：房东补签后激活合同并占用房间
// 这是房间状态与合同状态保持一致的唯一入口，必须原子执行
func (s *BookingService) Approve(contractID, actorID uint, origin string) (*models.Contract, error) {
	var contract models.Contract

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).
			First(&contract, contractID).Error; err != nil {
			return err
		}

		if err := s.authorizeOwner(tx, &contract, actorID); err != nil {
			return err
		}

		if contract.Status == models.ContractStatusActive {
			return ErrContractAlreadyActive
		}
		if contract.IsTerminal() {
			return ErrContractClosed
		}

		if !contract.OwnerSignature.Signed {
			contract.SignOwner(origin)
		}
		if !contract.CanActivate() {
			return ErrContractNotPayable
		}

		return activateContractTx(tx, &contract)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Send(contract.TenantID, models.NotifyKindContractApproved,
		"预订已通过",
		fmt.Sprintf("合同 %s 已由房东确认，租约生效", contract.ContractNo),
		map[string]interface{}{"contract_id": contract.ID})

	return &contract, nil
}

// Terminate 终止租约并释放房间
// 幂等：已终止的合同重复调用不改变任何计数
func (s *BookingService) Terminate(contractID, actorID uint, reason string) (*models.Contract, error) {
	var contract models.Contract
	var alreadyClosed bool

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).
			First(&contract, contractID).Error; err != nil {
			return err
		}

		if err := s.authorizeOwner(tx, &contract, actorID); err != nil {
			return err
		}

		// 幂等保护：只有首次终止才动房间和计数
		if contract.Status == models.ContractStatusTerminated {
			alreadyClosed = true
			return nil
		}

		heldRoom := contract.HoldsRoom()
		contract.Terminate(actorID, reason)
		if err := tx.Save(&contract).Error; err != nil {
			return err
		}

		if !heldRoom {
			return nil
		}
		return releaseRoomTx(tx, &contract)
	})
	if err != nil {
		return nil, err
	}

	if !alreadyClosed {
		s.notifier.Send(contract.TenantID, models.NotifyKindContractTerminated,
			"租约已终止",
			fmt.Sprintf("合同 %s 已被终止：%s", contract.ContractNo, reason),
			map[string]interface{}{"contract_id": contract.ID})
	}

	return &contract, nil
}

// authorizeOwner 校验操作人是合同房东或平台管理员
func (s *BookingService) authorizeOwner(tx *gorm.DB, contract *models.Contract, actorID uint) error {
	if contract.OwnerID == actorID {
		return nil
	}
	var actor models.User
	if err := tx.Select("role").First(&actor, actorID).Error; err != nil {
		return err
	}
	if actor.IsAdmin() {
		return nil
	}
	return ErrNotContractOwner
}

// ensureNoLiveContractTx 事务内校验租客没有进行中的合同
// 先对租客行加排它锁，让同一租客的并发建约在此串行，计数复查才可靠
func ensureNoLiveContractTx(tx *gorm.DB, tenantID uint) error {
	var tenant models.User
	if err := lockForUpdate(tx).First(&tenant, tenantID).Error; err != nil {
		return err
	}

	var liveCount int64
	if err := tx.Model(&models.Contract{}).
		Where("tenant_id = ? AND status IN ?", tenantID, models.LiveContractStatuses).
		Count(&liveCount).Error; err != nil {
		return err
	}
	if liveCount > 0 {
		return ErrDuplicateActiveBooking
	}
	return nil
}

// activateContractTx 激活合同：占用房间、重算入住状态、扣减宿舍可用数
// 调用方须已持有合同行锁，且合同满足激活条件（双签+已支付）
func activateContractTx(tx *gorm.DB, contract *models.Contract) error {
	var room models.Room
	if err := lockForUpdate(tx).
		First(&room, contract.RoomID).Error; err != nil {
		return err
	}

	// 锁内复查空位，并发审批最后一个空位时后到者在此失败
	if !room.HasVacancy() {
		return ErrRoomUnavailable
	}

	// 住户去重后加入
	var occupied int64
	tx.Table("room_occupants").
		Where("room_id = ? AND user_id = ?", room.ID, contract.TenantID).
		Count(&occupied)
	if occupied == 0 {
		var tenant models.User
		if err := tx.First(&tenant, contract.TenantID).Error; err != nil {
			return err
		}
		if err := tx.Model(&room).Association("Occupants").Append(&tenant); err != nil {
			return err
		}
	}

	// 以关联表实际数量为准重算
	var occupantCount int64
	tx.Table("room_occupants").Where("room_id = ?", room.ID).Count(&occupantCount)
	wasAvailable := room.IsAvailable
	room.Recompute(int(occupantCount))
	if err := tx.Save(&room).Error; err != nil {
		return err
	}

	// 房间从可用变为满员时才扣减宿舍计数
	if wasAvailable && !room.IsAvailable {
		var hostel models.Hostel
		if err := lockForUpdate(tx).
			First(&hostel, contract.HostelID).Error; err != nil {
			return err
		}
		hostel.DecAvailableRooms()
		if err := tx.Save(&hostel).Error; err != nil {
			return err
		}
	}

	contract.Status = models.ContractStatusActive
	return tx.Save(contract).Error
}

// releaseRoomTx 释放房间：移除住户、重算入住状态、回加宿舍可用数
func releaseRoomTx(tx *gorm.DB, contract *models.Contract) error {
	var room models.Room
	if err := lockForUpdate(tx).
		First(&room, contract.RoomID).Error; err != nil {
		return err
	}

	if err := tx.Exec("DELETE FROM room_occupants WHERE room_id = ? AND user_id = ?",
		room.ID, contract.TenantID).Error; err != nil {
		return err
	}

	var occupantCount int64
	tx.Table("room_occupants").Where("room_id = ?", room.ID).Count(&occupantCount)
	wasAvailable := room.IsAvailable
	room.Recompute(int(occupantCount))
	if err := tx.Save(&room).Error; err != nil {
		return err
	}

	// 房间从满员恢复可用时才回加宿舍计数
	if !wasAvailable && room.IsAvailable {
		var hostel models.Hostel
		if err := lockForUpdate(tx).
			First(&hostel, contract.HostelID).Error; err != nil {
			return err
		}
		hostel.IncAvailableRooms()
		if err := tx.Save(&hostel).Error; err != nil {
			return err
		}
	}

	return nil
}
