package services

import (
	"fmt"
	"strings"
	"time"

	"stayhub/internal/models"
	"stayhub/pkg/logger"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ContractService 合同服务（双签状态机与查询）
type ContractService struct {
	db       *gorm.DB
	notifier *NotifyService
	log      *logrus.Logger
}

// NewContractService 创建合同服务
func NewContractService(db *gorm.DB, notifier *NotifyService) *ContractService {
	return &ContractService{
		db:       db,
		notifier: notifier,
		log:      logger.GetLogger(),
	}
}

// CreateDraftRequest 创建草拟合同参数（房东线下谈妥后发起）
type CreateDraftRequest struct {
	TenantID        uint       `json:"tenant_id" binding:"required"`
	RoomID          uint       `json:"room_id" binding:"required"`
	MonthlyRent     int64      `json:"monthly_rent" binding:"required,min=1"`
	SecurityDeposit int64      `json:"security_deposit" binding:"min=0"`
	StartDate       time.Time  `json:"start_date" binding:"required"`
	EndDate         *time.Time `json:"end_date"`
}

// CreateDraft 房东发起草拟合同
func (s *ContractService) CreateDraft(ownerID uint, req *CreateDraftRequest) (*models.Contract, error) {
	var room models.Room
	if err := s.db.Preload("Hostel").First(&room, req.RoomID).Error; err != nil {
		return nil, err
	}
	if room.Hostel == nil || room.Hostel.OwnerID != ownerID {
		return nil, ErrNotHostelOwner
	}
	if !room.HasVacancy() {
		return nil, ErrRoomUnavailable
	}

	contract := &models.Contract{
		ContractNo:      "CT-" + strings.ToUpper(uuid.New().String()[:8]),
		TenantID:        req.TenantID,
		OwnerID:         ownerID,
		RoomID:          room.ID,
		HostelID:        room.HostelID,
		MonthlyRent:     req.MonthlyRent,
		SecurityDeposit: req.SecurityDeposit,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		Status:          models.ContractStatusDraft,
		PaymentStatus:   models.PaymentStatusPending,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// 同一租客同时最多一份进行中的合同（事务内锁租客行复查）
		if err := ensureNoLiveContractTx(tx, req.TenantID); err != nil {
			return err
		}
		return tx.Create(contract).Error
	})
	if err != nil {
		return nil, err
	}
	return contract, nil
}

// SubmitForSignatures 草拟合同进入待签署状态
func (s *ContractService) SubmitForSignatures(ownerID, contractID uint) (*models.Contract, error) {
	var contract models.Contract
	if err := s.db.First(&contract, contractID).Error; err != nil {
		return nil, err
	}
	if contract.OwnerID != ownerID {
		return nil, ErrNotContractOwner
	}
	if contract.Status != models.ContractStatusDraft {
		return nil, fmt.Errorf("只有草拟状态的合同才能发起签署")
	}

	contract.Status = models.ContractStatusPendingSignatures
	err := s.db.Save(&contract).Error
	return &contract, err
}

// Sign 记录签署
// 签署人必须是合同的租客或房东；双签且已支付后合同在同一事务内激活并占用房间
func (s *ContractService) Sign(contractID, userID uint, origin string) (*models.Contract, error) {
	var contract models.Contract
	var activated bool

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).
			First(&contract, contractID).Error; err != nil {
			return err
		}

		if contract.IsTerminal() {
			return ErrContractClosed
		}
		if contract.Status == models.ContractStatusActive {
			return ErrContractAlreadyActive
		}

		switch userID {
		case contract.TenantID:
			contract.SignTenant(origin)
		case contract.OwnerID:
			contract.SignOwner(origin)
		default:
			return ErrNotAuthorizedToSign
		}

		if contract.Status == models.ContractStatusDraft {
			contract.Status = models.ContractStatusPendingSignatures
		}

		// 双签+已支付 -> 激活（房间占用与合同状态同一事务）
		if contract.CanActivate() {
			activated = true
			return activateContractTx(tx, &contract)
		}

		return tx.Save(&contract).Error
	})
	if err != nil {
		return nil, err
	}

	if activated {
		s.notifier.Send(contract.TenantID, models.NotifyKindContractApproved,
			"租约生效",
			fmt.Sprintf("合同 %s 双方签署完成，租约生效", contract.ContractNo),
			map[string]interface{}{"contract_id": contract.ID})
	} else {
		// 通知对方补签
		other := contract.TenantID
		if userID == contract.TenantID {
			other = contract.OwnerID
		}
		s.notifier.Send(other, models.NotifyKindContractSigned,
			"合同待签署",
			fmt.Sprintf("合同 %s 已有一方签署，等待您确认", contract.ContractNo),
			map[string]interface{}{"contract_id": contract.ID})
	}

	return &contract, nil
}

// GetByIDForUser 获取合同详情（仅当事人或管理员可见）
func (s *ContractService) GetByIDForUser(contractID, userID uint) (*models.Contract, error) {
	var contract models.Contract
	err := s.db.Preload("Room").Preload("Hostel").First(&contract, contractID).Error
	if err != nil {
		return nil, err
	}

	if contract.TenantID != userID && contract.OwnerID != userID {
		var user models.User
		if err := s.db.Select("role").First(&user, userID).Error; err != nil || !user.IsAdmin() {
			return nil, ErrNotAuthorizedToSign
		}
	}

	return &contract, nil
}

// GetByTenantWithPage 租客的合同列表（分页）
func (s *ContractService) GetByTenantWithPage(tenantID uint, status string, page, pageSize int) ([]*models.Contract, int64, error) {
	return s.getWithPage(s.db.Where("tenant_id = ?", tenantID), status, page, pageSize)
}

// GetByOwnerWithPage 房东的合同列表（分页）
func (s *ContractService) GetByOwnerWithPage(ownerID uint, status string, page, pageSize int) ([]*models.Contract, int64, error) {
	return s.getWithPage(s.db.Where("owner_id = ?", ownerID), status, page, pageSize)
}

func (s *ContractService) getWithPage(query *gorm.DB, status string, page, pageSize int) ([]*models.Contract, int64, error) {
	var contracts []*models.Contract
	var total int64

	query = query.Model(&models.Contract{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Preload("Room").Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&contracts).Error
	if err != nil {
		return nil, 0, err
	}

	return contracts, total, nil
}
