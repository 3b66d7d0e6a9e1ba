package services

import (
	"fmt"
	"time"

	"stayhub/internal/models"
	"stayhub/pkg/config"
	"stayhub/pkg/logger"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// ExpiryScheduler 到期扫描调度器
// 周期性把过了结束日期的合同/订阅落到expired终态；自动续费的订阅顺延一个周期
type ExpiryScheduler struct {
	db       *gorm.DB
	notifier *NotifyService
	cron     *cron.Cron
	running  bool
}

// NewExpiryScheduler 创建到期扫描调度器
func NewExpiryScheduler(db *gorm.DB, notifier *NotifyService) *ExpiryScheduler {
	return &ExpiryScheduler{
		db:       db,
		notifier: notifier,
		cron:     cron.New(),
	}
}

// Start 启动调度器
func (s *ExpiryScheduler) Start() error {
	if s.running {
		return fmt.Errorf("调度器已经在运行")
	}

	cfg := config.GetConfig()
	if _, err := s.cron.AddFunc(cfg.Sweep.Cron, s.Sweep); err != nil {
		return fmt.Errorf("添加到期扫描任务失败: %v", err)
	}

	s.cron.Start()
	s.running = true

	logger.GetLogger().Infof("到期扫描调度器启动成功 (cron: %s)", cfg.Sweep.Cron)
	return nil
}

// Stop 停止调度器
func (s *ExpiryScheduler) Stop() {
	if !s.running {
		return
	}

	logger.GetLogger().Info("停止到期扫描调度器")
	s.cron.Stop()
	s.running = false
}

// Sweep 执行一轮扫描
func (s *ExpiryScheduler) Sweep() {
	s.SweepContracts()
	s.SweepSubscriptions()
}

// SweepContracts 把结束日期已过的生效合同落为expired
// 过期不释放房间：住户实际退房由房东走终止流程，计数才会回加
func (s *ExpiryScheduler) SweepContracts() {
	log := logger.GetLogger()

	var contracts []models.Contract
	err := s.db.Where("status = ? AND end_date IS NOT NULL AND end_date < ?",
		models.ContractStatusActive, time.Now()).Find(&contracts).Error
	if err != nil {
		log.Errorf("扫描到期合同失败: %v", err)
		return
	}

	for _, contract := range contracts {
		err := s.db.Transaction(func(tx *gorm.DB) error {
			var fresh models.Contract
			if err := lockForUpdate(tx).
				First(&fresh, contract.ID).Error; err != nil {
				return err
			}
			// 扫描间隙内状态可能已被其他操作改变
			if fresh.Status != models.ContractStatusActive {
				return nil
			}
			fresh.Status = models.ContractStatusExpired
			return tx.Save(&fresh).Error
		})
		if err != nil {
			log.Errorf("合同 %s 过期处理失败: %v", contract.ContractNo, err)
			continue
		}

		s.notifier.Send(contract.TenantID, models.NotifyKindContractExpired,
			"租约已到期",
			fmt.Sprintf("合同 %s 已到期", contract.ContractNo),
			map[string]interface{}{"contract_id": contract.ID})
	}

	if len(contracts) > 0 {
		log.Infof("合同到期扫描完成，处理 %d 份", len(contracts))
	}
}

// SweepSubscriptions 处理周期已过的订阅：自动续费顺延一个月，否则过期并扣减订阅人数
func (s *ExpiryScheduler) SweepSubscriptions() {
	log := logger.GetLogger()

	var subscriptions []models.Subscription
	err := s.db.Where("status IN ? AND end_date IS NOT NULL AND end_date < ?",
		[]string{models.SubscriptionStatusActive, models.SubscriptionStatusPaused},
		time.Now()).Find(&subscriptions).Error
	if err != nil {
		log.Errorf("扫描到期订阅失败: %v", err)
		return
	}

	for _, subscription := range subscriptions {
		var expired bool
		err := s.db.Transaction(func(tx *gorm.DB) error {
			var fresh models.Subscription
			if err := lockForUpdate(tx).
				First(&fresh, subscription.ID).Error; err != nil {
				return err
			}
			if fresh.EndDate == nil || fresh.EndDate.After(time.Now()) {
				return nil
			}

			// 自动续费：周期顺延一个月
			if fresh.Status == models.SubscriptionStatusActive && fresh.AutoRenew {
				end := fresh.EndDate.AddDate(0, 1, 0)
				fresh.EndDate = &end
				return tx.Save(&fresh).Error
			}

			wasCounted := fresh.CountsAsSubscriber()
			fresh.Status = models.SubscriptionStatusExpired
			fresh.AutoRenew = false
			if err := tx.Save(&fresh).Error; err != nil {
				return err
			}
			expired = true

			if !wasCounted {
				return nil
			}
			var canteen models.Canteen
			if err := lockForUpdate(tx).
				First(&canteen, fresh.CanteenID).Error; err != nil {
				return err
			}
			canteen.DecSubscriberCount()
			return tx.Save(&canteen).Error
		})
		if err != nil {
			log.Errorf("订阅 %d 到期处理失败: %v", subscription.ID, err)
			continue
		}

		if expired {
			s.notifier.Send(subscription.TenantID, models.NotifyKindSubscriptionEnded,
				"订阅已到期",
				fmt.Sprintf("套餐 %s 订阅已到期", subscription.Plan),
				map[string]interface{}{"subscription_id": subscription.ID})
		}
	}
}
