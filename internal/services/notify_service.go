package services

import (
	"encoding/json"

	"stayhub/internal/models"
	"stayhub/pkg/logger"
	"stayhub/pkg/queue"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// NotifyService 通知服务
// 发送是尽力而为：入队/落库失败只记录日志，不阻塞业务流程
type NotifyService struct {
	db    *gorm.DB
	queue *queue.RedisQueue
	log   *logrus.Logger
}

// NewNotifyService 创建通知服务（queue可为nil，此时只落库）
func NewNotifyService(db *gorm.DB, q *queue.RedisQueue) *NotifyService {
	return &NotifyService{
		db:    db,
		queue: q,
		log:   logger.GetLogger(),
	}
}

// Send 发送通知：站内落库 + 队列投递
func (s *NotifyService) Send(recipientID uint, kind, title, body string, params map[string]interface{}) {
	notification := &models.Notification{
		RecipientID: recipientID,
		Kind:        kind,
		Title:       title,
		Body:        body,
	}

	if params != nil {
		if data, err := json.Marshal(params); err == nil {
			notification.Payload = data
		}
	}

	if err := s.db.Create(notification).Error; err != nil {
		s.log.Errorf("通知落库失败 (recipient=%d, kind=%s): %v", recipientID, kind, err)
	}

	if s.queue == nil {
		return
	}
	if err := s.queue.Enqueue(recipientID, kind, title, body, params); err != nil {
		s.log.Errorf("通知入队失败 (recipient=%d, kind=%s): %v", recipientID, kind, err)
	}
}

// GetByRecipientWithPage 收件箱列表（分页）
func (s *NotifyService) GetByRecipientWithPage(recipientID uint, page, pageSize int) ([]*models.Notification, int64, error) {
	var notifications []*models.Notification
	var total int64

	query := s.db.Model(&models.Notification{}).Where("recipient_id = ?", recipientID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&notifications).Error
	if err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

// MarkRead 标记已读（只能操作自己的通知）
func (s *NotifyService) MarkRead(recipientID, notificationID uint) (*models.Notification, error) {
	var notification models.Notification
	err := s.db.Where("id = ? AND recipient_id = ?", notificationID, recipientID).First(&notification).Error
	if err != nil {
		return nil, err
	}

	if notification.IsRead() {
		return &notification, nil
	}

	notification.MarkRead()
	err = s.db.Save(&notification).Error
	return &notification, err
}

// UnreadCount 未读数量
func (s *NotifyService) UnreadCount(recipientID uint) (int64, error) {
	var count int64
	err := s.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND read_at IS NULL", recipientID).
		Count(&count).Error
	return count, err
}
