package handlers

import (
	"errors"
	"strconv"

	"stayhub/internal/middleware"
	"stayhub/internal/services"
	"stayhub/pkg/pagination"
	"stayhub/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// NotificationHandler 站内通知处理器
type NotificationHandler struct {
	notifyService *services.NotifyService
}

// NewNotificationHandler 创建通知处理器
func NewNotificationHandler(notifyService *services.NotifyService) *NotificationHandler {
	return &NotificationHandler{notifyService: notifyService}
}

// GetAll 我的通知列表
func (h *NotificationHandler) GetAll(c *gin.Context) {
	pageParams := pagination.ParsePageParams(c)

	notifications, total, err := h.notifyService.GetByRecipientWithPage(
		middleware.GetUserID(c), pageParams.Page, pageParams.PageSize)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, notifications, pageInfo)
}

// MarkRead 标记已读
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	notification, err := h.notifyService.MarkRead(middleware.GetUserID(c), uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "通知不存在")
			return
		}
		response.ServerError(c, "操作失败")
		return
	}

	response.Success(c, notification)
}

// UnreadCount 未读数
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	count, err := h.notifyService.UnreadCount(middleware.GetUserID(c))
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	response.Success(c, gin.H{"unread": count})
}
