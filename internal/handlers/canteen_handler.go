package handlers

import (
	"errors"
	"strconv"

	"stayhub/internal/middleware"
	"stayhub/internal/models"
	"stayhub/internal/services"
	"stayhub/pkg/pagination"
	"stayhub/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CanteenHandler 食堂与订阅处理器
type CanteenHandler struct {
	canteenService      *services.CanteenService
	subscriptionService *services.SubscriptionService
}

// NewCanteenHandler 创建食堂处理器
func NewCanteenHandler(canteenService *services.CanteenService, subscriptionService *services.SubscriptionService) *CanteenHandler {
	return &CanteenHandler{
		canteenService:      canteenService,
		subscriptionService: subscriptionService,
	}
}

// Create 创建食堂
func (h *CanteenHandler) Create(c *gin.Context) {
	var req services.CreateCanteenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	canteen, err := h.canteenService.CreateCanteen(middleware.GetUserID(c), &req)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			response.BadRequest(c, "同名食堂已存在")
			return
		}
		response.ServerError(c, "创建失败")
		return
	}

	response.Success(c, canteen)
}

// GetAll 食堂列表（公开）
func (h *CanteenHandler) GetAll(c *gin.Context) {
	pageParams := pagination.ParsePageParams(c)

	city := c.Query("city")
	keyword := c.Query("keyword")

	canteens, total, err := h.canteenService.GetCanteensWithPage(city, keyword, pageParams.Page, pageParams.PageSize)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, canteens, pageInfo)
}

// GetByID 食堂详情（含套餐）
func (h *CanteenHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	canteen, err := h.canteenService.GetCanteenByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "食堂不存在")
			return
		}
		response.ServerError(c, "查询失败")
		return
	}

	response.Success(c, canteen)
}

// SetPlan 设置套餐定价
func (h *CanteenHandler) SetPlan(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	var req services.SetPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	plan, err := h.canteenService.SetPlan(middleware.GetUserID(c), uint(id), &req)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			response.NotFound(c, "食堂不存在")
		case errors.Is(err, services.ErrInvalidSubscriptionPlan):
			response.BadRequest(c, err.Error())
		default:
			response.BadRequest(c, err.Error())
		}
		return
	}

	response.Success(c, plan)
}

// CreateSubscriptionOrder 创建订阅订单
func (h *CanteenHandler) CreateSubscriptionOrder(c *gin.Context) {
	var req services.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	result, err := h.subscriptionService.CreateOrder(middleware.GetUserID(c), &req)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			response.NotFound(c, "食堂不存在")
		case errors.Is(err, services.ErrInvalidSubscriptionPlan):
			response.BadRequest(c, err.Error())
		default:
			response.BadRequest(c, err.Error())
		}
		return
	}

	response.Success(c, result)
}

// VerifyPaymentRequest 支付确认请求
// 网关回调使用snake_case，前端SDK使用camelCase，两种都接受
type VerifyPaymentRequest struct {
	OrderID        string `json:"orderId"`
	PaymentID      string `json:"paymentId"`
	Signature      string `json:"signature"`
	OrderIDSnake   string `json:"order_id"`
	PaymentIDSnake string `json:"payment_id"`
	SignatureSnake string `json:"payment_signature"`
}

// normalize 取两种命名里非空的那个
func (r *VerifyPaymentRequest) normalize() (orderID, paymentID, signature string) {
	orderID = r.OrderID
	if orderID == "" {
		orderID = r.OrderIDSnake
	}
	paymentID = r.PaymentID
	if paymentID == "" {
		paymentID = r.PaymentIDSnake
	}
	signature = r.Signature
	if signature == "" {
		signature = r.SignatureSnake
	}
	return
}

// VerifySubscriptionPayment 确认订阅支付并激活
func (h *CanteenHandler) VerifySubscriptionPayment(c *gin.Context) {
	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	orderID, paymentID, signature := req.normalize()
	if orderID == "" || paymentID == "" || signature == "" {
		response.BadRequest(c, "支付信息不完整")
		return
	}

	subscription, err := h.subscriptionService.VerifyPayment(middleware.GetUserID(c), orderID, paymentID, signature)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			response.NotFound(c, "订单不存在")
		case errors.Is(err, services.ErrInvalidPaymentSignature),
			errors.Is(err, services.ErrSubscriptionClosed):
			response.BadRequest(c, err.Error())
		case errors.Is(err, services.ErrNotSubscriptionOwner):
			response.Forbidden(c, err.Error())
		default:
			response.ServerError(c, "支付确认失败")
		}
		return
	}

	response.SuccessWithMessage(c, "订阅已生效", subscription)
}

// CancelSubscription 取消订阅
func (h *CanteenHandler) CancelSubscription(c *gin.Context) {
	h.updateSubscription(c, h.subscriptionService.Cancel, "订阅已取消")
}

// PauseSubscription 暂停订阅
func (h *CanteenHandler) PauseSubscription(c *gin.Context) {
	h.updateSubscription(c, h.subscriptionService.Pause, "订阅已暂停")
}

// ResumeSubscription 恢复订阅
func (h *CanteenHandler) ResumeSubscription(c *gin.Context) {
	h.updateSubscription(c, h.subscriptionService.Resume, "订阅已恢复")
}

// updateSubscription 订阅状态变更的公共处理
func (h *CanteenHandler) updateSubscription(c *gin.Context, op func(uint, uint) (*models.Subscription, error), message string) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	subscription, err := op(middleware.GetUserID(c), uint(id))
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			response.NotFound(c, "订阅不存在")
		case errors.Is(err, services.ErrNotSubscriptionOwner):
			response.Forbidden(c, err.Error())
		default:
			response.BadRequest(c, err.Error())
		}
		return
	}

	response.SuccessWithMessage(c, message, subscription)
}

// GetSubscriptions 我的订阅列表
func (h *CanteenHandler) GetSubscriptions(c *gin.Context) {
	pageParams := pagination.ParsePageParams(c)
	status := c.Query("status")

	subscriptions, total, err := h.subscriptionService.GetByTenantWithPage(
		middleware.GetUserID(c), status, pageParams.Page, pageParams.PageSize)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, subscriptions, pageInfo)
}
