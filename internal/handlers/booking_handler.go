package handlers

import (
	"errors"
	"strconv"

	"stayhub/internal/middleware"
	"stayhub/internal/services"
	"stayhub/pkg/pagination"
	"stayhub/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// BookingHandler 租客预订处理器
type BookingHandler struct {
	bookingService  *services.BookingService
	contractService *services.ContractService
}

// NewBookingHandler 创建预订处理器
func NewBookingHandler(bookingService *services.BookingService, contractService *services.ContractService) *BookingHandler {
	return &BookingHandler{
		bookingService:  bookingService,
		contractService: contractService,
	}
}

// CreateBookingOrderRequest 创建支付订单请求
type CreateBookingOrderRequest struct {
	RoomID uint `json:"room_id" binding:"required"`
}

// CreateBookingOrder 创建预订支付订单
func (h *BookingHandler) CreateBookingOrder(c *gin.Context) {
	var req CreateBookingOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	order, err := h.bookingService.CreateBookingOrder(middleware.GetUserID(c), req.RoomID)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			response.NotFound(c, "房间不存在")
		case errors.Is(err, services.ErrRoomUnavailable):
			response.BadRequest(c, err.Error())
		default:
			response.ServerError(c, "创建订单失败")
		}
		return
	}

	response.Success(c, order)
}

// BookRoom 自助预订
func (h *BookingHandler) BookRoom(c *gin.Context) {
	var req services.BookRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// 细化字段错误提示
		if validationErr, ok := err.(validator.ValidationErrors); ok {
			errorMsg := "参数验证失败"
			for _, fieldErr := range validationErr {
				switch fieldErr.Field() {
				case "RoomID", "HostelID":
					errorMsg = "房间和宿舍ID不能为空"
				case "StartDate":
					errorMsg = "起租日期不能为空"
				case "OrderID", "PaymentID", "Signature":
					errorMsg = "支付信息不完整"
				}
				break
			}
			response.BadRequest(c, errorMsg)
			return
		}
		response.BadRequest(c, "参数错误")
		return
	}

	req.Origin = c.ClientIP()

	contract, err := h.bookingService.BookRoom(middleware.GetUserID(c), &req)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			response.NotFound(c, "房间不存在")
		case errors.Is(err, services.ErrRoomUnavailable),
			errors.Is(err, services.ErrDuplicateActiveBooking),
			errors.Is(err, services.ErrDurationTooShort),
			errors.Is(err, services.ErrInvalidPaymentSignature):
			response.BadRequest(c, err.Error())
		default:
			response.ServerError(c, "预订失败")
		}
		return
	}

	response.SuccessWithMessage(c, "预订成功，等待房东确认", contract)
}

// GetContracts 我的合同列表
func (h *BookingHandler) GetContracts(c *gin.Context) {
	pageParams := pagination.ParsePageParams(c)
	status := c.Query("status")

	contracts, total, err := h.contractService.GetByTenantWithPage(
		middleware.GetUserID(c), status, pageParams.Page, pageParams.PageSize)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, contracts, pageInfo)
}

// GetContract 合同详情
func (h *BookingHandler) GetContract(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	contract, err := h.contractService.GetByIDForUser(uint(id), middleware.GetUserID(c))
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			response.NotFound(c, "合同不存在")
		case errors.Is(err, services.ErrNotAuthorizedToSign):
			response.Forbidden(c, "无权查看该合同")
		default:
			response.ServerError(c, "查询失败")
		}
		return
	}

	response.Success(c, contract)
}

// SignContract 签署合同
func (h *BookingHandler) SignContract(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	contract, err := h.contractService.Sign(uint(id), middleware.GetUserID(c), c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			response.NotFound(c, "合同不存在")
		case errors.Is(err, services.ErrNotAuthorizedToSign):
			response.Forbidden(c, err.Error())
		case errors.Is(err, services.ErrContractAlreadyActive),
			errors.Is(err, services.ErrContractClosed),
			errors.Is(err, services.ErrRoomUnavailable):
			response.BadRequest(c, err.Error())
		default:
			response.ServerError(c, "签署失败")
		}
		return
	}

	response.Success(c, contract)
}
