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

// OwnerHandler 房东侧合同处理器
type OwnerHandler struct {
	bookingService  *services.BookingService
	contractService *services.ContractService
}

// NewOwnerHandler 创建房东处理器
func NewOwnerHandler(bookingService *services.BookingService, contractService *services.ContractService) *OwnerHandler {
	return &OwnerHandler{
		bookingService:  bookingService,
		contractService: contractService,
	}
}

// GetTenants 名下合同列表（按状态过滤）
func (h *OwnerHandler) GetTenants(c *gin.Context) {
	pageParams := pagination.ParsePageParams(c)
	status := c.Query("status")

	contracts, total, err := h.contractService.GetByOwnerWithPage(
		middleware.GetUserID(c), status, pageParams.Page, pageParams.PageSize)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, contracts, pageInfo)
}

// Approve 审批预订
func (h *OwnerHandler) Approve(c *gin.Context) {
	contractID, err := strconv.ParseUint(c.Param("contractId"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	contract, err := h.bookingService.Approve(uint(contractID), middleware.GetUserID(c), c.ClientIP())
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			response.NotFound(c, "合同不存在")
		case errors.Is(err, services.ErrNotContractOwner):
			response.Forbidden(c, err.Error())
		case errors.Is(err, services.ErrContractAlreadyActive),
			errors.Is(err, services.ErrContractClosed),
			errors.Is(err, services.ErrContractNotPayable),
			errors.Is(err, services.ErrRoomUnavailable):
			response.BadRequest(c, err.Error())
		default:
			response.ServerError(c, "审批失败")
		}
		return
	}

	response.SuccessWithMessage(c, "审批通过，租约生效", contract)
}

// TerminateRequest 终止租约请求
type TerminateRequest struct {
	Reason string `json:"reason" binding:"max=300"`
}

// Terminate 终止租约
func (h *OwnerHandler) Terminate(c *gin.Context) {
	contractID, err := strconv.ParseUint(c.Param("contractId"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	var req TerminateRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.BadRequest(c, "参数错误")
		return
	}

	contract, err := h.bookingService.Terminate(uint(contractID), middleware.GetUserID(c), req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			response.NotFound(c, "合同不存在")
		case errors.Is(err, services.ErrNotContractOwner):
			response.Forbidden(c, err.Error())
		default:
			response.ServerError(c, "终止失败")
		}
		return
	}

	response.SuccessWithMessage(c, "租约已终止", contract)
}

// CreateDraft 发起草拟合同
func (h *OwnerHandler) CreateDraft(c *gin.Context) {
	var req services.CreateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	contract, err := h.contractService.CreateDraft(middleware.GetUserID(c), &req)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			response.NotFound(c, "房间不存在")
		case errors.Is(err, services.ErrNotHostelOwner):
			response.Forbidden(c, err.Error())
		case errors.Is(err, services.ErrRoomUnavailable),
			errors.Is(err, services.ErrDuplicateActiveBooking):
			response.BadRequest(c, err.Error())
		default:
			response.ServerError(c, "创建失败")
		}
		return
	}

	response.Success(c, contract)
}

// SubmitForSignatures 草拟合同进入签署流程
func (h *OwnerHandler) SubmitForSignatures(c *gin.Context) {
	contractID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	contract, err := h.contractService.SubmitForSignatures(middleware.GetUserID(c), uint(contractID))
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			response.NotFound(c, "合同不存在")
		case errors.Is(err, services.ErrNotContractOwner):
			response.Forbidden(c, err.Error())
		default:
			response.BadRequest(c, err.Error())
		}
		return
	}

	response.Success(c, contract)
}
