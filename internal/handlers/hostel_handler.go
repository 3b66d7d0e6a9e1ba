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

// HostelHandler 房源处理器
type HostelHandler struct {
	service *services.HostelService
}

// NewHostelHandler 创建房源处理器
func NewHostelHandler(service *services.HostelService) *HostelHandler {
	return &HostelHandler{service: service}
}

// Create 创建宿舍
func (h *HostelHandler) Create(c *gin.Context) {
	var req services.CreateHostelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	hostel, err := h.service.CreateHostel(middleware.GetUserID(c), &req)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			response.BadRequest(c, "同名宿舍已存在")
			return
		}
		response.ServerError(c, "创建失败")
		return
	}

	response.Success(c, hostel)
}

// Update 更新宿舍
func (h *HostelHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	var req services.CreateHostelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	hostel, err := h.service.UpdateHostel(middleware.GetUserID(c), uint(id), &req)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "宿舍不存在")
			return
		}
		if errors.Is(err, services.ErrNotHostelOwner) {
			response.Forbidden(c, err.Error())
			return
		}
		response.ServerError(c, "更新失败")
		return
	}

	response.Success(c, hostel)
}

// GetByID 获取宿舍详情
func (h *HostelHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	hostel, err := h.service.GetHostelByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "宿舍不存在")
			return
		}
		response.ServerError(c, "查询失败")
		return
	}

	response.Success(c, hostel)
}

// GetAll 宿舍列表（公开，支持城市/关键词过滤）
func (h *HostelHandler) GetAll(c *gin.Context) {
	pageParams := pagination.ParsePageParams(c)

	city := c.Query("city")
	keyword := c.Query("keyword")

	hostels, total, err := h.service.GetHostelsWithPage(city, keyword, pageParams.Page, pageParams.PageSize)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, hostels, pageInfo)
}

// GetMine 房东名下的宿舍
func (h *HostelHandler) GetMine(c *gin.Context) {
	hostels, err := h.service.GetHostelsByOwner(middleware.GetUserID(c))
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	response.Success(c, hostels)
}

// CreateRoom 添加房间
func (h *HostelHandler) CreateRoom(c *gin.Context) {
	hostelID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	var req services.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	room, err := h.service.CreateRoom(middleware.GetUserID(c), uint(hostelID), &req)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			response.NotFound(c, "宿舍不存在")
		case errors.Is(err, gorm.ErrDuplicatedKey):
			response.BadRequest(c, "房间号已存在")
		case errors.Is(err, services.ErrNotHostelOwner):
			response.Forbidden(c, err.Error())
		default:
			response.ServerError(c, "创建失败")
		}
		return
	}

	response.Success(c, room)
}

// GetRooms 房间列表
func (h *HostelHandler) GetRooms(c *gin.Context) {
	hostelID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	pageParams := pagination.ParsePageParams(c)
	onlyAvailable := c.Query("available") == "true"

	rooms, total, err := h.service.GetRoomsWithPage(uint(hostelID), onlyAvailable, pageParams.Page, pageParams.PageSize)
	if err != nil {
		response.ServerError(c, "查询失败")
		return
	}

	pageInfo := pagination.NewPageInfo(pageParams.Page, pageParams.PageSize, total)
	response.SuccessWithPage(c, rooms, pageInfo)
}

// DeleteRoom 删除房间
func (h *HostelHandler) DeleteRoom(c *gin.Context) {
	roomID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "ID格式错误")
		return
	}

	err = h.service.DeleteRoom(middleware.GetUserID(c), uint(roomID))
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			response.NotFound(c, "房间不存在")
		case errors.Is(err, services.ErrRoomOccupied):
			response.BadRequest(c, err.Error())
		case errors.Is(err, services.ErrNotHostelOwner):
			response.Forbidden(c, err.Error())
		default:
			response.ServerError(c, "删除失败")
		}
		return
	}

	response.SuccessWithMessage(c, "删除成功", nil)
}
