package handler

import (
	"Herald/internal/api/dto"
	"Herald/internal/pkg/response"
	"Herald/internal/pkg/util"
	"Herald/internal/pkg/ws"
	"Herald/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
)

// NotifyAdminHandler 管理端：系统广播与在线状态
type NotifyAdminHandler struct {
	notifyService service.NotifyService
	registry      *ws.Registry
}

func NewNotifyAdminHandler(notify service.NotifyService, registry *ws.Registry) *NotifyAdminHandler {
	return &NotifyAdminHandler{
		notifyService: notify,
		registry:      registry,
	}
}

// Broadcast 向所有在线用户推送系统通知
func (h *NotifyAdminHandler) Broadcast(c *gin.Context) {
	var req dto.BroadcastReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	if err := util.ValidateDTO(req); err != nil {
		response.Fail(c, response.BadRequest, err.Error())
		return
	}

	delivered := h.notifyService.BroadcastSystem(c.Request.Context(), req.Title, req.Content)
	response.Success(c, &dto.BroadcastDTO{Delivered: delivered})
}

func (h *NotifyAdminHandler) OnlineCount(c *gin.Context) {
	response.Success(c, &dto.OnlineCountDTO{OnlineCount: h.registry.OnlineCount()})
}

func (h *NotifyAdminHandler) IsOnline(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil || userID == 0 {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	response.Success(c, &dto.OnlineStatusDTO{UserID: userID, Online: h.registry.IsOnline(userID)})
}
