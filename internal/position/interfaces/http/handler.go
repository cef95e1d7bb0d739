// Package http 提供持仓只读查询 API
package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/positionkeeping/internal/position/application"
	"github.com/wyfcoding/positionkeeping/internal/position/domain"
	"github.com/wyfcoding/positionkeeping/pkg/logger"
)

// PositionHandler HTTP 处理器
type PositionHandler struct {
	queryService *application.PositionQueryService
}

// NewPositionHandler 创建 HTTP 处理器
func NewPositionHandler(queryService *application.PositionQueryService) *PositionHandler {
	return &PositionHandler{
		queryService: queryService,
	}
}

// RegisterRoutes 注册路由
func (h *PositionHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api/v1/positions")
	{
		api.GET("/health", h.Health)
		api.GET("/:id", h.GetPosition)
		api.GET("/account/:accountCode", h.GetPositionsByAccount)
		api.GET("/account/:accountCode/summary", h.GetAccountSummary)
	}
}

// GetPosition 按 ID 获取持仓，不存在时返回 404 空体
func (h *PositionHandler) GetPosition(c *gin.Context) {
	positionID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid position id"})
		return
	}

	dto, err := h.queryService.GetPosition(c.Request.Context(), positionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.Status(http.StatusNotFound)
			return
		}
		logger.Error(c.Request.Context(), "Failed to get position", "position_id", positionID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto)
}

// GetPositionsByAccount 获取账户持仓列表，asOfDate 缺省为当天
func (h *PositionHandler) GetPositionsByAccount(c *gin.Context) {
	accountCode := c.Param("accountCode")

	asOfDate, ok := h.parseAsOfDate(c)
	if !ok {
		return
	}

	dtos, err := h.queryService.GetPositionsByAccount(c.Request.Context(), accountCode, asOfDate)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to get positions", "account_code", accountCode, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dtos)
}

// GetAccountSummary 获取账户持仓汇总
func (h *PositionHandler) GetAccountSummary(c *gin.Context) {
	accountCode := c.Param("accountCode")

	asOfDate, ok := h.parseAsOfDate(c)
	if !ok {
		return
	}

	summary, err := h.queryService.GetAccountSummary(c.Request.Context(), accountCode, asOfDate)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to get account summary", "account_code", accountCode, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// Health 存活探针
func (h *PositionHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *PositionHandler) parseAsOfDate(c *gin.Context) (time.Time, bool) {
	raw := c.Query("asOfDate")
	if raw == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), true
	}

	asOfDate, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid asOfDate, expected YYYY-MM-DD"})
		return time.Time{}, false
	}
	return asOfDate, true
}
