package api

import (
	"github.com/gin-gonic/gin"
	"github.com/mautops/deferral-gin/internal/service"
)

// StatisticsController 统计控制器
type StatisticsController struct {
	statisticsService service.StatisticsService
}

// NewStatisticsController 创建统计控制器
func NewStatisticsController(statisticsService service.StatisticsService) *StatisticsController {
	return &StatisticsController{
		statisticsService: statisticsService,
	}
}

// Dashboard 仪表盘
// @Summary      仪表盘统计
// @Description  清单与延期申请的状态分布、文档复核通过率与 SLA 告警数
// @Tags         统计
// @Produce      json
// @Success      200  {object}  Response{data=service.Dashboard}
// @Router       /statistics/dashboard [get]
// @Security     BearerAuth
func (c *StatisticsController) Dashboard(ctx *gin.Context) {
	dashboard, err := c.statisticsService.GetDashboard()
	if !handleServiceError(ctx, err, "get dashboard") {
		return
	}
	Success(ctx, dashboard)
}

// ChecklistsByTime 按日期统计清单
func (c *StatisticsController) ChecklistsByTime(ctx *gin.Context) {
	stats, err := c.statisticsService.GetChecklistStatisticsByTime()
	if !handleServiceError(ctx, err, "get checklist statistics") {
		return
	}
	Success(ctx, stats)
}

// SLABreaches 当前 SLA 告警明细
// @Summary      SLA 告警明细
// @Tags         统计
// @Produce      json
// @Success      200  {object}  Response{data=service.SLABreachReport}
// @Router       /statistics/sla [get]
// @Security     BearerAuth
func (c *StatisticsController) SLABreaches(ctx *gin.Context) {
	report, err := c.statisticsService.GetSLABreaches()
	if !handleServiceError(ctx, err, "get sla breaches") {
		return
	}
	Success(ctx, report)
}
