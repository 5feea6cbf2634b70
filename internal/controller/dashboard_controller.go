package controller

import (
	"coding_quiz_backend/internal/service"
	"coding_quiz_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type DashboardController struct {
	DashboardService *service.DashboardService
}

func NewDashboardController(dashboardService *service.DashboardService) *DashboardController {
	return &DashboardController{DashboardService: dashboardService}
}

// Overview godoc
// @Summary 学习面板
// @Description 各科目进度、近 30 天作答量与最近错题
// @Tags 面板
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.Overview}
// @Failure 401 {object} util.Response "未登录"
// @Router /api/dashboard [get]
func (c *DashboardController) Overview(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	overview, err := c.DashboardService.GetOverview(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, overview)
}

// WrongProblems godoc
// @Summary 科目错题本
// @Tags 面板
// @Produce  json
// @Security BearerAuth
// @Param   subject path string true "科目名"
// @Success 200 {object} util.Response{data=[]service.WrongProblemView}
// @Failure 404 {object} util.Response "科目不存在"
// @Router /api/dashboard/wrong-problems/{subject} [get]
func (c *DashboardController) WrongProblems(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	views, err := c.DashboardService.GetWrongProblemsBySubject(claims.UserID, ctx.Param("subject"))
	if err != nil {
		if errors.Is(err, util.ErrSubjectNotFound) {
			util.NotFound(ctx, "科目不存在")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, views)
}

// Stats godoc
// @Summary 面板统计
// @Description 近 7 天每日作答量与分科目正确率
// @Tags 面板
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.StatsView}
// @Router /api/dashboard/stats [get]
func (c *DashboardController) Stats(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	stats, err := c.DashboardService.GetStats(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}
