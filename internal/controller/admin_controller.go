package controller

import (
	"coding_quiz_backend/internal/model"
	"coding_quiz_backend/internal/service"
	"coding_quiz_backend/internal/util"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

type AdminController struct {
	AdminService *service.AdminService
}

func NewAdminController(adminService *service.AdminService) *AdminController {
	return &AdminController{AdminService: adminService}
}

func parseIDParam(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil || id == 0 {
		util.BadRequest(ctx, "无效的 ID")
		return 0, false
	}
	return uint(id), true
}

// Stats godoc
// @Summary 管理端统计
// @Tags 管理
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=service.AdminStats}
// @Router /api/admin/stats [get]
func (c *AdminController) Stats(ctx *gin.Context) {
	stats, err := c.AdminService.GetStats()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

// ListProblems godoc
// @Summary 全部题目
// @Description 按科目排序的题目列表，含科目内序号
// @Tags 管理
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]repository.ProblemWithSubject}
// @Router /api/admin/problems [get]
func (c *AdminController) ListProblems(ctx *gin.Context) {
	problems, err := c.AdminService.ListProblems()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, problems)
}

// CreateProblem godoc
// @Summary 新建题目
// @Tags 管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.ProblemInput true "题目内容"
// @Success 201 {object} util.Response{data=service.AdminProblemView}
// @Failure 400 {object} util.Response "参数错误"
// @Failure 404 {object} util.Response "科目不存在"
// @Router /api/admin/problems [post]
func (c *AdminController) CreateProblem(ctx *gin.Context) {
	var in service.ProblemInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	problem, err := c.AdminService.CreateProblem(ctx.Request.Context(), &in)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrSubjectNotFound):
			util.NotFound(ctx, "科目不存在")
		case errors.Is(err, model.ErrUnrecognizedAnswer):
			util.BadRequest(ctx, "无法识别的正确答案")
		default:
			util.BadRequest(ctx, err.Error())
		}
		return
	}
	util.Created(ctx, problem)
}

// UpdateProblem godoc
// @Summary 更新题目
// @Tags 管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id   path int                  true "题目 ID"
// @Param   body body service.ProblemInput true "题目内容"
// @Success 200 {object} util.Response{data=service.AdminProblemView}
// @Failure 404 {object} util.Response "题目不存在"
// @Router /api/admin/problems/{id} [put]
func (c *AdminController) UpdateProblem(ctx *gin.Context) {
	id, ok := parseIDParam(ctx)
	if !ok {
		return
	}

	var in service.ProblemInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	problem, err := c.AdminService.UpdateProblem(id, &in)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrProblemNotFound):
			util.NotFound(ctx, "题目不存在")
		case errors.Is(err, model.ErrUnrecognizedAnswer):
			util.BadRequest(ctx, "无法识别的正确答案")
		default:
			util.BadRequest(ctx, err.Error())
		}
		return
	}
	util.Success(ctx, problem)
}

// DeleteProblem godoc
// @Summary 删除题目
// @Description 删除题目、清理作答记录并修复受影响用户的续做进度，整体在一个事务内
// @Tags 管理
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "题目 ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response "题目不存在"
// @Router /api/admin/problems/{id} [delete]
func (c *AdminController) DeleteProblem(ctx *gin.Context) {
	id, ok := parseIDParam(ctx)
	if !ok {
		return
	}

	if err := c.AdminService.DeleteProblem(ctx.Request.Context(), id); err != nil {
		if errors.Is(err, util.ErrProblemNotFound) {
			util.NotFound(ctx, "题目不存在")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, gin.H{"message": "题目已删除"})
}

// ListSubjects godoc
// @Summary 全部科目
// @Description 含未公开科目
// @Tags 管理
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]repository.SubjectWithCount}
// @Router /api/admin/subjects [get]
func (c *AdminController) ListSubjects(ctx *gin.Context) {
	subjects, err := c.AdminService.ListSubjects()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, subjects)
}

// CreateSubject godoc
// @Summary 新建科目
// @Tags 管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body service.SubjectInput true "科目信息"
// @Success 201 {object} util.Response{data=model.Subject}
// @Router /api/admin/subjects [post]
func (c *AdminController) CreateSubject(ctx *gin.Context) {
	var in service.SubjectInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	subject, err := c.AdminService.CreateSubject(&in)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, subject)
}

// UpdateSubject godoc
// @Summary 更新科目
// @Tags 管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id   path int                  true "科目 ID"
// @Param   body body service.SubjectInput true "科目信息"
// @Success 200 {object} util.Response{data=model.Subject}
// @Failure 404 {object} util.Response "科目不存在"
// @Router /api/admin/subjects/{id} [put]
func (c *AdminController) UpdateSubject(ctx *gin.Context) {
	id, ok := parseIDParam(ctx)
	if !ok {
		return
	}

	var in service.SubjectInput
	if err := ctx.ShouldBindJSON(&in); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	subject, err := c.AdminService.UpdateSubject(id, &in)
	if err != nil {
		if errors.Is(err, util.ErrSubjectNotFound) {
			util.NotFound(ctx, "科目不存在")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, subject)
}

// DeleteSubject godoc
// @Summary 删除科目
// @Description 科目下还有题目时拒绝删除
// @Tags 管理
// @Produce  json
// @Security BearerAuth
// @Param   id path int true "科目 ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response "科目不存在"
// @Failure 409 {object} util.Response "科目下还有题目"
// @Router /api/admin/subjects/{id} [delete]
func (c *AdminController) DeleteSubject(ctx *gin.Context) {
	id, ok := parseIDParam(ctx)
	if !ok {
		return
	}

	if err := c.AdminService.DeleteSubject(id); err != nil {
		switch {
		case errors.Is(err, util.ErrSubjectNotFound):
			util.NotFound(ctx, "科目不存在")
		case errors.Is(err, util.ErrSubjectNotEmpty):
			util.Error(ctx, 409, "请先删除该科目下的全部题目")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, gin.H{"message": "科目已删除"})
}

// ReorderRequest 科目排序请求，键为科目 ID
type ReorderRequest struct {
	Orders map[uint]int `json:"orders" binding:"required"`
}

// ReorderSubjects godoc
// @Summary 调整科目顺序
// @Tags 管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   body body ReorderRequest true "科目 ID 到排序值的映射"
// @Success 200 {object} util.Response
// @Router /api/admin/subjects/order [put]
func (c *AdminController) ReorderSubjects(ctx *gin.Context) {
	var req ReorderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.AdminService.ReorderSubjects(req.Orders); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"message": "排序已更新"})
}

// PublicStatusRequest 公开状态切换请求
type PublicStatusRequest struct {
	IsPublic *bool `json:"is_public" binding:"required"`
}

// SetSubjectPublic godoc
// @Summary 切换科目公开状态
// @Tags 管理
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param   id   path int                 true "科目 ID"
// @Param   body body PublicStatusRequest true "公开状态"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response "科目不存在"
// @Router /api/admin/subjects/{id}/public-status [put]
func (c *AdminController) SetSubjectPublic(ctx *gin.Context) {
	id, ok := parseIDParam(ctx)
	if !ok {
		return
	}

	var req PublicStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.AdminService.SetSubjectPublic(id, *req.IsPublic); err != nil {
		if errors.Is(err, util.ErrSubjectNotFound) {
			util.NotFound(ctx, "科目不存在")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, gin.H{"message": "公开状态已更新"})
}

// Export godoc
// @Summary 数据导出
// @Description 导出全部科目与题目为 JSON 并写入配置的存储后端
// @Tags 管理
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=object}
// @Router /api/admin/export [post]
func (c *AdminController) Export(ctx *gin.Context) {
	objectName, err := c.AdminService.ExportData(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"object": objectName})
}
