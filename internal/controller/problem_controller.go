package controller

import (
	"coding_quiz_backend/internal/model"
	"coding_quiz_backend/internal/service"
	"coding_quiz_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type ProblemController struct {
	ProblemService *service.ProblemService
}

func NewProblemController(problemService *service.ProblemService) *ProblemController {
	return &ProblemController{ProblemService: problemService}
}

// ListSubjects godoc
// @Summary 公开科目列表
// @Description 返回全部公开科目及各自题目数
// @Tags 题目
// @Produce  json
// @Success 200 {object} util.Response{data=[]repository.SubjectWithCount}
// @Router /api/problems/subjects [get]
func (c *ProblemController) ListSubjects(ctx *gin.Context) {
	subjects, err := c.ProblemService.ListPublicSubjects()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, subjects)
}

// Stats godoc
// @Summary 平台统计
// @Description 题目总数、科目总数与最近更新时间
// @Tags 题目
// @Produce  json
// @Success 200 {object} util.Response{data=service.PlatformStats}
// @Router /api/problems/stats [get]
func (c *ProblemController) Stats(ctx *gin.Context) {
	stats, err := c.ProblemService.GetPlatformStats(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

// Resolve godoc
// @Summary 获取答题页题目
// @Description 未指定 id 时登录用户从续做位置继续，匿名用户从第一题开始
// @Tags 题目
// @Produce  json
// @Param   subject path  string true  "科目名"
// @Param   id      query string false "1 起始的题号，指定时忽略续做进度"
// @Success 200 {object} util.Response{data=service.ResolvedProblem}
// @Failure 404 {object} util.Response "科目不存在或没有题目"
// @Router /api/problems/{subject} [get]
func (c *ProblemController) Resolve(ctx *gin.Context) {
	subjectName := ctx.Param("subject")
	rawOrdinal := ctx.Query("id")

	var userID uint
	if claims := util.GetUserFromContext(ctx); claims != nil {
		userID = claims.UserID
	}

	resolved, err := c.ProblemService.ResolveProblem(subjectName, rawOrdinal, userID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrSubjectNotFound):
			util.NotFound(ctx, "科目不存在")
		case errors.Is(err, util.ErrProblemNotFound):
			util.NotFound(ctx, "该科目下还没有题目")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, resolved)
}

// SubmitRequest 提交答案请求
type SubmitRequest struct {
	ProblemID uint   `json:"problem_id" binding:"required"`
	Answer    string `json:"answer" binding:"required"`
}

// Submit godoc
// @Summary 提交答案
// @Description 判定对错，登录用户同时记录作答与续做进度
// @Tags 题目
// @Accept  json
// @Produce  json
// @Param   subject path string        true "科目名"
// @Param   body    body SubmitRequest true "题目与所选答案"
// @Success 200 {object} util.Response{data=service.SubmitResult}
// @Failure 400 {object} util.Response "无法识别的答案"
// @Failure 404 {object} util.Response "题目不存在"
// @Router /api/problems/{subject}/submit [post]
func (c *ProblemController) Submit(ctx *gin.Context) {
	var req SubmitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	var userID uint
	if claims := util.GetUserFromContext(ctx); claims != nil {
		userID = claims.UserID
	}

	result, err := c.ProblemService.SubmitAnswer(req.ProblemID, req.Answer, userID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrUnrecognizedAnswer):
			util.BadRequest(ctx, "无法识别的答案")
		case errors.Is(err, util.ErrProblemNotFound):
			util.NotFound(ctx, "题目不存在")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, result)
}

// WrongSubmit godoc
// @Summary 错题重练提交
// @Description 只判定对错，不写任何进度
// @Tags 题目
// @Accept  json
// @Produce  json
// @Param   subject path string        true "科目名"
// @Param   body    body SubmitRequest true "题目与所选答案"
// @Success 200 {object} util.Response{data=service.SubmitResult}
// @Failure 400 {object} util.Response "无法识别的答案"
// @Failure 404 {object} util.Response "题目不存在"
// @Router /api/problems/{subject}/wrong-submit [post]
func (c *ProblemController) WrongSubmit(ctx *gin.Context) {
	var req SubmitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.ProblemService.SubmitWrongAnswer(ctx.Param("subject"), req.ProblemID, req.Answer)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrUnrecognizedAnswer):
			util.BadRequest(ctx, "无法识别的答案")
		case errors.Is(err, util.ErrSubjectNotFound), errors.Is(err, util.ErrProblemNotFound):
			util.NotFound(ctx, "题目不存在")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, result)
}

// SaveProgressRequest 离开页面时保存进度
type SaveProgressRequest struct {
	ProblemID uint `json:"problem_id" binding:"required"`
}

// SaveProgress godoc
// @Summary 保存续做进度
// @Description 尽力而为，无论成败都返回 200；匿名请求直接忽略
// @Tags 题目
// @Accept  json
// @Produce  json
// @Param   body body SaveProgressRequest true "当前题目"
// @Success 200 {object} util.Response
// @Router /api/problems/save-progress [post]
func (c *ProblemController) SaveProgress(ctx *gin.Context) {
	var req SaveProgressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.Success(ctx, gin.H{"saved": false})
		return
	}

	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Success(ctx, gin.H{"saved": false})
		return
	}

	c.ProblemService.SaveProgress(claims.UserID, req.ProblemID)
	util.Success(ctx, gin.H{"saved": true})
}

// Progress godoc
// @Summary 科目作答进度
// @Description 答题数、正确率与该科目下的错题列表
// @Tags 题目
// @Produce  json
// @Security BearerAuth
// @Param   subject path string true "科目名"
// @Success 200 {object} util.Response{data=object}
// @Failure 404 {object} util.Response "科目不存在"
// @Router /api/problems/{subject}/progress [get]
func (c *ProblemController) Progress(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	subject, summary, err := c.ProblemService.SubjectProgress(claims.UserID, ctx.Param("subject"))
	if err != nil {
		if errors.Is(err, util.ErrSubjectNotFound) {
			util.NotFound(ctx, "科目不存在")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, gin.H{"subject": subject, "progress": summary})
}
