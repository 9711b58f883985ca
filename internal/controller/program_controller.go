package controller

import (
	"health_track_backend/internal/model"
	"health_track_backend/internal/service"
	"health_track_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ProgramController 健康项目：报名、问卷、介绍视频、步骤推进，以及项目内容
type ProgramController struct {
	EnrollmentService *service.EnrollmentService
	CatalogService    *service.CatalogService
}

func NewProgramController(enrollmentService *service.EnrollmentService, catalogService *service.CatalogService) *ProgramController {
	return &ProgramController{EnrollmentService: enrollmentService, CatalogService: catalogService}
}

// SubmitAssessmentRequest 问卷答案
// swagger:model SubmitAssessmentRequest
type SubmitAssessmentRequest struct {
	Answers []model.QuestionAnswer `json:"answers"`
}

// ListPrograms godoc
// @Summary 项目列表
// @Tags 健康项目
// @Produce json
// @Success 200 {object} util.Response{data=[]model.HealthTrackModule}
// @Router /api/programs [get]
func (c *ProgramController) ListPrograms(ctx *gin.Context) {
	programs, err := c.CatalogService.ListPrograms(ctx.Request.Context())
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, programs)
}

// GetProgram godoc
// @Summary 项目详情
// @Tags 健康项目
// @Produce json
// @Param programId path int true "项目ID"
// @Success 200 {object} util.Response{data=model.HealthTrackModule}
// @Failure 404 {object} util.Response
// @Router /api/programs/{programId} [get]
func (c *ProgramController) GetProgram(ctx *gin.Context) {
	programID, ok := uintParam(ctx, "programId")
	if !ok {
		return
	}
	program, err := c.CatalogService.GetProgram(ctx.Request.Context(), programID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, program)
}

// Enroll godoc
// @Summary 报名项目
// @Description 创建报名记录，从第 1 步开始，所有解锁标记为 false
// @Tags 健康项目
// @Produce json
// @Security ApiKeyAuth
// @Param programId path int true "项目ID"
// @Success 201 {object} util.Response{data=service.EnrollmentView}
// @Failure 404 {object} util.Response "项目不存在"
// @Failure 409 {object} util.Response "已报名"
// @Router /api/programs/{programId}/enroll [post]
func (c *ProgramController) Enroll(ctx *gin.Context) {
	sess, ok := currentSession(ctx)
	if !ok {
		return
	}
	programID, ok := uintParam(ctx, "programId")
	if !ok {
		return
	}
	view, err := c.EnrollmentService.Enroll(ctx.Request.Context(), sess, programID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, view)
}

// GetEnrollment godoc
// @Summary 报名状态
// @Description 返回解锁标记和六个项目步骤的状态
// @Tags 健康项目
// @Produce json
// @Security ApiKeyAuth
// @Param programId path int true "项目ID"
// @Success 200 {object} util.Response{data=service.EnrollmentView}
// @Failure 403 {object} util.Response "未报名"
// @Router /api/programs/{programId}/enrollment [get]
func (c *ProgramController) GetEnrollment(ctx *gin.Context) {
	sess, ok := currentSession(ctx)
	if !ok {
		return
	}
	programID, ok := uintParam(ctx, "programId")
	if !ok {
		return
	}
	view, err := c.EnrollmentService.GetEnrollment(ctx.Request.Context(), sess, programID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// ListEnrollments godoc
// @Summary 我的报名
// @Tags 健康项目
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]service.EnrollmentView}
// @Router /api/enrollments [get]
func (c *ProgramController) ListEnrollments(ctx *gin.Context) {
	sess, ok := currentSession(ctx)
	if !ok {
		return
	}
	views, err := c.EnrollmentService.ListEnrollments(ctx.Request.Context(), sess)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, views)
}

func assessmentKind(ctx *gin.Context) (model.AssessmentKind, bool) {
	kind := model.AssessmentKind(ctx.Param("kind"))
	if !kind.Valid() {
		util.RespondError(ctx, util.NewValidationError("kind"))
		return "", false
	}
	return kind, true
}

// AssessmentQuestions godoc
// @Summary 问卷题目
// @Description 后测需要先解锁
// @Tags 健康项目
// @Produce json
// @Security ApiKeyAuth
// @Param programId path int true "项目ID"
// @Param kind path string true "问卷类型" Enums(pre, post)
// @Success 200 {object} util.Response{data=[]model.AssessmentQuestion}
// @Failure 403 {object} util.Response "未解锁"
// @Router /api/programs/{programId}/assessments/{kind}/questions [get]
func (c *ProgramController) AssessmentQuestions(ctx *gin.Context) {
	sess, ok := currentSession(ctx)
	if !ok {
		return
	}
	programID, ok := uintParam(ctx, "programId")
	if !ok {
		return
	}
	kind, ok := assessmentKind(ctx)
	if !ok {
		return
	}
	questions, err := c.EnrollmentService.AssessmentQuestions(ctx.Request.Context(), sess, programID, kind)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, questions)
}

// SubmitAssessment godoc
// @Summary 提交问卷
// @Description 所有题目都必须作答；前测完成后进入第 2 步，后测完成后项目结束
// @Tags 健康项目
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param programId path int true "项目ID"
// @Param kind path string true "问卷类型" Enums(pre, post)
// @Param body body SubmitAssessmentRequest true "答案"
// @Success 200 {object} util.Response{data=service.EnrollmentView}
// @Failure 422 {object} util.Response "有未作答的题目"
// @Router /api/programs/{programId}/assessments/{kind} [post]
func (c *ProgramController) SubmitAssessment(ctx *gin.Context) {
	sess, ok := currentSession(ctx)
	if !ok {
		return
	}
	programID, ok := uintParam(ctx, "programId")
	if !ok {
		return
	}
	kind, ok := assessmentKind(ctx)
	if !ok {
		return
	}
	var req SubmitAssessmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	view, err := c.EnrollmentService.SubmitAssessment(ctx.Request.Context(), sess, programID, kind, req.Answers)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// CompleteIntroVideo godoc
// @Summary 完成介绍视频
// @Description 一次写入同时解锁术语表、用药记录、就诊准备和后测
// @Tags 健康项目
// @Produce json
// @Security ApiKeyAuth
// @Param programId path int true "项目ID"
// @Success 200 {object} util.Response{data=service.EnrollmentView}
// @Router /api/programs/{programId}/video/complete [post]
func (c *ProgramController) CompleteIntroVideo(ctx *gin.Context) {
	sess, ok := currentSession(ctx)
	if !ok {
		return
	}
	programID, ok := uintParam(ctx, "programId")
	if !ok {
		return
	}
	view, err := c.EnrollmentService.CompleteIntroVideo(ctx.Request.Context(), sess, programID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// CompleteStep godoc
// @Summary 完成项目步骤
// @Tags 健康项目
// @Produce json
// @Security ApiKeyAuth
// @Param programId path int true "项目ID"
// @Param step path int true "步骤序号 1-6"
// @Success 200 {object} util.Response{data=service.EnrollmentView}
// @Failure 409 {object} util.Response "前置步骤未完成"
// @Router /api/programs/{programId}/steps/{step}/complete [post]
func (c *ProgramController) CompleteStep(ctx *gin.Context) {
	sess, ok := currentSession(ctx)
	if !ok {
		return
	}
	programID, ok := uintParam(ctx, "programId")
	if !ok {
		return
	}
	step, err := strconv.Atoi(ctx.Param("step"))
	if err != nil {
		util.RespondError(ctx, util.NewValidationError("step"))
		return
	}
	view, err := c.EnrollmentService.CompleteStep(ctx.Request.Context(), sess, programID, step)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// Glossary godoc
// @Summary 术语表
// @Description 看完介绍视频后解锁
// @Tags 健康项目
// @Produce json
// @Security ApiKeyAuth
// @Param programId path int true "项目ID"
// @Param search query string false "关键词"
// @Success 200 {object} util.Response{data=[]model.GlossaryTerm}
// @Failure 403 {object} util.Response "未解锁"
// @Router /api/programs/{programId}/glossary [get]
func (c *ProgramController) Glossary(ctx *gin.Context) {
	sess, ok := currentSession(ctx)
	if !ok {
		return
	}
	programID, ok := uintParam(ctx, "programId")
	if !ok {
		return
	}
	terms, err := c.CatalogService.Glossary(ctx.Request.Context(), sess, programID, ctx.Query("search"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, terms)
}

// Videos godoc
// @Summary 项目视频
// @Tags 健康项目
// @Produce json
// @Security ApiKeyAuth
// @Param programId path int true "项目ID"
// @Success 200 {object} util.Response{data=[]model.Video}
// @Router /api/programs/{programId}/videos [get]
func (c *ProgramController) Videos(ctx *gin.Context) {
	programID, ok := uintParam(ctx, "programId")
	if !ok {
		return
	}
	videos, err := c.CatalogService.Videos(ctx.Request.Context(), programID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, videos)
}

// CreateGlossaryTerm godoc
// @Summary 新增术语 (管理员)
// @Tags 管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param programId path int true "项目ID"
// @Param body body service.GlossaryInput true "术语"
// @Success 201 {object} util.Response{data=model.GlossaryTerm}
// @Router /api/admin/programs/{programId}/glossary [post]
func (c *ProgramController) CreateGlossaryTerm(ctx *gin.Context) {
	sess, ok := currentSession(ctx)
	if !ok {
		return
	}
	programID, ok := uintParam(ctx, "programId")
	if !ok {
		return
	}
	var req service.GlossaryInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	term, err := c.CatalogService.CreateGlossaryTerm(ctx.Request.Context(), sess, programID, req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, term)
}

// UploadVideo godoc
// @Summary 上传项目视频 (管理员)
// @Description 读取时长并生成封面
// @Tags 管理
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param programId path int true "项目ID"
// @Param title formData string true "标题"
// @Param description formData string false "描述"
// @Param isIntro formData bool false "是否为介绍视频"
// @Param sortOrder formData int false "排序"
// @Param file formData file true "视频文件"
// @Success 201 {object} util.Response{data=model.Video}
// @Failure 400 {object} util.Response
// @Router /api/admin/programs/{programId}/videos [post]
func (c *ProgramController) UploadVideo(ctx *gin.Context) {
	sess, ok := currentSession(ctx)
	if !ok {
		return
	}
	programID, ok := uintParam(ctx, "programId")
	if !ok {
		return
	}
	var req service.VideoInput
	if err := ctx.ShouldBind(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	file, err := ctx.FormFile("file")
	if err != nil {
		util.RespondError(ctx, util.NewValidationError("file"))
		return
	}
	video, err := c.CatalogService.UploadVideo(ctx.Request.Context(), sess, programID, req, file)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, video)
}
