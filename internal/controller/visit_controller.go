package controller

import (
	"encoding/json"
	"health_track_backend/internal/service"
	"health_track_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// VisitController 就诊准备向导
type VisitController struct {
	VisitService  *service.VisitService
	ReportService *service.ReportService
}

func NewVisitController(visitService *service.VisitService, reportService *service.ReportService) *VisitController {
	return &VisitController{VisitService: visitService, ReportService: reportService}
}

// CreateVisitRequest 新建就诊准备记录
// swagger:model CreateVisitRequest
type CreateVisitRequest struct {
	ProgramID uint `json:"programId" binding:"required"`
}

// Create godoc
// @Summary 新建就诊准备
// @Description 需要已解锁就诊准备工具，从个人信息步骤开始
// @Tags 就诊准备
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body CreateVisitRequest true "项目"
// @Success 201 {object} util.Response{data=service.VisitView}
// @Failure 403 {object} util.Response "未解锁"
// @Router /api/visits [post]
func (c *VisitController) Create(ctx *gin.Context) {
	sess, ok := currentSession(ctx)
	if !ok {
		return
	}
	var req CreateVisitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.RespondError(ctx, util.NewValidationError("programId"))
		return
	}
	view, err := c.VisitService.Create(ctx.Request.Context(), sess, req.ProgramID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, view)
}

// List godoc
// @Summary 我的就诊准备记录
// @Tags 就诊准备
// @Produce json
// @Security ApiKeyAuth
// @Param programId query int false "项目ID，不传返回全部"
// @Success 200 {object} util.Response{data=[]model.VisitRecord}
// @Router /api/visits [get]
func (c *VisitController) List(ctx *gin.Context) {
	sess, ok := currentSession(ctx)
	if !ok {
		return
	}
	programID := util.MustParseUint(ctx.Query("programId"))
	records, err := c.VisitService.List(ctx.Request.Context(), sess, programID)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, records)
}

// Get godoc
// @Summary 就诊准备详情
// @Description 返回记录、各步骤数据和向导步骤状态
// @Tags 就诊准备
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "记录ID"
// @Success 200 {object} util.Response{data=service.VisitView}
// @Failure 404 {object} util.Response
// @Router /api/visits/{id} [get]
func (c *VisitController) Get(ctx *gin.Context) {
	sess, ok := currentSession(ctx)
	if !ok {
		return
	}
	view, err := c.VisitService.GetRecord(ctx.Request.Context(), sess, ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// SubmitStep godoc
// @Summary 保存向导步骤
// @Description 请求体为该步骤的答案；保存成功后才前进到下一步，返回重新读取的记录
// @Tags 就诊准备
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "记录ID"
// @Param step path string true "步骤" Enums(personal_info, symptoms, daily_living, quality_of_life)
// @Param body body object true "步骤答案"
// @Success 200 {object} util.Response{data=service.VisitView}
// @Failure 400 {object} util.Response "缺少必填字段"
// @Failure 409 {object} util.Response "步骤尚不可达"
// @Router /api/visits/{id}/steps/{step} [put]
func (c *VisitController) SubmitStep(ctx *gin.Context) {
	sess, ok := currentSession(ctx)
	if !ok {
		return
	}
	raw, err := ctx.GetRawData()
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	view, err := c.VisitService.SubmitStep(ctx.Request.Context(), sess, ctx.Param("id"), ctx.Param("step"), json.RawMessage(raw))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// Delete godoc
// @Summary 删除就诊准备记录
// @Tags 就诊准备
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "记录ID"
// @Success 200 {object} util.Response
// @Router /api/visits/{id} [delete]
func (c *VisitController) Delete(ctx *gin.Context) {
	sess, ok := currentSession(ctx)
	if !ok {
		return
	}
	if err := c.VisitService.Delete(ctx.Request.Context(), sess, ctx.Param("id")); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// Report godoc
// @Summary 导出就诊准备 PDF
// @Tags 就诊准备
// @Produce application/pdf
// @Security ApiKeyAuth
// @Param id path string true "记录ID"
// @Success 200 {file} file
// @Failure 422 {object} util.Response "个人信息不完整"
// @Router /api/visits/{id}/report [get]
func (c *VisitController) Report(ctx *gin.Context) {
	sess, ok := currentSession(ctx)
	if !ok {
		return
	}
	file, err := c.ReportService.VisitReport(ctx.Request.Context(), sess, ctx.Param("id"))
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	sendPDF(ctx, file)
}
