package controller

import (
	"health_track_backend/internal/service"
	"health_track_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type MedicationController struct {
	MedicationService *service.MedicationService
	ReportService     *service.ReportService
}

func NewMedicationController(medicationService *service.MedicationService, reportService *service.ReportService) *MedicationController {
	return &MedicationController{MedicationService: medicationService, ReportService: reportService}
}

// NoteRequest 用药备注
// swagger:model NoteRequest
type NoteRequest struct {
	Notes string `json:"notes"`
}

// List godoc
// @Summary 用药列表
// @Description 正在使用的排在前面
// @Tags 用药记录
// @Produce json
// @Security ApiKeyAuth
// @Param active query bool false "只返回正在使用的"
// @Success 200 {object} util.Response{data=[]model.Medication}
// @Failure 403 {object} util.Response "未解锁"
// @Router /api/medications [get]
func (c *MedicationController) List(ctx *gin.Context) {
	sess, ok := currentSession(ctx)
	if !ok {
		return
	}
	meds, err := c.MedicationService.List(ctx.Request.Context(), sess, ctx.Query("active") == "true")
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, meds)
}

// Add godoc
// @Summary 新增用药
// @Tags 用药记录
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body service.MedicationInput true "用药信息"
// @Success 201 {object} util.Response{data=model.Medication}
// @Failure 400 {object} util.Response
// @Router /api/medications [post]
func (c *MedicationController) Add(ctx *gin.Context) {
	sess, ok := currentSession(ctx)
	if !ok {
		return
	}
	var req service.MedicationInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	med, err := c.MedicationService.Add(ctx.Request.Context(), sess, req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, med)
}

// Update godoc
// @Summary 修改用药
// @Description 剂量或频次变化会写入历史
// @Tags 用药记录
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "用药ID"
// @Param body body service.MedicationUpdate true "修改内容"
// @Success 200 {object} util.Response{data=model.Medication}
// @Failure 409 {object} util.Response "已停药"
// @Router /api/medications/{id} [put]
func (c *MedicationController) Update(ctx *gin.Context) {
	sess, ok := currentSession(ctx)
	if !ok {
		return
	}
	id, ok := uintParam(ctx, "id")
	if !ok {
		return
	}
	var req service.MedicationUpdate
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	med, err := c.MedicationService.Update(ctx.Request.Context(), sess, id, req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, med)
}

// Stop godoc
// @Summary 停药
// @Tags 用药记录
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "用药ID"
// @Param body body service.StopInput true "停药日期和原因"
// @Success 200 {object} util.Response{data=model.Medication}
// @Failure 409 {object} util.Response "已停药"
// @Router /api/medications/{id}/stop [post]
func (c *MedicationController) Stop(ctx *gin.Context) {
	sess, ok := currentSession(ctx)
	if !ok {
		return
	}
	id, ok := uintParam(ctx, "id")
	if !ok {
		return
	}
	var req service.StopInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	med, err := c.MedicationService.Stop(ctx.Request.Context(), sess, id, req)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, med)
}

// AddNote godoc
// @Summary 添加用药备注
// @Tags 用药记录
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "用药ID"
// @Param body body NoteRequest true "备注"
// @Success 201 {object} util.Response{data=service.HistoryItem}
// @Router /api/medications/{id}/notes [post]
func (c *MedicationController) AddNote(ctx *gin.Context) {
	sess, ok := currentSession(ctx)
	if !ok {
		return
	}
	id, ok := uintParam(ctx, "id")
	if !ok {
		return
	}
	var req NoteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	item, err := c.MedicationService.AddNote(ctx.Request.Context(), sess, id, req.Notes)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, item)
}

// History godoc
// @Summary 用药历史
// @Tags 用药记录
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "用药ID"
// @Success 200 {object} util.Response{data=[]service.HistoryItem}
// @Router /api/medications/{id}/history [get]
func (c *MedicationController) History(ctx *gin.Context) {
	sess, ok := currentSession(ctx)
	if !ok {
		return
	}
	id, ok := uintParam(ctx, "id")
	if !ok {
		return
	}
	items, err := c.MedicationService.History(ctx.Request.Context(), sess, id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, items)
}

// Delete godoc
// @Summary 删除用药
// @Description 同时删除该用药的历史
// @Tags 用药记录
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "用药ID"
// @Success 200 {object} util.Response
// @Router /api/medications/{id} [delete]
func (c *MedicationController) Delete(ctx *gin.Context) {
	sess, ok := currentSession(ctx)
	if !ok {
		return
	}
	id, ok := uintParam(ctx, "id")
	if !ok {
		return
	}
	if err := c.MedicationService.Delete(ctx.Request.Context(), sess, id); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// Report godoc
// @Summary 导出用药记录 PDF
// @Tags 用药记录
// @Produce application/pdf
// @Security ApiKeyAuth
// @Success 200 {file} file
// @Router /api/medications/report [get]
func (c *MedicationController) Report(ctx *gin.Context) {
	sess, ok := currentSession(ctx)
	if !ok {
		return
	}
	file, err := c.ReportService.MedicationReport(ctx.Request.Context(), sess)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	sendPDF(ctx, file)
}
