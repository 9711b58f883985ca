package controller

import (
	"fmt"
	"health_track_backend/internal/service"
	"health_track_backend/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
)

type MedicalRecordController struct {
	MedicalRecordService *service.MedicalRecordService
}

func NewMedicalRecordController(medicalRecordService *service.MedicalRecordService) *MedicalRecordController {
	return &MedicalRecordController{MedicalRecordService: medicalRecordService}
}

// Upload godoc
// @Summary 上传病历
// @Description 支持 PDF 和图片，按文件内容判断类型
// @Tags 病历
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param category formData string false "分类" Enums(lab_result, imaging, prescription, letter, other)
// @Param description formData string false "描述"
// @Param recordDate formData string false "日期 YYYY-MM-DD"
// @Param file formData file true "文件"
// @Success 201 {object} util.Response{data=model.MedicalRecord}
// @Failure 400 {object} util.Response
// @Router /api/records [post]
func (c *MedicalRecordController) Upload(ctx *gin.Context) {
	sess, ok := currentSession(ctx)
	if !ok {
		return
	}
	var req service.MedicalRecordInput
	if err := ctx.ShouldBind(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	file, err := ctx.FormFile("file")
	if err != nil {
		util.RespondError(ctx, util.NewValidationError("file"))
		return
	}
	rec, err := c.MedicalRecordService.Upload(ctx.Request.Context(), sess, req, file)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Created(ctx, rec)
}

// List godoc
// @Summary 病历列表
// @Tags 病历
// @Produce json
// @Security ApiKeyAuth
// @Param category query string false "分类"
// @Param page query int false "页码" default(1)
// @Param limit query int false "每页数量" default(20)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/records [get]
func (c *MedicalRecordController) List(ctx *gin.Context) {
	sess, ok := currentSession(ctx)
	if !ok {
		return
	}
	page := intQuery(ctx, "page", 1)
	limit := intQuery(ctx, "limit", 20)
	records, total, err := c.MedicalRecordService.List(ctx.Request.Context(), sess, ctx.Query("category"), page, limit)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: records, Total: total, Page: page, Limit: limit})
}

// Download godoc
// @Summary 下载病历
// @Tags 病历
// @Produce octet-stream
// @Security ApiKeyAuth
// @Param id path int true "病历ID"
// @Success 200 {file} file
// @Failure 404 {object} util.Response
// @Router /api/records/{id}/download [get]
func (c *MedicalRecordController) Download(ctx *gin.Context) {
	sess, ok := currentSession(ctx)
	if !ok {
		return
	}
	id, ok := uintParam(ctx, "id")
	if !ok {
		return
	}
	rec, body, err := c.MedicalRecordService.Download(ctx.Request.Context(), sess, id)
	if err != nil {
		util.RespondError(ctx, err)
		return
	}
	defer body.Close()

	ctx.DataFromReader(http.StatusOK, rec.Size, rec.ContentType, body, map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, rec.FileName),
	})
}

// Delete godoc
// @Summary 删除病历
// @Tags 病历
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "病历ID"
// @Success 200 {object} util.Response
// @Router /api/records/{id} [delete]
func (c *MedicalRecordController) Delete(ctx *gin.Context) {
	sess, ok := currentSession(ctx)
	if !ok {
		return
	}
	id, ok := uintParam(ctx, "id")
	if !ok {
		return
	}
	if err := c.MedicalRecordService.Delete(ctx.Request.Context(), sess, id); err != nil {
		util.RespondError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
