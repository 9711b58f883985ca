package controller

import (
	"fmt"
	"health_track_backend/internal/middleware"
	"health_track_backend/internal/service"
	"health_track_backend/internal/util"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// currentSession 未登录时直接写 401
func currentSession(ctx *gin.Context) (service.Session, bool) {
	sess, ok := middleware.SessionFrom(ctx)
	if !ok {
		util.Unauthorized(ctx)
	}
	return sess, ok
}

// uintParam 路径参数解析失败时写 400
func uintParam(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil || id == 0 {
		util.RespondError(ctx, util.NewValidationError(name))
		return 0, false
	}
	return uint(id), true
}

func intQuery(ctx *gin.Context, name string, fallback int) int {
	v, err := strconv.Atoi(ctx.Query(name))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func sendPDF(ctx *gin.Context, file *service.ReportFile) {
	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file.Filename))
	ctx.Data(http.StatusOK, util.MimePDF, file.Data)
}
