package repository

import (
	"context"
	"errors"
	"health_track_backend/internal/util"

	"gorm.io/gorm"
)

// writeCtx 客户端断开时已开始的写入仍执行完
func writeCtx(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return util.ErrNotFound
	}
	return err
}

func duplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func paginate(page, limit int) (offset, size int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return (page - 1) * limit, limit
}
