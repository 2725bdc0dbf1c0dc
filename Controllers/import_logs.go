package Controllers

import (
	"strings"

	"Workshop/Models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ImportLogController struct {
	DB *gorm.DB
}

func NewImportLogController(db *gorm.DB) *ImportLogController {
	return &ImportLogController{DB: db}
}

// GetImportLogs lists spreadsheet uploads, most recent first
// GET /api/import-logs?kind=materials|machines&limit=&offset=
func (c *ImportLogController) GetImportLogs(ctx *fiber.Ctx) error {
	limit, offset := pagination(ctx, 20)

	query := c.DB.Model(&Models.ImportLog{})
	if kind := strings.TrimSpace(ctx.Query("kind")); kind != "" {
		query = query.Where("kind = ?", kind)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return databaseError(ctx, err)
	}

	var logs []Models.ImportLog
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&logs).Error; err != nil {
		return databaseError(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"data":   logs,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}
