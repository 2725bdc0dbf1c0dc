package Controllers

import (
	"errors"
	"strings"
	"time"

	"Workshop/Maintenance"
	"Workshop/Models"
	"Workshop/Spreadsheet"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// MaterialController handles issued materials (MRN lines)
type MaterialController struct {
	DB      *gorm.DB
	Service *Maintenance.Service
}

func NewMaterialController(db *gorm.DB, service *Maintenance.Service) *MaterialController {
	return &MaterialController{DB: db, Service: service}
}

func (c *MaterialController) filtered(ctx *fiber.Ctx) func(*gorm.DB) *gorm.DB {
	search := strings.TrimSpace(ctx.Query("search"))
	category := strings.TrimSpace(ctx.Query("category"))
	vehicle := strings.TrimSpace(ctx.Query("vehicle"))
	mrnNo := strings.TrimSpace(ctx.Query("mrn_no"))
	isUsed := ctx.Query("is_used")

	return func(db *gorm.DB) *gorm.DB {
		if search != "" {
			like := "%" + search + "%"
			db = db.Where("(description LIKE ? OR mrn_no LIKE ? OR vehicle_project LIKE ?)", like, like, like)
		}
		if category != "" {
			db = db.Where("category = ?", category)
		}
		if vehicle != "" {
			db = db.Where("vehicle_project LIKE ?", "%"+vehicle+"%")
		}
		if mrnNo != "" {
			db = db.Where("mrn_no = ?", mrnNo)
		}
		switch isUsed {
		case "true":
			db = db.Where("is_used = ?", true)
		case "false":
			db = db.Where("is_used = ?", false)
		}
		return db
	}
}

// GetMaterials lists issued materials, newest first
// GET /api/materials?search=&category=&vehicle=&mrn_no=&is_used=&limit=&offset=
func (c *MaterialController) GetMaterials(ctx *fiber.Ctx) error {
	limit, offset := pagination(ctx, 100)
	scope := c.filtered(ctx)

	var total int64
	if err := c.DB.Model(&Models.IssuedMaterial{}).Scopes(scope).Count(&total).Error; err != nil {
		return databaseError(ctx, err)
	}

	var materials []Models.IssuedMaterial
	if err := c.DB.Scopes(scope).
		Order("date DESC, mrn_no ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&materials).Error; err != nil {
		return databaseError(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"data":   materials,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (c *MaterialController) GetMaterial(ctx *fiber.Ctx) error {
	id, err := parseID(ctx)
	if err != nil {
		return invalidID(ctx)
	}

	var material Models.IssuedMaterial
	if err := c.DB.First(&material, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Material not found"})
		}
		return databaseError(ctx, err)
	}
	return ctx.JSON(fiber.Map{"data": material})
}

// parseMaterial reads and validates a material body. The response is already
// written when ok is false.
func parseMaterial(ctx *fiber.Ctx) (req Models.MaterialRequest, date time.Time, ok bool, err error) {
	if ok, err = parseBody(ctx, &req); !ok {
		return
	}
	req.Trim()
	if req.MRNNo == "" || req.Description == "" {
		return req, date, false, ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Validation failed",
			"message": "mrn_no and description are required",
		})
	}

	parsed, parseErr := Models.ParseRequestDate(req.Date)
	if parseErr != nil {
		return req, date, false, ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid date format",
			"message": parseErr.Error(),
		})
	}
	date = time.Now()
	if parsed != nil {
		date = *parsed
	}
	return req, date, true, nil
}

// CreateMaterial records a single MRN line
// POST /api/materials
func (c *MaterialController) CreateMaterial(ctx *fiber.Ctx) error {
	req, date, ok, err := parseMaterial(ctx)
	if !ok {
		return err
	}

	var material Models.IssuedMaterial
	req.Apply(&material, date)
	if err := c.DB.Create(&material).Error; err != nil {
		return databaseError(ctx, err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Material created successfully",
		"data":    material,
	})
}

// UpdateMaterial edits an MRN line. The used flag is owned by job cards and
// cannot be changed here.
// PUT /api/materials/:id
func (c *MaterialController) UpdateMaterial(ctx *fiber.Ctx) error {
	id, err := parseID(ctx)
	if err != nil {
		return invalidID(ctx)
	}
	req, date, ok, err := parseMaterial(ctx)
	if !ok {
		return err
	}

	var material Models.IssuedMaterial
	if err := c.DB.First(&material, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Material not found"})
		}
		return databaseError(ctx, err)
	}

	req.Apply(&material, date)
	if err := c.DB.Model(&material).
		Select("date", "mrn_no", "description", "unit", "qty", "vehicle_project", "remark", "price", "total", "category").
		Updates(&material).Error; err != nil {
		return databaseError(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"message": "Material updated successfully",
		"data":    material,
	})
}

// DeleteMaterial removes an unused MRN line
// DELETE /api/materials/:id
func (c *MaterialController) DeleteMaterial(ctx *fiber.Ctx) error {
	id, err := parseID(ctx)
	if err != nil {
		return invalidID(ctx)
	}

	var material Models.IssuedMaterial
	if err := c.DB.First(&material, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Material not found"})
		}
		return databaseError(ctx, err)
	}
	if material.IsUsed {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   "Material in use",
			"message": "Remove the material from its job card before deleting it",
		})
	}

	if err := c.DB.Delete(&material).Error; err != nil {
		return databaseError(ctx, err)
	}
	return ctx.JSON(fiber.Map{"message": "Material deleted successfully"})
}

// GetUnusedGroups previews the auto-generate batch
// GET /api/materials/unused-groups
func (c *MaterialController) GetUnusedGroups(ctx *fiber.Ctx) error {
	groups, err := c.Service.UnusedGroups()
	if err != nil {
		return maintenanceError(ctx, "Failed to load unused materials", err)
	}
	return ctx.JSON(fiber.Map{
		"data":  groups,
		"total": len(groups),
	})
}

// ImportMaterials bulk-loads MRN lines from an uploaded workbook
// POST /api/materials/import (multipart field "file")
func (c *MaterialController) ImportMaterials(ctx *fiber.Ctx) error {
	table, fileName, err := readUpload(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid upload",
			"message": err.Error(),
		})
	}

	summary := Spreadsheet.ImportMaterials(c.DB, fileName, table, time.Now()).Reported()
	return ctx.JSON(fiber.Map{
		"success":  true,
		"imported": summary.Imported,
		"skipped":  summary.Skipped,
		"total":    summary.Total,
		"errors":   summary.Errors,
	})
}

// ExportMaterials downloads materials as xlsx, optionally for one category
// GET /api/materials/export?category=
func (c *MaterialController) ExportMaterials(ctx *fiber.Ctx) error {
	category := Spreadsheet.ExportCategory(ctx.Query("category"))

	query := c.DB.Order("date DESC, mrn_no ASC, id ASC")
	if category != "" {
		query = query.Where("category = ?", category)
	}
	var materials []Models.IssuedMaterial
	if err := query.Find(&materials).Error; err != nil {
		return databaseError(ctx, err)
	}

	buf, err := Spreadsheet.ExportMaterials(materials)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to build workbook",
			"message": err.Error(),
		})
	}
	return sendWorkbook(ctx, Spreadsheet.MaterialsFileName(category, time.Now()), buf.Bytes())
}
