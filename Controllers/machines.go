package Controllers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"Workshop/Models"
	"Workshop/Spreadsheet"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// MachineController handles the machine register
type MachineController struct {
	DB *gorm.DB
}

func NewMachineController(db *gorm.DB) *MachineController {
	return &MachineController{DB: db}
}

func (c *MachineController) filtered(ctx *fiber.Ctx) func(*gorm.DB) *gorm.DB {
	search := strings.TrimSpace(ctx.Query("search"))
	machineType := strings.TrimSpace(ctx.Query("type"))
	return func(db *gorm.DB) *gorm.DB {
		if search != "" {
			like := "%" + search + "%"
			db = db.Where("(registration_no LIKE ? OR ec_no LIKE ? OR brand LIKE ? OR type LIKE ?)", like, like, like, like)
		}
		if machineType != "" {
			db = db.Where("type = ?", machineType)
		}
		return db
	}
}

// GetMachines lists machines
// GET /api/machines?search=&type=&limit=&offset=
func (c *MachineController) GetMachines(ctx *fiber.Ctx) error {
	limit, offset := pagination(ctx, 100)
	scope := c.filtered(ctx)

	var total int64
	if err := c.DB.Model(&Models.Machine{}).Scopes(scope).Count(&total).Error; err != nil {
		return databaseError(ctx, err)
	}

	var machines []Models.Machine
	if err := c.DB.Scopes(scope).Order("registration_no ASC").Limit(limit).Offset(offset).Find(&machines).Error; err != nil {
		return databaseError(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"data":   machines,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (c *MachineController) GetMachine(ctx *fiber.Ctx) error {
	id, err := parseID(ctx)
	if err != nil {
		return invalidID(ctx)
	}

	var machine Models.Machine
	if err := c.DB.First(&machine, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Machine not found"})
		}
		return databaseError(ctx, err)
	}
	return ctx.JSON(fiber.Map{"data": machine})
}

func (c *MachineController) registrationTaken(registrationNo string, exceptID uint) (bool, error) {
	var count int64
	err := c.DB.Model(&Models.Machine{}).
		Where("registration_no = ? AND id <> ?", registrationNo, exceptID).
		Count(&count).Error
	return count > 0, err
}

// CreateMachine registers a machine
// POST /api/machines
func (c *MachineController) CreateMachine(ctx *fiber.Ctx) error {
	var req Models.MachineRequest
	if ok, err := parseBody(ctx, &req); !ok {
		return err
	}
	req.RegistrationNo = strings.TrimSpace(req.RegistrationNo)
	if req.RegistrationNo == "" {
		return blankRegistration(ctx)
	}

	taken, err := c.registrationTaken(req.RegistrationNo, 0)
	if err != nil {
		return databaseError(ctx, err)
	}
	if taken {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   "Duplicate registration number",
			"message": fmt.Sprintf("Machine with registration number %s already exists", req.RegistrationNo),
		})
	}

	var machine Models.Machine
	req.Apply(&machine)
	if err := c.DB.Create(&machine).Error; err != nil {
		return databaseError(ctx, err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Machine created successfully",
		"data":    machine,
	})
}

func blankRegistration(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":   "Validation failed",
		"message": "registration_no is required",
	})
}

// UpdateMachine replaces a machine's fields
// PUT /api/machines/:id
func (c *MachineController) UpdateMachine(ctx *fiber.Ctx) error {
	id, err := parseID(ctx)
	if err != nil {
		return invalidID(ctx)
	}

	var req Models.MachineRequest
	if ok, err := parseBody(ctx, &req); !ok {
		return err
	}
	req.RegistrationNo = strings.TrimSpace(req.RegistrationNo)
	if req.RegistrationNo == "" {
		return blankRegistration(ctx)
	}

	var machine Models.Machine
	if err := c.DB.First(&machine, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Machine not found"})
		}
		return databaseError(ctx, err)
	}

	taken, err := c.registrationTaken(req.RegistrationNo, machine.ID)
	if err != nil {
		return databaseError(ctx, err)
	}
	if taken {
		return ctx.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   "Duplicate registration number",
			"message": fmt.Sprintf("Machine with registration number %s already exists", req.RegistrationNo),
		})
	}

	req.Apply(&machine)
	if err := c.DB.Save(&machine).Error; err != nil {
		return databaseError(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"message": "Machine updated successfully",
		"data":    machine,
	})
}

// DeleteMachine removes a machine. Job cards keep their registration number.
// DELETE /api/machines/:id
func (c *MachineController) DeleteMachine(ctx *fiber.Ctx) error {
	id, err := parseID(ctx)
	if err != nil {
		return invalidID(ctx)
	}

	result := c.DB.Delete(&Models.Machine{}, id)
	if result.Error != nil {
		return databaseError(ctx, result.Error)
	}
	if result.RowsAffected == 0 {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Machine not found"})
	}
	return ctx.JSON(fiber.Map{"message": "Machine deleted successfully"})
}

// ImportMachines bulk-loads machines from an uploaded workbook
// POST /api/machines/import (multipart field "file")
func (c *MachineController) ImportMachines(ctx *fiber.Ctx) error {
	table, fileName, err := readUpload(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid upload",
			"message": err.Error(),
		})
	}

	summary := Spreadsheet.ImportMachines(c.DB, fileName, table).Reported()
	return ctx.JSON(fiber.Map{
		"success":  true,
		"imported": summary.Imported,
		"skipped":  summary.Skipped,
		"total":    summary.Total,
		"errors":   summary.Errors,
	})
}

// ExportMachines downloads the register as xlsx
// GET /api/machines/export
func (c *MachineController) ExportMachines(ctx *fiber.Ctx) error {
	var machines []Models.Machine
	if err := c.DB.Order("registration_no ASC").Find(&machines).Error; err != nil {
		return databaseError(ctx, err)
	}

	buf, err := Spreadsheet.ExportMachines(machines)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   "Failed to build workbook",
			"message": err.Error(),
		})
	}

	fileName := fmt.Sprintf("machines_export_%s.xlsx", time.Now().Format("2006-01-02"))
	return sendWorkbook(ctx, fileName, buf.Bytes())
}

// readUpload decodes the multipart "file" field into a table.
func readUpload(ctx *fiber.Ctx) (*Spreadsheet.Table, string, error) {
	header, err := ctx.FormFile("file")
	if err != nil {
		return nil, "", errors.New("no file uploaded")
	}
	file, err := header.Open()
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	table, err := Spreadsheet.ReadTable(header.Filename, file)
	if err != nil {
		return nil, "", err
	}
	return table, header.Filename, nil
}

func sendWorkbook(ctx *fiber.Ctx, fileName string, body []byte) error {
	ctx.Set("Content-Type", Spreadsheet.ContentTypeXLSX)
	ctx.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	return ctx.Send(body)
}
