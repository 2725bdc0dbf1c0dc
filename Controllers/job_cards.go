package Controllers

import (
	"Workshop/Maintenance"
	"Workshop/Models"

	"github.com/gofiber/fiber/v2"
)

// JobCardController exposes the job card lifecycle. Every write goes through
// the Maintenance service so that material usage stays reconciled.
type JobCardController struct {
	Service *Maintenance.Service
}

func NewJobCardController(service *Maintenance.Service) *JobCardController {
	return &JobCardController{Service: service}
}

// GetJobCards lists job cards, newest first
// GET /api/job-cards?search=&status=&vehicle=&limit=&offset=
func (c *JobCardController) GetJobCards(ctx *fiber.Ctx) error {
	limit, offset := pagination(ctx, 50)
	cards, total, err := c.Service.List(Maintenance.ListFilter{
		Search:  ctx.Query("search"),
		Status:  ctx.Query("status"),
		Vehicle: ctx.Query("vehicle"),
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		return maintenanceError(ctx, "Failed to list job cards", err)
	}

	return ctx.JSON(fiber.Map{
		"data":   cards,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (c *JobCardController) GetJobCard(ctx *fiber.Ctx) error {
	id, err := parseID(ctx)
	if err != nil {
		return invalidID(ctx)
	}

	card, err := c.Service.Get(id)
	if err != nil {
		return maintenanceError(ctx, "Job card not found", err)
	}
	return ctx.JSON(fiber.Map{"data": card})
}

// CreateJobCard opens a job card and attaches the listed materials
// POST /api/job-cards
func (c *JobCardController) CreateJobCard(ctx *fiber.Ctx) error {
	var req Models.JobCardRequest
	if ok, err := parseBody(ctx, &req); !ok {
		return err
	}

	card, err := c.Service.Create(req)
	if err != nil {
		return maintenanceError(ctx, "Failed to create job card", err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Job card created successfully",
		"data":    card,
	})
}

// UpdateJobCard rewrites a job card. Sending "items" or "outside_works"
// replaces both lists; omitting them keeps the current ones.
// PUT /api/job-cards/:id
func (c *JobCardController) UpdateJobCard(ctx *fiber.Ctx) error {
	id, err := parseID(ctx)
	if err != nil {
		return invalidID(ctx)
	}

	var req Models.JobCardRequest
	if ok, err := parseBody(ctx, &req); !ok {
		return err
	}

	card, err := c.Service.Update(id, req)
	if err != nil {
		return maintenanceError(ctx, "Failed to update job card", err)
	}

	return ctx.JSON(fiber.Map{
		"message": "Job card updated successfully",
		"data":    card,
	})
}

// UpdateJobCardStatus moves a card through DRAFT/IN_PROGRESS/COMPLETED/CANCELLED
// PATCH /api/job-cards/:id/status
func (c *JobCardController) UpdateJobCardStatus(ctx *fiber.Ctx) error {
	id, err := parseID(ctx)
	if err != nil {
		return invalidID(ctx)
	}

	var req Models.JobCardStatusRequest
	if ok, err := parseBody(ctx, &req); !ok {
		return err
	}

	card, err := c.Service.UpdateStatus(id, Models.JobCardStatus(req.Status))
	if err != nil {
		return maintenanceError(ctx, "Failed to update job card status", err)
	}

	return ctx.JSON(fiber.Map{
		"message": "Job card status updated successfully",
		"data":    card,
	})
}

// DeleteJobCard removes a card and returns its materials to the unused pool
// DELETE /api/job-cards/:id
func (c *JobCardController) DeleteJobCard(ctx *fiber.Ctx) error {
	id, err := parseID(ctx)
	if err != nil {
		return invalidID(ctx)
	}

	if err := c.Service.Delete(id); err != nil {
		return maintenanceError(ctx, "Failed to delete job card", err)
	}
	return ctx.JSON(fiber.Map{"message": "Job card deleted successfully"})
}

// PrintJobCard renders the printable job card sheet
// GET /api/job-cards/:id/print
func (c *JobCardController) PrintJobCard(ctx *fiber.Ctx) error {
	id, err := parseID(ctx)
	if err != nil {
		return invalidID(ctx)
	}

	card, err := c.Service.Get(id)
	if err != nil {
		return maintenanceError(ctx, "Job card not found", err)
	}

	return ctx.Render("job_card", fiber.Map{
		"Card":          card,
		"SundryPercent": Models.SundryRate.Shift(2).String(),
	})
}

// AutoGenerate creates a draft job card for one vehicle's materials
// POST /api/job-cards/auto-generate
func (c *JobCardController) AutoGenerate(ctx *fiber.Ctx) error {
	var req Models.AutoGenerateRequest
	if ok, err := parseBody(ctx, &req); !ok {
		return err
	}

	ids := make([]uint, 0, len(req.Materials))
	for _, material := range req.Materials {
		ids = append(ids, material.ID)
	}

	card, err := c.Service.AutoGenerateForVehicle(req.VehicleRegNo, ids)
	if err != nil {
		return maintenanceError(ctx, "Failed to auto-generate job card", err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":     true,
		"job_card_no": card.JobCardNo,
		"data":        card,
	})
}

// AutoGenerateAll creates one draft job card per vehicle with unused
// materials. An optional {"vehicles": [...]} body limits the batch.
// POST /api/job-cards/auto-generate/all
func (c *JobCardController) AutoGenerateAll(ctx *fiber.Ctx) error {
	var req Models.AutoGenerateAllRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "Invalid request body",
				"message": err.Error(),
			})
		}
	}

	result, err := c.Service.AutoGenerateAll(req.Vehicles)
	if err != nil {
		return maintenanceError(ctx, "Failed to auto-generate job cards", err)
	}
	return ctx.JSON(result)
}
