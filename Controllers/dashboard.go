package Controllers

import (
	"Workshop/Models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type DashboardController struct {
	DB *gorm.DB
}

func NewDashboardController(db *gorm.DB) *DashboardController {
	return &DashboardController{DB: db}
}

// DashboardStats are the headline counts on the workshop landing page
type DashboardStats struct {
	TotalMachines   int64 `json:"total_machines"`
	TotalMaterials  int64 `json:"total_materials"`
	UnusedMaterials int64 `json:"unused_materials"`
	UsedMaterials   int64 `json:"used_materials"`
	TotalJobCards   int64 `json:"total_job_cards"`
	PendingJobCards int64 `json:"pending_job_cards"`
}

// GetDashboard
// GET /api/dashboard
func (c *DashboardController) GetDashboard(ctx *fiber.Ctx) error {
	var stats DashboardStats
	counts := []struct {
		target *int64
		query  *gorm.DB
	}{
		{&stats.TotalMachines, c.DB.Model(&Models.Machine{})},
		{&stats.TotalMaterials, c.DB.Model(&Models.IssuedMaterial{})},
		{&stats.UnusedMaterials, c.DB.Model(&Models.IssuedMaterial{}).Where("is_used = ?", false)},
		{&stats.UsedMaterials, c.DB.Model(&Models.IssuedMaterial{}).Where("is_used = ?", true)},
		{&stats.TotalJobCards, c.DB.Model(&Models.JobCard{})},
		{&stats.PendingJobCards, c.DB.Model(&Models.JobCard{}).
			Where("status IN ?", []Models.JobCardStatus{Models.StatusDraft, Models.StatusInProgress})},
	}

	for _, count := range counts {
		if err := count.query.Count(count.target).Error; err != nil {
			return databaseError(ctx, err)
		}
	}

	return ctx.JSON(fiber.Map{"data": stats})
}
