package Maintenance

import (
	"fmt"
	"strings"

	"Workshop/Models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

// Notifier is told about every completed auto-generate batch.
type Notifier interface {
	AutoGenerateCompleted(result *BatchResult) error
}

// MaterialGroup is the unused materials issued against one vehicle/project tag.
type MaterialGroup struct {
	Vehicle   string                  `json:"vehicle"`
	Materials []Models.IssuedMaterial `json:"materials"`
	Total     decimal.Decimal         `json:"total"`
}

type GroupResult struct {
	Success   bool            `json:"success"`
	Vehicle   string          `json:"vehicle"`
	JobCardNo string          `json:"job_card_no,omitempty"`
	ItemCount int             `json:"item_count"`
	JobCard   *Models.JobCard `json:"job_card,omitempty"`
	Error     string          `json:"error,omitempty"`
}

type BatchResult struct {
	Success       bool          `json:"success"`
	TotalJobCards int           `json:"total_job_cards"`
	Succeeded     int           `json:"succeeded"`
	Failed        int           `json:"failed"`
	Results       []GroupResult `json:"results"`
}

// GroupByVehicle buckets materials by trimmed vehicle tag, keeping the order
// in which each tag is first seen.
func GroupByVehicle(materials []Models.IssuedMaterial) []MaterialGroup {
	groups := []MaterialGroup{}
	index := map[string]int{}
	for _, material := range materials {
		vehicle := strings.TrimSpace(material.VehicleProject)
		if vehicle == "" {
			vehicle = "Unknown"
		}
		i, ok := index[vehicle]
		if !ok {
			i = len(groups)
			index[vehicle] = i
			groups = append(groups, MaterialGroup{Vehicle: vehicle, Total: decimal.Zero})
		}
		groups[i].Materials = append(groups[i].Materials, material)
		groups[i].Total = groups[i].Total.Add(material.Total)
	}
	return groups
}

// UnusedGroups previews what AutoGenerateAll would create.
func (s *Service) UnusedGroups() ([]MaterialGroup, error) {
	var materials []Models.IssuedMaterial
	if err := s.DB.Where("is_used = ?", false).
		Order("vehicle_project ASC, mrn_no ASC, id ASC").
		Find(&materials).Error; err != nil {
		return nil, fmt.Errorf("failed to load unused materials: %w", err)
	}
	return GroupByVehicle(materials), nil
}

// AutoGenerateAll creates one draft job card per vehicle group of unused
// materials. Each group commits or rolls back on its own, so one failure
// leaves the other groups' cards in place. When vehicles is non-empty only
// those groups are processed.
func (s *Service) AutoGenerateAll(vehicles []string) (*BatchResult, error) {
	groups, err := s.UnusedGroups()
	if err != nil {
		return nil, err
	}

	wanted := make([]string, 0, len(vehicles))
	for _, vehicle := range vehicles {
		if vehicle = strings.TrimSpace(vehicle); vehicle != "" {
			wanted = append(wanted, vehicle)
		}
	}

	result := &BatchResult{Success: true, Results: []GroupResult{}}
	for _, group := range groups {
		if len(wanted) > 0 && !slices.Contains(wanted, group.Vehicle) {
			continue
		}

		card, err := s.generate(group.Vehicle, materialIDs(group.Materials))
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"vehicle":   group.Vehicle,
				"materials": len(group.Materials),
			}).WithError(err).Warn("auto-generate failed for group")
			result.Failed++
			result.Results = append(result.Results, GroupResult{
				Success:   false,
				Vehicle:   group.Vehicle,
				ItemCount: len(group.Materials),
				Error:     err.Error(),
			})
			continue
		}

		result.Succeeded++
		result.Results = append(result.Results, GroupResult{
			Success:   true,
			Vehicle:   group.Vehicle,
			JobCardNo: card.JobCardNo,
			ItemCount: len(card.Items),
			JobCard:   card,
		})
	}
	result.TotalJobCards = result.Succeeded

	logrus.WithFields(logrus.Fields{
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
	}).Info("auto-generate batch finished")

	if s.Notifier != nil && len(result.Results) > 0 {
		if err := s.Notifier.AutoGenerateCompleted(result); err != nil {
			logrus.WithError(err).Warn("failed to send auto-generate summary")
		}
	}
	return result, nil
}

// AutoGenerateForVehicle creates a draft job card for the given materials.
func (s *Service) AutoGenerateForVehicle(vehicle string, ids []uint) (*Models.JobCard, error) {
	vehicle = strings.TrimSpace(vehicle)
	if vehicle == "" {
		return nil, fmt.Errorf("%w: vehicle_reg_no is required", ErrValidation)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: at least one material is required", ErrValidation)
	}
	return s.generate(vehicle, ids)
}

func (s *Service) generate(vehicle string, ids []uint) (*Models.JobCard, error) {
	items := make([]Models.JobCardItemRequest, 0, len(ids))
	for _, id := range ids {
		items = append(items, Models.JobCardItemRequest{IssuedMaterialID: id})
	}
	return s.Create(Models.JobCardRequest{
		VehicleRegNo:   vehicle,
		JobDescription: "Auto-generated from issued materials",
		Status:         string(Models.StatusDraft),
		Items:          items,
	})
}

func materialIDs(materials []Models.IssuedMaterial) []uint {
	ids := make([]uint, 0, len(materials))
	for _, material := range materials {
		ids = append(ids, material.ID)
	}
	return ids
}
