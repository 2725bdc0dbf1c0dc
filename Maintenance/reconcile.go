package Maintenance

import (
	"fmt"

	"Workshop/Models"

	"gorm.io/gorm"
)

// Attach marks materials as consumed. It must run in the same transaction
// that creates the job card items pointing at them.
func Attach(tx *gorm.DB, ids []uint) error {
	return setUsed(tx, ids, true)
}

// Detach releases materials back to the unused pool.
func Detach(tx *gorm.DB, ids []uint) error {
	return setUsed(tx, ids, false)
}

func setUsed(tx *gorm.DB, ids []uint, used bool) error {
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Model(&Models.IssuedMaterial{}).
		Where("id IN ?", ids).
		Update("is_used", used).Error; err != nil {
		return fmt.Errorf("failed to set is_used=%t on %d materials: %w", used, len(ids), err)
	}
	return nil
}

// loadAttachable fetches the requested materials and checks that each one
// exists, appears once and is free or already belongs to jobCardID.
// Pass jobCardID 0 for a card that does not exist yet.
func loadAttachable(tx *gorm.DB, ids []uint, jobCardID uint) (map[uint]Models.IssuedMaterial, error) {
	materials := make(map[uint]Models.IssuedMaterial, len(ids))
	if len(ids) == 0 {
		return materials, nil
	}

	seen := make(map[uint]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return nil, fmt.Errorf("%w: issued material %d listed more than once", ErrValidation, id)
		}
		seen[id] = true
	}

	var found []Models.IssuedMaterial
	if err := tx.Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, fmt.Errorf("failed to load issued materials: %w", err)
	}
	for _, material := range found {
		materials[material.ID] = material
	}
	for _, id := range ids {
		if _, ok := materials[id]; !ok {
			return nil, fmt.Errorf("%w: issued material %d", ErrNotFound, id)
		}
	}

	owned := map[uint]bool{}
	if jobCardID != 0 {
		var ownedIDs []uint
		if err := tx.Model(&Models.JobCardItem{}).
			Where("job_card_id = ?", jobCardID).
			Pluck("issued_material_id", &ownedIDs).Error; err != nil {
			return nil, fmt.Errorf("failed to load job card items: %w", err)
		}
		for _, id := range ownedIDs {
			owned[id] = true
		}
	}

	for _, id := range ids {
		if materials[id].IsUsed && !owned[id] {
			return nil, fmt.Errorf("%w: issued material %d (%s)", ErrMaterialInUse, id, materials[id].MRNNo)
		}
	}
	return materials, nil
}
