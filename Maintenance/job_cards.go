package Maintenance

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"Workshop/Models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service owns every write that touches job cards and the is_used flag.
type Service struct {
	DB        *gorm.DB
	Sequencer *Sequencer
	Notifier  Notifier
	Now       func() time.Time
}

func NewService(db *gorm.DB, sequencer *Sequencer) *Service {
	return &Service{DB: db, Sequencer: sequencer, Now: time.Now}
}

type ListFilter struct {
	Search  string
	Status  string
	Vehicle string
	Limit   int
	Offset  int
}

func (f ListFilter) apply(db *gorm.DB) *gorm.DB {
	if search := strings.TrimSpace(f.Search); search != "" {
		like := "%" + search + "%"
		db = db.Where("(job_card_no LIKE ? OR vehicle_reg_no LIKE ? OR driver_operator_name LIKE ?)", like, like, like)
	}
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}
	if vehicle := strings.TrimSpace(f.Vehicle); vehicle != "" {
		db = db.Where("vehicle_reg_no LIKE ?", "%"+vehicle+"%")
	}
	return db
}

func preloadCard(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).Preload("Items.IssuedMaterial").Preload("OutsideWorks", func(db *gorm.DB) *gorm.DB {
		return db.Order("date ASC, id ASC")
	})
}

func (s *Service) List(filter ListFilter) ([]Models.JobCard, int64, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}

	var total int64
	if err := s.DB.Model(&Models.JobCard{}).Scopes(filter.apply).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var cards []Models.JobCard
	if err := s.DB.Scopes(filter.apply, preloadCard).
		Order("created_at DESC, id DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&cards).Error; err != nil {
		return nil, 0, err
	}

	if err := s.attachMachines(cards); err != nil {
		return nil, 0, err
	}
	return cards, total, nil
}

func (s *Service) Get(id uint) (*Models.JobCard, error) {
	var card Models.JobCard
	if err := s.DB.Scopes(preloadCard).First(&card, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: job card %d", ErrNotFound, id)
		}
		return nil, err
	}

	cards := []Models.JobCard{card}
	if err := s.attachMachines(cards); err != nil {
		return nil, err
	}
	return &cards[0], nil
}

// attachMachines resolves each card's machine by registration number.
// A card whose vehicle is not registered keeps a nil Machine.
func (s *Service) attachMachines(cards []Models.JobCard) error {
	if len(cards) == 0 {
		return nil
	}
	regNos := make([]string, 0, len(cards))
	for _, card := range cards {
		regNos = append(regNos, card.VehicleRegNo)
	}

	var machines []Models.Machine
	if err := s.DB.Where("registration_no IN ?", regNos).Find(&machines).Error; err != nil {
		return err
	}
	byRegNo := make(map[string]*Models.Machine, len(machines))
	for i := range machines {
		byRegNo[machines[i].RegistrationNo] = &machines[i]
	}
	for i := range cards {
		cards[i].Machine = byRegNo[cards[i].VehicleRegNo]
	}
	return nil
}

// Create numbers and stores a job card, its items and outside works, and
// marks the referenced materials used. Nothing is written on failure.
func (s *Service) Create(req Models.JobCardRequest) (*Models.JobCard, error) {
	card, err := s.cardFromRequest(req)
	if err != nil {
		return nil, err
	}
	if card.Status == "" {
		card.Status = Models.StatusDraft
	}
	works, err := outsideWorksFromRequest(req.OutsideWorks, s.Now())
	if err != nil {
		return nil, err
	}
	materialIDs := itemMaterialIDs(req.Items)

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		materials, err := loadAttachable(tx, materialIDs, 0)
		if err != nil {
			return err
		}

		number, err := s.Sequencer.Next(tx, card.RepairType)
		if err != nil {
			return err
		}
		card.JobCardNo = number
		card.TotalSparePartsCost = sumMaterials(materialIDs, materials)
		card.OutsideWorkCost = sumOutsideWorks(works)

		if err := tx.Omit(clause.Associations).Create(card).Error; err != nil {
			return fmt.Errorf("failed to create job card: %w", err)
		}
		if err := createChildren(tx, card.ID, materialIDs, materials, works); err != nil {
			return err
		}
		return Attach(tx, materialIDs)
	})
	if err != nil {
		return nil, err
	}

	return s.Get(card.ID)
}

// Update rewrites the scalar fields of a job card. When the request carries
// items or outside works, both lists are replaced wholesale: the old
// materials are released and the new ones attached in one transaction.
func (s *Service) Update(id uint, req Models.JobCardRequest) (*Models.JobCard, error) {
	updated, err := s.cardFromRequest(req)
	if err != nil {
		return nil, err
	}
	replace := req.Items != nil || req.OutsideWorks != nil
	works, err := outsideWorksFromRequest(req.OutsideWorks, s.Now())
	if err != nil {
		return nil, err
	}
	materialIDs := itemMaterialIDs(req.Items)

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var card Models.JobCard
		if err := tx.Preload("Items").First(&card, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: job card %d", ErrNotFound, id)
			}
			return err
		}

		if replace {
			materials, err := loadAttachable(tx, materialIDs, card.ID)
			if err != nil {
				return err
			}
			if err := Detach(tx, card.MaterialIDs()); err != nil {
				return err
			}
			if err := deleteChildren(tx, card.ID); err != nil {
				return err
			}
			if err := createChildren(tx, card.ID, materialIDs, materials, works); err != nil {
				return err
			}
			if err := Attach(tx, materialIDs); err != nil {
				return err
			}
		}

		spare, outside, err := storedCosts(tx, card.ID)
		if err != nil {
			return err
		}

		card.VehicleRegNo = updated.VehicleRegNo
		card.CompanyCode = updated.CompanyCode
		card.VehicleMachineryMeter = updated.VehicleMachineryMeter
		card.RepairType = updated.RepairType
		card.ExpectedCompletionDate = updated.ExpectedCompletionDate
		card.DriverOperatorName = updated.DriverOperatorName
		card.DriverOperatorContact = updated.DriverOperatorContact
		card.BCDNo = updated.BCDNo
		card.JobDescription = updated.JobDescription
		card.JobStartDate = updated.JobStartDate
		card.JobCompletedDate = updated.JobCompletedDate
		card.SupervisorName = updated.SupervisorName
		card.TotalManpowerCost = updated.TotalManpowerCost
		if updated.Status != "" {
			card.Status = updated.Status
		}
		card.TotalSparePartsCost = spare
		card.OutsideWorkCost = outside

		if err := tx.Omit(clause.Associations).Save(&card).Error; err != nil {
			return fmt.Errorf("failed to update job card: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(id)
}

// UpdateStatus changes only the status; items and materials are untouched.
func (s *Service) UpdateStatus(id uint, status Models.JobCardStatus) (*Models.JobCard, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	result := s.DB.Model(&Models.JobCard{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: job card %d", ErrNotFound, id)
	}
	return s.Get(id)
}

// Delete releases the card's materials and removes the card with its children.
func (s *Service) Delete(id uint) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var card Models.JobCard
		if err := tx.Preload("Items").First(&card, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: job card %d", ErrNotFound, id)
			}
			return err
		}

		if err := Detach(tx, card.MaterialIDs()); err != nil {
			return err
		}
		if err := deleteChildren(tx, card.ID); err != nil {
			return err
		}
		if err := tx.Delete(&card).Error; err != nil {
			return fmt.Errorf("failed to delete job card: %w", err)
		}
		return nil
	})
}

func (s *Service) cardFromRequest(req Models.JobCardRequest) (*Models.JobCard, error) {
	vehicle := strings.TrimSpace(req.VehicleRegNo)
	if vehicle == "" {
		return nil, fmt.Errorf("%w: vehicle_reg_no is required", ErrValidation)
	}
	status := Models.JobCardStatus(req.Status)
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, req.Status)
	}

	card := &Models.JobCard{
		VehicleRegNo:          vehicle,
		CompanyCode:           req.CompanyCode,
		VehicleMachineryMeter: req.VehicleMachineryMeter,
		RepairType:            strings.TrimSpace(req.RepairType),
		DriverOperatorName:    req.DriverOperatorName,
		DriverOperatorContact: req.DriverOperatorContact,
		BCDNo:                 req.BCDNo,
		JobDescription:        req.JobDescription,
		SupervisorName:        req.SupervisorName,
		TotalManpowerCost:     req.TotalManpowerCost,
		Status:                status,
	}

	dates := []struct {
		field string
		value string
		dest  **time.Time
	}{
		{"expected_completion_date", req.ExpectedCompletionDate, &card.ExpectedCompletionDate},
		{"job_start_date", req.JobStartDate, &card.JobStartDate},
		{"job_completed_date", req.JobCompletedDate, &card.JobCompletedDate},
	}
	for _, d := range dates {
		parsed, err := Models.ParseRequestDate(d.value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrValidation, d.field, err)
		}
		*d.dest = parsed
	}
	return card, nil
}

func outsideWorksFromRequest(requests []Models.OutsideWorkRequest, now time.Time) ([]Models.OutsideWork, error) {
	works := make([]Models.OutsideWork, 0, len(requests))
	for i, req := range requests {
		description := strings.TrimSpace(req.Description)
		if description == "" {
			return nil, fmt.Errorf("%w: outside_works[%d].description is required", ErrValidation, i)
		}
		date, err := Models.ParseRequestDate(req.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: outside_works[%d].date: %v", ErrValidation, i, err)
		}
		work := Models.OutsideWork{Date: now, Description: description, Cost: req.Cost}
		if date != nil {
			work.Date = *date
		}
		works = append(works, work)
	}
	return works, nil
}

func itemMaterialIDs(items []Models.JobCardItemRequest) []uint {
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.IssuedMaterialID)
	}
	return ids
}

func createChildren(tx *gorm.DB, jobCardID uint, materialIDs []uint, materials map[uint]Models.IssuedMaterial, works []Models.OutsideWork) error {
	if len(materialIDs) > 0 {
		items := make([]Models.JobCardItem, 0, len(materialIDs))
		for _, id := range materialIDs {
			items = append(items, Models.JobCardItem{
				JobCardID:        jobCardID,
				IssuedMaterialID: id,
				ItemType:         materials[id].Category,
			})
		}
		if err := tx.Omit(clause.Associations).Create(&items).Error; err != nil {
			return fmt.Errorf("failed to create job card items: %w", err)
		}
	}

	if len(works) > 0 {
		for i := range works {
			works[i].ID = 0
			works[i].JobCardID = jobCardID
		}
		if err := tx.Create(&works).Error; err != nil {
			return fmt.Errorf("failed to create outside works: %w", err)
		}
	}
	return nil
}

func deleteChildren(tx *gorm.DB, jobCardID uint) error {
	if err := tx.Where("job_card_id = ?", jobCardID).Delete(&Models.JobCardItem{}).Error; err != nil {
		return fmt.Errorf("failed to delete job card items: %w", err)
	}
	if err := tx.Where("job_card_id = ?", jobCardID).Delete(&Models.OutsideWork{}).Error; err != nil {
		return fmt.Errorf("failed to delete outside works: %w", err)
	}
	return nil
}

// storedCosts sums the spare parts and outside work currently linked to a card.
func storedCosts(tx *gorm.DB, jobCardID uint) (decimal.Decimal, decimal.Decimal, error) {
	var items []Models.JobCardItem
	if err := tx.Preload("IssuedMaterial").Where("job_card_id = ?", jobCardID).Find(&items).Error; err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	spare := decimal.Zero
	for _, item := range items {
		if item.IssuedMaterial != nil {
			spare = spare.Add(item.IssuedMaterial.Total)
		}
	}

	var works []Models.OutsideWork
	if err := tx.Where("job_card_id = ?", jobCardID).Find(&works).Error; err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return spare, sumOutsideWorks(works), nil
}

func sumMaterials(ids []uint, materials map[uint]Models.IssuedMaterial) decimal.Decimal {
	total := decimal.Zero
	for _, id := range ids {
		total = total.Add(materials[id].Total)
	}
	return total
}

func sumOutsideWorks(works []Models.OutsideWork) decimal.Decimal {
	total := decimal.Zero
	for _, work := range works {
		total = total.Add(work.Cost)
	}
	return total
}
