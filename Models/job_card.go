package Models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type JobCardStatus string

const (
	StatusDraft      JobCardStatus = "DRAFT"
	StatusInProgress JobCardStatus = "IN_PROGRESS"
	StatusCompleted  JobCardStatus = "COMPLETED"
	StatusCancelled  JobCardStatus = "CANCELLED"
)

func (s JobCardStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Pending reports whether work on the card is still open.
func (s JobCardStatus) Pending() bool {
	return s == StatusDraft || s == StatusInProgress
}

type JobCard struct {
	gorm.Model
	JobCardNo              string        `json:"job_card_no" gorm:"size:30;not null;uniqueIndex"`
	VehicleRegNo           string        `json:"vehicle_reg_no" gorm:"size:100;not null;index"`
	CompanyCode            string        `json:"company_code" gorm:"size:50"`
	VehicleMachineryMeter  *float64      `json:"vehicle_machinery_meter"`
	RepairType             string        `json:"repair_type" gorm:"size:50"`
	ExpectedCompletionDate *time.Time    `json:"expected_completion_date"`
	DriverOperatorName     string        `json:"driver_operator_name" gorm:"size:255"`
	DriverOperatorContact  string        `json:"driver_operator_contact" gorm:"size:50"`
	BCDNo                  string        `json:"bcd_no" gorm:"size:50"`
	JobDescription         string        `json:"job_description" gorm:"type:text"`
	JobStartDate           *time.Time    `json:"job_start_date"`
	JobCompletedDate       *time.Time    `json:"job_completed_date"`
	SupervisorName         string        `json:"supervisor_name" gorm:"size:255"`
	Status                 JobCardStatus `json:"status" gorm:"size:20;not null;index"`

	// Costs as of the last save.
	TotalSparePartsCost decimal.Decimal `json:"total_spare_parts_cost" gorm:"type:decimal(14,2);not null"`
	TotalManpowerCost   decimal.Decimal `json:"total_manpower_cost" gorm:"type:decimal(14,2);not null"`
	OutsideWorkCost     decimal.Decimal `json:"outside_work_cost" gorm:"type:decimal(14,2);not null"`

	// Derived on read, never stored.
	Subtotal           decimal.Decimal `json:"subtotal" gorm:"-"`
	SundryWorkshopCost decimal.Decimal `json:"sundry_workshop_cost" gorm:"-"`
	GrandTotal         decimal.Decimal `json:"grand_total" gorm:"-"`

	// Relationships
	Items        []JobCardItem `json:"items" gorm:"foreignKey:JobCardID;constraint:OnDelete:CASCADE"`
	OutsideWorks []OutsideWork `json:"outside_works" gorm:"foreignKey:JobCardID;constraint:OnDelete:CASCADE"`
	Machine      *Machine      `json:"machine,omitempty" gorm:"-"`
}

// ComputeTotals fills the derived subtotal, sundry charge and grand total.
func (j *JobCard) ComputeTotals() {
	j.Subtotal = j.TotalSparePartsCost.Add(j.TotalManpowerCost).Add(j.OutsideWorkCost)
	j.SundryWorkshopCost = j.Subtotal.Mul(SundryRate).Round(2)
	j.GrandTotal = j.Subtotal.Add(j.SundryWorkshopCost)
}

func (j *JobCard) AfterFind(tx *gorm.DB) error {
	j.ComputeTotals()
	return nil
}

// MaterialIDs lists the issued materials attached through the card's items.
func (j *JobCard) MaterialIDs() []uint {
	ids := make([]uint, 0, len(j.Items))
	for _, item := range j.Items {
		ids = append(ids, item.IssuedMaterialID)
	}
	return ids
}

// JobCardItem links a job card to exactly one issued material.
type JobCardItem struct {
	ID               uint             `json:"id" gorm:"primarykey"`
	CreatedAt        time.Time        `json:"created_at"`
	JobCardID        uint             `json:"job_card_id" gorm:"not null;index"`
	IssuedMaterialID uint             `json:"issued_material_id" gorm:"not null;index"`
	ItemType         MaterialCategory `json:"item_type" gorm:"size:20"`

	IssuedMaterial *IssuedMaterial `json:"issued_material,omitempty" gorm:"foreignKey:IssuedMaterialID"`
}

// OutsideWork is third-party work billed against a job card.
type OutsideWork struct {
	ID          uint            `json:"id" gorm:"primarykey"`
	CreatedAt   time.Time       `json:"created_at"`
	JobCardID   uint            `json:"job_card_id" gorm:"not null;index"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description" gorm:"type:text;not null"`
	Cost        decimal.Decimal `json:"cost" gorm:"type:decimal(14,2);not null"`
}

// JobCardSequence holds the last number issued per "YYYY/MM/T/" prefix.
type JobCardSequence struct {
	Prefix    string    `json:"prefix" gorm:"primaryKey;size:30"`
	LastValue int       `json:"last_value" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at"`
}

type JobCardRequest struct {
	VehicleRegNo           string               `json:"vehicle_reg_no" validate:"required,max=100"`
	CompanyCode            string               `json:"company_code" validate:"max=50"`
	VehicleMachineryMeter  *float64             `json:"vehicle_machinery_meter" validate:"omitempty,gte=0"`
	RepairType             string               `json:"repair_type" validate:"max=50"`
	ExpectedCompletionDate string               `json:"expected_completion_date"`
	DriverOperatorName     string               `json:"driver_operator_name"`
	DriverOperatorContact  string               `json:"driver_operator_contact"`
	BCDNo                  string               `json:"bcd_no"`
	JobDescription         string               `json:"job_description"`
	JobStartDate           string               `json:"job_start_date"`
	JobCompletedDate       string               `json:"job_completed_date"`
	SupervisorName         string               `json:"supervisor_name"`
	TotalManpowerCost      decimal.Decimal      `json:"total_manpower_cost"`
	Status                 string               `json:"status" validate:"omitempty,oneof=DRAFT IN_PROGRESS COMPLETED CANCELLED"`
	Items                  []JobCardItemRequest `json:"items" validate:"omitempty,dive"`
	OutsideWorks           []OutsideWorkRequest `json:"outside_works" validate:"omitempty,dive"`
}

type JobCardItemRequest struct {
	IssuedMaterialID uint `json:"issued_material_id" validate:"required"`
}

type OutsideWorkRequest struct {
	Date        string          `json:"date"`
	Description string          `json:"description" validate:"required"`
	Cost        decimal.Decimal `json:"cost"`
}

type JobCardStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=DRAFT IN_PROGRESS COMPLETED CANCELLED"`
}

type AutoGenerateMaterial struct {
	ID uint `json:"id" validate:"required"`
}

type AutoGenerateRequest struct {
	VehicleRegNo string                 `json:"vehicle_reg_no" validate:"required"`
	Materials    []AutoGenerateMaterial `json:"materials" validate:"required,min=1,dive"`
}

type AutoGenerateAllRequest struct {
	Vehicles []string `json:"vehicles"`
}
