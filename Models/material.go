package Models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type MaterialCategory string

const (
	CategoryMRNItem    MaterialCategory = "MRN_ITEM"
	CategoryLubricant  MaterialCategory = "LUBRICANT"
	CategoryCommonItem MaterialCategory = "COMMON_ITEM"
	CategoryFilter     MaterialCategory = "FILTER"
)

var MaterialCategories = []MaterialCategory{CategoryMRNItem, CategoryLubricant, CategoryCommonItem, CategoryFilter}

func (c MaterialCategory) Valid() bool {
	for _, category := range MaterialCategories {
		if c == category {
			return true
		}
	}
	return false
}

// ParseCategory accepts any casing and spacing of a category name.
func ParseCategory(value string) (MaterialCategory, bool) {
	normalized := MaterialCategory(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(value), " ", "_")))
	return normalized, normalized.Valid()
}

// IssuedMaterial is one line of a Material Requisition Note.
// IsUsed is written only by the reconciler in the Maintenance package.
type IssuedMaterial struct {
	gorm.Model
	Date           time.Time        `json:"date" gorm:"not null;index"`
	MRNNo          string           `json:"mrn_no" gorm:"size:100;not null;index"`
	Description    string           `json:"description" gorm:"type:text;not null"`
	Unit           string           `json:"unit" gorm:"size:20;not null"`
	Qty            decimal.Decimal  `json:"qty" gorm:"type:decimal(14,3);not null"`
	VehicleProject string           `json:"vehicle_project" gorm:"size:100;not null;index"`
	Remark         string           `json:"remark" gorm:"type:text"`
	Price          decimal.Decimal  `json:"price" gorm:"type:decimal(14,2);not null"`
	Total          decimal.Decimal  `json:"total" gorm:"type:decimal(14,2);not null"`
	Category       MaterialCategory `json:"category" gorm:"size:20;not null;index"`
	IsUsed         bool             `json:"is_used" gorm:"not null;index"`
}

// Normalize fills the defaults for fields an MRN line may omit.
func (m *IssuedMaterial) Normalize(now time.Time) {
	m.MRNNo = strings.TrimSpace(m.MRNNo)
	m.Description = strings.TrimSpace(m.Description)
	m.VehicleProject = strings.TrimSpace(m.VehicleProject)
	if m.Date.IsZero() {
		m.Date = now
	}
	if m.Unit == "" {
		m.Unit = "Nos"
	}
	if m.Qty.IsZero() {
		m.Qty = decimal.NewFromInt(1)
	}
	if m.VehicleProject == "" {
		m.VehicleProject = "Unknown"
	}
	if !m.Category.Valid() {
		m.Category = CategoryMRNItem
	}
	if m.Total.IsZero() && !m.Price.IsZero() {
		m.Total = m.Price.Mul(m.Qty).Round(2)
	}
}

type MaterialRequest struct {
	Date           string           `json:"date"`
	MRNNo          string           `json:"mrn_no" validate:"required,max=100"`
	Description    string           `json:"description" validate:"required"`
	Unit           string           `json:"unit" validate:"max=20"`
	Qty            *decimal.Decimal `json:"qty"`
	VehicleProject string           `json:"vehicle_project" validate:"max=100"`
	Remark         string           `json:"remark"`
	Price          *decimal.Decimal `json:"price"`
	Total          *decimal.Decimal `json:"total"`
	Category       string           `json:"category" validate:"omitempty,oneof=MRN_ITEM LUBRICANT COMMON_ITEM FILTER"`
}

// Trim strips surrounding whitespace so that "required" rejects blank strings.
func (r *MaterialRequest) Trim() {
	r.MRNNo = strings.TrimSpace(r.MRNNo)
	r.Description = strings.TrimSpace(r.Description)
	r.VehicleProject = strings.TrimSpace(r.VehicleProject)
	r.Unit = strings.TrimSpace(r.Unit)
}

// Apply copies the request onto m. IsUsed is left untouched.
func (r MaterialRequest) Apply(m *IssuedMaterial, date time.Time) {
	m.Date = date
	m.MRNNo = r.MRNNo
	m.Description = r.Description
	m.Unit = r.Unit
	m.VehicleProject = r.VehicleProject
	m.Remark = r.Remark
	m.Category = MaterialCategory(r.Category)
	m.Qty = decimal.Zero
	m.Price = decimal.Zero
	m.Total = decimal.Zero
	if r.Qty != nil {
		m.Qty = *r.Qty
	}
	if r.Price != nil {
		m.Price = *r.Price
	}
	if r.Total != nil {
		m.Total = *r.Total
	}
	m.Normalize(date)
}
