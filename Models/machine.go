package Models

import (
	"time"
)

// Machine is a vehicle or plant item, keyed by its registration number.
// Job cards link to it by registration number only.
type Machine struct {
	ID             uint      `json:"id" gorm:"primarykey"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	ECNo           string    `json:"ec_no" gorm:"size:50;index"`
	Brand          string    `json:"brand" gorm:"size:100;not null"`
	Type           string    `json:"type" gorm:"size:100;not null;index"`
	ModelNo        string    `json:"model_no" gorm:"size:100"`
	RegistrationNo string    `json:"registration_no" gorm:"size:100;not null;uniqueIndex"`
	Capacity       string    `json:"capacity" gorm:"size:100"`
	YOM            *int      `json:"yom"`
}

type MachineRequest struct {
	ECNo           string `json:"ec_no"`
	Brand          string `json:"brand"`
	Type           string `json:"type"`
	ModelNo        string `json:"model_no"`
	RegistrationNo string `json:"registration_no" validate:"required,max=100"`
	Capacity       string `json:"capacity"`
	YOM            *int   `json:"yom" validate:"omitempty,gte=1900,lte=2100"`
}

// Apply copies the request onto m, filling the "Unknown" defaults.
func (r MachineRequest) Apply(m *Machine) {
	m.ECNo = r.ECNo
	m.Brand = orDefault(r.Brand, "Unknown")
	m.Type = orDefault(r.Type, "Unknown")
	m.ModelNo = r.ModelNo
	m.RegistrationNo = r.RegistrationNo
	m.Capacity = r.Capacity
	m.YOM = r.YOM
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
