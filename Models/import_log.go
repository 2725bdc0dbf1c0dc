package Models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ImportKindMaterials = "materials"
	ImportKindMachines  = "machines"
)

// ImportLog records the outcome of one spreadsheet upload.
type ImportLog struct {
	gorm.Model
	Kind     string         `json:"kind" gorm:"size:20;not null;index"`
	FileName string         `json:"file_name" gorm:"size:255"`
	Total    int            `json:"total"`
	Imported int            `json:"imported"`
	Skipped  int            `json:"skipped"`
	Errors   datatypes.JSON `json:"errors"` // []string of row errors
}
