package Spreadsheet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"Workshop/Models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// maxReportedErrors caps the row errors echoed back to the client.
const maxReportedErrors = 10

type ImportSummary struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Total    int      `json:"total"`
	Errors   []string `json:"errors"`
}

func (s *ImportSummary) fail(row int, err error) {
	s.Skipped++
	s.Errors = append(s.Errors, fmt.Sprintf("Row %d: %v", row, err))
}

// Reported trims the error list to what the client sees.
func (s ImportSummary) Reported() ImportSummary {
	if len(s.Errors) > maxReportedErrors {
		s.Errors = s.Errors[:maxReportedErrors]
	}
	if s.Errors == nil {
		s.Errors = []string{}
	}
	return s
}

// MaterialFromRecord maps one data row to an issued material. ok is false
// when the row has neither an MRN number nor a description.
func MaterialFromRecord(binding Binding, record []string, row int, now time.Time) (material Models.IssuedMaterial, ok bool) {
	mrnNo := binding.Get(record, "mrn_no")
	description := binding.Get(record, "description")
	if mrnNo == "" && description == "" {
		return material, false
	}
	if mrnNo == "" {
		mrnNo = fmt.Sprintf("AUTO-%d-%d", now.Unix(), row)
	}
	if description == "" {
		description = "No description"
	}

	category, valid := Models.ParseCategory(binding.Get(record, "category"))
	if !valid {
		category = Categorize(description)
	}

	qty := ParseCellDecimal(binding.Get(record, "qty"), decimal.NewFromInt(1))
	price := ParseCellDecimal(binding.Get(record, "price"), decimal.Zero)

	material = Models.IssuedMaterial{
		Date:           ParseCellDate(binding.Get(record, "date"), now),
		MRNNo:          mrnNo,
		Description:    description,
		Unit:           binding.Get(record, "unit"),
		Qty:            qty,
		VehicleProject: binding.Get(record, "vehicle_project"),
		Remark:         binding.Get(record, "remark"),
		Price:          price,
		Total:          ParseCellDecimal(binding.Get(record, "total"), decimal.Zero),
		Category:       category,
	}
	material.Normalize(now)
	return material, true
}

// ImportMaterials stores every usable row of the table. Rows that cannot be
// mapped or stored are skipped and counted; they never abort the import.
func ImportMaterials(db *gorm.DB, fileName string, table *Table, now time.Time) ImportSummary {
	summary := ImportSummary{Total: len(table.Records)}
	binding := MaterialSchema.Bind(table.Headers)

	for i, record := range table.Records {
		row := i + 2 // 1-based, after the header row
		if blank(record) {
			summary.Skipped++
			continue
		}

		material, ok := MaterialFromRecord(binding, record, row, now)
		if !ok {
			summary.Skipped++
			continue
		}
		if err := db.Create(&material).Error; err != nil {
			summary.fail(row, err)
			continue
		}
		summary.Imported++
	}

	recordImport(db, Models.ImportKindMaterials, fileName, summary)
	return summary
}

var materialHeaders = []string{
	"No", "Date", "MRN No.", "Description", "Unit", "Qty", "Vehicle / Project",
	"Remark", "Price", "Total", "Category", "Is Used",
}

var materialWidths = []float64{6, 12, 16, 40, 8, 8, 20, 25, 12, 12, 14, 8}

// ExportMaterials renders materials as a styled workbook using the same
// headers the importer reads.
func ExportMaterials(materials []Models.IssuedMaterial) (*bytes.Buffer, error) {
	rows := make([][]interface{}, 0, len(materials))
	for i, m := range materials {
		isUsed := "No"
		if m.IsUsed {
			isUsed = "Yes"
		}
		rows = append(rows, []interface{}{
			i + 1,
			m.Date.Format("02/01/2006"),
			m.MRNNo,
			m.Description,
			m.Unit,
			m.Qty.InexactFloat64(),
			m.VehicleProject,
			m.Remark,
			m.Price.InexactFloat64(),
			m.Total.InexactFloat64(),
			string(m.Category),
			isUsed,
		})
	}
	return writeSheet("Materials", materialHeaders, materialWidths, rows)
}

// MaterialsFileName builds materials_export[_category]_YYYY-MM-DD.xlsx.
// ExportCategory normalises the export filter; "" and "all" select every category.
func ExportCategory(category string) string {
	category = strings.TrimSpace(category)
	if strings.EqualFold(category, "all") {
		return ""
	}
	return category
}

func MaterialsFileName(category string, now time.Time) string {
	if category = ExportCategory(category); category != "" {
		return fmt.Sprintf("materials_export_%s_%s.xlsx", strings.ToLower(category), now.Format("2006-01-02"))
	}
	return fmt.Sprintf("materials_export_%s.xlsx", now.Format("2006-01-02"))
}

func recordImport(db *gorm.DB, kind, fileName string, summary ImportSummary) {
	entry := Models.ImportLog{
		Kind:     kind,
		FileName: fileName,
		Total:    summary.Total,
		Imported: summary.Imported,
		Skipped:  summary.Skipped,
	}
	if encoded, err := json.Marshal(summary.Reported().Errors); err == nil {
		entry.Errors = datatypes.JSON(encoded)
	}
	if err := db.Create(&entry).Error; err != nil {
		logrus.WithError(err).WithField("kind", kind).Warn("failed to record import log")
	}

	logrus.WithFields(logrus.Fields{
		"kind":     kind,
		"file":     fileName,
		"total":    summary.Total,
		"imported": summary.Imported,
		"skipped":  summary.Skipped,
	}).Info("spreadsheet import finished")
}
