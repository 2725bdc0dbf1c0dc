package Spreadsheet

import (
	"bytes"
	"fmt"
	"strconv"

	"Workshop/Models"

	"gorm.io/gorm"
)

// MachineFromRecord maps one data row to a machine; ok is false when the row
// has no registration number.
func MachineFromRecord(binding Binding, record []string) (machine Models.Machine, ok bool) {
	registrationNo := binding.Get(record, "registration_no")
	if registrationNo == "" {
		return machine, false
	}

	req := Models.MachineRequest{
		RegistrationNo: registrationNo,
		ECNo:           binding.Get(record, "ec_no"),
		Brand:          binding.Get(record, "brand"),
		Type:           binding.Get(record, "type"),
		ModelNo:        binding.Get(record, "model_no"),
		Capacity:       binding.Get(record, "capacity"),
	}
	if yom, err := strconv.Atoi(binding.Get(record, "yom")); err == nil && yom > 0 {
		req.YOM = &yom
	}
	req.Apply(&machine)
	return machine, true
}

// ImportMachines stores rows whose registration number is new.
func ImportMachines(db *gorm.DB, fileName string, table *Table) ImportSummary {
	summary := ImportSummary{Total: len(table.Records)}
	binding := MachineSchema.Bind(table.Headers)

	for i, record := range table.Records {
		row := i + 2
		machine, ok := MachineFromRecord(binding, record)
		if !ok {
			summary.Skipped++
			continue
		}

		var count int64
		if err := db.Model(&Models.Machine{}).Where("registration_no = ?", machine.RegistrationNo).Count(&count).Error; err != nil {
			summary.fail(row, err)
			continue
		}
		if count > 0 {
			summary.Skipped++
			continue
		}
		if err := db.Create(&machine).Error; err != nil {
			summary.fail(row, fmt.Errorf("%s: %w", machine.RegistrationNo, err))
			continue
		}
		summary.Imported++
	}

	recordImport(db, Models.ImportKindMachines, fileName, summary)
	return summary
}

var machineHeaders = []string{
	"NO", "E&C NO", "BRAND", "TYPE", "MODEL NO", "REGISTRATION NO", "CAPACITY", "YOM",
}

var machineWidths = []float64{6, 12, 16, 20, 16, 18, 12, 8}

func ExportMachines(machines []Models.Machine) (*bytes.Buffer, error) {
	rows := make([][]interface{}, 0, len(machines))
	for i, m := range machines {
		var yom interface{} = ""
		if m.YOM != nil {
			yom = *m.YOM
		}
		rows = append(rows, []interface{}{
			i + 1, m.ECNo, m.Brand, m.Type, m.ModelNo, m.RegistrationNo, m.Capacity, yom,
		})
	}
	return writeSheet("Machines", machineHeaders, machineWidths, rows)
}
