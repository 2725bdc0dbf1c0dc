package Spreadsheet

import (
	"strings"
	"unicode"

	"golang.org/x/exp/slices"
	"golang.org/x/text/cases"
)

// Field is one logical column and the header spellings that may carry it,
// in order of preference.
type Field struct {
	Name    string
	Aliases []string
}

type Schema []Field

var MaterialSchema = Schema{
	{Name: "mrn_no", Aliases: []string{"MRN No.", "MRN Number", "MRN"}},
	{Name: "description", Aliases: []string{"Description", "Item Description", "Item"}},
	{Name: "date", Aliases: []string{"Date", "Issue Date"}},
	{Name: "vehicle_project", Aliases: []string{"Vehicle / Project", "Vehicle", "Project"}},
	{Name: "unit", Aliases: []string{"Unit", "UOM"}},
	{Name: "qty", Aliases: []string{"Qty", "Quantity"}},
	{Name: "remark", Aliases: []string{"Remark", "Remarks", "Notes"}},
	{Name: "price", Aliases: []string{"Price", "Rate", "Unit Price"}},
	{Name: "total", Aliases: []string{"Total", "Amount", "Cost"}},
	{Name: "category", Aliases: []string{"Category"}},
}

var MachineSchema = Schema{
	{Name: "registration_no", Aliases: []string{"Registration No", "Registration Number", "Reg No"}},
	{Name: "ec_no", Aliases: []string{"E&C No", "EC No"}},
	{Name: "brand", Aliases: []string{"Brand", "Make"}},
	{Name: "type", Aliases: []string{"Type", "Machine Type"}},
	{Name: "model_no", Aliases: []string{"Model No", "Model"}},
	{Name: "capacity", Aliases: []string{"Capacity"}},
	{Name: "yom", Aliases: []string{"YOM", "Year of Manufacture", "Year"}},
}

// NormalizeHeader folds case and drops everything but letters and digits,
// so "Vehicle / Project", "vehicle_project" and "VEHICLE/PROJECT" compare equal.
func NormalizeHeader(header string) string {
	folded := cases.Fold().String(strings.TrimSpace(header))
	var b strings.Builder
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Binding maps each field of a schema to the header columns that carry it.
type Binding map[string][]int

// Bind resolves a header row against the schema. Columns are listed in alias
// order, then header order, so Get can fall through to the next alias when
// the preferred column is empty.
func (s Schema) Bind(headers []string) Binding {
	normalized := make([]string, len(headers))
	for i, header := range headers {
		normalized[i] = NormalizeHeader(header)
	}

	binding := Binding{}
	for _, field := range s {
		for _, alias := range field.Aliases {
			key := NormalizeHeader(alias)
			for i, header := range normalized {
				if header == key && !slices.Contains(binding[field.Name], i) {
					binding[field.Name] = append(binding[field.Name], i)
				}
			}
		}
	}
	return binding
}

// Has reports whether any header carried the field.
func (b Binding) Has(field string) bool {
	return len(b[field]) > 0
}

// Get returns the first non-blank value of field in record.
func (b Binding) Get(record []string, field string) string {
	for _, i := range b[field] {
		if i < len(record) {
			if value := strings.TrimSpace(record[i]); value != "" {
				return value
			}
		}
	}
	return ""
}
