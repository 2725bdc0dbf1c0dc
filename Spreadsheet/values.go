package Spreadsheet

import (
	"strconv"
	"strings"
	"time"

	"Workshop/Models"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var cellDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"02-01-2006",
	"02.01.2006",
	"02-Jan-2006",
	"02 Jan 2006",
}

// ParseCellDate reads DD/MM/YY, DD/MM/YYYY, an Excel serial or an ISO date.
// Anything else falls back to now.
func ParseCellDate(value string, now time.Time) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return now
	}

	if parts := strings.Split(value, "/"); len(parts) == 3 {
		day, errDay := strconv.Atoi(strings.TrimSpace(parts[0]))
		month, errMonth := strconv.Atoi(strings.TrimSpace(parts[1]))
		year, errYear := strconv.Atoi(strings.TrimSpace(parts[2]))
		if errDay == nil && errMonth == nil && errYear == nil &&
			day >= 1 && day <= 31 && month >= 1 && month <= 12 && year >= 0 {
			if year < 100 {
				year += 2000
			}
			return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		}
		return now
	}

	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		if serial > 0 {
			if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
				return t
			}
		}
		return now
	}

	for _, layout := range cellDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return now
}

// ParseCellDecimal strips thousands separators; unparseable input yields fallback.
func ParseCellDecimal(value string, fallback decimal.Decimal) decimal.Decimal {
	value = strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	if value == "" {
		return fallback
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return fallback
	}
	return d
}

// Categorize guesses a material category from its description.
func Categorize(description string) Models.MaterialCategory {
	desc := strings.ToLower(description)
	containsAny := func(words ...string) bool {
		for _, word := range words {
			if strings.Contains(desc, word) {
				return true
			}
		}
		return false
	}

	switch {
	case containsAny("filter"):
		return Models.CategoryFilter
	case containsAny("oil", "grease", "lubricant"),
		strings.Contains(desc, "hydraulic") && strings.Contains(desc, "fluid"):
		return Models.CategoryLubricant
	case containsAny("bolt", "nut", "washer", "seal", "o-ring", "bearing", "gasket", "hose", "belt"):
		return Models.CategoryCommonItem
	default:
		return Models.CategoryMRNItem
	}
}
