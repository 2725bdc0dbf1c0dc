package Maintenance

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"Workshop/Config"
	"Workshop/Models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultTypeCode is used when a job card carries no repair type.
const DefaultTypeCode = "R"

var repairTypeCodes = []struct {
	word string
	code string
}{
	{"accident", "A"},
	{"running", "R"},
	{"breakdown", "B"},
	{"routine", "U"},
	{"other", "O"},
}

// TypeCode maps a free-form repair type to its one-letter code.
// A label matches a known type by whole word, by first word or by the code
// itself; anything else takes its own first letter.
func TypeCode(repairType string) string {
	label := strings.ToLower(strings.TrimSpace(repairType))
	if label == "" {
		return DefaultTypeCode
	}

	first := strings.Fields(label)[0]
	for _, known := range repairTypeCodes {
		if label == known.word || first == known.word || label == strings.ToLower(known.code) {
			return known.code
		}
	}

	r, _ := utf8.DecodeRuneInString(label)
	return strings.ToUpper(string(r))
}

// Prefix returns "YYYY/MM/T/" for the repair type at t.
func Prefix(repairType string, t time.Time) string {
	return fmt.Sprintf("%04d/%02d/%s/", t.Year(), int(t.Month()), TypeCode(repairType))
}

func FormatNumber(prefix string, sequence int) string {
	return fmt.Sprintf("%s%04d", prefix, sequence)
}

// SequenceOf extracts the trailing counter of a number issued under prefix.
// Numbers under another prefix or with a non-numeric tail yield 0.
func SequenceOf(number, prefix string) int {
	if !strings.HasPrefix(number, prefix) {
		return 0
	}
	parts := strings.Split(number, "/")
	if len(parts) != 4 {
		return 0
	}
	n, err := strconv.Atoi(parts[3])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// NextNumber is the pure form of the standard scheme: one past the highest
// sequence already issued under prefix.
func NextNumber(prefix string, existing []string) string {
	return FormatNumber(prefix, maxSequence(prefix, existing)+1)
}

func maxSequence(prefix string, existing []string) int {
	highest := 0
	for _, number := range existing {
		if n := SequenceOf(number, prefix); n > highest {
			highest = n
		}
	}
	return highest
}

// LegacyNumber renders "JC-YYYY-NNNN" from the count of cards already numbered that year.
func LegacyNumber(year int, existing int64) string {
	return fmt.Sprintf("JC-%d-%04d", year, existing+1)
}

type Sequencer struct {
	Format string
	Now    func() time.Time
}

func NewSequencer(format string) *Sequencer {
	if format == "" {
		format = Config.NumberFormatStandard
	}
	return &Sequencer{Format: format, Now: time.Now}
}

// Next issues a job card number inside tx. The caller's transaction must
// also insert the card so that a rollback releases nothing.
func (s *Sequencer) Next(tx *gorm.DB, repairType string) (string, error) {
	now := s.Now()
	if s.Format == Config.NumberFormatLegacy {
		return s.nextLegacy(tx, now)
	}

	prefix := Prefix(repairType, now)

	// Soft-deleted cards still hold their numbers.
	var existing []string
	if err := tx.Unscoped().Model(&Models.JobCard{}).
		Where("job_card_no LIKE ?", prefix+"%").
		Pluck("job_card_no", &existing).Error; err != nil {
		return "", fmt.Errorf("failed to scan job card numbers: %w", err)
	}
	scanned := maxSequence(prefix, existing)

	seed := Models.JobCardSequence{Prefix: prefix, LastValue: scanned}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return "", fmt.Errorf("failed to seed sequence %s: %w", prefix, err)
	}

	// The UPDATE takes the row lock, so concurrent writers serialise here.
	if err := tx.Model(&Models.JobCardSequence{}).
		Where("prefix = ?", prefix).
		Updates(map[string]interface{}{
			"last_value": gorm.Expr("CASE WHEN last_value < ? THEN ? ELSE last_value END + 1", scanned, scanned),
			"updated_at": now,
		}).Error; err != nil {
		return "", fmt.Errorf("failed to advance sequence %s: %w", prefix, err)
	}

	var counter Models.JobCardSequence
	if err := tx.Where("prefix = ?", prefix).First(&counter).Error; err != nil {
		return "", fmt.Errorf("failed to read sequence %s: %w", prefix, err)
	}
	return FormatNumber(prefix, counter.LastValue), nil
}

func (s *Sequencer) nextLegacy(tx *gorm.DB, now time.Time) (string, error) {
	var count int64
	if err := tx.Unscoped().Model(&Models.JobCard{}).
		Where("job_card_no LIKE ?", fmt.Sprintf("JC-%d-%%", now.Year())).
		Count(&count).Error; err != nil {
		return "", fmt.Errorf("failed to count job cards: %w", err)
	}
	return LegacyNumber(now.Year(), count), nil
}
