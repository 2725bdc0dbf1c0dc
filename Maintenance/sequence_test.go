package Maintenance

import (
	"testing"
	"time"

	"Workshop/Config"
	"Workshop/Models"
	"Workshop/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestTypeCode(t *testing.T) {
	tests := []struct {
		repairType string
		expected   string
	}{
		{"", "R"},
		{"   ", "R"},
		{"Accident", "A"},
		{"accident repair", "A"},
		{"Running", "R"},
		{"Breakdown", "B"},
		{"breakdown - hydraulic", "B"},
		{"Routine", "U"},
		{"routine service", "U"},
		{"Other", "O"},
		{"u", "U"},
		{"a", "A"},
		{"accident", "A"},
		{"r", "R"},
		{"b", "B"},
		{"o", "O"},
		{"Xyz", "X"},
		{"Welding", "W"},
		{"electrical fault", "E"},
	}

	for _, tt := range tests {
		t.Run(tt.repairType, func(t *testing.T) {
			assert.Equal(t, tt.expected, TypeCode(tt.repairType))
		})
	}
}

func TestPrefix(t *testing.T) {
	at := time.Date(2025, time.March, 9, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025/03/B/", Prefix("Breakdown", at))
	assert.Equal(t, "2025/03/R/", Prefix("", at))
}

func TestNextNumber(t *testing.T) {
	prefix := "2025/03/R/"

	assert.Equal(t, "2025/03/R/0001", NextNumber(prefix, nil))
	assert.Equal(t, "2025/03/R/0004", NextNumber(prefix, []string{"2025/03/R/0001", "2025/03/R/0003"}))
	assert.Equal(t, "2025/03/R/0001", NextNumber(prefix, []string{"2025/03/B/0009", "2025/02/R/0005"}),
		"numbers under other prefixes are ignored")
	assert.Equal(t, "2025/03/R/0003", NextNumber(prefix, []string{"2025/03/R/junk", "2025/03/R/0002"}),
		"malformed tails count as zero")
	assert.Equal(t, "2025/03/R/10000", NextNumber(prefix, []string{"2025/03/R/9999"}))
}

func TestLegacyNumber(t *testing.T) {
	assert.Equal(t, "JC-2025-0001", LegacyNumber(2025, 0))
	assert.Equal(t, "JC-2025-0043", LegacyNumber(2025, 42))
}

func fixedSequencer(format string) *Sequencer {
	return &Sequencer{
		Format: format,
		Now:    func() time.Time { return time.Date(2025, time.March, 15, 8, 0, 0, 0, time.UTC) },
	}
}

func nextInTx(t *testing.T, db *gorm.DB, seq *Sequencer, repairType string) string {
	t.Helper()
	var number string
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		number, err = seq.Next(tx, repairType)
		return err
	}))
	return number
}

func TestSequencerNext(t *testing.T) {
	db := testutil.NewDB(t)
	seq := fixedSequencer(Config.NumberFormatStandard)

	assert.Equal(t, "2025/03/R/0001", nextInTx(t, db, seq, ""))
	assert.Equal(t, "2025/03/R/0002", nextInTx(t, db, seq, "Running"))
	assert.Equal(t, "2025/03/A/0001", nextInTx(t, db, seq, "Accident"))
}

func TestSequencerNextSkipsPastExistingCards(t *testing.T) {
	db := testutil.NewDB(t)
	seq := fixedSequencer(Config.NumberFormatStandard)

	card := Models.JobCard{JobCardNo: "2025/03/B/0007", VehicleRegNo: "TRK-01", Status: Models.StatusDraft}
	require.NoError(t, db.Create(&card).Error)
	require.NoError(t, db.Delete(&card).Error)

	assert.Equal(t, "2025/03/B/0008", nextInTx(t, db, seq, "breakdown"),
		"soft-deleted cards keep their numbers")
}

func TestSequencerNextNeverReusesCounter(t *testing.T) {
	db := testutil.NewDB(t)
	seq := fixedSequencer(Config.NumberFormatStandard)

	require.NoError(t, db.Create(&Models.JobCardSequence{Prefix: "2025/03/R/", LastValue: 12}).Error)

	assert.Equal(t, "2025/03/R/0013", nextInTx(t, db, seq, ""))
}

func TestSequencerNextRollsBackWithTransaction(t *testing.T) {
	db := testutil.NewDB(t)
	seq := fixedSequencer(Config.NumberFormatStandard)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := seq.Next(tx, "")
		require.NoError(t, err)
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	assert.Equal(t, "2025/03/R/0001", nextInTx(t, db, seq, ""))
}

func TestSequencerLegacy(t *testing.T) {
	db := testutil.NewDB(t)
	seq := fixedSequencer(Config.NumberFormatLegacy)

	assert.Equal(t, "JC-2025-0001", nextInTx(t, db, seq, "Accident"))

	require.NoError(t, db.Create(&Models.JobCard{JobCardNo: "JC-2025-0001", VehicleRegNo: "TRK-01", Status: Models.StatusDraft}).Error)
	require.NoError(t, db.Create(&Models.JobCard{JobCardNo: "JC-2024-0009", VehicleRegNo: "TRK-01", Status: Models.StatusDraft}).Error)

	assert.Equal(t, "JC-2025-0002", nextInTx(t, db, seq, ""))
}
