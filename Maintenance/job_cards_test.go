package Maintenance

import (
	"errors"
	"testing"

	"Workshop/Config"
	"Workshop/Models"
	"Workshop/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	return NewService(db, fixedSequencer(Config.NumberFormatStandard)), db
}

func itemsFor(materials ...Models.IssuedMaterial) []Models.JobCardItemRequest {
	items := make([]Models.JobCardItemRequest, 0, len(materials))
	for _, material := range materials {
		items = append(items, Models.JobCardItemRequest{IssuedMaterialID: material.ID})
	}
	return items
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

// failCreatesOn makes every insert into table fail.
func failCreatesOn(t *testing.T, db *gorm.DB, table string) {
	t.Helper()
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_"+table, func(tx *gorm.DB) {
		if tx.Statement.Schema != nil && tx.Statement.Schema.Table == table {
			tx.AddError(errors.New("forced failure on " + table))
		}
	}))
}

func TestCreateAttachesMaterials(t *testing.T) {
	service, db := newTestService(t)
	filter := testutil.SeedMaterial(t, db, "TRK-01", "MRN-1", 100)
	oil := testutil.SeedMaterial(t, db, "TRK-01", "MRN-2", 50)
	testutil.SeedMachine(t, db, "TRK-01")

	card, err := service.Create(Models.JobCardRequest{
		VehicleRegNo:      "TRK-01",
		RepairType:        "Breakdown",
		TotalManpowerCost: decimal.NewFromInt(200),
		Items:             itemsFor(filter, oil),
		OutsideWorks: []Models.OutsideWorkRequest{
			{Date: "2025-03-10", Description: "Radiator re-core", Cost: decimal.NewFromInt(150)},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "2025/03/B/0001", card.JobCardNo)
	assert.Equal(t, Models.StatusDraft, card.Status)
	require.Len(t, card.Items, 2)
	require.Len(t, card.OutsideWorks, 1)
	require.NotNil(t, card.Machine)
	assert.Equal(t, "CAT", card.Machine.Brand)

	assert.True(t, decimal.NewFromInt(150).Equal(card.TotalSparePartsCost), card.TotalSparePartsCost.String())
	assert.True(t, decimal.NewFromInt(150).Equal(card.OutsideWorkCost), card.OutsideWorkCost.String())
	assert.True(t, decimal.NewFromInt(500).Equal(card.Subtotal), card.Subtotal.String())
	assert.True(t, decimal.NewFromInt(50).Equal(card.SundryWorkshopCost), card.SundryWorkshopCost.String())
	assert.True(t, decimal.NewFromInt(550).Equal(card.GrandTotal), card.GrandTotal.String())

	assert.True(t, testutil.IsUsed(t, db, filter.ID))
	assert.True(t, testutil.IsUsed(t, db, oil.ID))
}

func TestCreateWithoutMachineLeavesMachineNil(t *testing.T) {
	service, _ := newTestService(t)

	card, err := service.Create(Models.JobCardRequest{VehicleRegNo: "UNREGISTERED"})
	require.NoError(t, err)
	assert.Nil(t, card.Machine)
	assert.Empty(t, card.Items)
}

func TestCreateValidation(t *testing.T) {
	service, db := newTestService(t)
	material := testutil.SeedMaterial(t, db, "TRK-01", "MRN-1", 10)

	tests := []struct {
		name    string
		req     Models.JobCardRequest
		wantErr error
	}{
		{"blank vehicle", Models.JobCardRequest{VehicleRegNo: "  "}, ErrValidation},
		{"bad status", Models.JobCardRequest{VehicleRegNo: "TRK-01", Status: "PARKED"}, ErrValidation},
		{"bad date", Models.JobCardRequest{VehicleRegNo: "TRK-01", JobStartDate: "31/02"}, ErrValidation},
		{"missing material", Models.JobCardRequest{VehicleRegNo: "TRK-01", Items: []Models.JobCardItemRequest{{IssuedMaterialID: 999}}}, ErrNotFound},
		{"duplicate material", Models.JobCardRequest{VehicleRegNo: "TRK-01", Items: itemsFor(material, material)}, ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Create(tt.req)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Zero(t, countRows(t, db, &Models.JobCard{}))
	assert.False(t, testutil.IsUsed(t, db, material.ID))
}

func TestCreateRejectsMaterialOnAnotherCard(t *testing.T) {
	service, db := newTestService(t)
	material := testutil.SeedMaterial(t, db, "TRK-01", "MRN-1", 10)

	_, err := service.Create(Models.JobCardRequest{VehicleRegNo: "TRK-01", Items: itemsFor(material)})
	require.NoError(t, err)

	_, err = service.Create(Models.JobCardRequest{VehicleRegNo: "TRK-02", Items: itemsFor(material)})
	require.ErrorIs(t, err, ErrMaterialInUse)

	assert.Equal(t, int64(1), countRows(t, db, &Models.JobCard{}))
	assert.Equal(t, int64(1), countRows(t, db, &Models.JobCardItem{}))
}

func TestCreateRollsBackWhenItemsFail(t *testing.T) {
	service, db := newTestService(t)
	material := testutil.SeedMaterial(t, db, "TRK-01", "MRN-1", 10)
	failCreatesOn(t, db, "job_card_items")

	_, err := service.Create(Models.JobCardRequest{VehicleRegNo: "TRK-01", Items: itemsFor(material)})
	require.Error(t, err)

	assert.Zero(t, countRows(t, db, &Models.JobCard{}))
	assert.False(t, testutil.IsUsed(t, db, material.ID))

	// The number was not consumed either.
	var counters int64
	require.NoError(t, db.Model(&Models.JobCardSequence{}).Count(&counters).Error)
	assert.Zero(t, counters)
}

func TestUpdateReplacesItems(t *testing.T) {
	service, db := newTestService(t)
	first := testutil.SeedMaterial(t, db, "TRK-01", "MRN-1", 100)
	kept := testutil.SeedMaterial(t, db, "TRK-01", "MRN-2", 40)
	added := testutil.SeedMaterial(t, db, "TRK-01", "MRN-3", 60)

	card, err := service.Create(Models.JobCardRequest{VehicleRegNo: "TRK-01", Items: itemsFor(first, kept)})
	require.NoError(t, err)

	updated, err := service.Update(card.ID, Models.JobCardRequest{
		VehicleRegNo:      "TRK-01",
		SupervisorName:    "R. Perera",
		TotalManpowerCost: decimal.NewFromInt(25),
		Items:             itemsFor(kept, added),
	})
	require.NoError(t, err)

	assert.Equal(t, card.JobCardNo, updated.JobCardNo)
	assert.Equal(t, "R. Perera", updated.SupervisorName)
	require.Len(t, updated.Items, 2)
	assert.True(t, decimal.NewFromInt(100).Equal(updated.TotalSparePartsCost), updated.TotalSparePartsCost.String())
	assert.True(t, decimal.NewFromInt(125).Equal(updated.Subtotal), updated.Subtotal.String())

	assert.False(t, testutil.IsUsed(t, db, first.ID))
	assert.True(t, testutil.IsUsed(t, db, kept.ID))
	assert.True(t, testutil.IsUsed(t, db, added.ID))
}

func TestUpdateWithEmptyItemsReleasesEverything(t *testing.T) {
	service, db := newTestService(t)
	material := testutil.SeedMaterial(t, db, "TRK-01", "MRN-1", 100)

	card, err := service.Create(Models.JobCardRequest{VehicleRegNo: "TRK-01", Items: itemsFor(material)})
	require.NoError(t, err)

	updated, err := service.Update(card.ID, Models.JobCardRequest{
		VehicleRegNo: "TRK-01",
		Items:        []Models.JobCardItemRequest{},
	})
	require.NoError(t, err)

	assert.Empty(t, updated.Items)
	assert.True(t, updated.TotalSparePartsCost.IsZero())
	assert.False(t, testutil.IsUsed(t, db, material.ID))
}

func TestUpdateWithoutItemsKeepsChildren(t *testing.T) {
	service, db := newTestService(t)
	material := testutil.SeedMaterial(t, db, "TRK-01", "MRN-1", 100)

	card, err := service.Create(Models.JobCardRequest{
		VehicleRegNo: "TRK-01",
		Items:        itemsFor(material),
		OutsideWorks: []Models.OutsideWorkRequest{{Description: "Tow", Cost: decimal.NewFromInt(30)}},
	})
	require.NoError(t, err)

	updated, err := service.Update(card.ID, Models.JobCardRequest{
		VehicleRegNo: "TRK-01",
		Status:       string(Models.StatusInProgress),
	})
	require.NoError(t, err)

	assert.Equal(t, Models.StatusInProgress, updated.Status)
	assert.Len(t, updated.Items, 1)
	assert.Len(t, updated.OutsideWorks, 1)
	assert.True(t, decimal.NewFromInt(130).Equal(updated.Subtotal), updated.Subtotal.String())
	assert.True(t, testutil.IsUsed(t, db, material.ID))
}

func TestUpdateRejectsMaterialOnAnotherCard(t *testing.T) {
	service, db := newTestService(t)
	mine := testutil.SeedMaterial(t, db, "TRK-01", "MRN-1", 10)
	theirs := testutil.SeedMaterial(t, db, "TRK-02", "MRN-2", 10)

	card, err := service.Create(Models.JobCardRequest{VehicleRegNo: "TRK-01", Items: itemsFor(mine)})
	require.NoError(t, err)
	_, err = service.Create(Models.JobCardRequest{VehicleRegNo: "TRK-02", Items: itemsFor(theirs)})
	require.NoError(t, err)

	_, err = service.Update(card.ID, Models.JobCardRequest{VehicleRegNo: "TRK-01", Items: itemsFor(theirs)})
	require.ErrorIs(t, err, ErrMaterialInUse)

	// The failed update released nothing.
	assert.True(t, testutil.IsUsed(t, db, mine.ID))
	reloaded, err := service.Get(card.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 1)
	assert.Equal(t, mine.ID, reloaded.Items[0].IssuedMaterialID)
}

func TestUpdateMissingCard(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.Update(42, Models.JobCardRequest{VehicleRegNo: "TRK-01"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatusLeavesMaterials(t *testing.T) {
	service, db := newTestService(t)
	material := testutil.SeedMaterial(t, db, "TRK-01", "MRN-1", 10)

	card, err := service.Create(Models.JobCardRequest{VehicleRegNo: "TRK-01", Items: itemsFor(material)})
	require.NoError(t, err)

	updated, err := service.UpdateStatus(card.ID, Models.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, Models.StatusCompleted, updated.Status)
	assert.Len(t, updated.Items, 1)
	assert.True(t, testutil.IsUsed(t, db, material.ID))

	_, err = service.UpdateStatus(card.ID, "PARKED")
	require.ErrorIs(t, err, ErrValidation)

	_, err = service.UpdateStatus(999, Models.StatusCancelled)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteReleasesMaterials(t *testing.T) {
	service, db := newTestService(t)
	first := testutil.SeedMaterial(t, db, "TRK-01", "MRN-1", 10)
	second := testutil.SeedMaterial(t, db, "TRK-01", "MRN-2", 20)

	card, err := service.Create(Models.JobCardRequest{
		VehicleRegNo: "TRK-01",
		Items:        itemsFor(first, second),
		OutsideWorks: []Models.OutsideWorkRequest{{Description: "Tow", Cost: decimal.NewFromInt(30)}},
	})
	require.NoError(t, err)

	require.NoError(t, service.Delete(card.ID))

	assert.False(t, testutil.IsUsed(t, db, first.ID))
	assert.False(t, testutil.IsUsed(t, db, second.ID))
	assert.Zero(t, countRows(t, db, &Models.JobCard{}))
	assert.Zero(t, countRows(t, db, &Models.JobCardItem{}))
	assert.Zero(t, countRows(t, db, &Models.OutsideWork{}))

	_, err = service.Get(card.ID)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, service.Delete(card.ID), ErrNotFound)
}

func TestDeletedNumberIsNotReissued(t *testing.T) {
	service, _ := newTestService(t)

	card, err := service.Create(Models.JobCardRequest{VehicleRegNo: "TRK-01"})
	require.NoError(t, err)
	require.NoError(t, service.Delete(card.ID))

	next, err := service.Create(Models.JobCardRequest{VehicleRegNo: "TRK-01"})
	require.NoError(t, err)
	assert.Equal(t, "2025/03/R/0001", card.JobCardNo)
	assert.Equal(t, "2025/03/R/0002", next.JobCardNo)
}

func TestListFilters(t *testing.T) {
	service, _ := newTestService(t)

	for _, req := range []Models.JobCardRequest{
		{VehicleRegNo: "TRK-01", DriverOperatorName: "Nimal"},
		{VehicleRegNo: "TRK-02", Status: string(Models.StatusCompleted)},
		{VehicleRegNo: "EXC-07", DriverOperatorName: "Kamal"},
	} {
		_, err := service.Create(req)
		require.NoError(t, err)
	}

	cards, total, err := service.List(ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, cards, 3)

	cards, total, err = service.List(ListFilter{Search: "kamal"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "EXC-07", cards[0].VehicleRegNo)

	_, total, err = service.List(ListFilter{Status: string(Models.StatusCompleted)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	cards, total, err = service.List(ListFilter{Vehicle: "TRK", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, cards, 1)
}
