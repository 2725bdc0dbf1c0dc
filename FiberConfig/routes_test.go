package FiberConfig

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"Workshop/Config"
	"Workshop/Controllers"
	"Workshop/Maintenance"
	"Workshop/Models"
	"Workshop/Spreadsheet"
	"Workshop/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

func testConfig(authEnabled bool) *Config.Config {
	return &Config.Config{
		Auth: Config.AuthConfig{
			Enabled:   authEnabled,
			JWTSecret: "test-secret",
			TokenTTL:  time.Hour,
		},
		JobCards: Config.JobCardConfig{NumberFormat: Config.NumberFormatStandard, SundryRate: 0.10},
	}
}

func newTestApp(t *testing.T, authEnabled bool) (*fiber.App, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	service := Maintenance.NewService(db, Maintenance.NewSequencer(Config.NumberFormatStandard))
	app := NewApp(Dependencies{DB: db, Config: testConfig(authEnabled), Service: service})
	return app, db
}

// call sends a JSON request and decodes a JSON response into out when given.
func call(t *testing.T, app *fiber.App, method, path string, body interface{}, out interface{}, headers ...string) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type cardResponse struct {
	Data struct {
		ID         uint    `json:"id"`
		JobCardNo  string  `json:"job_card_no"`
		Status     string  `json:"status"`
		GrandTotal float64 `json:"grand_total"`
		Items      []struct {
			IssuedMaterialID uint `json:"issued_material_id"`
		} `json:"items"`
	} `json:"data"`
}

func TestHealth(t *testing.T) {
	app, _ := newTestApp(t, true)

	var body map[string]string
	assert.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/health", nil, &body))
	assert.Equal(t, "ok", body["status"])
}

func TestMachineRoutes(t *testing.T) {
	app, _ := newTestApp(t, false)

	machine := map[string]interface{}{"registration_no": "EX-100", "brand": "CAT", "type": "Excavator", "yom": 2019}
	assert.Equal(t, http.StatusCreated, call(t, app, http.MethodPost, "/api/machines", machine, nil))
	assert.Equal(t, http.StatusConflict, call(t, app, http.MethodPost, "/api/machines", machine, nil))
	assert.Equal(t, http.StatusBadRequest, call(t, app, http.MethodPost, "/api/machines",
		map[string]interface{}{"registration_no": "  "}, nil))

	var list struct {
		Data  []Models.Machine `json:"data"`
		Total int64            `json:"total"`
	}
	assert.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/machines?search=EX", nil, &list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, "EX-100", list.Data[0].RegistrationNo)

	assert.Equal(t, http.StatusBadRequest, call(t, app, http.MethodGet, "/api/machines/abc", nil, nil))
	assert.Equal(t, http.StatusNotFound, call(t, app, http.MethodDelete, "/api/machines/999", nil, nil))
}

func TestJobCardLifecycle(t *testing.T) {
	app, db := newTestApp(t, false)
	filter := testutil.SeedMaterial(t, db, "TRK-01", "MRN-1", 100)
	oil := testutil.SeedMaterial(t, db, "TRK-01", "MRN-2", 50)

	var created cardResponse
	status := call(t, app, http.MethodPost, "/api/job-cards", map[string]interface{}{
		"vehicle_reg_no":      "TRK-01",
		"repair_type":         "Running Repair",
		"total_manpower_cost": 200,
		"items": []map[string]uint{
			{"issued_material_id": filter.ID},
			{"issued_material_id": oil.ID},
		},
	}, &created)
	require.Equal(t, http.StatusCreated, status)
	assert.Contains(t, created.Data.JobCardNo, "/R/0001")
	assert.Equal(t, "DRAFT", created.Data.Status)
	assert.Equal(t, 385.0, created.Data.GrandTotal)
	assert.True(t, testutil.IsUsed(t, db, filter.ID))

	// A used material can be neither deleted nor attached elsewhere.
	assert.Equal(t, http.StatusConflict, call(t, app, http.MethodDelete, "/api/materials/"+itoa(filter.ID), nil, nil))
	assert.Equal(t, http.StatusConflict, call(t, app, http.MethodPost, "/api/job-cards", map[string]interface{}{
		"vehicle_reg_no": "TRK-02",
		"items":          []map[string]uint{{"issued_material_id": filter.ID}},
	}, nil))

	cardPath := "/api/job-cards/" + itoa(created.Data.ID)

	var patched cardResponse
	assert.Equal(t, http.StatusOK, call(t, app, http.MethodPatch, cardPath+"/status",
		map[string]string{"status": "IN_PROGRESS"}, &patched))
	assert.Equal(t, "IN_PROGRESS", patched.Data.Status)
	assert.Equal(t, http.StatusBadRequest, call(t, app, http.MethodPatch, cardPath+"/status",
		map[string]string{"status": "DONE"}, nil))

	var stats struct {
		Data Controllers.DashboardStats `json:"data"`
	}
	assert.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/dashboard", nil, &stats))
	assert.Equal(t, int64(2), stats.Data.TotalMaterials)
	assert.Equal(t, int64(2), stats.Data.UsedMaterials)
	assert.Equal(t, int64(1), stats.Data.PendingJobCards)

	var raw struct {
		Data map[string]int64 `json:"data"`
	}
	assert.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/dashboard", nil, &raw))
	assert.Equal(t, int64(1), raw.Data["pending_job_cards"])
	assert.Equal(t, int64(2), raw.Data["used_materials"])
	assert.NotContains(t, raw.Data, "pendingJobCards")

	assert.Equal(t, http.StatusOK, call(t, app, http.MethodDelete, cardPath, nil, nil))
	assert.False(t, testutil.IsUsed(t, db, filter.ID))
	assert.Equal(t, http.StatusNotFound, call(t, app, http.MethodGet, cardPath, nil, nil))
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func TestPrintJobCard(t *testing.T) {
	app, db := newTestApp(t, false)
	material := testutil.SeedMaterial(t, db, "TRK-01", "MRN-7", 120)

	var created cardResponse
	require.Equal(t, http.StatusCreated, call(t, app, http.MethodPost, "/api/job-cards", map[string]interface{}{
		"vehicle_reg_no": "TRK-01",
		"items":          []map[string]uint{{"issued_material_id": material.ID}},
	}, &created))

	req := httptest.NewRequest(http.MethodGet, "/api/job-cards/"+itoa(created.Data.ID)+"/print", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/html")
	page, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(page), created.Data.JobCardNo)
	assert.Contains(t, string(page), "MRN-7")
	assert.Contains(t, string(page), "132.00")
}

func TestAutoGenerateAllRoute(t *testing.T) {
	app, db := newTestApp(t, false)
	testutil.SeedMaterial(t, db, "TRK-01", "MRN-1", 100)
	testutil.SeedMaterial(t, db, "TRK-02", "MRN-2", 80)
	testutil.SeedMaterial(t, db, "TRK-02", "MRN-3", 20)

	var groups struct {
		Total int `json:"total"`
	}
	assert.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/materials/unused-groups", nil, &groups))
	assert.Equal(t, 2, groups.Total)

	var result Maintenance.BatchResult
	assert.Equal(t, http.StatusOK, call(t, app, http.MethodPost, "/api/job-cards/auto-generate/all",
		map[string][]string{"vehicles": {"TRK-02"}}, &result))
	assert.Equal(t, 1, result.TotalJobCards)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "TRK-02", result.Results[0].Vehicle)
	assert.Equal(t, 2, result.Results[0].ItemCount)

	// Without a body every remaining group is processed.
	assert.Equal(t, http.StatusOK, call(t, app, http.MethodPost, "/api/job-cards/auto-generate/all", nil, &result))
	assert.Equal(t, 1, result.TotalJobCards)
	assert.Equal(t, "TRK-01", result.Results[0].Vehicle)
}

func TestImportAndExportMaterials(t *testing.T) {
	app, db := newTestApp(t, false)

	var form bytes.Buffer
	writer := multipart.NewWriter(&form)
	part, err := writer.CreateFormFile("file", "materials.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("MRN No.,Description,Vehicle,Qty,Price\n" +
		"MRN-10,Engine oil 15W40,TRK-09,4,25\n" +
		",,,,\n"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/materials/import", &form)
	req.Header.Set(fiber.HeaderContentType, writer.FormDataContentType())
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary struct {
		Imported int `json:"imported"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	assert.Equal(t, 1, summary.Imported)

	var material Models.IssuedMaterial
	require.NoError(t, db.Where("mrn_no = ?", "MRN-10").First(&material).Error)
	assert.Equal(t, Models.CategoryLubricant, material.Category)
	assert.True(t, decimal.NewFromInt(100).Equal(material.Total), material.Total.String())

	var logs struct {
		Total int64 `json:"total"`
	}
	assert.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/import-logs", nil, &logs))
	assert.Equal(t, int64(1), logs.Total)

	exportReq := httptest.NewRequest(http.MethodGet, "/api/materials/export", nil)
	exportResp, err := app.Test(exportReq, -1)
	require.NoError(t, err)
	defer exportResp.Body.Close()
	assert.Equal(t, http.StatusOK, exportResp.StatusCode)
	assert.Equal(t, Spreadsheet.ContentTypeXLSX, exportResp.Header.Get(fiber.HeaderContentType))
	assert.Contains(t, exportResp.Header.Get(fiber.HeaderContentDisposition), ".xlsx")
}

func TestAuthRequiresLogin(t *testing.T) {
	app, db := newTestApp(t, true)
	require.NoError(t, Models.SeedAdmin(db, "admin@example.com", "secret123"))

	assert.Equal(t, http.StatusUnauthorized, call(t, app, http.MethodGet, "/api/dashboard", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, call(t, app, http.MethodPost, "/api/login",
		map[string]string{"email": "admin@example.com", "password": "wrong"}, nil))

	var login struct {
		Token string `json:"token"`
	}
	require.Equal(t, http.StatusOK, call(t, app, http.MethodPost, "/api/login",
		map[string]string{"email": "admin@example.com", "password": "secret123"}, &login))
	require.NotEmpty(t, login.Token)
	bearer := "Bearer " + login.Token

	assert.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/dashboard", nil, nil,
		fiber.HeaderAuthorization, bearer))

	var me struct {
		Data Models.User `json:"data"`
	}
	assert.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/users/me", nil, &me,
		fiber.HeaderAuthorization, bearer))
	assert.Equal(t, "admin@example.com", me.Data.Email)

	// A viewer can read but not write.
	assert.Equal(t, http.StatusCreated, call(t, app, http.MethodPost, "/api/users", map[string]interface{}{
		"name": "Viewer", "email": "viewer@example.com", "password": "viewer123", "permission": Models.PermissionViewer,
	}, nil, fiber.HeaderAuthorization, bearer))

	var viewerLogin struct {
		Token string `json:"token"`
	}
	require.Equal(t, http.StatusOK, call(t, app, http.MethodPost, "/api/login",
		map[string]string{"email": "viewer@example.com", "password": "viewer123"}, &viewerLogin))
	viewer := "Bearer " + viewerLogin.Token

	assert.Equal(t, http.StatusOK, call(t, app, http.MethodGet, "/api/machines", nil, nil,
		fiber.HeaderAuthorization, viewer))
	assert.Equal(t, http.StatusForbidden, call(t, app, http.MethodPost, "/api/machines",
		map[string]string{"registration_no": "EX-1"}, nil, fiber.HeaderAuthorization, viewer))
}

// exportRows downloads the materials export and returns its data rows and file name.
func exportRows(t *testing.T, app *fiber.App, query string) ([][]string, string) {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/materials/export"+query, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	f, err := excelize.OpenReader(resp.Body)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Materials")
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	return rows[1:], resp.Header.Get(fiber.HeaderContentDisposition)
}

func TestExportMaterialsCategoryFilter(t *testing.T) {
	app, db := newTestApp(t, false)
	testutil.SeedMaterial(t, db, "TRK-01", "MRN-1", 100)
	filter := testutil.SeedMaterial(t, db, "TRK-01", "MRN-2", 40)
	require.NoError(t, db.Model(&filter).Update("category", Models.CategoryFilter).Error)

	rows, disposition := exportRows(t, app, "?category=all")
	assert.Len(t, rows, 2)
	assert.NotContains(t, disposition, "_all_")

	rows, _ = exportRows(t, app, "")
	assert.Len(t, rows, 2)

	rows, disposition = exportRows(t, app, "?category=FILTER")
	require.Len(t, rows, 1)
	assert.Equal(t, "MRN-2", rows[0][2])
	assert.Contains(t, disposition, "materials_export_filter_")
}
