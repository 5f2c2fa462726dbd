package httpapi_test

import (
	"bytes"
	"io"
	"net/http"
	"testing"

	"reefer-monitor/internal/domain"
	httpapi "reefer-monitor/internal/http"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func strPtr(s string) *string { return &s }
func i64Ptr(i int64) *int64   { return &i }
func f64Ptr(f float64) *float64 {
	return &f
}

func TestGenerateCatalogExport(t *testing.T) {
	sensorType := domain.SensorTypeTemperature
	records := []domain.SensorRecord{
		{
			VehicleID: "281474985231664", VehicleName: "Vehicle 01",
			LicensePlate: "COLD-01", Make: "Volvo", Model: "FH16",
			Serial: "S1", VIN: "V1", Year: "2022",
			SensorType: &sensorType, SensorPosition: strPtr("back"),
			SensorName: strPtr("Reefer Temp"), SensorID: i64Ptr(501), SensorMac: strPtr("aa:bb"),
		},
		{
			// 哨兵行：传感器列应导出为 "-"
			VehicleID: "281474985231665", VehicleName: "Vehicle 02",
			LicensePlate: "COLD-02", Make: "Scania", Model: "R500",
			Serial: "S2", VIN: "V2", Year: "2021",
		},
	}

	data, err := httpapi.GenerateCatalogExport(records)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Fleet Catalog")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, httpapi.CatalogExportHeader, rows[0])
	require.Equal(t, "Vehicle 01", rows[1][1])
	require.Equal(t, "temperature", rows[1][8])
	require.Equal(t, "501", rows[1][11])
	require.Equal(t, "-", rows[2][8])
	require.Equal(t, "-", rows[2][11])
}

func TestGenerateViolationsExport(t *testing.T) {
	points := []domain.TimePoint{
		{TimeMs: 1763064102000, Value: f64Ptr(7.5)},
		{TimeMs: 1763064162000, Value: f64Ptr(0.2)},
	}

	data, err := httpapi.GenerateViolationsExport(points, "celsius")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Threshold Violations")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, httpapi.ViolationsExportHeader, rows[0])
	require.Equal(t, "7.5", rows[1][1])
	require.Equal(t, "celsius", rows[1][2])
}

func TestExportCatalogEndpoint(t *testing.T) {
	srv := newAPIServer(t, newVendorBackend(t), nil)

	resp, err := http.Get(srv.URL + "/monitor/api/v1/export/catalog.xlsx")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		resp.Header.Get("Content-Type"))
	require.Contains(t, resp.Header.Get("Content-Disposition"), "fleet-catalog.xlsx")

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	// xlsx 是 zip 容器
	require.True(t, bytes.HasPrefix(data, []byte("PK")))
}

func TestExportCatalogEndpoint_VendorDown(t *testing.T) {
	srv := newAPIServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}), nil)

	resp, err := http.Get(srv.URL + "/monitor/api/v1/export/catalog.xlsx")
	require.NoError(t, err)
	resp.Body.Close()

	// 导出半截目录没有意义：这里是少数返回 5xx 的路径
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestExportViolationsEndpoint(t *testing.T) {
	srv := newAPIServer(t, newVendorBackend(t), nil)

	resp, err := http.Get(srv.URL + "/monitor/api/v1/export/violations.xlsx?sensor_id=501&start_ms=0&end_ms=120000")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Disposition"), "threshold-violations.xlsx")

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	// 序列 2/7/4°C，默认阈值 1~6：只有 7°C 一行
	rows, err := f.GetRows("Threshold Violations")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "7", rows[1][1])
}
