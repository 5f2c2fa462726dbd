package httpapi

import (
	"net/http"

	"reefer-monitor/internal/service"

	"go.uber.org/zap"
)

// GET /monitor/api/v1/export/catalog.xlsx
func (h *MonitorHandler) ExportCatalog(w http.ResponseWriter, r *http.Request) {
	records, err := h.catalog.FetchFleetCatalog(r.Context())
	if err != nil {
		// 导出半截目录没有意义，这里不 fail-soft
		h.logger.Warn("Catalog export aborted, source unavailable", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, Fail("catalog unavailable"))
		return
	}
	if vehicleID := r.URL.Query().Get("vehicle_id"); vehicleID != "" {
		records = service.SensorsForVehicle(records, vehicleID)
	}

	data, err := GenerateCatalogExport(records)
	if err != nil {
		h.logger.Error("GenerateCatalogExport failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to generate export"))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=fleet-catalog.xlsx")
	_, _ = w.Write(data)
}

// GET /monitor/api/v1/export/violations.xlsx?sensor_id=&min_temp=&max_temp=&unit=
func (h *MonitorHandler) ExportViolations(w http.ResponseWriter, r *http.Request) {
	sensorID, startMs, endMs, stepMs, ok := h.historyWindow(r, h.defaults.TemperatureStepMs)
	if !ok {
		writeJSON(w, http.StatusBadRequest, Fail("sensor_id is required"))
		return
	}
	unit := unitFromQuery(r)
	minTemp, maxTemp := thresholds(r, unit)

	raw, err := h.history.FetchTemperatureHistory(r.Context(), sensorID, startMs, endMs, stepMs)
	if err != nil {
		h.logger.Warn("Violations export aborted, source unavailable", zap.Int64("sensor_id", sensorID), zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, Fail("temperature history unavailable"))
		return
	}
	points := service.ConvertTemperatureSeries(raw, unit)
	stats := service.ComputeStatistics(points, minTemp, maxTemp)

	data, err := GenerateViolationsExport(stats.Violations, string(unit))
	if err != nil {
		h.logger.Error("GenerateViolationsExport failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to generate export"))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=threshold-violations.xlsx")
	_, _ = w.Write(data)
}
