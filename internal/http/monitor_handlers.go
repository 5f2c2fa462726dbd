package httpapi

import (
	"net/http"
	"time"

	"reefer-monitor/internal/config"
	"reefer-monitor/internal/domain"
	"reefer-monitor/internal/models"
	"reefer-monitor/internal/service"

	"go.uber.org/zap"
)

// 阈值默认值（原型侧边栏默认：1~6°C，约 33~43°F）
const (
	defaultMinCelsius    = 1.0
	defaultMaxCelsius    = 6.0
	defaultMinFahrenheit = 33.0
	defaultMaxFahrenheit = 43.0
)

// MonitorHandler 冷链监控面板 API
// 对厂家故障一律 fail-soft：空结果 + warning 信封 + degraded 标记，
// 绝不因为云端打不通而给前端 5xx。
type MonitorHandler struct {
	catalog  *service.CatalogService
	history  *service.HistoryService
	poller   *service.LivePoller // live 未启用时为 nil
	defaults config.HistoryConfig
	logger   *zap.Logger
}

func NewMonitorHandler(catalog *service.CatalogService, history *service.HistoryService, poller *service.LivePoller, defaults config.HistoryConfig, logger *zap.Logger) *MonitorHandler {
	return &MonitorHandler{
		catalog:  catalog,
		history:  history,
		poller:   poller,
		defaults: defaults,
		logger:   logger,
	}
}

// GET /monitor/api/v1/org
func (h *MonitorHandler) GetOrg(w http.ResponseWriter, r *http.Request) {
	org, err := h.catalog.GetOrgDetails(r.Context())
	if err != nil {
		h.logger.Warn("Org details unavailable", zap.Error(err))
		writeJSON(w, http.StatusOK, Warn[*domain.OrgDetails]("organization details unavailable", nil))
		return
	}
	writeJSON(w, http.StatusOK, Ok(org))
}

// GET /monitor/api/v1/catalog?vehicle_id=
func (h *MonitorHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	records, err := h.catalog.FetchFleetCatalog(r.Context())
	if vehicleID := r.URL.Query().Get("vehicle_id"); vehicleID != "" {
		records = service.SensorsForVehicle(records, vehicleID)
	}
	if records == nil {
		records = []domain.SensorRecord{}
	}

	resp := models.CatalogModel{Items: records, Degraded: err != nil}
	if err != nil {
		// 半截目录照样返回，但告诉前端这不是完整结果
		writeJSON(w, http.StatusOK, Warn("catalog may be incomplete", resp))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// GET /monitor/api/v1/vehicles
func (h *MonitorHandler) GetVehicles(w http.ResponseWriter, r *http.Request) {
	records, err := h.catalog.FetchFleetCatalog(r.Context())
	vehicles := service.UniqueVehicles(records)
	if vehicles == nil {
		vehicles = []domain.SensorRecord{}
	}
	resp := models.VehiclesModel{Items: vehicles, Degraded: err != nil}
	if err != nil {
		writeJSON(w, http.StatusOK, Warn("vehicle list may be incomplete", resp))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// historyWindow 解析历史查询公共参数
func (h *MonitorHandler) historyWindow(r *http.Request, defaultStepMs int64) (sensorID, startMs, endMs, stepMs int64, ok bool) {
	q := r.URL.Query()
	sensorID = parseInt64(q.Get("sensor_id"), 0)
	if sensorID == 0 {
		return 0, 0, 0, 0, false
	}
	now := time.Now()
	if preset := q.Get("range"); preset != "" {
		startMs, endMs = domain.PresetRange(domain.TimeRangePreset(preset), now)
	} else {
		startMs = parseInt64(q.Get("start_ms"), domain.TimeToMs(now.Add(-24*time.Hour)))
		endMs = parseInt64(q.Get("end_ms"), domain.TimeToMs(now))
	}
	stepMs = parseInt64(q.Get("step_ms"), defaultStepMs)
	return sensorID, startMs, endMs, stepMs, true
}

func unitFromQuery(r *http.Request) domain.TemperatureUnit {
	if r.URL.Query().Get("unit") == string(domain.UnitFahrenheit) {
		return domain.UnitFahrenheit
	}
	return domain.UnitCelsius
}

// GET /monitor/api/v1/history/temperature?sensor_id=&start_ms=&end_ms=&step_ms=&unit=
func (h *MonitorHandler) GetTemperatureHistory(w http.ResponseWriter, r *http.Request) {
	sensorID, startMs, endMs, stepMs, ok := h.historyWindow(r, h.defaults.TemperatureStepMs)
	if !ok {
		writeJSON(w, http.StatusBadRequest, Fail("sensor_id is required"))
		return
	}
	unit := unitFromQuery(r)

	raw, err := h.history.FetchTemperatureHistory(r.Context(), sensorID, startMs, endMs, stepMs)
	points := service.ConvertTemperatureSeries(raw, unit)
	resp := models.TemperatureHistoryModel{Points: points, Unit: string(unit), Degraded: err != nil}
	if err != nil {
		h.logger.Warn("Temperature history unavailable", zap.Int64("sensor_id", sensorID), zap.Error(err))
		writeJSON(w, http.StatusOK, Warn("temperature history unavailable", resp))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// GET /monitor/api/v1/history/humidity
func (h *MonitorHandler) GetHumidityHistory(w http.ResponseWriter, r *http.Request) {
	sensorID, startMs, endMs, stepMs, ok := h.historyWindow(r, h.defaults.TemperatureStepMs)
	if !ok {
		writeJSON(w, http.StatusBadRequest, Fail("sensor_id is required"))
		return
	}

	points, err := h.history.FetchHumidityHistory(r.Context(), sensorID, startMs, endMs, stepMs)
	resp := models.TemperatureHistoryModel{Points: points, Unit: "percent", Degraded: err != nil}
	if err != nil {
		h.logger.Warn("Humidity history unavailable", zap.Int64("sensor_id", sensorID), zap.Error(err))
		writeJSON(w, http.StatusOK, Warn("humidity history unavailable", resp))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// GET /monitor/api/v1/history/door
func (h *MonitorHandler) GetDoorHistory(w http.ResponseWriter, r *http.Request) {
	sensorID, startMs, endMs, stepMs, ok := h.historyWindow(r, h.defaults.DoorStepMs)
	if !ok {
		writeJSON(w, http.StatusBadRequest, Fail("sensor_id is required"))
		return
	}

	points, err := h.history.FetchDoorHistory(r.Context(), sensorID, startMs, endMs, stepMs)
	resp := models.DoorHistoryModel{Points: points, Degraded: err != nil}
	if err != nil {
		h.logger.Warn("Door history unavailable", zap.Int64("sensor_id", sensorID), zap.Error(err))
		writeJSON(w, http.StatusOK, Warn("door history unavailable", resp))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// GET /monitor/api/v1/door-events?sensor_id=&temp_sensor_id=&unit=
// temp_sensor_id 非空时，把每个事件投影到温度曲线上（marker 显示模式）。
func (h *MonitorHandler) GetDoorEvents(w http.ResponseWriter, r *http.Request) {
	sensorID, startMs, endMs, stepMs, ok := h.historyWindow(r, h.defaults.DoorStepMs)
	if !ok {
		writeJSON(w, http.StatusBadRequest, Fail("sensor_id is required"))
		return
	}
	unit := unitFromQuery(r)

	doorPoints, err := h.history.FetchDoorHistory(r.Context(), sensorID, startMs, endMs, stepMs)
	eventTimes := service.DetectDoorOpenEvents(doorPoints)

	// 事件标记：找事件时刻最近的温度样本
	var tempSeries []domain.TimePoint
	tempSensorID := parseInt64(r.URL.Query().Get("temp_sensor_id"), 0)
	if tempSensorID != 0 && len(eventTimes) > 0 {
		raw, tempErr := h.history.FetchTemperatureHistory(r.Context(), tempSensorID, startMs, endMs, h.defaults.TemperatureStepMs)
		if tempErr != nil {
			h.logger.Warn("Temperature series for event markers unavailable",
				zap.Int64("temp_sensor_id", tempSensorID), zap.Error(tempErr))
		}
		tempSeries = service.ConvertTemperatureSeries(raw, unit)
	}

	events := make([]models.DoorEventMarker, 0, len(eventTimes))
	for _, ts := range eventTimes {
		marker := models.DoorEventMarker{TimeMs: ts}
		if nearest := service.NearestSample(tempSeries, ts); nearest != nil {
			marker.Temperature = nearest.Value
		}
		events = append(events, marker)
	}

	resp := models.DoorEventsModel{Events: events, Count: len(events), Degraded: err != nil}
	if err != nil {
		h.logger.Warn("Door events unavailable", zap.Int64("sensor_id", sensorID), zap.Error(err))
		writeJSON(w, http.StatusOK, Warn("door history unavailable", resp))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// thresholds 解析阈值（默认值随单位变化）
func thresholds(r *http.Request, unit domain.TemperatureUnit) (float64, float64) {
	minDef, maxDef := defaultMinCelsius, defaultMaxCelsius
	if unit == domain.UnitFahrenheit {
		minDef, maxDef = defaultMinFahrenheit, defaultMaxFahrenheit
	}
	q := r.URL.Query()
	return parseFloat(q.Get("min_temp"), minDef), parseFloat(q.Get("max_temp"), maxDef)
}

// GET /monitor/api/v1/statistics?sensor_id=&min_temp=&max_temp=&unit=
// 单位换算先于阈值比较和统计（阈值与序列同单位）。
func (h *MonitorHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	sensorID, startMs, endMs, stepMs, ok := h.historyWindow(r, h.defaults.TemperatureStepMs)
	if !ok {
		writeJSON(w, http.StatusBadRequest, Fail("sensor_id is required"))
		return
	}
	unit := unitFromQuery(r)
	minTemp, maxTemp := thresholds(r, unit)

	raw, err := h.history.FetchTemperatureHistory(r.Context(), sensorID, startMs, endMs, stepMs)
	points := service.ConvertTemperatureSeries(raw, unit)
	stats := service.ComputeStatistics(points, minTemp, maxTemp)

	resp := models.StatisticsModel{
		Statistics:   stats,
		Unit:         string(unit),
		MinThreshold: minTemp,
		MaxThreshold: maxTemp,
		Degraded:     err != nil,
	}
	if err != nil {
		h.logger.Warn("Statistics source unavailable", zap.Int64("sensor_id", sensorID), zap.Error(err))
		writeJSON(w, http.StatusOK, Warn("temperature history unavailable", resp))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// GET /monitor/api/v1/current?temp_sensor_id=&door_sensor_id=&unit=
func (h *MonitorHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tempSensorID := parseInt64(q.Get("temp_sensor_id"), 0)
	if tempSensorID == 0 {
		writeJSON(w, http.StatusBadRequest, Fail("temp_sensor_id is required"))
		return
	}
	doorSensorID := parseInt64(q.Get("door_sensor_id"), 0)
	unit := unitFromQuery(r)

	resp := models.CurrentModel{Unit: string(unit), HasDoor: doorSensorID != 0}

	temp, err := h.history.CurrentTemperature(r.Context(), tempSensorID)
	if err != nil {
		resp.Degraded = true
	} else if temp != nil {
		celsius := domain.MilliCelsius(temp.AmbientTemperature)
		if unit == domain.UnitFahrenheit {
			resp.Temperature = domain.CelsiusToFahrenheit(celsius)
		} else {
			resp.Temperature = celsius
		}
		resp.TempTime = temp.Time
		resp.Vehicle = temp.VehicleID
	}

	if doorSensorID != 0 {
		door, doorErr := h.history.CurrentDoorStatus(r.Context(), doorSensorID)
		if doorErr != nil {
			resp.Degraded = true
		} else if door != nil {
			resp.DoorClosed = door.DoorClosed
			resp.DoorTime = door.Time
		}
	}

	if resp.Degraded {
		writeJSON(w, http.StatusOK, Warn("live readings unavailable", resp))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// GET /monitor/api/v1/live
func (h *MonitorHandler) GetLiveState(w http.ResponseWriter, r *http.Request) {
	state := models.LiveStateModel{Enabled: h.poller != nil}
	if h.poller != nil {
		state.Paused = h.poller.Paused()
	}
	writeJSON(w, http.StatusOK, Ok(state))
}

// POST /monitor/api/v1/live/pause
func (h *MonitorHandler) PauseLive(w http.ResponseWriter, r *http.Request) {
	if h.poller == nil {
		writeJSON(w, http.StatusOK, Warn("live polling is not enabled", models.LiveStateModel{}))
		return
	}
	h.poller.Pause()
	writeJSON(w, http.StatusOK, Ok(models.LiveStateModel{Enabled: true, Paused: true}))
}

// POST /monitor/api/v1/live/resume
func (h *MonitorHandler) ResumeLive(w http.ResponseWriter, r *http.Request) {
	if h.poller == nil {
		writeJSON(w, http.StatusOK, Warn("live polling is not enabled", models.LiveStateModel{}))
		return
	}
	h.poller.Resume()
	writeJSON(w, http.StatusOK, Ok(models.LiveStateModel{Enabled: true, Paused: false}))
}

// POST /monitor/api/v1/refresh 手动刷新：清目录缓存
func (h *MonitorHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.catalog.InvalidateCatalog(r.Context())
	writeJSON(w, http.StatusOK, Ok("refreshed"))
}
