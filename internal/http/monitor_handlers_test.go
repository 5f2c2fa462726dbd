package httpapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reefer-monitor/internal/config"
	httpapi "reefer-monitor/internal/http"
	"reefer-monitor/internal/models"
	"reefer-monitor/internal/service"
	"reefer-monitor/internal/store"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// envelope 解码用的信封（result 延迟解码，按用例各自展开）
type envelope struct {
	Code    int             `json:"code"`
	Type    string          `json:"type"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// newVendorBackend 一个正常工作的厂家 API 假后端：
// 一辆带温度+门传感器的车、一辆无配置的车（哨兵行）。
func newVendorBackend(t *testing.T) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"id":101,"name":"Acme Cold Chain"}}`))
	})

	mux.HandleFunc("/fleet/vehicles", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": [
				{
					"id": 281474985231664,
					"name": "Vehicle 01",
					"licensePlate": "COLD-01",
					"make": "Volvo", "model": "FH16", "serial": "S1", "vin": "V1", "year": 2022,
					"sensorConfiguration": {
						"areas": [{
							"position": "back",
							"temperatureSensors": [{"id": 501, "name": "Reefer Temp", "mac": "aa:bb"}],
							"humiditySensors": []
						}],
						"doors": [{"position": "back", "sensor": {"id": 502, "name": "Reefer Door", "mac": "cc:dd"}}]
					}
				},
				{
					"id": 281474985231665,
					"name": "Vehicle 02",
					"licensePlate": "COLD-02",
					"make": "Scania", "model": "R500", "serial": "S2", "vin": "V2", "year": 2021
				}
			],
			"pagination": {"hasNextPage": false, "endCursor": ""}
		}`))
	})

	// 历史查询按请求里的 field 分流
	mux.HandleFunc("/v1/sensors/history", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Series []struct {
				Field string `json:"field"`
			} `json:"series"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Len(t, payload.Series, 1)

		w.Header().Set("Content-Type", "application/json")
		switch payload.Series[0].Field {
		case "doorClosed":
			_, _ = w.Write([]byte(`{"results":[
				{"timeMs":0,"series":[true]},
				{"timeMs":60000,"series":[false]},
				{"timeMs":120000,"series":[true]}
			]}`))
		default:
			// 毫摄氏度：2°C / 7°C / 4°C
			_, _ = w.Write([]byte(`{"results":[
				{"timeMs":0,"series":[2000]},
				{"timeMs":60000,"series":[7000]},
				{"timeMs":120000,"series":[4000]}
			]}`))
		}
	})

	mux.HandleFunc("/v1/sensors/temperature", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sensors":[{
			"id": 501, "name": "Reefer Temp",
			"ambientTemperature": 2539,
			"ambientTemperatureTime": "2025-11-14T10:51:30Z",
			"vehicleId": 281474985231664
		}]}`))
	})

	mux.HandleFunc("/v1/sensors/door", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sensors":[{
			"id": 502, "name": "Reefer Door",
			"doorClosed": true,
			"doorStatusTime": "2025-11-14T10:52:50Z",
			"vehicleId": 281474985231664
		}]}`))
	})

	return mux
}

// newAPIServer 把假厂家后端接到完整的 handler + router 栈上
func newAPIServer(t *testing.T, vendor http.Handler, poller *service.LivePoller) *httptest.Server {
	t.Helper()
	vendorSrv := httptest.NewServer(vendor)
	t.Cleanup(vendorSrv.Close)

	log := zap.NewNop()
	client := service.NewSamsaraClient(vendorSrv.URL, "test-token", 5*time.Second, log)
	catalog := service.NewCatalogService(client, store.NewMemoryKV(), 5*time.Minute, time.Hour, log)
	history := service.NewHistoryService(client, log)

	defaults := config.HistoryConfig{TemperatureStepMs: 60000, DoorStepMs: 5000}
	handler := httpapi.NewMonitorHandler(catalog, history, poller, defaults, log)

	router := httpapi.NewRouter(log)
	router.RegisterMonitorRoutes(handler)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string) (*http.Response, envelope) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

func postJSON(t *testing.T, url string) (*http.Response, envelope) {
	t.Helper()
	resp, err := http.Post(url, "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

func TestGetOrg(t *testing.T) {
	srv := newAPIServer(t, newVendorBackend(t), nil)

	resp, env := getJSON(t, srv.URL+"/monitor/api/v1/org")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 2000, env.Code)
	require.Equal(t, "success", env.Type)
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var org struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(env.Result, &org))
	require.Equal(t, "101", org.ID)
	require.Equal(t, "Acme Cold Chain", org.Name)
}

func TestGetCatalog(t *testing.T) {
	srv := newAPIServer(t, newVendorBackend(t), nil)

	_, env := getJSON(t, srv.URL+"/monitor/api/v1/catalog")
	require.Equal(t, "success", env.Type)

	var catalog models.CatalogModel
	require.NoError(t, json.Unmarshal(env.Result, &catalog))
	require.False(t, catalog.Degraded)
	// 车 01 两行（温度+门），车 02 一行哨兵
	require.Len(t, catalog.Items, 3)

	// 按车过滤
	_, env = getJSON(t, srv.URL+"/monitor/api/v1/catalog?vehicle_id=281474985231664")
	require.NoError(t, json.Unmarshal(env.Result, &catalog))
	require.Len(t, catalog.Items, 2)
	for _, item := range catalog.Items {
		require.Equal(t, "281474985231664", item.VehicleID)
	}
}

func TestGetCatalog_VendorDown(t *testing.T) {
	srv := newAPIServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}), nil)

	resp, env := getJSON(t, srv.URL+"/monitor/api/v1/catalog")

	// 厂家打不通也不给前端 5xx：200 + warning + degraded
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "warning", env.Type)

	var catalog models.CatalogModel
	require.NoError(t, json.Unmarshal(env.Result, &catalog))
	require.True(t, catalog.Degraded)
	require.Empty(t, catalog.Items)
}

func TestGetVehicles(t *testing.T) {
	srv := newAPIServer(t, newVendorBackend(t), nil)

	_, env := getJSON(t, srv.URL+"/monitor/api/v1/vehicles")
	require.Equal(t, "success", env.Type)

	var vehicles models.VehiclesModel
	require.NoError(t, json.Unmarshal(env.Result, &vehicles))
	require.Len(t, vehicles.Items, 2)
}

func TestGetTemperatureHistory(t *testing.T) {
	srv := newAPIServer(t, newVendorBackend(t), nil)

	_, env := getJSON(t, srv.URL+"/monitor/api/v1/history/temperature?sensor_id=501&start_ms=0&end_ms=120000")
	require.Equal(t, "success", env.Type)

	var hist models.TemperatureHistoryModel
	require.NoError(t, json.Unmarshal(env.Result, &hist))
	require.Equal(t, "celsius", hist.Unit)
	require.False(t, hist.Degraded)
	require.Len(t, hist.Points, 3)
	// 毫摄氏度已换算为摄氏度
	require.InDelta(t, 2.0, *hist.Points[0].Value, 1e-9)
	require.InDelta(t, 7.0, *hist.Points[1].Value, 1e-9)

	// 华氏请求在服务端完成换算
	_, env = getJSON(t, srv.URL+"/monitor/api/v1/history/temperature?sensor_id=501&start_ms=0&end_ms=120000&unit=fahrenheit")
	require.NoError(t, json.Unmarshal(env.Result, &hist))
	require.Equal(t, "fahrenheit", hist.Unit)
	require.InDelta(t, 35.6, *hist.Points[0].Value, 1e-9)
	require.InDelta(t, 44.6, *hist.Points[1].Value, 1e-9)
}

func TestGetTemperatureHistory_MissingSensorID(t *testing.T) {
	srv := newAPIServer(t, newVendorBackend(t), nil)

	resp, env := getJSON(t, srv.URL+"/monitor/api/v1/history/temperature")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "error", env.Type)
	require.Contains(t, env.Message, "sensor_id")
}

func TestGetTemperatureHistory_VendorDown(t *testing.T) {
	srv := newAPIServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}), nil)

	resp, env := getJSON(t, srv.URL+"/monitor/api/v1/history/temperature?sensor_id=501&start_ms=0&end_ms=120000")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "warning", env.Type)

	var hist models.TemperatureHistoryModel
	require.NoError(t, json.Unmarshal(env.Result, &hist))
	require.True(t, hist.Degraded)
	require.Empty(t, hist.Points)
}

func TestGetDoorHistory(t *testing.T) {
	srv := newAPIServer(t, newVendorBackend(t), nil)

	_, env := getJSON(t, srv.URL+"/monitor/api/v1/history/door?sensor_id=502&start_ms=0&end_ms=120000")
	require.Equal(t, "success", env.Type)

	var hist models.DoorHistoryModel
	require.NoError(t, json.Unmarshal(env.Result, &hist))
	require.Len(t, hist.Points, 3)
	require.True(t, *hist.Points[0].Closed)
	require.False(t, *hist.Points[1].Closed)
}

func TestGetDoorEvents(t *testing.T) {
	srv := newAPIServer(t, newVendorBackend(t), nil)

	// closed→open 发生在 t=60000，温度曲线最近样本是 7°C
	_, env := getJSON(t, srv.URL+"/monitor/api/v1/door-events?sensor_id=502&temp_sensor_id=501&start_ms=0&end_ms=120000")
	require.Equal(t, "success", env.Type)

	var events models.DoorEventsModel
	require.NoError(t, json.Unmarshal(env.Result, &events))
	require.Equal(t, 1, events.Count)
	require.Equal(t, int64(60000), events.Events[0].TimeMs)
	require.NotNil(t, events.Events[0].Temperature)
	require.InDelta(t, 7.0, *events.Events[0].Temperature, 1e-9)
}

func TestGetDoorEvents_WithoutTemperatureSeries(t *testing.T) {
	srv := newAPIServer(t, newVendorBackend(t), nil)

	_, env := getJSON(t, srv.URL+"/monitor/api/v1/door-events?sensor_id=502&start_ms=0&end_ms=120000")

	var events models.DoorEventsModel
	require.NoError(t, json.Unmarshal(env.Result, &events))
	require.Equal(t, 1, events.Count)
	require.Nil(t, events.Events[0].Temperature)
}

func TestGetStatistics(t *testing.T) {
	srv := newAPIServer(t, newVendorBackend(t), nil)

	// 序列 2/7/4°C，默认阈值 1~6°C：只有 7°C 越界
	_, env := getJSON(t, srv.URL+"/monitor/api/v1/statistics?sensor_id=501&start_ms=0&end_ms=120000")
	require.Equal(t, "success", env.Type)

	var stats models.StatisticsModel
	require.NoError(t, json.Unmarshal(env.Result, &stats))
	require.Equal(t, 3, stats.SampleCount)
	require.InDelta(t, 13.0/3.0, stats.Mean, 1e-9)
	require.InDelta(t, 2.0, stats.Min, 1e-9)
	require.InDelta(t, 7.0, stats.Max, 1e-9)
	require.Equal(t, 1, stats.ViolationCount)
	require.InDelta(t, 1.0, stats.MinThreshold, 1e-9)
	require.InDelta(t, 6.0, stats.MaxThreshold, 1e-9)

	// 自定义阈值：2~7 全在界内
	_, env = getJSON(t, srv.URL+"/monitor/api/v1/statistics?sensor_id=501&start_ms=0&end_ms=120000&min_temp=2&max_temp=7")
	require.NoError(t, json.Unmarshal(env.Result, &stats))
	require.Equal(t, 0, stats.ViolationCount)
}

func TestGetCurrent(t *testing.T) {
	srv := newAPIServer(t, newVendorBackend(t), nil)

	_, env := getJSON(t, srv.URL+"/monitor/api/v1/current?temp_sensor_id=501&door_sensor_id=502")
	require.Equal(t, "success", env.Type)

	var current models.CurrentModel
	require.NoError(t, json.Unmarshal(env.Result, &current))
	require.InDelta(t, 2.539, *current.Temperature, 1e-9)
	require.Equal(t, "celsius", current.Unit)
	require.True(t, *current.DoorClosed)
	require.True(t, current.HasDoor)
	require.Equal(t, "281474985231664", current.Vehicle)
	require.False(t, current.Degraded)
}

func TestGetCurrent_MissingSensor(t *testing.T) {
	srv := newAPIServer(t, newVendorBackend(t), nil)

	resp, env := getJSON(t, srv.URL+"/monitor/api/v1/current")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "error", env.Type)
}

func TestLiveEndpoints_NotEnabled(t *testing.T) {
	srv := newAPIServer(t, newVendorBackend(t), nil)

	_, env := getJSON(t, srv.URL+"/monitor/api/v1/live")
	require.Equal(t, "success", env.Type)
	var state models.LiveStateModel
	require.NoError(t, json.Unmarshal(env.Result, &state))
	require.False(t, state.Enabled)

	_, env = postJSON(t, srv.URL+"/monitor/api/v1/live/pause")
	require.Equal(t, "warning", env.Type)
}

func TestLiveEndpoints_PauseResume(t *testing.T) {
	log := zap.NewNop()
	vendorSrv := httptest.NewServer(newVendorBackend(t))
	t.Cleanup(vendorSrv.Close)
	client := service.NewSamsaraClient(vendorSrv.URL, "test-token", 5*time.Second, log)
	history := service.NewHistoryService(client, log)
	poller := service.NewLivePoller(history, time.Second, 10, 501, 502, nil, log)

	srv := newAPIServer(t, newVendorBackend(t), poller)

	_, env := postJSON(t, srv.URL+"/monitor/api/v1/live/pause")
	require.Equal(t, "success", env.Type)
	require.True(t, poller.Paused())

	var state models.LiveStateModel
	_, env = getJSON(t, srv.URL+"/monitor/api/v1/live")
	require.NoError(t, json.Unmarshal(env.Result, &state))
	require.True(t, state.Enabled)
	require.True(t, state.Paused)

	_, env = postJSON(t, srv.URL+"/monitor/api/v1/live/resume")
	require.Equal(t, "success", env.Type)
	require.False(t, poller.Paused())
}

func TestMethodGuard(t *testing.T) {
	srv := newAPIServer(t, newVendorBackend(t), nil)

	resp, err := http.Get(srv.URL + "/monitor/api/v1/refresh")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/monitor/api/v1/catalog", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestRefresh(t *testing.T) {
	srv := newAPIServer(t, newVendorBackend(t), nil)

	_, env := postJSON(t, srv.URL+"/monitor/api/v1/refresh")
	require.Equal(t, "success", env.Type)
}
