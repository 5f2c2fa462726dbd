package httpapi

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	// 每个请求带一个 request id，响应头回传，日志可对账
	reqID := req.Header.Get("X-Request-ID")
	if reqID == "" {
		reqID = uuid.NewString()
	}
	w.Header().Set("X-Request-ID", reqID)
	r.mux.ServeHTTP(w, req)
}

// RegisterMonitorRoutes 注册监控面板 API 路由
func (r *Router) RegisterMonitorRoutes(m *MonitorHandler) {
	get := func(pattern string, h http.HandlerFunc) {
		r.Handle(pattern, func(w http.ResponseWriter, req *http.Request) {
			if req.Method != http.MethodGet {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			h(w, req)
		})
	}
	post := func(pattern string, h http.HandlerFunc) {
		r.Handle(pattern, func(w http.ResponseWriter, req *http.Request) {
			if req.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			h(w, req)
		})
	}

	get("/monitor/api/v1/org", m.GetOrg)
	get("/monitor/api/v1/catalog", m.GetCatalog)
	get("/monitor/api/v1/vehicles", m.GetVehicles)
	get("/monitor/api/v1/history/temperature", m.GetTemperatureHistory)
	get("/monitor/api/v1/history/humidity", m.GetHumidityHistory)
	get("/monitor/api/v1/history/door", m.GetDoorHistory)
	get("/monitor/api/v1/door-events", m.GetDoorEvents)
	get("/monitor/api/v1/statistics", m.GetStatistics)
	get("/monitor/api/v1/current", m.GetCurrent)
	get("/monitor/api/v1/live", m.GetLiveState)
	post("/monitor/api/v1/live/pause", m.PauseLive)
	post("/monitor/api/v1/live/resume", m.ResumeLive)
	post("/monitor/api/v1/refresh", m.Refresh)
	get("/monitor/api/v1/export/catalog.xlsx", m.ExportCatalog)
	get("/monitor/api/v1/export/violations.xlsx", m.ExportViolations)
}
