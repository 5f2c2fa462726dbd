package models

import (
	"reefer-monitor/internal/domain"
	"reefer-monitor/internal/service"
)

// 本包是 HTTP API 的响应模型。
// Degraded=true 表示厂家 API 不可用导致结果为空/半截——
// 渲染层照常画空态，但能把"后端打不通"和"确实没数据"区分开。

// CatalogModel 车辆目录（一行一传感器）
type CatalogModel struct {
	Items    []domain.SensorRecord `json:"items"`
	Degraded bool                  `json:"degraded"`
}

// VehiclesModel 去重后的车辆列表（下拉框用）
type VehiclesModel struct {
	Items    []domain.SensorRecord `json:"items"`
	Degraded bool                  `json:"degraded"`
}

// TemperatureHistoryModel 温度/湿度历史曲线
type TemperatureHistoryModel struct {
	Points   []domain.TimePoint `json:"points"`
	Unit     string             `json:"unit"`
	Degraded bool               `json:"degraded"`
}

// DoorHistoryModel 门状态历史
type DoorHistoryModel struct {
	Points   []domain.DoorPoint `json:"points"`
	Degraded bool               `json:"degraded"`
}

// DoorEventMarker 开门事件 + 投影到温度曲线上的标记点
type DoorEventMarker struct {
	TimeMs      int64    `json:"timeMs"`
	Temperature *float64 `json:"temperature"` // 最近温度样本（无温度数据时为 nil）
}

// DoorEventsModel 开门事件列表
type DoorEventsModel struct {
	Events   []DoorEventMarker `json:"events"`
	Count    int               `json:"count"`
	Degraded bool              `json:"degraded"`
}

// StatisticsModel 统计 + 阈值违规
type StatisticsModel struct {
	domain.Statistics
	Unit         string  `json:"unit"`
	MinThreshold float64 `json:"minThreshold"`
	MaxThreshold float64 `json:"maxThreshold"`
	Degraded     bool    `json:"degraded"`
}

// CurrentModel 实时快照（温度已换算为展示单位）
type CurrentModel struct {
	Vehicle     string   `json:"vehicle,omitempty"`
	Temperature *float64 `json:"temperature"`
	Unit        string   `json:"unit"`
	TempTime    string   `json:"temperatureTime,omitempty"`
	DoorClosed  *bool    `json:"doorClosed"`
	DoorTime    string   `json:"doorStatusTime,omitempty"`
	HasDoor     bool     `json:"hasDoorSensor"`
	Degraded    bool     `json:"degraded"`
}

// LiveStateModel 实时轮询状态
type LiveStateModel struct {
	Enabled bool `json:"enabled"`
	Paused  bool `json:"paused"`
}

// LiveSnapshotModel 最近一轮实时刷新（由轮询器写入）
type LiveSnapshotModel struct {
	Snapshot *service.LiveSnapshot `json:"snapshot"`
}
