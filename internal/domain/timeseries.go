package domain

// TimePoint 温度/湿度历史序列中的一个采样点
// Value 为 nil 表示该步长内没有上报（fillMissing=withNull 的显式缺失）。
// 温度值为厂家原始毫摄氏度，展示前需经 MilliCelsius 换算。
type TimePoint struct {
	TimeMs int64    `json:"timeMs"`
	Value  *float64 `json:"value"`
}

// DoorPoint 门状态历史序列中的一个采样点
// Closed 为 nil 表示窗口起点之前没有任何已知状态（withPrevious 也无从继承）。
type DoorPoint struct {
	TimeMs int64 `json:"timeMs"`
	Closed *bool `json:"doorClosed"`
}

// Statistics 温度序列统计（只统计非空值；阈值比较与统计在同一单位下进行）
type Statistics struct {
	Mean           float64     `json:"mean"`
	Min            float64     `json:"min"`
	Max            float64     `json:"max"`
	SampleCount    int         `json:"sampleCount"`
	ViolationCount int         `json:"violationCount"`
	Violations     []TimePoint `json:"violations"` // 严格越界的采样点（展示用）
}

// TemperatureSnapshot 当前温度快照（POST /v1/sensors/temperature）
type TemperatureSnapshot struct {
	SensorID           int64    `json:"id"`
	SensorName         string   `json:"name"`
	AmbientTemperature *float64 `json:"ambientTemperature"` // 毫摄氏度
	Time               string   `json:"ambientTemperatureTime"`
	VehicleID          string   `json:"vehicleId"`
}

// DoorSnapshot 当前门状态快照（POST /v1/sensors/door）
type DoorSnapshot struct {
	SensorID   int64  `json:"id"`
	SensorName string `json:"name"`
	DoorClosed *bool  `json:"doorClosed"`
	Time       string `json:"doorStatusTime"`
	VehicleID  string `json:"vehicleId"`
}
