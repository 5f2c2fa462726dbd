package service

import "encoding/json"

// orgResponse GET /me 响应
type orgResponse struct {
	Data struct {
		ID   json.Number `json:"id"`
		Name string      `json:"name"`
	} `json:"data"`
}

// vehiclesPage GET /fleet/vehicles 的一页
type vehiclesPage struct {
	Data       []samsaraVehicle `json:"data"`
	Pagination struct {
		HasNextPage bool   `json:"hasNextPage"`
		EndCursor   string `json:"endCursor"`
	} `json:"pagination"`
}

// samsaraVehicle 车辆对象（携带可选的 sensorConfiguration）
type samsaraVehicle struct {
	ID           json.Number `json:"id"`
	Name         string      `json:"name"`
	LicensePlate string      `json:"licensePlate"`
	Make         string      `json:"make"`
	Model        string      `json:"model"`
	Serial       string      `json:"serial"`
	VIN          string      `json:"vin"`
	Year         json.Number `json:"year"`

	SensorConfiguration *sensorConfiguration `json:"sensorConfiguration"`
}

// sensorConfiguration 车辆传感器配置：分区（温度/湿度）+ 车门
type sensorConfiguration struct {
	Areas []struct {
		Position           string          `json:"position"`
		TemperatureSensors []sensorSummary `json:"temperatureSensors"`
		HumiditySensors    []sensorSummary `json:"humiditySensors"`
	} `json:"areas"`
	Doors []struct {
		Position string         `json:"position"`
		Sensor   *sensorSummary `json:"sensor"`
	} `json:"doors"`
}

// sensorSummary 传感器摘要（id 即历史查询用的 widgetId）
type sensorSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Mac  string `json:"mac"`
}

// historyRequest POST /v1/sensors/history 请求体
type historyRequest struct {
	FillMissing string          `json:"fillMissing"`
	Series      []historySeries `json:"series"`
	StartMs     int64           `json:"startMs"`
	EndMs       int64           `json:"endMs"`
	StepMs      int64           `json:"stepMs"`
}

type historySeries struct {
	Field    string `json:"field"`
	WidgetID int64  `json:"widgetId"`
}

// historyResponse 历史查询响应
// series 是单元素容器（请求只带一个 series），值类型随 field 变化
// （温度/湿度为数值，门状态为布尔），由调用方按指标解包。
type historyResponse struct {
	Results []historyResult `json:"results"`
}

type historyResult struct {
	TimeMs int64             `json:"timeMs"`
	Series []json.RawMessage `json:"series"`
}

// currentSensorsRequest POST /v1/sensors/temperature|door 请求体
type currentSensorsRequest struct {
	Sensors []int64 `json:"sensors"`
}

// currentTemperatureResponse 当前温度响应
type currentTemperatureResponse struct {
	Sensors []struct {
		ID                     int64    `json:"id"`
		Name                   string   `json:"name"`
		AmbientTemperature     *float64 `json:"ambientTemperature"`
		AmbientTemperatureTime string   `json:"ambientTemperatureTime"`
		VehicleID              json.Number `json:"vehicleId"`
	} `json:"sensors"`
}

// currentDoorResponse 当前门状态响应
type currentDoorResponse struct {
	Sensors []struct {
		ID             int64       `json:"id"`
		Name           string      `json:"name"`
		DoorClosed     *bool       `json:"doorClosed"`
		DoorStatusTime string      `json:"doorStatusTime"`
		VehicleID      json.Number `json:"vehicleId"`
	} `json:"sensors"`
}
