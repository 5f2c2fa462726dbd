package domain

// SensorType 传感器类型（来自车队云端 API 的 sensorConfiguration）
type SensorType string

const (
	SensorTypeTemperature SensorType = "temperature"
	SensorTypeHumidity    SensorType = "humidity"
	SensorTypeDoor        SensorType = "door"
)

// SensorRecord 车辆-传感器拍平后的一行（one row per (vehicle, sensor)）
// 车辆字段在多传感器车辆上重复出现，便于后续按传感器过滤。
// 无传感器的车辆也保留一行：传感器字段全部为 nil（哨兵行，保证每辆车可被发现）。
type SensorRecord struct {
	// 车辆标识
	VehicleID    string  `json:"id"`
	VehicleName  string  `json:"name"`
	LicensePlate string  `json:"licensePlate"`
	Make         string  `json:"make"`
	Model        string  `json:"model"`
	Serial       string  `json:"serial"`
	VIN          string  `json:"vin"`
	Year         string  `json:"year"`

	// 传感器标识（无传感器车辆为 nil）
	SensorType     *SensorType `json:"sensorType"`
	SensorPosition *string     `json:"sensorPosition"`
	SensorName     *string     `json:"sensorName"`
	SensorID       *int64      `json:"sensorId"` // 厂家 widgetId
	SensorMac      *string     `json:"sensorMac"`
}

// HasSensor 该行是否携带传感器（哨兵行返回 false）
func (r *SensorRecord) HasSensor() bool {
	return r.SensorType != nil && r.SensorID != nil
}

// OrgDetails 组织信息（GET /me）
type OrgDetails struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
