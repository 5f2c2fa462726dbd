package httpapi

import (
	"fmt"
	"time"

	"reefer-monitor/internal/domain"

	"github.com/xuri/excelize/v2"
)

// CatalogExportHeader 车辆目录导出表头
var CatalogExportHeader = []string{
	"Vehicle ID",
	"Vehicle Name",
	"License Plate",
	"Make",
	"Model",
	"Serial",
	"VIN",
	"Year",
	"Sensor Type",
	"Sensor Position",
	"Sensor Name",
	"Sensor ID",
	"Sensor MAC",
}

// ViolationsExportHeader 阈值违规导出表头
var ViolationsExportHeader = []string{
	"Time",
	"Temperature",
	"Unit",
}

// GenerateCatalogExport 生成车辆目录 Excel（一行一传感器，哨兵行传感器列为 "-"）
func GenerateCatalogExport(records []domain.SensorRecord) ([]byte, error) {
	f, sheetName, err := newExportFile("Fleet Catalog", CatalogExportHeader)
	if err != nil {
		return nil, err
	}

	for rowIdx, r := range records {
		row := rowIdx + 2 // 第1行是表头
		values := []any{
			r.VehicleID,
			r.VehicleName,
			r.LicensePlate,
			r.Make,
			r.Model,
			r.Serial,
			r.VIN,
			r.Year,
			orDash(sensorTypeString(r.SensorType)),
			orDash(deref(r.SensorPosition)),
			orDash(deref(r.SensorName)),
			sensorIDString(r.SensorID),
			orDash(deref(r.SensorMac)),
		}
		if err := writeRow(f, sheetName, row, values); err != nil {
			f.Close()
			return nil, err
		}
	}

	return finishExportFile(f)
}

// GenerateViolationsExport 生成阈值违规 Excel
// points 须已换算为展示单位。
func GenerateViolationsExport(points []domain.TimePoint, unit string) ([]byte, error) {
	f, sheetName, err := newExportFile("Threshold Violations", ViolationsExportHeader)
	if err != nil {
		return nil, err
	}

	for rowIdx, p := range points {
		row := rowIdx + 2
		var temp any
		if p.Value != nil {
			temp = *p.Value
		} else {
			temp = "-"
		}
		values := []any{
			domain.MsToTime(p.TimeMs).Format(time.RFC3339),
			temp,
			unit,
		}
		if err := writeRow(f, sheetName, row, values); err != nil {
			f.Close()
			return nil, err
		}
	}

	return finishExportFile(f)
}

// newExportFile 建工作表 + 写表头（通用）
func newExportFile(sheetName string, headers []string) (*excelize.File, string, error) {
	f := excelize.NewFile()
	// 注意：这里不能 defer Close()，WriteToBuffer 需要文件保持打开

	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, "", fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, "", fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, "", fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, "", fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, "", fmt.Errorf("failed to set header style: %w", err)
		}
	}

	return f, sheetName, nil
}

func writeRow(f *excelize.File, sheetName string, row int, values []any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, v); err != nil {
			return fmt.Errorf("failed to set cell %s: %w", cell, err)
		}
	}
	return nil
}

func finishExportFile(f *excelize.File) ([]byte, error) {
	defer f.Close()
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write excel buffer: %w", err)
	}
	return buf.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func sensorTypeString(t *domain.SensorType) string {
	if t == nil {
		return ""
	}
	return string(*t)
}

func sensorIDString(id *int64) string {
	if id == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *id)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
