package hmis

import "hmisync/internal/pkg/legacy"

// Defect place / type / disposition literals as every HMIS expects them.
const (
	PlaceAxle      = "车轴"
	PlaceThrough   = "穿透"
	PlaceGroove    = "卸荷槽"
	PlaceWheelSeat = "轮座"

	TypeCrack = "裂纹"

	ViewManualRecheck = "人工复探"
)

// Defect is the vendor-neutral classification of a test result.
type Defect struct {
	Place string // 缺陷部位
	Type  string // 缺陷类型
	View  string // 处理意见
}

// IsDefect reports whether a result string belongs to the defect family.
// Callers must skip the detail-row query entirely when it returns false.
func IsDefect(result string) bool {
	switch result {
	case "故障", "有故障", "疑似故障":
		return true
	}
	return false
}

// Classify maps a raw result and its channel readings to a Defect. For a
// non-defect result the readings are ignored and everything stays empty.
// For a defect the place defaults to 车轴 and each reading in order may
// override it by channel, so the last row wins. That last-wins sweep is how
// the station software has always reported the place and must not be
// changed to first-match.
func Classify(result string, rows []legacy.DetectionRow) Defect {
	if !IsDefect(result) {
		return Defect{}
	}

	defect := Defect{
		Place: PlaceAxle,
		Type:  TypeCrack,
		View:  ViewManualRecheck,
	}

	for _, row := range rows {
		switch row.Channel {
		case 0:
			defect.Place = PlaceThrough
		case 1, 2:
			defect.Place = PlaceGroove
		case 3, 4, 5, 6, 7, 8:
			defect.Place = PlaceWheelSeat
		}
	}

	return defect
}
