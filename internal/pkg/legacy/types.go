package legacy

// Row shapes returned by the station's legacy inspection database. The JSON
// tags mirror the driver's column names, which in turn mirror the Access
// schema written by the inspection software.

// Detection is one ultrasonic test event.
type Detection struct {
	ID       string `json:"szIDs"`
	AxleID   string `json:"szIDsWheel"` // 轴号
	Model    string `json:"szWHModel"`  // 轴型
	Result   string `json:"szResult"`
	User     string `json:"szUsername"`
	Memo     string `json:"szMemo"`
	TestedAt string `json:"tmnow"` // YYYY/MM/DD HH:mm:ss

	MakeDate  string `json:"szTMMake"` // 制造日期
	MakeUnit  string `json:"szIDsMake"`
	FirstDate string `json:"szTMFirst"` // 首次组装日期
	FirstUnit string `json:"szIDsFirst"`
	LastDate  string `json:"szTMLast"` // 末次组装日期
	LastUnit  string `json:"szIDsLast"`
}

// DetectionRow is one channel reading belonging to a Detection. Only
// Channel is interpreted here; the raw readings ride along for display.
type DetectionRow struct {
	OPID      string  `json:"opid"`
	Channel   int     `json:"nChannel"`
	Board     int     `json:"nBoard"`
	ValueX    float64 `json:"fltValueX"`
	ValueY    float64 `json:"fltValueY"`
	ValueUS   float64 `json:"fltValueUS"`
	ManualRes string  `json:"ManualRes"`
	Enabled   bool    `json:"bEnable"`
}

// Corporation is the station's site identity record.
type Corporation struct {
	DeviceNO string `json:"DeviceNO"`
}

// AutoInputParams are the fields handed to the third-party client's
// data-entry automation.
type AutoInputParams struct {
	ZX     string // 轴型
	ZH     string // 轴号
	CZZZDW string // 制造单位
	SCZZDW string // 首次组装单位
	MCZZDW string // 末次组装单位
	CZZZRQ string // 制造日期
	SCZZRQ string // 首次组装日期
	MCZZRQ string // 末次组装日期
	ZTX    string
	YTX    string
}
