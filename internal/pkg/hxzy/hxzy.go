// 成都北 华兴致远 HMIS
package hxzy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"hmisync/internal/pkg/hmis"
)

const (
	vendorName = "hxzy"
	getPath    = "/lzjx/dx/csbts/device_api/csbts/api/getDate"
	savePath   = "/lzjx/dx/csbts/device_api/csbts/api/saveData"
	apiType    = "csbts"
)

type Config struct {
	Host string
	GD   string // 股道号
}

type Client struct {
	cfg    Config
	client *http.Client
}

func New(cfg Config) *Client {
	return &Client{
		cfg: cfg,
		client: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// UseDefaultClient swaps in http.DefaultClient so tests can intercept the
// transport.
func (c *Client) UseDefaultClient() {
	c.client = http.DefaultClient
}

func (c *Client) Name() string { return vendorName }

type getItem struct {
	DH     string `json:"DH"`
	ZH     string `json:"ZH"`
	ZX     string `json:"ZX"`
	CZZZRQ string `json:"CZZZRQ"`
	CZZZDW string `json:"CZZZDW"`
	SCZZRQ string `json:"SCZZRQ"`
	SCZZDW string `json:"SCZZDW"`
	MCZZRQ string `json:"MCZZRQ"`
	MCZZDW string `json:"MCZZDW"`
	SRYY   string `json:"SRYY"`
	SRDW   string `json:"SRDW"`
}

type getResponse struct {
	Code string    `json:"code"`
	Msg  string    `json:"msg"`
	Data []getItem `json:"data"`
}

func (c *Client) Get(ctx context.Context, barcode string) (*hmis.AxleInfo, error) {
	u := url.URL{
		Scheme: "http",
		Host:   c.cfg.Host,
		Path:   getPath,
	}
	q := u.Query()
	q.Set("type", apiType)
	q.Set("param", barcode)
	u.RawQuery = q.Encode()

	log.Printf("hxzy 请求数据: %s", u.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	body, err := doRequest(c.client, req)
	if err != nil {
		return nil, err
	}

	var out getResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &hmis.FormatError{Vendor: vendorName, Message: fmt.Sprintf("无法解析返回数据: %v", err)}
	}

	if out.Code != "200" {
		return nil, &hmis.FormatError{Vendor: vendorName, Code: out.Code, Message: out.Msg}
	}

	if len(out.Data) == 0 {
		return nil, &hmis.FormatError{Vendor: vendorName, Message: "返回数据缺少data记录"}
	}

	item := out.Data[0]
	return &hmis.AxleInfo{
		Barcode:   item.DH,
		AxleID:    item.ZH,
		Model:     item.ZX,
		MakeDate:  item.CZZZRQ,
		MakeUnit:  item.CZZZDW,
		FirstDate: item.SCZZRQ,
		FirstUnit: item.SCZZDW,
		LastDate:  item.MCZZRQ,
		LastUnit:  item.MCZZDW,
	}, nil
}

// UploadRecord is one entry of the batched saveData call.
type UploadRecord struct {
	EQIP       string `json:"EQ_IP"` // 设备IP
	EQBH       string `json:"EQ_BH"` // 设备编号
	GD         string `json:"GD"`    // 股道号
	DH         string `json:"dh"`    // 扫码单号
	ZX         string `json:"zx"`
	ZH         string `json:"zh"`
	TSFF       string `json:"TSFF"` // 探伤方法
	TSSJ       string `json:"TSSJ"` // 探伤时间
	TFlawPlace string `json:"TFLAW_PLACE"`
	TFlawType  string `json:"TFLAW_TYPE"`
	TView      string `json:"TVIEW"`
	CZZZRQ     string `json:"CZZZRQ"`
	CZZZDW     string `json:"CZZZDW"`
	SCZZRQ     string `json:"SCZZRQ"`
	SCZZDW     string `json:"SCZZDW"`
	MCZZRQ     string `json:"MCZZRQ"`
	MCZZDW     string `json:"MCZZDW"`
	CZCTZ      string `json:"CZCTZ"` // 左穿透签章
	CZCTY      string `json:"CZCTY"` // 右穿透签章
	LZXRBZ     string `json:"LZXRBZ"`
	LZXRBY     string `json:"LZXRBY"`
	XHCZ       string `json:"XHCZ"`
	XHCY       string `json:"XHCY"`
	TSZ        string `json:"TSZ"`
	TSZY       string `json:"TSZY"`
	CTResult   string `json:"CT_RESULT"`
}

type saveResponse struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

// BuildPayload maps one resolved record into the vendor's upload shape. The
// single operator signs every signature field.
func (c *Client) BuildPayload(input hmis.UploadInput) UploadRecord {
	user := input.User
	return UploadRecord{
		EQIP:       input.Site.DeviceNO,
		EQBH:       input.StationIP,
		GD:         c.cfg.GD,
		DH:         input.Entry.Barcode,
		ZX:         input.Detection.Model,
		ZH:         input.Entry.AxleID,
		TSFF:       "超声波",
		TSSJ:       hmis.FormatDate(input.Detection.TestedAt, "2006-01-02 15:04:05"),
		TFlawPlace: input.Defect.Place,
		TFlawType:  input.Defect.Type,
		TView:      input.Defect.View,
		CZZZRQ:     hmis.FormatDate(input.Detection.MakeDate, "200601"),
		CZZZDW:     input.Detection.MakeUnit,
		SCZZRQ:     hmis.FormatDate(input.Detection.FirstDate, "20060102"),
		SCZZDW:     input.Detection.FirstUnit,
		MCZZRQ:     hmis.FormatDate(input.Detection.LastDate, "20060102"),
		MCZZDW:     input.Detection.LastUnit,
		CZCTZ:      user,
		CZCTY:      user,
		LZXRBZ:     user,
		LZXRBY:     user,
		XHCZ:       user,
		XHCY:       user,
		TSZ:        user,
		TSZY:       user,
		CTResult:   input.Detection.Result,
	}
}

// Upload posts the whole batch as one JSON array. The vendor reports no
// per-item result, so acceptance covers every submitted barcode.
func (c *Client) Upload(ctx context.Context, inputs []hmis.UploadInput) (*hmis.SaveResult, error) {
	records := make([]UploadRecord, 0, len(inputs))
	accepted := make([]string, 0, len(inputs))
	for _, input := range inputs {
		records = append(records, c.BuildPayload(input))
		accepted = append(accepted, input.Entry.Barcode)
	}

	u := url.URL{
		Scheme: "http",
		Host:   c.cfg.Host,
		Path:   savePath,
	}
	q := u.Query()
	q.Set("type", apiType)
	u.RawQuery = q.Encode()

	payload, err := json.Marshal(records)
	if err != nil {
		return nil, err
	}

	log.Printf("hxzy 请求数据: %s %s", u.String(), payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := doRequest(c.client, req)
	if err != nil {
		return nil, err
	}

	var out saveResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &hmis.FormatError{Vendor: vendorName, Message: fmt.Sprintf("无法解析返回数据: %v", err)}
	}

	if out.Code != "200" {
		return nil, &hmis.UploadRejectedError{Vendor: vendorName, Code: out.Code, Message: out.Msg}
	}

	return &hmis.SaveResult{Accepted: accepted}, nil
}

func doRequest(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, &hmis.TransportError{Vendor: vendorName, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &hmis.TransportError{Vendor: vendorName, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &hmis.TransportError{Vendor: vendorName, Err: fmt.Errorf("http %d: %s", resp.StatusCode, body)}
	}

	log.Printf("hxzy 返回数据: %s", body)
	return body, nil
}
