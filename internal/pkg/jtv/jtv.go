// 京天威 HMIS
package jtv

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
	vendorName = "jtv"
	getPath    = "/hmis/api/getData"
	savePath   = "/hmis/api/saveData"
)

type Config struct {
	Host       string
	UnitCode   string
	DeviceIP   string
	DevicePort string
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
}

type getResponse struct {
	Code string    `json:"code"`
	Msg  string    `json:"msg"`
	Data []getItem `json:"data"`
}

// Get identifies the scan to the vendor by barcode plus the station
// device's IP and port.
func (c *Client) Get(ctx context.Context, barcode string) (*hmis.AxleInfo, error) {
	u := url.URL{
		Scheme: "http",
		Host:   c.cfg.Host,
		Path:   getPath,
	}
	q := u.Query()
	q.Set("barCode", barcode)
	q.Set("ip", c.cfg.DeviceIP)
	q.Set("port", c.cfg.DevicePort)
	u.RawQuery = q.Encode()

	log.Printf("jtv 请求数据: %s", u.String())

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
	DH         string `json:"DH"`
	ZH         string `json:"ZH"`
	ZX         string `json:"ZX"`
	DWDM       string `json:"DWDM"` // 单位代码
	TSSJ       string `json:"TSSJ"`
	TFlawPlace string `json:"TFLAW_PLACE"`
	TFlawType  string `json:"TFLAW_TYPE"`
	TView      string `json:"TVIEW"`
	CZZZRQ     string `json:"CZZZRQ"`
	CZZZDW     string `json:"CZZZDW"`
	SCZZRQ     string `json:"SCZZRQ"`
	SCZZDW     string `json:"SCZZDW"`
	MCZZRQ     string `json:"MCZZRQ"`
	MCZZDW     string `json:"MCZZDW"`
	TSZ        string `json:"TSZ"`  // 探伤者左
	TSZY       string `json:"TSZY"` // 探伤者右
	FHZ        string `json:"FHZ"`  // 复核者
	CTResult   string `json:"CT_RESULT"`
}

// saveResponse carries the per-item result: dhs lists the barcodes the
// vendor actually accepted.
type saveResponse struct {
	Code string   `json:"code"`
	Msg  string   `json:"msg"`
	DHS  []string `json:"dhs"`
}

func (c *Client) BuildPayload(input hmis.UploadInput) UploadRecord {
	user := input.User
	return UploadRecord{
		DH:         input.Entry.Barcode,
		ZH:         input.Entry.AxleID,
		ZX:         input.Detection.Model,
		DWDM:       c.cfg.UnitCode,
		TSSJ:       hmis.FormatDate(input.Detection.TestedAt, "2006-01-02 15:04:05"),
		TFlawPlace: input.Defect.Place,
		TFlawType:  input.Defect.Type,
		TView:      input.Defect.View,
		CZZZRQ:     hmis.FormatDate(input.Detection.MakeDate, "2006-01-02"),
		CZZZDW:     input.Detection.MakeUnit,
		SCZZRQ:     hmis.FormatDate(input.Detection.FirstDate, "2006-01-02"),
		SCZZDW:     input.Detection.FirstUnit,
		MCZZRQ:     hmis.FormatDate(input.Detection.LastDate, "2006-01-02"),
		MCZZDW:     input.Detection.LastUnit,
		TSZ:        user,
		TSZY:       user,
		FHZ:        user,
		CTResult:   input.Detection.Result,
	}
}

// Upload posts the whole batch and marks accepted exactly the barcodes the
// vendor echoes back in dhs.
func (c *Client) Upload(ctx context.Context, inputs []hmis.UploadInput) (*hmis.SaveResult, error) {
	records := make([]UploadRecord, 0, len(inputs))
	for _, input := range inputs {
		records = append(records, c.BuildPayload(input))
	}

	u := url.URL{
		Scheme: "http",
		Host:   c.cfg.Host,
		Path:   savePath,
	}

	payload, err := json.Marshal(records)
	if err != nil {
		return nil, err
	}

	log.Printf("jtv 请求数据: %s %s", u.String(), payload)

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

	return &hmis.SaveResult{Accepted: out.DHS}, nil
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

	log.Printf("jtv 返回数据: %s", body)
	return body, nil
}
