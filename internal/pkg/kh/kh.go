// 库检 HMIS
package kh

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
	vendorName = "kh"
	getPath    = "/khhmis/api/v1/getData"
	savePath   = "/khhmis/api/v1/saveData"
)

type Config struct {
	Host  string
	TSGZ  string // 探伤工长
	TSZJY string // 探伤质检员
	TSYSY string // 探伤验收员
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

// This vendor signals success with code "0" rather than "200".
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
	q.Set("dh", barcode)
	u.RawQuery = q.Encode()

	log.Printf("kh 请求数据: %s", u.String())

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

	if out.Code != "0" {
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

// UploadRecord is the single-record save body. Beyond the operator
// signature it carries three static signers sourced from station
// configuration, not from the record.
type UploadRecord struct {
	DH         string `json:"DH"`
	ZH         string `json:"ZH"`
	ZX         string `json:"ZX"`
	EQBH       string `json:"EQ_BH"`
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
	TSZ        string `json:"TSZ"`
	TSZY       string `json:"TSZY"`
	TSGZ       string `json:"TSGZ"`  // 探伤工长
	TSZJY      string `json:"TSZJY"` // 探伤质检员
	TSYSY      string `json:"TSYSY"` // 探伤验收员
	CTResult   string `json:"CT_RESULT"`
}

type saveResponse struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

func (c *Client) BuildPayload(input hmis.UploadInput) UploadRecord {
	user := input.User
	return UploadRecord{
		DH:         input.Entry.Barcode,
		ZH:         input.Entry.AxleID,
		ZX:         input.Detection.Model,
		EQBH:       input.Site.DeviceNO,
		TSSJ:       hmis.FormatDate(input.Detection.TestedAt, "2006-01-02 15:04:05"),
		TFlawPlace: input.Defect.Place,
		TFlawType:  input.Defect.Type,
		TView:      input.Defect.View,
		CZZZRQ:     hmis.FormatDate(input.Detection.MakeDate, "2006-01-02 15:04:05"),
		CZZZDW:     input.Detection.MakeUnit,
		SCZZRQ:     hmis.FormatDate(input.Detection.FirstDate, "2006-01-02 15:04:05"),
		SCZZDW:     input.Detection.FirstUnit,
		MCZZRQ:     hmis.FormatDate(input.Detection.LastDate, "2006-01-02 15:04:05"),
		MCZZDW:     input.Detection.LastUnit,
		TSZ:        user,
		TSZY:       user,
		TSGZ:       c.cfg.TSGZ,
		TSZJY:      c.cfg.TSZJY,
		TSYSY:      c.cfg.TSYSY,
		CTResult:   input.Detection.Result,
	}
}

// Upload sends one save call per record, like jtvxzb.
func (c *Client) Upload(ctx context.Context, inputs []hmis.UploadInput) (*hmis.SaveResult, error) {
	accepted := make([]string, 0, len(inputs))

	for _, input := range inputs {
		if err := c.save(ctx, c.BuildPayload(input)); err != nil {
			if len(accepted) > 0 {
				return &hmis.SaveResult{Accepted: accepted}, nil
			}
			return nil, err
		}
		accepted = append(accepted, input.Entry.Barcode)
	}

	return &hmis.SaveResult{Accepted: accepted}, nil
}

func (c *Client) save(ctx context.Context, record UploadRecord) error {
	u := url.URL{
		Scheme: "http",
		Host:   c.cfg.Host,
		Path:   savePath,
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}

	log.Printf("kh 请求数据: %s %s", u.String(), payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := doRequest(c.client, req)
	if err != nil {
		return err
	}

	var out saveResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return &hmis.FormatError{Vendor: vendorName, Message: fmt.Sprintf("无法解析返回数据: %v", err)}
	}

	if out.Code != "0" {
		return &hmis.UploadRejectedError{Vendor: vendorName, Code: out.Code, Message: out.Msg}
	}

	return nil
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

	log.Printf("kh 返回数据: %s", body)
	return body, nil
}
