// 京天威 HMIS, 徐州北变体
package jtvxzb

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
	vendorName = "jtv_xuzhoubei"
	getPath    = "/xzbhmis/api/getData"
	savePath   = "/xzbhmis/api/saveData"
)

type Config struct {
	Host           string
	UsernamePrefix string
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

func (c *Client) Get(ctx context.Context, barcode string) (*hmis.AxleInfo, error) {
	u := url.URL{
		Scheme: "http",
		Host:   c.cfg.Host,
		Path:   getPath,
	}
	q := u.Query()
	q.Set("barCode", barcode)
	u.RawQuery = q.Encode()

	log.Printf("jtv_xuzhoubei 请求数据: %s", u.String())

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

// UploadRecord is the single-record save body. The PJ_* pairs carry the
// manufacture and assembly provenance of the axle.
type UploadRecord struct {
	DH         string `json:"dh"`
	ZH         string `json:"zh"`
	ZX         string `json:"zx"`
	TSSJ       string `json:"TSSJ"`
	TFlawPlace string `json:"TFLAW_PLACE"`
	TFlawType  string `json:"TFLAW_TYPE"`
	TView      string `json:"TVIEW"`
	PJZZRQ     string `json:"PJ_ZZRQ"`   // 制造日期
	PJZZDW     string `json:"PJ_ZZDW"`   // 制造单位
	PJSCZZRQ   string `json:"PJ_SCZZRQ"` // 首次组装日期
	PJSCZZDW   string `json:"PJ_SCZZDW"` // 首次组装单位
	PJMCZZRQ   string `json:"PJ_MCZZRQ"` // 末次组装日期
	PJMCZZDW   string `json:"PJ_MCZZDW"` // 末次组装单位
	TSZ        string `json:"TSZ"`
	TSZY       string `json:"TSZY"`
	FHZ        string `json:"FHZ"`
	CTResult   string `json:"CT_RESULT"`
}

type saveResponse struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

// BuildPayload maps one resolved record into the vendor's shape. The
// configured username prefix is concatenated to the operator name in every
// signature field, as this depot's HMIS requires.
func (c *Client) BuildPayload(input hmis.UploadInput) UploadRecord {
	user := c.cfg.UsernamePrefix + input.User
	return UploadRecord{
		DH:         input.Entry.Barcode,
		ZH:         input.Entry.AxleID,
		ZX:         input.Detection.Model,
		TSSJ:       hmis.FormatDate(input.Detection.TestedAt, "2006-01-02 15:04:05"),
		TFlawPlace: input.Defect.Place,
		TFlawType:  input.Defect.Type,
		TView:      input.Defect.View,
		PJZZRQ:     hmis.FormatDate(input.Detection.MakeDate, "20060102"),
		PJZZDW:     input.Detection.MakeUnit,
		PJSCZZRQ:   hmis.FormatDate(input.Detection.FirstDate, "20060102"),
		PJSCZZDW:   input.Detection.FirstUnit,
		PJMCZZRQ:   hmis.FormatDate(input.Detection.LastDate, "20060102"),
		PJMCZZDW:   input.Detection.LastUnit,
		TSZ:        user,
		TSZY:       user,
		FHZ:        user,
		CTResult:   input.Detection.Result,
	}
}

// Upload sends one save call per record; the vendor takes no arrays. A
// record is accepted once its call succeeds, so a mid-batch failure still
// leaves the earlier records accepted.
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

	log.Printf("jtv_xuzhoubei 请求数据: %s %s", u.String(), payload)

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

	if out.Code != "200" {
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

	log.Printf("jtv_xuzhoubei 返回数据: %s", body)
	return body, nil
}
