package jtv_test

import (
	"context"
	"errors"

	"hmisync/internal/models"
	"hmisync/internal/pkg/hmis"
	"hmisync/internal/pkg/jtv"
	"hmisync/internal/pkg/legacy"
	"hmisync/internal/testhelpers"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func uploadInput(id uint, barcode string) hmis.UploadInput {
	detection := &legacy.Detection{
		ID:        "OP-1",
		AxleID:    "AX100",
		Model:     "RE2B",
		Result:    "正常",
		User:      "李工",
		TestedAt:  "2024/03/05 12:30:00",
		MakeDate:  "2008/06/01",
		MakeUnit:  "制造单位甲",
		FirstDate: "2010/05/01",
		FirstUnit: "组装单位乙",
		LastDate:  "2020/01/15",
		LastUnit:  "组装单位丙",
	}

	return hmis.UploadInput{
		Entry:     models.Barcode{ID: id, Vendor: "jtv", Barcode: barcode, AxleID: "AX100"},
		Detection: detection,
		Defect:    hmis.Classify(detection.Result, nil),
		Site:      legacy.Corporation{DeviceNO: "DEV-01"},
		StationIP: "192.168.1.50",
		User:      detection.User,
	}
}

var _ = Describe("Client", func() {
	var client *jtv.Client
	ctx := context.Background()

	BeforeEach(func() {
		testhelpers.Activate()

		client = jtv.New(jtv.Config{
			Host:       "jtv.test",
			UnitCode:   "T001",
			DeviceIP:   "192.168.1.20",
			DevicePort: "3000",
		})
		client.UseDefaultClient()
	})

	AfterEach(func() {
		testhelpers.Deactivate()
	})

	Describe("Get", func() {
		It("identifies the scan by barcode plus device address", func() {
			testhelpers.New("http://jtv.test").
				Get("/hmis/api/getData?barCode=BC123&ip=192.168.1.20&port=3000").
				Reply(200).
				BodyString(`{"code":"200","msg":"成功","data":[{"DH":"BC123","ZH":"AX100","ZX":"RE2B"}]}`)

			info, err := client.Get(ctx, "BC123")
			Expect(err).NotTo(HaveOccurred())
			Expect(testhelpers.IsDone()).To(BeTrue())

			Expect(info.Barcode).To(Equal("BC123"))
			Expect(info.AxleID).To(Equal("AX100"))
		})

		It("turns an error code into a format error", func() {
			testhelpers.New("http://jtv.test").
				Get("/hmis/api/getData?barCode=BC999&ip=192.168.1.20&port=3000").
				Reply(200).
				BodyString(`{"code":"404","msg":"条码不存在"}`)

			_, err := client.Get(ctx, "BC999")

			var format *hmis.FormatError
			Expect(errors.As(err, &format)).To(BeTrue())
			Expect(format.Message).To(Equal("条码不存在"))
		})
	})

	Describe("BuildPayload", func() {
		It("uses ISO dates, the unit code and the operator signatures", func() {
			record := client.BuildPayload(uploadInput(1, "BC123"))

			Expect(record.DH).To(Equal("BC123"))
			Expect(record.DWDM).To(Equal("T001"))
			Expect(record.TSSJ).To(Equal("2024-03-05 12:30:00"))
			Expect(record.CZZZRQ).To(Equal("2008-06-01"))
			Expect(record.SCZZRQ).To(Equal("2010-05-01"))
			Expect(record.MCZZRQ).To(Equal("2020-01-15"))

			Expect(record.TSZ).To(Equal("李工"))
			Expect(record.TSZY).To(Equal("李工"))
			Expect(record.FHZ).To(Equal("李工"))

			// 正常 result carries no defect fields
			Expect(record.TFlawPlace).To(BeEmpty())
			Expect(record.TFlawType).To(BeEmpty())
			Expect(record.TView).To(BeEmpty())
		})
	})

	Describe("Upload", func() {
		It("marks accepted exactly the barcodes the vendor echoes back", func() {
			testhelpers.New("http://jtv.test").
				Post("/hmis/api/saveData").
				Reply(200).
				BodyString(`{"code":"200","msg":"部分成功","dhs":["BC123"]}`)

			result, err := client.Upload(ctx, []hmis.UploadInput{
				uploadInput(1, "BC123"),
				uploadInput(2, "BC124"),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(testhelpers.IsDone()).To(BeTrue())

			Expect(result.Accepted).To(Equal([]string{"BC123"}))
		})

		It("reports a vendor rejection", func() {
			testhelpers.New("http://jtv.test").
				Post("/hmis/api/saveData").
				Reply(200).
				BodyString(`{"code":"500","msg":"保存失败"}`)

			_, err := client.Upload(ctx, []hmis.UploadInput{uploadInput(1, "BC123")})

			var rejected *hmis.UploadRejectedError
			Expect(errors.As(err, &rejected)).To(BeTrue())
		})
	})
})
