package kh_test

import (
	"context"
	"errors"

	"hmisync/internal/models"
	"hmisync/internal/pkg/hmis"
	"hmisync/internal/pkg/kh"
	"hmisync/internal/pkg/legacy"
	"hmisync/internal/testhelpers"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func uploadInput(id uint, barcode string) hmis.UploadInput {
	detection := &legacy.Detection{
		ID:        "OP-1",
		AxleID:    "AX100",
		Model:     "RD2",
		Result:    "疑似故障",
		User:      "钱工",
		TestedAt:  "2024/03/05 12:30:00",
		MakeDate:  "2008/06/01",
		MakeUnit:  "制造单位甲",
		FirstDate: "2010/05/01",
		FirstUnit: "组装单位乙",
		LastDate:  "2020/01/15",
		LastUnit:  "组装单位丙",
	}

	return hmis.UploadInput{
		Entry:     models.Barcode{ID: id, Vendor: "kh", Barcode: barcode, AxleID: "AX100"},
		Detection: detection,
		Defect:    hmis.Classify(detection.Result, []legacy.DetectionRow{{Channel: 4}}),
		Site:      legacy.Corporation{DeviceNO: "DEV-01"},
		StationIP: "192.168.1.50",
		User:      detection.User,
	}
}

var _ = Describe("Client", func() {
	var client *kh.Client
	ctx := context.Background()

	BeforeEach(func() {
		testhelpers.Activate()

		client = kh.New(kh.Config{
			Host:  "kh.test",
			TSGZ:  "张工长",
			TSZJY: "李质检",
			TSYSY: "王验收",
		})
		client.UseDefaultClient()
	})

	AfterEach(func() {
		testhelpers.Deactivate()
	})

	Describe("Get", func() {
		It("treats code 0 as success", func() {
			testhelpers.New("http://kh.test").
				Get("/khhmis/api/v1/getData?dh=BC123").
				Reply(200).
				BodyString(`{"code":"0","msg":"成功","data":[{"DH":"BC123","ZH":"AX100","ZX":"RD2"}]}`)

			info, err := client.Get(ctx, "BC123")
			Expect(err).NotTo(HaveOccurred())
			Expect(testhelpers.IsDone()).To(BeTrue())

			Expect(info.Barcode).To(Equal("BC123"))
			Expect(info.AxleID).To(Equal("AX100"))
		})

		It("treats code 200 as an error for this vendor", func() {
			testhelpers.New("http://kh.test").
				Get("/khhmis/api/v1/getData?dh=BC123").
				Reply(200).
				BodyString(`{"code":"200","msg":"whatever"}`)

			_, err := client.Get(ctx, "BC123")

			var format *hmis.FormatError
			Expect(errors.As(err, &format)).To(BeTrue())
			Expect(format.Code).To(Equal("200"))
		})
	})

	Describe("BuildPayload", func() {
		It("stamps the configured signers next to the operator", func() {
			record := client.BuildPayload(uploadInput(1, "BC123"))

			Expect(record.EQBH).To(Equal("DEV-01"))
			Expect(record.TSSJ).To(Equal("2024-03-05 12:30:00"))
			Expect(record.CZZZRQ).To(Equal("2008-06-01 00:00:00"))
			Expect(record.SCZZRQ).To(Equal("2010-05-01 00:00:00"))
			Expect(record.MCZZRQ).To(Equal("2020-01-15 00:00:00"))

			Expect(record.TFlawPlace).To(Equal("轮座"))

			Expect(record.TSZ).To(Equal("钱工"))
			Expect(record.TSZY).To(Equal("钱工"))
			Expect(record.TSGZ).To(Equal("张工长"))
			Expect(record.TSZJY).To(Equal("李质检"))
			Expect(record.TSYSY).To(Equal("王验收"))
		})
	})

	Describe("Upload", func() {
		It("saves record by record with code 0 meaning accepted", func() {
			testhelpers.New("http://kh.test").
				Post("/khhmis/api/v1/saveData").
				Reply(200).
				BodyString(`{"code":"0","msg":"成功"}`)

			result, err := client.Upload(ctx, []hmis.UploadInput{uploadInput(1, "BC123")})
			Expect(err).NotTo(HaveOccurred())
			Expect(testhelpers.IsDone()).To(BeTrue())

			Expect(result.Accepted).To(Equal([]string{"BC123"}))
		})

		It("reports a vendor rejection", func() {
			testhelpers.New("http://kh.test").
				Post("/khhmis/api/v1/saveData").
				Reply(200).
				BodyString(`{"code":"1","msg":"保存失败"}`)

			_, err := client.Upload(ctx, []hmis.UploadInput{uploadInput(1, "BC123")})

			var rejected *hmis.UploadRejectedError
			Expect(errors.As(err, &rejected)).To(BeTrue())
		})
	})
})
