package jtvxzb_test

import (
	"context"
	"errors"

	"hmisync/internal/models"
	"hmisync/internal/pkg/hmis"
	"hmisync/internal/pkg/jtvxzb"
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
		Result:    "故障",
		User:      "赵工",
		TestedAt:  "2024/03/05 12:30:00",
		MakeDate:  "2008/06/01",
		MakeUnit:  "制造单位甲",
		FirstDate: "2010/05/01",
		FirstUnit: "组装单位乙",
		LastDate:  "2020/01/15",
		LastUnit:  "组装单位丙",
	}

	return hmis.UploadInput{
		Entry:     models.Barcode{ID: id, Vendor: "jtv_xuzhoubei", Barcode: barcode, AxleID: "AX100"},
		Detection: detection,
		Defect:    hmis.Classify(detection.Result, []legacy.DetectionRow{{Channel: 0}}),
		Site:      legacy.Corporation{DeviceNO: "DEV-01"},
		StationIP: "192.168.1.50",
		User:      detection.User,
	}
}

var _ = Describe("Client", func() {
	var client *jtvxzb.Client
	ctx := context.Background()

	BeforeEach(func() {
		testhelpers.Activate()

		client = jtvxzb.New(jtvxzb.Config{Host: "jtvxzb.test", UsernamePrefix: "徐州北-"})
		client.UseDefaultClient()
	})

	AfterEach(func() {
		testhelpers.Deactivate()
	})

	Describe("BuildPayload", func() {
		It("prefixes the operator name and uses compact provenance dates", func() {
			record := client.BuildPayload(uploadInput(1, "BC123"))

			Expect(record.DH).To(Equal("BC123"))
			Expect(record.ZH).To(Equal("AX100"))

			Expect(record.PJZZRQ).To(Equal("20080601"))
			Expect(record.PJSCZZRQ).To(Equal("20100501"))
			Expect(record.PJMCZZRQ).To(Equal("20200115"))
			Expect(record.PJZZDW).To(Equal("制造单位甲"))

			Expect(record.TFlawPlace).To(Equal("穿透"))

			Expect(record.TSZ).To(Equal("徐州北-赵工"))
			Expect(record.TSZY).To(Equal("徐州北-赵工"))
			Expect(record.FHZ).To(Equal("徐州北-赵工"))
		})
	})

	Describe("Upload", func() {
		It("saves record by record", func() {
			testhelpers.New("http://jtvxzb.test").
				Post("/xzbhmis/api/saveData").
				Reply(200).
				BodyString(`{"code":"200","msg":"成功"}`)
			testhelpers.New("http://jtvxzb.test").
				Post("/xzbhmis/api/saveData").
				Reply(200).
				BodyString(`{"code":"200","msg":"成功"}`)

			result, err := client.Upload(ctx, []hmis.UploadInput{
				uploadInput(1, "BC123"),
				uploadInput(2, "BC124"),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(testhelpers.IsDone()).To(BeTrue())

			Expect(result.Accepted).To(Equal([]string{"BC123", "BC124"}))
		})

		It("keeps the records saved before a mid-batch failure accepted", func() {
			testhelpers.New("http://jtvxzb.test").
				Post("/xzbhmis/api/saveData").
				Reply(200).
				BodyString(`{"code":"200","msg":"成功"}`)
			testhelpers.New("http://jtvxzb.test").
				Post("/xzbhmis/api/saveData").
				Reply(200).
				BodyString(`{"code":"500","msg":"数据重复"}`)

			result, err := client.Upload(ctx, []hmis.UploadInput{
				uploadInput(1, "BC123"),
				uploadInput(2, "BC124"),
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(result.Accepted).To(Equal([]string{"BC123"}))
		})

		It("fails when the very first save is rejected", func() {
			testhelpers.New("http://jtvxzb.test").
				Post("/xzbhmis/api/saveData").
				Reply(200).
				BodyString(`{"code":"500","msg":"数据重复"}`)

			_, err := client.Upload(ctx, []hmis.UploadInput{uploadInput(1, "BC123")})

			var rejected *hmis.UploadRejectedError
			Expect(errors.As(err, &rejected)).To(BeTrue())
		})
	})
})
