package hmis_test

import (
	"hmisync/internal/pkg/hmis"
	"hmisync/internal/pkg/legacy"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func rowsFor(channels ...int) []legacy.DetectionRow {
	rows := make([]legacy.DetectionRow, 0, len(channels))
	for _, ch := range channels {
		rows = append(rows, legacy.DetectionRow{Channel: ch})
	}
	return rows
}

var _ = Describe("IsDefect", func() {
	DescribeTable("recognizes the defect result family",
		func(result string, expected bool) {
			Expect(hmis.IsDefect(result)).To(Equal(expected))
		},
		Entry("故障", "故障", true),
		Entry("有故障", "有故障", true),
		Entry("疑似故障", "疑似故障", true),
		Entry("正常", "正常", false),
		Entry("无故障", "无故障", false),
		Entry("empty result", "", false),
	)
})

var _ = Describe("Classify", func() {
	It("returns an empty classification for a non-defect result", func() {
		defect := hmis.Classify("正常", rowsFor(1, 5))
		Expect(defect).To(Equal(hmis.Defect{}))
	})

	It("defaults a defect with no readings to the axle body", func() {
		defect := hmis.Classify("故障", nil)
		Expect(defect.Place).To(Equal(hmis.PlaceAxle))
		Expect(defect.Type).To(Equal(hmis.TypeCrack))
		Expect(defect.View).To(Equal(hmis.ViewManualRecheck))
	})

	DescribeTable("maps the channel of the last reading to a place",
		func(channels []int, place string) {
			defect := hmis.Classify("故障", rowsFor(channels...))
			Expect(defect.Place).To(Equal(place))
			Expect(defect.Type).To(Equal(hmis.TypeCrack))
			Expect(defect.View).To(Equal(hmis.ViewManualRecheck))
		},
		Entry("channel 0", []int{0}, hmis.PlaceThrough),
		Entry("channel 1", []int{1}, hmis.PlaceGroove),
		Entry("channel 2", []int{2}, hmis.PlaceGroove),
		Entry("channel 3", []int{3}, hmis.PlaceWheelSeat),
		Entry("channel 8", []int{8}, hmis.PlaceWheelSeat),
		Entry("unknown channel keeps the default", []int{42}, hmis.PlaceAxle),
		Entry("the last reading wins", []int{1, 0, 5}, hmis.PlaceWheelSeat),
		Entry("the last reading wins, reversed", []int{5, 0}, hmis.PlaceThrough),
		Entry("unknown last channel keeps the previous place", []int{2, 42}, hmis.PlaceGroove),
	)

	It("classifies the same input identically on every call", func() {
		rows := rowsFor(3, 1, 0)
		first := hmis.Classify("疑似故障", rows)
		for i := 0; i < 10; i++ {
			Expect(hmis.Classify("疑似故障", rows)).To(Equal(first))
		}
	})
})

var _ = Describe("FormatDate", func() {
	DescribeTable("re-renders legacy date strings",
		func(value, layout, expected string) {
			Expect(hmis.FormatDate(value, layout)).To(Equal(expected))
		},
		Entry("slash datetime to compact date", "2024/03/05 12:30:00", "20060102", "20240305"),
		Entry("dash datetime to ISO date", "2024-03-05 12:30:00", "2006-01-02", "2024-03-05"),
		Entry("bare date to month", "2021-06-15", "200601", "202106"),
		Entry("year-month to compact month", "2019-11", "200601", "201911"),
		Entry("unparseable value passes through", "N/A", "20060102", "N/A"),
		Entry("empty value passes through", "", "20060102", ""),
	)
})
