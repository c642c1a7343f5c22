package hmis

import "time"

// legacy stores dates in a handful of layouts depending on which version of
// the inspection software wrote the row.
var legacyDateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"2006-01",
}

// FormatDate re-renders a legacy date string in the layout a vendor wants.
// Unparseable values pass through untouched so the vendor sees exactly what
// the legacy store held.
func FormatDate(value, layout string) string {
	for _, in := range legacyDateLayouts {
		if t, err := time.Parse(in, value); err == nil {
			return t.Format(layout)
		}
	}
	return value
}
