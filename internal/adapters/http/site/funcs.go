package site

import (
	"html/template"
	"strconv"

	"github.com/okian/deck/internal/domain/format"
	"github.com/okian/deck/internal/domain/readout"
)

var funcs = template.FuncMap{
	"pct":          func(v float64) string { return format.Fixed(v, 1) },
	"num":          func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) },
	"readoutValue": readoutValue,
	"add":          func(a, b int) int { return a + b },
}

func readoutValue(r readout.Readout) string {
	if !r.HasValue {
		return ""
	}
	return format.Value(r.Value, r.Format)
}
