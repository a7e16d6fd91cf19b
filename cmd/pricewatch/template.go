package main

import (
	"fmt"
	"io"
	"text/template"
	"time"

	"github.com/geniass/pricewatch/pkg/delta"
	"github.com/geniass/pricewatch/pkg/history"
)

var markdownTemplate = template.Must(template.New("markdownTemplate").Parse(
	`# Price history
## {{ .ProductID }}
[Product Page]({{ .URL }})

{{ if .Rows -}}
| Timestamp | Price | Drop |
|---|---|---|
{{ range .Rows -}}
| {{ .Timestamp }} | {{ .Price }} | {{ .Drop }} |
{{ end }}
Latest price: {{ .Latest }}
{{- else -}}
No prices recorded yet.
{{- end }}
`,
))

type historyRow struct {
	Timestamp string
	Price     int64
	Drop      string
}

type historyContext struct {
	ProductID string
	URL       string
	Rows      []historyRow
	Latest    int64
}

// newHistoryContext keeps the last n records (all when n <= 0) and computes
// each one's drop against the record before it.
func newHistoryContext(productID, url string, records []history.PriceRecord, n int) historyContext {
	c := historyContext{ProductID: productID, URL: url}
	if len(records) == 0 {
		return c
	}

	start := 0
	if n > 0 && len(records) > n {
		start = len(records) - n
	}
	for i := start; i < len(records); i++ {
		r := records[i]
		row := historyRow{
			Timestamp: r.Timestamp.Format(time.RFC3339),
			Price:     r.Price,
		}
		if i > 0 {
			if d, err := delta.PercentDrop(records[i-1].Price, r.Price); err == nil {
				row.Drop = fmt.Sprintf("%d%%", d)
			} else {
				row.Drop = "n/a"
			}
		}
		c.Rows = append(c.Rows, row)
	}
	c.Latest = records[len(records)-1].Price
	return c
}

func renderHistory(w io.Writer, c historyContext) error {
	return markdownTemplate.Execute(w, c)
}
