package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/odyssey-erp/odyssey-pulse/internal/widget"
)

// DashboardPayload aggregates the dashboard state destined for PDF rendering.
type DashboardPayload struct {
	Range       int
	GeneratedAt time.Time
	Widgets     []widget.ViewModel
}

// PDFExporter wraps Gotenberg interactions for dashboard exports.
type PDFExporter struct {
	Endpoint string
	Client   *http.Client
}

// RenderDashboard sends HTML content to Gotenberg and returns the PDF bytes.
func (p *PDFExporter) RenderDashboard(ctx context.Context, payload DashboardPayload) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("pdf exporter not initialised")
	}
	endpoint := strings.TrimRight(p.Endpoint, "/")
	if endpoint == "" {
		return nil, fmt.Errorf("gotenberg endpoint required")
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(part, buildHTML(payload)); err != nil {
		return nil, err
	}
	if err := writer.WriteField("waitDelay", "500ms"); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/forms/chromium/convert/html", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("gotenberg response %d: %s", resp.StatusCode, string(data))
	}

	return io.ReadAll(resp.Body)
}

func buildHTML(payload DashboardPayload) string {
	var b strings.Builder
	b.WriteString("<html><head><meta charset=\"utf-8\"><style>")
	b.WriteString("body{font-family:sans-serif;margin:24px;}h1{font-size:20px;}table{width:100%;border-collapse:collapse;margin-bottom:16px;}th,td{border:1px solid #ddd;padding:6px;text-align:right;}th{text-align:left;background:#f5f5f5;}section{margin-bottom:24px;} .metric-label{text-align:left;} .failed{color:#c62828;}")
	b.WriteString("</style></head><body>")
	b.WriteString(fmt.Sprintf("<h1>Analytics, last %d days</h1>", payload.Range))
	if !payload.GeneratedAt.IsZero() {
		b.WriteString(fmt.Sprintf("<p>Generated %s</p>", templateEscape(payload.GeneratedAt.UTC().Format(time.RFC1123))))
	}

	for _, vm := range payload.Widgets {
		b.WriteString("<section><h2>")
		b.WriteString(templateEscape(vm.Title))
		b.WriteString("</h2>")
		switch {
		case vm.Status == widget.StatusFailed:
			b.WriteString("<p class=\"failed\">")
			b.WriteString(templateEscape(vm.ErrorMessage))
			b.WriteString("</p>")
		case vm.Summary == nil:
			b.WriteString("<p>No data yet</p>")
		default:
			b.WriteString("<table><tbody>")
			if h := vm.Summary.Headline; h != nil {
				writeMetricRow(&b, h.Label, h.Value)
			}
			for _, item := range vm.Summary.Items {
				writeMetricRow(&b, item.Label, item.Value)
			}
			b.WriteString("</tbody></table>")
		}
		b.WriteString("</section>")
	}

	b.WriteString("</body></html>")
	return b.String()
}

func writeMetricRow(b *strings.Builder, label, value string) {
	b.WriteString("<tr><td class=\"metric-label\">")
	b.WriteString(templateEscape(label))
	b.WriteString("</td><td>")
	b.WriteString(templateEscape(value))
	b.WriteString("</td></tr>")
}

func templateEscape(v string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\"", "&quot;",
		"'", "&#39;",
	)
	return replacer.Replace(v)
}
