package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// Pie renders the share of each value as pie slices with a legend.
func Pie(width, height int, values []float64, labels []string, opts PieOpts) (template.HTML, error) {
	if len(values) == 0 {
		return "", fmt.Errorf("svg: values required")
	}
	if len(values) != len(labels) {
		return "", fmt.Errorf("svg: labels length must match values")
	}
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	total := 0.0
	for _, v := range values {
		if v < 0 {
			return "", fmt.Errorf("svg: negative slice value")
		}
		total += v
	}
	if almostEqual(total, 0) {
		return "", fmt.Errorf("svg: values sum to zero")
	}
	colors := opts.Colors
	if len(colors) == 0 {
		colors = defaultPalette
	}
	labelColor := fallback(opts.LabelColor, "#37474f")

	radius := math.Min(float64(width)/2, float64(height)) / 2 * 0.9
	cx := float64(width) / 4
	cy := float64(height) / 2
	inner := 0.0
	if opts.InnerRatio > 0 && opts.InnerRatio < 1 {
		inner = radius * opts.InnerRatio
	}

	titleID := makeID(opts.Title, "pie-title")
	descID := makeID(opts.Title, "pie-desc")

	var b strings.Builder
	b.WriteString(fmt.Sprintf("<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" role=\"img\" aria-labelledby=\"%s %s\">", width, height, titleID, descID))
	b.WriteString(fmt.Sprintf("<title id=\"%s\">%s</title>", titleID, template.HTMLEscapeString(fallback(opts.Title, "Pie chart"))))
	b.WriteString(fmt.Sprintf("<desc id=\"%s\">%s</desc>", descID, template.HTMLEscapeString(fallback(opts.Description, "Share of total"))))

	angle := -math.Pi / 2
	for i, v := range values {
		color := colors[i%len(colors)]
		share := v / total
		label := template.HTMLEscapeString(labels[i])
		switch {
		case almostEqual(share, 0):
		case almostEqual(share, 1):
			b.WriteString(fmt.Sprintf("<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\" fill=\"%s\" aria-label=\"%s\"></circle>", cx, cy, radius, color, label))
		default:
			sweep := share * 2 * math.Pi
			b.WriteString(fmt.Sprintf("<path d=\"%s\" fill=\"%s\" aria-label=\"%s\"></path>", slicePath(cx, cy, radius, angle, angle+sweep), color, label))
			angle += sweep
		}
	}
	if inner > 0 {
		b.WriteString(fmt.Sprintf("<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\" fill=\"#ffffff\" aria-hidden=\"true\"></circle>", cx, cy, inner))
	}

	legendX := float64(width)/2 + 12
	legendY := cy - float64(len(values)-1)*10
	for i, v := range values {
		y := legendY + float64(i)*20
		b.WriteString(fmt.Sprintf("<rect x=\"%.2f\" y=\"%.2f\" width=\"10\" height=\"10\" fill=\"%s\"></rect>", legendX, y-8, colors[i%len(colors)]))
		b.WriteString(fmt.Sprintf("<text x=\"%.2f\" y=\"%.2f\" fill=\"%s\" font-size=\"11\" text-anchor=\"start\">%s %.0f%%</text>", legendX+16, y+1, labelColor, template.HTMLEscapeString(labels[i]), v/total*100))
	}

	b.WriteString("</svg>")
	return template.HTML(b.String()), nil
}

func slicePath(cx, cy, r, from, to float64) string {
	x1 := cx + r*math.Cos(from)
	y1 := cy + r*math.Sin(from)
	x2 := cx + r*math.Cos(to)
	y2 := cy + r*math.Sin(to)
	large := 0
	if to-from > math.Pi {
		large = 1
	}
	return fmt.Sprintf("M%.2f %.2f L%.2f %.2f A%.2f %.2f 0 %d 1 %.2f %.2f Z", cx, cy, x1, y1, r, r, large, x2, y2)
}
