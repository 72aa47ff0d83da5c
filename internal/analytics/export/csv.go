package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/odyssey-erp/odyssey-pulse/internal/widget"
)

// WriteSummaryCSV serialises the headline metrics of every settled widget.
// Widgets without data are listed with their status so the export stays
// complete.
func WriteSummaryCSV(w io.Writer, views []widget.ViewModel, rangeLength int) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Widget", "Metric", "Value"}); err != nil {
		return err
	}
	if err := writer.Write([]string{"Dashboard", "Range (days)", strconv.Itoa(rangeLength)}); err != nil {
		return err
	}
	for _, vm := range views {
		if vm.Summary == nil {
			if err := writer.Write([]string{vm.Title, "Status", string(vm.Status)}); err != nil {
				return err
			}
			continue
		}
		if h := vm.Summary.Headline; h != nil {
			if err := writer.Write([]string{vm.Title, h.Label, h.Value}); err != nil {
				return err
			}
		}
		for _, item := range vm.Summary.Items {
			if err := writer.Write([]string{vm.Title, item.Label, item.Value}); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteSeriesCSV emits the chart points of every widget that has data.
func WriteSeriesCSV(w io.Writer, views []widget.ViewModel) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Widget", "Label", "Value"}); err != nil {
		return err
	}
	for _, vm := range views {
		if vm.Series == nil {
			continue
		}
		for i, value := range vm.Series.Values {
			label := ""
			if i < len(vm.Series.Labels) {
				label = vm.Series.Labels[i]
			}
			if err := writer.Write([]string{vm.Title, label, formatFloat(value)}); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
