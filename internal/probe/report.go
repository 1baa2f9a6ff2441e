package probe

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/gophportal/internal/filex"
)

const (
	yes      = "Yes"
	no       = "No"
	errorVal = "Error"
	na       = "N/A"
)

// FileName returns the CSV file name used for a report of kind.
func FileName(kind Kind) string {
	switch kind {
	case KindSQLi:
		return "sql_injection_results.csv"
	case KindXSS:
		return "xss_scan_results.csv"
	case KindHTML:
		return "html_injection_results.csv"
	}
	return string(kind) + "_results.csv"
}

// Header returns the CSV columns for kind.
func Header(kind Kind) []string {
	switch kind {
	case KindSQLi:
		return []string{"Category", "Payload", "Suspicious", "Reason"}
	case KindXSS:
		return []string{"Category", "Payload", "Reflected", "Filtered", "Status"}
	default:
		return []string{"Category", "Payload", "Reflected", "Rendered", "Status"}
	}
}

func yesNo(b bool) string {
	if b {
		return yes
	}
	return no
}

// Row formats one result the way it appears in the CSV export.
func Row(kind Kind, r Result) []string {
	if kind == KindSQLi {
		if r.Failed() {
			return []string{r.Category, r.Payload, errorVal, r.Error}
		}
		reason := na
		if len(r.Reasons) > 0 {
			reason = strings.Join(r.Reasons, ", ")
		}
		return []string{r.Category, r.Payload, yesNo(r.Suspicious), reason}
	}

	if r.Failed() {
		return []string{r.Category, r.Payload, errorVal, errorVal, r.Error}
	}
	second := r.Filtered
	if kind == KindHTML {
		second = r.Rendered
	}
	return []string{r.Category, r.Payload, yesNo(r.Reflected), yesNo(second), strconv.Itoa(r.Status)}
}

// WriteCSV writes the report with a header row.
func WriteCSV(w io.Writer, report *Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header(report.Kind)); err != nil {
		return err
	}
	for _, r := range report.Results {
		if err := cw.Write(Row(report.Kind, r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV writes the report into dir under FileName and returns the path.
// An existing report of the same kind is replaced only once the new one is
// complete.
func SaveCSV(dir string, report *Report) (string, error) {
	dir, err := filex.EnsureDir(dir)
	if err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	path := filepath.Join(dir, FileName(report.Kind))
	err = filex.WriteAtomic(path, func(w io.Writer) error {
		return WriteCSV(w, report)
	})
	if err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
