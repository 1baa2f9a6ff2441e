package probe

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileName(t *testing.T) {
	assert.Equal(t, "sql_injection_results.csv", FileName(KindSQLi))
	assert.Equal(t, "xss_scan_results.csv", FileName(KindXSS))
	assert.Equal(t, "html_injection_results.csv", FileName(KindHTML))
}

func readCSV(t *testing.T, b []byte) [][]string {
	t.Helper()
	rows, err := csv.NewReader(bytes.NewReader(b)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestWriteCSV_SQLi(t *testing.T) {
	report := &Report{Kind: KindSQLi, Results: []Result{
		{Category: "Union Based", Payload: "' UNION SELECT NULL--", Status: 500, Suspicious: true,
			Reasons: []string{"Non-200 status code: 500", reasonSQL}},
		{Category: "Union Based", Payload: "' UNION SELECT NULL,NULL--", Status: 200},
		{Category: "Blind SQL", Payload: "' AND SLEEP(5)--", Error: "context deadline exceeded"},
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, report))

	want := [][]string{
		{"Category", "Payload", "Suspicious", "Reason"},
		{"Union Based", "' UNION SELECT NULL--", "Yes", "Non-200 status code: 500, SQL error in response"},
		{"Union Based", "' UNION SELECT NULL,NULL--", "No", "N/A"},
		{"Blind SQL", "' AND SLEEP(5)--", "Error", "context deadline exceeded"},
	}
	assert.Equal(t, want, readCSV(t, buf.Bytes()))
}

func TestWriteCSV_XSSAndHTML(t *testing.T) {
	results := []Result{
		{Category: "Basic", Payload: `"><img src=x>`, Status: 200, Reflected: true, Filtered: true, Rendered: false},
		{Category: "Basic", Payload: "<p>Test</p>", Error: "connection refused"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, &Report{Kind: KindXSS, Results: results}))
	assert.Equal(t, [][]string{
		{"Category", "Payload", "Reflected", "Filtered", "Status"},
		{"Basic", `"><img src=x>`, "Yes", "Yes", "200"},
		{"Basic", "<p>Test</p>", "Error", "Error", "connection refused"},
	}, readCSV(t, buf.Bytes()))

	buf.Reset()
	require.NoError(t, WriteCSV(&buf, &Report{Kind: KindHTML, Results: results}))
	rows := readCSV(t, buf.Bytes())
	assert.Equal(t, []string{"Category", "Payload", "Reflected", "Rendered", "Status"}, rows[0])
	assert.Equal(t, []string{"Basic", `"><img src=x>`, "Yes", "No", "200"}, rows[1])
}

func TestSaveCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	path, err := SaveCSV(dir, &Report{Kind: KindHTML})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "html_injection_results.csv"), path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Category,Payload,Reflected,Rendered,Status\n", string(b))
}
