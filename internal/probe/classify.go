package probe

import (
	"bytes"
	"fmt"
	stdhtml "html"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// sqlErrorKeywords are matched against the lower-cased response body.
var sqlErrorKeywords = []string{
	"sql syntax",
	"mysql error",
	"postgresql error",
	"oracle error",
	"sql server error",
	"syntax error",
}

const (
	reasonStatus = "Non-200 status code: %d"
	reasonSQL    = "SQL error in response"
	reasonSlow   = "Long response time (possible time-based vulnerability)"
)

// classifySQLi applies the three SQL injection heuristics. Every heuristic
// that fires adds a reason.
func classifySQLi(status int, body string, elapsed, slow time.Duration) (bool, []string) {
	var reasons []string

	if status != 200 {
		reasons = append(reasons, fmt.Sprintf(reasonStatus, status))
	}

	lower := strings.ToLower(body)
	for _, kw := range sqlErrorKeywords {
		if strings.Contains(lower, kw) {
			reasons = append(reasons, reasonSQL)
			break
		}
	}

	if elapsed > slow {
		reasons = append(reasons, reasonSlow)
	}

	return len(reasons) > 0, reasons
}

// hexEscaper escapes the apostrophe as &#x27; where html.EscapeString uses &#39;.
var hexEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
)

// escapedForms lists the payload as servers commonly escape it.
func escapedForms(payload string) []string {
	forms := []string{stdhtml.EscapeString(payload), hexEscaper.Replace(payload)}
	if forms[0] == forms[1] {
		forms = forms[:1]
	}
	return forms
}

// classifyXSS reports whether the payload is reflected verbatim or escaped,
// and whether a reflected payload sits inside a <script> element.
func classifyXSS(body, payload string) (reflected, filtered bool) {
	reflected = strings.Contains(body, payload)
	if !reflected {
		for _, f := range escapedForms(payload) {
			if strings.Contains(body, f) {
				reflected = true
				break
			}
		}
	}
	if !reflected {
		return false, false
	}

	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return reflected, false
	}

	for _, n := range findAll(doc, func(n *html.Node) bool { return n.DataAtom == atom.Script }) {
		var buf bytes.Buffer
		if err := html.Render(&buf, n); err != nil {
			continue
		}
		if strings.Contains(buf.String(), payload) {
			return reflected, true
		}
	}
	return reflected, false
}

// classifyHTML reports whether the payload is reflected verbatim and, if so,
// whether any element it contains shows up in the parsed response.
func classifyHTML(body, payload string) (reflected, rendered bool) {
	reflected = strings.Contains(body, payload)
	if !reflected {
		return false, false
	}

	tags := payloadTags(payload)
	if len(tags) == 0 {
		return reflected, false
	}

	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return reflected, false
	}

	present := make(map[string]bool)
	for _, n := range findAll(doc, func(*html.Node) bool { return true }) {
		present[n.Data] = true
	}
	for _, t := range tags {
		if present[t] {
			return reflected, true
		}
	}
	return reflected, false
}

// payloadTags returns the element names found in payload, in document order.
func payloadTags(payload string) []string {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(payload), ctx)
	if err != nil {
		return nil
	}

	var tags []string
	seen := make(map[string]bool)
	for _, root := range nodes {
		for _, n := range findAll(root, func(*html.Node) bool { return true }) {
			if !seen[n.Data] {
				seen[n.Data] = true
				tags = append(tags, n.Data)
			}
		}
	}
	return tags
}

// findAll walks the tree below and including n and returns the element
// nodes accepted by match.
func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}
