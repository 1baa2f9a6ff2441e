package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophportal/internal/common"
	"github.com/dmitrijs2005/gophportal/internal/logging"
)

const (
	DefaultTimeout       = 5 * time.Second
	DefaultSlowThreshold = 4 * time.Second
	DefaultMaxBodyBytes  = 10 << 20
)

// Result is the outcome of one payload request. Error is set when the
// request failed; the classification fields are then meaningless.
type Result struct {
	Category   string
	Payload    string
	URL        string
	Status     int
	Elapsed    time.Duration
	Suspicious bool
	Reasons    []string
	Reflected  bool
	Filtered   bool
	Rendered   bool
	Error      string
}

func (r Result) Failed() bool { return r.Error != "" }

// Report holds the results of one scan in catalog order.
type Report struct {
	Kind      Kind
	Target    string
	Param     string
	StartedAt time.Time
	Duration  time.Duration
	Results   []Result
}

// Suspicious counts the rows flagged by the classifier.
func (r *Report) Suspicious() int {
	n := 0
	for _, res := range r.Results {
		if res.Suspicious {
			n++
		}
	}
	return n
}

// Errors counts the rows whose request failed.
func (r *Report) Errors() int {
	n := 0
	for _, res := range r.Results {
		if res.Failed() {
			n++
		}
	}
	return n
}

type Options struct {
	// Timeout bounds each request. Defaults to DefaultTimeout.
	Timeout time.Duration
	// SlowThreshold marks SQL injection responses slower than this.
	SlowThreshold time.Duration
	MaxBodyBytes  int64
	Client        *http.Client
	// Progress is called after every payload with the number done so far.
	Progress func(done, total int)
	Logger   logging.Logger
}

type Scanner struct {
	client   *http.Client
	timeout  time.Duration
	slow     time.Duration
	maxBody  int64
	progress func(done, total int)
	log      logging.Logger
	now      func() time.Time
}

func NewScanner(opts Options) *Scanner {
	s := &Scanner{
		client:   opts.Client,
		timeout:  opts.Timeout,
		slow:     opts.SlowThreshold,
		maxBody:  opts.MaxBodyBytes,
		progress: opts.Progress,
		log:      opts.Logger,
		now:      time.Now,
	}
	if s.client == nil {
		s.client = &http.Client{}
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}
	if s.slow <= 0 {
		s.slow = DefaultSlowThreshold
	}
	if s.maxBody <= 0 {
		s.maxBody = DefaultMaxBodyBytes
	}
	if s.log == nil {
		s.log = logging.Discard()
	}
	s.log = s.log.With("module", "probe")
	return s
}

// BuildURL appends param=payload to the target's query string. Existing
// parameters, including an earlier value of param, are kept.
func BuildURL(target, param, payload string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(target))
	if err != nil {
		return "", fmt.Errorf("invalid target url: %w: %w", common.ErrValidation, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("target must be an absolute http(s) url: %w", common.ErrValidation)
	}
	if strings.TrimSpace(param) == "" {
		return "", fmt.Errorf("parameter name is empty: %w", common.ErrValidation)
	}

	pair := url.Values{param: []string{payload}}.Encode()
	if u.RawQuery == "" {
		u.RawQuery = pair
	} else {
		u.RawQuery += "&" + pair
	}
	return u.String(), nil
}

// Scan sends every payload of kind to target. On context cancellation the
// partial report is returned together with the context error.
func (s *Scanner) Scan(ctx context.Context, kind Kind, target, param string) (*Report, error) {
	cats, err := Catalog(kind)
	if err != nil {
		return nil, err
	}
	if _, err := BuildURL(target, param, ""); err != nil {
		return nil, err
	}

	total := countPayloads(cats)
	report := &Report{
		Kind:      kind,
		Target:    target,
		Param:     param,
		StartedAt: s.now(),
		Results:   make([]Result, 0, total),
	}

	s.log.Info(ctx, "scan started", "kind", kind, "target", target, "param", param, "payloads", total)

	done := 0
	for _, cat := range cats {
		for _, payload := range cat.Payloads {
			if err := ctx.Err(); err != nil {
				report.Duration = s.now().Sub(report.StartedAt)
				return report, err
			}

			res := s.probe(ctx, kind, target, param, payload)
			res.Category = cat.Name
			report.Results = append(report.Results, res)

			done++
			if s.progress != nil {
				s.progress(done, total)
			}
		}
	}

	report.Duration = s.now().Sub(report.StartedAt)
	s.log.Info(ctx, "scan finished", "kind", kind,
		"suspicious", report.Suspicious(), "errors", report.Errors(), "took", report.Duration)
	return report, nil
}

func (s *Scanner) probe(ctx context.Context, kind Kind, target, param, payload string) Result {
	res := Result{Payload: payload}

	u, err := BuildURL(target, param, payload)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.URL = u

	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, u, nil)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	start := s.now()
	resp, err := s.client.Do(req)
	if err != nil {
		res.Error = err.Error()
		s.log.Debug(ctx, "request failed", "url", u, "err", err)
		return res
	}
	defer resp.Body.Close()
	res.Elapsed = s.now().Sub(start)
	res.Status = resp.StatusCode

	raw, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBody))
	if err != nil {
		res.Error = fmt.Sprintf("read body: %v", err)
		return res
	}
	body := string(raw)

	switch kind {
	case KindSQLi:
		res.Suspicious, res.Reasons = classifySQLi(res.Status, body, res.Elapsed, s.slow)
	case KindXSS:
		res.Reflected, res.Filtered = classifyXSS(body, payload)
		res.Suspicious = res.Reflected
	case KindHTML:
		res.Reflected, res.Rendered = classifyHTML(body, payload)
		res.Suspicious = res.Reflected
	}

	s.log.Debug(ctx, "payload probed", "url", u, "status", res.Status, "suspicious", res.Suspicious)
	return res
}
