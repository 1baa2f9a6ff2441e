package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophportal/internal/probe"
	"github.com/spf13/cobra"
)

// reportUploader is the part of probe.Uploader the command uses.
type reportUploader interface {
	Upload(ctx context.Context, report *probe.Report) (key, link string, err error)
}

// newUploader is a seam so tests can avoid real object storage.
var newUploader = func(cfg probe.S3Config) (reportUploader, error) {
	return probe.NewUploader(cfg)
}

type probeFlags struct {
	kind    string
	target  string
	param   string
	out     string
	upload  bool
	timeout time.Duration
	slow    time.Duration
}

func newProbeCommand(e *env) *cobra.Command {
	f := &probeFlags{}

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Send injection payloads to a URL parameter and report the responses",
		Long: `Sends every payload of the chosen catalog to one query parameter of the
target URL, classifies each response and writes a CSV report per kind.

	gophportal probe --kind sqli --target http://localhost:8080/item --param id
	gophportal probe --kind all --target http://localhost:8080/search --param q --upload
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbe(cmd, e, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.kind, "kind", "all", "payload catalog: sqli, xss, html or all")
	fl.StringVar(&f.target, "target", "", "target URL")
	fl.StringVar(&f.param, "param", "", "query parameter that receives the payload")
	fl.StringVar(&f.out, "out", "", "directory for CSV reports (default from config)")
	fl.BoolVar(&f.upload, "upload", false, "upload reports to the configured S3 bucket")
	fl.DurationVar(&f.timeout, "timeout", 0, "per-request timeout (default from config)")
	fl.DurationVar(&f.slow, "slow", 0, "SQL injection slow-response threshold (default from config)")
	_ = cmd.MarkFlagRequired("target")
	_ = cmd.MarkFlagRequired("param")

	return cmd
}

func probeKinds(s string) ([]probe.Kind, error) {
	if strings.EqualFold(s, "all") {
		return probe.Kinds(), nil
	}
	k, err := probe.ParseKind(s)
	if err != nil {
		return nil, err
	}
	return []probe.Kind{k}, nil
}

func runProbe(cmd *cobra.Command, e *env, f *probeFlags) error {
	ctx := cmd.Context()

	kinds, err := probeKinds(f.kind)
	if err != nil {
		return err
	}
	if _, err := probe.BuildURL(f.target, f.param, ""); err != nil {
		return err
	}

	outDir := e.cfg.ReportDir
	if f.out != "" {
		outDir = f.out
	}
	timeout := e.cfg.ProbeTimeout
	if f.timeout > 0 {
		timeout = f.timeout
	}
	slow := e.cfg.ProbeSlowThreshold
	if f.slow > 0 {
		slow = f.slow
	}

	var uploader reportUploader
	if f.upload {
		uploader, err = newUploader(probe.S3Config{
			Endpoint:     e.cfg.S3Endpoint,
			Region:       e.cfg.S3Region,
			Bucket:       e.cfg.S3Bucket,
			AccessKey:    e.cfg.S3AccessKey,
			SecretKey:    e.cfg.S3SecretKey,
			UsePathStyle: e.cfg.S3UsePathStyle,
		})
		if err != nil {
			return err
		}
	}

	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	for _, kind := range kinds {
		scanner := probe.NewScanner(probe.Options{
			Timeout:       timeout,
			SlowThreshold: slow,
			Progress:      progressPrinter(stderr, kind),
			Logger:        e.log,
		})

		report, scanErr := scanner.Scan(ctx, kind, f.target, f.param)
		if report == nil {
			return scanErr
		}

		path, err := probe.SaveCSV(outDir, report)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s: %d payloads, %d suspicious, %d errors in %s -> %s\n",
			kind, len(report.Results), report.Suspicious(), report.Errors(),
			report.Duration.Round(time.Millisecond), path)

		if uploader != nil {
			key, link, err := uploader.Upload(ctx, report)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "%s: uploaded to %s\n", kind, key)
			fmt.Fprintf(stdout, "%s: download %s\n", kind, link)
		}

		if scanErr != nil {
			return scanErr
		}
	}
	return nil
}

// progressPrinter redraws a single "kind done/total" line on w.
func progressPrinter(w io.Writer, kind probe.Kind) func(done, total int) {
	return func(done, total int) {
		fmt.Fprintf(w, "\r[%s] %d/%d", kind, done, total)
		if done == total {
			fmt.Fprintln(w)
		}
	}
}
