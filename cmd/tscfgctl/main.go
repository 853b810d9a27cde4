package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"example.com/tscfg/internal/cfgbin"
	"example.com/tscfg/internal/common"
	"example.com/tscfg/internal/config"
	"example.com/tscfg/internal/manifest"
	"example.com/tscfg/internal/report"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}
	cmd := os.Args[1]
	switch cmd {
	case "decode":
		decodeCmd(os.Args[2:])
	case "report":
		reportCmd(os.Args[2:])
	case "manifest":
		manifestCmd(os.Args[2:])
	case "batch":
		batchCmd(os.Args[2:])
	case "version":
		fmt.Printf("tscfgctl %s (built %s)\n", version, buildDate)
	default:
		usage()
	}
}

func usage() {
	fmt.Printf(`tscfgctl %s (built %s) <command> [options]

Commands:
  decode    --in <cfg.bin> [--format json|text] [--out <file>]
  report    --in <cfg.bin> --out <report.pdf> [--title <title>] [--config <tscfgd.yaml>]
  manifest  --inputs <comma-separated> --out <manifest.json>
  batch     --in <dir> --out-dir <dir> [--audit <decode.jsonl>] [--metrics] [--progress]
  version
`, version, buildDate)
}

func decodeCmd(args []string) {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	in := fs.String("in", "", "input cfg bin")
	format := fs.String("format", "json", "output format: json or text")
	out := fs.String("out", "", "output file (default stdout)")
	fs.Parse(args)

	if *in == "" {
		fmt.Println("required: --in")
		os.Exit(1)
	}
	if err := decodeTo(*in, *format, *out, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// decodeTo renders in to stdout, or to out when set. The output file is only
// created once decoding succeeded.
func decodeTo(in, format, out string, stdout io.Writer) error {
	if out == "" {
		return runDecode(in, format, stdout)
	}
	var buf bytes.Buffer
	if err := runDecode(in, format, &buf); err != nil {
		return err
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// runDecode decodes the file at in and renders it to w.
func runDecode(in, format string, w io.Writer) error {
	if format != "json" && format != "text" {
		return fmt.Errorf("unsupported format %q", format)
	}
	bin, err := cfgbin.DecodeFile(in)
	if err != nil {
		return fmt.Errorf("decode %s: %w (%s)", in, err, cfgbin.Kind(err))
	}
	if format == "text" {
		return report.WriteText(w, bin)
	}
	data, err := json.MarshalIndent(cfgbin.NewView(bin), "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

func reportCmd(args []string) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	in := fs.String("in", "", "input cfg bin")
	out := fs.String("out", "", "output report PDF")
	title := fs.String("title", "", "report title")
	cfgPath := fs.String("config", "", "config file supplying report defaults")
	fs.Parse(args)

	if *in == "" || *out == "" {
		fmt.Println("required: --in and --out")
		os.Exit(1)
	}
	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			fmt.Println("config:", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	opts := report.PDFOptions{
		Title:  cfg.Report.Title,
		Author: cfg.Report.Author,
		QRSize: cfg.Report.QRSize,
		Source: filepath.Base(*in),
	}
	if *title != "" {
		opts.Title = *title
	}
	if err := runReport(*in, *out, opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println("Wrote PDF:", *out)
}

func runReport(in, out string, opts report.PDFOptions) error {
	data, digest, err := common.ReadFileDigest(in)
	if err != nil {
		return fmt.Errorf("read %s: %w", in, err)
	}
	bin, err := cfgbin.Decode(data)
	if err != nil {
		return fmt.Errorf("decode %s: %w (%s)", in, err, cfgbin.Kind(err))
	}
	opts.Digest = digest
	if err := report.SavePDF(bin, opts, out); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func manifestCmd(args []string) {
	fs := flag.NewFlagSet("manifest", flag.ExitOnError)
	inputs := fs.String("inputs", "", "comma-separated paths")
	out := fs.String("out", "manifest.json", "output json")
	fs.Parse(args)

	if *inputs == "" {
		fmt.Println("required: --inputs")
		os.Exit(1)
	}
	var paths []string
	for _, p := range strings.Split(*inputs, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		paths = append(paths, p)
	}
	if len(paths) == 0 {
		fmt.Println("no input paths specified")
		os.Exit(1)
	}
	m, err := manifest.Build(paths)
	if err != nil {
		fmt.Println("manifest build:", err)
		os.Exit(1)
	}
	if err := manifest.Save(m, *out); err != nil {
		fmt.Println("manifest save:", err)
		os.Exit(1)
	}
	fmt.Println("Wrote", *out)
}

func batchCmd(args []string) {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	inDir := fs.String("in", ".", "input directory")
	outDir := fs.String("out-dir", "out", "results directory")
	audit := fs.String("audit", "", "append decode outcomes to this JSONL file")
	metricsFlag := fs.Bool("metrics", false, "print decode throughput metrics")
	progressFlag := fs.Bool("progress", false, "display progress updates")
	fs.Parse(args)

	opts := batchOptions{InDir: *inDir, OutDir: *outDir, Audit: *audit}
	if *metricsFlag || *progressFlag {
		opts.Metrics = common.NewMetrics()
	}
	if *progressFlag {
		opts.Progress = os.Stderr
	}
	sum, err := runBatch(opts, os.Stdout)
	if err != nil {
		fmt.Println("batch:", err)
		os.Exit(1)
	}
	if *metricsFlag {
		snap := opts.Metrics.Snapshot()
		fmt.Printf("Metrics: duration=%s files=%d packages=%d processed=%s throughput=%.2f MB/s\n",
			snap.Duration.Round(10*time.Millisecond),
			snap.Files,
			snap.Packages,
			common.FormatBytes(snap.Bytes),
			snap.ThroughputBytesPerSecond()/1_000_000,
		)
	}
	if sum.Failed > 0 {
		os.Exit(1)
	}
}

type batchOptions struct {
	InDir   string
	OutDir  string
	Audit   string
	Metrics *common.Metrics
	// Progress receives periodic progress lines when set.
	Progress io.Writer
}

type batchSummary struct {
	Total  int
	Failed int
}

// runBatch decodes every *.bin file under opts.InDir and writes one JSON
// document per input into opts.OutDir, mirroring the directory layout.
func runBatch(opts batchOptions, stdout io.Writer) (batchSummary, error) {
	var sum batchSummary
	inputs, total, err := collectInputs(opts.InDir)
	if err != nil {
		return sum, err
	}
	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return sum, err
	}
	var audit *common.DecodeLog
	if opts.Audit != "" {
		audit = common.NewDecodeLog(opts.Audit)
	}
	metrics := opts.Metrics
	if metrics != nil {
		metrics.SetTotalBytes(total)
		metrics.Start()
		defer metrics.Stop()
		if opts.Progress != nil {
			stop := common.StartProgressPrinter(opts.Progress, metrics, 500*time.Millisecond)
			defer stop()
		}
	}

	for _, rel := range inputs {
		sum.Total++
		path := filepath.Join(opts.InDir, rel)
		outPath := filepath.Join(opts.OutDir, strings.TrimSuffix(rel, filepath.Ext(rel))+".json")
		entry, err := decodeToJSON(path, outPath, metrics)
		entry.File = rel
		if audit != nil {
			if aerr := audit.Append(entry); aerr != nil {
				return sum, fmt.Errorf("audit: %w", aerr)
			}
		}
		if err != nil {
			sum.Failed++
			fmt.Fprintf(stdout, "FAIL %s: %v\n", rel, err)
			continue
		}
		fmt.Fprintf(stdout, "OK   %s -> %s\n", rel, outPath)
	}
	fmt.Fprintf(stdout, "Decoded %d of %d inputs (%d failed)\n", sum.Total-sum.Failed, sum.Total, sum.Failed)
	return sum, nil
}

func collectInputs(root string) ([]string, int64, error) {
	var inputs []string
	var total int64
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".bin") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		inputs = append(inputs, rel)
		total += info.Size()
		return nil
	})
	return inputs, total, err
}

func decodeToJSON(path, outPath string, metrics *common.Metrics) (common.DecodeEntry, error) {
	var entry common.DecodeEntry
	data, digest, err := common.ReadFileDigest(path)
	if err != nil {
		entry.Kind = cfgbin.KindIO
		entry.Error = err.Error()
		return entry, err
	}
	entry.Sha256 = digest
	entry.Size = int64(len(data))
	bin, err := cfgbin.Decode(data)
	if err != nil {
		if metrics != nil {
			metrics.AddFailed(entry.Size)
		}
		entry.Kind = cfgbin.Kind(err)
		entry.Error = err.Error()
		return entry, err
	}
	if metrics != nil {
		metrics.AddDecoded(entry.Size, len(bin.Packages()))
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return entry, err
	}
	if err := report.SaveJSON(cfgbin.NewView(bin), outPath); err != nil {
		entry.Kind = cfgbin.KindIO
		entry.Error = err.Error()
		return entry, err
	}
	entry.OK = true
	entry.PkgNum = int(bin.Head().PkgNum)
	return entry, nil
}
