// Command payslipctl batch-parses payslip PDFs from a directory.
//
//	payslipctl parse [-store payslips.db] [-json] [-backend native] <dir>
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/FACorreiaa/payslip-overview/internal/domain/payslip/parser"
	"github.com/FACorreiaa/payslip-overview/internal/domain/payslip/pdftext"
	"github.com/FACorreiaa/payslip-overview/internal/domain/payslip/repository"
	"github.com/FACorreiaa/payslip-overview/internal/domain/payslip/service"
	"github.com/FACorreiaa/payslip-overview/pkg/db"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func usage() {
	printError("usage: payslipctl parse [flags] <dir>\n\n")
	printError("Parses every .pdf file in <dir> and prints the extracted records.\n\n")
}

func main() {
	if len(os.Args) < 2 || os.Args[1] != "parse" {
		usage()
		os.Exit(2)
	}

	if err := runParse(context.Background(), os.Args[2:], os.Stdout); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
}

type parseOptions struct {
	dir         string
	store       string
	asJSON      bool
	backend     string
	timeout     time.Duration
	concurrency int
	verbose     bool
}

func parseFlags(args []string) (*parseOptions, error) {
	fs := flag.NewFlagSet("parse", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	opts := &parseOptions{}
	fs.StringVar(&opts.store, "store", "", "persist parsed records into this SQLite database")
	fs.BoolVar(&opts.asJSON, "json", false, "print records as JSON instead of a summary table")
	fs.StringVar(&opts.backend, "backend", pdftext.BackendNative, "pdf text backend: native or eino")
	fs.DurationVar(&opts.timeout, "timeout", parser.DefaultTimeout, "text extraction timeout per file")
	fs.IntVar(&opts.concurrency, "concurrency", service.DefaultConcurrency, "files parsed in parallel")
	fs.BoolVar(&opts.verbose, "v", false, "log parser decisions to stderr")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, errors.New("exactly one directory is required")
	}
	opts.dir = fs.Arg(0)
	return opts, nil
}

func runParse(ctx context.Context, args []string, out io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	uploads, err := readDir(opts.dir)
	if err != nil {
		return err
	}
	if len(uploads) == 0 {
		return fmt.Errorf("no pdf files in %s", opts.dir)
	}

	extractor, err := pdftext.New(ctx, opts.backend)
	if err != nil {
		return err
	}
	p := parser.New(extractor, parser.WithTimeout(opts.timeout), parser.WithLogger(logger))

	// Without -store the run still goes through a throwaway database.
	path := opts.store
	if path == "" {
		path = ":memory:"
	}
	sqlDB, err := db.OpenSQLite(ctx, path, logger)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	repo := repository.NewSQLiteRepository(sqlDB)
	svc := service.NewPayslipService(repo, p, nil, nil, logger, service.Config{Concurrency: opts.concurrency})
	results, err := svc.Ingest(ctx, uploads)
	if err != nil {
		return err
	}

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	writeSummary(out, results)
	return nil
}

// readDir loads every .pdf file directly under dir, in name order.
func readDir(dir string) ([]service.Upload, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var uploads []service.Upload
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, service.Upload{Filename: e.Name(), Data: data})
	}
	sort.Slice(uploads, func(i, j int) bool { return uploads[i].Filename < uploads[j].Filename })
	return uploads, nil
}

func writeSummary(out io.Writer, results []service.UploadResult) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"File", "Period", "Layout", "Net pay", "Absent fields"})
	table.SetAutoWrapText(false)

	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
			table.Append([]string{r.Filename, "", "", "", "error: " + r.Error})
			continue
		}
		net := "-"
		if r.Record.NetPay != nil {
			net = fmt.Sprintf("%.2f", *r.Record.NetPay)
		}
		table.Append([]string{
			r.Filename,
			r.Period,
			r.Record.Format.String(),
			net,
			strings.Join(r.Record.MissingFields(), ", "),
		})
	}
	table.SetFooter([]string{"", "", "", "", fmt.Sprintf("%d parsed, %d failed", len(results)-failed, failed)})
	table.Render()
}
