package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wisenergy/go-report/pkg/report"
	"github.com/wisenergy/go-report/pkg/report/server"
	"github.com/wisenergy/go-report/pkg/report/source"
)

const version = "0.1.0"

func usage() {
	fmt.Println("go-report - analytics report exports (PDF/DOCX)")
	fmt.Println("\nUsage: report <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  export -format pdf|docx [-input file] [-out dir]   Export a report")
	fmt.Println("  serve [-addr :8080] [-origin url]                  Serve exports over HTTP")
	fmt.Println("  version                                            Show version information")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error loading .env: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch command := os.Args[1]; command {
	case "version":
		fmt.Printf("go-report version %s\n", version)
	case "export":
		err = runExport(ctx, os.Args[2:])
	case "serve":
		err = runServe(ctx, os.Args[2:])
	default:
		fmt.Printf("Unknown command: %s\n", command)
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(file string) (*report.Config, error) {
	cfg, err := report.LoadConfig(file)
	if err != nil {
		return nil, err
	}
	report.SetGlobalConfig(cfg)
	return cfg, nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	format := fs.String("format", "pdf", "Export format: pdf or docx")
	input := fs.String("input", "", "JSON or YAML RecordSet file (default: fetch from the dashboard API)")
	out := fs.String("out", "", "Output directory (default: REPORT_OUTPUT_DIR)")
	configFile := fs.String("config", "", "Optional config file")
	fs.Parse(args)

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return err
	}
	if *out == "" {
		*out = cfg.OutputDir
	}

	rs, err := readRecords(ctx, cfg, *input)
	if err != nil {
		return err
	}

	metrics, err := report.NewMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	exporter := report.NewExporterFromConfig(cfg, report.WithMetrics(metrics))
	saver := report.DirSaver{Dir: *out}

	session := report.NewSession(exporter, saver, report.Hooks{
		Alert: func(msg string) { fmt.Fprintln(os.Stderr, msg) },
	})

	artifact, err := session.Run(ctx, *format, rs)
	if err != nil {
		return err
	}
	fmt.Println(saver.Path(artifact))
	return nil
}

func readRecords(ctx context.Context, cfg *report.Config, input string) (*report.RecordSet, error) {
	if input != "" {
		data, err := os.ReadFile(input)
		if err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
		rs, err := report.ParseRecordSet(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", input, err)
		}
		return rs, nil
	}

	client, err := source.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return client.FetchRecordSet(ctx)
}

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", "", "Listen address (default: REPORT_HTTP_ADDR)")
	origin := fs.String("origin", "", "Dashboard origin allowed by CORS")
	configFile := fs.String("config", "", "Optional config file")
	fs.Parse(args)

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return err
	}
	if *addr == "" {
		*addr = cfg.HTTPAddr
	}

	metrics, err := report.NewMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	client, err := source.NewFromConfig(cfg)
	if err != nil {
		return err
	}

	srv := server.New(
		report.NewExporterFromConfig(cfg, report.WithMetrics(metrics)),
		server.WithRecordSource(client),
		server.WithAssetsDir(cfg.AssetsDir),
		server.WithAllowedOrigin(*origin),
	)
	return srv.ListenAndServe(ctx, *addr)
}
