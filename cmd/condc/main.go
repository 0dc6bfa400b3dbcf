package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/uniplat/condc/pkg/inspect"
	mcpserver "github.com/uniplat/condc/pkg/mcp"
	"github.com/uniplat/condc/pkg/mcplog"
	"github.com/uniplat/condc/pkg/transform"
	"github.com/uniplat/condc/pkg/util"
	"github.com/uniplat/condc/pkg/workspace"
)

const version = "0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch command := os.Args[1]; command {
	case "build":
		err = runBuild(os.Args[2:], false)
	case "watch":
		err = runBuild(os.Args[2:], true)
	case "check":
		err = runCheck(os.Args[2:])
	case "serve":
		err = runServe(os.Args[2:])
	case "version":
		fmt.Printf("condc %s\n", version)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "condc: %v\n", err)
		os.Exit(1)
	}
}

// commonFlags are shared by build/watch/check.
type commonFlags struct {
	root     *string
	platform *string
	include  *string
	exclude  *string
	marker   *string
	logLevel *string
	isTest   *bool
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	return &commonFlags{
		root:     fs.String("root", ".", "workspace root directory"),
		platform: fs.String("platform", "", "target platform, e.g. h5, mp-weixin, app-plus"),
		include:  fs.String("include", "", "comma-separated include patterns"),
		exclude:  fs.String("exclude", "", "comma-separated exclude patterns"),
		marker:   fs.String("marker", "", "post-compile comment marker identifier"),
		logLevel: fs.String("log-level", "info", "log level: debug, info, warn, error"),
		isTest:   fs.Bool("test", transform.TestModeFromEnv(), "test mode: keep TEST/VITEST blocks and transform test files"),
	}
}

func runBuild(args []string, watch bool) error {
	name := "build"
	if watch {
		name = "watch"
	}
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	cf := addCommonFlags(fs)
	out := fs.String("out", "", "output directory for the processed tree")
	workers := fs.Int("workers", 0, "worker count (0 = auto)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadProjectConfig()
	if err != nil {
		return fmt.Errorf("load project config: %w", err)
	}
	if cfg == nil {
		cfg = &ProjectConfig{}
	}

	outDir := resolveString(*out, cfg.OutDir, "")
	if outDir == "" {
		return fmt.Errorf("no output directory: pass -out or set out_dir in %s", projectConfigPath)
	}

	logger := util.NewLogger(util.LoggerConfig{
		Level:  util.LogLevel(*cf.logLevel),
		Format: util.FormatText,
		Output: os.Stderr,
	})

	opts := workspace.Options{
		Platform: resolveString(*cf.platform, cfg.Platform, "h5"),
		Include:  resolveList(splitList(*cf.include), cfg.Include),
		Exclude:  resolveList(splitList(*cf.exclude), cfg.Exclude),
		Marker:   resolveString(*cf.marker, cfg.Marker, ""),
		OutDir:   outDir,
		IsTest:   *cf.isTest,
		Workers:  *workers,
	}

	proc := workspace.NewProcessor(opts, logger)
	defer proc.Close()

	stats, err := proc.Run(*cf.root, nil)
	if err != nil {
		return err
	}
	fmt.Printf("condc: %d files (%d transformed, %d unchanged, %d failed) for %s in %dms\n",
		stats.FilesDiscovered, stats.FilesTransformed, stats.FilesUnchanged,
		stats.FilesFailed, opts.Platform, stats.TotalTimeMs)

	if !watch {
		if stats.FilesFailed > 0 {
			return fmt.Errorf("%d files failed", stats.FilesFailed)
		}
		return nil
	}

	w, err := workspace.NewWatcher(proc, opts, logger)
	if err != nil {
		return err
	}
	if err := w.Start(*cf.root); err != nil {
		return err
	}
	defer w.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	return nil
}

func runCheck(args []string) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	cf := addCommonFlags(fs)
	asJSON := fs.Bool("json", false, "emit the full inventory as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadProjectConfig()
	if err != nil {
		return fmt.Errorf("load project config: %w", err)
	}
	if cfg == nil {
		cfg = &ProjectConfig{}
	}
	marker := resolveString(*cf.marker, cfg.Marker, "")

	inv, err := inspect.ScanTree(*cf.root, nil, marker)
	if err != nil {
		return err
	}
	qs := inspect.NewQueryService(inv)

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(inv)
	}

	s := qs.Summarize()
	fmt.Printf("condc: %d directive blocks across %d files\n", s.Directives, s.Files)
	if len(s.Platforms) > 0 {
		fmt.Printf("  platforms: %s\n", strings.Join(s.Platforms, ", "))
	}
	if len(s.Unknown) > 0 {
		fmt.Printf("  unknown platform tokens: %s\n", strings.Join(s.Unknown, ", "))
	}
	for _, r := range qs.Nested() {
		fmt.Printf("  warning: nested directive at %s:%d (%s %s) truncates at the inner #endif\n",
			r.File, r.Line, r.Kind, r.Expression)
	}

	if platform := resolveString(*cf.platform, cfg.Platform, ""); platform != "" {
		kept := qs.Survivors(platform, *cf.isTest)
		fmt.Printf("  %s keeps %d of %d blocks\n", platform, len(kept), s.Directives)
	}
	return nil
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	platform := fs.String("platform", "", "default target platform for tool calls")
	marker := fs.String("marker", "", "post-compile comment marker identifier")
	logPath := fs.String("log", "", "JSONL tool-call log file (empty = disabled)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadProjectConfig()
	if err != nil {
		return fmt.Errorf("load project config: %w", err)
	}
	if cfg == nil {
		cfg = &ProjectConfig{}
	}

	opts := transform.DefaultOptions()
	opts.Platform = resolveString(*platform, cfg.Platform, opts.Platform)
	opts.Marker = resolveString(*marker, cfg.Marker, opts.Marker)

	logger, err := mcplog.NewLogger(*logPath)
	if err != nil {
		return err
	}
	if logger != nil {
		defer logger.Close()
	}

	return mcpserver.NewServer(opts, logger).ServeStdio()
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func printUsage() {
	fmt.Println("Usage: condc <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  build      Process a workspace for a target platform")
	fmt.Println("  watch      Build, then rebuild changed files incrementally")
	fmt.Println("  check      Inventory directive blocks and report problems")
	fmt.Println("  serve      Start the MCP server on stdio")
	fmt.Println("  version    Print version")
	fmt.Println("  help       Show this help message")
}
