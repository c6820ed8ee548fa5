// Command dalivm statically emulates Dalvik bytecode to determine the
// return value of a target method at every call site in a decompiled
// Android application, without running the app.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fatalsec/dalivm/internal/analysis"
	"github.com/fatalsec/dalivm/internal/config"
	"github.com/fatalsec/dalivm/internal/dex"
	glog "github.com/fatalsec/dalivm/internal/log"
	"github.com/fatalsec/dalivm/internal/mock"
	"github.com/fatalsec/dalivm/internal/server"
	"github.com/fatalsec/dalivm/internal/trace"
	"github.com/fatalsec/dalivm/internal/tui"
	"github.com/fatalsec/dalivm/internal/ui/colorize"
	"github.com/fatalsec/dalivm/internal/wire"
)

var (
	verbose     bool
	quiet       bool
	configPath  string
	hooksPath   string
	format      string
	callSiteCap int
	stepCap     int
	listenAddr  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dalivm [apk] [LClass;->method]",
		Short: "Determine a Dalvik method's return value at every call site through static emulation",
		Long: `dalivm determines the return value of a target method at every call site in a
decompiled Android application without running the app.

It loads an APK's DEX containers, resolves every caller of the target
method, backward-slices each call site to the arguments the call actually
passes, executes just that slice plus the target method in a register-level
Dalvik interpreter, and reports the resolved return value at each site.

Where the slice leaves an argument unresolved (framework state the
interpreter cannot derive, like a value read from disk or network),
dalivm substitutes a plausible mock rather than giving up on the whole
call site.

Examples:
  dalivm analyze app.apk 'Lcom/example/Crypto;->getKey'
  dalivm analyze app.apk 'Lcom/example/Crypto;->getKey' -v
  dalivm info app.apk`,
		Args:                  cobra.ExactArgs(2),
		DisableFlagsInUseLine: true,
		RunE:                  runAnalyze,
	}

	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose trace of slice execution")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "quiet mode (results only)")
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.Flags().StringVar(&hooksPath, "hooks", "", "path to a JS user-hook script")
	rootCmd.Flags().StringVar(&format, "format", "", "output format: text, json, or protobuf")
	rootCmd.Flags().IntVar(&callSiteCap, "call-site-cap", 0, "stop after this many call sites (0 = no cap)")
	rootCmd.Flags().IntVar(&stepCap, "step-cap", 0, "interpreter step cap per method (0 = config default)")

	analyzeCmd := &cobra.Command{
		Use:                   "analyze <apk> <LClass;->method>",
		Short:                 "Resolve a target method's return value at every call site",
		Args:                  cobra.ExactArgs(2),
		DisableFlagsInUseLine: true,
		RunE:                  runAnalyze,
	}
	analyzeCmd.Flags().AddFlagSet(rootCmd.Flags())
	rootCmd.AddCommand(analyzeCmd)

	infoCmd := &cobra.Command{
		Use:   "info <apk>",
		Short: "Show archive summary: container count, class count, method count",
		Args:  cobra.ExactArgs(1),
		RunE:  runInfo,
	}
	rootCmd.AddCommand(infoCmd)

	serveCmd := &cobra.Command{
		Use:   "serve <apk>",
		Short: "Serve the analyzer over plain HTTP/2 (h2c), exposing POST /analyze",
		Args:  cobra.ExactArgs(1),
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&listenAddr, "addr", ":8787", "listen address")
	serveCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.AddCommand(serveCmd)

	browseCmd := &cobra.Command{
		Use:   "browse <apk>",
		Short: "Analyze the archive's first method and browse its call sites in a terminal UI",
		Args:  cobra.ExactArgs(1),
		RunE:  runBrowse,
	}
	rootCmd.AddCommand(browseCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadArchive(path string) (*dex.Program, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	raw, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", absPath, err)
	}
	prog, err := dex.Load(raw)
	if err != nil {
		return nil, fmt.Errorf("load archive: %w", err)
	}
	return prog, nil
}

func buildContext(cfg *config.Config, prog *dex.Program) (*analysis.Context, error) {
	var hooks *mock.Script
	if cfg.HooksPath != "" {
		h, err := mock.LoadScript(cfg.HooksPath)
		if err != nil {
			return nil, fmt.Errorf("load hooks: %w", err)
		}
		hooks = h
	}
	ctx := analysis.New(prog, cfg.ToMockConfig(), hooks, cfg.StepCap, cfg.ClinitStepCap)
	ctx.CallSiteCap = cfg.CallSiteCap
	ctx.MaxErrorsPerSite = cfg.MaxErrorsPerSite
	ctx.Debug = verbose
	return ctx, nil
}

func resolveConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if hooksPath != "" {
		cfg.HooksPath = hooksPath
	}
	if format != "" {
		cfg.Format = format
	}
	if callSiteCap != 0 {
		cfg.CallSiteCap = callSiteCap
	}
	if stepCap != 0 {
		cfg.StepCap = stepCap
	}
	return cfg, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	glog.Init(verbose)

	cfg, err := resolveConfig()
	if err != nil {
		return err
	}

	prog, err := loadArchive(args[0])
	if err != nil {
		return err
	}

	target, err := analysis.FindTarget(prog, args[1])
	if err != nil {
		return err
	}

	ctx, err := buildContext(cfg, prog)
	if err != nil {
		return err
	}

	if verbose {
		glog.L.SetOnEvent(func(e *trace.Event) {
			fmt.Fprintf(os.Stderr, "%s %s %s\n",
				colorize.Address(uint64(e.PC)), colorize.Tag(e.PrimaryTag()), colorize.Detail(e.Detail))
		})
	}

	result := ctx.Run(target)

	switch cfg.Format {
	case "json":
		data, err := wire.MarshalJSON(result)
		if err != nil {
			return err
		}
		os.Stdout.Write(data)
		os.Stdout.Write([]byte("\n"))
	case "protobuf":
		data := wire.MarshalProtobuf(result)
		os.Stdout.Write(data)
	default:
		if !quiet {
			fmt.Print(colorize.Header(result.Summary()))
		} else {
			fmt.Print(result.Summary())
		}
	}
	return nil
}

func runInfo(cmd *cobra.Command, args []string) error {
	prog, err := loadArchive(args[0])
	if err != nil {
		return err
	}
	methods := prog.AllMethods()
	classes := map[string]bool{}
	for _, m := range methods {
		classes[m.Class] = true
	}
	fmt.Printf("Archive:     %s\n", filepath.Base(args[0]))
	fmt.Printf("Containers:  %d\n", len(prog.Containers))
	fmt.Printf("Classes:     %d\n", len(classes))
	fmt.Printf("Methods:     %d (with bytecode)\n", len(methods))
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	glog.Init(false)
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	prog, err := loadArchive(args[0])
	if err != nil {
		return err
	}
	srv := server.New(prog, cfg)
	return srv.ListenAndServe(listenAddr)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	prog, err := loadArchive(args[0])
	if err != nil {
		return err
	}
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	return tui.Run(prog, cfg)
}
