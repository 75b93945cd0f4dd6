package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"golang.org/x/term"

	"github.com/dkoosis/pkltask/internal/harness"
	"github.com/dkoosis/pkltask/pkg/pattern"
	"github.com/dkoosis/pkltask/pkg/render"
)

func runE2E(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("e2e", stderr)
	manifestPath := fs.StringP("manifest", "m", "", "scenario manifest (default: built-in fixture scenarios)")
	formatFlag := fs.String("format", "auto", "report format: auto, terminal, plain, json")
	themeFlag := fs.String("theme", "default", "theme: default, mono")
	setupRoot := fs.String("setup-root", "", "directory holding the package projects built by setup")
	parallel := fs.IntP("parallel", "p", 0, "scenarios to run at once (default from config)")
	configFile := fs.String("config", "", "config file (default .pkltask.yaml)")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	mode := resolveFormat(*formatFlag, stdout)
	if mode != "terminal" && mode != "plain" && mode != "json" {
		fmt.Fprintf(stderr, "pkltask e2e: unknown format %q (expected auto, terminal, plain, json)\n", *formatFlag)
		return exitUsage
	}

	cfg, log, err := loadConfig(*configFile, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "pkltask e2e: %v\n", err)
		return exitUsage
	}
	if *parallel > 0 {
		cfg.Parallelism = *parallel
	}

	manifest := harness.DefaultManifest()
	if *manifestPath != "" {
		if manifest, err = harness.LoadManifestFile(*manifestPath); err != nil {
			fmt.Fprintf(stderr, "pkltask e2e: %v\n", err)
			return exitUsage
		}
	}
	scenarios, err := manifest.Select(fs.Args()...)
	if err != nil {
		fmt.Fprintf(stderr, "pkltask e2e: %v\n", err)
		return exitUsage
	}

	if _, err := cfg.RequireRuntimeSuffix(); err != nil {
		fmt.Fprintf(stderr, "pkltask e2e: %v\n", err)
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	setup, err := harness.Setup(ctx, cfg, harness.SetupOptions{SourceRoot: *setupRoot, Log: log})
	if err != nil {
		fmt.Fprint(stdout, selectRenderer(mode, *themeFlag, stdout).Render(harness.Report(nil, setup)))
		fmt.Fprintf(stderr, "pkltask e2e: setup: %v\n", err)
		return exitFailure
	}

	results, err := harness.Run(ctx, cfg, scenarios, harness.RunOptions{Log: log})
	if err != nil {
		fmt.Fprintf(stderr, "pkltask e2e: %v\n", err)
		return exitUsage
	}

	patterns := harness.Report(results, setup)
	fmt.Fprint(stdout, selectRenderer(mode, *themeFlag, stdout).Render(patterns))
	return exitCode(patterns)
}

// isTTYWriter reports whether w is a terminal.
func isTTYWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// resolveFormat maps "auto" to terminal for a TTY and plain otherwise.
func resolveFormat(format string, w io.Writer) string {
	if format != "auto" {
		return format
	}
	if isTTYWriter(w) {
		return "terminal"
	}
	return "plain"
}

func selectRenderer(mode, themeName string, w io.Writer) render.Renderer {
	theme := render.ThemeByName(themeName)
	if os.Getenv("NO_COLOR") != "" {
		theme = render.MonoTheme()
	}
	width := 80
	if f, ok := w.(*os.File); ok {
		if tw, _, err := term.GetSize(int(f.Fd())); err == nil && tw > 0 {
			width = tw
		}
	}
	if r := render.ByName(mode, theme, width); r != nil {
		return r
	}
	return render.NewPlain()
}

// exitCode returns 1 when any table holds a failed item.
func exitCode(patterns []pattern.Pattern) int {
	for _, p := range patterns {
		if t, ok := p.(*pattern.TestTable); ok {
			for _, r := range t.Results {
				if r.Status == pattern.StatusFail {
					return exitFailure
				}
			}
		}
	}
	return exitOK
}
