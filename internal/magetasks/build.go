package magetasks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dkoosis/pkltask/internal/config"
	"github.com/dkoosis/pkltask/internal/harness"
	"github.com/dkoosis/pkltask/internal/procexec"
)

// BuildAll builds the pkltask binary with version information linked in.
func BuildAll() error {
	PrintH2Header("Build")

	date := time.Now().UTC().Format(time.RFC3339)
	ldflags := fmt.Sprintf("-s -w -X '%s/internal/version.Version=%s' -X '%s/internal/version.CommitHash=%s' -X '%s/internal/version.BuildDate=%s'",
		ModulePath, gitOutput("dev", "describe", "--tags", "--always", "--dirty", "--match=v*"),
		ModulePath, gitOutput("unknown", "rev-parse", "--short", "HEAD"),
		ModulePath, date)

	if err := Run("go build", "go", "build", "-ldflags", ldflags, "-o", BinPath, "./cmd/pkltask"); err != nil {
		return err
	}
	PrintInfo("Built: " + BinPath)
	return nil
}

// Clean removes build artifacts and resets every example project to its
// checked-in baseline.
func Clean() error {
	PrintH2Header("Clean")

	var errs []error
	for _, p := range []string{"bin", "coverage.out"} {
		if err := os.RemoveAll(p); err != nil {
			errs = append(errs, err)
		}
	}

	examples, err := filepath.Glob(filepath.Join(E2EDir, "examples", "*"))
	if err != nil {
		return err
	}
	for _, dir := range examples {
		if info, statErr := os.Stat(dir); statErr != nil || !info.IsDir() {
			continue
		}
		removed, err := harness.ResetToBaseline(dir, config.DefaultCleanGlobs)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if len(removed) > 0 {
			PrintInfo(fmt.Sprintf("%s: removed %d paths", filepath.Base(dir), len(removed)))
		}
	}
	if err := errors.Join(errs...); err != nil {
		PrintError("Clean incomplete")
		return err
	}
	PrintSuccess("Cleaned build artifacts")
	return nil
}

// Pack builds the local packages consumed by the end-to-end scenarios,
// regardless of BUILD_PACKAGES.
func Pack() error {
	PrintH2Header("Pack")

	cfg, err := config.Load(config.LoadOptions{Dir: E2EDir})
	if err != nil {
		return err
	}
	cfg.BuildPackages = true
	steps, err := harness.Setup(context.Background(), cfg, harness.SetupOptions{})
	for _, s := range steps {
		if s.Skipped {
			PrintInfo(s.Package + " already built")
			continue
		}
		PrintSuccess(s.Package)
	}
	return err
}

func gitOutput(fallback string, args ...string) string {
	result, err := runner.Run(context.Background(), procexec.Command{Name: "git", Args: args})
	if err != nil || result.ExitCode != 0 {
		return fallback
	}
	return strings.TrimSpace(result.Stdout)
}
