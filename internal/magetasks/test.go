package magetasks

import (
	"errors"
	"os"

	"github.com/dkoosis/pkltask/internal/config"
)

// TestAll runs the unit tests.
func TestAll() error {
	PrintH2Header("Tests")
	return Run("go test", "go", "test", "./...")
}

// TestCoverage runs the unit tests with coverage and prints the summary.
func TestCoverage() error {
	PrintH2Header("Test Coverage")
	if err := Run("go test -cover", "go", "test", "-coverprofile=coverage.out", "./..."); err != nil {
		return err
	}
	return Run("coverage report", "go", "tool", "cover", "-func=coverage.out")
}

// TestRace runs the unit tests with the race detector.
func TestRace() error {
	PrintH2Header("Race Detector")
	return Run("go test -race", "go", "test", "-race", "./...")
}

// ErrNoRuntimeSuffix is returned by TestE2E when RuntimeSuffix is unset.
var ErrNoRuntimeSuffix = errors.New("RuntimeSuffix is not set")

// TestE2E runs the end-to-end scenarios against the real toolchain.
func TestE2E() error {
	PrintH2Header("End-to-end")
	if os.Getenv(config.RuntimeSuffixVar) == "" {
		PrintWarning("set RuntimeSuffix (e.g. linux-x64) to run the end-to-end scenarios")
		return ErrNoRuntimeSuffix
	}
	return Run("go test ./e2e", "go", "test", "-count=1", "-timeout=15m", "./"+E2EDir+"/...")
}
