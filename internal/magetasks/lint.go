package magetasks

import (
	"errors"
	"fmt"
)

const golangciDisabled = "--disable=exhaustruct,varnamelen,ireturn,wrapcheck,nlreturn,gochecknoglobals,mnd,depguard,tagalign"

// LintAll runs every linter; missing optional linters are skipped.
func LintAll() error {
	var errs []error
	for _, lint := range []func() error{LintFormat, LintVet, LintGolangci} {
		if err := lint(); err != nil && !IsCommandNotFound(err) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LintFormat checks code formatting.
func LintFormat() error {
	return Run("gofmt", "go", "fmt", "./...")
}

// LintVet runs go vet.
func LintVet() error {
	return Run("go vet", "go", "vet", "./...")
}

// LintGolangci runs golangci-lint when installed.
func LintGolangci() error {
	err := Run("golangci-lint", "golangci-lint", "run", golangciDisabled, "--timeout=5m", "./...")
	if IsCommandNotFound(err) {
		PrintWarning("golangci-lint not found (install: go install github.com/golangci/golangci-lint/cmd/golangci-lint@latest)")
	}
	if err != nil {
		return fmt.Errorf("golangci-lint: %w", err)
	}
	return nil
}
