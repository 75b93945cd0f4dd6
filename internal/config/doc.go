// Package config resolves the harness configuration once, at process start.
//
// # Configuration Precedence
//
// Values are resolved in the following order (highest to lowest priority):
//
//  1. Process environment variables
//  2. A .env file in the working directory (read, never exported)
//  3. YAML config file (.pkltask.yaml in the working directory or
//     ~/.config/pkltask/.pkltask.yaml)
//  4. Hardcoded defaults
//
// The resolved Config is threaded explicitly into the harness; nothing in
// pkltask reads these variables again mid-scenario.
//
// # Environment Variables
//
//   - RuntimeSuffix: runtime identifier for build/publish (win-x64, linux-x64, osx-x64).
//     Required for any orchestrator build or publish.
//   - PACKAGE_VERSION: package version passed as /p:PackageVersion (default 1.0.0-test)
//   - BINARY_VERSION: interpreter binary version for the CLI package (default 0.29.1)
//   - BUILD_PACKAGES: "true" enables the one-time local package build step
//   - PKLTASK_ORCHESTRATOR, PKLTASK_INTERPRETER: executables to run
//   - PKLTASK_EXAMPLES_DIR: directory holding the fixture projects
//   - PKLTASK_SOURCE_ROOT: directory holding the package projects built by setup
//   - PKLTASK_LOG_LEVEL, PKLTASK_LOG_FORMAT: logrus level and text|json
//   - PKLTASK_DEBUG: any non-empty value forces debug logging
package config
