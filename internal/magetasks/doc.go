// Package magetasks implements the mage targets for pkltask: building the
// binary, packing the local packages the end-to-end scenarios consume,
// cleaning generated output, linting and running the test suites.
package magetasks
