// Package integration_tests holds end-to-end tests that load graph files
// from disk and execute them through the application, one directory per
// behaviour area.
package integration_tests
