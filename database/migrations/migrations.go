// Package migrations holds nearcart's schema. Each migration registers
// itself from init(); the CLI and the test fixtures import this package for
// that side effect.
package migrations
