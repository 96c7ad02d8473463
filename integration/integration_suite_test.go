// Package integration contains end-to-end integration tests for Vigil.
// These tests wire the full memory-mode stack and drive it through the
// HTTP API, from rule registration to alert resolution.
package integration

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestIntegration(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Vigil Integration Suite")
}
