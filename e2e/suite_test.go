//go:build e2e

package e2e

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestE2E(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "crev E2E Suite", Label("e2e"))
}

// Single top-level Describe with Ordered, matching the surrounding corpus's
// convention of one suite walking through the system's scenarios in a
// fixed sequence.
var _ = Describe("crev verification pipeline", Ordered, func() {
	Context("Proof ingestion and trust resolution", ingestionTests)
	Context("Dependency verification", orchestratorTests)
})
