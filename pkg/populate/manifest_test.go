package populate_test

import (
	"github.com/RudraSwat/ubuntu-image/internal/constants"
	"github.com/RudraSwat/ubuntu-image/pkg/populate"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("manifest filtering", func() {
	It("drops deny-listed lines and keeps the rest in order", func() {
		lines := []string{"foo 1.0", "ubiquity 2.0", "bar 3.0"}
		kept := populate.FilterManifest(lines, []string{"ubiquity", "casper"})
		Expect(kept).To(Equal([]string{"foo 1.0", "bar 3.0"}))
	})

	It("matches substrings, not whole package names", func() {
		lines := []string{
			"ubiquity-frontend-gtk 21.10.9",
			"casper 1.465",
			"libcasper0 1.465",
			"gcc 4:11.2.0-1ubuntu1",
		}
		kept := populate.FilterManifest(lines, constants.ManifestDenyList())
		Expect(kept).To(Equal([]string{"gcc 4:11.2.0-1ubuntu1"}))
	})

	It("matches case-sensitively", func() {
		lines := []string{"Casper 1.0", "casper 1.0"}
		kept := populate.FilterManifest(lines, constants.ManifestDenyList())
		Expect(kept).To(Equal([]string{"Casper 1.0"}))
	})

	It("keeps everything when nothing is denied", func() {
		lines := []string{"foo 1.0", "bar 2.0"}
		Expect(populate.FilterManifest(lines, constants.ManifestDenyList())).To(Equal(lines))
	})
})
