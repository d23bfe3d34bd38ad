package populate_test

import (
	"os"
	"path/filepath"

	"github.com/RudraSwat/ubuntu-image/pkg/populate"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spectrocloud-labs/herd"
)

var _ = Describe("cloud-init seeding", func() {
	var rootDir, seedFile string
	var g *herd.Graph

	BeforeEach(func() {
		var err error
		rootDir, err = os.MkdirTemp("", "rootfs")
		Expect(err).ToNot(HaveOccurred())
		userData, err := os.CreateTemp("", "user-data")
		Expect(err).ToNot(HaveOccurred())
		_, err = userData.WriteString("#cloud-config\nhostname: classic\n")
		Expect(err).ToNot(HaveOccurred())
		Expect(userData.Close()).To(Succeed())
		seedFile = userData.Name()
		g = herd.DAG()
	})
	AfterEach(func() {
		os.RemoveAll(rootDir)
		os.Remove(seedFile)
	})

	It("writes the nocloud-net seed", func() {
		s := &populate.State{Rootdir: rootDir, CloudInitSeed: seedFile}
		Expect(s.CloudInitSeedDagStep(g)).To(Succeed())
		runStep(g)

		seedDir := filepath.Join(rootDir, "var", "lib", "cloud", "seed", "nocloud-net")
		metaData, err := os.ReadFile(filepath.Join(seedDir, "meta-data"))
		Expect(err).ToNot(HaveOccurred())
		Expect(string(metaData)).To(Equal("instance-id: nocloud-static\n"))

		userData, err := os.ReadFile(filepath.Join(seedDir, "user-data"))
		Expect(err).ToNot(HaveOccurred())
		Expect(string(userData)).To(Equal("#cloud-config\nhostname: classic\n"))
	})

	It("does nothing when no seed is configured", func() {
		s := &populate.State{Rootdir: rootDir}
		Expect(s.CloudInitSeedDagStep(g)).To(Succeed())
		runStep(g)

		_, err := os.Stat(filepath.Join(rootDir, "var"))
		Expect(os.IsNotExist(err)).To(BeTrue())
	})
})
