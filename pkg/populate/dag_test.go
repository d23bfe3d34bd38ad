package populate_test

import (
	"os"

	"github.com/RudraSwat/ubuntu-image/pkg/populate"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spectrocloud-labs/herd"
)

var _ = Describe("population dag", func() {
	var g *herd.Graph
	var rootDir string

	BeforeEach(func() {
		var err error
		rootDir, err = os.MkdirTemp("", "rootfs")
		Expect(err).ToNot(HaveOccurred())
		g = herd.DAG()
	})
	AfterEach(func() {
		os.RemoveAll(rootDir)
	})

	It("chains the population steps in order", func() {
		s := &populate.State{Rootdir: rootDir, FilesystemSrc: "/some/prebuilt"}
		Expect(s.Register(g)).To(Succeed())

		dag := g.Analyze()
		Expect(len(dag)).To(Equal(5), s.WriteDAG(g))
		for _, layer := range dag {
			Expect(len(layer)).To(Equal(1), s.WriteDAG(g))
		}
		Expect(dag[0][0].Name).To(Equal("populate-rootfs"), s.WriteDAG(g))
		Expect(dag[1][0].Name).To(Equal("clean-bootloader"), s.WriteDAG(g))
		Expect(dag[2][0].Name).To(Equal("configure-fstab"), s.WriteDAG(g))
		Expect(dag[3][0].Name).To(Equal("cloud-init-seed"), s.WriteDAG(g))
		Expect(dag[4][0].Name).To(Equal("customize-hook"), s.WriteDAG(g))
	})

	It("registers the manifest phase on its own", func() {
		s := &populate.State{Rootdir: rootDir, OutputDir: rootDir}
		Expect(s.RegisterManifest(g)).To(Succeed())

		dag := g.Analyze()
		Expect(len(dag)).To(Equal(1), s.WriteDAG(g))
		Expect(dag[0][0].Name).To(Equal("generate-manifest"), s.WriteDAG(g))
	})
})
