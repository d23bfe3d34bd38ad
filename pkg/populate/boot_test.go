package populate_test

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/RudraSwat/ubuntu-image/pkg/gadget"
	"github.com/RudraSwat/ubuntu-image/pkg/populate"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spectrocloud-labs/herd"
)

func bootStructure(label string, fs gadget.Filesystem) gadget.Structure {
	return gadget.Structure{
		Name:            label,
		Role:            gadget.SystemBoot,
		FilesystemLabel: label,
		Filesystem:      fs,
	}
}

var _ = Describe("FindBootPartition", func() {
	It("returns nothing for a nil layout", func() {
		part, vol := populate.FindBootPartition(nil)
		Expect(part).To(BeNil())
		Expect(vol).To(BeNil())
	})

	It("returns nothing when no structure qualifies", func() {
		layout := &gadget.Layout{Volumes: []gadget.Volume{
			{Name: "pc", Bootloader: gadget.Grub, Structures: []gadget.Structure{
				{Role: gadget.MBR, Filesystem: gadget.FilesystemNone},
				{Role: gadget.SystemBoot, FilesystemLabel: "", Filesystem: gadget.VFat},
				{Role: gadget.SystemBoot, FilesystemLabel: "raw-boot", Filesystem: gadget.FilesystemNone},
			}},
		}}
		part, vol := populate.FindBootPartition(layout)
		Expect(part).To(BeNil())
		Expect(vol).To(BeNil())
	})

	It("takes the first candidate within a volume", func() {
		layout := &gadget.Layout{Volumes: []gadget.Volume{
			{Name: "pi", Bootloader: gadget.UBoot, Structures: []gadget.Structure{
				bootStructure("first-boot", gadget.VFat),
				bootStructure("second-boot", gadget.VFat),
			}},
		}}
		part, vol := populate.FindBootPartition(layout)
		Expect(part).ToNot(BeNil())
		Expect(part.FilesystemLabel).To(Equal("first-boot"))
		Expect(vol.Name).To(Equal("pi"))
	})

	It("lets a later volume's candidate replace an earlier one", func() {
		layout := &gadget.Layout{Volumes: []gadget.Volume{
			{Name: "one", Bootloader: gadget.Grub, Structures: []gadget.Structure{
				bootStructure("early-boot", gadget.VFat),
			}},
			{Name: "two", Bootloader: gadget.UBoot, Structures: []gadget.Structure{
				bootStructure("late-boot", gadget.VFat),
			}},
		}}
		part, vol := populate.FindBootPartition(layout)
		Expect(part.FilesystemLabel).To(Equal("late-boot"))
		Expect(vol.Name).To(Equal("two"))
	})
})

var _ = Describe("boot mount configuration", func() {
	var rootDir string
	var fstabPath string
	var g *herd.Graph

	singleVolume := func(bootloader gadget.Bootloader) *gadget.Layout {
		return &gadget.Layout{Volumes: []gadget.Volume{
			{Name: "pc", Bootloader: bootloader, Structures: []gadget.Structure{
				bootStructure("system-boot", gadget.VFat),
			}},
		}}
	}

	BeforeEach(func() {
		var err error
		rootDir, err = os.MkdirTemp("", "rootfs")
		Expect(err).ToNot(HaveOccurred())
		Expect(os.MkdirAll(filepath.Join(rootDir, "etc"), os.ModePerm)).To(Succeed())
		fstabPath = filepath.Join(rootDir, "etc", "fstab")
		g = herd.DAG()
	})
	AfterEach(func() {
		os.RemoveAll(rootDir)
	})

	It("appends the boot entry and links boot/grub for grub volumes", func() {
		Expect(os.WriteFile(fstabPath, []byte("UUID=1234 / ext4 defaults 0 1\n"), 0644)).To(Succeed())
		s := &populate.State{Rootdir: rootDir, Gadget: singleVolume(gadget.Grub)}
		Expect(s.ConfigureFstabDagStep(g)).To(Succeed())
		runStep(g)

		content, err := os.ReadFile(fstabPath)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(content)).To(Equal(
			"UUID=1234 / ext4 defaults 0 1\n" +
				"LABEL=writable   /   ext4   defaults    0 0\n" +
				"LABEL=system-boot   /boot/system-boot    vfat    defaults    0 1\n"))

		info, err := os.Stat(filepath.Join(rootDir, "boot", "system-boot"))
		Expect(err).ToNot(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())

		target, err := os.Readlink(filepath.Join(rootDir, "boot", "grub"))
		Expect(err).ToNot(HaveOccurred())
		Expect(target).To(Equal("/boot/system-boot"))
	})

	It("links boot/firmware for u-boot volumes", func() {
		Expect(os.WriteFile(fstabPath, []byte("UUID=1234 / ext4 defaults 0 1\n"), 0644)).To(Succeed())
		s := &populate.State{Rootdir: rootDir, Gadget: singleVolume(gadget.UBoot)}
		Expect(s.ConfigureFstabDagStep(g)).To(Succeed())
		runStep(g)

		target, err := os.Readlink(filepath.Join(rootDir, "boot", "firmware"))
		Expect(err).ToNot(HaveOccurred())
		Expect(target).To(Equal("/boot/system-boot"))
		_, err = os.Lstat(filepath.Join(rootDir, "boot", "grub"))
		Expect(os.IsNotExist(err)).To(BeTrue())
	})

	It("creates no symlink for other bootloaders", func() {
		Expect(os.WriteFile(fstabPath, []byte("UUID=1234 / ext4 defaults 0 1\n"), 0644)).To(Succeed())
		s := &populate.State{Rootdir: rootDir, Gadget: singleVolume(gadget.AndroidBoot)}
		Expect(s.ConfigureFstabDagStep(g)).To(Succeed())
		runStep(g)

		content, err := os.ReadFile(fstabPath)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(content)).To(ContainSubstring("LABEL=system-boot   /boot/system-boot"))
		_, err = os.Lstat(filepath.Join(rootDir, "boot", "grub"))
		Expect(os.IsNotExist(err)).To(BeTrue())
		_, err = os.Lstat(filepath.Join(rootDir, "boot", "firmware"))
		Expect(os.IsNotExist(err)).To(BeTrue())
	})

	It("replaces an existing boot/grub directory with the symlink", func() {
		Expect(os.WriteFile(fstabPath, []byte("UUID=1234 / ext4 defaults 0 1\n"), 0644)).To(Succeed())
		grubDir := filepath.Join(rootDir, "boot", "grub")
		Expect(os.MkdirAll(grubDir, os.ModePerm)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(grubDir, "grub.cfg"), []byte("menuentry"), 0644)).To(Succeed())

		s := &populate.State{Rootdir: rootDir, Gadget: singleVolume(gadget.Grub)}
		Expect(s.ConfigureFstabDagStep(g)).To(Succeed())
		runStep(g)

		target, err := os.Readlink(grubDir)
		Expect(err).ToNot(HaveOccurred())
		Expect(target).To(Equal("/boot/system-boot"))
	})

	It("replaces an existing boot/grub file with the symlink", func() {
		Expect(os.WriteFile(fstabPath, []byte("UUID=1234 / ext4 defaults 0 1\n"), 0644)).To(Succeed())
		Expect(os.MkdirAll(filepath.Join(rootDir, "boot"), os.ModePerm)).To(Succeed())
		grubDir := filepath.Join(rootDir, "boot", "grub")
		Expect(os.WriteFile(grubDir, []byte("not a dir"), 0644)).To(Succeed())

		s := &populate.State{Rootdir: rootDir, Gadget: singleVolume(gadget.Grub)}
		Expect(s.ConfigureFstabDagStep(g)).To(Succeed())
		runStep(g)

		target, err := os.Readlink(grubDir)
		Expect(err).ToNot(HaveOccurred())
		Expect(target).To(Equal("/boot/system-boot"))
	})

	It("skips everything when the label is already in fstab", func() {
		original := "LABEL=writable / ext4 defaults 0 0\nLABEL=system-boot /boot/firmware vfat defaults 0 1\n"
		Expect(os.WriteFile(fstabPath, []byte(original), 0644)).To(Succeed())
		before := listTree(rootDir)

		s := &populate.State{Rootdir: rootDir, Gadget: singleVolume(gadget.Grub)}
		Expect(s.ConfigureFstabDagStep(g)).To(Succeed())
		runStep(g)

		content, err := os.ReadFile(fstabPath)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(content)).To(Equal(original))
		Expect(listTree(rootDir)).To(Equal(before))
	})
})

// listTree returns every path under dir, sorted, for before/after comparisons.
func listTree(dir string) []string {
	var paths []string
	_ = filepath.Walk(dir, func(path string, _ os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		paths = append(paths, path)
		return nil
	})
	sort.Strings(paths)
	return paths
}
