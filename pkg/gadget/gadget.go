package gadget

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Bootloader is the bootloader flavour a volume declares in gadget.yaml.
type Bootloader string

const (
	Grub        Bootloader = "grub"
	UBoot       Bootloader = "u-boot"
	AndroidBoot Bootloader = "android-boot"
	LK          Bootloader = "lk"
)

// Role describes what a structure is used for within the image.
type Role string

const (
	SystemBoot Role = "system-boot"
	SystemData Role = "system-data"
	SystemSeed Role = "system-seed"
	MBR        Role = "mbr"
)

// Filesystem is the filesystem a structure is formatted with. FilesystemNone
// marks raw structures that carry no filesystem at all.
type Filesystem string

const (
	FilesystemNone Filesystem = "none"
	Ext4           Filesystem = "ext4"
	VFat           Filesystem = "vfat"
)

// Structure is a single partition (or raw area) of a volume.
type Structure struct {
	Name            string     `yaml:"name"`
	Type            string     `yaml:"type"`
	Role            Role       `yaml:"role"`
	FilesystemLabel string     `yaml:"filesystem-label"`
	Filesystem      Filesystem `yaml:"filesystem"`
	Size            string     `yaml:"size"`
	Offset          string     `yaml:"offset"`
}

// IsBootCandidate reports whether the structure can be wired up as the boot
// partition: it has the system-boot role, a filesystem label to mount it by,
// and an actual filesystem to mount.
func (s *Structure) IsBootCandidate() bool {
	return s.Role == SystemBoot &&
		s.FilesystemLabel != "" &&
		s.Filesystem != FilesystemNone
}

// Volume is one physical disk image described by the gadget.
type Volume struct {
	Name       string      `yaml:"-"`
	Schema     string      `yaml:"schema"`
	Bootloader Bootloader  `yaml:"bootloader"`
	ID         string      `yaml:"id"`
	Structures []Structure `yaml:"structure"`
}

// Layout is the parsed device layout of a gadget.yaml. Volumes keep the order
// they have in the document, which matters to anything scanning them.
type Layout struct {
	Volumes []Volume
}

func (l *Layout) UnmarshalYAML(value *yaml.Node) error {
	var doc struct {
		Volumes yaml.Node `yaml:"volumes"`
	}
	if err := value.Decode(&doc); err != nil {
		return err
	}
	if doc.Volumes.IsZero() {
		return errors.New("gadget: no volumes defined")
	}
	if doc.Volumes.Kind != yaml.MappingNode {
		return errors.New("gadget: volumes must be a mapping")
	}
	// A yaml mapping node interleaves keys and values in document order
	for i := 0; i < len(doc.Volumes.Content); i += 2 {
		var v Volume
		if err := doc.Volumes.Content[i+1].Decode(&v); err != nil {
			return fmt.Errorf("gadget: decoding volume %q: %w", doc.Volumes.Content[i].Value, err)
		}
		v.Name = doc.Volumes.Content[i].Value
		for j := range v.Structures {
			if v.Structures[j].Filesystem == "" {
				v.Structures[j].Filesystem = FilesystemNone
			}
		}
		l.Volumes = append(l.Volumes, v)
	}
	return nil
}

// Parse decodes a gadget.yaml document into a Layout.
func Parse(data []byte) (*Layout, error) {
	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// Load reads a Layout from disk. The path may be the gadget.yaml itself or a
// gadget tree, in which case the file is expected at meta/gadget.yaml as laid
// out by snapcraft prime.
func Load(path string) (*Layout, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		path = filepath.Join(path, "meta", "gadget.yaml")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}
