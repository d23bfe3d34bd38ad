package populate

import (
	"fmt"
	"os"

	cnst "github.com/RudraSwat/ubuntu-image/internal/constants"
	internalUtils "github.com/RudraSwat/ubuntu-image/internal/utils"
	"github.com/RudraSwat/ubuntu-image/pkg/gadget"
)

// FindBootPartition scans the gadget for the structure to mount on
// /boot/system-boot, returning it with its owning volume, or nils when the
// gadget declares none. Volumes are scanned in layout order and the first
// candidate within a volume wins, but a candidate in a later volume replaces
// one found earlier. That is the behaviour images have been built with all
// along, so it stays.
func FindBootPartition(l *gadget.Layout) (*gadget.Structure, *gadget.Volume) {
	var part *gadget.Structure
	var vol *gadget.Volume
	if l == nil {
		return nil, nil
	}
	for i := range l.Volumes {
		v := &l.Volumes[i]
		for j := range v.Structures {
			if v.Structures[j].IsBootCandidate() {
				part = &v.Structures[j]
				vol = v
				break
			}
		}
	}
	return part, vol
}

// configureBootMount resolves the boot partition and returns the fstab line
// to append for it, after creating its mountpoint and the bootloader symlink.
// If the partition label is already present in the fstab text the rootfs
// build mounted it on its own terms, and nothing is touched.
func (s *State) configureBootMount(fstabContents string) (string, error) {
	part, vol := FindBootPartition(s.Gadget)
	if part == nil {
		internalUtils.Log.Logger.Debug().Msg("No boot partition in the gadget, skipping boot mount")
		return "", nil
	}

	if HasLabel(fstabContents, part.FilesystemLabel) {
		internalUtils.Log.Logger.Debug().Str("label", part.FilesystemLabel).Msg("Boot partition already in fstab, skipping")
		return "", nil
	}

	if err := os.MkdirAll(s.path(cnst.BootMountDir), os.ModePerm); err != nil {
		return "", err
	}

	addition := fmt.Sprintf("LABEL=%s   %s    %s    defaults    0 1\n",
		part.FilesystemLabel, cnst.BootMountPoint, part.Filesystem)

	if err := s.bootloaderSymlink(vol.Bootloader); err != nil {
		return "", err
	}

	internalUtils.Log.Logger.Debug().Str("label", part.FilesystemLabel).Str("volume", vol.Name).Msg("Boot partition configured")
	return addition, nil
}

// bootloaderSymlink points the bootloader's expected directory at the boot
// partition mountpoint. Grub reads /boot/grub, u-boot firmware lands in
// /boot/firmware; anything else manages its own paths.
func (s *State) bootloaderSymlink(bootloader gadget.Bootloader) error {
	var dir string
	switch bootloader {
	case gadget.Grub:
		dir = s.path(cnst.GrubDir)
	case gadget.UBoot:
		dir = s.path(cnst.FirmwareDir)
	default:
		return nil
	}

	if info, err := os.Lstat(dir); err == nil {
		if info.IsDir() {
			if err := os.RemoveAll(dir); err != nil {
				internalUtils.Log.Err(err).Str("what", dir).Msg("Removing dir in the symlink way")
				return err
			}
		} else if err := os.Remove(dir); err != nil {
			internalUtils.Log.Err(err).Str("what", dir).Msg("Removing file in the symlink way")
			return err
		}
	}

	return os.Symlink(cnst.BootMountPoint, dir)
}
