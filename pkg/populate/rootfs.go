package populate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	cnst "github.com/RudraSwat/ubuntu-image/internal/constants"
	internalUtils "github.com/RudraSwat/ubuntu-image/internal/utils"
	"github.com/kairos-io/kairos-sdk/utils"
)

// populateRootfs fills the destination rootfs from its configured source.
// With a pre-built filesystem the contents are copied in; with a generated
// chroot the top-level entries are relocated, leaving the source empty.
func (s *State) populateRootfs() error {
	switch {
	case s.FilesystemSrc != "":
		// cp -a keeps ownership, permissions and special files, which the
		// booted system depends on. Faster than walking the tree ourselves.
		out, err := utils.SH(fmt.Sprintf("cp -a %s/. %s", s.FilesystemSrc, s.Rootdir))
		if err != nil {
			internalUtils.Log.Err(err).Str("output", out).Str("what", s.FilesystemSrc).Str("where", s.Rootdir).Msg("Copying prebuilt filesystem")
			return err
		}
	case s.ChrootSrc != "":
		entries, err := os.ReadDir(s.ChrootSrc)
		if err != nil {
			internalUtils.Log.Err(err).Str("what", s.ChrootSrc).Msg("Reading chroot dir")
			return err
		}
		for _, entry := range entries {
			src := filepath.Join(s.ChrootSrc, entry.Name())
			dst := filepath.Join(s.Rootdir, entry.Name())
			if err := os.Rename(src, dst); err != nil {
				internalUtils.Log.Err(err).Str("what", src).Str("where", dst).Msg("Relocating chroot entry")
				return err
			}
		}
	default:
		return errors.New("no rootfs source configured")
	}
	internalUtils.Log.Logger.Debug().Str("where", s.Rootdir).Msg("Rootfs populated")
	return nil
}

// cleanBootloader empties boot/grub so the bootloader bits shipped with the
// gadget tree can land there without the stock payload in the way. The
// directory itself stays.
func (s *State) cleanBootloader() error {
	grubDir := s.path(cnst.GrubDir)
	entries, err := os.ReadDir(grubDir)
	if os.IsNotExist(err) {
		internalUtils.Log.Logger.Debug().Str("path", grubDir).Msg("No grub dir in the rootfs, nothing to clean")
		return nil
	}
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(grubDir, entry.Name())); err != nil {
			internalUtils.Log.Err(err).Str("what", entry.Name()).Msg("Removing stock bootloader entry")
			return err
		}
	}
	return nil
}
