package populate

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	cnst "github.com/RudraSwat/ubuntu-image/internal/constants"
	internalUtils "github.com/RudraSwat/ubuntu-image/internal/utils"
	"github.com/deniswernert/go-fstab"
)

var labelToken = regexp.MustCompile(`LABEL=\S+`)

// configureFstab rewrites the root entry of etc/fstab to the canonical label
// and appends the boot partition mount if the gadget declares one. Images
// without an fstab (some rootfs builds ship none) are left alone.
func (s *State) configureFstab() error {
	fstabFile := s.path("/etc/fstab")
	content, err := os.ReadFile(fstabFile)
	if os.IsNotExist(err) {
		internalUtils.Log.Logger.Debug().Str("path", fstabFile).Msg("No fstab in the rootfs, nothing to configure")
		return nil
	}
	if err != nil {
		return err
	}

	// Whatever addressing scheme the rootfs build used for root (UUID,
	// device path, another label), grub.cfg boots by the canonical label,
	// so the fstab has to agree with it.
	text := rewriteRootLabel(string(content))
	if !HasLabel(text, cnst.RootfsLabel) {
		text += fmt.Sprintf("LABEL=%s   /   %s   defaults    0 0\n", cnst.RootfsLabel, cnst.LinuxFs)
	}

	addition, err := s.configureBootMount(text)
	if err != nil {
		return err
	}
	text += addition

	if err := os.WriteFile(fstabFile, []byte(text), 0644); err != nil {
		internalUtils.Log.Err(err).Str("path", fstabFile).Msg("Writing fstab")
		return err
	}

	for _, m := range parseMounts(text) {
		internalUtils.Log.Logger.Debug().Str("entry", m.String()).Msg("fstab entry")
	}
	return nil
}

// rewriteRootLabel swaps the value of the first LABEL= token for the
// canonical root label. Single substitution, the rest of the text is
// untouched.
func rewriteRootLabel(content string) string {
	loc := labelToken.FindStringIndex(content)
	if loc == nil {
		return content
	}
	return content[:loc[0]] + "LABEL=" + cnst.RootfsLabel + content[loc[1]:]
}

// HasLabel reports whether the fstab text already references the given
// filesystem label. This is a substring check, not a structural parse: if the
// rootfs build mentioned the label anywhere we assume it knew what it was
// doing and keep our hands off.
func HasLabel(content, label string) bool {
	return strings.Contains(content, "LABEL="+label)
}

// parseMounts decodes the fstab text into structured entries, dropping
// comments and anything unparseable.
func parseMounts(content string) fstab.Mounts {
	var mounts fstab.Mounts
	for _, line := range strings.Split(content, "\n") {
		m, err := fstab.ParseLine(line)
		if err != nil || m == nil {
			continue
		}
		mounts = append(mounts, m)
	}
	return mounts
}
