package populate

import (
	"os"
	"path/filepath"
	"strings"

	cnst "github.com/RudraSwat/ubuntu-image/internal/constants"
	internalUtils "github.com/RudraSwat/ubuntu-image/internal/utils"
)

const dpkgQueryCmd = `dpkg-query -W --showformat='${Package} ${Version}\n'`

// generateManifest queries the packages installed in the finished rootfs and
// writes the filtered manifest next to the other build outputs. The raw query
// output is captured to a fixed file under the temp dir first, so it can be
// inspected whatever the filtering did.
func (s *State) generateManifest() error {
	capturePath := filepath.Join(os.TempDir(), cnst.ManifestName)
	capture, err := os.Create(capturePath)
	if err != nil {
		return err
	}

	chroot := internalUtils.NewChroot(s.Rootdir)
	err = chroot.RunWithOutput(capture, dpkgQueryCmd)
	closeErr := capture.Close()
	if err != nil {
		internalUtils.Log.Err(err).Str("rootfs", s.Rootdir).Msg("Querying installed packages")
		return err
	}
	if closeErr != nil {
		return closeErr
	}

	captured, err := os.ReadFile(capturePath)
	if err != nil {
		return err
	}

	manifestPath := filepath.Join(s.OutputDir, cnst.ManifestName)
	kept := FilterManifest(splitLines(string(captured)), cnst.ManifestDenyList())
	out := ""
	if len(kept) > 0 {
		out = strings.Join(kept, "\n") + "\n"
	}
	if err := os.WriteFile(manifestPath, []byte(out), 0644); err != nil {
		internalUtils.Log.Err(err).Str("path", manifestPath).Msg("Writing manifest")
		return err
	}
	internalUtils.Log.Logger.Debug().Str("path", manifestPath).Int("packages", len(kept)).Msg("Manifest written")
	return nil
}

// FilterManifest drops every line mentioning a deny-listed substring, keeping
// the surviving lines in their original order. Live-session packages such as
// the ubiquity installer have no business in an installed image's manifest.
func FilterManifest(lines []string, deny []string) []string {
	var kept []string
	for _, line := range lines {
		denied := false
		for _, word := range deny {
			if strings.Contains(line, word) {
				denied = true
				break
			}
		}
		if !denied {
			kept = append(kept, line)
		}
	}
	return kept
}

func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(content, "\n"), "\n")
}
