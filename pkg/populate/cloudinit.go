package populate

import (
	"os"
	"path/filepath"

	cnst "github.com/RudraSwat/ubuntu-image/internal/constants"
	internalUtils "github.com/RudraSwat/ubuntu-image/internal/utils"
)

// seedCloudInit writes the nocloud-net first-boot seed: a static meta-data
// file and the configured user-data copied verbatim.
func (s *State) seedCloudInit() error {
	cloudDir := s.path(cnst.CloudInitSeedDir)
	if err := os.MkdirAll(cloudDir, os.ModePerm); err != nil {
		internalUtils.Log.Err(err).Str("path", cloudDir).Msg("Creating cloud-init seed dir")
		return err
	}

	metaDataFile := filepath.Join(cloudDir, "meta-data")
	if err := os.WriteFile(metaDataFile, []byte(cnst.CloudInitMetaData), 0644); err != nil {
		internalUtils.Log.Err(err).Str("path", metaDataFile).Msg("Writing cloud-init meta-data")
		return err
	}

	userDataFile := filepath.Join(cloudDir, "user-data")
	if err := internalUtils.CopyFile(s.CloudInitSeed, userDataFile); err != nil {
		internalUtils.Log.Err(err).Str("what", s.CloudInitSeed).Str("where", userDataFile).Msg("Copying cloud-init user-data")
		return err
	}
	return nil
}
