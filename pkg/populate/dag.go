package populate

import (
	"context"

	cnst "github.com/RudraSwat/ubuntu-image/internal/constants"
	internalUtils "github.com/RudraSwat/ubuntu-image/internal/utils"
	"github.com/spectrocloud-labs/herd"
)

// Register wires the rootfs population phase: copy or relocate the rootfs in,
// drop the stock bootloader payload, rewrite the mount table and hook up the
// boot partition, seed cloud-init and run the customization stages. The steps
// form a single chain, each one owning the destination tree until it is done.
func (s *State) Register(g *herd.Graph) error {
	var err error

	if err = s.LogIfErrorAndReturn(s.PopulateRootfsDagStep(g), "populate rootfs"); err != nil {
		return err
	}

	s.LogIfError(s.CleanBootloaderDagStep(g, herd.WithDeps(cnst.OpPopulateRootfs)), "clean bootloader")

	s.LogIfError(s.ConfigureFstabDagStep(g, herd.WithDeps(cnst.OpCleanBootloader)), "configure fstab")

	s.LogIfError(s.CloudInitSeedDagStep(g, herd.WithDeps(cnst.OpConfigureFstab)), "cloud-init seed")

	s.LogIfError(s.CustomizeDagStep(g, herd.WithDeps(cnst.OpCloudInitSeed)), "customize hook")

	return err
}

// RegisterManifest wires the independent manifest phase, run once the rootfs
// is finished.
func (s *State) RegisterManifest(g *herd.Graph) error {
	return s.LogIfErrorAndReturn(s.GenerateManifestDagStep(g), "generate manifest")
}

// PopulateRootfsDagStep adds the step that fills the destination rootfs from
// its configured source.
func (s *State) PopulateRootfsDagStep(g *herd.Graph, opts ...herd.OpOption) error {
	return g.Add(cnst.OpPopulateRootfs, append(opts, herd.WithCallback(func(_ context.Context) error {
		return s.populateRootfs()
	}))...)
}

// CleanBootloaderDagStep adds the step that empties boot/grub of the stock
// bootloader payload.
func (s *State) CleanBootloaderDagStep(g *herd.Graph, opts ...herd.OpOption) error {
	return g.Add(cnst.OpCleanBootloader, append(opts, herd.WithCallback(func(_ context.Context) error {
		return s.cleanBootloader()
	}))...)
}

// ConfigureFstabDagStep adds the step that rewrites etc/fstab for the image
// labeling scheme and configures the boot partition mount.
func (s *State) ConfigureFstabDagStep(g *herd.Graph, opts ...herd.OpOption) error {
	return g.Add(cnst.OpConfigureFstab, append(opts, herd.WithCallback(func(_ context.Context) error {
		return s.configureFstab()
	}))...)
}

// CloudInitSeedDagStep adds the step that writes the nocloud-net seed. Not
// enabled unless a seed source was configured.
func (s *State) CloudInitSeedDagStep(g *herd.Graph, opts ...herd.OpOption) error {
	return g.Add(cnst.OpCloudInitSeed, append(opts,
		herd.EnableIf(func() bool {
			return s.CloudInitSeed != ""
		}),
		herd.WithCallback(func(_ context.Context) error {
			return s.seedCloudInit()
		}))...)
}

// CustomizeDagStep adds the step that runs the rootfs customization stages.
// Not enabled unless stage directories were configured.
func (s *State) CustomizeDagStep(g *herd.Graph, opts ...herd.OpOption) error {
	return g.Add(cnst.OpCustomizeHook, append(opts,
		herd.EnableIf(func() bool {
			return len(s.StageDirs) > 0
		}),
		herd.WithCallback(func(_ context.Context) error {
			return internalUtils.RunStage("rootfs", s.StageDirs)
		}))...)
}

// GenerateManifestDagStep adds the step that queries and filters the package
// manifest of the finished rootfs.
func (s *State) GenerateManifestDagStep(g *herd.Graph, opts ...herd.OpOption) error {
	return g.Add(cnst.OpGenerateManifest, append(opts, herd.WithCallback(func(_ context.Context) error {
		return s.generateManifest()
	}))...)
}
