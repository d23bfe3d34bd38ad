package constants

const (
	OpPopulateRootfs   = "populate-rootfs"
	OpCleanBootloader  = "clean-bootloader"
	OpConfigureFstab   = "configure-fstab"
	OpCloudInitSeed    = "cloud-init-seed"
	OpCustomizeHook    = "customize-hook"
	OpGenerateManifest = "generate-manifest"

	// RootfsLabel is the filesystem label grub.cfg expects on the root
	// partition, so the rewritten fstab has to address root through it.
	RootfsLabel = "writable"
	LinuxFs     = "ext4"

	BootMountDir   = "boot/system-boot"
	BootMountPoint = "/boot/system-boot"
	GrubDir        = "boot/grub"
	FirmwareDir    = "boot/firmware"

	CloudInitSeedDir  = "var/lib/cloud/seed/nocloud-net"
	CloudInitMetaData = "instance-id: nocloud-static\n"

	ManifestName = "filesystem.manifest"

	LogDir = "/var/log/ubuntu-image"
)

// ManifestDenyList returns the substrings that mark a package as belonging to
// a live/installer session only, e.g. the ubiquity installer or the casper
// live boot tooling. Matched as plain substrings against manifest lines.
func ManifestDenyList() []string {
	return []string{"ubiquity", "casper"}
}
