package module

import "path"

// Package is the identity of the module being built.
type Package struct {
	// ID is the module identifier (module.prop "id").
	ID string
	// Name is the human-readable module name.
	Name string
	// Version is the display version, also used in the archive filename.
	Version string
	// VersionCode is the monotonically increasing integer version, kept as text.
	VersionCode string
	// Author is shown by the module manager.
	Author string
	// Description is shown by the module manager.
	Description string
	// ArchiveName is the archive base name without version and extension.
	ArchiveName string
}

// ArchiveFilename returns "<archive name>_v<version>.zip".
func (p *Package) ArchiveFilename() string {
	return p.ArchiveName + "_v" + p.Version + ".zip"
}

// ManifestFilename returns "<archive name>_v<version>.yaml".
func (p *Package) ManifestFilename() string {
	return p.ArchiveName + "_v" + p.Version + ".yaml"
}

// Service describes the native daemon the module installs and starts at boot,
// together with the SELinux principals that talk to it.
type Service struct {
	// Binary is the executable name under system/bin.
	Binary string
	// ClientDomain is the SELinux domain of the app talking to the daemon.
	ClientDomain string
	// ServiceType is the service_manager type the daemon registers as.
	ServiceType string
	// ServiceDomain is the SELinux domain the daemon runs in.
	ServiceDomain string
	// LogTag is the logcat tag used by the boot script.
	LogTag string
}

// BinaryPath is the slash-separated location of the daemon relative to the staging root.
func (s *Service) BinaryPath() string {
	return path.Join(SystemDir, "bin", s.Binary)
}

// Paths is the resolved set of directories used by one build.
type Paths struct {
	// ProjectRoot is the directory the build was started for.
	ProjectRoot string
	// StaticDir holds hand-maintained files; only its "system" child is staged.
	StaticDir string
	// OutDir holds prebuilt outputs (priv-app, lib, lib64).
	OutDir string
	// BuildDir receives the staging tree, the archive and the manifest.
	BuildDir string
	// StagingDir is the root of the tree that ends up inside the archive.
	StagingDir string
}

const (
	// SystemDir is the subtree of the staging root mirrored onto /system.
	SystemDir = "system"
	// StagingDirName is the staging directory name inside BuildDir.
	StagingDirName = "module"
)

// BuildOutputDirs lists the prebuilt subdirectories copied from OutDir into system/.
func BuildOutputDirs() []string {
	return []string{"priv-app", "lib", "lib64"}
}

// PermissionDirs lists the system/ subtrees the installer resets to root:root 0755/0644.
func PermissionDirs() []string {
	return []string{"priv-app", "app", "lib", "lib64", "vendor/lib", "framework", "etc"}
}
