package platform

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v4/host"
)

// RealDetector implements Detector against the running host.
type RealDetector struct {
	goos   string
	goarch string
	lookup func(ctx context.Context) (platform, family, version string, err error)
}

// NewDetector creates a detector for the running host.
func NewDetector() Detector {
	return &RealDetector{
		goos:   runtime.GOOS,
		goarch: runtime.GOARCH,
		lookup: host.PlatformInformationWithContext,
	}
}

// Detect returns host information. Distro lookup failures on Linux are not
// fatal: the distro fields stay empty. A cancelled context is.
func (d *RealDetector) Detect(ctx context.Context) (*Info, error) {
	info := &Info{
		ID:      FromGOOS(d.goos),
		OS:      d.goos,
		Arch:    normalizeArch(d.goarch),
		ArchRaw: d.goarch,
	}

	if d.goos != "linux" || d.lookup == nil {
		return info, nil
	}

	distro, family, version, err := d.lookup(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("platform detection cancelled: %w", ctx.Err())
		}
		return info, nil
	}

	if distro = normalizeID(distro); distro != "" {
		info.Distro = distro
		info.Family = mapFamily(family)
		info.Version = normalizeID(version)
	}
	return info, nil
}

// normalizeArch folds the uname spellings of the two architectures release
// assets are usually built for.
func normalizeArch(arch string) string {
	switch arch {
	case "x86_64":
		return "amd64"
	case "aarch64":
		return "arm64"
	}
	return arch
}

func normalizeID(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// mapFamily reduces a gopsutil distro family to one of the Family constants.
func mapFamily(family string) string {
	switch normalizeID(family) {
	case "debian", "ubuntu":
		return FamilyDebian
	case "rhel", "centos", "rocky":
		return FamilyRHEL
	case "fedora":
		return FamilyFedora
	case "suse", "opensuse":
		return FamilySUSE
	case "arch", "manjaro":
		return FamilyArch
	case "alpine":
		return FamilyAlpine
	case "gentoo":
		return FamilyGentoo
	}
	return FamilyUnknown
}
