// Package platform identifies the host gearbox runs on.
//
// Platform is the coarse key catalog links are declared under. Info carries
// the finer detail (architecture, Linux distribution) exposed to Lua catalogs
// through a read-only table.
package platform

import (
	"context"
	"runtime"
	"sync"
)

// Platform is the key catalog links are declared under.
type Platform string

// Supported platforms. Any other GOOS maps to its raw name, for which no
// catalog link can exist.
const (
	Linux   Platform = "linux"
	Windows Platform = "windows"
	MacOS   Platform = "macos"
)

// Known lists the platforms a catalog may declare links for.
var Known = []Platform{Linux, Windows, MacOS}

// IsKnown reports whether p is one of Known.
func (p Platform) IsKnown() bool {
	switch p {
	case Linux, Windows, MacOS:
		return true
	}
	return false
}

// ExecutableSuffix returns ".exe" on Windows and "" elsewhere.
func (p Platform) ExecutableSuffix() string {
	if p == Windows {
		return ".exe"
	}
	return ""
}

func (p Platform) String() string {
	return string(p)
}

// FromGOOS maps a Go OS name to a Platform.
func FromGOOS(goos string) Platform {
	if goos == "darwin" {
		return MacOS
	}
	return Platform(goos)
}

var (
	currentOnce sync.Once
	current     Platform
)

// Current returns the platform of the running process. It is computed once.
func Current() Platform {
	currentOnce.Do(func() {
		current = FromGOOS(runtime.GOOS)
	})
	return current
}

// Linux distribution family constants.
const (
	FamilyDebian  = "debian"
	FamilyRHEL    = "rhel"
	FamilyFedora  = "fedora"
	FamilySUSE    = "suse"
	FamilyArch    = "arch"
	FamilyAlpine  = "alpine"
	FamilyGentoo  = "gentoo"
	FamilyUnknown = "unknown"
)

// Info contains host detection results.
type Info struct {
	ID      Platform // catalog key, e.g. "macos"
	OS      string   // runtime.GOOS
	Arch    string   // normalized: "amd64", "arm64", or raw GOARCH
	ArchRaw string   // runtime.GOARCH
	Distro  string   // Linux distro ID, e.g. "ubuntu"
	Family  string   // canonical family, e.g. "debian"
	Version string   // distro version, e.g. "22.04"
}

// Distro contains Linux distribution information.
type Distro struct {
	ID      string
	Family  string
	Version string
}

// GetDistro returns distro information, or nil off Linux or when detection
// failed.
func (i *Info) GetDistro() *Distro {
	if i.OS != "linux" || i.Distro == "" {
		return nil
	}
	return &Distro{ID: i.Distro, Family: i.Family, Version: i.Version}
}

func (i *Info) IsLinux() bool   { return i.ID == Linux }
func (i *Info) IsMacOS() bool   { return i.ID == MacOS }
func (i *Info) IsWindows() bool { return i.ID == Windows }
func (i *Info) IsAMD64() bool   { return i.Arch == "amd64" }
func (i *Info) IsARM64() bool   { return i.Arch == "arm64" }

// Detector is the interface for host detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}
