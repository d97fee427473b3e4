package binary

import "time"

// VerificationMethod indicates how an artifact was verified.
type VerificationMethod int

const (
	// VerificationNone means the link declared no integrity data.
	VerificationNone VerificationMethod = iota
	// VerificationSHA256 means the artifact digest matched.
	VerificationSHA256
	// VerificationOpenPGP means a detached signature verified.
	VerificationOpenPGP
)

// String returns the string representation of the verification method.
func (v VerificationMethod) String() string {
	switch v {
	case VerificationNone:
		return "None"
	case VerificationSHA256:
		return "SHA256"
	case VerificationOpenPGP:
		return "OpenPGP"
	default:
		return "Unknown"
	}
}

// VerificationResult contains the outcome of a verification attempt.
type VerificationResult struct {
	Method  VerificationMethod
	Success bool
	Error   error
}

// InstallResult describes a completed install.
type InstallResult struct {
	Path         string
	Format       Format
	Verified     []VerificationMethod
	DownloadTime time.Duration
}
