package binary

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"time"

	"github.com/ZebulonRouseFrantzich/gearbox/internal/catalog"
)

// Installer orchestrates download, verification, extraction and placement
// of a single link's artifact.
type Installer struct {
	downloader *Downloader
	verifier   *Verifier
	extractor  *Extractor
}

// NewInstaller creates an installer that fetches with d.
func NewInstaller(d *Downloader) *Installer {
	if d == nil {
		d = NewDownloader()
	}
	return &Installer{
		downloader: d,
		verifier:   NewVerifier(),
		extractor:  NewExtractor(),
	}
}

// Install places the artifact described by link at dest. All intermediate
// files live under workDir, which the caller owns and removes.
func (i *Installer) Install(ctx context.Context, link catalog.LinkSpec, dest, workDir string) (*InstallResult, error) {
	start := time.Now()

	if err := EnsureDir(workDir); err != nil {
		return nil, err
	}

	artifact := filepath.Join(workDir, artifactName(link.URL))
	if err := i.downloader.DownloadToFile(ctx, link.URL, artifact); err != nil {
		return nil, err
	}
	result := &InstallResult{Path: dest, DownloadTime: time.Since(start)}

	verified, err := i.verify(ctx, link, artifact)
	if err != nil {
		return nil, err
	}
	result.Verified = verified

	if link.IsRaw() {
		if err := Move(artifact, dest); err != nil {
			return nil, err
		}
	} else {
		result.Format = FormatFromName(link.URL)
		extractDir := filepath.Join(workDir, "extract")
		if err := i.extractor.Extract(artifact, extractDir, result.Format); err != nil {
			return nil, fmt.Errorf("extract %s: %w", filepath.Base(artifact), err)
		}
		member, err := safeJoin(extractDir, link.Member)
		if err != nil {
			return nil, err
		}
		kind, err := Exists(member)
		if err != nil {
			return nil, err
		}
		if kind == Absent {
			return nil, fmt.Errorf("member %q not found in %s", link.Member, filepath.Base(artifact))
		}
		if err := Move(member, dest); err != nil {
			return nil, err
		}
	}

	if err := SetExecutable(dest); err != nil {
		return nil, err
	}
	return result, nil
}

func (i *Installer) verify(ctx context.Context, link catalog.LinkSpec, artifact string) ([]VerificationMethod, error) {
	var methods []VerificationMethod

	if link.SHA256 != "" {
		if _, err := i.verifier.VerifySHA256(artifact, link.SHA256); err != nil {
			return nil, fmt.Errorf("verify %s: %w", filepath.Base(artifact), err)
		}
		methods = append(methods, VerificationSHA256)
	}

	if link.SignatureURL != "" {
		sig := artifact + ".sig"
		if err := i.downloader.DownloadToFile(ctx, link.SignatureURL, sig); err != nil {
			return nil, fmt.Errorf("download signature: %w", err)
		}
		if _, err := i.verifier.VerifySignature(artifact, sig, link.Keyring); err != nil {
			return nil, fmt.Errorf("verify %s: %w", filepath.Base(artifact), err)
		}
		methods = append(methods, VerificationOpenPGP)
	}

	if len(methods) == 0 {
		methods = append(methods, VerificationNone)
	}
	return methods, nil
}

// artifactName derives a local file name from the last URL path segment.
func artifactName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "artifact"
	}
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return "artifact"
	}
	return name
}
