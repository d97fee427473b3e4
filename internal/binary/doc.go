// Package binary fetches, verifies and places the artifacts of managed tools.
//
// # Pipeline
//
// For a single catalog link the Installer runs:
//
//  1. Download the artifact into a scratch directory (atomic temp+rename,
//     optional retries with exponential backoff).
//  2. Verify it: SHA256 digest when the link declares one, and a detached
//     OpenPGP signature when the link declares a signature URL and keyring.
//  3. Place it: a raw executable is moved to the destination; an archive is
//     extracted (zip, tar, tar.gz, tar.bz2, tar.xz) and the declared member
//     is moved to the destination.
//  4. Mark the destination executable (no-op on Windows).
//
// Archive formats are inferred from the URL extension and fall back to
// sniffing magic bytes. Extraction rejects entries that would escape the
// destination directory.
//
// # Usage
//
//	inst := binary.NewInstaller(binary.NewDownloader(binary.WithRetries(2)))
//	res, err := inst.Install(ctx, link, "/repo/.gearbox_cache/tools/jq", scratchDir)
package binary
