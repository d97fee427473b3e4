package binary

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/ulikunitz/xz"
)

type entry struct {
	name    string
	body    string
	mode    int64
	symlink string
}

func writeTar(t *testing.T, w io.Writer, entries []entry) {
	t.Helper()
	tw := tar.NewWriter(w)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: e.mode, Size: int64(len(e.body))}
		if hdr.Mode == 0 {
			hdr.Mode = 0o644
		}
		switch {
		case strings.HasSuffix(e.name, "/"):
			hdr.Typeflag = tar.TypeDir
		case e.symlink == "":
			hdr.Typeflag = tar.TypeReg
		}
		if e.symlink != "" {
			hdr.Typeflag = tar.TypeSymlink
			hdr.Linkname = e.symlink
			hdr.Size = 0
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("write header %s: %v", e.name, err)
		}
		if e.symlink == "" {
			if _, err := tw.Write([]byte(e.body)); err != nil {
				t.Fatalf("write %s: %v", e.name, err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
}

// buildArchive writes entries in the given format and returns its bytes.
func buildArchive(t *testing.T, format Format, entries []entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	switch format {
	case FormatTar:
		writeTar(t, &buf, entries)
	case FormatTarGz:
		gz := gzip.NewWriter(&buf)
		writeTar(t, gz, entries)
		if err := gz.Close(); err != nil {
			t.Fatal(err)
		}
	case FormatTarXz:
		xw, err := xz.NewWriter(&buf)
		if err != nil {
			t.Fatal(err)
		}
		writeTar(t, xw, entries)
		if err := xw.Close(); err != nil {
			t.Fatal(err)
		}
	case FormatZip:
		zw := zip.NewWriter(&buf)
		for _, e := range entries {
			hdr := &zip.FileHeader{Name: e.name, Method: zip.Deflate}
			mode := os.FileMode(e.mode)
			if mode == 0 {
				mode = 0o644
			}
			hdr.SetMode(mode)
			w, err := zw.CreateHeader(hdr)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := w.Write([]byte(e.body)); err != nil {
				t.Fatal(err)
			}
		}
		if err := zw.Close(); err != nil {
			t.Fatal(err)
		}
	default:
		t.Fatalf("buildArchive: unsupported format %s", format)
	}
	return buf.Bytes()
}

func writeArchive(t *testing.T, dir, name string, format Format, entries []entry) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buildArchive(t, format, entries), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// listFiles returns the regular files under root as slash paths.
func listFiles(t *testing.T, root string) []string {
	t.Helper()
	var out []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			rel, _ := filepath.Rel(root, path)
			out = append(out, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(out)
	return out
}
