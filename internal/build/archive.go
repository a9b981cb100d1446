package build

import (
	"archive/tar"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// packageDir writes a tar.gz of dir to dest and returns the hex SHA-256 of
// the written archive. Symlinks and special files are skipped; the bundle
// only carries regular files and directories.
func packageDir(dir, dest string) (string, error) {
	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create bundle: %w", err)
	}

	hasher := sha256.New()
	gz := gzip.NewWriter(io.MultiWriter(out, hasher))
	tw := tar.NewWriter(gz)

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !d.IsDir() && !info.Mode().IsRegular() {
			return nil
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if d.IsDir() {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		_, err = io.Copy(tw, f)
		f.Close()
		return err
	})
	if walkErr != nil {
		out.Close()
		return "", fmt.Errorf("archive %s: %w", dir, walkErr)
	}

	if err := tw.Close(); err != nil {
		out.Close()
		return "", fmt.Errorf("finalize archive: %w", err)
	}
	if err := gz.Close(); err != nil {
		out.Close()
		return "", fmt.Errorf("finalize compression: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("flush bundle: %w", err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
