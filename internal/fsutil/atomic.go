// Package fsutil provides the filesystem primitives the provisioning steps
// share: atomic writes, file copies, and recursive ownership changes.
package fsutil

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// WriteFileAtomic writes data to dir/name atomically using a temp file and
// rename. This ensures readers never observe a partially-written file, which
// matters most for the credential-bearing server configuration.
func WriteFileAtomic(dir, name string, data []byte, perm os.FileMode) error {
	targetPath := filepath.Join(dir, name)
	tmpPath := filepath.Join(dir, ".tmp-"+name)

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	defer os.Remove(tmpPath) // clean up on error

	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Rename does not reset the mode, but an earlier run may have left the
	// target with different permissions; chmod after rename keeps the mode
	// invariant across reruns.
	if err := os.Rename(tmpPath, targetPath); err != nil {
		return err
	}
	return os.Chmod(targetPath, perm)
}

// CopyFile copies src over dst through a temp file and rename, the same
// discipline as WriteFileAtomic. Truncating dst in place would fail with
// ETXTBSY when dst is a running executable, which it is on every rerun over a
// live service; rename swaps the directory entry while the running process
// keeps its old inode.
func CopyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("fsutil: open %s: %w", src, err)
	}
	defer in.Close()

	tmpPath := filepath.Join(filepath.Dir(dst), ".tmp-"+filepath.Base(dst))
	out, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("fsutil: create %s: %w", tmpPath, err)
	}
	defer os.Remove(tmpPath) // clean up on error

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("fsutil: copy %s to %s: %w", src, dst, err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return fmt.Errorf("fsutil: sync %s: %w", tmpPath, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("fsutil: close %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		return fmt.Errorf("fsutil: rename %s to %s: %w", tmpPath, dst, err)
	}
	return os.Chmod(dst, perm)
}

// ChownTree recursively changes ownership of root and everything under it.
func ChownTree(root string, uid, gid int) error {
	return filepath.WalkDir(root, func(path string, _ fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := os.Chown(path, uid, gid); err != nil {
			return fmt.Errorf("fsutil: chown %s: %w", path, err)
		}
		return nil
	})
}
