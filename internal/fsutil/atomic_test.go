package fsutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"testing"
)

func TestWriteFileAtomic_WritesContentAndMode(t *testing.T) {
	dir := t.TempDir()

	if err := WriteFileAtomic(dir, "server.cfg", []byte("secret"), 0o600); err != nil {
		t.Fatalf("WriteFileAtomic() = %v", err)
	}

	path := filepath.Join(dir, "server.cfg")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "secret" {
		t.Errorf("content = %q, want %q", data, "secret")
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %04o, want 0600", info.Mode().Perm())
	}
}

func TestWriteFileAtomic_OverwriteRestoresMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.cfg")

	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(dir, "server.cfg", []byte("new"), 0o600); err != nil {
		t.Fatalf("WriteFileAtomic() = %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "new" {
		t.Errorf("content = %q, want %q", data, "new")
	}
	info, _ := os.Stat(path)
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode after overwrite = %04o, want 0600", info.Mode().Perm())
	}
}

func TestWriteFileAtomic_NoTempFileLeftBehind(t *testing.T) {
	dir := t.TempDir()

	if err := WriteFileAtomic(dir, "unit.service", []byte("[Unit]"), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic() = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "unit.service" {
		t.Errorf("unexpected directory contents: %v", entries)
	}
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "authrelayd")
	dst := filepath.Join(dir, "installed")

	if err := os.WriteFile(src, []byte("#!/bin/sh\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := CopyFile(src, dst, 0o755); err != nil {
		t.Fatalf("CopyFile() = %v", err)
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "#!/bin/sh\n" {
		t.Errorf("content = %q", data)
	}
	info, _ := os.Stat(dst)
	if info.Mode().Perm() != 0o755 {
		t.Errorf("mode = %04o, want 0755", info.Mode().Perm())
	}
}

func TestCopyFile_OverwritesExisting(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")

	if err := os.WriteFile(src, []byte("new build"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dst, []byte("previous build with longer content"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := CopyFile(src, dst, 0o755); err != nil {
		t.Fatalf("CopyFile() = %v", err)
	}

	data, _ := os.ReadFile(dst)
	if string(data) != "new build" {
		t.Errorf("content = %q, want full replacement", data)
	}
}

func TestCopyFile_ReplacesByRename(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")

	if err := os.WriteFile(src, []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dst, []byte("old"), 0o755); err != nil {
		t.Fatal(err)
	}

	before, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}
	if err := CopyFile(src, dst, 0o755); err != nil {
		t.Fatalf("CopyFile() = %v", err)
	}
	after, err := os.Stat(dst)
	if err != nil {
		t.Fatal(err)
	}

	// Rename-based replacement produces a fresh inode; in-place truncation
	// would keep the old one (and fail on a running executable).
	beforeSt := before.Sys().(*syscall.Stat_t)
	afterSt := after.Sys().(*syscall.Stat_t)
	if beforeSt.Ino == afterSt.Ino {
		t.Error("destination inode unchanged, expected replacement by rename")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("unexpected directory contents: %v", entries)
	}
}

func TestCopyFile_ReplacesRunningExecutable(t *testing.T) {
	sleepBin, err := exec.LookPath("sleep")
	if err != nil {
		t.Skip("sleep not found in PATH")
	}

	dir := t.TempDir()
	dst := filepath.Join(dir, "authrelayd")
	if err := CopyFile(sleepBin, dst, 0o755); err != nil {
		t.Fatalf("CopyFile() = %v", err)
	}

	cmd := exec.Command(dst, "30")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start installed executable: %v", err)
	}
	defer func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	}()

	// In-place truncation of an executing binary fails with ETXTBSY.
	if err := CopyFile(sleepBin, dst, 0o755); err != nil {
		t.Fatalf("CopyFile() over a running executable = %v", err)
	}
}

func TestCopyFile_MissingSource(t *testing.T) {
	dir := t.TempDir()
	if err := CopyFile(filepath.Join(dir, "absent"), filepath.Join(dir, "dst"), 0o755); err == nil {
		t.Fatal("CopyFile() = nil, want error for missing source")
	}
}

func TestChownTree_SelfOwnershipNoop(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sub", "file"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Chown to the current uid/gid works without privileges and exercises the walk.
	if err := ChownTree(dir, os.Getuid(), os.Getgid()); err != nil {
		t.Fatalf("ChownTree() = %v", err)
	}
}

func TestChownTree_MissingRoot(t *testing.T) {
	if err := ChownTree(filepath.Join(t.TempDir(), "absent"), os.Getuid(), os.Getgid()); err == nil {
		t.Fatal("ChownTree() = nil, want error for missing root")
	}
}
