// Package store manages the on-disk per-project cache root: BaseDLL/,
// Output/, and OutputTemp/, plus the atomic write pattern patch modules
// are written with: write to a temp file in OutputTemp/, then rename
// into Output/ so a reader never observes a partially written module.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const (
	baseDLLDir    = "BaseDLL"
	outputDir     = "Output"
	outputTempDir = "OutputTemp"
)

// Root is one project's cache root on disk.
type Root struct {
	path string
}

// Open ensures the three subdirectories exist under path and returns a
// handle to them.
func Open(path string) (*Root, error) {
	for _, d := range []string{baseDLLDir, outputDir, outputTempDir} {
		if err := os.MkdirAll(filepath.Join(path, d), 0o755); err != nil {
			return nil, fmt.Errorf("store: mkdir %s: %w", d, err)
		}
	}
	return &Root{path: path}, nil
}

func (r *Root) BaseDLL() string    { return filepath.Join(r.path, baseDLLDir) }
func (r *Root) Output() string     { return filepath.Join(r.path, outputDir) }
func (r *Root) OutputTemp() string { return filepath.Join(r.path, outputTempDir) }

// NewPatchFilename builds the "<assembly>---<uuid>.dll" name the patch
// compiler must emit, and its ".pdb" sibling.
func NewPatchFilename(assembly string) (dll, pdb string) {
	id := uuid.NewString()
	dll = fmt.Sprintf("%s---%s.dll", assembly, id)
	pdb = fmt.Sprintf("%s---%s.pdb", assembly, id)
	return
}

// WriteTemp atomically writes data to OutputTemp/name: write to a
// sibling temp file, fsync, then rename, so a crash mid-write never
// leaves a partially-written module to promote.
func (r *Root) WriteTemp(name string, data []byte) (string, error) {
	return atomicWrite(r.OutputTemp(), name, data)
}

// WriteBaseDLL copies a baseline or reference module (plus debug
// symbols, if present) into BaseDLL/ so the original file stays
// unlocked by the host process.
func (r *Root) WriteBaseDLL(srcPath string) (string, error) {
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return "", fmt.Errorf("store: read baseline %s: %w", srcPath, err)
	}
	dstPath, err := atomicWrite(r.BaseDLL(), filepath.Base(srcPath), data)
	if err != nil {
		return "", err
	}
	// Debug symbols, if present, are best-effort: a missing .pdb is not
	// an error, matching real build outputs where symbols are optional.
	pdbSrc := swapExt(srcPath, ".pdb")
	if pdbData, err := os.ReadFile(pdbSrc); err == nil {
		_, _ = atomicWrite(r.BaseDLL(), filepath.Base(pdbSrc), pdbData)
	}
	return dstPath, nil
}

// Promote moves a module (and its .pdb, if present) from OutputTemp/
// into Output/. Historical patches are never deleted: Promote only
// ever adds files to Output/.
func (r *Root) Promote(name string) (string, error) {
	src := filepath.Join(r.OutputTemp(), name)
	dst := filepath.Join(r.Output(), name)
	if err := os.Rename(src, dst); err != nil {
		return "", fmt.Errorf("store: promote %s: %w", name, err)
	}
	pdbName := swapExt(name, ".pdb")
	srcPdb := filepath.Join(r.OutputTemp(), pdbName)
	if _, err := os.Stat(srcPdb); err == nil {
		_ = os.Rename(srcPdb, filepath.Join(r.Output(), pdbName))
	}
	return dst, nil
}

// ClearTemp removes every file under OutputTemp/. Output/ and BaseDLL/
// are untouched: the pipeline also clears Output/ on a full clear()
// call, but never touches the baseline index. A failed compile does
// not call ClearTemp: its temp files stay in place until the next
// clear().
func (r *Root) ClearTemp() error {
	return clearDir(r.OutputTemp())
}

// ClearOutput removes every promoted patch module. Called only by the
// explicit /clear endpoint, never by compile-failure cleanup.
func (r *Root) ClearOutput() error {
	return clearDir(r.Output())
}

func clearDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

func atomicWrite(dir, name string, data []byte) (string, error) {
	final := filepath.Join(dir, name)
	tmp := final + ".tmp-" + uuid.NewString()
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("store: write temp for %s: %w", name, err)
	}
	_, err = f.Write(data)
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("store: write temp for %s: %w", name, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("store: rename into place %s: %w", name, err)
	}
	return final, nil
}

func swapExt(path, ext string) string {
	return path[:len(path)-len(filepath.Ext(path))] + ext
}
