package schema

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/remcovanmook/networkd-schema/internal/nserrors"
)

// WriteResult reports what a write did, so callers can print accurate
// progress and idempotent reruns stay quiet.
type WriteResult int

const (
	WriteUnchanged WriteResult = iota
	WriteCreated
	WriteUpdated
)

func (r WriteResult) String() string {
	switch r {
	case WriteUnchanged:
		return "unchanged"
	case WriteCreated:
		return "created"
	case WriteUpdated:
		return "updated"
	default:
		return fmt.Sprintf("WriteResult(%d)", int(r))
	}
}

// WriteFileIfChanged writes data to path unless the file already holds
// exactly those bytes. Writes go through a temp file in the same directory
// followed by a rename, so a reader never observes a partial document.
func WriteFileIfChanged(path string, data []byte) (WriteResult, error) {
	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		if bytes.Equal(existing, data) {
			return WriteUnchanged, nil
		}
		if err := writeAtomic(path, data); err != nil {
			return WriteUnchanged, err
		}
		return WriteUpdated, nil
	case os.IsNotExist(err):
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return WriteUnchanged, nserrors.Newf(nserrors.KindWrite, "create directory for %s: %v", path, err)
		}
		if err := writeAtomic(path, data); err != nil {
			return WriteUnchanged, err
		}
		return WriteCreated, nil
	default:
		return WriteUnchanged, nserrors.Newf(nserrors.KindWrite, "read %s: %v", path, err)
	}
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return nserrors.Newf(nserrors.KindWrite, "create temp file in %s: %v", dir, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return nserrors.Newf(nserrors.KindWrite, "write %s: %v", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return nserrors.Newf(nserrors.KindWrite, "close %s: %v", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return nserrors.Newf(nserrors.KindWrite, "chmod %s: %v", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return nserrors.Newf(nserrors.KindWrite, "rename %s to %s: %v", tmpName, path, err)
	}
	return nil
}

// WriteFile writes data to path unconditionally, reporting whether the file
// already existed. Forced rebuilds use it to bypass change detection.
func WriteFile(path string, data []byte) (WriteResult, error) {
	result := WriteCreated
	if _, err := os.Stat(path); err == nil {
		result = WriteUpdated
	} else if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return WriteUnchanged, nserrors.Newf(nserrors.KindWrite, "create directory for %s: %v", path, err)
	}
	if err := writeAtomic(path, data); err != nil {
		return WriteUnchanged, err
	}
	return result, nil
}

// WriteDocument encodes doc canonically and writes it to path.
func WriteDocument(path string, doc *Document) (WriteResult, error) {
	data, err := EncodeDocument(doc)
	if err != nil {
		return WriteUnchanged, err
	}
	return WriteFileIfChanged(path, data)
}
