package header

import (
	"bytes"
	"errors"
	"fmt"
	"go/token"
	"os"
	"path/filepath"

	"cbridge/internal/diag"
)

// Path joins the output directory and header name.
func Path(dir, name string) string {
	return filepath.Join(dir, name)
}

// Write replaces dir/name with content. The bytes go to a temporary file in
// dir first and are renamed into place, so the old header survives any
// failure. dir must already exist.
func Write(dir, name string, content []byte) (err error) {
	target := Path(dir, name)
	pos := token.Position{Filename: target}

	info, statErr := os.Stat(dir)
	if statErr != nil {
		if errors.Is(statErr, os.ErrNotExist) {
			return diag.Errorf(diag.IOMissingOut, pos, "", fmt.Sprintf("output directory %s does not exist", dir), statErr)
		}
		return diag.Errorf(diag.IOWriteHeader, pos, "", "cannot stat output directory", statErr)
	}
	if !info.IsDir() {
		return diag.Errorf(diag.IOWriteHeader, pos, "", fmt.Sprintf("%s is not a directory", dir), nil)
	}

	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return diag.Errorf(diag.IOWriteHeader, pos, "", "cannot create temporary file", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(content); err != nil {
		return diag.Errorf(diag.IOWriteHeader, pos, "", "write failed", err)
	}
	if err = tmp.Sync(); err != nil {
		return diag.Errorf(diag.IOWriteHeader, pos, "", "sync failed", err)
	}
	if err = tmp.Close(); err != nil {
		return diag.Errorf(diag.IOWriteHeader, pos, "", "close failed", err)
	}
	if err = os.Chmod(tmpName, 0o644); err != nil {
		return diag.Errorf(diag.IOWriteHeader, pos, "", "chmod failed", err)
	}
	if err = os.Rename(tmpName, target); err != nil {
		return diag.Errorf(diag.IOWriteHeader, pos, "", "cannot move header into place", err)
	}
	return nil
}

// UpToDate reports whether dir/name already holds exactly content.
func UpToDate(dir, name string, content []byte) (bool, error) {
	target := Path(dir, name)
	existing, err := os.ReadFile(target)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, diag.Errorf(diag.IOReadHeader, token.Position{Filename: target}, "", "cannot read existing header", err)
	}
	return bytes.Equal(existing, content), nil
}
