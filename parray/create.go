package parray

import (
	"io"

	"github.com/natefinch/atomic"

	"github.com/colinmarc/parray/errors"
)

// atomicCreate streams content to a temporary file in the same
// directory as path and renames it into place, so that a reader never
// observes a partially written header or body.
func atomicCreate(path string, content io.Reader) error {
	if err := atomic.WriteFile(path, content); err != nil {
		return errors.E(errors.IOFailure, "create backing file", err)
	}
	return nil
}
