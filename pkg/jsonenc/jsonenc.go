// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package jsonenc is the JSON encoder used for every file written by dllogger.
//
// It extends encoding/json in two ways:
//
//   - Numeric values from numeric libraries (gonum matrices and vectors, float16, bfloat16, float32, ...)
//     are converted to plain JSON lists and numbers, see Normalize.
//   - Objects keep their insertion order, see OrderedMap. Decoding preserves the order found in the file.
//   - Integers and floats stay distinct: integers are kept exact as int64 (or uint64), and integral
//     floats are written with a ".0" suffix, so both read back with the type they were written with.
//
// Files are written indented with 4 spaces and without HTML escaping.
package jsonenc

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/gomlx/dllogger/pkg/support/fsutil"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Indent used for all JSON files written.
const Indent = "    "

// Marshal normalizes v (see Normalize) and encodes it as indented JSON.
func Marshal(v any) ([]byte, error) {
	normalized, err := Normalize(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", Indent)
	if err = enc.Encode(encodable(normalized)); err != nil {
		return nil, errors.Wrapf(err, "jsonenc: failed to encode value of type %T", v)
	}
	return buf.Bytes(), nil
}

// WriteFile encodes v and writes it to filePath, creating or truncating the file.
//
// The value is fully encoded before the file is touched, so an encoding error leaves any previous
// file intact. A failure while writing can leave a partial file.
func WriteFile(filePath string, v any) error {
	contents, err := Marshal(v)
	if err != nil {
		return errors.WithMessagef(err, "while writing %q", filePath)
	}
	if err = os.WriteFile(filePath, contents, fsutil.FilePermMode); err != nil {
		return errors.Wrapf(err, "failed to write %q", filePath)
	}
	klog.V(1).Infof("wrote %q (%d bytes)", filePath, len(contents))
	return nil
}

// CreateFile encodes v and writes it to a new file filePath. If the file already exists it fails
// with an error that matches os.ErrExist (use errors.Is) and the existing file is left untouched.
func CreateFile(filePath string, v any) error {
	contents, err := Marshal(v)
	if err != nil {
		return errors.WithMessagef(err, "while creating %q", filePath)
	}
	f, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, fsutil.FilePermMode)
	if err != nil {
		return errors.Wrapf(err, "failed to create %q", filePath)
	}
	if _, err = f.Write(contents); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "failed to write %q", filePath)
	}
	if err = f.Close(); err != nil {
		return errors.Wrapf(err, "failed to close %q", filePath)
	}
	klog.V(1).Infof("created %q (%d bytes)", filePath, len(contents))
	return nil
}

// ReadFile reads a JSON file holding an object, preserving the order of its keys.
func ReadFile(filePath string) (*OrderedMap, error) {
	contents, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %q", filePath)
	}
	m := NewOrderedMap()
	if err = m.UnmarshalJSON(contents); err != nil {
		return nil, errors.WithMessagef(err, "while decoding %q", filePath)
	}
	return m, nil
}

// ReadFileInto decodes the JSON file into v, using encoding/json rules.
func ReadFileInto(filePath string, v any) error {
	contents, err := os.ReadFile(filePath)
	if err != nil {
		return errors.Wrapf(err, "failed to read %q", filePath)
	}
	if err = json.Unmarshal(contents, v); err != nil {
		return errors.Wrapf(err, "failed to decode %q into %T", filePath, v)
	}
	return nil
}

// marshalNoEscape is json.Marshal without HTML escaping and without the trailing newline.
func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
