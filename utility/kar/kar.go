// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package kar is an api for an lz4 backed file format.
// It's purpose is to be well suited for streaming resources
// from it. It's designed to be memory mapped, so (unlike tar) it knows
// where all the files are located before they're read. The archive itself
// is not compressed, rather every file is individually compressed, so it
// can be read from its place and decompressed on the fly. This compromises
// space efficiency somewhat, but gets resources from disk to a usable
// state fast. It can be read from concurrently.
//
// Layout of an archive:
//
//	magic        "KAR\x00"
//	header size  16 bytes, little endian uint64 in the first 8
//	header       gob encoded Header
//	data         lz4 frames, one per file, at Offset from the data start
package kar

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"sort"

	"github.com/cockroachdb/errors"
)

// Extension is the file name extension of kar archives.
const Extension = ".kar"

// package errors
var (
	ErrFileFormat    = errors.New("corrupted or not a kar archive")
	ErrNotFound      = errors.New("file not in archive")
	ErrDuplicateName = errors.New("file already added")
	ErrClosed        = errors.New("builder is closed")
)

// Sizes relevant to the header of file
const (
	MagicLength            = 4
	HeaderSizeNumberLength = 16

	// maxHeaderSize guards against allocating for a garbage size field.
	maxHeaderSize = 64 << 20
)

var magic = [MagicLength]byte{'K', 'A', 'R', '\x00'}

// IndexEntry is info for one file in the file index. Offset is counted
// from the start of the data section.
type IndexEntry struct {
	Name           string
	Offset         int64
	Size           int64
	CompressedSize int64
}

// Header is the file header for kar files.
type Header struct {
	Author      string
	DateCreated int64
	Version     int64
	Index       []IndexEntry
}

// Names returns the names of every file in the index, sorted.
func (h *Header) Names() []string {
	names := make([]string, len(h.Index))
	for i, e := range h.Index {
		names[i] = e.Name
	}
	sort.Strings(names)
	return names
}

// validate checks that the index describes a data section of dataSize
// bytes without overlaps or duplicates.
func (h *Header) validate(dataSize int64) error {
	seen := make(map[string]bool, len(h.Index))
	for _, e := range h.Index {
		if seen[e.Name] {
			return errors.Wrapf(ErrFileFormat, "duplicate entry %s", e.Name)
		}
		seen[e.Name] = true
		if e.Offset < 0 || e.Size < 0 || e.CompressedSize < 0 || e.Offset+e.CompressedSize > dataSize {
			return errors.Wrapf(ErrFileFormat, "entry %s out of bounds", e.Name)
		}
	}
	return nil
}

func encodeHeaderSize(size int) []byte {
	field := make([]byte, HeaderSizeNumberLength)
	binary.LittleEndian.PutUint64(field, uint64(size))
	return field
}

func decodeHeaderSize(field []byte) (int64, error) {
	size := binary.LittleEndian.Uint64(field)
	if size == 0 || size > maxHeaderSize {
		return 0, errors.Wrapf(ErrFileFormat, "header size %d", size)
	}
	return int64(size), nil
}

func gobEncode(data interface{}) ([]byte, error) {
	var encoded bytes.Buffer
	enc := gob.NewEncoder(&encoded)
	if err := enc.Encode(data); err != nil {
		return nil, err
	}
	return encoded.Bytes(), nil
}

func gobDecode(obj interface{}, bts []byte) error {
	dec := gob.NewDecoder(bytes.NewBuffer(bts))
	return dec.Decode(obj)
}
