// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar

import (
	"io"
	"io/ioutil"

	"github.com/cockroachdb/errors"
	"github.com/pierrec/lz4"
	"golang.org/x/exp/mmap"
)

// sizedReaderAt is a ReaderAt that knows its length, like a memory
// mapped file or bytes.Reader.
type sizedReaderAt interface {
	io.ReaderAt
	Len() int
}

// Open opens the kar archive from r. It will also check
// if the file is actually a kar archive, will return an error
// when file incorrect. size is the length of r in bytes.
func Open(r io.ReaderAt, size int64) (*Archive, error) {
	if size < MagicLength+HeaderSizeNumberLength {
		return nil, errors.Wrap(ErrFileFormat, "archive too short")
	}

	prefix := make([]byte, MagicLength+HeaderSizeNumberLength)
	if _, err := r.ReadAt(prefix, 0); err != nil {
		return nil, errors.Wrap(err, "reading archive prefix")
	}
	if string(prefix[:MagicLength]) != string(magic[:]) {
		return nil, errors.Wrap(ErrFileFormat, "bad magic")
	}

	headerSize, err := decodeHeaderSize(prefix[MagicLength:])
	if err != nil {
		return nil, err
	}
	dataStart := int64(MagicLength+HeaderSizeNumberLength) + headerSize
	if dataStart > size {
		return nil, errors.Wrap(ErrFileFormat, "header exceeds archive")
	}

	headerBytes := make([]byte, headerSize)
	if _, err := r.ReadAt(headerBytes, MagicLength+HeaderSizeNumberLength); err != nil {
		return nil, errors.Wrap(err, "reading header")
	}

	var header Header
	if err := gobDecode(&header, headerBytes); err != nil {
		return nil, errors.Wrapf(ErrFileFormat, "decoding header: %v", err)
	}
	if err := header.validate(size - dataStart); err != nil {
		return nil, err
	}

	index := make(map[string]IndexEntry, len(header.Index))
	for _, e := range header.Index {
		index[e.Name] = e
	}
	return &Archive{
		reader:    r,
		header:    header,
		index:     index,
		dataStart: dataStart,
	}, nil
}

// OpenReader opens an archive from a reader that knows its length.
func OpenReader(r sizedReaderAt) (*Archive, error) {
	return Open(r, int64(r.Len()))
}

// OpenFile memory maps the archive at path and opens it. The mapping
// is released by Close.
func OpenFile(path string) (*Archive, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "mapping %s", path)
	}
	ar, err := OpenReader(m)
	if err != nil {
		m.Close()
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	ar.closer = m
	return ar, nil
}

// Archive provides concurrent io for a kar file, and can provide
// an io.Reader for each file separately to perform actions on.
type Archive struct {
	reader    io.ReaderAt
	closer    io.Closer
	header    Header
	index     map[string]IndexEntry
	dataStart int64
}

// Header returns the archive header.
func (a *Archive) Header() Header {
	return a.header
}

// Names returns the names of every file in the archive, sorted.
func (a *Archive) Names() []string {
	return a.header.Names()
}

// Stat returns the index entry of a file.
func (a *Archive) Stat(name string) (IndexEntry, error) {
	e, ok := a.index[name]
	if !ok {
		return IndexEntry{}, errors.Wrapf(ErrNotFound, "%s", name)
	}
	return e, nil
}

// ReadAll returns the entire contents of a file with a given name
func (a *Archive) ReadAll(name string) ([]byte, error) {
	f, err := a.Open(name)
	if err != nil {
		return nil, err
	}
	data, err := ioutil.ReadAll(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decompressing %s", name)
	}
	if int64(len(data)) != f.entry.Size {
		return nil, errors.Wrapf(ErrFileFormat, "%s is %d bytes, index says %d", name, len(data), f.entry.Size)
	}
	return data, nil
}

// Open returns a Reader for a file in the Archive
func (a *Archive) Open(name string) (*Reader, error) {
	e, err := a.Stat(name)
	if err != nil {
		return nil, err
	}
	section := io.NewSectionReader(a.reader, a.dataStart+e.Offset, e.CompressedSize)
	return &Reader{
		Reader: lz4.NewReader(section),
		entry:  e,
	}, nil
}

// Close releases the underlying file, if the archive was opened
// with OpenFile.
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}

// Reader is a reader for a single file in an Archive.
// Abstracts away the location that needs to be known.
// Read returns decompressed data.
type Reader struct {
	io.Reader

	entry IndexEntry
}

// Name returns the name of the file.
func (r *Reader) Name() string {
	return r.entry.Name
}

// Size returns the uncompressed size of the file.
func (r *Reader) Size() int64 {
	return r.entry.Size
}
