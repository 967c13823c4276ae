// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar

import (
	"bytes"
	"io"
	"io/ioutil"

	"github.com/pierrec/lz4"
	"golang.org/x/exp/mmap"
)

// Open opens the kar archived from r. It will also check
// if the file is actually a kar archive, will return an error
// when file incorrect.
func Open(r io.ReaderAt) (*Archive, error) {
	fileMagic := make([]byte, MagicLength)
	if num, err := r.ReadAt(fileMagic, 0); err != nil || num < MagicLength {
		return nil, ErrFileFormat
	} else if !bytes.Equal(fileMagic, magic[:]) {
		return nil, ErrFileFormat
	}

	headerSizeBytes := make([]byte, HeaderSizeNumberLength)
	if num, err := r.ReadAt(headerSizeBytes, MagicLength); err != nil || num < HeaderSizeNumberLength {
		return nil, ErrFileFormat
	}

	headerSize, err := binaryToint64(headerSizeBytes)
	if err != nil || headerSize <= 0 {
		return nil, ErrFileFormat
	}

	headerBytes := make([]byte, headerSize)
	if num, err := r.ReadAt(headerBytes, MagicLength+HeaderSizeNumberLength); int64(num) < headerSize {
		if err == nil || err == io.EOF {
			return nil, ErrFileFormat
		}
		return nil, err
	}

	var header Header
	if err := gobDecode(&header, headerBytes); err != nil {
		return nil, ErrFileFormat
	}

	return &Archive{
		reader: r,
		header: header,
		base:   MagicLength + HeaderSizeNumberLength + headerSize,
	}, nil
}

// OpenFile memory maps the file at path and opens it as an archive.
// The Archive must be closed to unmap the file.
func OpenFile(path string) (*Archive, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	ar, err := Open(r)
	if err != nil {
		r.Close()
		return nil, err
	}
	ar.closer = r
	return ar, nil
}

// Archive provides concurrent io for a kar file, and can provide
// an io.Reader for each file separately to perform actions on.
type Archive struct {
	reader io.ReaderAt
	closer io.Closer
	header Header
	base   int64
}

// Header returns the archive header
func (a *Archive) Header() Header {
	return a.header
}

// Names lists the files in the archive in the order they were added
func (a *Archive) Names() []string {
	names := make([]string, 0, len(a.header.Index))
	for _, e := range a.header.Index {
		names = append(names, e.Name)
	}
	return names
}

// ReadAll returns the entire contents of a file with a given name
func (a *Archive) ReadAll(name string) ([]byte, error) {
	r, err := a.Open(name)
	if err != nil {
		return nil, err
	}
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) != r.entry.Size {
		return nil, ErrFileFormat
	}
	return data, nil
}

// Open returns a Reader for a file in the Archive
func (a *Archive) Open(name string) (*Reader, error) {
	entry, ok := a.header.Find(name)
	if !ok {
		return nil, ErrNotFound
	}
	section := io.NewSectionReader(a.reader, a.base+entry.Offset, entry.CompressedSize)
	return &Reader{
		entry:  entry,
		reader: lz4.NewReader(section),
	}, nil
}

// Close releases the underlying file if the archive owns it
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// Reader is a reader for a single file in an Archive.
// Abstracts away the location that needs to be known.
type Reader struct {
	entry  IndexEntry
	reader io.Reader
}

// Size returns the decompressed size of the file
func (r *Reader) Size() int64 {
	return r.entry.Size
}

// Read reads already decompressed data
func (r *Reader) Read(p []byte) (n int, err error) {
	return r.reader.Read(p)
}
