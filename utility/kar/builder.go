// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar

import (
	"io"
	"io/ioutil"
	"os"
	"sync"

	"github.com/pierrec/lz4"
)

// NewBuilder creates a new Builder. Do not fill the Index in
// the header, it will be overwritten anyway.
func NewBuilder(header Header) (*Builder, error) {
	temp, err := ioutil.TempDir("", "karBuilder")
	if err != nil {
		return nil, ErrTempFail
	}
	return &Builder{
		tempDir: temp,
		header:  header,
	}, nil
}

type tempFile struct {

	// Name is the actual name of the file
	Name string

	// TempName is the path of the compressed copy
	TempName string

	// Size in uncompressed state
	Size int64

	Compressed int64
}

// Builder is the high level builder for the archive format.
// Arhives are versioned and cannot be appended to, This Builder
// is the way to create an archive. Whenever Add is called, the Builder
// stores the compressed file in a temporary dir, then finally bundles
// them togeter and writes them out with WriteTo.
type Builder struct {
	tempDir string
	header  Header

	mutex sync.Mutex
	files []tempFile
}

// Add appends data to the builder with a given name.
// Will block until lz4 finishes compression. Is safe
// to use concurrently in different goroutines.
func (b *Builder) Add(name string, r io.Reader) error {
	f, err := ioutil.TempFile(b.tempDir, "entry")
	if err != nil {
		return ErrTempFail
	}
	defer f.Close()

	writer := lz4.NewWriter(f)
	written, err := io.Copy(writer, r)
	if err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		return err
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.files = append(b.files, tempFile{
		Name:       name,
		TempName:   f.Name(),
		Size:       written,
		Compressed: info.Size(),
	})
	return nil
}

// Len returns the number of files added so far
func (b *Builder) Len() int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return len(b.files)
}

// WriteTo bundles and writes all of the files added to the Builder
// into a kar archive that is ready to use.
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	header := b.header
	header.Index = nil
	var offset int64
	for _, v := range b.files {
		header.Index = append(header.Index, IndexEntry{
			Name:           v.Name,
			Offset:         offset,
			Size:           v.Size,
			CompressedSize: v.Compressed,
		})
		offset += v.Compressed
	}

	rawHeader, err := gobEncode(header)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, part := range [][]byte{magic[:], int64ToBinary(int64(len(rawHeader))), rawHeader} {
		n, err := w.Write(part)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}

	for _, v := range b.files {
		n, err := copyFile(w, v.TempName)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Close removes the temporary files
func (b *Builder) Close() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.files = nil
	return os.RemoveAll(b.tempDir)
}

func copyFile(w io.Writer, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, ErrTempFail
	}
	defer f.Close()
	return io.Copy(w, f)
}
