// Package program reads program images from disk: the "ProgramFile"
// collaborator of spec.md §6. It is grounded on the teacher's ObjectCode
// reader (internal/vm/loader.go in the example this was built from), cut
// down to what the loader needs: a load address, a size, and byte access.
package program

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/so24b/kernel/internal/machine"
)

// Image holds a program's load address and its code/data words.
type Image struct {
	LoadAddress machine.Word
	Code        []machine.Word
}

// Size returns the number of words the image occupies.
func (img *Image) Size() int {
	return len(img.Code)
}

// Data returns the word at a virtual offset from LoadAddress, following the
// program's own addressing -- va is a full virtual address, not an offset.
func (img *Image) Data(va machine.Word) (machine.Word, bool) {
	if va < img.LoadAddress {
		return 0, false
	}

	idx := int(va - img.LoadAddress)
	if idx >= len(img.Code) {
		return 0, false
	}

	return img.Code[idx], true
}

// Open reads a program image file. The on-disk format is a two-byte
// big-endian load address followed by big-endian words, mirroring the
// object-code format this kernel's loader was modeled on.
func Open(path string) (*Image, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrProgramFile, path, err)
	}

	return Decode(b)
}

// Decode parses an image from its on-disk byte representation.
func Decode(b []byte) (*Image, error) {
	if len(b) < 2 {
		return nil, fmt.Errorf("%w: image too small", ErrProgramFile)
	}

	in := bytes.NewReader(b)

	var orig uint16
	if err := binary.Read(in, binary.BigEndian, &orig); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProgramFile, err)
	}

	code := make([]machine.Word, len(b)/2-1)
	if err := binary.Read(in, binary.BigEndian, code); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProgramFile, err)
	}

	if len(code) == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrProgramFile)
	}

	return &Image{LoadAddress: machine.Word(orig), Code: code}, nil
}

// Encode is the inverse of Decode; tests use it to produce fixture images
// without a separate assembler.
func Encode(img *Image) ([]byte, error) {
	var buf bytes.Buffer

	if err := binary.Write(&buf, binary.BigEndian, uint16(img.LoadAddress)); err != nil {
		return nil, err
	}

	if err := binary.Write(&buf, binary.BigEndian, img.Code); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

var ErrProgramFile = errors.New("program file error")

// DirOpener opens program images by name relative to a base directory. It
// is the default ProgramOpener implementation used outside tests.
type DirOpener struct {
	Dir string
}

// Open reads the named image from the opener's directory.
func (d DirOpener) Open(name string) (*Image, error) {
	return Open(filepath.Join(d.Dir, name))
}
