package source

import (
	"fmt"
	"os"
	"sort"
)

type FileID uint32

const NoFileID FileID = 0

// File is one source file registered in a FileSet.
type File struct {
	ID      FileID
	Path    string
	Content []byte

	lineStarts []uint32
}

// FileSet owns the files of one compilation. IDs are dense and start
// at 1 so the zero value of FileID means "no file".
type FileSet struct {
	files []*File
}

func NewFileSet() *FileSet {
	return &FileSet{}
}

// Add registers content under path and returns the new file.
func (fs *FileSet) Add(path string, content []byte) *File {
	f := &File{
		ID:      FileID(len(fs.files) + 1),
		Path:    path,
		Content: content,
	}
	f.computeLineStarts()
	fs.files = append(fs.files, f)
	return f
}

// Load reads path from disk and registers it.
func (fs *FileSet) Load(path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	return fs.Add(path, content), nil
}

// Get returns the file with the given ID, or nil.
func (fs *FileSet) Get(id FileID) *File {
	idx := int(id) - 1
	if fs == nil || idx < 0 || idx >= len(fs.files) {
		return nil
	}
	return fs.files[idx]
}

func (f *File) computeLineStarts() {
	f.lineStarts = f.lineStarts[:0]
	f.lineStarts = append(f.lineStarts, 0)
	for i, b := range f.Content {
		if b == '\n' {
			f.lineStarts = append(f.lineStarts, uint32(i+1))
		}
	}
}

// Position converts a byte offset into a 1-based line/column pair.
func (f *File) Position(offset uint32) (line, col int) {
	if f == nil || len(f.lineStarts) == 0 {
		return 1, 1
	}
	i := sort.Search(len(f.lineStarts), func(i int) bool {
		return f.lineStarts[i] > offset
	}) - 1
	if i < 0 {
		i = 0
	}
	return i + 1, int(offset-f.lineStarts[i]) + 1
}

// Line returns the text of the 1-based line, without the newline.
func (f *File) Line(line int) string {
	if f == nil || line < 1 || line > len(f.lineStarts) {
		return ""
	}
	start := f.lineStarts[line-1]
	end := uint32(len(f.Content))
	if line < len(f.lineStarts) {
		end = f.lineStarts[line] - 1
	}
	if end > uint32(len(f.Content)) {
		end = uint32(len(f.Content))
	}
	return string(f.Content[start:end])
}
