// Package page provides bounds-checked fixed-size page I/O over a single
// backing file.
//
// The file handle is owned by the caller and borrowed for the duration of
// each call; this package never opens, closes, or truncates it. The page
// count is recomputed from the file's current length on every call, so the
// bound always reflects on-disk size, and every call moves the file's seek
// position. Callers must serialize all access to a given file; concurrent
// use requires an external locking layer.
package page

import (
	"io"
	"os"

	"pagevault/pkg/dberr"
	"pagevault/pkg/primitives"
)

const (
	// Size is the size of each page in bytes (8KB). A backing file's
	// length is always an exact multiple of Size.
	Size = 8192

	component = "PageStore"
)

// Count returns the number of pages currently in the file, derived from its
// length. A partial trailing page is never counted; well-formed files do not
// have one.
func Count(f *os.File) (primitives.PageNumber, error) {
	info, err := f.Stat()
	if err != nil {
		return 0, dberr.Wrap(err, "Count", component)
	}
	return primitives.PageNumber(info.Size() / Size), nil
}

// Read fills buf with the content of the given page. The page must already
// exist: reading at or past the current page count fails with
// dberr.CodeOutOfRange. buf must be exactly Size bytes. A short read is
// reported as an error rather than returning a partial page.
func Read(f *os.File, pageNo primitives.PageNumber, buf []byte) error {
	if len(buf) != Size {
		return errBufferSize("Read", len(buf))
	}

	count, err := Count(f)
	if err != nil {
		return err
	}
	if pageNo+1 > count {
		return errOutOfRange("Read", "tried to read distant page", pageNo, count)
	}

	if _, err := f.Seek(int64(pageNo)*Size, io.SeekStart); err != nil {
		return dberr.Wrap(err, "Read", component)
	}
	if _, err := io.ReadFull(f, buf); err != nil {
		return dberr.Wrap(err, "Read", component)
	}
	return nil
}

// Write stores buf as the content of the given page. Writing past the
// current page count fails with dberr.CodeOutOfRange, with one exception:
// pageNo equal to the current page count is legal and appends exactly one
// page. The asymmetry with Read is intentional: a file can only ever grow
// by one page at a time, so no gap can be created. buf must be exactly Size
// bytes.
func Write(f *os.File, pageNo primitives.PageNumber, buf []byte) error {
	if len(buf) != Size {
		return errBufferSize("Write", len(buf))
	}

	count, err := Count(f)
	if err != nil {
		return err
	}
	if pageNo > count {
		return errOutOfRange("Write", "tried to write distant page", pageNo, count)
	}

	if _, err := f.Seek(int64(pageNo)*Size, io.SeekStart); err != nil {
		return dberr.Wrap(err, "Write", component)
	}
	if _, err := f.Write(buf); err != nil {
		return dberr.Wrap(err, "Write", component)
	}
	return nil
}

// Copy copies the content of page src to page dst through a scratch buffer.
// Copying a page onto itself fails with dberr.CodeSelfCopy. The source is
// read before the destination is written, so a source error takes precedence
// and leaves the destination untouched.
func Copy(f *os.File, src, dst primitives.PageNumber) error {
	if src == dst {
		return dberr.New(dberr.ErrCategoryUser, dberr.CodeSelfCopy,
			"tried to copy page to itself").
			WithDetail("page %d", src).
			WithOrigin("Copy", component)
	}

	buf := make([]byte, Size)
	if err := Read(f, src, buf); err != nil {
		return err
	}
	return Write(f, dst, buf)
}

func errOutOfRange(op, msg string, pageNo, count primitives.PageNumber) *dberr.DBError {
	return dberr.New(dberr.ErrCategoryUser, dberr.CodeOutOfRange, msg).
		WithDetail("page %d, page count %d", pageNo, count).
		WithOrigin(op, component)
}

func errBufferSize(op string, got int) *dberr.DBError {
	return dberr.New(dberr.ErrCategoryUser, dberr.CodeInvalidBufferSize,
		"invalid page buffer size").
		WithDetail("expected %d, got %d", Size, got).
		WithOrigin(op, component)
}
