// Package meta stores a critical logical record as a crash-safe
// (main, backup) page pair.
//
// Each stored page holds a PayloadSize-byte payload followed by a one-byte
// CRC-8 of that payload. The backup page always holds the last value that
// was durably committed to main before the most recent overwrite attempt:
// Write copies main to backup and syncs the file before it touches main, so
// the only crash-vulnerable window is the main overwrite itself, and a torn
// main is transparently repaired from backup on the next Read.
//
// Callers must serialize all access to a given file. The repair-on-read
// path rewrites main unconditionally on a checksum mismatch; under a future
// concurrent design that write must be gated by the same external lock that
// serializes Write.
package meta

import (
	"os"

	"pagevault/pkg/dberr"
	"pagevault/pkg/integrity"
	"pagevault/pkg/primitives"
	"pagevault/pkg/storage/page"
)

const (
	// PayloadSize is the length of the logical record. The final byte of
	// each stored page holds the payload's checksum.
	PayloadSize = page.Size - 1

	// CrcPoly is the polynomial protecting meta pages. It differs from
	// the slotted-page polynomial so corruption signatures of the two
	// structures cannot alias.
	CrcPoly = 0xB0

	component = "MetaPage"
)

// Pair names the two pages that together hold one logical record.
type Pair struct {
	Main   primitives.PageNumber
	Backup primitives.PageNumber
}

// Init stamps an all-zero, checksum-valid record onto both pages of the
// pair: backup first, then a sync, then main. If the backup write fails,
// main is untouched; if the main write fails, backup already holds a valid
// all-zero page, so even a failed Init leaves a recoverable state.
func (p Pair) Init(f *os.File) error {
	buf := make([]byte, page.Size)
	buf[PayloadSize] = integrity.Crc(CrcPoly, buf[:PayloadSize])

	if err := page.Write(f, p.Backup, buf); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return dberr.Wrap(err, "Init", component)
	}
	return page.Write(f, p.Main, buf)
}

// Write durably replaces the record with payload, which must be exactly
// PayloadSize bytes.
//
// Main's current content is first copied to backup and the file is synced;
// that sync is the durability barrier bounding the crash-recovery window
// and its position between the copy and the overwrite must never change.
// Only then is payload, with its checksum appended, written over main.
// If the copy fails, main is untouched and both pages keep the prior value.
// If the main write fails, main may be torn but backup holds the prior
// value with a valid checksum.
func (p Pair) Write(f *os.File, payload []byte) error {
	if len(payload) != PayloadSize {
		return errPayloadSize("Write", len(payload))
	}

	if err := page.Copy(f, p.Main, p.Backup); err != nil {
		return err
	}
	// The backup must reach the storage medium before main is overwritten.
	if err := f.Sync(); err != nil {
		return dberr.Wrap(err, "Write", component)
	}

	buf := make([]byte, page.Size)
	copy(buf[:PayloadSize], payload)
	buf[PayloadSize] = integrity.Crc(CrcPoly, payload)
	return page.Write(f, p.Main, buf)
}

// Read copies the current record into out, which must be exactly
// PayloadSize bytes.
//
// Main is read and its stored checksum compared against one recomputed from
// its payload. A mismatch is an expected, handled condition: backup is read
// in its place, its checksum re-stamped, and the reconstituted page written
// back over main, healing it in place with no separate recovery pass. Read
// fails only if an I/O step fails; as long as at least one page of the pair
// is intact with a valid checksum, it returns good data.
func (p Pair) Read(f *os.File, out []byte) error {
	if len(out) != PayloadSize {
		return errPayloadSize("Read", len(out))
	}

	buf := make([]byte, page.Size)
	if err := page.Read(f, p.Main, buf); err != nil {
		return err
	}
	if buf[PayloadSize] != integrity.Crc(CrcPoly, buf[:PayloadSize]) {
		// The stored checksum disagrees with the content. It does not
		// matter what went wrong, only that backup must take main's place.
		if err := page.Read(f, p.Backup, buf); err != nil {
			return err
		}
		buf[PayloadSize] = integrity.Crc(CrcPoly, buf[:PayloadSize])
		if err := page.Write(f, p.Main, buf); err != nil {
			return err
		}
	}
	copy(out, buf[:PayloadSize])
	return nil
}

func errPayloadSize(op string, got int) *dberr.DBError {
	return dberr.New(dberr.ErrCategoryUser, dberr.CodeInvalidBufferSize,
		"invalid payload size").
		WithDetail("expected %d, got %d", PayloadSize, got).
		WithOrigin(op, component)
}
