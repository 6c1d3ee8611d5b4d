// Package slot reads and writes the fixed slotted-record directory embedded
// in a page, protected by a whole-page checksum.
//
// Layout (little-endian):
//
//	byte 0        CRC-8 (polynomial 0x07) over bytes [1, page.Size)
//	bytes 1-2     reserved
//	bytes 3-22    5 x {uint16 size, uint16 offset}
//	bytes 23-     record bodies, not interpreted by this package
//
// Unlike meta pages, a slotted page has no redundant copy to repair from,
// so a checksum mismatch is reported and never auto-repaired.
package slot

import (
	"encoding/binary"

	"pagevault/pkg/dberr"
	"pagevault/pkg/integrity"
	"pagevault/pkg/storage/page"
)

const (
	// Count is the fixed capacity of the directory. There is no free-slot
	// count or growth field; a page always carries exactly Count entries.
	Count = 5

	// CrcPoly is the polynomial of the whole-page checksum. It differs
	// from the meta-page polynomial so corruption signatures of the two
	// structures cannot alias.
	CrcPoly = 0x07

	dirOffset = 3 // directory starts after the checksum and reserved bytes
	slotSize  = 4 // serialized bytes per slot

	component = "SlotDirectory"
)

// Slot locates one variable-length record within a page. A zero Slot marks
// an unused entry.
type Slot struct {
	Size   uint16 // record length in bytes
	Offset uint16 // byte offset of the record within the page
}

// ReadSlots deserializes the directory from buf. It performs no checksum
// validation: callers are expected to have called VerifyChecksum first, or
// to accept the all-zero result an uninitialized page produces.
func ReadSlots(buf []byte) ([Count]Slot, error) {
	var slots [Count]Slot
	if len(buf) != page.Size {
		return slots, errBufferSize("ReadSlots", len(buf))
	}

	for i := range slots {
		base := dirOffset + slotSize*i
		slots[i].Size = binary.LittleEndian.Uint16(buf[base : base+2])
		slots[i].Offset = binary.LittleEndian.Uint16(buf[base+2 : base+4])
	}
	return slots, nil
}

// WriteSlots serializes all Count slots into buf's directory region, then
// recomputes the whole-page checksum into byte 0. Every directory mutation
// is inseparable from a checksum refresh, so a page written through this
// function always verifies.
func WriteSlots(buf []byte, slots [Count]Slot) error {
	if len(buf) != page.Size {
		return errBufferSize("WriteSlots", len(buf))
	}

	for i, s := range slots {
		base := dirOffset + slotSize*i
		binary.LittleEndian.PutUint16(buf[base:base+2], s.Size)
		binary.LittleEndian.PutUint16(buf[base+2:base+4], s.Offset)
	}
	buf[0] = integrity.Crc(CrcPoly, buf[1:])
	return nil
}

// VerifyChecksum recomputes the whole-page checksum and compares it against
// byte 0, failing with dberr.CodeBadChecksum on mismatch.
func VerifyChecksum(buf []byte) error {
	if len(buf) != page.Size {
		return errBufferSize("VerifyChecksum", len(buf))
	}

	if buf[0] != integrity.Crc(CrcPoly, buf[1:]) {
		return dberr.New(dberr.ErrCategoryData, dberr.CodeBadChecksum,
			"slotted page checksum mismatch").
			WithOrigin("VerifyChecksum", component)
	}
	return nil
}

func errBufferSize(op string, got int) *dberr.DBError {
	return dberr.New(dberr.ErrCategoryUser, dberr.CodeInvalidBufferSize,
		"invalid page buffer size").
		WithDetail("expected %d, got %d", page.Size, got).
		WithOrigin(op, component)
}
