// Package integrity provides the bit-serial CRC-8 engine used to detect
// on-disk corruption. Different structures use different polynomials so a
// corruption signature in one structure cannot alias as valid in another.
package integrity

// register is the transient accumulator of one checksum computation: one
// byte of look-ahead plus a cursor over the bits not yet consumed. It is
// never persisted.
type register struct {
	current byte   // look-ahead byte, seeded with the first data byte
	data    []byte // input being consumed
	bit     uint   // bit position within data[index], 7 = most significant
	index   int    // byte position within data, starts past the seed byte
}

func newRegister(data []byte) register {
	var seed byte
	if len(data) > 0 {
		seed = data[0]
	}
	return register{
		current: seed,
		data:    data,
		bit:     7,
		index:   1,
	}
}

// shift consumes one input bit, reporting the bit pushed out of the
// register's top and whether any input remained to consume. Bits past the
// end of the input read as zero, which flushes the look-ahead byte through
// the register.
func (r *register) shift() (topSet bool, ok bool) {
	if r.index > len(r.data) {
		return false, false
	}
	topSet = r.current>>7 == 1
	r.current = r.current<<1 | r.pop()
	return topSet, true
}

// pop reads the bit under the cursor and advances it. The cursor may sit one
// byte past the input; that final byte reads as eight zero bits.
func (r *register) pop() byte {
	var bit byte
	if r.index < len(r.data) {
		bit = r.data[r.index] >> r.bit & 1
	}
	if r.bit == 0 {
		r.bit = 7
		r.index++
	} else {
		r.bit--
	}
	return bit
}

// Crc computes the bit-serial CRC-8 of data under the given polynomial,
// MSB-first. Each time a set bit leaves the top of the register, the
// register is exclusive-ORed with the polynomial; the final register value
// is the checksum. Empty input yields zero for every polynomial.
func Crc(poly byte, data []byte) byte {
	r := newRegister(data)
	for {
		topSet, ok := r.shift()
		if !ok {
			return r.current
		}
		if topSet {
			r.current ^= poly
		}
	}
}
