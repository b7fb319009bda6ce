package binary

import (
	"encoding/binary"
	"math/bits"
)

// Lookup3Checksum is Bob Jenkins' hashlittle with an initial value of 0,
// the checksum stored after version 2 metadata blocks.
func Lookup3Checksum(data []byte) uint32 {
	var v [3]uint32
	for i := range v {
		v[i] = 0xdeadbeef + uint32(len(data))
	}
	// The last one to twelve bytes skip the inner mix and go through the
	// final one instead. An empty input skips both.
	for len(data) > 12 {
		addWords(&v, data)
		lookup3Mix(&v)
		data = data[12:]
	}
	if len(data) == 0 {
		return v[2]
	}
	var tail [12]byte
	copy(tail[:], data)
	addWords(&v, tail[:])
	lookup3Final(&v)
	return v[2]
}

func addWords(v *[3]uint32, b []byte) {
	for i := range v {
		v[i] += binary.LittleEndian.Uint32(b[4*i:])
	}
}

var (
	mixRotations   = [...]int{4, 6, 8, 16, 19, 4}
	finalRotations = [...]int{14, 11, 25, 16, 4, 14, 24}
)

func lookup3Mix(v *[3]uint32) {
	for i, r := range mixRotations {
		x, y, z := &v[i%3], v[(i+1)%3], &v[(i+2)%3]
		*x -= *z
		*x ^= bits.RotateLeft32(*z, r)
		*z += y
	}
}

func lookup3Final(v *[3]uint32) {
	for i, r := range finalRotations {
		x, y := &v[(i+2)%3], v[(i+1)%3]
		*x ^= y
		*x -= bits.RotateLeft32(y, r)
	}
}

// Fletcher32 is the checksum of the fletcher32 filter: big-endian 16-bit
// words summed in ones' complement, a trailing odd byte taken as the high
// half of a word.
func Fletcher32(data []byte) uint32 {
	var sum1, sum2 uint32
	fold := func() {
		sum1 = sum1&0xffff + sum1>>16
		sum2 = sum2&0xffff + sum2>>16
	}
	for n := 0; len(data) > 0; n++ {
		w := uint32(data[0]) << 8
		if len(data) > 1 {
			w |= uint32(data[1])
			data = data[2:]
		} else {
			data = nil
		}
		sum1 += w
		sum2 += sum1
		if n%360 == 359 || len(data) == 0 {
			fold()
		}
	}
	fold()
	return sum2<<16 | sum1
}
