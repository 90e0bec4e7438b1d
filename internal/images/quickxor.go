package images

import (
	"encoding/base64"
	"encoding/binary"
	"hash"
)

const (
	quickXorWidth = 160
	quickXorShift = 11
	quickXorSize  = (quickXorWidth-1)/8 + 1
)

type quickXor struct {
	cells      [3]uint64
	length     int64
	shiftSoFar int
}

var _ hash.Hash = (*quickXor)(nil)

// NewQuickXorHash returns the content hash OneDrive and SharePoint compute for
// every file, so image names stay comparable with the hashes Graph reports.
func NewQuickXorHash() hash.Hash {
	return &quickXor{}
}

// ContentHash returns the URL-safe base64 QuickXorHash of data.
func ContentHash(data []byte) string {
	h := NewQuickXorHash()
	_, _ = h.Write(data)
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

func (q *quickXor) Write(p []byte) (int, error) {
	size := len(p)
	vectorIndex := q.shiftSoFar / 64
	vectorOffset := q.shiftSoFar % 64
	iterations := min(size, quickXorWidth)
	last := len(q.cells) - 1

	for i := range iterations {
		isLast := vectorIndex == last
		bitsInCell := 64
		if isLast {
			bitsInCell = quickXorWidth % 64
		}

		if vectorOffset <= bitsInCell-8 {
			for j := i; j < size; j += quickXorWidth {
				q.cells[vectorIndex] ^= uint64(p[j]) << vectorOffset
			}
		} else {
			next := vectorIndex + 1
			if isLast {
				next = 0
			}
			low := bitsInCell - vectorOffset

			var xored byte
			for j := i; j < size; j += quickXorWidth {
				xored ^= p[j]
			}
			q.cells[vectorIndex] ^= uint64(xored) << vectorOffset
			q.cells[next] ^= uint64(xored) >> low
		}

		vectorOffset += quickXorShift
		for vectorOffset >= bitsInCell {
			if isLast {
				vectorIndex = 0
			} else {
				vectorIndex++
			}
			vectorOffset -= bitsInCell
		}
	}

	q.shiftSoFar = (q.shiftSoFar + quickXorShift*(size%quickXorWidth)) % quickXorWidth
	q.length += int64(size)
	return size, nil
}

func (q *quickXor) Sum(b []byte) []byte {
	out := make([]byte, quickXorSize)
	for i := 0; i < len(q.cells)-1; i++ {
		binary.LittleEndian.PutUint64(out[i*8:], q.cells[i])
	}
	var tail [8]byte
	binary.LittleEndian.PutUint64(tail[:], q.cells[len(q.cells)-1])
	copy(out[(len(q.cells)-1)*8:], tail[:quickXorSize-(len(q.cells)-1)*8])

	var length [8]byte
	binary.LittleEndian.PutUint64(length[:], uint64(q.length))
	offset := quickXorWidth/8 - 8
	for i := range length {
		out[offset+i] ^= length[i]
	}
	return append(b, out...)
}

func (q *quickXor) Reset() {
	*q = quickXor{}
}

func (q *quickXor) Size() int {
	return quickXorSize
}

func (q *quickXor) BlockSize() int {
	return 64
}
