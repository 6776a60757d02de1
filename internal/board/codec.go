package board

import "errors"

// The gnubg position ID packs the board as 80 bits of run-length unary
// code: for every slot (side 0 points 0-23, side 0 bar, then side 1
// likewise) it emits one 1-bit per checker followed by a 0-bit. 15
// checkers and 25 slots per side makes exactly 2*(15+25) = 80 bits, which
// are then written as 14 characters of the base64 alphabet below (the
// final character carries only 2 payload bits).

// IDLength is the length of a position ID string.
const IDLength = 14

const idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// ErrInvalidPositionID is returned for strings that are not well-formed
// position IDs or decode to an illegal board.
var ErrInvalidPositionID = errors.New("invalid position ID")

// Key is a compact board identity: 4 bits per point, 7 words. Two boards
// compare equal iff their Keys compare equal; it is the dedup and cache
// key throughout the engine.
type Key struct {
	Data [7]uint32
}

// MakeKey packs a board into its compact key.
func MakeKey(b Board) Key {
	var k Key
	for i, j := 0, 0; i < 3; i, j = i+1, j+8 {
		k.Data[i] = uint32(b[1][j]) | uint32(b[1][j+1])<<4 |
			uint32(b[1][j+2])<<8 | uint32(b[1][j+3])<<12 |
			uint32(b[1][j+4])<<16 | uint32(b[1][j+5])<<20 |
			uint32(b[1][j+6])<<24 | uint32(b[1][j+7])<<28
		k.Data[i+3] = uint32(b[0][j]) | uint32(b[0][j+1])<<4 |
			uint32(b[0][j+2])<<8 | uint32(b[0][j+3])<<12 |
			uint32(b[0][j+4])<<16 | uint32(b[0][j+5])<<20 |
			uint32(b[0][j+6])<<24 | uint32(b[0][j+7])<<28
	}
	k.Data[6] = uint32(b[0][24]) | uint32(b[1][24])<<4
	return k
}

// FromKey unpacks a compact key back into a board.
func FromKey(k Key) Board {
	var b Board
	for i, j := 0, 0; i < 3; i, j = i+1, j+8 {
		for n := 0; n < 8; n++ {
			b[1][j+n] = uint8(k.Data[i] >> (4 * n) & 0x0f)
			b[0][j+n] = uint8(k.Data[i+3] >> (4 * n) & 0x0f)
		}
	}
	b[0][24] = uint8(k.Data[6] & 0x0f)
	b[1][24] = uint8(k.Data[6] >> 4 & 0x0f)
	return b
}

// bitKey is the 80-bit run-length encoding used by the base64 ID.
type bitKey [10]uint8

func (bk *bitKey) setRun(bitPos, n uint32) {
	k := bitPos / 8
	r := bitPos & 0x7
	v := (uint32(1)<<n - 1) << r

	bk[k] |= uint8(v)
	if k < 8 {
		bk[k+1] |= uint8(v >> 8)
		bk[k+2] |= uint8(v >> 16)
	} else if k == 8 {
		bk[k+1] |= uint8(v >> 8)
	}
}

func packBits(b Board) bitKey {
	var bk bitKey
	var pos uint32
	for side := 0; side < 2; side++ {
		for pt := 0; pt < 25; pt++ {
			if n := uint32(b[side][pt]); n > 0 {
				bk.setRun(pos, n)
				pos += n + 1
			} else {
				pos++
			}
		}
	}
	return bk
}

func unpackBits(bk bitKey) (Board, bool) {
	var b Board
	side, pt := 0, 0
	for _, byt := range bk {
		for k := 0; k < 8; k++ {
			if byt&1 != 0 {
				if side >= 2 || pt >= 25 {
					return b, false
				}
				b[side][pt]++
			} else {
				pt++
				if pt == 25 {
					side++
					pt = 0
				}
			}
			byt >>= 1
		}
	}
	return b, true
}

// PositionID encodes a board as a 14-character gnubg position ID.
func PositionID(b Board) string {
	bk := packBits(b)
	out := make([]byte, IDLength)

	p := bk[:]
	for i := 0; i < 3; i++ {
		out[i*4] = idAlphabet[p[0]>>2]
		out[i*4+1] = idAlphabet[(p[0]&0x03)<<4|p[1]>>4]
		out[i*4+2] = idAlphabet[(p[1]&0x0f)<<2|p[2]>>6]
		out[i*4+3] = idAlphabet[p[2]&0x3f]
		p = p[3:]
	}
	out[12] = idAlphabet[p[0]>>2]
	out[13] = idAlphabet[(p[0]&0x03)<<4]

	return string(out)
}

func alphabetIndex(c byte) uint8 {
	switch {
	case c >= 'A' && c <= 'Z':
		return c - 'A'
	case c >= 'a' && c <= 'z':
		return c - 'a' + 26
	case c >= '0' && c <= '9':
		return c - '0' + 52
	case c == '+':
		return 62
	case c == '/':
		return 63
	}
	return 255
}

// DecodePositionID decodes a position ID string into a board. The string
// must be exactly IDLength characters of the ID alphabet and must decode
// to a legal position.
func DecodePositionID(id string) (Board, error) {
	var b Board
	if len(id) != IDLength {
		return b, ErrInvalidPositionID
	}

	var sex [IDLength]uint8
	for i := 0; i < IDLength; i++ {
		sex[i] = alphabetIndex(id[i])
		if sex[i] == 255 {
			return b, ErrInvalidPositionID
		}
	}

	var bk bitKey
	p := sex[:]
	j := 0
	for i := 0; i < 3; i++ {
		bk[j] = p[0]<<2 | p[1]>>4
		bk[j+1] = p[1]<<4 | p[2]>>2
		bk[j+2] = p[2]<<6 | p[3]
		j += 3
		p = p[4:]
	}
	bk[9] = p[0]<<2 | p[1]>>4

	b, ok := unpackBits(bk)
	if !ok || !Valid(b) {
		return b, ErrInvalidPositionID
	}
	return b, nil
}
