// Package codec implements the two integer codecs shared by the builder,
// merger, and list reader: varbyte encoding and the d-gap transform.
package codec

import (
	pipeerr "github.com/indexbuild/pipeline/pkg/errors"
)

// AppendVarbyte appends the little-endian base-128 varbyte encoding of x to
// dst and returns the extended slice. Every non-terminal byte has its high
// bit set; the terminal byte has it clear. Encoding 0 is the single byte
// 0x00.
func AppendVarbyte(dst []byte, x uint32) []byte {
	for x >= 0x80 {
		dst = append(dst, byte(x&0x7F)|0x80)
		x >>= 7
	}
	return append(dst, byte(x))
}

// DecodeVarbyte decodes one varbyte codeword starting at src[0] and returns
// the decoded value along with the number of bytes consumed. It returns
// ErrTruncatedCodeword if src is exhausted before a terminator byte (a byte
// with the high bit clear) is found.
func DecodeVarbyte(src []byte) (value uint32, n int, err error) {
	var shift uint
	for i := 0; i < len(src); i++ {
		b := src[i]
		value |= uint32(b&0x7F) << shift
		if b&0x80 == 0 {
			return value, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, pipeerr.New(pipeerr.ErrTruncatedCodeword, "varbyte codeword not terminated before end of buffer")
}

// DecodeVarbyteN decodes count consecutive varbyte codewords from src,
// returning the decoded values and the total number of bytes consumed.
func DecodeVarbyteN(src []byte, count int) ([]uint32, int, error) {
	values := make([]uint32, count)
	offset := 0
	for i := 0; i < count; i++ {
		v, n, err := DecodeVarbyte(src[offset:])
		if err != nil {
			return nil, 0, err
		}
		values[i] = v
		offset += n
	}
	return values, offset, nil
}
