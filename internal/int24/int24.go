// Package int24 implements the signed 24-bit arithmetic type used for
// addresses and expression values throughout the eZ80 ADL toolchain.
package int24

import (
	"golang.org/x/exp/constraints"
)

// Int24 is a signed 24-bit integer stored in a 32-bit word. All arithmetic
// on it wraps at 24 bits, matching the expression evaluator's documented
// wrapping semantics (spec.md §3).
type Int24 int32

const (
	Mask8  = 0xFF
	Mask16 = 0xFFFF
	Mask24 = 0xFFFFFF

	signBit = 0x800000
)

// New truncates an arbitrary int to 24 bits and sign-extends it.
func New(v int) Int24 {
	return signExtend(int32(v) & Mask24)
}

func signExtend(v int32) Int24 {
	v &= Mask24
	if v&signBit != 0 {
		v |= ^int32(Mask24)
	}
	return Int24(v)
}

// Wrap re-applies 24-bit wrapping and sign extension; used after any
// arithmetic operation performed in wider Go integer types.
func Wrap(v int64) Int24 {
	return signExtend(int32(v & Mask24))
}

func (v Int24) Add(other Int24) Int24 { return Wrap(int64(v) + int64(other)) }
func (v Int24) Sub(other Int24) Int24 { return Wrap(int64(v) - int64(other)) }
func (v Int24) Mul(other Int24) Int24 { return Wrap(int64(v) * int64(other)) }

// Div performs wrapping integer division. The caller is responsible for
// detecting division by zero before calling Div (the assembler reports it
// as a semantic error and substitutes zero, per spec.md §4.2).
func (v Int24) Div(other Int24) Int24 {
	if other == 0 {
		return 0
	}
	return Wrap(int64(v) / int64(other))
}

func (v Int24) Neg() Int24 { return Wrap(-int64(v)) }

// Unsigned24 returns the value's low 24 bits as an unsigned quantity,
// suitable for byte emission.
func (v Int24) Unsigned24() uint32 {
	return uint32(v) & Mask24
}

func (v Int24) Byte() byte {
	return byte(uint32(v) & Mask8)
}

func (v Int24) Word() uint16 {
	return uint16(uint32(v) & Mask16)
}

func (v Int24) Int() int {
	return int(v)
}

// PutLE24 writes v's low 24 bits to dst[0:3] in little-endian order.
func PutLE24(dst []byte, v uint32) {
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v >> 16)
}

// LE24 reads a 24-bit little-endian unsigned value from src[0:3].
func LE24(src []byte) uint32 {
	return uint32(src[0]) | uint32(src[1])<<8 | uint32(src[2])<<16
}

// BitView is a read/write view over an unsigned integer's bit fields. The
// instruction encoder uses it (via CreateBitView's Write) to fold register
// and condition codes into opcode bytes.
type BitView[T constraints.Unsigned] struct {
	Bits *T
}

// AllOnes returns an all-ones bitmask of the given width.
func AllOnes[T constraints.Unsigned](bits int) T {
	if bits <= 0 {
		return 0
	}
	return (T(1) << uint(bits)) - T(1)
}

func CreateBitView[T constraints.Unsigned](value *T) BitView[T] {
	return BitView[T]{Bits: value}
}

func (b BitView[T]) Read(bit, width int) T {
	return (*b.Bits >> uint(bit)) & AllOnes[T](width)
}

func (b BitView[T]) Write(value T, bit, width int) {
	cleared := value & AllOnes[T](width)
	*b.Bits |= cleared << uint(bit)
}
