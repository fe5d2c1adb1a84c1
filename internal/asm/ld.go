package asm

import (
	"fmt"
)

// ldMatrixRow holds the six irregular opcodes for loading/storing a 24-bit
// register pair through (HL)/(IX+d)/(IY+d), exactly as tabulated in
// spec.md §4.6.
type ldMatrixRow struct {
	HLLoad, HLStore   byte
	IXLoad, IXStore   byte
	IYLoad, IYStore   byte
}

var ldMatrix = map[Reg]ldMatrixRow{
	RegBC: {0x07, 0x0F, 0x07, 0x0F, 0x07, 0x0F},
	RegDE: {0x17, 0x1F, 0x17, 0x1F, 0x17, 0x1F},
	RegHL: {0x27, 0x2F, 0x27, 0x2F, 0x27, 0x2F},
	RegIX: {0x37, 0x3F, 0x37, 0x3E, 0x31, 0x3D},
	RegIY: {0x31, 0x3E, 0x31, 0x3D, 0x37, 0x3E},
}

func isMatrixReg(r Reg) bool {
	_, ok := ldMatrix[r]
	return ok
}

func encLD(ctx *encCtx, lex *Lexer) error {
	dst, src, err := parseTwoOperands(ctx, lex)
	if err != nil {
		return err
	}
	a := ctx.a

	if ok, err := tryLDMatrixLoad(a, dst, src); ok || err != nil {
		return err
	}
	if ok, err := tryLDMatrixStore(a, dst, src); ok || err != nil {
		return err
	}
	if ok, err := tryLDSpecialPair(a, dst, src); ok || err != nil {
		return err
	}
	if ok, err := tryLDImmediate16(a, dst, src); ok || err != nil {
		return err
	}
	if ok, err := tryLDDirect(a, dst, src); ok || err != nil {
		return err
	}
	if ok, err := tryLDAccumulatorIndirect(a, dst, src); ok || err != nil {
		return err
	}
	if ok, err := tryLD8Bit(a, dst, src); ok || err != nil {
		return err
	}

	return fmt.Errorf("%w: unsupported LD operand combination", ErrBadInstruction)
}

func tryLDMatrixLoad(a *Assembler, dst, src Operand) (bool, error) {
	if dst.Kind != OperandReg || !isMatrixReg(dst.Reg) {
		return false, nil
	}
	row := ldMatrix[dst.Reg]
	switch {
	case src.Kind == OperandIndReg && src.Reg == RegHL:
		a.emit(0xED, row.HLLoad)
		return true, nil
	case src.Kind == OperandIxOff:
		a.emit(0xDD, row.IXLoad, byte(src.Displacement))
		return true, nil
	case src.Kind == OperandIyOff:
		a.emit(0xFD, row.IYLoad, byte(src.Displacement))
		return true, nil
	}
	return false, nil
}

func tryLDMatrixStore(a *Assembler, dst, src Operand) (bool, error) {
	if src.Kind != OperandReg || !isMatrixReg(src.Reg) {
		return false, nil
	}
	row := ldMatrix[src.Reg]
	switch {
	case dst.Kind == OperandIndReg && dst.Reg == RegHL:
		a.emit(0xED, row.HLStore)
		return true, nil
	case dst.Kind == OperandIxOff:
		a.emit(0xDD, row.IXStore, byte(dst.Displacement))
		return true, nil
	case dst.Kind == OperandIyOff:
		a.emit(0xFD, row.IYStore, byte(dst.Displacement))
		return true, nil
	}
	return false, nil
}

func tryLDSpecialPair(a *Assembler, dst, src Operand) (bool, error) {
	if dst.Kind != OperandReg || src.Kind != OperandReg {
		return false, nil
	}
	switch {
	case dst.Reg == RegSP && src.Reg == RegHL:
		a.emit(0xF9)
	case dst.Reg == RegSP && src.Reg == RegIX:
		a.emit(0xDD, 0xF9)
	case dst.Reg == RegSP && src.Reg == RegIY:
		a.emit(0xFD, 0xF9)
	case dst.Reg == RegI && src.Reg == RegA:
		a.emit(0xED, 0x47)
	case dst.Reg == RegR && src.Reg == RegA:
		a.emit(0xED, 0x4F)
	case dst.Reg == RegA && src.Reg == RegI:
		a.emit(0xED, 0x57)
	case dst.Reg == RegA && src.Reg == RegR:
		a.emit(0xED, 0x5F)
	case dst.Reg == RegA && src.Reg == RegMB:
		a.emit(0xED, 0x6E)
	case dst.Reg == RegMB && src.Reg == RegA:
		a.emit(0xED, 0x6D)
	default:
		return false, nil
	}
	return true, nil
}

// tryLDImmediate16 handles `LD dd,nnnnnn` where dd is BC/DE/HL/SP/IX/IY and
// nnnnnn is the (24-bit, in ADL mode) immediate.
func tryLDImmediate16(a *Assembler, dst, src Operand) (bool, error) {
	if dst.Kind != OperandReg || src.Kind != OperandImm {
		return false, nil
	}
	if dd, ok := dd16Code(dst.Reg); ok {
		a.emit(packField(0x01, dd, 4, 2))
		a.emit24(src.Value)
		return true, nil
	}
	switch dst.Reg {
	case RegIX:
		a.emit(0xDD, 0x21)
		a.emit24(src.Value)
		return true, nil
	case RegIY:
		a.emit(0xFD, 0x21)
		a.emit24(src.Value)
		return true, nil
	}
	return false, nil
}

// tryLDDirect handles `LD rr,(nn)` / `LD (nn),rr` absolute-address forms.
func tryLDDirect(a *Assembler, dst, src Operand) (bool, error) {
	if dst.Kind == OperandReg && src.Kind == OperandAddr {
		switch dst.Reg {
		case RegHL:
			a.emit(0x2A)
		case RegBC:
			a.emit(0xED, 0x4B)
		case RegDE:
			a.emit(0xED, 0x5B)
		case RegSP:
			a.emit(0xED, 0x7B)
		case RegIX:
			a.emit(0xDD, 0x2A)
		case RegIY:
			a.emit(0xFD, 0x2A)
		case RegA:
			a.emit(0x3A)
		default:
			return false, nil
		}
		a.emit24(src.Value)
		return true, nil
	}
	if dst.Kind == OperandAddr && src.Kind == OperandReg {
		switch src.Reg {
		case RegHL:
			a.emit(0x22)
		case RegBC:
			a.emit(0xED, 0x43)
		case RegDE:
			a.emit(0xED, 0x53)
		case RegSP:
			a.emit(0xED, 0x73)
		case RegIX:
			a.emit(0xDD, 0x22)
		case RegIY:
			a.emit(0xFD, 0x22)
		case RegA:
			a.emit(0x32)
		default:
			return false, nil
		}
		a.emit24(dst.Value)
		return true, nil
	}
	return false, nil
}

// tryLDAccumulatorIndirect handles `LD A,(BC)` / `LD A,(DE)` and the
// corresponding stores.
func tryLDAccumulatorIndirect(a *Assembler, dst, src Operand) (bool, error) {
	if dst.Kind == OperandReg && dst.Reg == RegA && src.Kind == OperandIndReg {
		switch src.Reg {
		case RegBC:
			a.emit(0x0A)
			return true, nil
		case RegDE:
			a.emit(0x1A)
			return true, nil
		}
	}
	if dst.Kind == OperandIndReg && src.Kind == OperandReg && src.Reg == RegA {
		switch dst.Reg {
		case RegBC:
			a.emit(0x02)
			return true, nil
		case RegDE:
			a.emit(0x12)
			return true, nil
		}
	}
	return false, nil
}

// tryLD8Bit handles the general 8-bit forms: reg<-reg, reg<-imm,
// reg<-(HL)/(IX+d)/(IY+d) and their symmetric stores.
func tryLD8Bit(a *Assembler, dst, src Operand) (bool, error) {
	if dst.Kind == OperandReg && is8BitReg(dst.Reg) {
		dcode, _ := reg8Code(dst.Reg)
		switch src.Kind {
		case OperandReg:
			if !is8BitReg(src.Reg) {
				return false, nil
			}
			if err := rejectHLIndexMix(dst, src); err != nil {
				return false, err
			}
			prefix, err := indexPrefix(dst, src)
			if err != nil {
				return false, err
			}
			scode, _ := reg8Code(src.Reg)
			if prefix != 0 {
				a.emit(prefix)
			}
			a.emit(packField(packField(0x40, dcode, 3, 3), scode, 0, 3))
			return true, nil
		case OperandImm:
			if isIndexHalfReg(dst.Reg) {
				a.emit(indexPrefixOf(dst.Reg))
			}
			a.emit(packField(0x06, dcode, 3, 3))
			return true, a.emit8(src.Value)
		case OperandIndReg:
			if src.Reg != RegHL {
				return false, nil
			}
			if isIndexHalfReg(dst.Reg) {
				return false, fmt.Errorf("%w: an index half register cannot load from (HL)", ErrBadInstruction)
			}
			a.emit(packField(0x46, dcode, 3, 3))
			return true, nil
		case OperandIxOff, OperandIyOff:
			if isIndexHalfReg(dst.Reg) {
				return false, fmt.Errorf("%w: an index half register cannot load from an indexed address", ErrBadInstruction)
			}
			prefix := byte(0xDD)
			if src.Kind == OperandIyOff {
				prefix = 0xFD
			}
			a.emit(prefix, packField(0x46, dcode, 3, 3), byte(src.Displacement))
			return true, nil
		}
		return false, nil
	}

	if (dst.Kind == OperandIndReg && dst.Reg == RegHL) || dst.Kind == OperandIxOff || dst.Kind == OperandIyOff {
		switch src.Kind {
		case OperandReg:
			if !is8BitReg(src.Reg) || isIndexHalfReg(src.Reg) {
				return false, nil
			}
			scode, _ := reg8Code(src.Reg)
			return true, emitIndexedOrHL(a, dst, packField(0x70, scode, 0, 3))
		case OperandImm:
			if err := emitIndexedOrHL(a, dst, 0x36); err != nil {
				return false, err
			}
			return true, a.emit8(src.Value)
		}
	}

	return false, nil
}

func isIndexHalfReg(r Reg) bool {
	switch r {
	case RegIXH, RegIXL, RegIYH, RegIYL:
		return true
	}
	return false
}

func indexPrefixOf(r Reg) byte {
	switch r {
	case RegIXH, RegIXL:
		return 0xDD
	case RegIYH, RegIYL:
		return 0xFD
	}
	return 0
}

// emitIndexedOrHL emits the opcode for a (HL)/(IX+d)/(IY+d) memory operand,
// writing the prefix and trailing displacement byte for the indexed forms.
func emitIndexedOrHL(a *Assembler, mem Operand, opcode byte) error {
	switch mem.Kind {
	case OperandIndReg:
		a.emit(opcode)
	case OperandIxOff:
		a.emit(0xDD, opcode, byte(mem.Displacement))
	case OperandIyOff:
		a.emit(0xFD, opcode, byte(mem.Displacement))
	default:
		return fmt.Errorf("%w: expected (HL), (IX+d) or (IY+d)", ErrBadInstruction)
	}
	return nil
}
