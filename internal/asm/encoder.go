package asm

import (
	"fmt"
	"strings"

	"github.com/Manu343726/ez80toolchain/internal/int24"
)

// ErrBadInstruction is the sentinel wrapped by instruction-encoding
// diagnostics (bad operand combination, index-register conflicts, out of
// range displacements/immediates).
var ErrBadInstruction = fmt.Errorf("invalid instruction")

type simpleOp struct {
	Prefix byte // 0 means no prefix byte
	Opcode byte
}

// simpleOps is the table of no-operand instructions, keyed by lowercase
// mnemonic (spec.md §4.6, tier 1).
var simpleOps = map[string]simpleOp{
	"nop":  {0, 0x00},
	"halt": {0, 0x76},
	"di":   {0, 0xF3},
	"ei":   {0, 0xFB},
	"exx":  {0, 0xD9},
	"rlca": {0, 0x07},
	"rrca": {0, 0x0F},
	"rla":  {0, 0x17},
	"rra":  {0, 0x1F},
	"daa":  {0, 0x27},
	"cpl":  {0, 0x2F},
	"scf":  {0, 0x37},
	"ccf":  {0, 0x3F},

	"neg":  {0xED, 0x44},
	"retn": {0xED, 0x45},
	"reti": {0xED, 0x4D},
	"rrd":  {0xED, 0x67},
	"rld":  {0xED, 0x6F},

	"ldi":  {0xED, 0xA0},
	"cpi":  {0xED, 0xA1},
	"ini":  {0xED, 0xA2},
	"outi": {0xED, 0xA3},
	"ldd":  {0xED, 0xA8},
	"cpd":  {0xED, 0xA9},
	"ind":  {0xED, 0xAA},
	"outd": {0xED, 0xAB},
	"ldir": {0xED, 0xB0},
	"cpir": {0xED, 0xB1},
	"inir": {0xED, 0xB2},
	"otir": {0xED, 0xB3},
	"lddr": {0xED, 0xB8},
	"cpdr": {0xED, 0xB9},
	"indr": {0xED, 0xBA},
	"otdr": {0xED, 0xBB},
}

// encHandler encodes one operand-taking mnemonic. variant is "s" for the
// `.s` suffix (8/16-bit forms of add/adc/sbc that would otherwise default
// to 24-bit) and "lil" for `.lil` (rst's long-mode call variant).
type encHandler func(ctx *encCtx, lex *Lexer) error

var encHandlers = map[string]encHandler{
	"ld":  encLD,
	"add": encALU("add", 0x80, 0xC6),
	"adc": encALU("adc", 0x88, 0xCE),
	"sub": encALU("sub", 0x90, 0xD6),
	"sbc": encALU("sbc", 0x98, 0xDE),
	"and": encALU("and", 0xA0, 0xE6),
	"or":  encALU("or", 0xB0, 0xF6),
	"xor": encALU("xor", 0xA8, 0xEE),
	"cp":  encALU("cp", 0xB8, 0xFE),

	"inc": encIncDec(true),
	"dec": encIncDec(false),

	"jp":   encJP,
	"jr":   encJR,
	"djnz": encDJNZ,
	"call": encCall,
	"ret":  encRet,
	"rst":  encRst,

	"push": encPush,
	"pop":  encPop,
	"ex":   encEx,

	"in":   encIn,
	"out":  encOut,
	"in0":  encIn0,
	"out0": encOut0,

	"bit": encBitOp(0x40),
	"set": encBitOp(0xC0),
	"res": encBitOp(0x80),

	"rlc": encShift(0x00),
	"rrc": encShift(0x08),
	"rl":  encShift(0x10),
	"rr":  encShift(0x18),
	"sla": encShift(0x20),
	"sra": encShift(0x28),
	"srl": encShift(0x38),

	"lea": encLea,
	"pea": encPea,
	"mlt": encMlt,
	"tst": encTst,
	"im":  encIm,
}

// packField folds value's low width bits into base at bit offset bit — the
// shape every register/condition-code opcode field in this package uses
// (spec.md §4.6's opcode tables).
func packField(base, value byte, bit, width int) byte {
	result := base
	int24.CreateBitView(&result).Write(value, bit, width)
	return result
}

// encCtx carries per-instruction state: the owning assembler, the base
// mnemonic and any `.s`/`.lil` variant suffix.
type encCtx struct {
	a       *Assembler
	variant string
}

func (c *encCtx) emit(bs ...byte) { c.a.emit(bs...) }

// encodeInstruction is the two-tier dispatch described in spec.md §4.6.
func (a *Assembler) encodeInstruction(name string, lex *Lexer) error {
	base, variant := splitVariant(name)

	if op, ok := simpleOps[base]; ok {
		if variant != "" {
			return fmt.Errorf("%w: %q takes no .%s variant", ErrBadInstruction, base, variant)
		}
		if op.Prefix != 0 {
			a.emit(op.Prefix)
		}
		a.emit(op.Opcode)
		return requireEOL(lex)
	}

	handler, ok := encHandlers[base]
	if !ok {
		return fmt.Errorf("%w: unknown mnemonic %q", ErrBadInstruction, name)
	}

	ctx := &encCtx{a: a, variant: variant}
	if err := handler(ctx, lex); err != nil {
		return err
	}
	return requireEOL(lex)
}

func splitVariant(name string) (base, variant string) {
	if strings.HasSuffix(name, ".lil") {
		return strings.TrimSuffix(name, ".lil"), "lil"
	}
	if strings.HasSuffix(name, ".s") {
		return strings.TrimSuffix(name, ".s"), "s"
	}
	return name, ""
}

func parseOperand(ctx *encCtx, lex *Lexer) (Operand, error) {
	return classifyOperand(lex, ctx.a.evaluator())
}

func parseTwoOperands(ctx *encCtx, lex *Lexer) (Operand, Operand, error) {
	op1, err := parseOperand(ctx, lex)
	if err != nil {
		return Operand{}, Operand{}, err
	}
	if err := expectComma(lex); err != nil {
		return Operand{}, Operand{}, err
	}
	op2, err := parseOperand(ctx, lex)
	if err != nil {
		return Operand{}, Operand{}, err
	}
	return op1, op2, nil
}

// indexPrefix determines the DD/FD prefix byte (or 0) that operands a and b
// require, rejecting IX/IY-half mixes (spec.md §4.6).
func indexPrefix(a, b Operand) (byte, error) {
	aIX, aIY := operandIndexFamily(a)
	bIX, bIY := operandIndexFamily(b)

	usesIX := aIX || bIX
	usesIY := aIY || bIY
	if usesIX && usesIY {
		return 0, fmt.Errorf("%w: cannot mix an IX half/indirection with an IY half/indirection", ErrBadInstruction)
	}
	if usesIX {
		return 0xDD, nil
	}
	if usesIY {
		return 0xFD, nil
	}
	return 0, nil
}

func operandIndexFamily(o Operand) (isIX, isIY bool) {
	switch o.Kind {
	case OperandReg:
		return indexHalf(o.Reg)
	case OperandIxOff:
		return true, false
	case OperandIyOff:
		return false, true
	}
	if o.Reg == RegIX {
		return true, false
	}
	if o.Reg == RegIY {
		return false, true
	}
	return false, false
}

// rejectHLIndexMix enforces "mixing an index half with H or L in the same
// instruction is an error".
func rejectHLIndexMix(a, b Operand) error {
	aIX, aIY := operandIndexFamily(a)
	bIX, bIY := operandIndexFamily(b)
	if (aIX || aIY) && (b.Kind == OperandReg && (b.Reg == RegH || b.Reg == RegL)) {
		return fmt.Errorf("%w: cannot mix an index half register with H/L", ErrBadInstruction)
	}
	if (bIX || bIY) && (a.Kind == OperandReg && (a.Reg == RegH || a.Reg == RegL)) {
		return fmt.Errorf("%w: cannot mix an index half register with H/L", ErrBadInstruction)
	}
	return nil
}
