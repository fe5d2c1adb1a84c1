package asm

import (
	"fmt"

	"github.com/Manu343726/ez80toolchain/internal/int24"
	"github.com/Manu343726/ez80toolchain/internal/objfile"
)

func encJP(ctx *encCtx, lex *Lexer) error {
	a := ctx.a
	first, err := parseOperand(ctx, lex)
	if err != nil {
		return err
	}

	if first.Kind == OperandCond || (first.Kind == OperandReg && first.Reg == RegC) {
		if err := expectComma(lex); err != nil {
			return err
		}
		target, err := parseOperand(ctx, lex)
		if err != nil {
			return err
		}
		cc, _ := condCode(first.CC)
		a.emit(packField(0xC2, cc, 3, 3))
		a.emit24(target.Value)
		return nil
	}

	switch first.Kind {
	case OperandIndReg:
		switch first.Reg {
		case RegHL:
			a.emit(0xE9)
		case RegIX:
			a.emit(0xDD, 0xE9)
		case RegIY:
			a.emit(0xFD, 0xE9)
		default:
			return fmt.Errorf("%w: jp (%v) is not supported", ErrBadInstruction, first.Reg)
		}
		return nil
	default:
		a.emit(0xC3)
		a.emit24(first.Value)
		return nil
	}
}

func encJR(ctx *encCtx, lex *Lexer) error {
	a := ctx.a
	first, err := parseOperand(ctx, lex)
	if err != nil {
		return err
	}

	var cc Cond = CondNone
	target := first
	if first.Kind == OperandCond || (first.Kind == OperandReg && first.Reg == RegC) {
		if err := expectComma(lex); err != nil {
			return err
		}
		target, err = parseOperand(ctx, lex)
		if err != nil {
			return err
		}
		cc = first.CC
	}

	pcAtOpcode := a.PC()
	disp, err := relativeDisplacement(ctx.a, target.Value, pcAtOpcode)
	if err != nil {
		return err
	}

	if cc == CondNone {
		a.emit(0x18)
	} else {
		code, ok := condCode(cc)
		if !ok || code > 3 {
			return fmt.Errorf("%w: jr only accepts NZ/Z/NC/C", ErrBadInstruction)
		}
		a.emit(packField(0x20, code, 3, 3))
	}
	a.emit(byte(disp))
	return nil
}

func encDJNZ(ctx *encCtx, lex *Lexer) error {
	a := ctx.a
	target, err := parseOperand(ctx, lex)
	if err != nil {
		return err
	}
	pcAtOpcode := a.PC()
	disp, err := relativeDisplacement(a, target.Value, pcAtOpcode)
	if err != nil {
		return err
	}
	a.emit(0x10)
	a.emit(byte(disp))
	return nil
}

// relativeDisplacement computes `target - (pc_after_opcode_byte + 1)`
// (spec.md §4.6), validating range in pass 2 and rejecting external
// targets (a relative jump must stay within the same linked program).
func relativeDisplacement(a *Assembler, target Value, pcAtOpcode int24.Int24) (int24.Int24, error) {
	if target.HasSym {
		if sym, ok := a.Symbols.Find(target.Sym); ok && sym.Flags == objfile.SymExtern {
			return 0, fmt.Errorf("%w: relative jump cannot target an external symbol", ErrBadInstruction)
		}
	}
	disp := target.N.Sub(pcAtOpcode.Add(int24.New(2)))
	if a.Pass == 2 {
		d := disp.Int()
		if d < -128 || d > 127 {
			return 0, fmt.Errorf("%w: relative jump displacement %d out of range", ErrBadInstruction, d)
		}
	}
	return disp, nil
}

func encCall(ctx *encCtx, lex *Lexer) error {
	a := ctx.a
	first, err := parseOperand(ctx, lex)
	if err != nil {
		return err
	}
	if first.Kind == OperandCond || (first.Kind == OperandReg && first.Reg == RegC) {
		if err := expectComma(lex); err != nil {
			return err
		}
		target, err := parseOperand(ctx, lex)
		if err != nil {
			return err
		}
		cc, _ := condCode(first.CC)
		a.emit(packField(0xC4, cc, 3, 3))
		a.emit24(target.Value)
		return nil
	}
	a.emit(0xCD)
	a.emit24(first.Value)
	return nil
}

func encRet(ctx *encCtx, lex *Lexer) error {
	a := ctx.a
	if atEOL(lex) {
		a.emit(0xC9)
		return nil
	}
	first, err := parseOperand(ctx, lex)
	if err != nil {
		return err
	}
	if first.Kind != OperandCond && !(first.Kind == OperandReg && first.Reg == RegC) {
		return fmt.Errorf("%w: ret accepts only a condition code", ErrBadInstruction)
	}
	cc, _ := condCode(first.CC)
	a.emit(packField(0xC0, cc, 3, 3))
	return nil
}

func encRst(ctx *encCtx, lex *Lexer) error {
	a := ctx.a
	op, err := parseOperand(ctx, lex)
	if err != nil {
		return err
	}
	if op.Kind != OperandImm || op.Value.HasSym {
		return fmt.Errorf("%w: rst requires a constant vector", ErrBadInstruction)
	}
	n := op.Value.N.Int()
	var vec byte
	switch {
	case n >= 0 && n <= 7:
		vec = byte(n) * 8
	case n >= 0 && n <= 0x38 && n%8 == 0:
		vec = byte(n)
	default:
		return fmt.Errorf("%w: rst vector %d is out of range", ErrBadInstruction, n)
	}
	if ctx.variant == "lil" {
		a.emit(0x5B)
	}
	a.emit(0xC7 | vec)
	return nil
}
