package asm

import "fmt"

func encPush(ctx *encCtx, lex *Lexer) error {
	op, err := parseOperand(ctx, lex)
	if err != nil {
		return err
	}
	a := ctx.a
	if op.Kind != OperandReg {
		return fmt.Errorf("%w: push requires a register pair", ErrBadInstruction)
	}
	switch op.Reg {
	case RegIX:
		a.emit(0xDD, 0xE5)
		return nil
	case RegIY:
		a.emit(0xFD, 0xE5)
		return nil
	}
	qq, ok := qq16Code(op.Reg)
	if !ok {
		return fmt.Errorf("%w: push does not accept %v", ErrBadInstruction, op.Reg)
	}
	a.emit(packField(0xC5, qq, 4, 2))
	return nil
}

func encPop(ctx *encCtx, lex *Lexer) error {
	op, err := parseOperand(ctx, lex)
	if err != nil {
		return err
	}
	a := ctx.a
	if op.Kind != OperandReg {
		return fmt.Errorf("%w: pop requires a register pair", ErrBadInstruction)
	}
	switch op.Reg {
	case RegIX:
		a.emit(0xDD, 0xE1)
		return nil
	case RegIY:
		a.emit(0xFD, 0xE1)
		return nil
	}
	qq, ok := qq16Code(op.Reg)
	if !ok {
		return fmt.Errorf("%w: pop does not accept %v", ErrBadInstruction, op.Reg)
	}
	a.emit(packField(0xC1, qq, 4, 2))
	return nil
}

func encEx(ctx *encCtx, lex *Lexer) error {
	dst, src, err := parseTwoOperands(ctx, lex)
	if err != nil {
		return err
	}
	a := ctx.a
	switch {
	case dst.Kind == OperandReg && dst.Reg == RegDE && src.Kind == OperandReg && src.Reg == RegHL:
		a.emit(0xEB)
	case dst.Kind == OperandReg && dst.Reg == RegAF && src.Kind == OperandReg && src.Reg == RegAFAlt:
		a.emit(0x08)
	case dst.Kind == OperandIndReg && dst.Reg == RegSP && src.Kind == OperandReg:
		switch src.Reg {
		case RegHL:
			a.emit(0xE3)
		case RegIX:
			a.emit(0xDD, 0xE3)
		case RegIY:
			a.emit(0xFD, 0xE3)
		default:
			return fmt.Errorf("%w: ex (sp), %v is not supported", ErrBadInstruction, src.Reg)
		}
	default:
		return fmt.Errorf("%w: unsupported ex operand combination", ErrBadInstruction)
	}
	return nil
}

func encIn(ctx *encCtx, lex *Lexer) error {
	dst, src, err := parseTwoOperands(ctx, lex)
	if err != nil {
		return err
	}
	a := ctx.a
	if dst.Kind != OperandReg || !is8BitReg(dst.Reg) {
		return fmt.Errorf("%w: in requires an 8-bit destination register", ErrBadInstruction)
	}
	dcode, _ := reg8Code(dst.Reg)
	switch src.Kind {
	case OperandAddr:
		if dst.Reg != RegA {
			return fmt.Errorf("%w: in r,(n) is only valid for A; use in r,(c)", ErrBadInstruction)
		}
		a.emit(0xDB)
		return a.emit8(src.Value)
	case OperandIndReg:
		if src.Reg != RegC {
			return fmt.Errorf("%w: in only supports (c) or (n) addressing", ErrBadInstruction)
		}
		a.emit(0xED, packField(0x40, dcode, 3, 3))
		return nil
	}
	return fmt.Errorf("%w: unsupported in operand", ErrBadInstruction)
}

func encOut(ctx *encCtx, lex *Lexer) error {
	dst, src, err := parseTwoOperands(ctx, lex)
	if err != nil {
		return err
	}
	a := ctx.a
	if src.Kind != OperandReg || !is8BitReg(src.Reg) {
		return fmt.Errorf("%w: out requires an 8-bit source register", ErrBadInstruction)
	}
	scode, _ := reg8Code(src.Reg)
	switch dst.Kind {
	case OperandAddr:
		if src.Reg != RegA {
			return fmt.Errorf("%w: out (n),r is only valid for A; use out (c),r", ErrBadInstruction)
		}
		a.emit(0xD3)
		return a.emit8(dst.Value)
	case OperandIndReg:
		if dst.Reg != RegC {
			return fmt.Errorf("%w: out only supports (c) or (n) addressing", ErrBadInstruction)
		}
		a.emit(0xED, packField(0x41, scode, 3, 3))
		return nil
	}
	return fmt.Errorf("%w: unsupported out operand", ErrBadInstruction)
}

func encIn0(ctx *encCtx, lex *Lexer) error {
	dst, src, err := parseTwoOperands(ctx, lex)
	if err != nil {
		return err
	}
	if dst.Kind != OperandReg || !is8BitReg(dst.Reg) || src.Kind != OperandAddr {
		return fmt.Errorf("%w: in0 requires r,(n)", ErrBadInstruction)
	}
	dcode, _ := reg8Code(dst.Reg)
	ctx.a.emit(0xED, packField(0x00, dcode, 3, 3))
	return ctx.a.emit8(src.Value)
}

func encOut0(ctx *encCtx, lex *Lexer) error {
	dst, src, err := parseTwoOperands(ctx, lex)
	if err != nil {
		return err
	}
	if src.Kind != OperandReg || !is8BitReg(src.Reg) || dst.Kind != OperandAddr {
		return fmt.Errorf("%w: out0 requires (n),r", ErrBadInstruction)
	}
	scode, _ := reg8Code(src.Reg)
	ctx.a.emit(0xED, packField(0x01, scode, 3, 3))
	return ctx.a.emit8(dst.Value)
}

var leaPeaDestCode = map[Reg]byte{RegBC: 0, RegDE: 1, RegHL: 2, RegIX: 3, RegIY: 4}

func encLea(ctx *encCtx, lex *Lexer) error {
	dst, src, err := parseTwoOperands(ctx, lex)
	if err != nil {
		return err
	}
	a := ctx.a
	if dst.Kind != OperandReg {
		return fmt.Errorf("%w: lea requires a register destination", ErrBadInstruction)
	}
	code, ok := leaPeaDestCode[dst.Reg]
	if !ok {
		return fmt.Errorf("%w: lea does not accept %v as a destination", ErrBadInstruction, dst.Reg)
	}
	switch src.Kind {
	case OperandIxOff:
		a.emit(0xED, packField(0x02, code, 3, 3), byte(src.Displacement))
	case OperandIyOff:
		a.emit(0xED, packField(0x03, code, 3, 3), byte(src.Displacement))
	default:
		return fmt.Errorf("%w: lea requires an (IX+d) or (IY+d) source", ErrBadInstruction)
	}
	return nil
}

func encPea(ctx *encCtx, lex *Lexer) error {
	op, err := parseOperand(ctx, lex)
	if err != nil {
		return err
	}
	a := ctx.a
	switch op.Kind {
	case OperandIxOff:
		a.emit(0xED, 0x65, byte(op.Displacement))
	case OperandIyOff:
		a.emit(0xED, 0x66, byte(op.Displacement))
	default:
		return fmt.Errorf("%w: pea requires an (IX+d) or (IY+d) operand", ErrBadInstruction)
	}
	return nil
}

func encMlt(ctx *encCtx, lex *Lexer) error {
	op, err := parseOperand(ctx, lex)
	if err != nil {
		return err
	}
	if op.Kind != OperandReg {
		return fmt.Errorf("%w: mlt requires a register pair", ErrBadInstruction)
	}
	dd, ok := dd16Code(op.Reg)
	if !ok {
		return fmt.Errorf("%w: mlt does not accept %v", ErrBadInstruction, op.Reg)
	}
	ctx.a.emit(0xED, packField(0x4C, dd, 4, 2))
	return nil
}

func encTst(ctx *encCtx, lex *Lexer) error {
	op, err := parseOperand(ctx, lex)
	if err != nil {
		return err
	}
	a := ctx.a
	switch op.Kind {
	case OperandReg:
		if !is8BitReg(op.Reg) {
			return fmt.Errorf("%w: tst requires an 8-bit register or immediate", ErrBadInstruction)
		}
		code, _ := reg8Code(op.Reg)
		a.emit(0xED, packField(0x04, code, 3, 3))
		return nil
	case OperandImm:
		a.emit(0xED, 0x64)
		return a.emit8(op.Value)
	}
	return fmt.Errorf("%w: unsupported tst operand", ErrBadInstruction)
}

func encIm(ctx *encCtx, lex *Lexer) error {
	op, err := parseOperand(ctx, lex)
	if err != nil {
		return err
	}
	if op.Kind != OperandImm || op.Value.HasSym {
		return fmt.Errorf("%w: im requires a constant mode number", ErrBadInstruction)
	}
	a := ctx.a
	switch op.Value.N.Int() {
	case 0:
		a.emit(0xED, 0x46)
	case 1:
		a.emit(0xED, 0x56)
	case 2:
		a.emit(0xED, 0x5E)
	default:
		return fmt.Errorf("%w: im only accepts mode 0, 1 or 2", ErrBadInstruction)
	}
	return nil
}
