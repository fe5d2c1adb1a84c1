package asm

import "fmt"

// encALU builds the handler for one 8-bit accumulator ALU op (add, adc,
// sub, sbc, and, or, xor, cp). regBase is the opcode for "op A,r" with r=0
// (B); immOpcode is "op A,n"'s opcode. A leading "A," operand is optional:
// both `add a,b` and `add b` are accepted, matching how the real mnemonic
// always operates against the accumulator.
func encALU(name string, regBase, immOpcode byte) encHandler {
	return func(ctx *encCtx, lex *Lexer) error {
		first, err := parseOperand(ctx, lex)
		if err != nil {
			return err
		}

		if first.Kind == OperandReg && (first.Reg == RegHL || first.Reg == RegIX || first.Reg == RegIY) {
			if name != "add" && name != "adc" && name != "sbc" {
				return fmt.Errorf("%w: %s does not accept a 16-bit destination", ErrBadInstruction, name)
			}
			if err := expectComma(lex); err != nil {
				return err
			}
			rhs, err := parseOperand(ctx, lex)
			if err != nil {
				return err
			}
			if ctx.variant == "s" {
				ctx.a.emit(0x40)
			}
			return encodeWideALU(ctx.a, name, first.Reg, rhs)
		}

		src := first
		if lex.Peek().Kind == TokComma {
			if first.Kind != OperandReg || first.Reg != RegA {
				return fmt.Errorf("%w: %s with two operands must start with A", ErrBadInstruction, name)
			}
			lex.Next()
			src, err = parseOperand(ctx, lex)
			if err != nil {
				return err
			}
		}

		a := ctx.a
		if ctx.variant == "s" {
			a.emit(0x40)
		}

		switch src.Kind {
		case OperandReg:
			if !is8BitReg(src.Reg) {
				return fmt.Errorf("%w: %s requires an 8-bit register operand", ErrBadInstruction, name)
			}
			if isIndexHalfReg(src.Reg) {
				a.emit(indexPrefixOf(src.Reg))
			}
			scode, _ := reg8Code(src.Reg)
			a.emit(packField(regBase, scode, 0, 3))
			return nil
		case OperandImm:
			a.emit(immOpcode)
			return a.emit8(src.Value)
		case OperandIndReg:
			if src.Reg != RegHL {
				return fmt.Errorf("%w: %s only supports (HL) indirection", ErrBadInstruction, name)
			}
			a.emit(regBase | 6)
			return nil
		case OperandIxOff:
			a.emit(0xDD, regBase|6, byte(src.Displacement))
			return nil
		case OperandIyOff:
			a.emit(0xFD, regBase|6, byte(src.Displacement))
			return nil
		}
		return fmt.Errorf("%w: unsupported operand for %s", ErrBadInstruction, name)
	}
}

// encIncDec builds the shared INC/DEC handler: 8-bit register, (HL)/(IX+d)/
// (IY+d), or a 16-bit register pair (BC/DE/HL/SP/IX/IY).
func encIncDec(isInc bool) encHandler {
	return func(ctx *encCtx, lex *Lexer) error {
		op, err := parseOperand(ctx, lex)
		if err != nil {
			return err
		}
		a := ctx.a

		if op.Kind == OperandReg && is8BitReg(op.Reg) {
			if isIndexHalfReg(op.Reg) {
				a.emit(indexPrefixOf(op.Reg))
			}
			code, _ := reg8Code(op.Reg)
			if isInc {
				a.emit(packField(0x04, code, 3, 3))
			} else {
				a.emit(packField(0x05, code, 3, 3))
			}
			return nil
		}

		if op.Kind == OperandReg {
			if dd, ok := dd16Code(op.Reg); ok {
				if isInc {
					a.emit(packField(0x03, dd, 4, 2))
				} else {
					a.emit(packField(0x0B, dd, 4, 2))
				}
				return nil
			}
			switch op.Reg {
			case RegIX:
				a.emit(0xDD)
			case RegIY:
				a.emit(0xFD)
			default:
				return fmt.Errorf("%w: inc/dec does not accept %v", ErrBadInstruction, op.Reg)
			}
			if isInc {
				a.emit(0x23)
			} else {
				a.emit(0x2B)
			}
			return nil
		}

		opcode := byte(0x34)
		if !isInc {
			opcode = 0x35
		}
		switch op.Kind {
		case OperandIndReg:
			if op.Reg != RegHL {
				return fmt.Errorf("%w: inc/dec only supports (HL) indirection", ErrBadInstruction)
			}
			a.emit(opcode)
		case OperandIxOff:
			a.emit(0xDD, opcode, byte(op.Displacement))
		case OperandIyOff:
			a.emit(0xFD, opcode, byte(op.Displacement))
		default:
			return fmt.Errorf("%w: unsupported operand for inc/dec", ErrBadInstruction)
		}
		return nil
	}
}

// encodeWideALU handles `ADD/ADC/SBC HL,rr` and `ADD IX/IY,rr` (spec.md
// §4.6): ADD HL,rr is unprefixed, ADC/SBC HL,rr are ED-prefixed, and
// ADD IX/IY,rr uses the destination's own DD/FD prefix together with the
// special {BC=0,DE=1,SP=3,same-as-dest=2} dd encoding.
func encodeWideALU(a *Assembler, name string, dest Reg, rhs Operand) error {
	if rhs.Kind != OperandReg {
		return fmt.Errorf("%w: %s %v,rr requires a register pair operand", ErrBadInstruction, name, dest)
	}

	if dest == RegHL {
		dd, ok := dd16Code(rhs.Reg)
		if !ok {
			return fmt.Errorf("%w: %s HL,%v is not a valid register pair", ErrBadInstruction, name, rhs.Reg)
		}
		switch name {
		case "add":
			a.emit(packField(0x09, dd, 4, 2))
		case "adc":
			a.emit(0xED, packField(0x4A, dd, 4, 2))
		case "sbc":
			a.emit(0xED, packField(0x42, dd, 4, 2))
		}
		return nil
	}

	if name != "add" {
		return fmt.Errorf("%w: only ADD supports an IX/IY destination", ErrBadInstruction)
	}

	var dd byte
	switch rhs.Reg {
	case RegBC:
		dd = 0
	case RegDE:
		dd = 1
	case RegSP:
		dd = 3
	default:
		if rhs.Reg == dest {
			dd = 2
		} else {
			return fmt.Errorf("%w: add %v,%v is not a valid register pair", ErrBadInstruction, dest, rhs.Reg)
		}
	}

	prefix := byte(0xDD)
	if dest == RegIY {
		prefix = 0xFD
	}
	a.emit(prefix, packField(0x09, dd, 4, 2))
	return nil
}
