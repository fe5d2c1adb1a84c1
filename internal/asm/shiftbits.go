package asm

import "fmt"

// encBitOp builds BIT/SET/RES: `<mnemonic> b, r|( mem )`. base is the
// opcode for bit 0 of register B (0x40 for BIT, 0xC0 for SET, 0x80 for
// RES); CB-prefixed, with the IX/IY displacement byte preceding the
// opcode (spec.md §4.6's "historical Z80 quirk").
func encBitOp(base byte) encHandler {
	return func(ctx *encCtx, lex *Lexer) error {
		bitOp, operand, err := parseTwoOperands(ctx, lex)
		if err != nil {
			return err
		}
		if bitOp.Kind != OperandImm || bitOp.Value.HasSym {
			return fmt.Errorf("%w: expected a constant bit number", ErrBadInstruction)
		}
		bit := bitOp.Value.N.Int()
		if bit < 0 || bit > 7 {
			return fmt.Errorf("%w: bit number %d out of range 0-7", ErrBadInstruction, bit)
		}
		return emitCBOp(ctx.a, operand, packField(base, byte(bit), 3, 3))
	}
}

// encShift builds the rotate/shift group (RLC/RRC/RL/RR/SLA/SRA/SRL):
// `<mnemonic> r|( mem )`.
func encShift(base byte) encHandler {
	return func(ctx *encCtx, lex *Lexer) error {
		operand, err := parseOperand(ctx, lex)
		if err != nil {
			return err
		}
		return emitCBOp(ctx.a, operand, base)
	}
}

// emitCBOp emits the shared CB-prefixed encoding for an operand that is a
// plain 8-bit register, (HL), (IX+d) or (IY+d), folding in the register
// code (or 6 for an indirect form) into opcodeBase's low 3 bits.
func emitCBOp(a *Assembler, operand Operand, opcodeBase byte) error {
	switch operand.Kind {
	case OperandReg:
		if !is8BitReg(operand.Reg) || isIndexHalfReg(operand.Reg) {
			return fmt.Errorf("%w: CB-prefixed ops do not accept %v directly", ErrBadInstruction, operand.Reg)
		}
		code, _ := reg8Code(operand.Reg)
		a.emit(0xCB, packField(opcodeBase, code, 0, 3))
		return nil
	case OperandIndReg:
		if operand.Reg != RegHL {
			return fmt.Errorf("%w: CB-prefixed ops only support (HL) indirection", ErrBadInstruction)
		}
		a.emit(0xCB, opcodeBase|6)
		return nil
	case OperandIxOff:
		a.emit(0xDD, 0xCB, byte(operand.Displacement), opcodeBase|6)
		return nil
	case OperandIyOff:
		a.emit(0xFD, 0xCB, byte(operand.Displacement), opcodeBase|6)
		return nil
	}
	return fmt.Errorf("%w: unsupported operand for a CB-prefixed op", ErrBadInstruction)
}
