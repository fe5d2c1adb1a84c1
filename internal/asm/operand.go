package asm

import (
	"fmt"

	"github.com/Manu343726/ez80toolchain/internal/int24"
)

// OperandKind enumerates the operand shapes the classifier can produce
// (spec.md §4.4).
type OperandKind int

const (
	OperandNone OperandKind = iota
	OperandReg
	OperandImm
	OperandAddr
	OperandIndReg
	OperandIxOff
	OperandIyOff
	OperandCond
)

// Operand is a single classified instruction operand. Reg/CC/Value/Symbol
// are populated according to Kind; Displacement carries the constant
// offset for OperandIxOff/OperandIyOff.
type Operand struct {
	Kind         OperandKind
	Reg          Reg
	CC           Cond
	Value        Value
	Displacement int24.Int24
}

// ErrBadOperand is the sentinel wrapped by operand-classification
// diagnostics.
var ErrBadOperand = fmt.Errorf("invalid operand")

var indirectRegisters = map[Reg]bool{
	RegBC: true, RegDE: true, RegHL: true, RegSP: true, RegC: true,
}

// classifyOperand consumes one operand from lex (spec.md §4.4). It does
// not consume the trailing comma or end-of-line token.
func classifyOperand(lex *Lexer, eval *Evaluator) (Operand, error) {
	tok := lex.Peek()

	if tok.Kind == TokLParen {
		return classifyIndirect(lex, eval)
	}

	if tok.Kind == TokIdent {
		upper := tok.Text
		if reg, ok := lookupRegister(upper); ok {
			lex.Next()
			if reg == RegIX || reg == RegIY {
				return classifyIndexTopLevel(lex, eval, reg)
			}
			if reg == RegC {
				return Operand{Kind: OperandReg, Reg: RegC, CC: CondC}, nil
			}
			return Operand{Kind: OperandReg, Reg: reg}, nil
		}
		if cc, ok := lookupCondition(upper); ok {
			// A condition name that doesn't collide with a register name
			// (NZ, Z, NC, PO, PE, P, M) is unambiguous.
			lex.Next()
			return Operand{Kind: OperandCond, CC: cc}, nil
		}
	}

	v, err := eval.Eval(lex)
	if err != nil {
		return Operand{}, err
	}
	return Operand{Kind: OperandImm, Value: v}, nil
}

func classifyIndirect(lex *Lexer, eval *Evaluator) (Operand, error) {
	lex.Next() // '('

	inner := lex.Peek()
	if inner.Kind == TokIdent {
		if reg, ok := lookupRegister(inner.Text); ok && (indirectRegisters[reg] || reg == RegIX || reg == RegIY) {
			lex.Next()
			if reg == RegIX || reg == RegIY {
				return classifyIndexIndirect(lex, eval, reg)
			}
			if err := expectRParen(lex); err != nil {
				return Operand{}, err
			}
			return Operand{Kind: OperandIndReg, Reg: reg}, nil
		}
	}

	v, err := eval.Eval(lex)
	if err != nil {
		return Operand{}, err
	}
	if err := expectRParen(lex); err != nil {
		return Operand{}, err
	}
	return Operand{Kind: OperandAddr, Value: v}, nil
}

func classifyIndexIndirect(lex *Lexer, eval *Evaluator, reg Reg) (Operand, error) {
	disp, err := parseOptionalDisplacement(lex, eval)
	if err != nil {
		return Operand{}, err
	}
	if err := expectRParen(lex); err != nil {
		return Operand{}, err
	}
	kind := OperandIxOff
	if reg == RegIY {
		kind = OperandIyOff
	}
	return Operand{Kind: kind, Reg: reg, Displacement: disp}, nil
}

// classifyIndexTopLevel handles "IX+d" / "IY+d" appearing without
// enclosing parentheses, as LEA/PEA's source operand (spec.md §4.6).
func classifyIndexTopLevel(lex *Lexer, eval *Evaluator, reg Reg) (Operand, error) {
	tok := lex.Peek()
	if tok.Kind != TokPlus && tok.Kind != TokMinus {
		return Operand{Kind: OperandReg, Reg: reg}, nil
	}
	disp, err := parseOptionalDisplacement(lex, eval)
	if err != nil {
		return Operand{}, err
	}
	kind := OperandIxOff
	if reg == RegIY {
		kind = OperandIyOff
	}
	return Operand{Kind: kind, Reg: reg, Displacement: disp}, nil
}

func parseOptionalDisplacement(lex *Lexer, eval *Evaluator) (int24.Int24, error) {
	tok := lex.Peek()
	if tok.Kind != TokPlus && tok.Kind != TokMinus {
		return 0, nil
	}
	neg := tok.Kind == TokMinus
	lex.Next()
	v, err := eval.Eval(lex)
	if err != nil {
		return 0, err
	}
	if v.HasSym {
		return 0, fmt.Errorf("%w: index displacement must be a constant", ErrBadOperand)
	}
	if neg {
		return v.N.Neg(), nil
	}
	return v.N, nil
}

func expectRParen(lex *Lexer) error {
	tok := lex.Next()
	if tok.Kind != TokRParen {
		return fmt.Errorf("%w: expected ')', found %s", ErrBadOperand, tok)
	}
	return nil
}
