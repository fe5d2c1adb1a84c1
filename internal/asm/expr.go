package asm

import (
	"fmt"

	"github.com/Manu343726/ez80toolchain/internal/int24"
	"github.com/Manu343726/ez80toolchain/internal/objfile"
)

// ErrBadExpression is the sentinel wrapped by every expression-evaluation
// diagnostic (malformed syntax, relocatable operand where only a constant
// is allowed, division by zero).
var ErrBadExpression = fmt.Errorf("invalid expression")

// Evaluator implements the recursive-descent expression grammar of
// spec.md §4.2: additive/multiplicative binary operators, unary +/-,
// parenthesized grouping, numeric/character literals, "$" for the current
// PC, and symbol references. At most one relocatable symbol is tracked
// through the whole expression.
type Evaluator struct {
	Symbols *SymbolTable
	PC      func() int24.Int24
	Pass    int
}

// Eval consumes tokens from lex until the expression is exhausted (i.e. the
// next token is not part of the grammar) and returns its Value.
func (e *Evaluator) Eval(lex *Lexer) (Value, error) {
	return e.parseAdditive(lex)
}

func (e *Evaluator) parseAdditive(lex *Lexer) (Value, error) {
	left, err := e.parseMultiplicative(lex)
	if err != nil {
		return Value{}, err
	}
	for {
		tok := lex.Peek()
		switch tok.Kind {
		case TokPlus:
			lex.Next()
			right, err := e.parseMultiplicative(lex)
			if err != nil {
				return Value{}, err
			}
			left, err = addValues(left, right)
			if err != nil {
				return Value{}, err
			}
		case TokMinus:
			lex.Next()
			right, err := e.parseMultiplicative(lex)
			if err != nil {
				return Value{}, err
			}
			left, err = subValues(left, right)
			if err != nil {
				return Value{}, err
			}
		default:
			return left, nil
		}
	}
}

func addValues(a, b Value) (Value, error) {
	switch {
	case a.HasSym && b.HasSym:
		return Value{}, fmt.Errorf("%w: cannot add two relocatable operands", ErrBadExpression)
	case a.HasSym:
		return Value{N: a.N.Add(b.N), Sym: a.Sym, Section: a.Section, HasSym: true}, nil
	case b.HasSym:
		return Value{N: a.N.Add(b.N), Sym: b.Sym, Section: b.Section, HasSym: true}, nil
	default:
		return constValue(a.N.Add(b.N)), nil
	}
}

func subValues(a, b Value) (Value, error) {
	switch {
	case a.HasSym && b.HasSym:
		if a.Section != objfile.SectionAbs && a.Section == b.Section {
			return constValue(a.N.Sub(b.N)), nil
		}
		return Value{}, fmt.Errorf("%w: cannot subtract two relocatable operands from different sections", ErrBadExpression)
	case a.HasSym:
		return Value{N: a.N.Sub(b.N), Sym: a.Sym, Section: a.Section, HasSym: true}, nil
	case b.HasSym:
		// Unusual but preserved per spec.md §4.2: the result is marked
		// relocatable with the RHS's symbol.
		return Value{N: a.N.Sub(b.N), Sym: b.Sym, Section: b.Section, HasSym: true}, nil
	default:
		return constValue(a.N.Sub(b.N)), nil
	}
}

func (e *Evaluator) parseMultiplicative(lex *Lexer) (Value, error) {
	left, err := e.parseUnary(lex)
	if err != nil {
		return Value{}, err
	}
	for {
		tok := lex.Peek()
		switch tok.Kind {
		case TokStar:
			lex.Next()
			right, err := e.parseUnary(lex)
			if err != nil {
				return Value{}, err
			}
			if left.HasSym || right.HasSym {
				return Value{}, fmt.Errorf("%w: relocatable operand not allowed with '*'", ErrBadExpression)
			}
			left = constValue(left.N.Mul(right.N))
		case TokSlash:
			lex.Next()
			right, err := e.parseUnary(lex)
			if err != nil {
				return Value{}, err
			}
			if left.HasSym || right.HasSym {
				return Value{}, fmt.Errorf("%w: relocatable operand not allowed with '/'", ErrBadExpression)
			}
			if right.N == 0 {
				return Value{}, fmt.Errorf("%w: division by zero", ErrBadExpression)
			}
			left = constValue(left.N.Div(right.N))
		default:
			return left, nil
		}
	}
}

func (e *Evaluator) parseUnary(lex *Lexer) (Value, error) {
	tok := lex.Peek()
	switch tok.Kind {
	case TokPlus:
		lex.Next()
		return e.parseUnary(lex)
	case TokMinus:
		lex.Next()
		v, err := e.parseUnary(lex)
		if err != nil {
			return Value{}, err
		}
		return Value{N: v.N.Neg(), Sym: v.Sym, Section: v.Section, HasSym: v.HasSym}, nil
	default:
		return e.parsePrimary(lex)
	}
}

func (e *Evaluator) parsePrimary(lex *Lexer) (Value, error) {
	tok := lex.Next()
	switch tok.Kind {
	case TokNumber, TokChar:
		return constValue(int24.New(int(tok.Value))), nil
	case TokDollar:
		return constValue(e.PC()), nil
	case TokLParen:
		v, err := e.parseAdditive(lex)
		if err != nil {
			return Value{}, err
		}
		if closing := lex.Next(); closing.Kind != TokRParen {
			return Value{}, fmt.Errorf("%w: expected ')', found %s", ErrBadExpression, closing)
		}
		return v, nil
	case TokIdent:
		return e.resolveSymbol(tok.Text)
	default:
		return Value{}, fmt.Errorf("%w: expected an expression, found %s", ErrBadExpression, tok)
	}
}

func (e *Evaluator) resolveSymbol(name string) (Value, error) {
	lookup := name
	if IsLocalLabel(name) {
		lookup = e.Symbols.MangleLocal(name)
	}

	sym, ok := e.Symbols.Find(lookup)
	switch {
	case ok && sym.Flags == objfile.SymExtern:
		return symValue(lookup, 0, objfile.SectionAbs), nil
	case ok && sym.Defined:
		if sym.Section == objfile.SectionAbs {
			return constValue(sym.Value), nil
		}
		return symValue(lookup, sym.Value, sym.Section), nil
	case e.Pass == 1:
		// Forward reference: the symbol may be defined later in this same
		// pass. Mark it relocatable with a placeholder zero; its section is
		// not yet known, so it cannot cancel against another symbol until
		// pass 2 resolves the real definition.
		return symValue(lookup, 0, objfile.SectionAbs), nil
	default:
		return Value{}, fmt.Errorf("%w: %q", ErrUndefinedSymbol, name)
	}
}
