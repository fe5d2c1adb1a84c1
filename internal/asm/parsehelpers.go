package asm

import "fmt"

// expectComma consumes a comma token, the separator between an
// instruction's two operands or a directive's repeated arguments.
func expectComma(lex *Lexer) error {
	tok := lex.Next()
	if tok.Kind != TokComma {
		return fmt.Errorf("%w: expected ',', found %s", ErrBadOperand, tok)
	}
	return nil
}

// requireEOL verifies nothing but end-of-line remains, per spec.md §4.6's
// "unexpected content" check (also applied after every directive).
func requireEOL(lex *Lexer) error {
	tok := lex.Next()
	if tok.Kind != TokEOL && tok.Kind != TokEOF {
		return fmt.Errorf("%w: unexpected content, found %s", ErrBadOperand, tok)
	}
	return nil
}

func atEOL(lex *Lexer) bool {
	k := lex.Peek().Kind
	return k == TokEOL || k == TokEOF
}
