package asm

import "strings"

// Reg identifies a CPU register operand (spec.md §6).
type Reg int

const (
	RegNone Reg = iota
	RegA
	RegB
	RegC
	RegD
	RegE
	RegH
	RegL
	RegIXH
	RegIXL
	RegIYH
	RegIYL
	RegI
	RegR
	RegMB
	RegAF
	RegBC
	RegDE
	RegHL
	RegSP
	RegIX
	RegIY
	RegAFAlt // AF'
)

// Cond identifies a jump/call/return condition code.
type Cond int

const (
	CondNone Cond = -1
	CondNZ   Cond = 0
	CondZ    Cond = 1
	CondNC   Cond = 2
	CondC    Cond = 3
	CondPO   Cond = 4
	CondPE   Cond = 5
	CondP    Cond = 6
	CondM    Cond = 7
)

var registerByName = map[string]Reg{
	"A": RegA, "B": RegB, "C": RegC, "D": RegD, "E": RegE, "H": RegH, "L": RegL,
	"IXH": RegIXH, "IXL": RegIXL, "IYH": RegIYH, "IYL": RegIYL,
	"I": RegI, "R": RegR, "MB": RegMB,
	"AF": RegAF, "BC": RegBC, "DE": RegDE, "HL": RegHL, "SP": RegSP,
	"IX": RegIX, "IY": RegIY, "AF'": RegAFAlt,
}

var conditionByName = map[string]Cond{
	"NZ": CondNZ, "Z": CondZ, "NC": CondNC, "C": CondC,
	"PO": CondPO, "PE": CondPE, "P": CondP, "M": CondM,
}

// lookupRegister resolves a case-insensitive register name.
func lookupRegister(name string) (Reg, bool) {
	r, ok := registerByName[strings.ToUpper(name)]
	return r, ok
}

// lookupCondition resolves a case-insensitive condition name. "C" is
// deliberately excluded: the lexer/classifier always resolves it to RegC
// first, and the encoder asks for the condition interpretation explicitly
// when an instruction accepts one (spec.md §4.4).
func lookupCondition(name string) (Cond, bool) {
	upper := strings.ToUpper(name)
	if upper == "C" {
		return CondNone, false
	}
	c, ok := conditionByName[upper]
	return c, ok
}

// is8BitReg reports whether r is a plain 8-bit register code participant
// (A,B,C,D,E,H,L or an index half).
func is8BitReg(r Reg) bool {
	switch r {
	case RegA, RegB, RegC, RegD, RegE, RegH, RegL, RegIXH, RegIXL, RegIYH, RegIYL:
		return true
	}
	return false
}

// reg8Code returns the 3-bit "r" field encoding for an 8-bit register,
// where IXH/IXL and IYH/IYL alias H/L (spec.md §4.6).
func reg8Code(r Reg) (byte, bool) {
	switch r {
	case RegB:
		return 0, true
	case RegC:
		return 1, true
	case RegD:
		return 2, true
	case RegE:
		return 3, true
	case RegH, RegIXH, RegIYH:
		return 4, true
	case RegL, RegIXL, RegIYL:
		return 5, true
	case RegA:
		return 7, true
	}
	return 0, false
}

// indexHalf reports whether r is one of IXH/IXL/IYH/IYL, and which index
// register family it belongs to.
func indexHalf(r Reg) (isIX bool, isIY bool) {
	switch r {
	case RegIXH, RegIXL:
		return true, false
	case RegIYH, RegIYL:
		return false, true
	}
	return false, false
}

// dd16Code is the "dd" 2-bit field used by 16-bit load/arithmetic forms.
func dd16Code(r Reg) (byte, bool) {
	switch r {
	case RegBC:
		return 0, true
	case RegDE:
		return 1, true
	case RegHL:
		return 2, true
	case RegSP:
		return 3, true
	}
	return 0, false
}

// qq16Code is the "qq" 2-bit field used by PUSH/POP.
func qq16Code(r Reg) (byte, bool) {
	switch r {
	case RegBC:
		return 0, true
	case RegDE:
		return 1, true
	case RegHL:
		return 2, true
	case RegAF:
		return 3, true
	}
	return 0, false
}

func condCode(c Cond) (byte, bool) {
	if c < CondNZ || c > CondM {
		return 0, false
	}
	return byte(c), true
}
