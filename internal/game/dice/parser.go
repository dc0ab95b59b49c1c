package dice

import (
	"fmt"
	"strconv"
	"strings"
)

// FormulaError reports a dice expression that could not be parsed.
// Callers treat it as non-fatal: command-layer call sites surface it to the
// user, internal call sites fall back to a default formula.
type FormulaError struct {
	Formula string
	Reason  string
}

// Error implements the error interface.
func (e *FormulaError) Error() string {
	return fmt.Sprintf("dice: invalid formula %q: %s", e.Formula, e.Reason)
}

// Expression represents a parsed dice expression ready to be rolled.
//
// Invariant: either Literal is true (Count and Sides are 0 and Modifier holds
// the literal value), or Count >= 1 and Sides >= 2.
type Expression struct {
	Raw      string // original input string
	Count    int    // number of dice
	Sides    int    // faces per die
	Modifier int    // flat modifier (may be negative); the value itself when Literal
	Literal  bool   // true when the expression was a plain integer
}

// Parse parses a dice expression string into an Expression.
// Supported forms: "d20", "2d6", "2d6+3", "4d8-2". A plain integer literal
// ("7", "-2") parses as a constant expression that always rolls to itself.
//
// Precondition: none; any string is accepted as input.
// Postcondition: Returns a valid Expression or a *FormulaError.
func Parse(expr string) (Expression, error) {
	raw := expr
	s := strings.ToLower(strings.ReplaceAll(expr, " ", ""))
	if s == "" {
		return Expression{}, &FormulaError{Formula: raw, Reason: "empty expression"}
	}

	dIdx := strings.Index(s, "d")
	if dIdx < 0 {
		// No die marker: accept a bare integer constant.
		lit, err := strconv.Atoi(s)
		if err != nil {
			return Expression{}, &FormulaError{Formula: raw, Reason: "missing 'd' and not an integer"}
		}
		return Expression{Raw: raw, Modifier: lit, Literal: true}, nil
	}

	// Count before 'd'; defaults to 1 when omitted.
	count := 1
	if countStr := s[:dIdx]; countStr != "" {
		n, err := strconv.Atoi(countStr)
		if err != nil {
			return Expression{}, &FormulaError{Formula: raw, Reason: "invalid die count"}
		}
		if n < 1 {
			return Expression{}, &FormulaError{Formula: raw, Reason: "die count must be >= 1"}
		}
		count = n
	}

	// Sides and optional signed modifier after 'd'. The first '+' or '-'
	// past position 0 splits the two.
	rest := s[dIdx+1:]
	modOffset := -1
	for i := 1; i < len(rest); i++ {
		if rest[i] == '+' || rest[i] == '-' {
			modOffset = i
			break
		}
	}

	sidesStr, modStr := rest, ""
	if modOffset >= 0 {
		sidesStr, modStr = rest[:modOffset], rest[modOffset:]
	}

	sides, err := strconv.Atoi(sidesStr)
	if err != nil {
		return Expression{}, &FormulaError{Formula: raw, Reason: "invalid die sides"}
	}
	if sides < 2 {
		return Expression{}, &FormulaError{Formula: raw, Reason: "die sides must be >= 2"}
	}

	modifier := 0
	if modStr != "" {
		modifier, err = strconv.Atoi(modStr)
		if err != nil {
			return Expression{}, &FormulaError{Formula: raw, Reason: "invalid modifier"}
		}
	}

	return Expression{Raw: raw, Count: count, Sides: sides, Modifier: modifier}, nil
}

// MustParse parses expr and panics on error. Useful for package-level constants.
//
// Precondition: expr must be a valid dice expression.
func MustParse(expr string) Expression {
	e, err := Parse(expr)
	if err != nil {
		panic("dice: MustParse failed for expression " + expr + ": " + err.Error())
	}
	return e
}
