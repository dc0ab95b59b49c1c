package dice

// Edge selects the advantage mode for a paired roll.
type Edge int

const (
	// EdgeNone rolls once.
	EdgeNone Edge = iota
	// EdgeAdvantage rolls twice and keeps the higher sum.
	EdgeAdvantage
	// EdgeDisadvantage rolls twice and keeps the lower sum.
	EdgeDisadvantage
)

// String returns the human-readable edge label.
func (e Edge) String() string {
	switch e {
	case EdgeAdvantage:
		return "advantage"
	case EdgeDisadvantage:
		return "disadvantage"
	default:
		return "normal"
	}
}

// EdgeResult holds both raw rolls of an advantage/disadvantage evaluation.
// Both rolls are retained so the presentation layer can display the pair.
type EdgeResult struct {
	Mode   Edge
	First  RollResult
	Second RollResult // zero value when Mode == EdgeNone
	Kept   RollResult
}

// Roll evaluates an Expression using the given Source and returns a RollResult.
//
// Precondition: expr must come from Parse; src must be non-nil.
// Postcondition: len(result.Dice) == expr.Count (0 for literals);
// result.Total() is within [Count*1+Modifier, Count*Sides+Modifier].
func Roll(expr Expression, src Source) RollResult {
	if expr.Literal {
		return RollResult{Expression: expr.Raw, Modifier: expr.Modifier}
	}
	rolled := make([]int, expr.Count)
	for i := range rolled {
		rolled[i] = src.Intn(expr.Sides) + 1
	}
	return RollResult{Expression: expr.Raw, Dice: rolled, Modifier: expr.Modifier}
}

// RollExpr parses expr and rolls it using src in a single call.
//
// Precondition: src must be non-nil.
// Postcondition: Returns a RollResult or a *FormulaError.
func RollExpr(expr string, src Source) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return Roll(e, src), nil
}

// RollEdge evaluates expr once for EdgeNone, or twice keeping the higher
// (advantage) or lower (disadvantage) total. Both raw rolls are retained.
//
// Precondition: expr must come from Parse; src must be non-nil.
// Postcondition: Kept is First or Second; for advantage Kept.Total() is the
// max of the two totals, for disadvantage the min.
func RollEdge(expr Expression, mode Edge, src Source) EdgeResult {
	first := Roll(expr, src)
	if mode == EdgeNone {
		return EdgeResult{Mode: mode, First: first, Kept: first}
	}
	second := Roll(expr, src)
	kept := first
	switch mode {
	case EdgeAdvantage:
		if second.Total() > first.Total() {
			kept = second
		}
	case EdgeDisadvantage:
		if second.Total() < first.Total() {
			kept = second
		}
	}
	return EdgeResult{Mode: mode, First: first, Second: second, Kept: kept}
}
