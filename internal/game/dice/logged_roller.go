package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger to provide logged dice rolling.
// All rolls are logged at debug level with expression, dice values, modifier,
// and total so every combat number can be audited after the fact.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that rolls with src and logs each roll to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Roll evaluates expr and logs the result at debug level.
//
// Precondition: expr must come from Parse.
func (r *Roller) Roll(expr Expression) RollResult {
	result := Roll(expr, r.src)
	r.logger.Debug("dice roll",
		zap.String("expression", result.Expression),
		zap.Ints("dice", result.Dice),
		zap.Int("modifier", result.Modifier),
		zap.Int("total", result.Total()),
	)
	return result
}

// RollExpr parses expr and rolls it, logging the result.
//
// Postcondition: Returns a RollResult or a *FormulaError.
func (r *Roller) RollExpr(expr string) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	return r.Roll(e), nil
}

// RollExprOrDefault rolls expr, falling back to fallback when expr fails to
// parse. Used where a record carries a damage formula that may be absent or
// malformed; randomness itself is never a failure source.
//
// Precondition: fallback must be a valid dice expression.
func (r *Roller) RollExprOrDefault(expr, fallback string) RollResult {
	result, err := r.RollExpr(expr)
	if err == nil {
		return result
	}
	r.logger.Warn("dice formula invalid, using fallback",
		zap.String("formula", expr),
		zap.String("fallback", fallback),
		zap.Error(err),
	)
	return r.Roll(MustParse(fallback))
}

// RollEdge evaluates expr with the given advantage mode, logging both rolls.
//
// Precondition: expr must come from Parse.
func (r *Roller) RollEdge(expr Expression, mode Edge) EdgeResult {
	result := RollEdge(expr, mode, r.src)
	r.logger.Debug("dice edge roll",
		zap.String("expression", expr.Raw),
		zap.String("mode", mode.String()),
		zap.Int("first", result.First.Total()),
		zap.Int("second", result.Second.Total()),
		zap.Int("kept", result.Kept.Total()),
	)
	return result
}

// Source exposes the underlying randomness source for callers that roll raw
// d20s or percentile draws outside a formula.
func (r *Roller) Source() Source {
	return r.src
}
