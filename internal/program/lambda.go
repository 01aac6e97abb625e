package program

import (
	"github.com/vela-lang/vela/internal/diagnostic"
	"github.com/vela-lang/vela/internal/source"
	"github.com/vela-lang/vela/internal/types"
)

// LambdaLiteral is the shape of a lambda expression handed over by the
// front end: declared parameters, an optional output annotation, and the
// form of its body.
type LambdaLiteral struct {
	Inputs     []types.CallableParam
	Output     *types.Type // nil when omitted
	Site       source.Site
	BodyIsExpr bool // body is a single expression
	BodyEmpty  bool
}

// LambdaSchema infers the type scheme of a lambda literal, minting a
// fresh variable for the output when the body is a single expression.
// A multi-statement body with no output annotation cannot be inferred.
func (p *Program) LambdaSchema(lit LambdaLiteral, fresh func() *types.Type, sink *diagnostic.Sink) *types.Type {
	output := lit.Output
	if output == nil {
		switch {
		case lit.BodyEmpty:
			output = types.Unit()
		case lit.BodyIsExpr:
			output = fresh()
		default:
			sink.Report(diagnostic.Error(lit.Site,
				"cannot infer complex return type; add an explicit return type annotation"))
			output = types.NewError()
		}
	}
	return types.NewLambda(lit.Inputs, types.Unit(), output, false)
}
