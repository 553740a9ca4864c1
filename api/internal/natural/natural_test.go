package natural

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tfeater/TfeaterMathLab/api/internal/engine"
)

func TestExtract_Operations(t *testing.T) {
	tests := []struct {
		text       string
		op         string
		expression string
	}{
		{"differentiate x squared", engine.OpDerivative, "x^2"},
		{"find the derivative of sin(x)", engine.OpDerivative, "sin(x)"},
		{"integrate x squared", engine.OpIntegral, "x^2"},
		{"solve x^2 - 5x + 6 = 0", engine.OpSolve, "x^2 - 5x + 6 = 0"},
		{"solve x squared minus 5x plus 6 equals 0", engine.OpSolve, "x^2-5x+6=0"},
		{"simplify x + x", engine.OpSimplify, "x + x"},
		{"factor x^2 - 4", engine.OpFactor, "x^2 - 4"},
		{"expand (x+1)(x-1)", engine.OpExpand, "(x+1)(x-1)"},
	}
	for _, tt := range tests {
		params, err := Extract(tt.text)
		require.NoError(t, err, "text %q", tt.text)
		assert.Equal(t, tt.op, params.Operation, "text %q", tt.text)
		assert.Equal(t, tt.expression, params.Expression, "text %q", tt.text)
		assert.Equal(t, tt.text, params.OriginalInput)
	}
}

func TestExtract_DerivativeDefaultsToFirstOrder(t *testing.T) {
	params, err := Extract("differentiate x cubed")
	require.NoError(t, err)
	assert.Equal(t, 1, params.Order)
}

func TestExtract_LimitClause(t *testing.T) {
	params, err := Extract("limit of 1/x as x approaches 0 from the right")
	require.NoError(t, err)
	assert.Equal(t, engine.OpLimit, params.Operation)
	assert.Equal(t, "1/x", params.Expression)
	assert.Equal(t, "0", params.Point)
	assert.Equal(t, "right", params.Side)

	params, err = Extract("limit of 1/x as x approaches infinity")
	require.NoError(t, err)
	assert.Equal(t, "infinity", params.Point)
	assert.Equal(t, "", params.Side)
}

func TestExtract_NoOperation(t *testing.T) {
	_, err := Extract("a train leaves the station at 40 km/h")
	require.Error(t, err)
	var xerr *ExtractError
	assert.ErrorAs(t, err, &xerr)
}

func TestExtract_NoExpression(t *testing.T) {
	_, err := Extract("solve")
	require.Error(t, err)
}

func TestExtract_FeedsPipeline(t *testing.T) {
	params, err := Extract("solve x squared minus 5x plus 6 equals 0")
	require.NoError(t, err)
	out := engine.NewPipeline().Run(params)
	require.NotNil(t, out.Answer)
	assert.Equal(t, "2, 3", out.Answer.DisplayResult)
}
