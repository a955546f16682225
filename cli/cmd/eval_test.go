package cmd

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/clonelist/lang"
)

func TestEvalRun(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		eval    Eval
		want    string
		wantErr error
	}{
		{
			name: "arguments",
			eval: Eval{Vars: []string{"a=1", "b=a+1"}, Args: "[a, b], a + b"},
			want: "3\n",
		},
		{
			name: "invocation",
			eval: Eval{Vars: []string{"xs=[1, 2, 3]"}, Args: "clone!([xs], filter(xs, # > 1))"},
			want: "[2 3]\n",
		},
		{
			name: "alias",
			eval: Eval{Vars: []string{"s='abc'"}, Args: "[{upper(s)} as u], u"},
			want: "\"ABC\"\n",
		},
		{
			name: "show expansion",
			eval: Eval{Vars: []string{"a=2"}, Go: true, Args: "[a], a * a"},
			want: "func() any { a := dup.Of(a); return a * a }()\n4\n",
		},
		{
			name:    "undefined name",
			eval:    Eval{Args: "[nope], nope"},
			wantErr: lang.ErrEvaluate,
		},
		{
			name:    "malformed",
			eval:    Eval{Args: "[a,, b], a"},
			wantErr: lang.ErrMalformed,
		},
		{
			name:    "bad variable",
			eval:    Eval{Vars: []string{"novalue"}, Args: "1"},
			wantErr: ErrVariable,
		},
		{
			name:    "bad variable name",
			eval:    Eval{Vars: []string{"mut=1"}, Args: "1"},
			wantErr: ErrVariable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx, out := testContext(t)

			err := tt.eval.Run(ctx)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "error %v is not %v", err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestFormatResult(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "nil", formatResult(nil))
	assert.Equal(t, `"a\nb"`, formatResult("a\nb"))
	assert.Equal(t, "42", formatResult(42))
	assert.Equal(t, "map[k:1]", formatResult(map[string]any{"k": 1}))
	assert.True(t, strings.HasPrefix(formatResult(true), "true"))
}
