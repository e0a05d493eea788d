package env

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/fluxflow/internal/stage"
	"github.com/vk/fluxflow/internal/testutil"
)

func TestEnv(t *testing.T) {
	t.Parallel()

	environ := func() []string {
		return []string{"FLUX_A=1", "FLUX_B=x=y", "HOME=/root", "FLUX_=skipped-when-stripped"}
	}

	testCases := []struct {
		name string
		args stage.Args
		want map[string]string
	}{
		{
			name: "all",
			args: testutil.Positional(),
			want: map[string]string{"FLUX_A": "1", "FLUX_B": "x=y", "HOME": "/root", "FLUX_": "skipped-when-stripped"},
		},
		{
			name: "prefix",
			args: testutil.Positional("FLUX_"),
			want: map[string]string{"FLUX_A": "1", "FLUX_B": "x=y", "FLUX_": "skipped-when-stripped"},
		},
		{
			name: "strip",
			args: testutil.Named("prefix", "FLUX_", "strip", "true"),
			want: map[string]string{"A": "1", "B": "x=y"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// --- Arrange ---
			s, err := newEnv(tc.args)
			require.NoError(t, err)
			s.(*envStage).environ = environ

			// --- Act ---
			out, err := testutil.Generate(context.Background(), s)

			// --- Assert ---
			require.NoError(t, err)
			assert.Equal(t, []map[string]string{tc.want}, out.Records(t))
		})
	}
}
