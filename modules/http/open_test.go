package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/fluxflow/internal/stage"
	"github.com/vk/fluxflow/internal/testutil"
	"github.com/zclconf/go-cty/cty"
)

type bodies struct {
	got []string
}

func (b *bodies) Emit(_ context.Context, _ string, v cty.Value) error {
	r, err := stage.AsReader(v)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	b.got = append(b.got, string(data))
	return nil
}

func TestOpenHTTP_FetchesBody(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		fmt.Fprint(w, `{"ok":"yes"}`)
	}))
	t.Cleanup(srv.Close)

	s, err := newOpenHTTP(testutil.Named("accept", "application/json"))
	require.NoError(t, err)
	b := &bodies{}

	// --- Act ---
	err = s.(stage.Processor).Process(context.Background(), "url", cty.StringVal(srv.URL), b)
	require.NoError(t, err)
	err = s.(stage.Closer).Close()

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, []string{`{"ok":"yes"}`}, b.got)
}

func TestOpenHTTP_ErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	s, err := newOpenHTTP(testutil.Positional())
	require.NoError(t, err)

	_, err = testutil.Feed(context.Background(), s, cty.StringVal(srv.URL+"/missing"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 404 Not Found")
}

func TestNewOpenHTTP_Arguments(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		args    stage.Args
		wantErr string
		timeout time.Duration
	}{
		{name: "default timeout", args: testutil.Positional(), timeout: DefaultTimeout},
		{name: "custom timeout", args: testutil.Named("timeout", "2s"), timeout: 2 * time.Second},
		{name: "bad timeout", args: testutil.Named("timeout", "soon"), wantErr: `argument "timeout"`},
		{name: "zero timeout", args: testutil.Named("timeout", "0s"), wantErr: "must be positive"},
		{name: "bad method", args: testutil.Named("method", "delete"), wantErr: "must be GET or POST"},
		{name: "positional", args: testutil.Positional("x"), wantErr: "at most 0 positional"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s, err := newOpenHTTP(tc.args)

			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.timeout, s.(*openHTTP).client.Timeout)
		})
	}
}
