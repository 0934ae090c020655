package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caduceon/acteledger/internal/registry"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	data := map[string]int64{"act_id": 7}
	err := formatter.Success(data)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_TextSuccessf(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Successf(map[string]int64{"act_id": 7}, "registered act %d", 7)
	require.NoError(t, err)
	assert.Equal(t, "registered act 7\n", buf.String())
}

func TestOutputFormatter_JSONSuccessfUsesData(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Successf(map[string]int64{"act_id": 7}, "registered act %d", 7)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotContains(t, buf.String(), "registered act")
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error("UNAUTHORIZED", "requires validator capability", nil)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)
	assert.Equal(t, "requires validator capability", resp.Error.Message)
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Error("NOT_FOUND", "no act 42", nil)
	require.NoError(t, err)
	assert.Equal(t, "Error [NOT_FOUND]: no act 42\n", buf.String())
}

func TestRenderLedgerError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	opErr := &registry.OpError{
		Code:    registry.ErrCodeAlreadyClosed,
		Message: "act is closed",
		Op:      "validate_act",
	}
	err := formatter.RenderLedgerError(opErr)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, ExitFailure, exitErr.Code)
	assert.Contains(t, buf.String(), "ALREADY_CLOSED")
}

func TestRenderLedgerError_PassthroughNonLedgerError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	plain := fmt.Errorf("disk full")
	err := formatter.RenderLedgerError(plain)
	assert.Same(t, plain, err)
	assert.Zero(t, buf.Len())
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "explicit exit error",
			err:  NewExitError(ExitFailure, "refused"),
			want: ExitFailure,
		},
		{
			name: "wrapped exit error",
			err:  fmt.Errorf("outer: %w", NewExitError(ExitCommandError, "bad flag")),
			want: ExitCommandError,
		},
		{
			name: "ledger refusal",
			err:  &registry.OpError{Code: registry.ErrCodeUnauthorized, Op: "grant_capability"},
			want: ExitFailure,
		},
		{
			name: "plain error",
			err:  fmt.Errorf("disk full"),
			want: ExitCommandError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestVerboseLog(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:    "json",
		Writer:    out,
		ErrWriter: errOut,
		Verbose:   true,
	}

	formatter.VerboseLog("opened %s", "ledger.db")
	assert.Zero(t, out.Len(), "diagnostics must not pollute command output")
	assert.Equal(t, "opened ledger.db\n", errOut.String())

	formatter.Verbose = false
	errOut.Reset()
	formatter.VerboseLog("dropped")
	assert.Zero(t, errOut.Len())
}
