package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := Newf(CodeConfigNotFound, "chain %d", 999)
	wrapped := fmt.Errorf("lookup: %w", err)

	assert.True(t, stdErrors.Is(wrapped, ErrConfigNotFound))
	assert.False(t, stdErrors.Is(wrapped, ErrCallFailed))
	assert.Equal(t, CodeConfigNotFound, CodeOf(wrapped))
	assert.Equal(t, "[CONFIG_NOT_FOUND] chain 999", err.Error())
}

func TestWrapKeepsCause(t *testing.T) {
	cause := stdErrors.New("abi: cannot unmarshal")
	err := Wrap(CodeCallFailed, cause, "decode balanceOf", WithMetadata("index", "3"))

	require.ErrorIs(t, err, cause)
	assert.Equal(t, "3", err.Metadata()["index"])
	assert.Contains(t, err.Error(), "abi: cannot unmarshal")

	got, ok := From(fmt.Errorf("outer: %w", err))
	require.True(t, ok)
	assert.Equal(t, "decode balanceOf", got.Message())
}

func TestDefaultMessages(t *testing.T) {
	assert.Equal(t, "account not found", New(CodeAccountNotFound, "").Message())
	assert.Equal(t, CodeUnknown, CodeOf(stdErrors.New("plain")))
	assert.Equal(t, MessageOf(CodeUnknown), MessageOf(Code("NOPE")))

	Register(Code("CUSTOM"), "custom failure")
	assert.Equal(t, "custom failure", New(Code("CUSTOM"), "").Message())
}
