package env

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefresh_ReturnsEnvValue(t *testing.T) {
	t.Setenv("CNK_TEST_TOKEN", "abc123")
	r := New("CNK_TEST_TOKEN")

	token, err := r.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)
}

func TestRefresh_MissingVarErrors(t *testing.T) {
	r := New("CNK_TEST_TOKEN_DOES_NOT_EXIST")
	_, err := r.Refresh(context.Background())
	require.Error(t, err)
}
