package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptPassword_FromPipe(t *testing.T) {
	var out bytes.Buffer

	password, err := promptPassword(strings.NewReader("s3cret\nignored\n"), &out)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", password)
	assert.Empty(t, out.String(), "no prompt when input is not a terminal")

	password, err = promptPassword(strings.NewReader("no-newline"), &out)
	require.NoError(t, err)
	assert.Equal(t, "no-newline", password)

	password, err = promptPassword(strings.NewReader("windows\r\n"), &out)
	require.NoError(t, err)
	assert.Equal(t, "windows", password)
}
