package main

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrompt(t *testing.T) {
	tests := []struct {
		in    string
		text  string
		scale int
	}{
		{"hello\n4\n", "hello", 4},
		{"hello\n\n", "hello", 1},
		{"hello\n0\n", "hello", 1},
		{"hi there\r\n 2 \r\n", "hi there", 2},
		{"eof", "eof", 1},
	}

	for _, test := range tests {
		text, scale, err := prompt(bufio.NewReader(strings.NewReader(test.in)), 1)
		require.NoError(t, err, test.in)
		assert.Equal(t, test.text, text)
		assert.Equal(t, test.scale, scale)
	}

	_, _, err := prompt(bufio.NewReader(strings.NewReader("x\nbig\n")), 1)
	assert.Error(t, err)
}
