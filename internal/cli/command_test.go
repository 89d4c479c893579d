package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	cases := map[string]Command{
		"":       {Action: ActionForward},
		"n":      {Action: ActionForward},
		"  N  ":  {Action: ActionForward},
		"b":      {Action: ActionBackward},
		"g 4":    {Action: ActionGoto, Step: 4},
		"goto 1": {Action: ActionGoto, Step: 1},
		"p":      {Action: ActionPlay},
		"s":      {Action: ActionPause},
		"r":      {Action: ActionReset},
		"?":      {Action: ActionHelp},
		"q":      {Action: ActionQuit},
	}
	for line, want := range cases {
		got, err := ParseCommand(line)
		require.NoError(t, err, line)
		assert.Equal(t, want, got, line)
	}
}

func TestParseCommand_Errors(t *testing.T) {
	for _, line := range []string{"x", "g", "g 0", "g two", "g 1 2"} {
		_, err := ParseCommand(line)
		assert.ErrorIs(t, err, ErrUnknownCommand, line)
	}
}
