package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Action is an interactive player key.
type Action string

const (
	ActionForward  Action = "forward"
	ActionBackward Action = "backward"
	ActionGoto     Action = "goto"
	ActionPlay     Action = "play"
	ActionPause    Action = "pause"
	ActionReset    Action = "reset"
	ActionHelp     Action = "help"
	ActionQuit     Action = "quit"
)

// ErrUnknownCommand is returned for input that maps to no action.
var ErrUnknownCommand = errors.New("unknown command")

// Command is one parsed line of player input.
// Step is 1-based, as shown in the status line.
type Command struct {
	Action Action
	Step   int
}

// ParseCommand reads a line typed at the player prompt. An empty line moves
// forward.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return Command{Action: ActionForward}, nil
	}

	switch fields[0] {
	case "n", "next":
		return Command{Action: ActionForward}, nil
	case "b", "back":
		return Command{Action: ActionBackward}, nil
	case "p", "play":
		return Command{Action: ActionPlay}, nil
	case "s", "pause":
		return Command{Action: ActionPause}, nil
	case "r", "reset":
		return Command{Action: ActionReset}, nil
	case "h", "?", "help":
		return Command{Action: ActionHelp}, nil
	case "q", "quit", "exit":
		return Command{Action: ActionQuit}, nil
	case "g", "goto":
		if len(fields) != 2 {
			return Command{}, fmt.Errorf("%w: usage is 'g N'", ErrUnknownCommand)
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 1 {
			return Command{}, fmt.Errorf("%w: %q is not a step number", ErrUnknownCommand, fields[1])
		}
		return Command{Action: ActionGoto, Step: n}, nil
	}
	return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, fields[0])
}
