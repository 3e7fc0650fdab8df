// Package bot holds the transport-independent bot logic: command parsing,
// reply formatting and sticker registration. The Telegram wiring lives in
// internal/telegram.
package bot

import (
	"fmt"
	"strings"
)

// Kind identifies a parsed bot command.
type Kind int

const (
	// Help lists the supported commands.
	Help Kind = iota
	// Search looks up indexed files by label similarity.
	Search
)

// Command is a parsed bot command with its argument text.
type Command struct {
	Kind Kind
	Arg  string
}

// ErrNotCommand is returned for text that is not addressed to the bot.
var ErrNotCommand = fmt.Errorf("not a command")

// Parse parses a message into a command. The text must start with a
// slash; an optional @mention after the command name must match botName
// (case-insensitive) or the message is treated as addressed to another
// bot. Everything after the first space is the argument.
func Parse(text, botName string) (Command, error) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return Command{}, ErrNotCommand
	}

	head, arg, _ := strings.Cut(text[1:], " ")
	name, mention, hasMention := strings.Cut(head, "@")
	if hasMention && !strings.EqualFold(mention, botName) {
		return Command{}, ErrNotCommand
	}

	switch strings.ToLower(name) {
	case "help":
		return Command{Kind: Help}, nil
	case "search":
		return Command{Kind: Search, Arg: strings.TrimSpace(arg)}, nil
	default:
		return Command{}, fmt.Errorf("unknown command: /%s", name)
	}
}
