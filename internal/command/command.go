// Package command holds the chat commands the bot answers and the prefix matching used to
// detect them.
package command

import "strings"

const (
	// PingPrefix triggers the ping command. Matching is case-sensitive and untrimmed.
	PingPrefix = "!ping"
	// PingReply is the fixed answer to PingPrefix.
	PingReply = "pong!"
)

// Command pairs a content prefix with the reply it produces.
type Command struct {
	Prefix string
	Reply  string
}

// Set is an ordered list of commands; the first matching prefix wins.
type Set []Command

// Default returns the commands the bot ships with.
func Default() Set {
	return Set{{Prefix: PingPrefix, Reply: PingReply}}
}

// Lookup returns the reply for the first command whose prefix starts content.
func (s Set) Lookup(content string) (string, bool) {
	for _, c := range s {
		if strings.HasPrefix(content, c.Prefix) {
			return c.Reply, true
		}
	}
	return "", false
}
