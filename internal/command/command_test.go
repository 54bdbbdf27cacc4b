package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultLookupPrefix(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected bool
	}{
		{name: "exact command", content: "!ping", expected: true},
		{name: "different case", content: "!Ping", expected: false},
		{name: "command in middle of text", content: "hello !ping", expected: false},
		{name: "prefix only", content: "!pingpong", expected: true},
		{name: "command with argument", content: "!ping now", expected: true},
		{name: "leading whitespace is not trimmed", content: " !ping", expected: false},
		{name: "empty message", content: "", expected: false},
		{name: "truncated prefix", content: "!pin", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, ok := Default().Lookup(tt.content)
			assert.Equal(t, tt.expected, ok)
			if ok {
				assert.Equal(t, PingReply, reply)
			}
		})
	}
}

func TestSetLookup(t *testing.T) {
	set := Default()

	reply, ok := set.Lookup("!ping")
	assert.True(t, ok)
	assert.Equal(t, PingReply, reply)

	_, ok = set.Lookup("hello")
	assert.False(t, ok)

	custom := Set{{Prefix: "!pingx", Reply: "x"}, {Prefix: "!ping", Reply: "y"}}
	reply, ok = custom.Lookup("!pingxyz")
	assert.True(t, ok)
	assert.Equal(t, "x", reply, "first matching prefix wins")
}
