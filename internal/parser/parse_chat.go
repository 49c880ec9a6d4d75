package parser

import (
	"github.com/cwstats/recorder/pkg/core"
)

// ParseChat parses :CHAT: data (message type, message).
// The message keeps its markup; consumers strip tags as needed.
func (p *Parser) ParseChat(data []string) (core.ChatEvent, error) {
	var e core.ChatEvent
	if err := requireArgs(data, 2, ":CHAT:"); err != nil {
		return e, err
	}
	fixArgs(data)

	e.Type = data[0]
	e.Message = data[1]
	return e, nil
}
