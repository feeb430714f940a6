// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/muesli/termenv"

	"github.com/jeranaias/meshline-tui/internal/model"
	"github.com/jeranaias/meshline-tui/internal/util"
)

// printedCacheSize bounds how many message IDs the printer remembers.
const printedCacheSize = 4096

// Printer writes timeline messages to a line-mode terminal, each at most once.
type Printer struct {
	mu      sync.Mutex
	out     io.Writer
	output  *termenv.Output
	width   int
	printed *lru.Cache[string, struct{}]
}

// NewPrinter creates a printer. width <= 0 disables wrapping.
func NewPrinter(out io.Writer, profile termenv.Profile, width int) *Printer {
	printed, _ := lru.New[string, struct{}](printedCacheSize)
	return &Printer{
		out:     out,
		output:  termenv.NewOutput(out, termenv.WithProfile(profile)),
		width:   width,
		printed: printed,
	}
}

// Flush prints every message of msgs not printed before.
func (p *Printer) Flush(msgs []model.Message, me string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, msg := range msgs {
		if p.printed.Contains(msg.ID) {
			continue
		}
		p.printed.Add(msg.ID, struct{}{})
		fmt.Fprintln(p.out, p.format(msg, me))
	}
}

// MarkPrinted records msgs as printed without writing them.
func (p *Printer) MarkPrinted(msgs []model.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, msg := range msgs {
		p.printed.Add(msg.ID, struct{}{})
	}
}

func (p *Printer) format(msg model.Message, me string) string {
	stamp := p.output.String(msg.Timestamp.Format("15:04")).Faint().String()

	switch {
	case msg.IsSystem():
		return stamp + " " + p.output.String("* "+msg.Content).Foreground(p.output.Color("3")).String()

	case msg.IsEmergency:
		banner := p.output.String("!!! SOS !!!").Bold().Foreground(p.output.Color("1")).String()
		return stamp + " " + banner + "\n" + plainMarkdown(msg.Content)
	}

	nick := p.output.String("<" + msg.Sender + ">").Bold()
	if msg.Sender == me {
		nick = nick.Foreground(p.output.Color("6"))
	}
	prefix := stamp + " " + nick.String() + " "
	return prefix + p.wrap(msg.Content, 6+util.StringWidth("<"+msg.Sender+">")+1)
}

func (p *Printer) wrap(content string, indent int) string {
	if p.width <= 0 || p.width-indent < 10 {
		return content
	}
	lines := util.WrapWidth(content, p.width-indent)
	return strings.Join(lines, "\n"+strings.Repeat(" ", indent))
}

// plainMarkdown strips the emphasis markers of SOS alerts for line output.
func plainMarkdown(s string) string {
	return strings.ReplaceAll(s, "**", "")
}
