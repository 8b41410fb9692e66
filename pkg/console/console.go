// Package console provides an interactive local loop for exercising
// handlers without a public URL: each stdin line becomes a text message
// from a synthetic sender and is dispatched through the robot.
package console

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/chzyer/readline"

	"github.com/sipeed/mpbot/pkg/message"
	"github.com/sipeed/mpbot/pkg/robot"
)

// Console drives a robot from a terminal.
type Console struct {
	robot  *robot.Robot
	source string
}

// New creates a console dispatching as the given sender id. Session state
// accumulates under that id like it would for a real sender.
func New(rb *robot.Robot, source string) *Console {
	if source == "" {
		source = "console"
	}
	return &Console{robot: rb, source: source}
}

// Run reads lines until EOF (Ctrl-D) or ctx cancellation.
func (c *Console) Run(ctx context.Context) error {
	rl, err := readline.New("you> ")
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	defer rl.Close()

	for {
		if ctx.Err() != nil {
			return nil
		}

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read line: %w", err)
		}
		if line == "" {
			continue
		}

		msg := &message.Message{
			Kind:       message.KindText,
			Source:     c.source,
			Target:     "mpbot",
			CreateTime: time.Now(),
			Content:    line,
		}

		reply := c.robot.Dispatch(ctx, msg)
		if reply == "" {
			fmt.Println("(no reply)")
			continue
		}
		fmt.Println("bot>", reply)
	}
}
