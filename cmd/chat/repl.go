package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/peterh/liner"

	"github.com/ashureev/edubot/internal/chat"
	"github.com/ashureev/edubot/internal/domain"
)

const (
	prompt       = "you> "
	typingNotice = "EduBot is typing..."
)

const helpText = `Commands:
  /new          start a new chat (the current one stays in history)
  /history      list saved chats
  /load <ref>   reopen a saved chat by number or id
  /help         show this help
  /quit         leave EduBot
`

// lineReader is the part of liner.State the loop uses.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

type repl struct {
	mgr        *chat.Manager
	dispatcher *chat.Dispatcher
	in         lineReader
	out        io.Writer

	typing bool
}

func (r *repl) run(ctx context.Context) error {
	fmt.Fprintln(r.out, "Welcome to EduBot! Ask a question to get started.")
	fmt.Fprintln(r.out, "Type /help for commands.")
	fmt.Fprintln(r.out)

	unsubscribe := r.mgr.Subscribe(r.onChange)
	defer unsubscribe()

	for {
		line, err := r.in.Prompt(prompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out)
				return nil
			}
			return err
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		r.in.AppendHistory(line)

		if strings.HasPrefix(trimmed, "/") {
			if quit := r.command(trimmed); quit {
				return nil
			}
			continue
		}

		r.send(ctx, line)
	}
}

// onChange prints the typing indicator when an exchange starts.
func (r *repl) onChange(v chat.View) {
	if v.Pending && !r.typing {
		fmt.Fprintln(r.out, typingNotice)
	}
	r.typing = v.Pending
}

func (r *repl) send(ctx context.Context, text string) {
	r.dispatcher.Send(ctx, r.mgr, text)

	msgs := r.mgr.Messages()
	if n := len(msgs); n > 0 && msgs[n-1].Sender == domain.SenderBot {
		fmt.Fprintf(r.out, "EduBot: %s\n\n", msgs[n-1].Text)
	}
}

func (r *repl) command(input string) (quit bool) {
	fields := strings.Fields(input)
	switch fields[0] {
	case "/quit", "/exit":
		fmt.Fprintln(r.out, "Goodbye!")
		return true
	case "/help":
		fmt.Fprint(r.out, helpText)
	case "/new":
		r.mgr.StartNewChat()
		fmt.Fprintln(r.out, "Started a new chat.")
	case "/history":
		printHistory(r.out, r.mgr.Archive().Entries())
	case "/load":
		if len(fields) < 2 {
			fmt.Fprintln(r.out, "Usage: /load <number or id>")
			return false
		}
		session, ok := resolveSession(r.mgr.Archive().Entries(), fields[1])
		if !ok {
			fmt.Fprintf(r.out, "No saved chat matches %q.\n", fields[1])
			return false
		}
		r.mgr.LoadChat(session.ID)
		fmt.Fprintf(r.out, "Loaded %q.\n", session.Title)
		printTranscript(r.out, r.mgr.Messages())
	default:
		fmt.Fprintf(r.out, "Unknown command %s. Type /help for commands.\n", fields[0])
	}
	return false
}
