// Package chatcmder provides the chat command: an interactive, streamed
// question-answering session against the knowledge base.
package chatcmder

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/kbconsole/cmd/kb/cmdutil"
	"github.com/papercomputeco/kbconsole/pkg/chat"
	"github.com/papercomputeco/kbconsole/pkg/client"
	"github.com/papercomputeco/kbconsole/pkg/cliui"
	"github.com/papercomputeco/kbconsole/pkg/config"
	"github.com/papercomputeco/kbconsole/pkg/history"
	"github.com/papercomputeco/kbconsole/pkg/utils"
)

var (
	userPrompt      = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("you> ")
	assistantPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("assistant> ")
)

type chatCommander struct {
	flags struct {
		apiTarget    string
		timeout      string
		plain        bool
		historyTurns uint
		noHistory    bool
		historyPath  string
	}
	resume string

	in  io.Reader
	out io.Writer

	env     *cmdutil.Env
	client  *client.Client
	store   *history.Store
	session *chat.Session
	logger  *slog.Logger
}

const chatLongDesc string = `Start an interactive chat session with the knowledge base.

Each question is answered from the ingested documents and videos. The answer
streams in as it is generated, followed by the sources it cites. Prior turns
of the session are sent along as context.

Pass a question as arguments to ask once and exit. Sessions are recorded in
the local history database unless --no-history is set; use "kb history" to
browse them and --resume to continue one.

Inside the session:
  /sources   Show the sources of the last answer again
  /new       Start a new session
  /exit      Quit (Ctrl+D also works)

Examples:
  kb chat
  kb chat "What does the onboarding guide say about VPN access?"
  kb chat --plain --api-target http://kb.internal:8000
  kb chat --resume 3f2a9c`

const chatShortDesc string = "Chat with the knowledge base"

var chatFlags = []string{
	config.FlagAPITarget,
	config.FlagTimeout,
	config.FlagPlain,
	config.FlagHistoryTurns,
	config.FlagNoHistory,
	config.FlagHistoryPath,
}

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat [question]",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			env, err := cmdutil.Load(cmd, chatFlags...)
			if err != nil {
				return err
			}
			cmder.env = env
			cmder.logger = env.Logger
			cmder.in = cmd.InOrStdin()
			cmder.out = cmd.OutOrStdout()
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			defer cmder.env.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			return cmder.run(ctx, strings.Join(args, " "))
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &cmder.flags.apiTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagTimeout, &cmder.flags.timeout)
	config.AddBoolFlag(cmd, config.Flags, config.FlagPlain, &cmder.flags.plain)
	config.AddUintFlag(cmd, config.Flags, config.FlagHistoryTurns, &cmder.flags.historyTurns)
	config.AddBoolFlag(cmd, config.Flags, config.FlagNoHistory, &cmder.flags.noHistory)
	config.AddStringFlag(cmd, config.Flags, config.FlagHistoryPath, &cmder.flags.historyPath)
	cmd.Flags().StringVarP(&cmder.resume, "resume", "r", "", "Continue a stored session by id or id prefix")

	return cmd
}

func (c *chatCommander) run(ctx context.Context, question string) error {
	cfg := c.env.Config
	if cfg.Chat.Plain {
		cliui.DisableColor()
	}

	var err error
	c.client, err = c.env.Client()
	if err != nil {
		return err
	}

	if !cfg.History.Disabled {
		c.store, err = c.env.OpenHistory()
		if err != nil {
			// A broken history file should not block chatting.
			c.logger.Warn("chat history disabled", "error", err)
		}
	}

	if err := c.startSession(ctx); err != nil {
		return err
	}

	if question != "" {
		c.ask(ctx, question)
		if reply := c.session.Messages[len(c.session.Messages)-1]; reply.Failed() {
			return fmt.Errorf("answer failed: %s", reply.Error)
		}
		return nil
	}

	fmt.Fprintf(c.out, "  %s %s\n", cliui.KeyStyle.Render("Knowledge base:"), cliui.NameStyle.Render(c.client.Target()))
	fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("Type your question and press Enter. /exit or Ctrl+D to quit."))

	lines := readLines(c.in)
	for {
		fmt.Fprint(c.out, userPrompt)
		line, ok := lines.next(ctx)
		if !ok {
			break
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if quit := c.command(input); quit {
				break
			}
			continue
		}

		c.ask(ctx, input)
		if ctx.Err() != nil {
			break
		}
	}

	if err := lines.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Fprintln(c.out)
	return nil
}

func (c *chatCommander) startSession(ctx context.Context) error {
	if c.resume == "" {
		c.session = chat.NewSession()
		fmt.Fprintf(c.out, "\n  %s New session %s\n", cliui.DimStyle.Render("●"),
			cliui.IDStyle.Render(utils.Truncate(c.session.ID, 8)))
		return nil
	}

	if c.store == nil {
		return fmt.Errorf("cannot resume %s: chat history is disabled", c.resume)
	}

	session, err := c.store.Get(ctx, c.resume)
	if err != nil {
		return fmt.Errorf("resuming session: %w", err)
	}
	c.session = session

	fmt.Fprintf(c.out, "\n  %s Resuming %s %s\n",
		cliui.SuccessMark,
		cliui.IDStyle.Render(utils.Truncate(session.ID, 8)),
		cliui.DimStyle.Render(fmt.Sprintf("(%d messages)", len(session.Messages))),
	)
	return nil
}

// lineReader reads input lines on its own goroutine so the prompt can be
// interrupted while no line is pending.
type lineReader struct {
	lines chan string
	done  chan struct{}
	err   error
}

func readLines(r io.Reader) *lineReader {
	lr := &lineReader{lines: make(chan string), done: make(chan struct{})}
	go func() {
		defer close(lr.lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lr.lines <- scanner.Text():
			case <-lr.done:
				return
			}
		}
		lr.err = scanner.Err()
	}()
	return lr
}

// next returns the next line, or false at end of input or when ctx is done.
func (lr *lineReader) next(ctx context.Context) (string, bool) {
	select {
	case line, ok := <-lr.lines:
		return line, ok
	case <-ctx.Done():
		return "", false
	}
}

// Err stops the reader and returns the scan error, if input has ended.
// A reader still blocked on input is abandoned.
func (lr *lineReader) Err() error {
	close(lr.done)
	select {
	case _, ok := <-lr.lines:
		if !ok {
			return lr.err
		}
	default:
	}
	return nil
}

// command handles a slash command and reports whether to quit.
func (c *chatCommander) command(input string) bool {
	switch strings.Fields(input)[0] {
	case "/exit", "/quit":
		return true
	case "/new":
		c.session = chat.NewSession()
		fmt.Fprintf(c.out, "  %s New session %s\n\n", cliui.DimStyle.Render("●"),
			cliui.IDStyle.Render(utils.Truncate(c.session.ID, 8)))
	case "/sources":
		if last := c.lastAnswer(); last != nil {
			cliui.Sources(c.out, last.Sources)
		} else {
			fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("No answer yet."))
		}
	default:
		fmt.Fprintf(c.out, "  %s unknown command %s %s\n\n", cliui.FailMark, input,
			cliui.DimStyle.Render("(try /sources, /new, /exit)"))
	}
	return false
}

func (c *chatCommander) lastAnswer() *chat.Message {
	for i := len(c.session.Messages) - 1; i >= 0; i-- {
		if m := c.session.Messages[i]; m.Role == chat.RoleAssistant {
			return m
		}
	}
	return nil
}

// ask runs one turn. Failures are reported inline; the session continues.
func (c *chatCommander) ask(ctx context.Context, question string) {
	cfg := c.env.Config
	query := c.session.Query(question, int(cfg.Chat.HistoryTurns))
	reply := c.session.Begin(question)

	r, err := c.client.QueryStream(ctx, query)
	if err != nil {
		c.session.Apply(streamError(err))
		fmt.Fprintf(c.out, "  %s %v\n\n", cliui.FailMark, err)
		c.save(ctx)
		return
	}
	defer r.Close()

	view := newAnswerView(c.out, !cfg.Chat.Plain && cliui.IsTerminal(c.out))
	view.start()
	if err := c.session.Consume(ctx, r, view.update); err != nil {
		c.logger.Debug("chat stream ended with error", "error", err)
	}
	view.finish(reply)

	if skipped := r.Skipped(); skipped > 0 {
		c.logger.Debug("dropped malformed stream lines", "count", skipped)
	}

	c.save(ctx)
}

func (c *chatCommander) save(ctx context.Context) {
	if c.store == nil {
		return
	}
	if err := c.store.Save(context.WithoutCancel(ctx), c.session); err != nil {
		c.logger.Warn("failed to save chat history", "error", err)
	}
}
