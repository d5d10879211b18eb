// Package shell is the interactive session: it reads lines, runs each as a
// query and prints the rendered answer or one error line.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/log"

	"github.com/petasbytes/cybercog/internal/logging"
	"github.com/petasbytes/cybercog/internal/render"
	"github.com/petasbytes/cybercog/internal/runner"
	"github.com/petasbytes/cybercog/internal/transcript"
	"github.com/petasbytes/cybercog/memory"
)

const (
	msgBye      = "system> Bye!"
	msgWorking  = "Calling the model..."
	msgShutdown = "system> Shutdown complete."
)

type Options struct {
	Username string
	APIKey   string
	Service  *runner.Service
	Renderer render.Renderer
	// History is the input line history; nil disables it.
	History *memory.History
	In      io.Reader
	Out     io.Writer
	// TTY selects the line editor and the spinner.
	TTY bool
	// Spinner shows title until action returns. Nil means the huh spinner
	// on a TTY and none otherwise.
	Spinner func(title string, action func())
	Logger  *log.Logger
}

type Shell struct {
	opts    Options
	service runner.Service
	styles  render.Styles
	logger  *log.Logger
	outMu   sync.Mutex
	history transcript.Transcript
	// tool announcements from the runner, acknowledged once printed
	calls chan string
	ack   chan struct{}
}

func New(opts Options) *Shell {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Renderer == nil {
		opts.Renderer, _ = render.New("plain")
	}
	s := &Shell{
		opts:   opts,
		styles: render.DefaultStyles(),
		logger: logging.OrDiscard(opts.Logger),
		calls:  make(chan string),
		ack:    make(chan struct{}),
	}
	if s.opts.Spinner == nil && s.opts.TTY {
		s.opts.Spinner = s.huhSpinner
	}
	s.service = *opts.Service
	s.service.Options.OnToolCall = s.announce
	return s
}

// Run reads until quit/exit, end of input or ctx cancellation. The
// conversation lives only as long as Run.
func (s *Shell) Run(ctx context.Context) error {
	in := s.reader()
	for {
		line, err := in.ReadLine(ctx, s.prefix())
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				s.println("")
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		q := strings.TrimSpace(line)
		if q == "" {
			continue
		}
		if s.opts.TTY && s.opts.History != nil {
			if err := s.opts.History.Append(line); err != nil {
				s.logger.Warn("input history not saved", "path", s.opts.History.Path(), "error", err)
			}
		}
		switch strings.ToLower(q) {
		case "quit", "exit":
			s.println(msgBye)
			return nil
		}

		s.query(ctx, q)
		if ctx.Err() != nil {
			return nil
		}
	}
}

// Shutdown prints the closing line.
func (s *Shell) Shutdown() {
	s.println(s.styles.Line("success", msgShutdown))
}

func (s *Shell) query(ctx context.Context, q string) {
	var res runner.QueryResult
	done := make(chan struct{})
	go func() {
		defer close(done)
		res = s.service.RunQuery(ctx, s.opts.Username, q, s.opts.APIKey, s.history)
	}()

	// The spinner is stopped before each tool line and restarted after it.
	for finished := false; !finished; {
		stop := s.spin()
		select {
		case <-done:
			stop()
			finished = true
		case name := <-s.calls:
			stop()
			s.println(s.styles.Line(render.ClassBold, "Executing function: "+name))
			s.ack <- struct{}{}
		}
	}

	s.history = res.Transcript
	if !res.OK {
		s.PrintError(res.Error)
		return
	}
	out, err := s.opts.Renderer.Render(res.Response)
	if err != nil {
		s.logger.Warn("render failed; printing raw answer", "error", err)
		out = res.Response + "\n"
	}
	s.print(out)
}

// PrintError writes the single "system> Error: <msg>" line.
func (s *Shell) PrintError(msg string) {
	s.println(s.styles.Line(render.ClassError, "system> Error: "+msg))
}

// announce runs on the query goroutine and returns once the line is printed.
func (s *Shell) announce(name string) {
	s.calls <- name
	<-s.ack
}

// spin starts the spinner, if any, and returns a func that stops it and
// waits until it has cleared.
func (s *Shell) spin() (stop func()) {
	if s.opts.Spinner == nil {
		return func() {}
	}
	pause := make(chan struct{})
	cleared := make(chan struct{})
	go func() {
		defer close(cleared)
		s.opts.Spinner(msgWorking, func() { <-pause })
	}()
	return func() {
		close(pause)
		<-cleared
	}
}

func (s *Shell) huhSpinner(title string, action func()) {
	if err := spinner.New().Title(title).Action(action).Run(); err != nil {
		s.logger.Debug("spinner", "error", err)
	}
}

// prefix is plain for go-prompt, which colors it itself.
func (s *Shell) prefix() string {
	cwd, _ := os.Getwd()
	if s.opts.TTY {
		return render.Prompt(s.opts.Username, cwd, "")
	}
	return s.styles.Render(render.PromptParts(s.opts.Username, cwd, ""))
}

func (s *Shell) reader() lineReader {
	if s.opts.TTY {
		return &promptReader{history: s.opts.History, notice: s.println}
	}
	return newScanReader(s.opts.In, s.print)
}

func (s *Shell) print(text string) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	fmt.Fprint(s.opts.Out, text)
}

func (s *Shell) println(text string) {
	s.print(text + "\n")
}
