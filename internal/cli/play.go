package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/opencode-ai/cradle/internal/render"
	"github.com/opencode-ai/cradle/internal/story"
)

var (
	playOpts  playFlags
	playPlain bool
)

func init() {
	rootCmd.AddCommand(playCmd)
	playOpts.register(playCmd)
	playCmd.Flags().BoolVar(&playPlain, "plain", false, "disable styled output")
}

var playCmd = &cobra.Command{
	Use:   "play <story>",
	Short: "Play a story in line mode",
	Long: `Play a story by name or file path. Choose links by number or name.

Commands: <n>, <link name>, pause, resume, restart, vars, history, quit.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPlayer(cmd.Context(), args[0], playOpts)
		if err != nil {
			return err
		}
		defer p.Close()

		opts := render.DefaultOptions()
		opts.Color = !playPlain && hasTTY()
		return runLineMode(cmd.Context(), p.session, cmd.InOrStdin(), cmd.OutOrStdout(), lineOptions{
			render: opts,
			tick:   configOrDefault().Playback.TickInterval,
		})
	},
}

type lineOptions struct {
	render render.Options
	tick   time.Duration
}

// runLineMode drives a session from text commands until the story ends,
// input closes or the user quits. Input is read on its own goroutine; the
// session is only touched from this one.
func runLineMode(ctx context.Context, s *story.Session, in io.Reader, out io.Writer, opts lineOptions) error {
	if opts.tick <= 0 {
		opts.tick = 100 * time.Millisecond
	}
	r := render.New(opts.render)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := s.Begin(); err != nil {
		return err
	}
	show(out, r, s)

	ticker := time.NewTicker(opts.tick)
	defer ticker.Stop()

	last := s.State()
	for !s.Ended() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Update()
			if now := s.State(); now != last {
				last = now
				if now == story.Idle {
					show(out, r, s)
				}
			}
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := lineCommand(s, strings.TrimSpace(line), out)
			if err != nil {
				fmt.Fprintf(out, "! %v\n", err)
			}
			if quit {
				return nil
			}
			last = s.State()
			if last == story.Idle && err == nil {
				show(out, r, s)
			}
		}
	}
	fmt.Fprintln(out, "-- the end --")
	return nil
}

func lineCommand(s *story.Session, line string, out io.Writer) (bool, error) {
	switch strings.ToLower(line) {
	case "":
		return false, nil
	case "q", "quit", "exit":
		return true, nil
	case "pause":
		return false, s.Pause()
	case "resume", "r":
		return false, s.Resume()
	case "restart":
		s.Reset()
		return false, s.Begin()
	case "vars":
		printVars(out, s)
		return false, nil
	case "history":
		fmt.Fprintln(out, strings.Join(s.History(), " > "))
		return false, nil
	}

	if n, err := strconv.Atoi(line); err == nil {
		links := s.Links()
		if n < 1 || n > len(links) {
			return false, fmt.Errorf("no link %d", n)
		}
		return false, s.DoLink(links[n-1])
	}
	return false, s.FollowLink(line)
}

func show(out io.Writer, r *render.Renderer, s *story.Session) {
	fmt.Fprintln(out, r.String(s.Output().Items(), -1))
	if s.State() == story.Paused {
		fmt.Fprintln(out, "(paused)")
	}
}

func printVars(out io.Writer, s *story.Session) {
	store := s.Vars()
	names := store.Names()
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		v := store.Get(name)
		rows = append(rows, []string{name, string(v.Type()), v.String()})
	}
	_ = writeTable(out, []string{"NAME", "TYPE", "VALUE"}, rows)
}
