package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"research_article_generator/research"
	"research_article_generator/tui"
)

func newGenerateCommand() *cobra.Command {
	var (
		files    []string
		apiKey   string
		out      string
		markdown string
		plain    bool
	)
	cmd := &cobra.Command{
		Use:   "generate --file a.txt [--file b.txt ...]",
		Short: "Generate an article from transcript files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if apiKey == "" {
				apiKey = os.Getenv("OPENAI_API_KEY")
			}

			var transcripts []research.Transcript
			for _, path := range append(files, args...) {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				transcripts = append(transcripts, research.Transcript{Name: filepath.Base(path), Data: data})
			}
			transcripts, skipped := research.TextOnly(transcripts)
			for _, name := range skipped {
				fmt.Fprintf(os.Stderr, "skipping %s: not a .txt file\n", name)
			}

			st := openStore(cfg)
			if st != nil {
				defer st.Close()
			}
			runner := buildRunner(cfg, st)
			req := research.Request{Transcripts: transcripts, APIKey: apiKey}

			var res *research.Result
			if plain {
				res, err = runner.Run(cmd.Context(), req, printEvent)
			} else {
				res, err = runWithProgress(cmd.Context(), runner, req)
			}
			if err != nil {
				if plain {
					for _, line := range research.UserMessage(err) {
						fmt.Fprintln(os.Stderr, line)
					}
				}
				return errors.New("generation failed")
			}

			if err := os.WriteFile(out, res.Document, 0o644); err != nil {
				return err
			}
			if markdown != "" {
				if err := os.WriteFile(markdown, []byte(res.Article), 0o644); err != nil {
					return err
				}
			}
			fmt.Printf("Saved %s (run %s)\n", out, res.RunID)
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&files, "file", "f", nil, "transcript file (repeatable)")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "OpenAI API key (default $OPENAI_API_KEY)")
	cmd.Flags().StringVarP(&out, "out", "o", "research_article.docx", "output document path")
	cmd.Flags().StringVar(&markdown, "markdown", "", "also write the article text to this path")
	cmd.Flags().BoolVar(&plain, "plain", false, "print progress lines instead of the interactive view")
	return cmd
}

func printEvent(ev research.Event) {
	switch ev.Type {
	case research.EventRunStarted, research.EventCredentialVerified:
		fmt.Println(ev.Message)
	case research.EventStageStarted:
		fmt.Printf("Step %d/%d: %s working on %s...\n", ev.Step, ev.Steps, ev.Role, ev.Stage)
	case research.EventDocumentReady:
		fmt.Println("Research article generated successfully!")
	}
}

// runWithProgress drives the run from a goroutine and feeds its events to
// the bubbletea view.
func runWithProgress(ctx context.Context, runner *research.Runner, req research.Request) (*research.Result, error) {
	p := tea.NewProgram(tui.NewProgress())
	go func() {
		res, err := runner.Run(ctx, req, func(ev research.Event) {
			p.Send(tui.EventMsg(ev))
		})
		p.Send(tui.DoneMsg{Result: res, Err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	res, runErr := final.(tui.Progress).Outcome()
	if res == nil && runErr == nil {
		return nil, errors.New("interrupted")
	}
	return res, runErr
}

func newRunsCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent runs from the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			st := openStore(cfg)
			if st == nil {
				return errors.New("run ledger unavailable")
			}
			defer st.Close()

			runs, err := st.ListRuns(limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tFILES\tMODEL\tCREATED\tERROR")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					r.ID, r.Status, strings.Join(r.Files, ","), r.Model,
					r.CreatedAt.Local().Format(time.DateTime), r.ErrorKind)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show")
	return cmd
}
