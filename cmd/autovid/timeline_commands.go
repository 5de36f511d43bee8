package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/autovid/autovid-editor/internal/export"
	"github.com/autovid/autovid-editor/internal/timeline"
)

// errFindings makes the process exit non-zero after a command has already
// reported its findings.
var errFindings = errors.New("timeline has validation errors")

func newTimelineCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newInspectCommand(),
		newValidateCommand(),
		newEDLCommand(ctx),
		newResolveOverlapsCommand(),
	}
}

// readDocument loads a timeline document from path, or stdin when path is "-".
func readDocument(cmd *cobra.Command, path string) (*timeline.Timeline, []byte, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read timeline: %w", err)
	}

	t, err := timeline.FromJSON(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, data, nil
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func newInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <timeline.json>",
		Short: "Summarise a timeline document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, data, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			title := cases.Title(language.English)

			fmt.Fprintf(out, "%s (%s)\n", t.Name(), t.ID())
			fmt.Fprintf(out, "Duration %ss, %d tracks, %d clips, %s, updated %s\n\n",
				seconds(t.Duration()), t.TrackCount(), t.ClipCount(),
				humanize.Bytes(uint64(len(data))), humanize.Time(t.UpdatedAt()))

			trackRows := make([][]string, 0, t.TrackCount())
			var clipRows [][]string
			for i, tr := range t.Tracks() {
				var flags []byte
				for _, f := range []struct {
					on   bool
					mark byte
				}{{tr.Locked, 'L'}, {tr.Muted, 'M'}, {tr.Solo, 'S'}, {!tr.Visible, 'H'}} {
					if f.on {
						flags = append(flags, f.mark)
					}
				}
				trackRows = append(trackRows, []string{
					strconv.Itoa(i + 1), tr.Name, title.String(string(tr.Type)),
					strconv.Itoa(len(tr.Clips)), string(flags),
				})

				for _, c := range tr.Clips {
					src := c.Source.Src
					if c.Source.Kind == timeline.SourceText {
						src = strconv.Quote(c.Source.Content)
					}
					clipRows = append(clipRows, []string{
						c.Name, tr.Name, seconds(c.StartTime), seconds(c.EndTime), seconds(c.Span()), src,
					})
				}
			}

			fmt.Fprintln(out, renderTable(
				[]string{"#", "Track", "Type", "Clips", "Flags"},
				trackRows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
			))
			if len(clipRows) > 0 {
				fmt.Fprintln(out, renderTable(
					[]string{"Clip", "Track", "Start", "End", "Span", "Source"},
					clipRows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
				))
			}
			return nil
		},
	}
}

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <timeline.json>",
		Short: "Check a timeline document against the editing rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, _, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			color := shouldColorize(out)

			res := timeline.ValidateTimeline(t)
			if res.Valid {
				fmt.Fprintln(out, colorize(color, ansiGreen, "valid")+": "+t.Name())
				return nil
			}

			fmt.Fprintln(out, colorize(color, ansiRed, "invalid")+": "+t.Name())
			for _, e := range res.Errors {
				fmt.Fprintf(out, "  - %s\n", e)
			}
			return errFindings
		},
	}
}

func newEDLCommand(ctx *commandContext) *cobra.Command {
	var output string
	var fps float64

	cmd := &cobra.Command{
		Use:   "edl <timeline.json>",
		Short: "Write a CMX 3600 EDL for a timeline document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, _, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}

			if fps <= 0 {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				fps = cfg.ExportFPS()
			}

			plan := export.FromTimeline(t, nil)
			for _, s := range plan.Skipped {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: %s\n", s.ClipName, s.Reason)
			}
			if len(plan.Clips) == 0 {
				return errors.New("timeline has no exportable clips")
			}

			return writeOutput(cmd, output, []byte(export.GenerateEDL(plan.Clips, plan.Title, fps)))
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the EDL to this file instead of stdout")
	cmd.Flags().Float64Var(&fps, "fps", 0, "Timecode frame rate (defaults to the configured export fps)")
	return cmd
}

func newResolveOverlapsCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "resolve-overlaps <timeline.json>",
		Short: "Trim overlapping clips on every track and print the sorted result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, _, err := readDocument(cmd, args[0])
			if err != nil {
				return err
			}

			next := timeline.NewEngine().SplitOverlappingClips(t)

			trimmed := 0
			for _, c := range next.Clips() {
				if before, ok := t.Clip(c.ID); ok && before.StartTime != c.StartTime {
					trimmed++
				}
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "trimmed %d clips, removed %d\n", trimmed, t.ClipCount()-next.ClipCount())

			doc, err := timeline.ToJSON(next)
			if err != nil {
				return err
			}
			return writeOutput(cmd, output, append(doc, '\n'))
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the document to this file instead of stdout")
	return cmd
}
