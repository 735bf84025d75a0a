package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opencode-ai/cradle/internal/storyfile"
)

func init() {
	rootCmd.AddCommand(storiesCmd)
	rootCmd.AddCommand(passagesCmd)
}

// StorySummary describes a discoverable story.
type StorySummary struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Start       string `json:"start"`
	Strict      bool   `json:"strict"`
	Passages    int    `json:"passages"`
	Source      string `json:"source"`
}

// PassageSummary describes one passage of a story.
type PassageSummary struct {
	Name  string   `json:"name"`
	Tags  []string `json:"tags,omitempty"`
	Steps int      `json:"steps"`
	Start bool     `json:"start"`
}

var storiesCmd = &cobra.Command{
	Use:   "stories",
	Short: "List available stories",
	Long:  "List stories from configured directories, the standard search paths and the builtins. Earlier locations shadow later ones.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := storyfile.LoadStoriesFromSearchPaths(storySearchPaths(configOrDefault()))
		if err != nil {
			return err
		}

		summaries := make([]StorySummary, 0, len(files))
		for _, sf := range files {
			summaries = append(summaries, StorySummary{
				Name:        sf.Name,
				Description: sf.Description,
				Start:       sf.Start,
				Strict:      sf.Strict,
				Passages:    len(sf.Passages),
				Source:      sf.Source,
			})
		}

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(cmd.OutOrStdout(), summaries)
		}
		if len(summaries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No stories found.")
			return nil
		}
		rows := make([][]string, 0, len(summaries))
		for _, s := range summaries {
			rows = append(rows, []string{s.Name, fmt.Sprint(s.Passages), formatYesNo(s.Strict), sourceLabel(s.Source), s.Description})
		}
		return writeTable(cmd.OutOrStdout(), []string{"NAME", "PASSAGES", "STRICT", "SOURCE", "DESCRIPTION"}, rows)
	},
}

var passagesCmd = &cobra.Command{
	Use:   "passages <story>",
	Short: "List the passages of a story",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sf, err := storyfile.Find(storySearchPaths(configOrDefault()), args[0])
		if err != nil {
			return err
		}

		summaries := make([]PassageSummary, 0, len(sf.Passages))
		for _, p := range sf.Passages {
			summaries = append(summaries, PassageSummary{
				Name:  p.Name,
				Tags:  p.Tags,
				Steps: len(p.Body),
				Start: p.Name == sf.Start,
			})
		}

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(cmd.OutOrStdout(), summaries)
		}
		rows := make([][]string, 0, len(summaries))
		for _, p := range summaries {
			name := p.Name
			if p.Start {
				name += " *"
			}
			rows = append(rows, []string{name, strings.Join(p.Tags, ","), fmt.Sprint(p.Steps)})
		}
		return writeTable(cmd.OutOrStdout(), []string{"PASSAGE", "TAGS", "STEPS"}, rows)
	},
}

func sourceLabel(source string) string {
	if source == "" {
		return "-"
	}
	if home, err := os.UserHomeDir(); err == nil && strings.HasPrefix(source, home) {
		return "~" + strings.TrimPrefix(source, home)
	}
	return source
}
