package storyfile

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// LoadBuiltinStories returns the stories bundled with cradle.
func LoadBuiltinStories() ([]*StoryFile, error) {
	entries, err := fs.ReadDir(builtinFS, "builtin")
	if err != nil {
		return nil, fmt.Errorf("read builtin stories: %w", err)
	}

	stories := make([]*StoryFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := builtinFS.ReadFile("builtin/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read builtin story %s: %w", entry.Name(), err)
		}
		sf, err := ParseStory(data)
		if err != nil {
			return nil, fmt.Errorf("parse builtin story %s: %w", entry.Name(), err)
		}
		sf.Source = "builtin"
		stories = append(stories, sf)
	}

	sort.Slice(stories, func(i, j int) bool {
		return stories[i].Name < stories[j].Name
	})

	return stories, nil
}
