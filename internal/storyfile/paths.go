package storyfile

import (
	"fmt"
	"os"
	"path/filepath"
)

// StorySearchPaths returns story search directories in precedence order.
func StorySearchPaths(projectDir string) []string {
	paths := make([]string, 0, 3)
	if projectDir != "" {
		paths = append(paths, filepath.Join(projectDir, ".cradle", "stories"))
	}

	if home, err := os.UserHomeDir(); err == nil && home != "" {
		paths = append(paths, filepath.Join(home, ".config", "cradle", "stories"))
	}

	paths = append(paths, filepath.Join(string(filepath.Separator), "usr", "share", "cradle", "stories"))
	return paths
}

// LoadStoriesFromSearchPaths loads stories from the given directories with
// first-hit precedence, then fills in builtins not shadowed by name.
func LoadStoriesFromSearchPaths(paths []string) ([]*StoryFile, error) {
	seen := make(map[string]*StoryFile)
	order := make([]string, 0)

	for _, path := range paths {
		stories, err := LoadStoriesFromDir(path)
		if err != nil {
			return nil, err
		}
		for _, sf := range stories {
			if _, exists := seen[sf.Name]; exists {
				continue
			}
			seen[sf.Name] = sf
			order = append(order, sf.Name)
		}
	}

	builtins, err := LoadBuiltinStories()
	if err != nil {
		return nil, err
	}
	for _, sf := range builtins {
		if _, exists := seen[sf.Name]; exists {
			continue
		}
		seen[sf.Name] = sf
		order = append(order, sf.Name)
	}

	resolved := make([]*StoryFile, 0, len(order))
	for _, name := range order {
		resolved = append(resolved, seen[name])
	}
	return resolved, nil
}

// Find returns the story named name, or treats name as a file path when it
// names an existing file.
func Find(paths []string, name string) (*StoryFile, error) {
	if info, err := os.Stat(name); err == nil && !info.IsDir() {
		return LoadStory(name)
	}

	stories, err := LoadStoriesFromSearchPaths(paths)
	if err != nil {
		return nil, err
	}
	for _, sf := range stories {
		if sf.Name == name {
			return sf, nil
		}
	}
	return nil, fmt.Errorf("story %q not found", name)
}
