package zipcore

import "github.com/bmatcuk/doublestar/v4"

// EntriesMatching returns the names of every entry in a whose name
// matches the doublestar glob pattern (e.g. "assets/**/*.png"). The
// archive stores a flat list of entries, not a directory tree, so
// matching is done name-by-name against the full path rather than by
// walking any hierarchy.
func EntriesMatching(a *SliceArchive, pattern string) ([]string, error) {
	var names []string
	it := a.Entries()
	for {
		e, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		name, err := e.Name()
		if err != nil {
			continue
		}
		matched, err := doublestar.Match(pattern, name)
		if err != nil {
			return nil, err
		}
		if matched {
			names = append(names, name)
		}
	}
	return names, nil
}
