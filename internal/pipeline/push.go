package pipeline

import (
	"strings"
)

const (
	documentExtension = ".md"
	metadataPath      = "metadata/"
	metadataExtension = ".yaml"
)

// ChangeAction says what a push did to a document.
type ChangeAction string

const (
	ChangeUpdate ChangeAction = "update"
	ChangeRemove ChangeAction = "remove"
)

// Commit is the file list of one pushed commit.
type Commit struct {
	ID       string
	Added    []string
	Modified []string
	Removed  []string
}

// PushEvent is the part of a push delivery the pipeline needs.
type PushEvent struct {
	DeliveryID   string
	RepoFullName string
	Ref          string
	// After is the head commit of the push. Content is read at this commit
	// when set, otherwise at Ref.
	After   string
	Commits []Commit
}

// ContentRef is the ref documents are fetched at.
func (e PushEvent) ContentRef() string {
	if after := strings.TrimSpace(e.After); after != "" {
		return after
	}
	return e.Ref
}

// Change is one document to act on.
type Change struct {
	Path   string
	Action ChangeAction
}

// DocsFromPush selects the documents under documentPath with the given
// extension. Modified and added files become updates and removed files
// removals, each deduplicated in order of first appearance.
func DocsFromPush(commits []Commit, documentPath, extension string) []Change {
	if extension == "" {
		extension = documentExtension
	}
	matches := func(file string) bool {
		return strings.HasPrefix(file, documentPath) && strings.HasSuffix(file, extension)
	}

	var updates, removals []string
	for _, commit := range commits {
		for _, file := range commit.Modified {
			if matches(file) {
				updates = append(updates, file)
			}
		}
		for _, file := range commit.Added {
			if matches(file) {
				updates = append(updates, file)
			}
		}
		for _, file := range commit.Removed {
			if matches(file) {
				removals = append(removals, file)
			}
		}
	}

	changes := make([]Change, 0, len(updates)+len(removals))
	for _, file := range dedupe(updates) {
		changes = append(changes, Change{Path: file, Action: ChangeUpdate})
	}
	for _, file := range dedupe(removals) {
		changes = append(changes, Change{Path: file, Action: ChangeRemove})
	}
	return changes
}

// ConfigFilesFromPush returns the metadata YAML files a push added or modified.
func ConfigFilesFromPush(commits []Commit) []string {
	var files []string
	for _, change := range DocsFromPush(commits, metadataPath, metadataExtension) {
		if change.Action == ChangeUpdate {
			files = append(files, change.Path)
		}
	}
	return files
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
