package vault

import (
	gitignore "github.com/sabhiram/go-gitignore"
)

// Files and directories the walker never picks up: templates (underscore
// prefixed), the scripts dir, sync state and editor droppings.
var defaultIgnoreLines = []string{
	"_*",
	"**/_*",
	"scripts/",
	".notesync/",
	".git/",
	"*.tmp",
	"*.swp",
	".DS_Store",
}

type IgnoreList struct {
	ignore *gitignore.GitIgnore
}

func NewIgnoreList() *IgnoreList {
	return &IgnoreList{ignore: gitignore.CompileIgnoreLines(defaultIgnoreLines...)}
}

func (l *IgnoreList) ShouldIgnore(relPath string) bool {
	return l.ignore.MatchesPath(relPath)
}
