// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package relay

import (
	"errors"
	"io/fs"
	"os"
	"strings"
)

// BuildPrompt assembles the text sent to a backend. Context and diff
// sections are omitted when empty.
func BuildPrompt(prompt, repoPath, contextText, diffText string) string {
	sections := []string{
		"You are helping another coding agent by reviewing or advising on work in a local repository.",
		"Repository path: " + repoPath,
		"Use the repository files for context when needed.",
		"Respond with concise, actionable feedback.",
		"",
		"Request:",
		strings.TrimSpace(prompt),
	}
	if contextText != "" {
		sections = append(sections, "", "Additional Context:", contextText)
	}
	if diffText != "" {
		sections = append(sections, "", "Git Diff:", diffText)
	}
	return strings.TrimSpace(strings.Join(sections, "\n"))
}

// resolveContext returns the trimmed context from either a file or inline
// text. The file is validated before the exclusivity check so a bad path is
// reported as such.
func resolveContext(contextFile, contextText string) (string, error) {
	var fileText string
	if contextFile != "" {
		var err error
		if fileText, err = readContextFile(contextFile); err != nil {
			return "", err
		}
	}

	inline := strings.TrimSpace(contextText)
	if contextFile != "" && inline != "" {
		return "", errorf("use either context file or context text, not both")
	}
	if inline != "" {
		if err := checkSize("context text", inline, MaxContextBytes); err != nil {
			return "", err
		}
		return inline, nil
	}
	return fileText, nil
}

func readContextFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", errorf("context file does not exist: %s", path)
		}
		return "", &Error{Message: "failed reading context file: " + err.Error(), Err: err}
	}
	if !info.Mode().IsRegular() {
		return "", errorf("context path is not a file: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", &Error{Message: "failed reading context file: " + err.Error(), Err: err}
	}

	text := strings.TrimSpace(string(data))
	if err := checkSize("context file", text, MaxContextBytes); err != nil {
		return "", err
	}
	return text, nil
}
