package prompt

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/Conceptual-Machines/hogwarts-archives/pkg/embedded"
)

type Loader struct{}

func NewPromptLoader() *Loader {
	return &Loader{}
}

// GetSystemPrompt loads the role instruction sent with every record request
func (l *Loader) GetSystemPrompt() (string, error) {
	return strings.TrimSpace(string(embedded.SystemPromptTxt)), nil
}

// GetRecordRules loads the record rules, one per entry, comments dropped
func (l *Loader) GetRecordRules() ([]string, error) {
	return readLines(embedded.RecordRulesTxt), nil
}

// GetImageDirectives loads the fixed composition directives for portraits
func (l *Loader) GetImageDirectives() (string, error) {
	return strings.TrimSpace(string(embedded.ImageDirectivesTxt)), nil
}

// GetRandomPrompts loads the example prompts offered by the randomize action
func (l *Loader) GetRandomPrompts() ([]string, error) {
	return readLines(embedded.RandomPromptsTxt), nil
}

// readLines returns the non-empty, non-comment lines of data
func readLines(data []byte) []string {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
