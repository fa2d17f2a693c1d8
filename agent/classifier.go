// Package agent implements the natural-language front end: a deterministic
// intent classifier and the conversation flow that turns classified intents
// into tool calls and replies.
package agent

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"todochat/domain"
)

// Keyword sets checked in fixed priority order. Matching is substring
// containment on the lower-cased message, so "todos" satisfies "todo".
var (
	createVerbs = []string{"create", "add", "new", "make"}
	listVerbs   = []string{"show", "list", "view", "get", "what"}
	updateVerbs = []string{"update", "change", "modify", "edit"}
	deleteVerbs = []string{"delete", "remove", "cancel"}
	toggleVerbs = []string{"complete", "done", "finish", "mark"}

	createNouns = []string{"todo", "task", "do"}
	listNouns   = []string{"todo", "task", "todos", "tasks", "list"}
	taskNouns   = []string{"todo", "task"}

	// Verbs that suggest the user is adding something even without an
	// explicit "todo"/"task" noun.
	actionVerbs = []string{"buy", "call", "walk", "pick", "go"}
)

var titleStopWords = map[string]bool{
	"add":    true,
	"create": true,
	"make":   true,
	"new":    true,
	"please": true,
	"can":    true,
	"you":    true,
}

var (
	quotedAfterVerbRe = regexp.MustCompile(`(?i)(?:add|create|make|new) ['"](.+?)['"]`)
	quotedRe          = regexp.MustCompile(`['"](.+?)['"]`)
	updateFormRe      = regexp.MustCompile(`(?i)update ['"](.+?)['"] to ['"](.+?)['"]`)
)

// Classify maps free text to an intent plus an extracted task title where
// the intent needs one. It is pure computation and deterministic; the only
// error it returns is a validation error for empty or too-short input.
func Classify(text string) (domain.Intent, string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return domain.IntentUnknown, "", fmt.Errorf("%w: message cannot be empty", domain.ErrValidation)
	}
	if utf8.RuneCountInString(trimmed) < 3 {
		return domain.IntentUnknown, "", fmt.Errorf("%w: message is too short to process", domain.ErrValidation)
	}

	lower := strings.ToLower(text)

	switch {
	case containsAny(lower, createVerbs) && containsAny(lower, createNouns):
		return domain.IntentCreateTask, ExtractTitle(text), nil
	case containsAny(lower, listVerbs) && containsAny(lower, listNouns):
		return domain.IntentListTasks, "", nil
	case updateFormRe.MatchString(text),
		containsAny(lower, updateVerbs) && containsAny(lower, taskNouns):
		return domain.IntentUpdateTask, "", nil
	case containsAny(lower, deleteVerbs) && containsAny(lower, taskNouns):
		return domain.IntentDeleteTask, ExtractTitle(text), nil
	case containsAny(lower, toggleVerbs) && containsAny(lower, taskNouns):
		return domain.IntentToggleCompletion, ExtractTitle(text), nil
	case containsAny(lower, actionVerbs):
		return domain.IntentCreateTask, ExtractTitle(text), nil
	}

	return domain.IntentUnknown, "", nil
}

// ExtractTitle pulls a task title out of a message. It tries a quoted
// string after a creation verb, then any quoted substring, then strips a
// leading stop word; as a last resort the trimmed message itself is the
// title.
func ExtractTitle(message string) string {
	if m := quotedAfterVerbRe.FindStringSubmatch(message); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := quotedRe.FindStringSubmatch(message); m != nil {
		return strings.TrimSpace(m[1])
	}

	words := strings.Fields(strings.ToLower(message))
	if len(words) > 1 && titleStopWords[words[0]] {
		return strings.TrimSpace(strings.Join(words[1:], " "))
	}

	return strings.TrimSpace(message)
}

// ExtractUpdateTitles parses the strict update form
// `update '<old title>' to '<new title>'`, case-insensitive.
func ExtractUpdateTitles(message string) (oldTitle, newTitle string, ok bool) {
	m := updateFormRe.FindStringSubmatch(message)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
