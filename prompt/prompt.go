// Package prompt renders tenant prompt templates by substituting a
// fixed set of placeholders with per-run values.
package prompt

import (
	"strings"

	"github.com/storeops/sop-agent-go/checkpoint"
)

// Placeholders recognized in tenant templates. Any other brace-wrapped
// token passes through verbatim; there is no escaping.
const (
	PlaceholderConversation = "{conversation}"
	PlaceholderContext      = "{context}"
	PlaceholderSearchQuery  = "{search_query}"
)

// RenderRewrite fills a rewrite template. {conversation} receives the
// rendered prior turns and {search_query} the raw user utterance; the
// rewrite stage does not substitute {context}.
func RenderRewrite(template, conversation, userQuery string) string {
	rendered := strings.ReplaceAll(template, PlaceholderConversation, conversation)
	rendered = strings.ReplaceAll(rendered, PlaceholderSearchQuery, userQuery)
	return rendered
}

// RenderAnswer fills an answer template. Substitution runs in a fixed
// order: {conversation}, then {context}, then {search_query}.
// {search_query} receives the raw user utterance, not the rewritten
// search query.
func RenderAnswer(template, conversation, context, userQuery string) string {
	rendered := strings.ReplaceAll(template, PlaceholderConversation, conversation)
	rendered = strings.ReplaceAll(rendered, PlaceholderContext, context)
	rendered = strings.ReplaceAll(rendered, PlaceholderSearchQuery, userQuery)
	return rendered
}

// Conversation renders turns as one "Role: content" line per turn.
// User turns render as "User", assistant turns as "Assistant".
func Conversation(turns []checkpoint.Turn) string {
	if len(turns) == 0 {
		return ""
	}
	lines := make([]string, 0, len(turns))
	for _, turn := range turns {
		role := "User"
		if turn.Role == checkpoint.RoleAssistant {
			role = "Assistant"
		}
		lines = append(lines, role+": "+turn.Content)
	}
	return strings.Join(lines, "\n")
}
