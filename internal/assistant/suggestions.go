// Package assistant – contextual site suggestions.
//
// Replies get a short block of relevant site-section links appended when the
// combined user+reply text mentions a known topic. The block is suppressed if
// the immediately preceding assistant turn already carried it, to avoid
// nagging the user with the same links turn after turn.
package assistant

import "strings"

const suggestionsHeader = "Полезно на DevConnect:"

// suggestionRule maps trigger substrings to one or more site sections.
type suggestionRule struct {
	triggers []string
	links    []siteLink
}

type siteLink struct {
	label string
	path  string
}

var suggestionRules = []suggestionRule{
	{
		triggers: []string{"профил", "аватар", "скилл", "skills"},
		links:    []siteLink{{"Профиль", "/profile"}, {"Настройки", "/settings"}},
	},
	{
		triggers: []string{"поиск", "найти", "фильтр", "users", "найди"},
		links:    []siteLink{{"Поиск пользователей", "/search"}, {"Все пользователи", "/users"}},
	},
	{
		triggers: []string{"чат", "сообщен"},
		links:    []siteLink{{"Чаты", "/chats"}},
	},
	{
		triggers: []string{"фриланс", "ваканс", "заказ"},
		links:    []siteLink{{"Фриланс", "/freelance"}, {"Создать вакансию", "/freelance/new"}},
	},
	{
		triggers: []string{"ai", "бот", "devbot"},
		links:    []siteLink{{"AI-чат", "/chat/ai"}},
	},
}

// siteSuggestions builds the link block for text, or "" when nothing matched.
func siteSuggestions(text string) string {
	t := strings.ToLower(text)
	var lines []string
	for _, rule := range suggestionRules {
		matched := false
		for _, trig := range rule.triggers {
			if strings.Contains(t, trig) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		for _, l := range rule.links {
			lines = append(lines, "- "+l.label+": "+l.path)
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return suggestionsHeader + "\n" + strings.Join(lines, "\n")
}

// appendSuggestions attaches the suggestion block for text to reply, unless
// the previous assistant turn already contains an identical block.
func appendSuggestions(reply, text, lastAssistant string) string {
	sug := siteSuggestions(text)
	if sug == "" {
		return reply
	}
	if lastAssistant != "" && strings.Contains(lastAssistant, sug) {
		return reply
	}
	return reply + "\n\n" + sug
}
