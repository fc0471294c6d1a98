// Package assistant – small-talk short circuit.
//
// Trivial exchanges (greetings, thanks, farewells, "who are you") are handled
// from a fixed table without ever touching a provider. Each category carries
// several canned variants; one is picked at random so repeated greetings do
// not feel scripted, while staying bounded and network-free.
package assistant

import "strings"

// smallTalkCategory pairs trigger substrings with reply variants.
type smallTalkCategory struct {
	triggers []string
	replies  []string
}

var smallTalkTable = []smallTalkCategory{
	{ // greeting
		triggers: []string{"привет", "здрав", "добрый день", "доброе утро", "добрый вечер", "hi", "hello", "hey"},
		replies: []string{
			"Привет! Рад помочь. Чем могу быть полезен по программированию, фрилансу или DevConnect?",
			"Здравствуйте! Подскажите, по какому вопросу: код, фриланс или разделы DevConnect?",
		},
	},
	{ // how-are-you
		triggers: []string{"как дела", "как ты", "как твои дела"},
		replies: []string{
			"Все отлично, спасибо! Чем помочь по коду, фрилансу или DevConnect?",
			"Хорошо, благодарю! Какой вопрос по разработке или DevConnect обсудим?",
		},
	},
	{ // who-are-you
		triggers: []string{"кто ты", "что ты умеешь", "что умеешь", "что ты можешь", "что можешь"},
		replies: []string{
			"Я DevBot на DevConnect: помогаю с программированием, фрилансом и разделами сайта.",
			"DevBot к вашим услугам: код, архитектура, отладка и навигация по DevConnect.",
		},
	},
	{ // thanks
		triggers: []string{"спасибо", "благодарю", "thx", "thanks"},
		replies: []string{
			"Пожалуйста! Если нужно — уточните задачу, стек и желаемый результат.",
			"Всегда пожалуйста! Готов подсказать по коду и DevConnect.",
		},
	},
	{ // farewell
		triggers: []string{"пока", "до свидан", "увидимся", "bye", "goodbye"},
		replies: []string{
			"Хорошего дня! Если появятся вопросы — пишите.",
			"До связи! Удачи в проектах.",
		},
	},
}

// siteOverviewTriggers recognize "what is this site" style questions, which
// answer from the knowledge excerpt instead of a canned variant.
var siteOverviewTriggers = []string{
	"что на сайте", "расскажи про сайт", "что такое devconnect", "что за сайт", "какие разделы",
}

const siteOverviewFallback = "DevConnect — площадка с профилями, поиском, чатами и разделом фриланса. Чем именно помочь?"

// smallTalk returns the canned reply for recognized small talk, or ("", false).
// The pick function selects a variant index (injected randomness).
func (r *Responder) smallTalk(text string) (string, bool) {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return "", false
	}

	for _, cat := range smallTalkTable {
		for _, trig := range cat.triggers {
			if strings.Contains(t, trig) {
				return cat.replies[r.pick(len(cat.replies))], true
			}
		}
	}

	// Site overview questions.
	overview := false
	for _, trig := range siteOverviewTriggers {
		if strings.Contains(t, trig) {
			overview = true
			break
		}
	}
	if !overview && strings.Contains(t, "devconnect") {
		overview = strings.Contains(t, "что") || strings.Contains(t, "какие") || strings.Contains(t, "раздел")
	}
	if overview {
		if kb := r.knowledge(); kb != "" {
			return "Кратко о DevConnect:\n" + firstLines(kb, 12), true
		}
		return siteOverviewFallback, true
	}

	return "", false
}

// firstLines returns at most n leading lines of s.
func firstLines(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}
