// Package assistant – rule-based fallback ladder.
//
// When the provider path yields no text (no credentials, or the gateway
// failed), replies come from keyword-matched tip blocks; failing that, from
// guidance tailored to the provider's last error code; failing that, from a
// generic steer. The user never sees a raw error.
package assistant

import "strings"

// keywordTip pairs trigger substrings with a canned multi-line tip block.
type keywordTip struct {
	triggers []string
	reply    string
}

var keywordTips = []keywordTip{
	{ // freelance / budget terms
		triggers: []string{"фриланс", "вакан", "заказ", "оплата", "ставка"},
		reply: "Совет по фрилансу:\n" +
			"- Четко опишите задачу, критерии готовности и бюджет.\n" +
			"- Для подбора специалиста используйте навыки и примеры работ.\n" +
			"- Фиксируйте этапы и оплату по вехам.",
	},
	{ // debugging terms
		triggers: []string{"баг", "ошиб", "debug", "лог", "трасс"},
		reply: "Для отладки:\n" +
			"- Добавьте логирование на критичных шагах.\n" +
			"- Воспроизведите минимальный кейс.\n" +
			"- Проверьте консоль браузера и логи сервера.",
	},
	{ // search terms
		triggers: []string{"поиск", "ник", "skills", "filter", "search"},
		reply: "Поиск в DevConnect:\n" +
			"- По нику используйте поле «Поиск по никнейму».\n" +
			"- Фильтры по навыкам/опыту доступны на странице поиска.\n" +
			"- В фрилансе фильтруйте по типу и навыкам.",
	},
	{ // UI / design terms
		triggers: []string{"ui", "дизайн", "интерфейс", "прозрач", "glass"},
		reply: "UI совет:\n" +
			"- Используйте стеклянные карточки (glass-effect) для акцентов.\n" +
			"- Следите за контрастом текста на прозрачном фоне.",
	},
}

const genericSteer = "Я здесь, чтобы помочь с IT, фрилансом и вашим сайтом DevConnect.\n" +
	"Сформулируйте вопрос или тему — предложу конкретные шаги."

// keywordReply returns the tip block matching text, or ("", false).
func keywordReply(text string) (string, bool) {
	t := strings.ToLower(text)
	for _, tip := range keywordTips {
		for _, trig := range tip.triggers {
			if strings.Contains(t, trig) {
				return tip.reply, true
			}
		}
	}
	return "", false
}

// errorFallback maps the provider's last HTTP status to user-facing guidance.
// Used only when no keyword tip matched.
func errorFallback(status int) string {
	switch status {
	case 429:
		return "Похоже, достигнут лимит запросов к AI (429 Too Many Requests). " +
			"Сделайте паузу 10–20 секунд и повторите. Я всё равно помогу: " +
			"кратко опишите цель, стек и что уже пробовали."
	case 401, 403:
		return "Пока нет доступа к AI (ошибка авторизации). Я помогу без модели: " +
			"опишите цель, стек и что уже пробовали — предложу шаги."
	default:
		return "Сейчас не удалось обратиться к модели. Давайте всё равно продвинемся: " +
			"кратко опишите цель, какой стек используете, и что уже пробовали. " +
			"Если это вопрос по DevConnect — укажите раздел и что хотите сделать."
	}
}

// proactiveFallbacks are the provider-less variants for the proactive
// suggestion mode. At least two are required so back-to-back calls never
// repeat themselves verbatim.
var proactiveFallbacks = []string{
	"Предлагаю продолжить: уточните цель, стек (например, Flask/React/SQL), и что уже пробовали. " +
		"Могу наметить чек-лист шагов и дать ссылки на разделы сайта.",
	"Следующий шаг: выберите одну конкретную задачу — код, отладка или раздел DevConnect — " +
		"и опишите её в двух предложениях. Я предложу план из 2–3 пунктов.",
	"Давайте сузим тему: профиль, поиск людей, чаты или фриланс? " +
		"Назовите раздел и цель — подскажу, с чего начать.",
}
