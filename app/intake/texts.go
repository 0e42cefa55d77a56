package intake

import "errors"

// User-facing texts of the questionnaire. The bot speaks Russian; prompts
// carry the step number out of the total of eight.

const (
	textWelcome = "Привет! Рада вашему интересу к проекту 💛\n" +
		"Участие в портфолио — 17000 ₽. Оставьте данные в анкете, и мы свяжемся после рассмотрения заявки🌠\n\n" +
		"👶 *Шаг 1 из 8:* Введите имя ребенка"

	textBusy = "⚠️ Сейчас много активных пользователей. Попробуйте через 5-10 минут."

	// TextNoSession nudges a chat without an active session towards /start.
	TextNoSession = "Пожалуйста, начните с команды /start"

	textCancelled = "❌ Заявка отменена. Чтобы начать заново, используйте /start"

	textDone = "🎉 *Все данные успешно сохранены!*\n\nСпасибо за заявку! Мы свяжемся с вами."

	// TextStatsDenied is sent when a non-admin calls an admin-only command.
	TextStatsDenied = "❌ Эта команда доступна только администраторам"
)

var stepPrompts = map[Step]string{
	StepChildName:      "👶 *Шаг 1 из 8:* Введите имя ребенка",
	StepPhoto:          "📸 *Шаг 2 из 8:* Отправьте фотографию ребенка",
	StepVideo:          "🎥 *Шаг 3 из 8:* Отправьте видео ребенка (до 1 минуты)",
	StepFootSize:       "👣 *Шаг 4 из 8:* Введите размер ноги ребенка (в см)",
	StepHeight:         "📏 *Шаг 5 из 8:* Введите рост ребенка (в см)",
	StepParentName:     "👤 *Шаг 6 из 8:* Введите ваше имя",
	StepParentPhone:    "📱 *Шаг 7 из 8:* Введите ваш номер телефона",
	StepParentTelegram: "✈️ *Шаг 8 из 8:* Введите ваш Telegram в формате @username",
}

var stepAcks = map[Step]string{
	StepChildName:   "✅ Имя ребенка сохранено!",
	StepPhoto:       "✅ Фото сохранено!",
	StepVideo:       "✅ Видео сохранено!",
	StepFootSize:    "✅ Размер ноги сохранен!",
	StepHeight:      "✅ Рост сохранен!",
	StepParentName:  "✅ Имя сохранено!",
	StepParentPhone: "✅ Телефон сохранен!",
}

var stepRejects = map[Step]string{
	StepChildName:      "❌ Пожалуйста, введите имя ребенка",
	StepFootSize:       "❌ Пожалуйста, введите корректный размер ноги (0-30 см)",
	StepHeight:         "❌ Пожалуйста, введите корректный рост (0-200 см)",
	StepParentName:     "❌ Пожалуйста, введите ваше имя",
	StepParentPhone:    "❌ Пожалуйста, введите корректный номер телефона",
	StepParentTelegram: "❌ Пожалуйста, введите username в формате @username",
}

// stepFormatRejects replaces the range text on numeric steps when the input
// does not parse as a number at all.
var stepFormatRejects = map[Step]string{
	StepFootSize: "❌ Пожалуйста, введите число для размера ноги",
	StepHeight:   "❌ Пожалуйста, введите число для роста",
}

// rejectText picks the retry message for a failed validation.
func rejectText(step Step, err error) string {
	if errors.Is(err, errNotNumber) {
		if text, ok := stepFormatRejects[step]; ok {
			return text
		}
	}
	return stepRejects[step]
}

// Media failure texts are exported: the telegram layer reuses them when a
// download from the Bot API fails before the manager is ever reached.
const (
	TextPhotoFailed  = "❌ Ошибка при сохранении фото. Попробуйте еще раз."
	TextVideoFailed  = "❌ Ошибка при сохранении видео. Попробуйте еще раз."
	TextVideoTooLong = "❌ Видео слишком длинное! Пожалуйста, отправьте видео до 1 минуты."
)

// advanceReply combines the ack of the completed step with the prompt of the next one.
func advanceReply(done, next Step) string {
	ack := stepAcks[done]
	prompt := stepPrompts[next]
	if ack == "" {
		return prompt
	}
	if prompt == "" {
		return ack
	}
	return ack + "\n\n" + prompt
}
