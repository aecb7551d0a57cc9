package bot

import (
	"github.com/Houeta/logitrack/internal/i18n"
	"gopkg.in/telebot.v4"
)

// buildMainMenu creates the reply keyboard with translated text.
func (b *Bot) buildMainMenu(tCtx telebot.Context) *telebot.ReplyMarkup {
	menu := &telebot.ReplyMarkup{ResizeKeyboard: true}

	btnTrack := menu.Text(b.t(tCtx, "menu.track"))
	btnLanguage := menu.Text(b.t(tCtx, "menu.language"))
	btnHelp := menu.Text(b.t(tCtx, "menu.help"))

	menu.Reply(
		menu.Row(btnTrack),
		menu.Row(btnLanguage, btnHelp),
	)

	return menu
}

// buildLanguageMenu creates the inline language picker.
func (b *Bot) buildLanguageMenu(tCtx telebot.Context) *telebot.ReplyMarkup {
	menu := &telebot.ReplyMarkup{}
	menu.Inline(
		menu.Row(menu.Data(b.t(tCtx, "language.button.english"), "language_en")),
		menu.Row(menu.Data(b.t(tCtx, "language.button.bulgarian"), "language_bg")),
	)
	return menu
}

// isButton reports whether text is the label of the given menu button in any language.
func (b *Bot) isButton(text, key string) bool {
	for _, lang := range i18n.Languages {
		if text == b.localizer.Get(lang, key) {
			return true
		}
	}
	return false
}
