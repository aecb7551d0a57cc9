package bot

import (
	"gopkg.in/telebot.v4"
)

// languageHandler presents the user with a menu to choose their preferred language.
func (b *Bot) languageHandler(ctx telebot.Context) error {
	b.metrics.CommandReceived.WithLabelValues("language").Inc()

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(b.t(ctx, "language.select"), b.buildLanguageMenu(ctx))
}

// languageChangeHandler stores the picked language and resends the menu in it.
func (b *Bot) languageChangeHandler(ctx telebot.Context) error {
	userID := ctx.Sender().ID
	callbackData := ctx.Callback().Unique
	b.log.Debug("User selected language", "callbackData", callbackData, "userID", userID)

	var langCode string
	switch callbackData {
	case "language_en":
		langCode = "en"
	case "language_bg":
		langCode = "bg"
	default:
		b.log.Error("Unknown language callback", "data", callbackData)
		return ctx.Respond(&telebot.CallbackResponse{Text: "Unknown language"})
	}

	b.stateManager.SetLanguage(userID, langCode)
	b.log.Info("User changed language", "userID", userID, "language", langCode)

	b.metrics.SentMessages.WithLabelValues("respond").Inc()
	_ = ctx.Respond(&telebot.CallbackResponse{Text: "✅"})

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(b.t(ctx, "language.changed"), b.buildMainMenu(ctx))
}
