package bot

import (
	"gopkg.in/telebot.v4"
)

// LoggingMiddleware logs every incoming update with its sender.
func (b *Bot) LoggingMiddleware(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(ctx telebot.Context) error {
		if sender := ctx.Sender(); sender != nil {
			b.log.Debug("Update received", "id", sender.ID, "username", sender.Username, "text", ctx.Text())
		}

		if err := next(ctx); err != nil {
			b.log.Error("Failed to handle update", "error", err)
			return err
		}
		return nil
	}
}
