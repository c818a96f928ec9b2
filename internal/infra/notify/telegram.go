package notify

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/stockerhq/quality/internal/domain/quality"
)

// Telegram pushes failed-inspection alerts to the QC admin chat. It satisfies
// quality.Notifier; delivery failures are logged and swallowed, an alert must
// never fail a business operation.
type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
	log    *slog.Logger
}

func NewTelegram(token string, chatID int64, log *slog.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Telegram{api: api, chatID: chatID, log: log}, nil
}

func (t *Telegram) InspectionFailed(ctx context.Context, rec *quality.InspectionRecord) {
	text := fmt.Sprintf(
		"QC %s: result %s\nproduct %d, lot %q\naccepted %s / rejected %s of %s %s",
		rec.QcNumber, rec.Result, rec.ProductID, rec.LotNumber,
		rec.AcceptedQuantity, rec.RejectedQuantity, rec.InspectedQuantity, rec.Unit,
	)
	if rec.SupplierNotification != "" {
		text += "\n" + rec.SupplierNotification
	}
	if _, err := t.api.Send(tgbotapi.NewMessage(t.chatID, text)); err != nil {
		t.log.Error("failed to send qc alert",
			"qc_number", rec.QcNumber,
			"err", err,
		)
	}
}
