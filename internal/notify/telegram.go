// Package notify pushes booking events to farriers over Telegram. A
// farrier without a linked chat simply gets nothing.
package notify

import (
	"fmt"
	"strings"

	"github.com/aliceryden/portalen/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// TelegramSender is the slice of the bot API the notifier needs.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type TelegramNotifier struct {
	bot    TelegramSender
	logger *zerolog.Logger
}

func NewTelegramNotifier(bot TelegramSender, logger *zerolog.Logger) *TelegramNotifier {
	return &TelegramNotifier{bot: bot, logger: logger}
}

func (n *TelegramNotifier) BookingCreated(booking *models.Booking, farrier *models.Farrier) {
	n.send(farrier, formatBookingCreated(booking))
}

func (n *TelegramNotifier) BookingCancelled(booking *models.Booking, farrier *models.Farrier) {
	n.send(farrier, formatBookingCancelled(booking))
}

func (n *TelegramNotifier) send(farrier *models.Farrier, text string) {
	if n.bot == nil || farrier == nil || farrier.TelegramChatID == 0 {
		return
	}
	msg := tgbotapi.NewMessage(farrier.TelegramChatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		n.logger.Error().Err(err).Int64("chat_id", farrier.TelegramChatID).Msg("telegram send error")
	}
}

func formatBookingCreated(booking *models.Booking) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New booking #%d\n", booking.ID)
	fmt.Fprintf(&b, "Service: %s\n", booking.ServiceType)
	fmt.Fprintf(&b, "When: %s\n", booking.Start().Format("2006-01-02 15:04"))
	if booking.LocationCity != "" {
		fmt.Fprintf(&b, "Where: %s\n", booking.LocationCity)
	}
	fmt.Fprintf(&b, "Total: %.2f", booking.TotalPrice)
	if booking.NotesFromOwner != "" {
		fmt.Fprintf(&b, "\nNotes: %s", booking.NotesFromOwner)
	}
	return b.String()
}

func formatBookingCancelled(booking *models.Booking) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Booking #%d cancelled\n", booking.ID)
	fmt.Fprintf(&b, "Service: %s\n", booking.ServiceType)
	fmt.Fprintf(&b, "Was scheduled for %s", booking.Start().Format("2006-01-02 15:04"))
	if booking.CancellationReason != "" {
		fmt.Fprintf(&b, "\nReason: %s", booking.CancellationReason)
	}
	return b.String()
}
