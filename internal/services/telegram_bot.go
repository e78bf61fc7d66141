package services

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/soinechankit/Soinech-CRM/internal/logger"
)

// BotAPI is the part of *tgbotapi.BotAPI the service uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type TelegramService struct {
	bot BotAPI
	log *logger.Logger
}

// NewTelegramService connects to the Bot API with token.
func NewTelegramService(botToken string, log *logger.Logger) (*TelegramService, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return NewTelegramServiceWithBot(bot, log), nil
}

func NewTelegramServiceWithBot(bot BotAPI, log *logger.Logger) *TelegramService {
	if log == nil {
		log = logger.Nop()
	}
	return &TelegramService{bot: bot, log: log}
}

// SendMessage is a no-op on a nil service or an unlinked chat.
func (t *TelegramService) SendMessage(chatID int64, text string) error {
	if t == nil || t.bot == nil || chatID == 0 {
		return nil
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		t.log.WithError(err).Warnf("[tg][send] chat=%d failed", chatID)
		return fmt.Errorf("telegram sendMessage: %w", err)
	}
	return nil
}

// SendReplyKeyboard sends text with a persistent keyboard under the input.
func (t *TelegramService) SendReplyKeyboard(chatID int64, text string, keyboard [][]string) error {
	if t == nil || t.bot == nil || chatID == 0 {
		return nil
	}
	rows := make([][]tgbotapi.KeyboardButton, 0, len(keyboard))
	for _, row := range keyboard {
		buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, tgbotapi.NewKeyboardButton(label))
		}
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(buttons...))
	}
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = kb
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram sendMessage(with kb): %w", err)
	}
	return nil
}

func (t *TelegramService) SetWebhook(url string) error {
	if t == nil || t.bot == nil || url == "" {
		return nil
	}
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return err
	}
	if _, err := t.bot.Request(wh); err != nil {
		return fmt.Errorf("telegram setWebhook: %w", err)
	}
	t.log.Infof("[tg][setWebhook] %s", url)
	return nil
}
