package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"
	"unicode"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/soinechankit/Soinech-CRM/internal/logger"
	"github.com/soinechankit/Soinech-CRM/internal/repositories"
	"github.com/soinechankit/Soinech-CRM/internal/utils"
)

const (
	BtnMyFollowUps = "📋 My follow-ups"
	linkCodeTTL    = 15 * time.Minute
)

// TelegramLinkService attaches a Telegram chat to a profile through a one-time
// code and answers the bot's keyboard buttons.
type TelegramLinkService struct {
	TG        *TelegramService
	Links     repositories.TelegramLinkRepository
	Profiles  repositories.ProfileRepository
	FollowUps *FollowUpService
	Log       *logger.Logger
}

func NewTelegramLinkService(
	tg *TelegramService,
	links repositories.TelegramLinkRepository,
	profiles repositories.ProfileRepository,
	followUps *FollowUpService,
	log *logger.Logger,
) *TelegramLinkService {
	if log == nil {
		log = logger.Nop()
	}
	return &TelegramLinkService{TG: tg, Links: links, Profiles: profiles, FollowUps: followUps, Log: log}
}

// CreateCode issues a link code the user sends to the bot.
func (s *TelegramLinkService) CreateCode(ctx context.Context, userID string) (*repositories.TelegramLink, error) {
	code, err := utils.NewLinkCode(16)
	if err != nil {
		return nil, err
	}
	link, err := s.Links.Create(ctx, userID, code, linkCodeTTL)
	if err != nil {
		return nil, storeErr("create link code", err)
	}
	return link, nil
}

// HandleUpdate processes one bot update. Unknown input gets a short hint.
func (s *TelegramLinkService) HandleUpdate(ctx context.Context, up tgbotapi.Update) error {
	if up.Message == nil || up.Message.Chat == nil {
		return nil
	}
	chatID := up.Message.Chat.ID
	text := strings.TrimSpace(up.Message.Text)

	if text == BtnMyFollowUps {
		return s.replyFollowUps(ctx, chatID)
	}

	raw := text
	if up.Message.IsCommand() && up.Message.Command() == "start" {
		raw = up.Message.CommandArguments()
	}
	code, ok := NormalizeLinkCode(raw)
	if !ok {
		return s.TG.SendMessage(chatID, "Send the link code from your CRM profile to connect this chat.")
	}

	link, err := s.Links.UseByCode(ctx, code)
	if errors.Is(err, repositories.ErrNotFound) {
		return s.TG.SendMessage(chatID, "This code is invalid or has expired.")
	}
	if err != nil {
		return storeErr("use link code", err)
	}
	if err := s.Profiles.UpdateTelegramLink(ctx, link.UserID, chatID, true); err != nil {
		return storeErr("link telegram", err)
	}
	s.Log.WithField("user_id", link.UserID).Infof("[tg][link] chat %d linked", chatID)
	return s.TG.SendReplyKeyboard(chatID, "Telegram is now linked to your CRM account.", [][]string{{BtnMyFollowUps}})
}

func (s *TelegramLinkService) replyFollowUps(ctx context.Context, chatID int64) error {
	p, err := s.Profiles.GetByChatID(ctx, chatID)
	if errors.Is(err, repositories.ErrNotFound) {
		return s.TG.SendMessage(chatID, "This chat is not linked yet.")
	}
	if err != nil {
		return storeErr("get profile by chat", err)
	}
	items, err := s.FollowUps.Upcoming(ctx, &p.ID, 10)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return s.TG.SendMessage(chatID, "No upcoming follow-ups.")
	}
	var b strings.Builder
	b.WriteString("<b>Upcoming follow-ups</b>\n")
	for _, f := range items {
		fmt.Fprintf(&b, "• %s · %s\n", f.DueDate.Format("Jan 2 15:04"), html.EscapeString(f.Title))
	}
	return s.TG.SendMessage(chatID, b.String())
}

// NormalizeLinkCode strips punctuation users paste around a code and checks
// it is 32 hex digits.
func NormalizeLinkCode(s string) (string, bool) {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "\"'`“”«»<>.,;:()[]{}\\")
	s = strings.ToUpper(strings.TrimSpace(s))

	var b strings.Builder
	for _, r := range s {
		if unicode.Is(unicode.Hex_Digit, r) {
			b.WriteRune(r)
		} else if !unicode.IsSpace(r) && r != '-' {
			return "", false
		}
	}
	code := b.String()
	if len(code) != 32 {
		return "", false
	}
	return code, true
}
