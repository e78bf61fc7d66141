package services

import (
	"context"
	"html"
	"strings"

	"github.com/soinechankit/Soinech-CRM/internal/logger"
	"github.com/soinechankit/Soinech-CRM/internal/models"
	"github.com/soinechankit/Soinech-CRM/internal/repositories"
)

// Channel pushes a stored notification somewhere outside the app.
type Channel interface {
	Name() string
	Deliver(ctx context.Context, p *models.Profile, n *models.Notification) error
}

type EmailChannel struct {
	Mail EmailService
}

func (EmailChannel) Name() string { return "email" }

func (c EmailChannel) Deliver(_ context.Context, p *models.Profile, n *models.Notification) error {
	if c.Mail == nil || !p.NotifyEmail || p.Email == "" {
		return nil
	}
	return c.Mail.Send(p.Email, n.Title, notificationEmailBody(p.DisplayName(), n.Title, n.Body))
}

type TelegramChannel struct {
	TG *TelegramService
}

func (TelegramChannel) Name() string { return "telegram" }

func (c TelegramChannel) Deliver(_ context.Context, p *models.Profile, n *models.Notification) error {
	if !p.NotifyTelegram || p.TelegramChatID == 0 {
		return nil
	}
	return c.TG.SendMessage(p.TelegramChatID, "<b>"+html.EscapeString(n.Title)+"</b>\n"+html.EscapeString(n.Body))
}

// SendInput addresses one user, or everyone when UserID is nil.
type SendInput struct {
	UserID *string
	Title  string
	Body   string
}

type NotificationService struct {
	Repo     repositories.NotificationRepository
	Profiles repositories.ProfileRepository
	Channels []Channel
	Log      *logger.Logger
}

func NewNotificationService(
	repo repositories.NotificationRepository,
	profiles repositories.ProfileRepository,
	log *logger.Logger,
	channels ...Channel,
) *NotificationService {
	if log == nil {
		log = logger.Nop()
	}
	return &NotificationService{Repo: repo, Profiles: profiles, Channels: channels, Log: log}
}

// Notify implements Notifier.
func (s *NotificationService) Notify(ctx context.Context, userID, title, body string) error {
	_, err := s.Send(ctx, SendInput{UserID: &userID, Title: title, Body: body})
	return err
}

// Send stores one unread notification per recipient, then tries every
// channel. Channel failures are logged and do not fail the send.
func (s *NotificationService) Send(ctx context.Context, in SendInput) (int, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return 0, &ValidationError{Field: "title", Message: "is required"}
	}

	var recipients []*models.Profile
	if in.UserID == nil {
		all, err := s.Profiles.List(ctx)
		if err != nil {
			return 0, storeErr("list profiles", err)
		}
		recipients = all
	} else {
		p, err := s.Profiles.GetByID(ctx, *in.UserID)
		if err != nil {
			return 0, storeErr("get profile", err)
		}
		recipients = []*models.Profile{p}
	}

	ns := make([]*models.Notification, len(recipients))
	for i, p := range recipients {
		ns[i] = &models.Notification{UserID: p.ID, Title: in.Title, Body: in.Body}
	}
	if err := s.Repo.CreateMany(ctx, ns); err != nil {
		return 0, storeErr("create notifications", err)
	}

	for i, p := range recipients {
		for _, ch := range s.Channels {
			if err := ch.Deliver(ctx, p, ns[i]); err != nil {
				s.Log.WithError(err).Warnf("[notification][%s] deliver to %s failed", ch.Name(), p.ID)
			}
		}
	}
	return len(ns), nil
}

func (s *NotificationService) ListMine(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*models.Notification, int, error) {
	if limit <= 0 {
		limit = 50
	}
	list, err := s.Repo.ListByUser(ctx, userID, unreadOnly, limit)
	if err != nil {
		return nil, 0, storeErr("list notifications", err)
	}
	unread, err := s.Repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, 0, storeErr("count unread", err)
	}
	return list, unread, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	return storeErr("mark read", s.Repo.MarkRead(ctx, id, userID))
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	n, err := s.Repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, storeErr("mark all read", err)
	}
	return n, nil
}
