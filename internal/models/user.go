package models

import "time"

type UserRole string

const (
	RoleAdmin          UserRole = "admin"
	RoleManager        UserRole = "manager"
	RoleSalesExecutive UserRole = "sales_executive"
)

// Profile mirrors a user of the identity provider. Credentials never live here.
type Profile struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	FullName       *string   `json:"full_name"`
	Role           UserRole  `json:"role"`
	AvatarURL      *string   `json:"avatar_url"`
	TelegramChatID int64     `json:"-"`
	NotifyEmail    bool      `json:"notify_email"`
	NotifyTelegram bool      `json:"notify_telegram"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// DisplayName falls back to the email when no full name is set.
func (p *Profile) DisplayName() string {
	if p.FullName != nil && *p.FullName != "" {
		return *p.FullName
	}
	return p.Email
}

type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
