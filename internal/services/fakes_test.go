package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/soinechankit/Soinech-CRM/internal/models"
	"github.com/soinechankit/Soinech-CRM/internal/repositories"
)

var errDown = errors.New("connection refused")

type idGen struct{ n int }

func (g *idGen) next(prefix string) string {
	g.n++
	return fmt.Sprintf("%s-%d", prefix, g.n)
}

// ---- leads

type fakeLeadRepo struct {
	mu    sync.Mutex
	ids   idGen
	leads map[string]*models.Lead

	failUpdateStatus error
	statusCalls      int
}

func newFakeLeadRepo(leads ...*models.Lead) *fakeLeadRepo {
	r := &fakeLeadRepo{leads: map[string]*models.Lead{}}
	for _, l := range leads {
		cp := *l
		r.leads[l.ID] = &cp
	}
	return r
}

func (r *fakeLeadRepo) Create(_ context.Context, l *models.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l.ID == "" {
		l.ID = r.ids.next("lead")
	}
	cp := *l
	r.leads[l.ID] = &cp
	return nil
}

func (r *fakeLeadRepo) GetByID(_ context.Context, id string) (*models.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *fakeLeadRepo) Update(_ context.Context, l *models.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.leads[l.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *l
	r.leads[l.ID] = &cp
	return nil
}

func (r *fakeLeadRepo) UpdateStatus(_ context.Context, id string, status models.LeadStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statusCalls++
	if r.failUpdateStatus != nil {
		return r.failUpdateStatus
	}
	l, ok := r.leads[id]
	if !ok {
		return repositories.ErrNotFound
	}
	l.Status = status
	return nil
}

func (r *fakeLeadRepo) UpdateAssignee(_ context.Context, id string, assignee *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[id]
	if !ok {
		return repositories.ErrNotFound
	}
	l.AssignedTo = assignee
	return nil
}

func (r *fakeLeadRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.leads[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.leads, id)
	return nil
}

func (r *fakeLeadRepo) List(_ context.Context, f models.LeadFilter) ([]*models.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.Lead{}
	for _, l := range r.leads {
		if f.AssignedTo != nil && (l.AssignedTo == nil || *l.AssignedTo != *f.AssignedTo) {
			continue
		}
		if f.Status != nil && l.Status != *f.Status {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(l.CompanyName), strings.ToLower(f.Search)) {
			continue
		}
		cp := *l
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeLeadRepo) Count(ctx context.Context, f models.LeadFilter) (int, error) {
	l, err := r.List(ctx, f)
	return len(l), err
}

type fakeNoteRepo struct {
	notes []*models.LeadNote
}

func (r *fakeNoteRepo) Create(_ context.Context, n *models.LeadNote) error {
	n.ID = fmt.Sprintf("note-%d", len(r.notes)+1)
	r.notes = append(r.notes, n)
	return nil
}

func (r *fakeNoteRepo) ListByLead(_ context.Context, leadID string) ([]*models.LeadNote, error) {
	out := []*models.LeadNote{}
	for _, n := range r.notes {
		if n.LeadID == leadID {
			out = append(out, n)
		}
	}
	return out, nil
}

// ---- deals

type fakeDealRepo struct {
	mu    sync.Mutex
	ids   idGen
	deals map[string]*models.Deal

	failCreate error
	failUpdate error
	failDelete error
	deleted    []string
}

func newFakeDealRepo(deals ...*models.Deal) *fakeDealRepo {
	r := &fakeDealRepo{deals: map[string]*models.Deal{}}
	for _, d := range deals {
		r.deals[d.ID] = d.Clone()
	}
	return r
}

func (r *fakeDealRepo) Create(_ context.Context, d *models.Deal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate != nil {
		return r.failCreate
	}
	if d.LeadID != nil {
		for _, existing := range r.deals {
			if existing.LeadID != nil && *existing.LeadID == *d.LeadID {
				return repositories.ErrDuplicate
			}
		}
	}
	if d.ID == "" {
		d.ID = r.ids.next("deal")
	}
	r.deals[d.ID] = d.Clone()
	return nil
}

func (r *fakeDealRepo) GetByID(_ context.Context, id string) (*models.Deal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.deals[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return d.Clone(), nil
}

func (r *fakeDealRepo) GetByLeadID(_ context.Context, leadID string) (*models.Deal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.deals {
		if d.LeadID != nil && *d.LeadID == leadID {
			return d.Clone(), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeDealRepo) Update(_ context.Context, d *models.Deal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdate != nil {
		return r.failUpdate
	}
	if _, ok := r.deals[d.ID]; !ok {
		return repositories.ErrNotFound
	}
	if d.LeadID != nil {
		for id, existing := range r.deals {
			if id != d.ID && existing.LeadID != nil && *existing.LeadID == *d.LeadID {
				return repositories.ErrDuplicate
			}
		}
	}
	r.deals[d.ID] = d.Clone()
	return nil
}

func (r *fakeDealRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, id)
	if r.failDelete != nil {
		return r.failDelete
	}
	if _, ok := r.deals[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.deals, id)
	return nil
}

func (r *fakeDealRepo) List(_ context.Context, f models.DealFilter) ([]*models.Deal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.Deal{}
	for _, d := range r.deals {
		if f.AssignedTo != nil && (d.AssignedTo == nil || *d.AssignedTo != *f.AssignedTo) {
			continue
		}
		out = append(out, d.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeDealRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.deals)
}

// ---- follow-ups

type fakeFollowUpRepo struct {
	mu   sync.Mutex
	ids  idGen
	rows map[string]*models.FollowUp

	reminded map[string]time.Time
}

func newFakeFollowUpRepo(rows ...*models.FollowUp) *fakeFollowUpRepo {
	r := &fakeFollowUpRepo{rows: map[string]*models.FollowUp{}, reminded: map[string]time.Time{}}
	for _, f := range rows {
		cp := *f
		r.rows[f.ID] = &cp
	}
	return r
}

func (r *fakeFollowUpRepo) Create(_ context.Context, f *models.FollowUp) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f.ID == "" {
		f.ID = r.ids.next("fu")
	}
	cp := *f
	r.rows[f.ID] = &cp
	return nil
}

func (r *fakeFollowUpRepo) GetByID(_ context.Context, id string) (*models.FollowUp, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.rows[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (r *fakeFollowUpRepo) Update(_ context.Context, f *models.FollowUp) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[f.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *f
	r.rows[f.ID] = &cp
	return nil
}

func (r *fakeFollowUpRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, id)
	return nil
}

func (r *fakeFollowUpRepo) List(_ context.Context, f models.FollowUpFilter) ([]*models.FollowUp, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.FollowUp{}
	for _, fu := range r.rows {
		if f.Status != nil && fu.Status != *f.Status {
			continue
		}
		if f.AssignedTo != nil && (fu.AssignedTo == nil || *fu.AssignedTo != *f.AssignedTo) {
			continue
		}
		if f.DueFrom != nil && fu.DueDate.Before(*f.DueFrom) {
			continue
		}
		cp := *fu
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *fakeFollowUpRepo) ListDueForReminder(_ context.Context, now time.Time, maxAttempts, limit int) ([]*models.FollowUp, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.FollowUp{}
	for _, fu := range r.rows {
		if fu.Status == models.FollowUpPending && fu.ReminderDate != nil &&
			!fu.ReminderDate.After(now) && fu.RemindedAt == nil && fu.ReminderAttempts < maxAttempts {
			cp := *fu
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ReminderAttempts != out[j].ReminderAttempts {
			return out[i].ReminderAttempts < out[j].ReminderAttempts
		}
		if !out[i].ReminderDate.Equal(*out[j].ReminderDate) {
			return out[i].ReminderDate.Before(*out[j].ReminderDate)
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeFollowUpRepo) RecordReminderFailure(_ context.Context, id string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.rows[id]
	if !ok {
		return 0, repositories.ErrNotFound
	}
	f.ReminderAttempts++
	return f.ReminderAttempts, nil
}

func (r *fakeFollowUpRepo) SetReminderAttempts(_ context.Context, id string, attempts int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.rows[id]
	if !ok {
		return repositories.ErrNotFound
	}
	f.ReminderAttempts = attempts
	return nil
}

func (r *fakeFollowUpRepo) SetReminded(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.rows[id]
	if !ok {
		return repositories.ErrNotFound
	}
	f.RemindedAt = &at
	r.reminded[id] = at
	return nil
}

// ---- notifications

type sentNote struct {
	UserID, Title, Body string
}

type recordingNotifier struct {
	mu    sync.Mutex
	sent  []sentNote
	fail  error
	calls int

	// per-recipient failures
	failFor map[string]error
}

func (n *recordingNotifier) Notify(_ context.Context, userID, title, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	if n.fail != nil {
		return n.fail
	}
	if err := n.failFor[userID]; err != nil {
		return err
	}
	n.sent = append(n.sent, sentNote{userID, title, body})
	return nil
}

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*models.Profile
}

func newFakeProfileRepo(ps ...*models.Profile) *fakeProfileRepo {
	r := &fakeProfileRepo{profiles: map[string]*models.Profile{}}
	for _, p := range ps {
		cp := *p
		r.profiles[p.ID] = &cp
	}
	return r
}

func (r *fakeProfileRepo) Ensure(_ context.Context, p *models.Profile) (*models.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.profiles[p.ID]; ok {
		cp := *existing
		return &cp, nil
	}
	cp := *p
	r.profiles[p.ID] = &cp
	return p, nil
}

func (r *fakeProfileRepo) GetByID(_ context.Context, id string) (*models.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProfileRepo) List(_ context.Context) ([]*models.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.Profile{}
	for _, p := range r.profiles {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeProfileRepo) UpdatePreferences(_ context.Context, p *models.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[p.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *p
	r.profiles[p.ID] = &cp
	return nil
}

func (r *fakeProfileRepo) UpdateTelegramLink(_ context.Context, userID string, chatID int64, enable bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	p.TelegramChatID = chatID
	p.NotifyTelegram = enable
	return nil
}

func (r *fakeProfileRepo) GetByChatID(_ context.Context, chatID int64) (*models.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.TelegramChatID == chatID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

type fakeNotificationRepo struct {
	mu    sync.Mutex
	rows  []*models.Notification
	fails error
}

func (r *fakeNotificationRepo) CreateMany(_ context.Context, ns []*models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fails != nil {
		return r.fails
	}
	for _, n := range ns {
		n.ID = fmt.Sprintf("n-%d", len(r.rows)+1)
		r.rows = append(r.rows, n)
	}
	return nil
}

func (r *fakeNotificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool, limit int) ([]*models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.Notification{}
	for _, n := range r.rows {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			out = append(out, n)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeNotificationRepo) CountUnread(_ context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := 0
	for _, n := range r.rows {
		if n.UserID == userID && !n.IsRead {
			c++
		}
	}
	return c, nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.rows {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (r *fakeNotificationRepo) MarkAllRead(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var c int64
	for _, n := range r.rows {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			c++
		}
	}
	return c, nil
}

type recordingChannel struct {
	name      string
	delivered []string
	fail      error
}

func (c *recordingChannel) Name() string { return c.name }

func (c *recordingChannel) Deliver(_ context.Context, p *models.Profile, _ *models.Notification) error {
	c.delivered = append(c.delivered, p.ID)
	return c.fail
}

type recordingMailer struct {
	to []string
}

func (m *recordingMailer) Send(to, _, _ string) error {
	m.to = append(m.to, to)
	return nil
}

// ---- telegram

type fakeBot struct {
	mu   sync.Mutex
	sent []tgbotapi.Chattable
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, c)
	return tgbotapi.Message{}, nil
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *fakeBot) lastText() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.sent) == 0 {
		return ""
	}
	if m, ok := b.sent[len(b.sent)-1].(tgbotapi.MessageConfig); ok {
		return m.Text
	}
	return ""
}

type fakeLinkRepo struct {
	links map[string]*repositories.TelegramLink
}

func (r *fakeLinkRepo) Create(_ context.Context, userID, code string, ttl time.Duration) (*repositories.TelegramLink, error) {
	if r.links == nil {
		r.links = map[string]*repositories.TelegramLink{}
	}
	l := &repositories.TelegramLink{ID: code, UserID: userID, Code: code, ExpiresAt: time.Now().Add(ttl)}
	r.links[code] = l
	return l, nil
}

func (r *fakeLinkRepo) UseByCode(_ context.Context, code string) (*repositories.TelegramLink, error) {
	l, ok := r.links[code]
	if !ok || l.Used || time.Now().After(l.ExpiresAt) {
		return nil, repositories.ErrNotFound
	}
	l.Used = true
	return l, nil
}

// ---- catalog, proposals, tasks

type fakeServiceRepo struct {
	services map[string]*models.Service
}

func (r *fakeServiceRepo) Create(_ context.Context, s *models.Service) error {
	if r.services == nil {
		r.services = map[string]*models.Service{}
	}
	if s.ID == "" {
		s.ID = fmt.Sprintf("svc-%d", len(r.services)+1)
	}
	r.services[s.ID] = s
	return nil
}

func (r *fakeServiceRepo) GetByID(_ context.Context, id string) (*models.Service, error) {
	s, ok := r.services[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return s, nil
}

func (r *fakeServiceRepo) Update(_ context.Context, s *models.Service) error {
	r.services[s.ID] = s
	return nil
}

func (r *fakeServiceRepo) Delete(_ context.Context, id string) error {
	delete(r.services, id)
	return nil
}

func (r *fakeServiceRepo) List(_ context.Context, activeOnly bool) ([]*models.Service, error) {
	out := []*models.Service{}
	for _, s := range r.services {
		if !activeOnly || s.IsActive {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeProposalRepo struct {
	rows map[string]*models.Proposal
}

func (r *fakeProposalRepo) Create(_ context.Context, p *models.Proposal) error {
	if r.rows == nil {
		r.rows = map[string]*models.Proposal{}
	}
	if p.ID == "" {
		p.ID = fmt.Sprintf("prop-%d", len(r.rows)+1)
	}
	cp := *p
	r.rows[p.ID] = &cp
	return nil
}

func (r *fakeProposalRepo) GetByID(_ context.Context, id string) (*models.Proposal, error) {
	p, ok := r.rows[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProposalRepo) Update(_ context.Context, p *models.Proposal) error {
	cp := *p
	r.rows[p.ID] = &cp
	return nil
}

func (r *fakeProposalRepo) UpdateStatus(_ context.Context, id string, status models.ProposalStatus) error {
	p, ok := r.rows[id]
	if !ok {
		return repositories.ErrNotFound
	}
	p.Status = status
	return nil
}

func (r *fakeProposalRepo) Delete(_ context.Context, id string) error {
	delete(r.rows, id)
	return nil
}

func (r *fakeProposalRepo) List(_ context.Context, _ models.ProposalFilter) ([]*models.Proposal, error) {
	out := []*models.Proposal{}
	for _, p := range r.rows {
		out = append(out, p)
	}
	return out, nil
}

type fakeTaskRepo struct {
	rows map[string]*models.Task
}

func (r *fakeTaskRepo) Store(_ context.Context, t *models.Task) error {
	if r.rows == nil {
		r.rows = map[string]*models.Task{}
	}
	if t.ID == "" {
		t.ID = fmt.Sprintf("task-%d", len(r.rows)+1)
	}
	cp := *t
	r.rows[t.ID] = &cp
	return nil
}

func (r *fakeTaskRepo) FindByID(_ context.Context, id string) (*models.Task, error) {
	t, ok := r.rows[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTaskRepo) FindAll(_ context.Context, _ models.TaskFilter) ([]*models.Task, error) {
	out := []*models.Task{}
	for _, t := range r.rows {
		out = append(out, t)
	}
	return out, nil
}

func (r *fakeTaskRepo) Update(_ context.Context, t *models.Task) error {
	cp := *t
	r.rows[t.ID] = &cp
	return nil
}

func (r *fakeTaskRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.rows[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *fakeTaskRepo) UpdateStatus(_ context.Context, id string, to models.TaskStatus) error {
	t, ok := r.rows[id]
	if !ok {
		return repositories.ErrNotFound
	}
	t.Status = to
	return nil
}

func (r *fakeTaskRepo) UpdateAssignee(_ context.Context, id string, assigneeID *string) error {
	t, ok := r.rows[id]
	if !ok {
		return repositories.ErrNotFound
	}
	t.AssignedTo = assigneeID
	return nil
}

func strPtr(s string) *string { return &s }
