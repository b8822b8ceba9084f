package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"eventplanner/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	to, subject, html, text string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(to, subject, html, text string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to, subject, html, text})
	return nil
}

type fakeRenderer struct {
	name string
	data any
	err  error
}

func (r *fakeRenderer) Render(name string, data any) (string, string, string, error) {
	r.name, r.data = name, data
	if r.err != nil {
		return "", "", "", r.err
	}
	return "Event Invitation", "<p>hi</p>", "hi", nil
}

func TestEmailService_SendEventInvitation(t *testing.T) {
	ctx := context.Background()
	n := &domain.InvitationNotification{
		EventID:   "ev-1",
		Email:     "a@x.io",
		OwnerID:   "user-1",
		Title:     "Standup",
		Location:  "Lisbon",
		StartTime: time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC),
	}

	tests := []struct {
		name     string
		n        *domain.InvitationNotification
		mailer   *fakeMailer
		renderer *fakeRenderer
		wantErr  bool
	}{
		{name: "success", n: n, mailer: &fakeMailer{}, renderer: &fakeRenderer{}},
		{name: "nil notification", n: nil, mailer: &fakeMailer{}, renderer: &fakeRenderer{}, wantErr: true},
		{name: "render error", n: n, mailer: &fakeMailer{}, renderer: &fakeRenderer{err: errors.New("bad template")}, wantErr: true},
		{name: "send error", n: n, mailer: &fakeMailer{err: errors.New("ses down")}, renderer: &fakeRenderer{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewEmailService(tt.mailer, tt.renderer, testLogger())
			err := svc.SendEventInvitation(ctx, tt.n)
			if tt.wantErr {
				require.Error(t, err)
				assert.Empty(t, tt.mailer.sent)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "event_invitation", tt.renderer.name)
			assert.Equal(t, &domain.EventInvitationEmailData{
				Email:     "a@x.io",
				OwnerName: "user-1",
				EventName: "Standup",
				Date:      "Monday, June 2, 2025 09:30 UTC",
				Location:  "Lisbon",
			}, tt.renderer.data)
			require.Len(t, tt.mailer.sent, 1)
			assert.Equal(t, sentMail{"a@x.io", "Event Invitation", "<p>hi</p>", "hi"}, tt.mailer.sent[0])
		})
	}
}
