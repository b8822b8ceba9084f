package email

import (
	"testing"

	"eventplanner/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateRenderer_EventInvitation(t *testing.T) {
	r := NewTemplateRenderer()
	data := &domain.EventInvitationEmailData{
		Email:     "a@x.io",
		OwnerName: "user-1",
		EventName: "Launch <party>",
		Date:      "Monday, June 2, 2025 09:30 UTC",
		Location:  "Lisbon",
	}

	subject, html, text, err := r.Render("event_invitation", data)
	require.NoError(t, err)
	assert.Equal(t, "Event Invitation", subject)

	assert.Contains(t, html, "Launch &lt;party&gt;")
	assert.Contains(t, html, "Monday, June 2, 2025 09:30 UTC")
	assert.Contains(t, html, "Lisbon")
	assert.Contains(t, html, "user-1")

	assert.Contains(t, text, "Launch <party>")
	assert.Contains(t, text, "Location: Lisbon")
}

func TestTemplateRenderer_UnknownTemplate(t *testing.T) {
	_, _, _, err := NewTemplateRenderer().Render("does_not_exist", nil)
	require.Error(t, err)
}
