package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNilNotifierIsSilent(t *testing.T) {
	// The sweeper and the daily summary call the notifier unconditionally;
	// with Twilio unconfigured the nil service must swallow the call.
	var n *NotifierService
	assert.NoError(t, n.SendOpsAlert("test"))
}

func TestNewNotifierServiceRequiresCredentials(t *testing.T) {
	t.Setenv("TWILIO_ACCOUNT_SID", "")
	t.Setenv("TWILIO_AUTH_TOKEN", "")
	t.Setenv("TWILIO_WHATSAPP_FROM", "")
	t.Setenv("OPS_WHATSAPP_TO", "")

	_, err := NewNotifierService()
	assert.Error(t, err)
}
