package services

import (
	"fmt"
	"log"
	"os"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// NotifierService sends WhatsApp alerts to the operations contact: drivers
// dropping offline mid-route, daily delivery summaries. It is optional —
// when Twilio is not configured the service is nil and callers skip it.
type NotifierService struct {
	client *twilio.RestClient
	from   string
	opsTo  string
}

// NewNotifierService creates a new notifier from the environment.
func NewNotifierService() (*NotifierService, error) {
	accountSid := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")
	from := os.Getenv("TWILIO_WHATSAPP_FROM") // Format: "whatsapp:+14155238886"
	opsTo := os.Getenv("OPS_WHATSAPP_TO")

	if accountSid == "" || authToken == "" || from == "" || opsTo == "" {
		return nil, fmt.Errorf("missing Twilio credentials in environment variables")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})

	return &NotifierService{
		client: client,
		from:   from,
		opsTo:  opsTo,
	}, nil
}

// SendOpsAlert sends a WhatsApp message to the operations contact.
func (n *NotifierService) SendOpsAlert(message string) error {
	if n == nil {
		return nil
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(n.from)
	params.SetTo(fmt.Sprintf("whatsapp:%s", n.opsTo))
	params.SetBody(message)

	resp, err := n.client.Api.CreateMessage(params)
	if err != nil {
		log.Printf("❌ Failed to send ops alert: %v", err)
		return err
	}

	log.Printf("✅ Ops alert sent! SID: %s", *resp.Sid)
	return nil
}
