package telephony

import (
	"context"
	"fmt"
	"time"

	"campaign-dialer/internal/config"

	"github.com/twilio/twilio-go"
	twilioclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// statusCallbackEvents is the event subscription requested for every
// outbound call. Busy/no-answer/failed outcomes arrive as CallStatus values
// on the completed leg of the callback contract.
var statusCallbackEvents = []string{"initiated", "ringing", "answered", "completed"}

// CallCreator is the slice of the Twilio REST surface the dialer needs.
// *openapi.ApiService satisfies it; tests substitute a fake.
type CallCreator interface {
	CreateCall(params *openapi.CreateCallParams) (*openapi.ApiV2010Call, error)
}

// TwilioDialer places outbound calls through the Twilio REST API.
//
// No provider SDK calls outside this adapter; the dispatcher depends on the
// campaign.Dialer interface only.
type TwilioDialer struct {
	api  CallCreator
	from string

	answerURL         string
	statusCallbackURL string
}

// NewTwilioDialer builds the REST client with the caller-configured request
// timeout and the webhook targets derived from the public base URL.
func NewTwilioDialer(cfg config.TwilioConfig, publicBaseURL string, timeout time.Duration) *TwilioDialer {
	base := &twilioclient.Client{
		Credentials: twilioclient.NewCredentials(cfg.AccountSID, cfg.AuthToken),
	}
	base.SetTimeout(timeout)

	rest := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
		Client:   base,
	})

	return &TwilioDialer{
		api:               rest.Api,
		from:              cfg.FromNumber,
		answerURL:         publicBaseURL + "/call-handler",
		statusCallbackURL: publicBaseURL + "/call-status-callback",
	}
}

// CreateCall requests one outbound call to number and returns the provider
// call id. The request is bounded by the client timeout; a timed-out request
// surfaces as an error, never left pending.
func (d *TwilioDialer) CreateCall(ctx context.Context, number string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	params := &openapi.CreateCallParams{}
	params.SetTo(number)
	params.SetFrom(d.from)
	params.SetUrl(d.answerURL)
	params.SetStatusCallback(d.statusCallbackURL)
	params.SetStatusCallbackMethod("POST")
	params.SetStatusCallbackEvent(statusCallbackEvents)

	resp, err := d.api.CreateCall(params)
	if err != nil {
		return "", fmt.Errorf("telephony: create call: %w", err)
	}
	if resp.Sid == nil || *resp.Sid == "" {
		return "", fmt.Errorf("telephony: create call: response missing sid")
	}
	return *resp.Sid, nil
}
