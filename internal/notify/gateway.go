package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"library_management/internal/config"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"golang.org/x/time/rate"
)

// Gateway delivers a text message to a phone number.
type Gateway interface {
	Send(ctx context.Context, to, body string) error
}

// ErrNotConfigured is returned when gateway credentials are missing.
var ErrNotConfigured = errors.New("twilio credentials not configured")

// messageCreator is the slice of the Twilio REST API the gateway uses.
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioGateway sends SMS through Twilio, throttled to the configured rate.
type TwilioGateway struct {
	api     messageCreator
	from    string
	limiter *rate.Limiter
}

// NewTwilioGateway builds a gateway from cfg.
func NewTwilioGateway(cfg config.TwilioConfig) (*TwilioGateway, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return newTwilioGateway(client.Api, cfg.FromNumber, cfg.RatePerSecond), nil
}

func newTwilioGateway(api messageCreator, from string, perSecond float64) *TwilioGateway {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &TwilioGateway{
		api:     api,
		from:    from,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Send waits for a rate slot, then submits the message.
func (g *TwilioGateway) Send(ctx context.Context, to, body string) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for send slot: %w", err)
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(g.from)
	params.SetBody(body)

	resp, err := g.api.CreateMessage(params)
	if err != nil {
		return err
	}
	if resp != nil && resp.Sid != nil {
		slog.DebugContext(ctx, "sms accepted", "sid", *resp.Sid)
	}
	return nil
}
