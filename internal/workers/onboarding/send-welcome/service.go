package sendwelcome

import (
	"context"

	"onboarding-orchestrator/internal/common/errors"
	"onboarding-orchestrator/internal/common/logger"
	"onboarding-orchestrator/internal/onboarding/profile"
)

// EmailSender is satisfied by *aws.SESClient.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, textBody, htmlBody string) (string, error)
}

// SMSSender is satisfied by *aws.SNSClient.
type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) (string, error)
}

type ServiceDependencies struct {
	Email  EmailSender
	SMS    SMSSender
	Logger logger.Logger
}

type Service struct {
	config *Config
	email  EmailSender
	sms    SMSSender
	logger logger.Logger
}

func NewService(deps ServiceDependencies, cfg *Config) *Service {
	return &Service{config: cfg, email: deps.Email, sms: deps.SMS, logger: deps.Logger}
}

// Execute sends the welcome email and, for verified phones, the welcome SMS.
// A channel with no address or no client is skipped, not failed.
func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	p, err := profile.Decode(input.Role, input.FormData)
	if err != nil {
		return nil, &errors.StandardError{
			Code:    errors.ErrCodeInputParsingFailed,
			Message: "Form data does not match the role profile",
			Details: err.Error(),
		}
	}
	common := p.Common()

	msg, err := render(input.Role, messageData{
		Name:     p.DisplayName(),
		Points:   input.Points,
		LoginURL: s.config.LoginURL,
		Premium:  common.Premium,
	})
	if err != nil {
		return nil, errors.NewNotificationSendFailedError("template", err)
	}

	out := &Output{Status: StatusSkipped}

	switch {
	case !s.config.EmailEnabled || s.email == nil:
		out.EmailSkipped = "disabled"
	case common.Email == "":
		out.EmailSkipped = "no email"
	default:
		id, err := s.email.SendEmail(ctx, common.Email, msg.Subject, msg.Text, "")
		if err != nil {
			return nil, errors.NewNotificationSendFailedError("email", err)
		}
		out.EmailID = id
		out.Status = StatusSent
	}

	switch {
	case !s.config.SMSEnabled || s.sms == nil:
		out.SMSSkipped = "disabled"
	case common.Phone == "":
		out.SMSSkipped = "no phone"
	case s.config.SMSVerifiedOnly && !common.PhoneVerified:
		out.SMSSkipped = "phone not verified"
	default:
		id, err := s.sms.SendSMS(ctx, common.Phone, msg.SMS)
		if err != nil {
			// The email already went out; a retry would resend it.
			s.logger.Warn("Welcome SMS failed", map[string]interface{}{
				"accountId": input.AccountID,
				"error":     err.Error(),
			})
			out.SMSSkipped = "send failed"
			break
		}
		out.SMSID = id
		out.Status = StatusSent
	}

	s.logger.Info("Welcome notification processed", map[string]interface{}{
		"accountId":    input.AccountID,
		"role":         string(input.Role),
		"status":       out.Status,
		"emailSkipped": out.EmailSkipped,
		"smsSkipped":   out.SMSSkipped,
	})
	return out, nil
}
