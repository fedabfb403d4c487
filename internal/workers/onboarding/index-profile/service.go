package indexprofile

import (
	"context"
	"encoding/json"
	"time"

	"onboarding-orchestrator/internal/common/errors"
	"onboarding-orchestrator/internal/common/logger"
	"onboarding-orchestrator/internal/onboarding/profile"
)

// Indexer stores one JSON document. *database.ElasticsearchClient satisfies it.
type Indexer interface {
	IndexDocument(ctx context.Context, index, id string, body []byte) error
}

type Service struct {
	indexer Indexer
	index   string
	logger  logger.Logger
	now     func() time.Time
}

func NewService(indexer Indexer, index string, log logger.Logger) *Service {
	return &Service{indexer: indexer, index: index, logger: log, now: time.Now}
}

// Execute decodes the role profile and upserts it under the account id, so a
// retried job overwrites rather than duplicates.
func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	p, err := profile.Decode(input.Role, input.FormData)
	if err != nil {
		return nil, &errors.StandardError{
			Code:      errors.ErrCodeInputParsingFailed,
			Message:   "Form data does not match the role profile",
			Details:   err.Error(),
			Timestamp: s.now().UTC(),
		}
	}

	doc := buildDocument(input, p, s.now().UTC())
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.NewIndexFailedError(s.index, err)
	}

	if err := s.indexer.IndexDocument(ctx, s.index, input.AccountID, body); err != nil {
		return nil, errors.NewIndexFailedError(s.index, err)
	}

	s.logger.Info("Indexed onboarding profile", map[string]interface{}{
		"accountId": input.AccountID,
		"role":      string(input.Role),
		"index":     s.index,
	})
	return &Output{Indexed: true, Index: s.index, DocumentID: input.AccountID}, nil
}

func buildDocument(input *Input, p *profile.Profile, now time.Time) *Document {
	common := p.Common()
	doc := &Document{
		AccountID:    input.AccountID,
		SessionID:    input.SessionID,
		Role:         input.Role,
		DisplayName:  p.DisplayName(),
		Email:        common.Email,
		Premium:      common.Premium,
		Points:       input.Points,
		Achievements: input.Achievements,
		Profile:      p.Record(),
		IndexedAt:    now,
	}
	if doc.Achievements == nil {
		doc.Achievements = []string{}
	}

	switch {
	case p.Worker != nil:
		doc.Countries = p.Worker.PreferredCountries
		doc.Tags = append(append([]string{}, p.Worker.Skills...), p.Worker.Languages...)
	case p.Sponsor != nil:
		doc.Tags = append([]string{}, p.Sponsor.Services...)
	case p.Agency != nil:
		doc.Countries = p.Agency.PreferredCountries
		doc.Tags = append([]string{}, p.Agency.Specializations...)
	}
	return doc
}
