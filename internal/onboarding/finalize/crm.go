package finalize

import (
	"context"

	"onboarding-orchestrator/internal/common/errors"
	"onboarding-orchestrator/internal/common/zoho"
	"onboarding-orchestrator/internal/onboarding/profile"
	"onboarding-orchestrator/internal/onboarding/stepgraph"
)

// MetadataCRMContactID is the Result metadata key holding the CRM contact.
const MetadataCRMContactID = "crmContactId"

type ContactBook interface {
	SearchContacts(ctx context.Context, email string) ([]zoho.Contact, error)
	CreateContact(ctx context.Context, contact *zoho.Contact) (string, error)
	DeleteContact(ctx context.Context, contactID string) error
}

// CRMFinalizer records the new account as a CRM contact. An existing
// contact with the same email is reused.
type CRMFinalizer struct {
	contacts ContactBook
}

func NewCRMFinalizer(contacts ContactBook) *CRMFinalizer {
	return &CRMFinalizer{contacts: contacts}
}

func (c *CRMFinalizer) Finalize(ctx context.Context, req Request) (*Result, error) {
	p, err := profile.Decode(req.Role, req.FormData)
	if err != nil {
		return nil, errors.NewInvalidRequestError(err.Error())
	}
	email := p.Common().Email

	existing, err := c.contacts.SearchContacts(ctx, email)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return &Result{
			AccountID: req.AccountID,
			Metadata:  map[string]string{MetadataCRMContactID: existing[0].ID, "crmContactReused": "true"},
		}, nil
	}

	first, last := p.PersonName()
	if last == "" {
		last = p.DisplayName()
	}
	id, err := c.contacts.CreateContact(ctx, &zoho.Contact{
		Email:       email,
		FirstName:   first,
		LastName:    last,
		Phone:       p.Common().Phone,
		Source:      "Onboarding",
		ContactType: contactType(req.Role),
		Country:     country(p),
		ExternalID:  req.AccountID,
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		AccountID: req.AccountID,
		Metadata:  map[string]string{MetadataCRMContactID: id},
	}, nil
}

// Compensate deletes a contact this finalizer created. Reused contacts stay.
func (c *CRMFinalizer) Compensate(ctx context.Context, _ Request, res *Result) error {
	if res == nil || res.Metadata[MetadataCRMContactID] == "" || res.Metadata["crmContactReused"] == "true" {
		return nil
	}
	return c.contacts.DeleteContact(ctx, res.Metadata[MetadataCRMContactID])
}

func contactType(role stepgraph.Role) string {
	switch role {
	case stepgraph.RoleWorker:
		return "Domestic Worker"
	case stepgraph.RoleSponsor:
		return "Sponsor"
	case stepgraph.RoleAgency:
		return "Agency"
	}
	return ""
}

func country(p *profile.Profile) string {
	switch {
	case p.Worker != nil:
		return p.Worker.Nationality
	case p.Agency != nil && len(p.Agency.PreferredCountries) > 0:
		return p.Agency.PreferredCountries[0]
	}
	return ""
}
