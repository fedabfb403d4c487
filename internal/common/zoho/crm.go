// internal/common/zoho/crm.go
package zoho

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"onboarding-orchestrator/internal/common/errors"
	commonhttp "onboarding-orchestrator/internal/common/http"
)

const DefaultBaseURL = "https://www.zohoapis.com/crm/v3"

// CRMClient records onboarded accounts as Zoho CRM contacts.
type CRMClient struct {
	baseURL string
	http    *commonhttp.Client
}

type Contact struct {
	ID          string `json:"id,omitempty"`
	Email       string `json:"Email"`
	FirstName   string `json:"First_Name,omitempty"`
	LastName    string `json:"Last_Name"`
	Phone       string `json:"Phone,omitempty"`
	Source      string `json:"Lead_Source,omitempty"`
	ContactType string `json:"Contact_Type,omitempty"`
	Country     string `json:"Mailing_Country,omitempty"`
	ExternalID  string `json:"Account_External_ID,omitempty"`
}

type CreateContactResponse struct {
	Data []struct {
		Code    string `json:"code"`
		Details struct {
			ID string `json:"id"`
		} `json:"details"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"data"`
}

// NewCRMClient creates a client. An empty baseURL uses DefaultBaseURL.
func NewCRMClient(baseURL, oauthToken string) *CRMClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &CRMClient{
		baseURL: baseURL,
		http: commonhttp.NewClient(30*time.Second).
			WithHeader("Authorization", "Zoho-oauthtoken "+oauthToken),
	}
}

func crmError(details string, retryable bool) *errors.StandardError {
	return &errors.StandardError{
		Code:      errors.ErrCodeCRMAPIError,
		Message:   "CRM request failed",
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// CreateContact creates contact and returns its CRM id.
func (c *CRMClient) CreateContact(ctx context.Context, contact *Contact) (string, error) {
	var createResp CreateContactResponse
	resp, err := c.http.DoJSON(ctx, http.MethodPost, c.baseURL+"/Contacts",
		map[string]interface{}{"data": []Contact{*contact}}, &createResp)
	if err != nil {
		return "", crmError(err.Error(), true)
	}

	if resp.StatusCode == http.StatusAccepted || resp.StatusCode >= 300 {
		return "", crmError(
			fmt.Sprintf("create contact status %d: %s", resp.StatusCode, string(resp.Body)),
			resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
		)
	}

	if len(createResp.Data) == 0 {
		return "", crmError("no data in response", false)
	}
	if createResp.Data[0].Status != "success" {
		if createResp.Data[0].Code == "DUPLICATE_DATA" {
			return "", errors.NewAccountExistsError("An account with this email already exists", createResp.Data[0].Message)
		}
		return "", crmError(createResp.Data[0].Message, false)
	}

	return createResp.Data[0].Details.ID, nil
}

// SearchContacts finds contacts by email. Zoho answers 204 when none match.
func (c *CRMClient) SearchContacts(ctx context.Context, email string) ([]Contact, error) {
	var result struct {
		Data []Contact `json:"data"`
	}
	resp, err := c.http.DoJSON(ctx, http.MethodGet,
		fmt.Sprintf("%s/Contacts/search?email=%s", c.baseURL, url.QueryEscape(email)), nil, &result)
	if err != nil {
		return nil, crmError(err.Error(), true)
	}
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if !resp.OK() {
		return nil, crmError(fmt.Sprintf("search status %d: %s", resp.StatusCode, string(resp.Body)), resp.StatusCode >= 500)
	}
	return result.Data, nil
}

// DeleteContact removes a contact.
func (c *CRMClient) DeleteContact(ctx context.Context, contactID string) error {
	resp, err := c.http.DoJSON(ctx, http.MethodDelete, c.baseURL+"/Contacts/"+url.PathEscape(contactID), nil, nil)
	if err != nil {
		return crmError(err.Error(), true)
	}
	if !resp.OK() {
		return crmError(fmt.Sprintf("delete status %d: %s", resp.StatusCode, string(resp.Body)), resp.StatusCode >= 500)
	}
	return nil
}
