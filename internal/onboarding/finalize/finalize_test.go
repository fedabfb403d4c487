package finalize

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"onboarding-orchestrator/internal/common/auth"
	"onboarding-orchestrator/internal/common/errors"
	"onboarding-orchestrator/internal/common/logger"
	"onboarding-orchestrator/internal/common/zoho"
	"onboarding-orchestrator/internal/onboarding/stepgraph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mocks
// ==========================

type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) FindUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

func (m *MockDirectory) CreateUser(ctx context.Context, user *auth.User) (*auth.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.User), args.Error(1)
}

func (m *MockDirectory) DeleteUser(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type MockContactBook struct {
	mock.Mock
}

func (m *MockContactBook) SearchContacts(ctx context.Context, email string) ([]zoho.Contact, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]zoho.Contact), args.Error(1)
}

func (m *MockContactBook) CreateContact(ctx context.Context, contact *zoho.Contact) (string, error) {
	args := m.Called(ctx, contact)
	return args.String(0), args.Error(1)
}

func (m *MockContactBook) DeleteContact(ctx context.Context, contactID string) error {
	return m.Called(ctx, contactID).Error(0)
}

type MockStarter struct {
	mock.Mock
}

func (m *MockStarter) StartProcessWithResult(ctx context.Context, processID string, variables map[string]interface{}) (map[string]interface{}, error) {
	args := m.Called(ctx, processID, variables)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]interface{}), args.Error(1)
}

// ==========================
// Test Helpers
// ==========================

func createWorkerRequest() Request {
	return Request{
		SessionID: "sess-1",
		Role:      stepgraph.RoleWorker,
		FormData: map[string]interface{}{
			"role":           "worker",
			"full_name":      "Amina Hassan",
			"email":          "amina@example.com",
			"phone":          "+971501234567",
			"phone_verified": true,
			"nationality":    "Kenya",
		},
		Points:       150,
		Achievements: []string{"worker-profile-ready"},
	}
}

// ==========================
// Keycloak
// ==========================

func TestKeycloakFinalizer_CreatesAccount(t *testing.T) {
	dir := new(MockDirectory)
	dir.On("FindUserByEmail", mock.Anything, "amina@example.com").Return(nil, nil)
	dir.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *auth.User) bool {
		return u.Email == "amina@example.com" &&
			u.FirstName == "Amina" && u.LastName == "Hassan" &&
			u.Attributes["onboarding_role"][0] == "worker" &&
			u.Attributes["onboarding_points"][0] == "150"
	})).Return(&auth.User{ID: "kc-42"}, nil)

	res, err := NewKeycloakFinalizer(dir, "https://app.example.com/welcome").Finalize(context.Background(), createWorkerRequest())
	require.NoError(t, err)
	assert.Equal(t, "kc-42", res.AccountID)
	assert.Equal(t, "https://app.example.com/welcome", res.RedirectURL)
	dir.AssertExpectations(t)
}

func TestKeycloakFinalizer_DuplicateEmail(t *testing.T) {
	dir := new(MockDirectory)
	dir.On("FindUserByEmail", mock.Anything, "amina@example.com").Return(&auth.User{ID: "kc-1"}, nil)

	_, err := NewKeycloakFinalizer(dir, "").Finalize(context.Background(), createWorkerRequest())
	require.Error(t, err)

	stdErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeAccountExists, stdErr.Code)
	assert.Equal(t, "An account with this email already exists", stdErr.Message)
	dir.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}

func TestKeycloakFinalizer_MissingEmail(t *testing.T) {
	req := createWorkerRequest()
	delete(req.FormData, "email")

	_, err := NewKeycloakFinalizer(new(MockDirectory), "").Finalize(context.Background(), req)
	assert.Equal(t, errors.ErrCodeValidationFailed, errors.CodeOf(err))
}

// ==========================
// CRM
// ==========================

func TestCRMFinalizer_CreatesContact(t *testing.T) {
	book := new(MockContactBook)
	book.On("SearchContacts", mock.Anything, "amina@example.com").Return(nil, nil)
	book.On("CreateContact", mock.Anything, mock.MatchedBy(func(c *zoho.Contact) bool {
		return c.ContactType == "Domestic Worker" && c.Country == "Kenya" && c.ExternalID == "kc-42"
	})).Return("zc-7", nil)

	req := createWorkerRequest()
	req.AccountID = "kc-42"
	res, err := NewCRMFinalizer(book).Finalize(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "kc-42", res.AccountID)
	assert.Equal(t, "zc-7", res.Metadata[MetadataCRMContactID])
	book.AssertExpectations(t)
}

func TestCRMFinalizer_ReusesExistingContact(t *testing.T) {
	book := new(MockContactBook)
	book.On("SearchContacts", mock.Anything, "amina@example.com").Return([]zoho.Contact{{ID: "zc-1"}}, nil)

	f := NewCRMFinalizer(book)
	res, err := f.Finalize(context.Background(), createWorkerRequest())
	require.NoError(t, err)
	assert.Equal(t, "zc-1", res.Metadata[MetadataCRMContactID])

	require.NoError(t, f.Compensate(context.Background(), createWorkerRequest(), res))
	book.AssertNotCalled(t, "DeleteContact", mock.Anything, mock.Anything)
}

// ==========================
// Process
// ==========================

func TestProcessFinalizer(t *testing.T) {
	tests := []struct {
		name      string
		output    map[string]interface{}
		startErr  error
		wantID    string
		wantCode  errors.ErrorCode
		wantMsg   string
		wantError bool
	}{
		{
			name:   "account created by process",
			output: map[string]interface{}{"accountId": "acc-9", "redirectUrl": "/dashboard", "processInstanceKey": float64(2251799813685249)},
			wantID: "acc-9",
		},
		{
			name:      "process rejects",
			output:    map[string]interface{}{"errorMessage": "Agency license could not be verified", "errorCode": "LICENSE_REJECTED"},
			wantError: true,
			wantCode:  "LICENSE_REJECTED",
			wantMsg:   "Agency license could not be verified",
		},
		{
			name:      "engine unreachable",
			startErr:  stderrors.New("connection refused"),
			wantError: true,
			wantCode:  errors.ErrCodeProcessStartFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			starter := new(MockStarter)
			if tt.startErr != nil {
				starter.On("StartProcessWithResult", mock.Anything, "onboarding-finalization", mock.Anything).Return(nil, tt.startErr)
			} else {
				starter.On("StartProcessWithResult", mock.Anything, "onboarding-finalization", mock.MatchedBy(func(vars map[string]interface{}) bool {
					return vars["sessionId"] == "sess-1" && vars["role"] == "worker"
				})).Return(tt.output, nil)
			}

			res, err := NewProcessFinalizer(starter, "onboarding-finalization").Finalize(context.Background(), createWorkerRequest())
			if tt.wantError {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, errors.CodeOf(err))
				if tt.wantMsg != "" {
					stdErr, _ := errors.As(err)
					assert.Equal(t, tt.wantMsg, stdErr.Message)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, res.AccountID)
			assert.Equal(t, "/dashboard", res.RedirectURL)
			assert.Equal(t, "2251799813685249", res.Metadata["processInstanceKey"])
		})
	}
}

// ==========================
// Webhook
// ==========================

func TestHTTPFinalizer_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, stepgraph.RoleWorker, req.Role)
		assert.Equal(t, 150, req.Points)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"accountId":"acc-1","redirectUrl":"/home"}`))
	}))
	defer server.Close()

	res, err := NewHTTPFinalizer(server.URL, time.Second).Finalize(context.Background(), createWorkerRequest())
	require.NoError(t, err)
	assert.Equal(t, "acc-1", res.AccountID)
	assert.Equal(t, "/home", res.RedirectURL)
}

func TestHTTPFinalizer_SurfacesMessage(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode errors.ErrorCode
		wantMsg  string
	}{
		{"conflict", http.StatusConflict, `{"message":"duplicate email"}`, errors.ErrCodeAccountExists, "duplicate email"},
		{"error field", http.StatusBadRequest, `{"error":"phone already registered"}`, errors.ErrCodeWebhookFailed, "phone already registered"},
		{"no body", http.StatusBadGateway, ``, errors.ErrCodeWebhookFailed, "Account finalization failed (status 502)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewHTTPFinalizer(server.URL, time.Second).Finalize(context.Background(), createWorkerRequest())
			stdErr, ok := errors.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, stdErr.Code)
			assert.Equal(t, tt.wantMsg, stdErr.Message)
		})
	}
}

// ==========================
// Chain
// ==========================

type compensatingFinalizer struct {
	Func
	compensated *[]string
	name        string
}

func (c compensatingFinalizer) Compensate(_ context.Context, _ Request, _ *Result) error {
	*c.compensated = append(*c.compensated, c.name)
	return nil
}

func TestChain_MergesResultsAndPassesAccountID(t *testing.T) {
	var seenAccount string
	chain := NewChain(logger.NewTestLogger(t)).
		Add("account", Func(func(ctx context.Context, req Request) (*Result, error) {
			return &Result{AccountID: "acc-1", RedirectURL: "/a"}, nil
		})).
		Add("crm", Func(func(ctx context.Context, req Request) (*Result, error) {
			seenAccount = req.AccountID
			return &Result{Metadata: map[string]string{"crmContactId": "zc-1"}}, nil
		}))

	res, err := chain.Finalize(context.Background(), createWorkerRequest())
	require.NoError(t, err)
	assert.Equal(t, "acc-1", seenAccount)
	assert.Equal(t, "acc-1", res.AccountID)
	assert.Equal(t, "/a", res.RedirectURL)
	assert.Equal(t, "zc-1", res.Metadata["crmContactId"])
	assert.Equal(t, 2, chain.Len())
}

func TestChain_FailureCompensatesInReverse(t *testing.T) {
	var compensated []string
	ok := func(name string) compensatingFinalizer {
		return compensatingFinalizer{
			Func: func(ctx context.Context, req Request) (*Result, error) {
				return &Result{AccountID: name}, nil
			},
			compensated: &compensated,
			name:        name,
		}
	}
	failure := stderrors.New("duplicate email")

	chain := NewChain(logger.NewTestLogger(t)).
		Add("first", ok("first")).
		Add("second", ok("second")).
		Add("third", Func(func(ctx context.Context, req Request) (*Result, error) {
			return nil, failure
		}))

	res, err := chain.Finalize(context.Background(), createWorkerRequest())
	assert.Nil(t, res)
	assert.Same(t, failure, err)
	assert.Equal(t, []string{"second", "first"}, compensated)
}
