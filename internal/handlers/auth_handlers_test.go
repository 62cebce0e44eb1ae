package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopmate/shopmate/internal/mailer"
	"github.com/shopmate/shopmate/internal/middleware"
	"github.com/shopmate/shopmate/internal/models"
	"github.com/shopmate/shopmate/internal/service"
	"github.com/sirupsen/logrus"
)

type fakeAuthService struct {
	requestErr error
	verifyErr  error
	user       *models.User
	token      string

	requested []string
}

func (f *fakeAuthService) RequestCode(_ context.Context, email string) error {
	if f.requestErr != nil {
		return f.requestErr
	}
	f.requested = append(f.requested, email)
	return nil
}

func (f *fakeAuthService) VerifyCode(_ context.Context, email, code string) (*models.User, string, error) {
	if f.verifyErr != nil {
		return nil, "", f.verifyErr
	}
	return f.user, f.token, nil
}

type fakeUserLister struct {
	users []models.User
	err   error
}

func (f *fakeUserLister) List(_ context.Context) ([]models.User, error) {
	return f.users, f.err
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestLogin_Success(t *testing.T) {
	t.Parallel()

	auth := &fakeAuthService{}
	h := NewAuthHandlers(auth, &fakeUserLister{}, testLogger())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/user/login", strings.NewReader(`{"email":"a@x.com"}`))
	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
	if len(auth.requested) != 1 || auth.requested[0] != "a@x.com" {
		t.Errorf("requested = %v, want [a@x.com]", auth.requested)
	}
}

func TestLogin_BadBody(t *testing.T) {
	t.Parallel()

	h := NewAuthHandlers(&fakeAuthService{}, &fakeUserLister{}, testLogger())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/user/login", strings.NewReader("{"))
	h.Login(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestLogin_ErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "invalid email",
			err:        service.ErrInvalidEmail,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_EMAIL",
		},
		{
			name:       "dispatch timeout",
			err:        fmt.Errorf("%w: %w", service.ErrNotification, mailer.ErrTimeout),
			wantStatus: http.StatusGatewayTimeout,
			wantCode:   "OTP_DISPATCH_TIMEOUT",
		},
		{
			name:       "dispatch failure",
			err:        fmt.Errorf("%w: smtp refused", service.ErrNotification),
			wantStatus: http.StatusBadGateway,
			wantCode:   "OTP_DISPATCH_FAILED",
		},
		{
			name:       "store failure",
			err:        errors.New("redis down"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "OTP_ISSUE_FAILED",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := NewAuthHandlers(&fakeAuthService{requestErr: tt.err}, &fakeUserLister{}, testLogger())
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/user/login", strings.NewReader(`{"email":"a@x.com"}`))
			h.Login(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if !strings.Contains(rec.Body.String(), tt.wantCode) {
				t.Errorf("body = %s, want code %s", rec.Body.String(), tt.wantCode)
			}
		})
	}
}

func TestVerify_Success(t *testing.T) {
	t.Parallel()

	user := &models.User{ID: "user-1", Email: "a@x.com", Role: models.RoleUser}
	h := NewAuthHandlers(&fakeAuthService{user: user, token: "signed-token"}, &fakeUserLister{}, testLogger())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/user/verify", strings.NewReader(`{"email":"a@x.com","otp":"123456"}`))
	h.Verify(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var resp VerifyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Token != "signed-token" {
		t.Errorf("Token = %q, want signed-token", resp.Token)
	}
	if resp.User == nil || resp.User.ID != "user-1" {
		t.Errorf("User = %+v, want user-1", resp.User)
	}
}

func TestVerify_WrongAndExpiredCodeLookTheSame(t *testing.T) {
	t.Parallel()

	for _, err := range []error{service.ErrInvalidCode, service.ErrCodeExpired} {
		h := NewAuthHandlers(&fakeAuthService{verifyErr: err}, &fakeUserLister{}, testLogger())
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/user/verify", strings.NewReader(`{"email":"a@x.com","otp":"000000"}`))
		h.Verify(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status for %v = %d, want 401", err, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "INVALID_CODE") {
			t.Errorf("body for %v = %s, want INVALID_CODE", err, rec.Body.String())
		}
	}
}

func TestMe_ReturnsContextUser(t *testing.T) {
	t.Parallel()

	user := &models.User{ID: "user-1", Email: "a@x.com", Role: models.RoleUser}
	h := NewAuthHandlers(&fakeAuthService{}, &fakeUserLister{}, testLogger())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	req = req.WithContext(middleware.ContextWithUser(req.Context(), user))
	h.Me(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var got models.User
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.ID != "user-1" {
		t.Errorf("ID = %q, want user-1", got.ID)
	}
}

func TestMe_WithoutContextUser(t *testing.T) {
	t.Parallel()

	h := NewAuthHandlers(&fakeAuthService{}, &fakeUserLister{}, testLogger())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	h.Me(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestListUsers(t *testing.T) {
	t.Parallel()

	users := []models.User{
		{ID: "u1", Email: "a@x.com", Role: models.RoleAdmin},
		{ID: "u2", Email: "b@x.com", Role: models.RoleUser},
	}
	h := NewAuthHandlers(&fakeAuthService{}, &fakeUserLister{users: users}, testLogger())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/user/all", nil)
	h.ListUsers(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp ListUsersResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || len(resp.Users) != 2 {
		t.Errorf("response = %+v, want 2 users", resp)
	}
}

func TestListUsers_StoreError(t *testing.T) {
	t.Parallel()

	h := NewAuthHandlers(&fakeAuthService{}, &fakeUserLister{err: errors.New("dynamo down")}, testLogger())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/user/all", nil)
	h.ListUsers(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
