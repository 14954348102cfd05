package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dataridge/internal/auth"
	apperrors "dataridge/internal/errors"
	"dataridge/internal/handler"
	"dataridge/internal/metrics"
	"dataridge/internal/model"
	"dataridge/internal/service"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, email, password string) (*model.PublicUser, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PublicUser), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*service.Tokens, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Tokens), args.Error(1)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	args := m.Called(ctx, refreshToken)
	return args.String(0), args.Error(1)
}

type MockCompanyService struct {
	mock.Mock
}

func (m *MockCompanyService) CreateCompany(ctx context.Context, input model.CompanyInput, ownerID uuid.UUID) (*model.Company, error) {
	args := m.Called(ctx, input, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Company), args.Error(1)
}

func (m *MockCompanyService) GetCompanyByID(ctx context.Context, id, requesterID uuid.UUID) (*model.Company, error) {
	args := m.Called(ctx, id, requesterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Company), args.Error(1)
}

func (m *MockCompanyService) UpdateCompany(ctx context.Context, id uuid.UUID, patch model.CompanyPatch, requesterID uuid.UUID) (*model.Company, error) {
	args := m.Called(ctx, id, patch, requesterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Company), args.Error(1)
}

func (m *MockCompanyService) ListCompanies(ctx context.Context, ownerID uuid.UUID) ([]model.Company, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Company), args.Error(1)
}

func (m *MockCompanyService) DeleteCompany(ctx context.Context, id, requesterID uuid.UUID) error {
	args := m.Called(ctx, id, requesterID)
	return args.Error(0)
}

type testServer struct {
	e        *echo.Echo
	auth     *MockAuthService
	company  *MockCompanyService
	tokens   *auth.TokenIssuer
	sessions *auth.SessionTransport
	metrics  *metrics.Metrics
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		e:        echo.New(),
		auth:     new(MockAuthService),
		company:  new(MockCompanyService),
		tokens:   auth.NewTokenIssuer("access-secret", "refresh-secret"),
		sessions: auth.NewSessionTransport("cookie-secret", false),
		metrics:  metrics.New(prometheus.NewRegistry()),
	}
	Register(ts.e, Deps{
		Log:            zap.NewNop(),
		Metrics:        ts.metrics,
		Tokens:         ts.tokens,
		AuthHandler:    handler.NewAuthHandler(ts.auth, ts.sessions),
		CompanyHandler: handler.NewCompanyHandler(ts.company),
	})
	return ts
}

func (ts *testServer) do(method, path, body string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, fn := range mutate {
		fn(req)
	}
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	return rec
}

func bearer(token string) func(*http.Request) {
	return func(r *http.Request) {
		r.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apperrors.ErrorResponse {
	t.Helper()
	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func refreshCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.RefreshCookieName {
			return c
		}
	}
	return nil
}

func TestRegister(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		ts := newTestServer(t)
		userID := uuid.New()
		ts.auth.On("Register", mock.Anything, "a@b.com", "pw").Return(&model.PublicUser{ID: userID, Email: "a@b.com"}, nil)

		rec := ts.do(http.MethodPost, "/auth/register", `{"email":"a@b.com","password":"pw"}`)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.JSONEq(t, `{"id":"`+userID.String()+`","email":"a@b.com"}`, rec.Body.String())
	})

	t.Run("missing fields", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(http.MethodPost, "/auth/register", `{"email":"a@b.com"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, apperrors.ErrorResponse{Error: "Email and password are required.", Code: "VALIDATION_ERROR"}, decodeError(t, rec))
		ts.auth.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("duplicate email", func(t *testing.T) {
		ts := newTestServer(t)
		ts.auth.On("Register", mock.Anything, "a@b.com", "pw").Return(nil, apperrors.Conflict("Email already exists."))

		rec := ts.do(http.MethodPost, "/auth/register", `{"email":"a@b.com","password":"pw"}`)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "CONFLICT", decodeError(t, rec).Code)
	})

	t.Run("internal failure hides cause", func(t *testing.T) {
		ts := newTestServer(t)
		ts.auth.On("Register", mock.Anything, "a@b.com", "pw").
			Return(nil, apperrors.Internal("Registration failed.", errors.New("Error 1146: Table 'app.users' doesn't exist")))

		rec := ts.do(http.MethodPost, "/auth/register", `{"email":"a@b.com","password":"pw"}`)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "1146")
		assert.Equal(t, apperrors.ErrorResponse{Error: "Registration failed.", Code: "INTERNAL_ERROR"}, decodeError(t, rec))
	})

	t.Run("malformed body", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(http.MethodPost, "/auth/register", `{"email":`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLogin(t *testing.T) {
	t.Run("sets refresh cookie and returns only the access token", func(t *testing.T) {
		ts := newTestServer(t)
		ts.auth.On("Login", mock.Anything, "a@b.com", "pw").
			Return(&service.Tokens{AccessToken: "access.jwt.value", RefreshToken: "refresh.jwt.value"}, nil)

		rec := ts.do(http.MethodPost, "/auth/login", `{"email":"a@b.com","password":"pw"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"accessToken":"access.jwt.value"}`, rec.Body.String())
		assert.NotContains(t, rec.Body.String(), "refresh.jwt.value")

		cookie := refreshCookie(rec)
		require.NotNil(t, cookie)
		assert.True(t, cookie.HttpOnly)
		assert.Equal(t, "/token/refresh", cookie.Path)
		assert.True(t, strings.HasPrefix(cookie.Value, "refresh.jwt.value."))
	})

	t.Run("invalid credentials", func(t *testing.T) {
		ts := newTestServer(t)
		ts.auth.On("Login", mock.Anything, "a@b.com", "bad").Return(nil, apperrors.Authentication("Invalid credentials."))

		rec := ts.do(http.MethodPost, "/auth/login", `{"email":"a@b.com","password":"bad"}`)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, apperrors.ErrorResponse{Error: "Invalid credentials.", Code: "AUTHENTICATION_ERROR"}, decodeError(t, rec))
		assert.Nil(t, refreshCookie(rec))
	})

	t.Run("missing fields", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(http.MethodPost, "/auth/login", `{}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLogout(t *testing.T) {
	ts := newTestServer(t)

	for i := 0; i < 2; i++ {
		rec := ts.do(http.MethodPost, "/auth/logout", "")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"message":"Logged out successfully."}`, rec.Body.String())
		cookie := refreshCookie(rec)
		require.NotNil(t, cookie)
		assert.Equal(t, "/token/refresh", cookie.Path)
		assert.Empty(t, cookie.Value)
		assert.Less(t, cookie.MaxAge, 0)
	}
}

func TestRefresh(t *testing.T) {
	t.Run("exchanges the cookie for an access token", func(t *testing.T) {
		ts := newTestServer(t)
		ts.auth.On("Refresh", mock.Anything, "refresh.jwt.value").Return("new.access.token", nil)

		rec := ts.do(http.MethodPost, "/token/refresh", "", func(r *http.Request) {
			r.AddCookie(ts.sessions.RefreshCookie("refresh.jwt.value"))
		})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"accessToken":"new.access.token"}`, rec.Body.String())
	})

	t.Run("missing cookie", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(http.MethodPost, "/token/refresh", "")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		ts.auth.AssertNotCalled(t, "Refresh", mock.Anything, mock.Anything)
	})

	t.Run("expired refresh token", func(t *testing.T) {
		ts := newTestServer(t)
		ts.auth.On("Refresh", mock.Anything, "stale").Return("", apperrors.ExpiredToken(nil))

		rec := ts.do(http.MethodPost, "/token/refresh", "", func(r *http.Request) {
			r.AddCookie(ts.sessions.RefreshCookie("stale"))
		})

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "TOKEN_EXPIRED", decodeError(t, rec).Code)
	})
}

func TestCompanies_RequireBearerToken(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/companies", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, apperrors.ErrorResponse{Error: "Missing or malformed access token.", Code: "AUTHENTICATION_ERROR"}, decodeError(t, rec))

	rec = ts.do(http.MethodGet, "/companies", "", bearer("garbage"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_TOKEN", decodeError(t, rec).Code)

	refresh, err := ts.tokens.IssueRefreshToken(uuid.New())
	require.NoError(t, err)
	rec = ts.do(http.MethodGet, "/companies", "", bearer(refresh))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	ts.company.AssertNotCalled(t, "ListCompanies", mock.Anything, mock.Anything)
}

func TestCompanies_CRUD(t *testing.T) {
	ts := newTestServer(t)
	userID := uuid.New()
	token, err := ts.tokens.IssueAccessToken(userID, "owner@b.com")
	require.NoError(t, err)
	companyID := uuid.New()
	company := &model.Company{ID: companyID, Name: "Acme", ContactEmail: "a@acme.com", UserID: userID}

	t.Run("create", func(t *testing.T) {
		ts.company.On("CreateCompany", mock.Anything, model.CompanyInput{Name: "Acme", ContactEmail: "a@acme.com"}, userID).
			Return(company, nil).Once()

		rec := ts.do(http.MethodPost, "/companies", `{"name":"Acme","contact_email":"a@acme.com"}`, bearer(token))

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), `"user_id":"`+userID.String()+`"`)
	})

	t.Run("create rejects bad email", func(t *testing.T) {
		rec := ts.do(http.MethodPost, "/companies", `{"name":"Acme","contact_email":"nope"}`, bearer(token))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, apperrors.ErrorResponse{Error: "contact_email must be a valid email", Code: "VALIDATION_ERROR"}, decodeError(t, rec))
	})

	t.Run("get", func(t *testing.T) {
		ts.company.On("GetCompanyByID", mock.Anything, companyID, userID).Return(company, nil).Once()

		rec := ts.do(http.MethodGet, "/companies/"+companyID.String(), "", bearer(token))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("get forbidden", func(t *testing.T) {
		other := uuid.New()
		ts.company.On("GetCompanyByID", mock.Anything, other, userID).Return(nil, apperrors.Authorization("Access denied to this company")).Once()

		rec := ts.do(http.MethodGet, "/companies/"+other.String(), "", bearer(token))

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, apperrors.ErrorResponse{Error: "Access denied to this company", Code: "AUTHORIZATION_ERROR"}, decodeError(t, rec))
	})

	t.Run("get with malformed id", func(t *testing.T) {
		rec := ts.do(http.MethodGet, "/companies/not-a-uuid", "", bearer(token))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("patch", func(t *testing.T) {
		address := "1 Main St"
		ts.company.On("UpdateCompany", mock.Anything, companyID, model.CompanyPatch{Address: &address}, userID).Return(company, nil).Once()

		rec := ts.do(http.MethodPatch, "/companies/"+companyID.String(), `{"address":"1 Main St"}`, bearer(token))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("list returns an empty array", func(t *testing.T) {
		ts.company.On("ListCompanies", mock.Anything, userID).Return(nil, nil).Once()

		rec := ts.do(http.MethodGet, "/companies", "", bearer(token))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("delete", func(t *testing.T) {
		ts.company.On("DeleteCompany", mock.Anything, companyID, userID).Return(nil).Once()

		rec := ts.do(http.MethodDelete, "/companies/"+companyID.String(), "", bearer(token))

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	ts.company.AssertExpectations(t)
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestPanicIsRecoveredAndCounted(t *testing.T) {
	ts := newTestServer(t)
	ts.e.GET("/boom", func(c echo.Context) error {
		panic("handler bug")
	})

	rec := ts.do(http.MethodGet, "/boom", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", decodeError(t, rec).Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(ts.metrics.RequestCount.WithLabelValues(http.MethodGet, "/boom", "500")))
}
