package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/harshitajain06/Finji/internal/funding"
	"github.com/harshitajain06/Finji/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testService() *Service {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return &Service{logger: logger, validate: NewValidator()}
}

func TestRespondDomainError(t *testing.T) {
	s := testService()

	cases := []struct {
		name string
		err  error
		code int
	}{
		{"post not found", types.ErrPostNotFound, http.StatusNotFound},
		{"user not found", types.ErrUserNotFound, http.StatusNotFound},
		{"not owner", types.ErrNotPostOwner, http.StatusForbidden},
		{"invalid role", types.ErrInvalidRole, http.StatusUnprocessableEntity},
		{"wrapped not found", fmt.Errorf("loading post: %w", types.ErrPostNotFound), http.StatusNotFound},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.respondDomainError(rec, tc.err)
			assert.Equal(t, tc.code, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestRespondDomainError_ValidationDetails(t *testing.T) {
	s := testService()

	rec := httptest.NewRecorder()
	s.respondDomainError(rec, &funding.ValidationError{Fields: []funding.FieldError{
		{Field: "amount", Message: "must be greater than zero"},
	}})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Details, 1)
	assert.Equal(t, "amount", resp.Details[0].Field)
}

func TestRespondDomainError_UnknownStaysGeneric(t *testing.T) {
	s := testService()

	rec := httptest.NewRecorder()
	s.respondDomainError(rec, errors.New("pq: relation does not exist"))

	assert.NotContains(t, rec.Body.String(), "relation")
}

func TestBuildIdempKey(t *testing.T) {
	key := buildIdempKey(http.MethodPost, "/posts/abc/invest", "investor-1", "req-42")
	assert.Equal(t, "idemp:POST:/posts/abc/invest:investor-1:req-42", key)

	other := buildIdempKey(http.MethodPost, "/posts/abc/invest", "investor-2", "req-42")
	assert.NotEqual(t, key, other, "keys are scoped per user")
}

func TestBodyHash(t *testing.T) {
	a := bodyHash([]byte(`{"amount":"250"}`))
	b := bodyHash([]byte(`{"amount":"250"}`))
	c := bodyHash([]byte(`{"amount":"9999"}`))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestRespRecorderCapturesBody(t *testing.T) {
	rec := httptest.NewRecorder()
	rr := &respRecorder{ResponseWriter: rec, buf: &bytes.Buffer{}, code: http.StatusOK}

	rr.WriteHeader(http.StatusCreated)
	rr.Write([]byte(`{"ok":true}`))

	assert.Equal(t, http.StatusCreated, rr.code)
	assert.Equal(t, `{"ok":true}`, rr.buf.String())
	assert.Equal(t, `{"ok":true}`, rec.Body.String())
}

func TestToFieldErrors(t *testing.T) {
	type registerForm struct {
		Email    string `validate:"required,email"`
		Password string `validate:"required,min=8"`
		Role     string `validate:"omitempty,oneof=investor applicant"`
	}

	cv := NewValidator()
	err := cv.Validate(registerForm{Email: "not-an-email", Password: "short", Role: "admin"})
	require.Error(t, err)

	fields := ToFieldErrors(err)
	byField := map[string]string{}
	for _, f := range fields {
		byField[f.Field] = f.Message
	}

	assert.Equal(t, "must be a valid email address", byField["Email"])
	assert.Equal(t, "must be at least 8 characters", byField["Password"])
	assert.Equal(t, "must be one of: investor applicant", byField["Role"])
}

type mockUserStore struct {
	UserFn           func(ctx context.Context, userID string) (*types.User, error)
	CreateFn         func(ctx context.Context, user *types.User) error
	UpsertIdentityFn func(ctx context.Context, userID, email, displayName string, role types.Role) error
}

func (m *mockUserStore) User(ctx context.Context, userID string) (*types.User, error) {
	if m.UserFn != nil {
		return m.UserFn(ctx, userID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockUserStore) Create(ctx context.Context, user *types.User) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, user)
	}
	return errors.New("not implemented")
}

func (m *mockUserStore) UpsertIdentity(ctx context.Context, userID, email, displayName string, role types.Role) error {
	if m.UpsertIdentityFn != nil {
		return m.UpsertIdentityFn(ctx, userID, email, displayName, role)
	}
	return errors.New("not implemented")
}

func TestRouterStaticMineRoutesBeforeWildcard(t *testing.T) {
	s := testService()
	mux := flow.New()
	s.buildRouter(mux)

	// Without a token the protected static routes answer 401; were the
	// :postID wildcard matching first, "mine" would be treated as a post ID
	// and come back 404.
	for _, path := range []string{"/posts/mine", "/posts/mine/latest"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.Contains(t, rec.Body.String(), "missing access token", path)
	}
}

func TestSyncIdentityMirrorsClaims(t *testing.T) {
	s := testService()

	var gotUserID, gotEmail, gotName string
	var gotRole types.Role
	s.usersRepo = &mockUserStore{
		UpsertIdentityFn: func(ctx context.Context, userID, email, displayName string, role types.Role) error {
			gotUserID, gotEmail, gotName, gotRole = userID, email, displayName, role
			return nil
		},
	}

	s.syncIdentity(context.Background(), "user-1", "user@example.com", "Demo User")

	assert.Equal(t, "user-1", gotUserID)
	assert.Equal(t, "user@example.com", gotEmail)
	assert.Equal(t, "Demo User", gotName)
	assert.Equal(t, types.RoleApplicant, gotRole)
}

func TestSyncIdentitySwallowsStoreErrors(t *testing.T) {
	s := testService()
	s.usersRepo = &mockUserStore{
		UpsertIdentityFn: func(ctx context.Context, userID, email, displayName string, role types.Role) error {
			return errors.New("connection refused")
		},
	}

	// Must not panic or propagate; auth proceeds without the mirror.
	s.syncIdentity(context.Background(), "user-1", "user@example.com", "Demo User")
}

func TestLookupRole(t *testing.T) {
	s := testService()

	s.usersRepo = &mockUserStore{
		UserFn: func(ctx context.Context, userID string) (*types.User, error) {
			return &types.User{ID: userID, Role: types.RoleInvestor}, nil
		},
	}
	assert.Equal(t, types.RoleInvestor, s.lookupRole(context.Background(), "user-1"))

	s.usersRepo = &mockUserStore{
		UserFn: func(ctx context.Context, userID string) (*types.User, error) {
			return nil, types.ErrUserNotFound
		},
	}
	assert.Equal(t, types.RoleApplicant, s.lookupRole(context.Background(), "nobody"))
}

func TestIdentityFromContext(t *testing.T) {
	s := testService()

	ctx := context.WithValue(context.Background(), contextKeyUserID, "user-1")
	ctx = context.WithValue(ctx, contextKeyEmail, "user@example.com")
	ctx = context.WithValue(ctx, contextKeyName, "Demo User")

	id, err := s.identityFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id.UserID)
	assert.Equal(t, "user@example.com", id.Email)
	assert.Equal(t, "Demo User", id.DisplayName)

	_, err = s.identityFromContext(context.Background())
	assert.Error(t, err)
}
