package server

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/harshitajain06/Finji/internal/funding"
	"github.com/harshitajain06/Finji/internal/store"
	"github.com/harshitajain06/Finji/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/go-playground/form/v4"
	"github.com/gorilla/securecookie"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var decoder = form.NewDecoder()

// UserStore is the slice of the user repository the server needs: role
// lookups, registration inserts, and the claim mirror on authenticated
// requests.
type UserStore interface {
	User(ctx context.Context, userID string) (*types.User, error)
	Create(ctx context.Context, user *types.User) error
	UpsertIdentity(ctx context.Context, userID, email, displayName string, role types.Role) error
}

type Service struct {
	logger *logrus.Logger
	config *types.Config

	postsRepo       *store.PostRepository
	investmentsRepo *store.InvestmentRepository
	usersRepo       UserStore

	fundingSvc *funding.Service
	recorder   *funding.Recorder

	cognitoClient *cognitoidentityprovider.Client
	cookie        *securecookie.SecureCookie

	jwksCache *jwk.Cache
	jwksURL   string

	rdb            *redis.Client
	idempotencyTTL time.Duration

	validate *CustomValidator

	server *http.Server
}

func New(
	config *types.Config,
	logger *logrus.Logger,
	cognitoClient *cognitoidentityprovider.Client,
	postsRepo *store.PostRepository,
	investmentsRepo *store.InvestmentRepository,
	usersRepo UserStore,
	fundingSvc *funding.Service,
	recorder *funding.Recorder,
	rdb *redis.Client,
	jwkCache *jwk.Cache,
	jwksURL string,
) (*Service, error) {
	mux := flow.New()

	hashKey, _ := base64.StdEncoding.DecodeString(config.CookieHashKey)
	blockKey, _ := base64.StdEncoding.DecodeString(config.CookieBlockKey)

	s := &Service{
		logger:  logger,
		config:  config,
		cookie:  securecookie.New(hashKey, blockKey),

		postsRepo:       postsRepo,
		investmentsRepo: investmentsRepo,
		usersRepo:       usersRepo,

		fundingSvc: fundingSvc,
		recorder:   recorder,

		cognitoClient: cognitoClient,

		rdb:            rdb,
		idempotencyTTL: time.Duration(config.IdempotencyTTLSec) * time.Second,

		validate: NewValidator(),

		jwksCache: jwkCache,
		jwksURL:   jwksURL,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.ServerPort),
			Handler:           mux,
			ReadTimeout:       time.Duration(config.ReadTimeoutSec) * time.Second,
			ReadHeaderTimeout: time.Duration(config.ReadTimeoutSec) * time.Second,
			WriteTimeout:      time.Duration(config.WriteTimeoutSec) * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
	}

	s.buildRouter(mux)

	return s, nil
}

func (s *Service) Start() error {
	return s.server.ListenAndServe()
}

func (s *Service) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Service) buildRouter(r *flow.Mux) {
	r.Use(s.StripTrailingSlash)
	r.Use(s.LoggingMiddleware)

	r.HandleFunc("/healthz", s.handleHealth, http.MethodGet)

	r.HandleFunc("/auth/register", s.handleRegister, http.MethodPost)
	r.HandleFunc("/auth/login", s.handleLogin, http.MethodPost)
	r.HandleFunc("/auth/logout", s.handleLogout, http.MethodPost)

	r.HandleFunc("/posts", s.handleListPosts, http.MethodGet)

	// The static /posts/mine routes must register before the :postID
	// wildcard; flow matches routes in declaration order.
	r.Group(func(r *flow.Mux) {
		r.Use(s.RequireAuth)
		r.Use(s.Idempotency)

		r.HandleFunc("/posts/mine", s.handleMyPosts, http.MethodGet)
		r.HandleFunc("/posts/mine/latest", s.handleEditTarget, http.MethodGet)

		r.HandleFunc("/posts", s.handleCreatePost, http.MethodPost)
		r.HandleFunc("/posts/:postID", s.handleUpdatePost, http.MethodPut)
		r.HandleFunc("/posts/:postID/invest", s.handleInvest, http.MethodPost)

		r.HandleFunc("/me/investor", s.handleInvestorDashboard, http.MethodGet)
		r.HandleFunc("/me/applicant", s.handleApplicantDashboard, http.MethodGet)
	})

	r.HandleFunc("/posts/:postID", s.handleGetPost, http.MethodGet)
	r.HandleFunc("/posts/:postID/investments", s.handlePostInvestments, http.MethodGet)
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Service) identityFromContext(ctx context.Context) (types.Identity, error) {
	userID, ok := ctx.Value(contextKeyUserID).(string)
	if !ok || userID == "" {
		return types.Identity{}, fmt.Errorf("user id not found in context")
	}

	email, _ := ctx.Value(contextKeyEmail).(string)
	name, _ := ctx.Value(contextKeyName).(string)

	return types.Identity{UserID: userID, DisplayName: name, Email: email}, nil
}
