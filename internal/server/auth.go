package server

import (
	"encoding/json"
	"net/http"

	"github.com/harshitajain06/Finji/internal/utils"
	"github.com/harshitajain06/Finji/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	ctypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
)

type registerRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"displayName" validate:"required"`
	Role        string `json:"role" validate:"omitempty,oneof=investor applicant"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int    `json:"expiresIn"`
}

func (s *Service) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validate.Validate(req); err != nil {
		s.respondJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
		return
	}

	// Role is an explicit attribute chosen at registration, defaulting to
	// applicant, never inferred from another field.
	role := types.Role(req.Role)
	if req.Role == "" {
		role = types.RoleApplicant
	}
	if !role.Valid() {
		s.respondDomainError(w, types.ErrInvalidRole)
		return
	}

	input := &cognitoidentityprovider.SignUpInput{
		ClientId: aws.String(s.config.CognitoClientID),
		Username: aws.String(req.Email), // use email as username
		Password: aws.String(req.Password),
		UserAttributes: []ctypes.AttributeType{
			{Name: aws.String("email"), Value: aws.String(req.Email)},
			{Name: aws.String("name"), Value: aws.String(req.DisplayName)},
		},
	}

	resp, err := s.cognitoClient.SignUp(ctx, input)
	if err != nil {
		s.logger.WithError(err).Error("failed to sign up user")
		s.respondError(w, http.StatusBadRequest, "registration failed")
		return
	}

	user := &types.User{
		ID:          aws.ToString(resp.UserSub),
		Role:        role,
		Email:       utils.StringPtr(req.Email),
		DisplayName: utils.StringPtr(req.DisplayName),
	}

	if err := s.usersRepo.Create(ctx, user); err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Error("failed to create user record")
		s.internalServerError(w)
		return
	}

	s.respondJSON(w, http.StatusCreated, user)
}

func (s *Service) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.validate.Validate(req); err != nil {
		s.respondJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
		return
	}

	input := &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow: ctypes.AuthFlowTypeUserPasswordAuth,
		ClientId: aws.String(s.config.CognitoClientID),
		AuthParameters: map[string]string{
			"USERNAME": req.Email,
			"PASSWORD": req.Password,
		},
	}

	resp, err := s.cognitoClient.InitiateAuth(ctx, input)
	if err != nil {
		// NotAuthorizedException, UserNotConfirmedException, etc.
		s.respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if resp.AuthenticationResult == nil || resp.AuthenticationResult.AccessToken == nil {
		s.respondError(w, http.StatusUnauthorized, "login failed")
		return
	}

	accessToken := aws.ToString(resp.AuthenticationResult.AccessToken)
	expiresIn := int(resp.AuthenticationResult.ExpiresIn)

	// Web clients get the token in an encrypted cookie as well; mobile
	// clients just use the response body.
	encryptedToken, err := s.cookie.Encode(cookieAccessTokenName, accessToken)
	if err != nil {
		s.logger.WithError(err).Error("failed to encrypt access token")
	} else {
		http.SetCookie(w, &http.Cookie{
			Name:     cookieAccessTokenName,
			Value:    encryptedToken,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   expiresIn,
			Path:     "/",
		})
	}

	s.respondJSON(w, http.StatusOK, loginResponse{
		AccessToken: accessToken,
		ExpiresIn:   expiresIn,
	})
}

func (s *Service) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieAccessTokenName,
		Value:    "",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})

	s.respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}
