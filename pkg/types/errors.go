package types

import "errors"

var (
	ErrPostNotFound       = errors.New("funding post not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvestmentNotFound = errors.New("investment not found")
	ErrNotPostOwner       = errors.New("caller does not own this post")
	ErrInvalidRole        = errors.New("role must be investor or applicant")
)
