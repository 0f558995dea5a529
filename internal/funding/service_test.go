package funding

import (
	"context"
	"errors"
	"testing"

	"github.com/harshitajain06/Finji/pkg/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPostStore struct {
	PostFn              func(ctx context.Context, postID string) (*types.FundingPost, error)
	LatestPostByOwnerFn func(ctx context.Context, userID string) (*types.FundingPost, error)
	CreatePostFn        func(ctx context.Context, post *types.FundingPost) error
	UpdatePostFn        func(ctx context.Context, postID string, post *types.FundingPost) error
}

func (m *mockPostStore) Post(ctx context.Context, postID string) (*types.FundingPost, error) {
	if m.PostFn != nil {
		return m.PostFn(ctx, postID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockPostStore) LatestPostByOwner(ctx context.Context, userID string) (*types.FundingPost, error) {
	if m.LatestPostByOwnerFn != nil {
		return m.LatestPostByOwnerFn(ctx, userID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockPostStore) CreatePost(ctx context.Context, post *types.FundingPost) error {
	if m.CreatePostFn != nil {
		return m.CreatePostFn(ctx, post)
	}
	return errors.New("not implemented")
}

func (m *mockPostStore) UpdatePost(ctx context.Context, postID string, post *types.FundingPost) error {
	if m.UpdatePostFn != nil {
		return m.UpdatePostFn(ctx, postID, post)
	}
	return errors.New("not implemented")
}

type mockBlobStore struct {
	UploadFn    func(ctx context.Context, key string, data []byte, contentType string) (string, error)
	DeleteFn    func(ctx context.Context, key string) error
	KeyForURLFn func(url string) (string, bool)
}

func (m *mockBlobStore) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if m.UploadFn != nil {
		return m.UploadFn(ctx, key, data, contentType)
	}
	return "", errors.New("not implemented")
}

func (m *mockBlobStore) Delete(ctx context.Context, key string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, key)
	}
	return errors.New("not implemented")
}

func (m *mockBlobStore) KeyForURL(url string) (string, bool) {
	if m.KeyForURLFn != nil {
		return m.KeyForURLFn(url)
	}
	return "", false
}

func validInput() PostInput {
	return PostInput{
		ApplicantName: "Amina Odhiambo",
		Location:      "Nairobi, Kenya",
		Category:      "Food & Beverage",
		Description:   "Expanding a street-food stall",
		UseOfFunds:    "Second grill and cold storage",
		LoanPurpose:   "Working capital",
		GoalAmount:    decimal.NewFromInt(1000),
	}
}

func TestCreatePost_Validation(t *testing.T) {
	svc := NewService(&mockPostStore{
		CreatePostFn: func(ctx context.Context, post *types.FundingPost) error {
			t.Fatal("CreatePost must not be called for invalid input")
			return nil
		},
	}, &mockBlobStore{}, testLogger())

	input := PostInput{GoalAmount: decimal.Zero}
	_, err := svc.CreatePost(context.Background(), "applicant-1", input, nil)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	fields := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"applicantName", "location", "description", "useOfFunds", "goalAmount"}, fields)
}

func TestCreatePost_StoresZeroFunded(t *testing.T) {
	var created *types.FundingPost
	svc := NewService(&mockPostStore{
		CreatePostFn: func(ctx context.Context, post *types.FundingPost) error {
			created = post
			return nil
		},
	}, &mockBlobStore{}, testLogger())

	post, err := svc.CreatePost(context.Background(), "applicant-1", validInput(), nil)
	require.NoError(t, err)

	require.NotNil(t, created)
	assert.Equal(t, "applicant-1", created.UserID)
	assert.Equal(t, "Amina Odhiambo", created.ApplicantName)
	assert.True(t, created.Funded.IsZero())
	assert.Nil(t, created.ImageURL)
	assert.Same(t, created, post)
}

func TestCreatePost_UploadFailureFailsCreate(t *testing.T) {
	svc := NewService(&mockPostStore{
		CreatePostFn: func(ctx context.Context, post *types.FundingPost) error {
			t.Fatal("CreatePost must not be called when the image upload failed")
			return nil
		},
	}, &mockBlobStore{
		UploadFn: func(ctx context.Context, key string, data []byte, contentType string) (string, error) {
			return "", errors.New("bucket unavailable")
		},
	}, testLogger())

	_, err := svc.CreatePost(context.Background(), "applicant-1", validInput(), &ImageUpload{Data: []byte("jpeg")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upload post image")
}

func TestCreatePost_AttachesUploadedImageURL(t *testing.T) {
	var uploadedKey string
	svc := NewService(&mockPostStore{
		CreatePostFn: func(ctx context.Context, post *types.FundingPost) error { return nil },
	}, &mockBlobStore{
		UploadFn: func(ctx context.Context, key string, data []byte, contentType string) (string, error) {
			uploadedKey = key
			assert.Equal(t, "image/png", contentType)
			return "https://cdn.example.com/" + key, nil
		},
	}, testLogger())

	post, err := svc.CreatePost(context.Background(), "applicant-1", validInput(), &ImageUpload{Data: []byte("png"), ContentType: "image/png"})
	require.NoError(t, err)

	require.NotNil(t, post.ImageURL)
	assert.Equal(t, "https://cdn.example.com/"+uploadedKey, *post.ImageURL)
	assert.Regexp(t, `^fundingPosts/\d+\.jpg$`, uploadedKey)
}

func TestUpdatePost_OwnershipEnforced(t *testing.T) {
	svc := NewService(&mockPostStore{
		PostFn: func(ctx context.Context, postID string) (*types.FundingPost, error) {
			return &types.FundingPost{ID: postID, UserID: "someone-else"}, nil
		},
		UpdatePostFn: func(ctx context.Context, postID string, post *types.FundingPost) error {
			t.Fatal("UpdatePost must not be called for a non-owner")
			return nil
		},
	}, &mockBlobStore{}, testLogger())

	_, err := svc.UpdatePost(context.Background(), "post-1", "applicant-1", validInput(), nil)
	assert.ErrorIs(t, err, types.ErrNotPostOwner)
}

func TestUpdatePost_KeepsImageWhenUnchanged(t *testing.T) {
	existingURL := "https://cdn.example.com/fundingPosts/111.jpg"

	svc := NewService(&mockPostStore{
		PostFn: func(ctx context.Context, postID string) (*types.FundingPost, error) {
			url := existingURL
			return &types.FundingPost{ID: postID, UserID: "applicant-1", ImageURL: &url}, nil
		},
		UpdatePostFn: func(ctx context.Context, postID string, post *types.FundingPost) error { return nil },
	}, &mockBlobStore{
		UploadFn: func(ctx context.Context, key string, data []byte, contentType string) (string, error) {
			t.Fatal("Upload must not be called without a replacement image")
			return "", nil
		},
	}, testLogger())

	post, err := svc.UpdatePost(context.Background(), "post-1", "applicant-1", validInput(), nil)
	require.NoError(t, err)

	require.NotNil(t, post.ImageURL)
	assert.Equal(t, existingURL, *post.ImageURL)
}

func TestUpdatePost_ReplacesImageAndDeletesOld(t *testing.T) {
	oldURL := "https://cdn.example.com/fundingPosts/111.jpg"

	var deletedKey string
	svc := NewService(&mockPostStore{
		PostFn: func(ctx context.Context, postID string) (*types.FundingPost, error) {
			url := oldURL
			return &types.FundingPost{ID: postID, UserID: "applicant-1", ImageURL: &url}, nil
		},
		UpdatePostFn: func(ctx context.Context, postID string, post *types.FundingPost) error { return nil },
	}, &mockBlobStore{
		UploadFn: func(ctx context.Context, key string, data []byte, contentType string) (string, error) {
			return "https://cdn.example.com/" + key, nil
		},
		DeleteFn: func(ctx context.Context, key string) error {
			deletedKey = key
			return nil
		},
		KeyForURLFn: func(url string) (string, bool) {
			assert.Equal(t, oldURL, url)
			return "fundingPosts/111.jpg", true
		},
	}, testLogger())

	post, err := svc.UpdatePost(context.Background(), "post-1", "applicant-1", validInput(), &ImageUpload{Data: []byte("jpeg")})
	require.NoError(t, err)

	require.NotNil(t, post.ImageURL)
	assert.NotEqual(t, oldURL, *post.ImageURL)
	assert.Equal(t, "fundingPosts/111.jpg", deletedKey)
}

func TestEditTarget(t *testing.T) {
	latest := &types.FundingPost{ID: "post-9", UserID: "applicant-1"}

	svc := NewService(&mockPostStore{
		LatestPostByOwnerFn: func(ctx context.Context, userID string) (*types.FundingPost, error) {
			assert.Equal(t, "applicant-1", userID)
			return latest, nil
		},
	}, &mockBlobStore{}, testLogger())

	post, err := svc.EditTarget(context.Background(), "applicant-1")
	require.NoError(t, err)
	assert.Same(t, latest, post)

	svc = NewService(&mockPostStore{
		LatestPostByOwnerFn: func(ctx context.Context, userID string) (*types.FundingPost, error) {
			return nil, types.ErrPostNotFound
		},
	}, &mockBlobStore{}, testLogger())

	_, err = svc.EditTarget(context.Background(), "nobody")
	assert.ErrorIs(t, err, types.ErrPostNotFound)
}
