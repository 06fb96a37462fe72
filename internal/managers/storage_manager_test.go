package managers

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockS3Client struct {
	mock.Mock
}

func (m *mockS3Client) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	output, _ := args.Get(0).(*s3.PutObjectOutput)
	return output, args.Error(1)
}

func (m *mockS3Client) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	args := m.Called(ctx, params)
	output, _ := args.Get(0).(*s3.DeleteObjectOutput)
	return output, args.Error(1)
}

// TestUploadProfileImage tests the key layout and the public URL of uploaded images
func TestUploadProfileImage(t *testing.T) {
	client := new(mockS3Client)
	sm := NewS3StorageManager(client, StorageConfig{Bucket: "silverrock", BaseEndpoint: "http://127.0.0.1:9000/"})
	sm.now = func() time.Time { return time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC) }

	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return *in.Bucket == "silverrock" && strings.HasPrefix(*in.Key, "profiles/2024/03/") &&
			strings.HasSuffix(*in.Key, ".png") && *in.ContentType == "image/png" && *in.ContentLength == 4
	})).Return(&s3.PutObjectOutput{}, nil)

	url, key, err := sm.UploadProfileImage(context.Background(), "Me.PNG", "image/png", strings.NewReader("data"), 4)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "profiles/2024/03/"))
	assert.Equal(t, "http://127.0.0.1:9000/silverrock/"+key, url)

	client.AssertExpectations(t)
}

// TestUploadProfileImageFailure tests that upload errors are reported as unavailable storage
func TestUploadProfileImageFailure(t *testing.T) {
	client := new(mockS3Client)
	sm := NewS3StorageManager(client, StorageConfig{Bucket: "silverrock", Region: "eu-central-1"})

	client.On("PutObject", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	_, _, err := sm.UploadProfileImage(context.Background(), "me.jpg", "image/jpeg", strings.NewReader("data"), 4)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.Equal(t, "https://silverrock.s3.eu-central-1.amazonaws.com", sm.publicURL)
}

// TestDeleteObject tests removing stored images
func TestDeleteObject(t *testing.T) {
	client := new(mockS3Client)
	sm := NewS3StorageManager(client, StorageConfig{Bucket: "silverrock"})

	client.On("DeleteObject", mock.Anything, mock.MatchedBy(func(in *s3.DeleteObjectInput) bool {
		return *in.Bucket == "silverrock" && *in.Key == "profiles/2024/03/a.png"
	})).Return(&s3.DeleteObjectOutput{}, nil)

	require.NoError(t, sm.DeleteObject(context.Background(), "profiles/2024/03/a.png"))
	client.AssertExpectations(t)
}

// TestNoopStorageManager tests the storage used without a configured bucket
func TestNoopStorageManager(t *testing.T) {
	sm, err := NewStorageManager(context.Background(), StorageConfig{})
	require.NoError(t, err)

	_, _, err = sm.UploadProfileImage(context.Background(), "me.png", "image/png", strings.NewReader("data"), 4)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.NoError(t, sm.DeleteObject(context.Background(), "profiles/2024/03/a.png"))
}
