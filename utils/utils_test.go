package utils

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter22", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)
	assert.True(t, VerifyPassword(hash, "hunter22"))
	assert.False(t, VerifyPassword(hash, "hunter23"))
}

func TestAccessToken(t *testing.T) {
	tok, err := NewAccessToken("s3cret", 42, time.Minute)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), tok.Exp, 5*time.Second)

	id, err := ParseAccessToken("s3cret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	_, err = ParseAccessToken("other", tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := NewAccessToken("s3cret", 42, -time.Minute)
	require.NoError(t, err)
	_, err = ParseAccessToken("s3cret", expired.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseAccessToken("s3cret", "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

type fakePutter struct {
	key, bucket, contentType string
	body                     []byte
	err                      error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.key, f.bucket, f.contentType = *in.Key, *in.Bucket, *in.ContentType
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestObjectStorePut(t *testing.T) {
	fake := &fakePutter{}
	store := &ObjectStore{Client: fake, Bucket: "exports", CDNBaseURL: "https://cdn.example.com"}

	url, err := store.Put(context.Background(), "exports/1/a.json", "application/json", []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/exports/1/a.json", url)
	assert.Equal(t, "exports", fake.bucket)
	assert.Equal(t, "application/json", fake.contentType)
	assert.Equal(t, []byte(`{}`), fake.body)

	fake.err = errors.New("denied")
	_, err = store.Put(context.Background(), "k", "text/plain", nil)
	assert.ErrorContains(t, err, "failed to upload to R2")
}
