package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	err  error
	in   *s3.PutObjectInput
	body []byte
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.in = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestAttachmentStore_Put(t *testing.T) {
	api := &fakePutter{}
	store := NewAttachmentStore(api, "sgirs-adjuntos")

	err := store.Put(context.Background(), "attachments/p/u/q/x-plan.pdf", "application/pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)

	assert.Equal(t, "sgirs-adjuntos", aws.ToString(api.in.Bucket))
	assert.Equal(t, "attachments/p/u/q/x-plan.pdf", aws.ToString(api.in.Key))
	assert.Equal(t, "application/pdf", aws.ToString(api.in.ContentType))
	assert.Equal(t, int64(8), aws.ToInt64(api.in.ContentLength))
	assert.Equal(t, []byte("%PDF-1.4"), api.body)
}

func TestAttachmentStore_PutError(t *testing.T) {
	store := NewAttachmentStore(&fakePutter{err: errors.New("access denied")}, "b")

	err := store.Put(context.Background(), "k", "image/png", []byte{1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}
