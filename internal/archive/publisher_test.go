package archive

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	inputs []*s3.PutObjectInput
	bodies [][]byte
	err    error
}

func (f *fakeUploader) Upload(_ context.Context, in *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.inputs = append(f.inputs, in)
	f.bodies = append(f.bodies, body)
	return &manager.UploadOutput{Location: "https://bucket.example/" + *in.Key}, nil
}

func fixedClock() time.Time {
	return time.Date(2025, 4, 1, 15, 30, 0, 0, time.UTC)
}

func TestNew_DisabledWithoutBucket(t *testing.T) {
	p, err := New(context.Background(), Config{}, zerolog.Nop())
	require.NoError(t, err)
	assert.False(t, p.Enabled())

	_, err = p.Publish(context.Background(), "s1", map[string]int{"a": 1})
	assert.True(t, errors.Is(err, ErrArchiveDisabled))
}

func TestKey(t *testing.T) {
	p := NewWithUploader(Config{Bucket: "b", Prefix: "/snapshots/"}, &fakeUploader{}, zerolog.Nop())
	assert.Equal(t, "snapshots/2025-04-01/abc-1743521400.json", p.Key("abc", fixedClock()))

	bare := NewWithUploader(Config{Bucket: "b"}, &fakeUploader{}, zerolog.Nop())
	assert.Equal(t, "2025-04-01/abc-1743521400.json", bare.Key("abc", fixedClock()))
}

func TestPublish(t *testing.T) {
	up := &fakeUploader{}
	p := NewWithUploader(Config{Bucket: "riskboard", Prefix: "snapshots"}, up, zerolog.Nop())
	p.now = fixedClock

	receipt, err := p.Publish(context.Background(), "abc", map[string]float64{"volatility": 0.21})
	require.NoError(t, err)

	require.Len(t, up.inputs, 1)
	in := up.inputs[0]
	assert.Equal(t, "riskboard", *in.Bucket)
	assert.Equal(t, "snapshots/2025-04-01/abc-1743521400.json", *in.Key)
	assert.Equal(t, "application/json", *in.ContentType)
	assert.Equal(t, receipt.Checksum, in.Metadata["sha256"])

	var snap struct {
		SessionID string             `json:"session_id"`
		Dashboard map[string]float64 `json:"dashboard"`
	}
	require.NoError(t, json.Unmarshal(up.bodies[0], &snap))
	assert.Equal(t, "abc", snap.SessionID)
	assert.Equal(t, 0.21, snap.Dashboard["volatility"])

	assert.Equal(t, int64(len(up.bodies[0])), receipt.SizeBytes)
	assert.Equal(t, "https://bucket.example/"+*in.Key, receipt.Location)
	assert.Len(t, receipt.Checksum, 64)
}

func TestPublish_UploadError(t *testing.T) {
	cause := errors.New("403 forbidden")
	p := NewWithUploader(Config{Bucket: "b"}, &fakeUploader{err: cause}, zerolog.Nop())

	_, err := p.Publish(context.Background(), "abc", struct{}{})
	assert.True(t, errors.Is(err, cause))
}
