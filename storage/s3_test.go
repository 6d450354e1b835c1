package storage

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	s3iface.S3API
	err     error
	inputs  []*s3.PutObjectInput
	payload [][]byte
}

func (f *fakeS3) PutObject(input *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	b, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.inputs = append(f.inputs, input)
	f.payload = append(f.payload, b)
	return &s3.PutObjectOutput{}, nil
}

func TestS3(t *testing.T) {
	t.Run("one object per payload", func(t *testing.T) {
		fake := &fakeS3{}
		s := NewS3("adcsink", "eu-west-2", "adc-samples", "device-1/")
		s.client = fake
		s.now = func() time.Time { return time.Unix(1600000000, 0) }
		require.Nil(t, s.Append([]byte{0x01, 0x02, 0x03}))
		require.Nil(t, s.Append([]byte{0xff, 0xfe}))
		require.Len(t, fake.inputs, 2)
		assert.Equal(t, "adc-samples", aws.StringValue(fake.inputs[0].Bucket))
		assert.Equal(t, "application/octet-stream", aws.StringValue(fake.inputs[0].ContentType))
		assert.Regexp(t, `^device-1/1600000000000-\d+\.raw$`, aws.StringValue(fake.inputs[0].Key))
		assert.NotEqual(t, aws.StringValue(fake.inputs[0].Key), aws.StringValue(fake.inputs[1].Key))
		assert.Equal(t, [][]byte{{0x01, 0x02, 0x03}, {0xff, 0xfe}}, fake.payload)
	})
	t.Run("put failure is returned", func(t *testing.T) {
		s := NewS3("adcsink", "eu-west-2", "adc-samples", "")
		s.client = &fakeS3{err: errors.New("access denied")}
		err := s.Append([]byte("payload"))
		require.NotNil(t, err)
		assert.Contains(t, err.Error(), "s3://adc-samples/")
		assert.Contains(t, err.Error(), "access denied")
	})
}
