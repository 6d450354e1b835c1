package storage

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// S3 is an implementation of Appender backed by AWS S3. Each payload is
// stored as its own object.
type S3 struct {
	profile string
	region  string
	bucket  string
	prefix  string

	mu     sync.Mutex
	client s3iface.S3API
	now    func() time.Time
}

func NewS3(profile, region, bucket, prefix string) *S3 {
	return &S3{
		profile: profile,
		region:  region,
		bucket:  bucket,
		prefix:  prefix,
		now:     time.Now,
	}
}

func (s *S3) Append(p []byte) (err error) {
	client, err := s.ensureClient()
	if err != nil {
		return err
	}
	key := s.keyFor(s.now(), nextSeq())
	_, err = client.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(p),
		ContentType: aws.String("application/octet-stream"),
	})
	if err != nil {
		return fmt.Errorf("could not put s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}

func (s *S3) keyFor(t time.Time, n uint64) string {
	return fmt.Sprintf("%s%d-%d.raw", s.prefix, t.UnixNano()/int64(time.Millisecond), n)
}

func (s *S3) ensureClient() (s3iface.S3API, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return s.client, nil
	}
	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(s.region),
		Credentials: credentials.NewSharedCredentials("", s.profile),
	})
	if err != nil {
		return nil, err
	}
	s.client = s3.New(sess)
	return s.client, nil
}
