package main

import (
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
)

const presignExpiry = 1 * time.Hour

// artifactStore uploads plots and traces of a run to one bucket.
type artifactStore struct {
	svc      s3iface.S3API
	uploader s3manageriface.UploaderAPI
	bucket   string
	prefix   string
}

func newArtifactStore(sess *session.Session, bucket string) *artifactStore {
	return &artifactStore{
		svc:      s3.New(sess),
		uploader: s3manager.NewUploader(sess),
		bucket:   bucket,
		prefix:   time.Now().Format("2006-01-02"),
	}
}

func (s *artifactStore) bucketExists() (bool, error) {
	list, err := s.svc.ListBuckets(&s3.ListBucketsInput{})
	if err != nil {
		return false, fmt.Errorf("could not list buckets: %v", err)
	}
	for _, bucket := range list.Buckets {
		if aws.StringValue(bucket.Name) == s.bucket {
			return true, nil
		}
	}
	return false, nil
}

// ensureBucket creates the bucket unless it is already there.
func (s *artifactStore) ensureBucket() error {
	exists, err := s.bucketExists()
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if _, err := s.svc.CreateBucket(&s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	}); err != nil {
		return fmt.Errorf("unable to create bucket %q: %v", s.bucket, err)
	}

	fmt.Printf("Waiting for bucket %q to be created...\n", s.bucket)
	if err := s.svc.WaitUntilBucketExists(&s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	}); err != nil {
		return fmt.Errorf("error occurred while waiting for bucket %q to be created: %v", s.bucket, err)
	}

	fmt.Printf("Bucket %q successfully created\n", s.bucket)
	return nil
}

func (s *artifactStore) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}

// pipe streams whatever write produces into the bucket under name and
// returns a presigned link to it.
func (s *artifactStore) pipe(name, contentType string, write func(io.Writer) error) (string, error) {
	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(write(pw))
	}()

	key := s.key(name)
	_, err := s.uploader.Upload(&s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
		Body:        pr,
	})
	// unblock the writer if the upload gave up early
	pr.CloseWithError(err)
	if err != nil {
		return "", fmt.Errorf("error occurred while piping %s to s3: %v", name, err)
	}

	return s.presignedLink(key)
}

func (s *artifactStore) presignedLink(key string) (string, error) {
	req, _ := s.svc.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	urlStr, err := req.Presign(presignExpiry)
	if err != nil {
		return "", fmt.Errorf("failed to sign request for %s: %v", key, err)
	}
	return urlStr, nil
}
