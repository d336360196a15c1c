package main

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	s3iface.S3API
	signer  *s3.S3
	buckets []string
	created []string
	waited  []string
}

func (f *fakeS3) ListBuckets(*s3.ListBucketsInput) (*s3.ListBucketsOutput, error) {
	out := &s3.ListBucketsOutput{}
	for _, b := range f.buckets {
		out.Buckets = append(out.Buckets, &s3.Bucket{Name: aws.String(b)})
	}
	return out, nil
}

func (f *fakeS3) CreateBucket(in *s3.CreateBucketInput) (*s3.CreateBucketOutput, error) {
	f.created = append(f.created, aws.StringValue(in.Bucket))
	return &s3.CreateBucketOutput{}, nil
}

func (f *fakeS3) WaitUntilBucketExists(in *s3.HeadBucketInput) error {
	f.waited = append(f.waited, aws.StringValue(in.Bucket))
	return nil
}

// GetObjectRequest signs with a real client, presigning never leaves the process.
func (f *fakeS3) GetObjectRequest(in *s3.GetObjectInput) (*request.Request, *s3.GetObjectOutput) {
	return f.signer.GetObjectRequest(in)
}

type fakeUploader struct {
	s3manageriface.UploaderAPI
	keys   []string
	types  []string
	bodies []string
	err    error
}

func (f *fakeUploader) Upload(in *s3manager.UploadInput, _ ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.keys = append(f.keys, aws.StringValue(in.Key))
	f.types = append(f.types, aws.StringValue(in.ContentType))
	f.bodies = append(f.bodies, string(body))
	return &s3manager.UploadOutput{}, nil
}

func testStore(t *testing.T, buckets ...string) (*artifactStore, *fakeS3, *fakeUploader) {
	t.Helper()
	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String("ap-southeast-2"),
		Credentials: credentials.NewStaticCredentials("AKID", "SECRET", ""),
	})
	require.NoError(t, err)

	svc := &fakeS3{signer: s3.New(sess), buckets: buckets}
	up := &fakeUploader{}
	return &artifactStore{svc: svc, uploader: up, bucket: "runs", prefix: "2021-11-16"}, svc, up
}

func TestEnsureBucketCreatesMissing(t *testing.T) {
	store, svc, _ := testStore(t, "other")

	require.NoError(t, store.ensureBucket())
	assert.Equal(t, []string{"runs"}, svc.created)
	assert.Equal(t, []string{"runs"}, svc.waited)
}

func TestEnsureBucketKeepsExisting(t *testing.T) {
	store, svc, _ := testStore(t, "runs")

	require.NoError(t, store.ensureBucket())
	assert.Empty(t, svc.created)
}

func TestPipeUploadsAndPresigns(t *testing.T) {
	store, _, up := testStore(t)

	link, err := store.pipe("sgd-trace.csv", "text/csv", func(w io.Writer) error {
		_, err := io.WriteString(w, "step,distance\n0,1\n")
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"2021-11-16/sgd-trace.csv"}, up.keys)
	assert.Equal(t, []string{"text/csv"}, up.types)
	assert.Equal(t, []string{"step,distance\n0,1\n"}, up.bodies)
	assert.Contains(t, link, "runs")
	assert.Contains(t, link, "sgd-trace.csv")
	assert.Contains(t, link, "X-Amz-Signature=")
}

func TestPipeWriterError(t *testing.T) {
	store, _, _ := testStore(t)

	_, err := store.pipe("broken.png", "image/png", func(w io.Writer) error {
		return errors.New("render failed")
	})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "render failed"))
}

func TestPipeUploadError(t *testing.T) {
	store, _, up := testStore(t)
	up.err = errors.New("access denied")

	_, err := store.pipe("plot.png", "image/png", func(w io.Writer) error {
		_, err := w.Write([]byte("data"))
		return err
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestUploadArtifacts(t *testing.T) {
	r, err := runExperiment(testExperiment())
	require.NoError(t, err)
	store, _, up := testStore(t, "runs")

	require.True(t, upload(store, artifacts(r, "none")))
	assert.Equal(t, []string{
		"2021-11-16/sgd-trace.png",
		"2021-11-16/sgd-trace.csv",
		"2021-11-16/sgd-compare.png",
	}, up.keys)
}
