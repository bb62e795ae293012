package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func testBucket() *Bucket {
	client := s3.New(s3.Options{
		Region:       "us-east-1",
		Credentials:  credentials.NewStaticCredentialsProvider("key", "secret", ""),
		BaseEndpoint: aws.String("http://minio:9000"),
		UsePathStyle: true,
	})
	return NewBucket(client, "pokegraph")
}

func TestGenerateDownloadLink(t *testing.T) {
	b := testBucket()

	link, err := b.GenerateDownloadLink(context.Background(), "graph/abc/graph.json", "https://files.example.org/s3")
	if err != nil {
		t.Fatalf("GenerateDownloadLink() error = %v", err)
	}
	if !strings.HasPrefix(link, "https://files.example.org/s3/pokegraph/graph/abc/graph.json?") {
		t.Fatalf("unexpected link %s", link)
	}
	if !strings.Contains(link, "X-Amz-Signature=") {
		t.Fatalf("link is not presigned: %s", link)
	}
}

func TestGenerateDownloadLinkInvalidEndpoint(t *testing.T) {
	b := testBucket()
	if _, err := b.GenerateDownloadLink(context.Background(), "k", "files.example.org"); err == nil {
		t.Fatal("expected error for endpoint without scheme")
	}
}
