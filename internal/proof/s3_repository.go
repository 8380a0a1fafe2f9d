package proof

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// S3Repository archives proofs in a bucket. Expiry is left to the bucket's
// lifecycle rules.
type S3Repository struct {
	client s3iface.S3API
	bucket string
	prefix string
}

func NewS3Repository(region, bucket, prefix string) (*S3Repository, error) {
	if bucket == "" {
		return nil, errors.New("s3 proof store needs a bucket")
	}
	sess, err := session.NewSession(&aws.Config{Region: &region})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 session: %w", err)
	}
	return NewS3RepositoryWithClient(s3.New(sess), bucket, prefix), nil
}

func NewS3RepositoryWithClient(client s3iface.S3API, bucket, prefix string) *S3Repository {
	return &S3Repository{client: client, bucket: bucket, prefix: prefix}
}

func (r *S3Repository) Find(ctx context.Context, id string) (*StoredProof, error) {
	output, err := r.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.key(id)),
	})
	if err != nil {
		var awsErr awserr.Error
		if errors.As(err, &awsErr) && awsErr.Code() == s3.ErrCodeNoSuchKey {
			return nil, nil
		}
		return nil, fmt.Errorf("s3 get %s: %w", id, err)
	}
	defer output.Body.Close()
	raw, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, err
	}
	var proof StoredProof
	if err := json.Unmarshal(raw, &proof); err != nil {
		return nil, fmt.Errorf("json.Unmarshal %s: %w", id, err)
	}
	return &proof, nil
}

func (r *S3Repository) Save(ctx context.Context, id string, proof *StoredProof) error {
	raw, err := json.Marshal(proof)
	if err != nil {
		return err
	}
	_, err = r.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(r.key(id)),
		Body:        bytes.NewReader(raw),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("s3 put %s: %w", id, err)
	}
	return nil
}

func (r *S3Repository) key(id string) string { return path.Join(r.prefix, id+".json") }
