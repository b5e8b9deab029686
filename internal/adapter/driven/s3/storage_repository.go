package s3

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/T-Klug/aws-cur-report-generator/internal/domain/entity"
	"github.com/T-Klug/aws-cur-report-generator/internal/domain/repository"
)

// curFileSuffixes are the formats CUR delivery writes; everything else under
// the prefix (manifests, status files) is ignored.
var curFileSuffixes = []string{".csv.gz", ".csv", ".parquet"}

// StorageRepositoryImpl implements StorageRepository over the AWS SDK, with
// the shared AWS config loaded once behind a mutex.
type StorageRepositoryImpl struct {
	profile string
	region  string

	mu     sync.Mutex
	cfg    *aws.Config
	lister *s3.Client
}

// NewStorageRepository creates a StorageRepository for the given profile and
// region; empty values fall back to the default credential chain.
func NewStorageRepository(profile, region string) repository.StorageRepository {
	return &StorageRepositoryImpl{profile: profile, region: region}
}

func (r *StorageRepositoryImpl) awsConfig(ctx context.Context) (aws.Config, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cfg != nil {
		return *r.cfg, nil
	}

	var opts []func(*config.LoadOptions) error
	if r.profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(r.profile))
	}
	if r.region != "" {
		opts = append(opts, config.WithRegion(r.region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config for profile %q: %w", r.profile, err)
	}
	r.cfg = &cfg
	return cfg, nil
}

// ListObjects pages through the prefix and returns every CUR data file.
func (r *StorageRepositoryImpl) ListObjects(ctx context.Context, bucket, prefix string) ([]entity.ObjectRef, error) {
	cfg, err := r.awsConfig(ctx)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if r.lister == nil {
		r.lister = s3.NewFromConfig(cfg)
	}
	client := r.lister
	r.mu.Unlock()

	prefix = strings.TrimSuffix(prefix, "/")

	var objects []entity.ObjectRef
	paginator := s3.NewListObjectsV2Paginator(client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing s3://%s/%s: %w", bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if !isCURFile(key) {
				continue
			}
			objects = append(objects, entity.ObjectRef{
				Bucket:   bucket,
				Key:      key,
				SizeHint: aws.ToInt64(obj.Size),
			})
		}
	}
	return objects, nil
}

// NewFetcher builds an independent S3 client for one fetch worker.
func (r *StorageRepositoryImpl) NewFetcher(ctx context.Context) (repository.ObjectFetcher, error) {
	cfg, err := r.awsConfig(ctx)
	if err != nil {
		return nil, err
	}
	return &objectFetcher{client: s3.NewFromConfig(cfg.Copy())}, nil
}

// AccountID resolves the caller identity, doubling as a credential check.
func (r *StorageRepositoryImpl) AccountID(ctx context.Context) (string, error) {
	cfg, err := r.awsConfig(ctx)
	if err != nil {
		return "", err
	}
	result, err := sts.NewFromConfig(cfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("error getting caller identity: %w", err)
	}
	return aws.ToString(result.Account), nil
}

type objectFetcher struct {
	client *s3.Client
}

func (f *objectFetcher) Fetch(ctx context.Context, ref entity.ObjectRef) (io.ReadCloser, error) {
	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(ref.Bucket),
		Key:    aws.String(ref.Key),
	})
	if err != nil {
		return nil, err
	}
	return out.Body, nil
}

func isCURFile(key string) bool {
	for _, suffix := range curFileSuffixes {
		if strings.HasSuffix(key, suffix) {
			return true
		}
	}
	return false
}
