package siteforge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// ErrNoCredential is returned when a domain has no stored password hash.
var ErrNoCredential = errors.New("siteforge: no credential for domain")

// CredentialSource resolves the admin bcrypt password hash for a tenant
// domain. Login compares against it; change-password writes through it.
type CredentialSource interface {
	PasswordHash(ctx context.Context, domain string) (string, error)
	SetPasswordHash(ctx context.Context, domain, hash string) error
}

// StaticCredentials is an in-memory CredentialSource for development and
// tests.
type StaticCredentials struct {
	mu     sync.RWMutex
	hashes map[string]string
}

// NewStaticCredentials creates a source seeded with domain→hash pairs.
func NewStaticCredentials(hashes map[string]string) *StaticCredentials {
	s := &StaticCredentials{hashes: make(map[string]string, len(hashes))}
	for domain, hash := range hashes {
		s.hashes[domain] = hash
	}
	return s
}

func (s *StaticCredentials) PasswordHash(_ context.Context, domain string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hash, ok := s.hashes[domain]
	if !ok {
		return "", ErrNoCredential
	}
	return hash, nil
}

func (s *StaticCredentials) SetPasswordHash(_ context.Context, domain, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hashes[domain] = hash
	return nil
}

// SSMCredentials stores password hashes as SecureString parameters in AWS
// Systems Manager Parameter Store, one parameter per tenant domain.
type SSMCredentials struct {
	client *ssm.Client
}

// NewSSMCredentials builds a Parameter Store credential source for the
// given region.
func NewSSMCredentials(ctx context.Context, region string) (*SSMCredentials, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("siteforge: load aws config: %w", err)
	}
	return &SSMCredentials{client: ssm.NewFromConfig(cfg)}, nil
}

func credentialParameter(domain string) string {
	return "/sites/" + strings.ReplaceAll(domain, ".", "-") + "/admin_password_hash"
}

func (s *SSMCredentials) PasswordHash(ctx context.Context, domain string) (string, error) {
	out, err := s.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(credentialParameter(domain)),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		var notFound *ssmtypes.ParameterNotFound
		if errors.As(err, &notFound) {
			return "", ErrNoCredential
		}
		return "", fmt.Errorf("siteforge: read credential for %s: %w", domain, err)
	}
	return aws.ToString(out.Parameter.Value), nil
}

func (s *SSMCredentials) SetPasswordHash(ctx context.Context, domain, hash string) error {
	_, err := s.client.PutParameter(ctx, &ssm.PutParameterInput{
		Name:        aws.String(credentialParameter(domain)),
		Value:       aws.String(hash),
		Type:        ssmtypes.ParameterTypeSecureString,
		Overwrite:   aws.Bool(true),
		Description: aws.String("Admin password hash for " + domain),
	})
	if err != nil {
		return fmt.Errorf("siteforge: write credential for %s: %w", domain, err)
	}
	return nil
}

var _ CredentialSource = (*StaticCredentials)(nil)
var _ CredentialSource = (*SSMCredentials)(nil)
