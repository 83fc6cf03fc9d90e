// Package kubeauth mints short-lived cluster access for one operation:
// a presigned STS identity token plus a kubeconfig written to an
// operation-unique temporary file.
package kubeauth

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/google/uuid"
	"sigs.k8s.io/yaml"

	"github.com/cloudmasa/engine/internal/awscloud"
	"github.com/cloudmasa/engine/internal/credentials"
	"github.com/cloudmasa/engine/internal/errdefs"
)

const (
	tokenPrefix     = "k8s-aws-v1."
	clusterIDHeader = "x-k8s-aws-id"
	expiresHeader   = "X-Amz-Expires"
	tokenExpiry     = "60"
)

// Minter produces tokens and scoped kubeconfig files.
type Minter struct {
	TempDir string // defaults to os.TempDir()
}

// Token presigns an STS caller-identity request bound to the cluster
// name and encodes it in the bearer-token format the cluster's
// authenticator expects.
func (m *Minter) Token(ctx context.Context, cred *credentials.Credential, cluster string) (string, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cred.Region),
		awsconfig.WithCredentialsProvider(
			awscreds.NewStaticCredentialsProvider(cred.AccessKeyID, cred.SecretAccessKey, "")),
	)
	if err != nil {
		return "", fmt.Errorf("failed to build aws config: %w", err)
	}

	presigner := sts.NewPresignClient(sts.NewFromConfig(cfg))
	req, err := presigner.PresignGetCallerIdentity(ctx, &sts.GetCallerIdentityInput{},
		func(po *sts.PresignOptions) {
			po.ClientOptions = append(po.ClientOptions, func(o *sts.Options) {
				o.APIOptions = append(o.APIOptions,
					smithyhttp.SetHeaderValue(clusterIDHeader, cluster),
					smithyhttp.SetHeaderValue(expiresHeader, tokenExpiry),
				)
			})
		})
	if err != nil {
		return "", errdefs.Credential("failed to presign cluster token", err)
	}

	return encodeToken(req.URL), nil
}

func encodeToken(presignedURL string) string {
	return tokenPrefix + base64.RawURLEncoding.EncodeToString([]byte(presignedURL))
}

// WriteScoped mints a token and writes a single-use kubeconfig for the
// cluster. The caller must invoke the returned cleanup on every exit
// path; the file carries live credentials and must not outlive the
// operation.
func (m *Minter) WriteScoped(ctx context.Context, cred *credentials.Credential, info *awscloud.ClusterInfo) (string, func(), error) {
	token, err := m.Token(ctx, cred, info.Name)
	if err != nil {
		return "", nil, err
	}

	data, err := renderKubeconfig(info, token)
	if err != nil {
		return "", nil, err
	}

	dir := m.TempDir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, fmt.Sprintf("kubeconfig-%s-%s.yaml", info.Name, uuid.NewString()))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", nil, fmt.Errorf("failed to write kubeconfig: %w", err)
	}

	cleanup := func() { os.Remove(path) }
	return path, cleanup, nil
}

type kubeconfig struct {
	APIVersion     string         `json:"apiVersion"`
	Kind           string         `json:"kind"`
	Clusters       []namedCluster `json:"clusters"`
	Contexts       []namedContext `json:"contexts"`
	CurrentContext string         `json:"current-context"`
	Users          []namedUser    `json:"users"`
}

type namedCluster struct {
	Name    string `json:"name"`
	Cluster struct {
		Server                   string `json:"server"`
		CertificateAuthorityData string `json:"certificate-authority-data"`
	} `json:"cluster"`
}

type namedContext struct {
	Name    string `json:"name"`
	Context struct {
		Cluster string `json:"cluster"`
		User    string `json:"user"`
	} `json:"context"`
}

type namedUser struct {
	Name string `json:"name"`
	User struct {
		Token string `json:"token"`
	} `json:"user"`
}

func renderKubeconfig(info *awscloud.ClusterInfo, token string) ([]byte, error) {
	if info.Endpoint == "" || info.CertificateAuthority == "" {
		return nil, errdefs.Validation("cluster %s has no endpoint or CA data", info.Name)
	}

	name := info.ARN
	if name == "" {
		name = info.Name
	}

	cfg := kubeconfig{
		APIVersion:     "v1",
		Kind:           "Config",
		CurrentContext: name,
	}

	var cluster namedCluster
	cluster.Name = name
	cluster.Cluster.Server = info.Endpoint
	cluster.Cluster.CertificateAuthorityData = info.CertificateAuthority
	cfg.Clusters = []namedCluster{cluster}

	var kctx namedContext
	kctx.Name = name
	kctx.Context.Cluster = name
	kctx.Context.User = name
	cfg.Contexts = []namedContext{kctx}

	var user namedUser
	user.Name = name
	user.User.Token = token
	cfg.Users = []namedUser{user}

	return yaml.Marshal(cfg)
}
