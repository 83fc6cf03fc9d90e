package gitops

import (
	"encoding/base64"
	"fmt"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/cloudmasa/engine/internal/errdefs"
	"github.com/cloudmasa/engine/internal/util/naming"
)

const (
	gitopsNamespace   = "argocd"
	repoSecretLabel   = "argocd.argoproj.io/secret-type"
	destinationServer = "https://kubernetes.default.svc"
)

type metadata struct {
	Name      string            `json:"name"`
	Namespace string            `json:"namespace"`
	Labels    map[string]string `json:"labels,omitempty"`
}

type secretManifest struct {
	APIVersion string            `json:"apiVersion"`
	Kind       string            `json:"kind"`
	Metadata   metadata          `json:"metadata"`
	StringData map[string]string `json:"stringData"`
}

type applicationManifest struct {
	APIVersion string          `json:"apiVersion"`
	Kind       string          `json:"kind"`
	Metadata   metadata        `json:"metadata"`
	Spec       applicationSpec `json:"spec"`
}

type applicationSpec struct {
	Project     string            `json:"project"`
	Source      applicationSource `json:"source"`
	Destination appDestination    `json:"destination"`
	SyncPolicy  syncPolicy        `json:"syncPolicy"`
}

type applicationSource struct {
	RepoURL        string `json:"repoURL"`
	TargetRevision string `json:"targetRevision"`
	Path           string `json:"path"`
}

type appDestination struct {
	Server    string `json:"server"`
	Namespace string `json:"namespace"`
}

type syncPolicy struct {
	Automated   automatedSync `json:"automated"`
	SyncOptions []string      `json:"syncOptions"`
}

type automatedSync struct {
	Prune    bool `json:"prune"`
	SelfHeal bool `json:"selfHeal"`
}

// repoSecretName derives a stable secret name from the repository URL.
func repoSecretName(repoURL string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(repoURL))
	if len(encoded) > 16 {
		encoded = encoded[:16]
	}
	var b strings.Builder
	for _, r := range strings.ToLower(encoded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return "github-token-" + b.String()
}

// renderRepoSecret builds the repository credential Secret. The token
// travels only inside the manifest bytes, never through logs.
func renderRepoSecret(repoURL, username, token string) ([]byte, error) {
	secret := secretManifest{
		APIVersion: "v1",
		Kind:       "Secret",
		Metadata: metadata{
			Name:      repoSecretName(repoURL),
			Namespace: gitopsNamespace,
			Labels:    map[string]string{repoSecretLabel: "repository"},
		},
		StringData: map[string]string{
			"url":      strings.TrimSpace(repoURL),
			"username": username,
			"password": token,
		},
	}
	return marshalValidated(secret)
}

// renderApplication builds the declarative Application manifest.
func renderApplication(appName, tool, cluster, accountID, repoURL, folder, namespace string) ([]byte, error) {
	app := applicationManifest{
		APIVersion: "argoproj.io/v1alpha1",
		Kind:       "Application",
		Metadata: metadata{
			Name:      appName,
			Namespace: gitopsNamespace,
			Labels: map[string]string{
				"tool":       naming.Label(tool),
				"cluster":    naming.Label(cluster),
				"awsAccount": accountID,
			},
		},
		Spec: applicationSpec{
			Project: "default",
			Source: applicationSource{
				RepoURL:        strings.TrimSpace(repoURL),
				TargetRevision: "HEAD",
				Path:           folder,
			},
			Destination: appDestination{
				Server:    destinationServer,
				Namespace: namespace,
			},
			SyncPolicy: syncPolicy{
				Automated:   automatedSync{Prune: true, SelfHeal: true},
				SyncOptions: []string{"CreateNamespace=true"},
			},
		},
	}
	return marshalValidated(app)
}

// marshalValidated marshals the manifest and round-trips it to catch
// malformed output before anything reaches the cluster.
func marshalValidated(v any) ([]byte, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to render manifest: %w", err)
	}
	var check map[string]any
	if err := yaml.Unmarshal(data, &check); err != nil {
		return nil, errdefs.Validation("generated manifest is not valid YAML: %v", err)
	}
	return data, nil
}
