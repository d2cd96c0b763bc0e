package webhook

import (
	"github.com/mattjoyce/traduttore/internal/project"
)

// SecretResolver picks the shared secret used to verify a delivery.
type SecretResolver interface {
	Secret(provider string, candidate *project.Project) string
}

// ConfigSecrets resolves the candidate project's own secret first, then the
// configured secret for the provider. There is no cross-provider fallback;
// an empty result makes verification fail.
type ConfigSecrets map[string]string

func (c ConfigSecrets) Secret(provider string, candidate *project.Project) string {
	if candidate != nil && candidate.WebhookSecret != "" {
		return candidate.WebhookSecret
	}
	return c[provider]
}
