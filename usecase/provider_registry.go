package usecase

import (
	"sort"
	"strings"

	"social-relay/domain/model"
	"social-relay/domain/repository"
)

// ProviderRegistry holds the providers that have client credentials configured.
type ProviderRegistry struct {
	providers map[string]repository.ISocialProvider
}

func NewProviderRegistry(providers ...repository.ISocialProvider) *ProviderRegistry {
	r := &ProviderRegistry{providers: make(map[string]repository.ISocialProvider, len(providers))}
	for _, p := range providers {
		if p != nil {
			r.providers[strings.ToLower(p.Name())] = p
		}
	}
	return r
}

func (r *ProviderRegistry) Get(name string) (repository.ISocialProvider, error) {
	p, ok := r.providers[strings.ToLower(name)]
	if !ok {
		return nil, model.NewRelayError(model.KindUnknownProvider, name, "provider not configured", nil)
	}
	return p, nil
}

// Names returns the configured provider names in sorted order.
func (r *ProviderRegistry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Protocol returns the auth protocol of name, defaulting to OAuth2 for unknown names.
func (r *ProviderRegistry) Protocol(name string) model.AuthProtocol {
	if p, ok := r.providers[strings.ToLower(name)]; ok {
		return p.Protocol()
	}
	return model.ProtocolOAuth2
}
