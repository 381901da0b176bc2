package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/listing-tracker/internal/provider"
)

// ProviderLister exposes the registered providers.
type ProviderLister interface {
	Infos() []provider.Info
}

// ListProvidersOutput is the response body for the provider list.
type ListProvidersOutput struct {
	Body []provider.Info
}

// RegisterProviderRoutes registers the provider list endpoint.
func RegisterProviderRoutes(api huma.API, providers ProviderLister) {
	huma.Register(api, huma.Operation{
		OperationID: "list-providers",
		Method:      http.MethodGet,
		Path:        "/api/v1/providers",
		Summary:     "List providers",
		Description: "Returns the providers configured in this process, ordered by ID.",
		Tags:        []string{"providers"},
	}, func(context.Context, *struct{}) (*ListProvidersOutput, error) {
		infos := providers.Infos()
		if infos == nil {
			infos = []provider.Info{}
		}
		return &ListProvidersOutput{Body: infos}, nil
	})
}
