package di

import (
	"github.com/samber/do/v2"

	"github.com/leadlens/leadlens/internal/analysis"
	"github.com/leadlens/leadlens/internal/api"
)

// AnalysisService bundles the three analysis services for the API layer.
type AnalysisService struct {
	Services api.Services
}

// NewAnalysis creates the sentiment, email, and website services over the
// shared router and response cache.
func NewAnalysis(i do.Injector) (*AnalysisService, error) {
	routerSvc := do.MustInvoke[*RouterService](i)
	responsesSvc := do.MustInvoke[*ResponsesService](i)

	return &AnalysisService{
		Services: api.Services{
			Sentiment: analysis.NewSentimentService(routerSvc, responsesSvc.Responses),
			Email:     analysis.NewEmailService(routerSvc, responsesSvc.Responses),
			Website:   analysis.NewWebsiteService(routerSvc, responsesSvc.Responses),
		},
	}, nil
}
