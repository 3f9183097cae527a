package repositories

import (
	"context"

	"github.com/ahmedfahim21/fingreat-go/domain/entities"
)

// AnalysisRequest is the payload sent to the analysis endpoint
type AnalysisRequest struct {
	NewsArticle   string `json:"news_article"`
	CompanyTicker string `json:"company_ticker"`
	DateOfPublish string `json:"date_of_publish"`
}

// AnalysisEvent is one decoded record from the analysis stream. Exactly
// one of Stage or Result is set.
type AnalysisEvent struct {
	Stage  *entities.StageEvent
	Result *entities.ResultEvent
}

// NewsAnalyzer abstracts the streaming analysis endpoint. Analyze blocks
// until the stream ends, invoking emit once per decoded record in arrival
// order. A non-nil error means the stream failed to open or was cut off
// by transport failure; records emitted before the failure stand.
type NewsAnalyzer interface {
	Analyze(ctx context.Context, req AnalysisRequest, emit func(AnalysisEvent)) error
}
