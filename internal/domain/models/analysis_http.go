package models

// Requests for analysis HTTP endpoints. Defined in domain for consistency and reuse.

type SentimentRequest struct {
	Hours int `query:"hours" json:"hours" default:"24" validate:"gte=1,lte=720"`
}

type CorrelationRequest struct {
	Hours int `query:"hours" json:"hours" default:"24" validate:"gte=1,lte=720"`
}

type InsightsRequest struct {
	Hours int `query:"hours" json:"hours" default:"24" validate:"gte=1,lte=720"`
}

type AlertsRequest struct {
	Hours int `query:"hours" json:"hours" default:"24" validate:"gte=1,lte=720"`
	Limit int `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
}

type PricesRequest struct {
	Hours int `query:"hours" json:"hours" default:"168" validate:"gte=1,lte=2160"`
	Limit int `query:"limit" json:"limit" default:"2000" validate:"gte=1,lte=50000"`
}

type AnalyzeRequest struct {
	Hours int `query:"hours" json:"hours" default:"24" validate:"gte=1,lte=720"`
}
