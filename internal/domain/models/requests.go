package models

// Requests for the HTTP endpoints. Defined in domain for reuse by the CLI.

type CheckTickerRequest struct {
	Ticker      string `json:"ticker" validate:"required"`
	CompanyName string `json:"company_name"`
}

type CheckTickerResponse struct {
	Exists      bool   `json:"exists"`
	Source      string `json:"source,omitempty"`
	Ticker      string `json:"ticker,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	Message     string `json:"message,omitempty"`
}

type StockDataRequest struct {
	Ticker    string `json:"ticker" validate:"required,ticker"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

type StockDataResponse struct {
	Data        []map[string]any `json:"data"`
	Columns     []string         `json:"columns"`
	Source      Source           `json:"source"`
	SourceLabel string           `json:"source_label"`
}

type StationarityRequest struct {
	ColumnData []float64 `json:"column_data" validate:"required,min=1"`
}

type DecompositionRequest struct {
	ColumnData []float64 `json:"column_data" validate:"required,min=1"`
	Dates      []string  `json:"dates" validate:"required"`
	Period     int       `json:"period" default:"12" validate:"gte=2,lte=366"`
}

type TransformerRequest struct {
	Data           []map[string]any `json:"data" validate:"required,min=1"`
	Column         string           `json:"column" default:"Close"`
	SequenceLength int              `json:"sequence_length" validate:"omitempty,gte=2,lte=365"`
}

type LSTMRequest struct {
	Data      []map[string]any `json:"data" validate:"required,min=1"`
	Column    string           `json:"column" default:"Close"`
	SeqLength int              `json:"seq_length" validate:"omitempty,gte=2,lte=365"`
}

type ProphetRequest struct {
	Data   []map[string]any `json:"data" validate:"required,min=1"`
	Column string           `json:"column" default:"Close"`
	Window int              `json:"window" validate:"omitempty,gte=2,lte=365"`
}

// ForecastRequest drives the generic /forecast/:kind route. Either Data or
// Ticker with a date range must be given; Window 0 means the profile default.
type ForecastRequest struct {
	Ticker    string           `json:"ticker" validate:"omitempty,ticker"`
	StartDate string           `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string           `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Data      []map[string]any `json:"data"`
	Column    string           `json:"column" default:"Close"`
	Window    int              `json:"window" validate:"gte=0,lte=365"`
}

// PrefetchMessage is consumed from Kafka to warm the dataset cache.
type PrefetchMessage struct {
	Ticker    string `json:"ticker"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}
