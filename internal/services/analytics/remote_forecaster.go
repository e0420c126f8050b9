package analytics

import (
	"context"
	"fmt"

	"FinCast/internal/domain/models"
	domsvc "FinCast/internal/domain/service"
	"FinCast/pkg/config"
)

// RemoteForecaster delegates fit and predict to the Python model service.
// The fitted model stays on the service; the handle is its id.
type RemoteForecaster struct {
	client *modelClient
	kind   models.ModelKind
}

func NewRemoteForecaster(cfg *config.Config, kind models.ModelKind) *RemoteForecaster {
	return &RemoteForecaster{client: newModelClient(cfg), kind: kind}
}

type remoteModel struct {
	ID string
}

type fitReq struct {
	Windows []models.Window `json:"windows"`
}

type fitResp struct {
	ModelID string `json:"model_id"`
}

type predictReq struct {
	ModelID string          `json:"model_id"`
	Windows []models.Window `json:"windows"`
}

type predictResp struct {
	Predictions []float64 `json:"predictions"`
}

func (f *RemoteForecaster) Name() string { return "remote-" + string(f.kind) }

func (f *RemoteForecaster) Fit(ctx context.Context, train []models.Window) (domsvc.Model, error) {
	var fr fitResp
	if err := f.client.call(ctx, string(f.kind), "fit", fitReq{Windows: train}, &fr); err != nil {
		return nil, err
	}
	if fr.ModelID == "" {
		return nil, fmt.Errorf("fit %s: empty model id", f.kind)
	}
	return remoteModel{ID: fr.ModelID}, nil
}

func (f *RemoteForecaster) Predict(ctx context.Context, m domsvc.Model, windows []models.Window) ([]float64, error) {
	rm, ok := m.(remoteModel)
	if !ok {
		return nil, fmt.Errorf("predict %s: unexpected model %T", f.kind, m)
	}
	var pr predictResp
	if err := f.client.call(ctx, string(f.kind), "predict", predictReq{ModelID: rm.ID, Windows: windows}, &pr); err != nil {
		return nil, err
	}
	return pr.Predictions, nil
}

var _ domsvc.Forecaster = (*RemoteForecaster)(nil)
