package usecase

import (
	"fmt"

	"FinCast/internal/domain/models"
	"FinCast/internal/services/pipeline"
	"FinCast/pkg/config"
)

// Profile fixes the preprocessing and reporting parameters of a model kind.
type Profile struct {
	Kind       models.ModelKind
	Window     int
	Scaler     pipeline.ScalerKind
	Calendar   bool
	Horizon    int
	BoundSigma float64
}

// DefaultProfiles returns a fresh copy of the built-in profiles.
func DefaultProfiles() map[models.ModelKind]Profile {
	return map[models.ModelKind]Profile{
		models.KindTransformer: {Kind: models.KindTransformer, Window: 30, Scaler: pipeline.ScalerStandard, Calendar: true, Horizon: 3, BoundSigma: 1.96},
		models.KindLSTM:        {Kind: models.KindLSTM, Window: 10, Scaler: pipeline.ScalerMinMax, Calendar: false, Horizon: 3, BoundSigma: 1.96},
		models.KindProphet:     {Kind: models.KindProphet, Window: 7, Scaler: pipeline.ScalerStandard, Calendar: true, Horizon: 7, BoundSigma: 1.28},
	}
}

// ProfilesFromConfig applies configured overrides on top of the defaults.
// Zero values keep the default.
func ProfilesFromConfig(overrides map[string]config.ProfileConfig) (map[models.ModelKind]Profile, error) {
	out := DefaultProfiles()
	for name, o := range overrides {
		kind := models.ModelKind(name)
		p, ok := out[kind]
		if !ok {
			return nil, fmt.Errorf("forecast profile %q: %w", name, models.ErrUnknownModel)
		}
		if o.Window > 0 {
			p.Window = o.Window
		}
		if o.Horizon > 0 {
			p.Horizon = o.Horizon
		}
		if o.BoundSigma > 0 {
			p.BoundSigma = o.BoundSigma
		}
		if o.Scaler != "" {
			p.Scaler = pipeline.ScalerKind(o.Scaler)
		}
		if o.Calendar != nil {
			p.Calendar = *o.Calendar
		}
		out[kind] = p
	}
	return out, nil
}
