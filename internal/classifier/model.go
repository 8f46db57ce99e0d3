// Package classifier loads a trained risk-model artifact and maps
// feature vectors to a high-risk probability. Training is out of
// scope; the adapter consumes an exported model and performs no
// learning.
package classifier

import (
	"encoding/json"
	"math"
	"os"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	apperrors "github.com/meridianfin/tradegate/pkg/errors"
	"github.com/meridianfin/tradegate/pkg/models"
)

// ArtifactSchema is the only artifact format this adapter understands:
// a standardized logistic model exported by the training pipeline.
const ArtifactSchema = "logistic"

// Artifact is the on-disk model export. Features documents the exact
// input order the weights were trained against; it must match the
// engine's canonical feature order or the artifact is rejected.
type Artifact struct {
	Schema    string    `json:"schema"`
	Version   int       `json:"version"`
	Features  []string  `json:"features"`
	Means     []float64 `json:"means"`
	Scales    []float64 `json:"scales"`
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
}

// Model scores feature vectors against a loaded artifact. Immutable
// after Load; safe for concurrent use.
type Model struct {
	artifact Artifact
	logger   *zap.SugaredLogger
}

// Load reads and validates a model artifact. A missing or corrupt file
// fails fast with ModelUnavailable; a feature-order mismatch fails fast
// with InvalidFeatureVector. Neither is retried: both indicate
// misconfiguration, not a transient fault.
func Load(path string, logger *zap.SugaredLogger) (*Model, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindModelUnavailable, err, "read model artifact %s", path)
	}

	var artifact Artifact
	if err := json.Unmarshal(raw, &artifact); err != nil {
		return nil, apperrors.Wrap(apperrors.KindModelUnavailable, err, "decode model artifact %s", path)
	}
	if artifact.Schema != ArtifactSchema {
		return nil, apperrors.New(apperrors.KindModelUnavailable,
			"unsupported artifact schema %q (want %q)", artifact.Schema, ArtifactSchema)
	}

	if err := validateContract(artifact); err != nil {
		return nil, err
	}

	logger.Infow("model artifact loaded",
		"path", path,
		"schema", artifact.Schema,
		"version", artifact.Version,
		"features", len(artifact.Features))
	return &Model{artifact: artifact, logger: logger}, nil
}

func validateContract(a Artifact) error {
	want := models.FeatureNames()
	if len(a.Features) != models.NumFeatures {
		return apperrors.New(apperrors.KindInvalidFeatureVector,
			"artifact expects %d features, engine produces %d", len(a.Features), models.NumFeatures)
	}
	for i, name := range a.Features {
		if name != want[i] {
			return apperrors.New(apperrors.KindInvalidFeatureVector,
				"artifact feature %d is %q, engine produces %q", i, name, want[i])
		}
	}
	for _, arr := range [][]float64{a.Means, a.Scales, a.Weights} {
		if len(arr) != models.NumFeatures {
			return apperrors.New(apperrors.KindInvalidFeatureVector,
				"artifact parameter arrays must have %d entries", models.NumFeatures)
		}
	}
	return nil
}

// Score maps a feature vector to the probability, in [0,1], that the
// entity is high risk.
func (m *Model) Score(vector models.RiskFeatureVector) (float64, error) {
	values := vector.Values()
	return m.ScoreValues(values[:])
}

// ScoreValues scores a raw ordered vector. The slice must carry exactly
// NumFeatures values in canonical order.
func (m *Model) ScoreValues(values []float64) (float64, error) {
	if len(values) != models.NumFeatures {
		return 0, apperrors.New(apperrors.KindInvalidFeatureVector,
			"vector has %d values, model expects %d", len(values), models.NumFeatures)
	}

	standardized := make([]float64, models.NumFeatures)
	for i, v := range values {
		scale := m.artifact.Scales[i]
		if scale == 0 {
			scale = 1
		}
		standardized[i] = (v - m.artifact.Means[i]) / scale
	}

	logit := m.artifact.Intercept + floats.Dot(standardized, m.artifact.Weights)
	return sigmoid(logit), nil
}

// Version reports the loaded artifact version for audit logs.
func (m *Model) Version() int { return m.artifact.Version }

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
