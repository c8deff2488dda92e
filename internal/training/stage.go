// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package training

import "fmt"

// Model types trained by the orchestrator.
const (
	ModelForecast  = "forecast"
	ModelRecommend = "recommend"
)

// Models lists every trainable model type.
var Models = []string{ModelForecast, ModelRecommend}

// ValidModel reports whether model names a trainable model type.
func ValidModel(model string) bool {
	return model == ModelForecast || model == ModelRecommend
}

// Stage is a step of a training run.
type Stage int

const (
	StagePending Stage = iota
	StageInit
	StageFeatureEngine
	StageFeatureDone
	StageInteractionMatrix
	StageProductFeatures
	StageModelInit
	StageModelTrain
	StageMetrics
	StageComplete
	StageSkipped
	StageFailed
)

var stageNames = [...]string{
	StagePending:           "pending",
	StageInit:              "init",
	StageFeatureEngine:     "feature_engine",
	StageFeatureDone:       "feature_done",
	StageInteractionMatrix: "interaction_matrix",
	StageProductFeatures:   "product_features",
	StageModelInit:         "model_init",
	StageModelTrain:        "model_train",
	StageMetrics:           "metrics",
	StageComplete:          "complete",
	StageSkipped:           "skipped",
	StageFailed:            "error",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// MarshalText encodes the stage by name.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a stage name.
func (s *Stage) UnmarshalText(b []byte) error {
	name := string(b)
	for i, n := range stageNames {
		if n == name {
			*s = Stage(i)
			return nil
		}
	}
	return fmt.Errorf("unknown stage %q", name)
}

type planStep struct {
	stage    Stage
	progress int
}

// plans is the ordered stage sequence per model with the progress
// percentage reached once each stage's work is done.
var plans = map[string][]planStep{
	ModelForecast: {
		{StageInit, 5},
		{StageFeatureEngine, 25},
		{StageFeatureDone, 40},
		{StageModelInit, 50},
		{StageModelTrain, 85},
		{StageMetrics, 95},
		{StageComplete, 100},
	},
	ModelRecommend: {
		{StageInit, 5},
		{StageInteractionMatrix, 20},
		{StageProductFeatures, 40},
		{StageModelInit, 55},
		{StageModelTrain, 85},
		{StageMetrics, 95},
		{StageComplete, 100},
	},
}

// Stages returns the stage sequence of a model, or nil for an unknown model.
func Stages(model string) []Stage {
	plan := plans[model]
	out := make([]Stage, len(plan))
	for i, p := range plan {
		out[i] = p.stage
	}
	return out
}

// Progress returns the percentage recorded once the stage completes for the
// model. Stages outside the model's plan report 0.
func (s Stage) Progress(model string) int {
	for _, p := range plans[model] {
		if p.stage == s {
			return p.progress
		}
	}
	return 0
}

// Next returns the stage that follows s for the model. The second result is
// false when s is terminal or not part of the model's plan.
func (s Stage) Next(model string) (Stage, bool) {
	plan := plans[model]
	if s == StagePending && len(plan) > 0 {
		return plan[0].stage, true
	}
	for i, p := range plan {
		if p.stage == s && i+1 < len(plan) {
			return plan[i+1].stage, true
		}
	}
	return s, false
}
