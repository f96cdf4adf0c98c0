// Copyright 2025 implicit Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mf

import (
	"math"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"

	"github.com/go-recsys/implicit/dataset"
	"github.com/go-recsys/implicit/model"
)

func newTestInteractions(numUsers, numItems int32) []dataset.Interaction {
	interactions := make([]dataset.Interaction, 0, numUsers*numItems)
	for u := int32(0); u < numUsers; u++ {
		for i := int32(0); i < numItems; i++ {
			if (u+i)%3 == 0 {
				interactions = append(interactions, dataset.NewUnweightedInteraction(u, i))
			}
		}
	}
	// pin the dimensions
	interactions = append(interactions, dataset.NewUnweightedInteraction(numUsers-1, numItems-1))
	return interactions
}

func TestNewImplicitFactorization(t *testing.T) {
	m, err := NewImplicitFactorization(model.Params{})
	assert.NoError(t, err)
	assert.Equal(t, 16, m.nFactors)
	assert.Equal(t, 10, m.batchSize)
	assert.Equal(t, float32(0.01), m.lr)

	_, err = NewImplicitFactorization(model.Params{model.NFactors: 0})
	assert.ErrorIs(t, err, model.ErrInvalidConfiguration)
	_, err = NewImplicitFactorization(model.Params{model.BatchSize: -1})
	assert.ErrorIs(t, err, model.ErrInvalidConfiguration)
	_, err = NewImplicitFactorization(model.Params{model.Lr: float32(math.NaN())})
	assert.ErrorIs(t, err, model.ErrInvalidConfiguration)
	_, err = NewImplicitFactorization(model.Params{model.Lr: float32(math.Inf(1))})
	assert.ErrorIs(t, err, model.ErrInvalidConfiguration)
}

func TestPredict_NotFitted(t *testing.T) {
	m, err := NewImplicitFactorization(model.Params{})
	assert.NoError(t, err)
	_, err = m.Predict(0)
	assert.ErrorIs(t, err, model.ErrNotFitted)
	assert.Equal(t, int32(0), m.NumUsers())
	assert.Equal(t, int32(0), m.NumItems())
}

func TestFit_EmptyInput(t *testing.T) {
	m, err := NewImplicitFactorization(model.Params{})
	assert.NoError(t, err)
	_, err = m.Fit(nil, 1, NewFitConfig().SetJobs(1))
	assert.ErrorIs(t, err, model.ErrEmptyInput)
}

func TestFit_InvalidEpochs(t *testing.T) {
	m, err := NewImplicitFactorization(model.Params{})
	assert.NoError(t, err)
	_, err = m.Fit(newTestInteractions(10, 10), 0, NewFitConfig().SetJobs(1))
	assert.ErrorIs(t, err, model.ErrInvalidConfiguration)
}

func TestFit_NegativeIds(t *testing.T) {
	m, err := NewImplicitFactorization(model.Params{model.BatchSize: 1})
	assert.NoError(t, err)
	interactions := []dataset.Interaction{
		dataset.NewUnweightedInteraction(0, 0),
		dataset.NewUnweightedInteraction(-1, 0),
	}
	_, err = m.Fit(interactions, 1, NewFitConfig().SetJobs(1))
	assert.ErrorIs(t, err, model.ErrInvalidIndex)
}

func TestFit_FiniteLoss(t *testing.T) {
	m, err := NewImplicitFactorization(model.Params{
		model.NFactors:    8,
		model.BatchSize:   4,
		model.RandomState: int64(42),
	})
	assert.NoError(t, err)
	loss, err := m.Fit(newTestInteractions(30, 20), 5, NewFitConfig().SetJobs(3).SetVerbose(0))
	assert.NoError(t, err)
	assert.False(t, math32.IsNaN(loss))
	assert.False(t, math32.IsInf(loss, 0))
	assert.Equal(t, int32(30), m.NumUsers())
	assert.Equal(t, int32(20), m.NumItems())

	scores, err := m.Predict(0)
	assert.NoError(t, err)
	assert.Len(t, scores, 20)
}

func TestFit_ZeroLearningRate(t *testing.T) {
	// With a single item the sampled negative always equals the positive, so
	// every score difference is exactly zero and the loss is -sigmoid(0).
	m, err := NewImplicitFactorization(model.Params{
		model.NFactors:  1,
		model.BatchSize: 1,
		model.Lr:        float32(0),
	})
	assert.NoError(t, err)
	interactions := []dataset.Interaction{dataset.NewUnweightedInteraction(0, 0)}
	loss, err := m.Fit(interactions, 1, NewFitConfig().SetJobs(1))
	assert.NoError(t, err)
	assert.Equal(t, float32(-0.5), loss)

	// a zero learning rate must leave the tables untouched
	before := append([]float32(nil), m.data.userEmbedding.Data()...)
	_, err = m.Fit(interactions, 1, NewFitConfig().SetJobs(1))
	assert.NoError(t, err)
	assert.Equal(t, before, m.data.userEmbedding.Data())
}

func TestFit_Incremental(t *testing.T) {
	m, err := NewImplicitFactorization(model.Params{model.BatchSize: 2})
	assert.NoError(t, err)
	_, err = m.Fit(newTestInteractions(10, 8), 2, NewFitConfig().SetJobs(2).SetVerbose(0))
	assert.NoError(t, err)
	userEmbedding := m.data.userEmbedding

	// a warm fit within bounds reuses the tables
	_, err = m.Fit(newTestInteractions(10, 8), 2, NewFitConfig().SetJobs(2).SetVerbose(0))
	assert.NoError(t, err)
	assert.Same(t, userEmbedding, m.data.userEmbedding)

	// ids beyond the allocated bounds are refused
	_, err = m.Fit(newTestInteractions(11, 8), 1, NewFitConfig().SetJobs(1))
	assert.ErrorIs(t, err, model.ErrInvalidIndex)
	_, err = m.Fit(newTestInteractions(10, 9), 1, NewFitConfig().SetJobs(1))
	assert.ErrorIs(t, err, model.ErrInvalidIndex)
}

func TestFit_MoreJobsThanInteractions(t *testing.T) {
	// zero-sized shards contribute zero loss instead of dividing by zero
	m, err := NewImplicitFactorization(model.Params{model.BatchSize: 1})
	assert.NoError(t, err)
	interactions := []dataset.Interaction{
		dataset.NewUnweightedInteraction(0, 0),
		dataset.NewUnweightedInteraction(1, 1),
	}
	loss, err := m.Fit(interactions, 1, NewFitConfig().SetJobs(4))
	assert.NoError(t, err)
	assert.False(t, math32.IsNaN(loss))
}
