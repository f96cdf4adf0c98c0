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

// Package mf implements a latent-factor model for implicit feedback trained
// with a pairwise ranking loss. Training is lock-free in the Hogwild manner:
// workers update the shared parameter tables concurrently without
// synchronization, relying on the sparsity of per-minibatch touches to keep
// collisions rare.
package mf

import (
	"runtime"
	"time"

	"github.com/chewxy/math32"
	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/go-recsys/implicit/base"
	"github.com/go-recsys/implicit/base/log"
	"github.com/go-recsys/implicit/common/floats"
	"github.com/go-recsys/implicit/common/nn"
	"github.com/go-recsys/implicit/common/parallel"
	"github.com/go-recsys/implicit/dataset"
	"github.com/go-recsys/implicit/model"
)

// FitConfig controls the execution of a training run, not the learned model.
type FitConfig struct {
	Jobs    int
	Verbose int
}

func NewFitConfig() *FitConfig {
	return &FitConfig{
		Jobs:    runtime.NumCPU(),
		Verbose: 10,
	}
}

func (config *FitConfig) SetJobs(nJobs int) *FitConfig {
	config.Jobs = nJobs
	return config
}

func (config *FitConfig) SetVerbose(verbose int) *FitConfig {
	config.Verbose = verbose
	return config
}

func (config *FitConfig) LoadDefaultIfNil() *FitConfig {
	if config == nil {
		return NewFitConfig()
	}
	return config
}

// modelData holds the parameter tables. Every training worker receives shared
// views of the same backing arrays, so updates are visible across workers
// without locks. The tables are sized on the first fit call and never resized.
type modelData struct {
	numUsers      int32
	numItems      int32
	userEmbedding *nn.Tensor // numUsers x nFactors
	itemEmbedding *nn.Tensor // numItems x nFactors
	itemBias      *nn.Tensor // numItems x 1
}

func newModelData(numUsers, numItems int32, nFactors int, rng base.RandomGenerator) *modelData {
	scale := 1 / math32.Sqrt(float32(nFactors))
	return &modelData{
		numUsers:      numUsers,
		numItems:      numItems,
		userEmbedding: nn.Uniform(rng, scale, int(numUsers), nFactors),
		itemEmbedding: nn.Uniform(rng, scale, int(numItems), nFactors),
		itemBias:      nn.Uniform(rng, scale, int(numItems), 1),
	}
}

// ImplicitFactorization learns user and item embeddings plus item biases from
// implicit feedback by pairwise ranking: for each observed interaction a
// negative item is sampled uniformly and the model is pushed to score the
// observed item above the sampled one.
type ImplicitFactorization struct {
	model.Params
	nFactors  int
	batchSize int
	lr        float32
	rng       base.RandomGenerator
	data      *modelData
}

// NewImplicitFactorization creates a model from hyperparameters. Omitted
// parameters fall back to NFactors=16, BatchSize=10, Lr=0.01.
func NewImplicitFactorization(params model.Params) (*ImplicitFactorization, error) {
	m := &ImplicitFactorization{
		Params:    params,
		nFactors:  params.GetInt(model.NFactors, 16),
		batchSize: params.GetInt(model.BatchSize, 10),
		lr:        params.GetFloat32(model.Lr, 0.01),
		rng:       base.NewRandomGenerator(params.GetInt64(model.RandomState, 0)),
	}
	if m.nFactors <= 0 {
		return nil, errors.Annotatef(model.ErrInvalidConfiguration, "NFactors = %d", m.nFactors)
	}
	if m.batchSize <= 0 {
		return nil, errors.Annotatef(model.ErrInvalidConfiguration, "BatchSize = %d", m.batchSize)
	}
	if math32.IsNaN(m.lr) || math32.IsInf(m.lr, 0) {
		return nil, errors.Annotatef(model.ErrInvalidConfiguration, "Lr = %v", m.lr)
	}
	return m, nil
}

// NumUsers returns the number of users the model was built for, zero before fit.
func (m *ImplicitFactorization) NumUsers() int32 {
	if m.data == nil {
		return 0
	}
	return m.data.numUsers
}

// NumItems returns the number of items the model was built for, zero before fit.
func (m *ImplicitFactorization) NumItems() int32 {
	if m.data == nil {
		return 0
	}
	return m.data.numItems
}

// Fit trains the model on interactions for numEpochs epochs and returns the
// training loss. The first call allocates the parameter tables from the
// dimensions of the input; later calls continue training on the same tables
// and refuse ids beyond the allocated bounds.
//
// The input is cut into config.Jobs contiguous shards of equal size, any
// remainder past jobs*shardSize is dropped. Shards train concurrently against
// the shared tables. The returned loss is the sum of the per-shard mean
// losses, so it scales with the number of jobs.
func (m *ImplicitFactorization) Fit(interactions []dataset.Interaction, numEpochs int, config *FitConfig) (float32, error) {
	config = config.LoadDefaultIfNil()
	if len(interactions) == 0 {
		return 0, errors.Trace(model.ErrEmptyInput)
	}
	if numEpochs < 1 {
		return 0, errors.Annotatef(model.ErrInvalidConfiguration, "numEpochs = %d", numEpochs)
	}
	if config.Jobs < 1 {
		return 0, errors.Annotatef(model.ErrInvalidConfiguration, "Jobs = %d", config.Jobs)
	}
	numUsers, numItems, err := dataset.GetDimensions(interactions)
	if err != nil {
		return 0, errors.Trace(err)
	}
	if m.data == nil {
		m.data = newModelData(numUsers, numItems, m.nFactors, m.rng)
	} else if numUsers > m.data.numUsers || numItems > m.data.numItems {
		return 0, errors.Annotatef(model.ErrInvalidIndex,
			"interactions span %d x %d but the model was built for %d x %d",
			numUsers, numItems, m.data.numUsers, m.data.numItems)
	}
	start := time.Now()
	log.Logger().Info("fit implicit factorization",
		zap.Int("n_interactions", len(interactions)),
		zap.Int("n_epochs", numEpochs),
		zap.Int("n_jobs", config.Jobs),
		zap.Any("params", m.Params))

	shardSize := len(interactions) / config.Jobs
	losses := make([]float32, config.Jobs)
	// seeds are drawn up front so worker scheduling cannot perturb the
	// model-level random stream
	seeds := make([]int64, config.Jobs)
	for i := range seeds {
		seeds[i] = m.rng.Int63()
	}
	err = parallel.Parallel(config.Jobs, config.Jobs, func(_, jobId int) error {
		if shardSize == 0 {
			return nil
		}
		shard := interactions[jobId*shardSize : (jobId+1)*shardSize]
		losses[jobId] = m.fitShard(shard, numEpochs, numItems, base.NewRandomGenerator(seeds[jobId]), config, jobId)
		return nil
	})
	if err != nil {
		return 0, errors.Trace(err)
	}
	loss := floats.Sum(losses)
	log.Logger().Info("fit complete",
		zap.Float32("loss", loss),
		zap.Duration("time", time.Since(start)))
	return loss, nil
}

// fitShard runs the minibatch loop of one worker. The parameter tables are
// accessed through shared views so gradients stay private to the worker while
// value updates land in the shared storage immediately.
func (m *ImplicitFactorization) fitShard(shard []dataset.Interaction, numEpochs int, numItems int32,
	rng base.RandomGenerator, config *FitConfig, jobId int) float32 {
	userEmbedding := m.data.userEmbedding.Shared()
	itemEmbedding := m.data.itemEmbedding.Shared()
	itemBias := m.data.itemBias.Shared()
	optimizer := nn.NewSGD([]*nn.Tensor{userEmbedding, itemEmbedding, itemBias}, m.lr)

	// minibatch index buffers, reused across steps
	userIndices := make([]float32, m.batchSize)
	positiveIndices := make([]float32, m.batchSize)
	negativeIndices := make([]float32, m.batchSize)

	total := float32(0)
	for epoch := 1; epoch <= numEpochs; epoch++ {
		for offset := 0; offset+m.batchSize <= len(shard); offset += m.batchSize {
			for i, interaction := range shard[offset : offset+m.batchSize] {
				userIndices[i] = float32(interaction.UserId())
				positiveIndices[i] = float32(interaction.ItemId())
				negativeIndices[i] = float32(rng.Int31n(numItems))
			}
			userVectors := nn.Embedding(userEmbedding, nn.NewTensor(userIndices, m.batchSize))
			positiveTensor := nn.NewTensor(positiveIndices, m.batchSize)
			negativeTensor := nn.NewTensor(negativeIndices, m.batchSize)
			positiveScore := nn.Add(
				nn.BatchDot(userVectors, nn.Embedding(itemEmbedding, positiveTensor)),
				nn.Embedding(itemBias, positiveTensor))
			negativeScore := nn.Add(
				nn.BatchDot(userVectors, nn.Embedding(itemEmbedding, negativeTensor)),
				nn.Embedding(itemBias, negativeTensor))
			loss := nn.Sum(nn.Neg(nn.Sigmoid(nn.Sub(positiveScore, negativeScore))))
			total += loss.Float()
			loss.Backward()
			optimizer.Step()
			optimizer.ZeroGrad()
		}
		if config.Verbose > 0 && epoch%config.Verbose == 0 {
			log.Logger().Debug("fit shard",
				zap.Int("job_id", jobId),
				zap.Int("epoch", epoch),
				zap.Int("n_epochs", numEpochs))
		}
	}
	return total / float32(numEpochs*len(shard))
}

// Predict scores every item of the catalog for one user with the current
// parameter tables. The returned vector has NumItems entries.
func (m *ImplicitFactorization) Predict(userId dataset.UserId) ([]float32, error) {
	if m.data == nil {
		return nil, errors.Trace(model.ErrNotFitted)
	}
	if userId < 0 || userId >= m.data.numUsers {
		return nil, errors.Annotatef(model.ErrInvalidIndex, "user %d of %d", userId, m.data.numUsers)
	}
	userVector := m.data.userEmbedding.Data()[int(userId)*m.nFactors : int(userId+1)*m.nFactors]
	itemVectors := m.data.itemEmbedding.Data()
	biases := m.data.itemBias.Data()
	scores := make([]float32, m.data.numItems)
	for i := range scores {
		scores[i] = biases[i] + floats.Dot(userVector, itemVectors[i*m.nFactors:(i+1)*m.nFactors])
	}
	return scores, nil
}
