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
	"github.com/chewxy/math32"
	"github.com/juju/errors"
	"github.com/samber/lo"

	"github.com/go-recsys/implicit/common/floats"
	"github.com/go-recsys/implicit/common/parallel"
	"github.com/go-recsys/implicit/dataset"
	"github.com/go-recsys/implicit/model"
)

// MRRScore computes the Mean Reciprocal Rank of a fitted model over held-out
// interactions. Items in a user's train row are pushed out of rank contention
// before ranking. A test item's rank is the number of catalog items whose
// score is greater than or equal to its own, so ties rank pessimistically.
// Users without test interactions are skipped, not counted as zero. Evaluation
// is fanned out over users; the model is read-only throughout.
func MRRScore(m *ImplicitFactorization, test, train *dataset.Matrix, nJobs int) (float32, error) {
	if m.data == nil {
		return 0, errors.Trace(model.ErrNotFitted)
	}
	if test.NumUsers() != train.NumUsers() || test.NumItems() != train.NumItems() {
		return 0, errors.Annotatef(model.ErrInvalidConfiguration,
			"test matrix is %d x %d but train matrix is %d x %d",
			test.NumUsers(), test.NumItems(), train.NumUsers(), train.NumItems())
	}
	if test.NumUsers() > m.NumUsers() || test.NumItems() > m.NumItems() {
		return 0, errors.Annotatef(model.ErrInvalidIndex,
			"matrices span %d x %d but the model was built for %d x %d",
			test.NumUsers(), test.NumItems(), m.NumUsers(), m.NumItems())
	}
	if nJobs < 1 {
		nJobs = 1
	}
	partSum := make([]float32, nJobs)
	partCount := make([]int, nJobs)
	err := parallel.Parallel(int(test.NumUsers()), nJobs, func(workerId, userId int) error {
		testRow := test.Get(int32(userId))
		if len(testRow) == 0 {
			return nil
		}
		scores, err := m.Predict(int32(userId))
		if err != nil {
			return errors.Trace(err)
		}
		for _, itemId := range train.Get(int32(userId)) {
			scores[itemId] = -math32.MaxFloat32
		}
		sum := float32(0)
		for _, itemId := range testRow {
			target := scores[itemId]
			rank := 0
			for _, score := range scores {
				if score >= target {
					rank++
				}
			}
			sum += 1 / float32(rank)
		}
		partSum[workerId] += sum / float32(len(testRow))
		partCount[workerId]++
		return nil
	})
	if err != nil {
		return 0, errors.Trace(err)
	}
	count := lo.Sum(partCount)
	if count == 0 {
		return 0, nil
	}
	return floats.Sum(partSum) / float32(count), nil
}
