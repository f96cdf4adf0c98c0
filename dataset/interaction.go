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

// Package dataset holds the sparse implicit-feedback data model: interaction
// records, the per-user interaction matrix and dataset splitting.
package dataset

import (
	"github.com/juju/errors"

	"github.com/go-recsys/implicit/base"
	"github.com/go-recsys/implicit/model"
)

// UserId and ItemId are dense, zero-based handles bounded by the dimensions
// discovered at model-build time.
type (
	UserId = int32
	ItemId = int32
)

// Interaction is one observed user-item event. Implicit feedback carries no
// rating, only the fact of the interaction and an optional weight.
type Interaction interface {
	UserId() UserId
	ItemId() ItemId
	Weight() float32
}

// UnweightedInteraction is an interaction with a fixed weight of 1.
type UnweightedInteraction struct {
	User UserId
	Item ItemId
}

func NewUnweightedInteraction(userId UserId, itemId ItemId) UnweightedInteraction {
	return UnweightedInteraction{User: userId, Item: itemId}
}

func (i UnweightedInteraction) UserId() UserId {
	return i.User
}

func (i UnweightedInteraction) ItemId() ItemId {
	return i.Item
}

func (i UnweightedInteraction) Weight() float32 {
	return 1
}

// GetDimensions scans interactions and returns (max user id + 1, max item id + 1).
// An empty sequence is refused with model.ErrEmptyInput, negative ids with
// model.ErrInvalidIndex.
func GetDimensions(interactions []Interaction) (numUsers, numItems int32, err error) {
	if len(interactions) == 0 {
		return 0, 0, errors.Trace(model.ErrEmptyInput)
	}
	for _, interaction := range interactions {
		if interaction.UserId() < 0 || interaction.ItemId() < 0 {
			return 0, 0, errors.Annotatef(model.ErrInvalidIndex,
				"user %d item %d", interaction.UserId(), interaction.ItemId())
		}
		if interaction.UserId() >= numUsers {
			numUsers = interaction.UserId() + 1
		}
		if interaction.ItemId() >= numItems {
			numItems = interaction.ItemId() + 1
		}
	}
	return
}

// Split shuffles interactions and splits them into a train set and a test set.
// testFraction is the fraction of interactions assigned to the test set.
func Split(interactions []Interaction, rng base.RandomGenerator, testFraction float32) (train, test []Interaction) {
	shuffled := make([]Interaction, len(interactions))
	copy(shuffled, interactions)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	testSize := int(testFraction * float32(len(shuffled)))
	return shuffled[testSize:], shuffled[:testSize]
}
