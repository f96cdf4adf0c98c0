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

package dataset

import (
	"slices"

	"github.com/juju/errors"

	"github.com/go-recsys/implicit/model"
)

// Matrix is a sparse binary user-item matrix stored as per-user sorted item
// lists. Each row holds the distinct items a user interacted with.
type Matrix struct {
	numUsers int32
	numItems int32
	rows     [][]ItemId
}

// NewMatrix creates an empty interaction matrix with the given dimensions.
func NewMatrix(numUsers, numItems int32) *Matrix {
	return &Matrix{
		numUsers: numUsers,
		numItems: numItems,
		rows:     make([][]ItemId, numUsers),
	}
}

// FromInteractions builds an interaction matrix with the given dimensions.
// Interactions outside the dimensions are refused with model.ErrInvalidIndex.
func FromInteractions(numUsers, numItems int32, interactions []Interaction) (*Matrix, error) {
	m := NewMatrix(numUsers, numItems)
	for _, interaction := range interactions {
		if err := m.Add(interaction.UserId(), interaction.ItemId()); err != nil {
			return nil, errors.Trace(err)
		}
	}
	return m, nil
}

// Add records an interaction between userId and itemId. Duplicate pairs are
// ignored so rows stay sorted sets.
func (m *Matrix) Add(userId UserId, itemId ItemId) error {
	if userId < 0 || userId >= m.numUsers || itemId < 0 || itemId >= m.numItems {
		return errors.Annotatef(model.ErrInvalidIndex, "user %d item %d outside %d x %d",
			userId, itemId, m.numUsers, m.numItems)
	}
	row := m.rows[userId]
	if pos, found := slices.BinarySearch(row, itemId); !found {
		m.rows[userId] = slices.Insert(row, pos, itemId)
	}
	return nil
}

// Get returns the sorted items of a user. The returned slice must not be modified.
func (m *Matrix) Get(userId UserId) []ItemId {
	return m.rows[userId]
}

// Rows returns all per-user item lists.
func (m *Matrix) Rows() [][]ItemId {
	return m.rows
}

// NumUsers returns the number of user rows.
func (m *Matrix) NumUsers() int32 {
	return m.numUsers
}

// NumItems returns the number of item columns.
func (m *Matrix) NumItems() int32 {
	return m.numItems
}
