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

package base

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandomGenerator_UniformVector(t *testing.T) {
	rng := NewRandomGenerator(0)
	vec := rng.UniformVector(1000, 1, 2)
	for _, v := range vec {
		assert.GreaterOrEqual(t, v, float32(1))
		assert.Less(t, v, float32(2))
	}
}

func TestRandomGenerator_UniformMatrix(t *testing.T) {
	rng := NewRandomGenerator(0)
	mat := rng.UniformMatrix(10, 100, 1, 2)
	assert.Len(t, mat, 10)
	for _, row := range mat {
		assert.Len(t, row, 100)
		for _, v := range row {
			assert.GreaterOrEqual(t, v, float32(1))
			assert.Less(t, v, float32(2))
		}
	}
}

func TestRandomGenerator_Reproducible(t *testing.T) {
	a := NewRandomGenerator(42).UniformVector(100, 0, 1)
	b := NewRandomGenerator(42).UniformVector(100, 0, 1)
	assert.Equal(t, a, b)
}
