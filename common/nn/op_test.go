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

package nn

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

const (
	eps  = 1e-2
	rtol = 1e-2
	atol = 5e-3
)

func numericalDiff(f func(*Tensor) *Tensor, x *Tensor) *Tensor {
	x0, x1 := x.clone(), x.clone()
	dx := make([]float32, len(x.data))
	for i, v := range x.data {
		x0.data[i] = v - eps
		x1.data[i] = v + eps
		y0 := f(x0)
		y1 := f(x1)
		for j := range y0.data {
			dx[i] += (y1.data[j] - y0.data[j]) / (2 * eps)
		}
		x0.data[i] = v
		x1.data[i] = v
	}
	return NewTensor(dx, x.shape...)
}

func allClose(t *testing.T, a, b *Tensor) {
	if !assert.Equal(t, a.shape, b.shape) {
		return
	}
	for i := range a.data {
		if math32.Abs(a.data[i]-b.data[i]) > atol+rtol*math32.Abs(b.data[i]) {
			t.Fatalf("a.data[%d] = %f, b.data[%d] = %f\n", i, a.data[i], i, b.data[i])
			return
		}
	}
}

func TestAdd(t *testing.T) {
	// (2,3) + (2,3) -> (2,3)
	x := NewTensor([]float32{1, 2, 3, 4, 5, 6}, 2, 3)
	y := NewTensor([]float32{2, 3, 4, 5, 6, 7}, 2, 3)
	z := Add(x, y)
	assert.Equal(t, []float32{3, 5, 7, 9, 11, 13}, z.data)

	// Test gradient
	z = Sum(z)
	z.Backward()
	assert.Equal(t, []float32{1, 1, 1, 1, 1, 1}, x.grad.data)
	assert.Equal(t, []float32{1, 1, 1, 1, 1, 1}, y.grad.data)
}

func TestAddBroadcast(t *testing.T) {
	// (2,3) + (3) -> (2,3)
	x := NewTensor([]float32{1, 2, 3, 4, 5, 6}, 2, 3)
	y := NewTensor([]float32{2, 3, 4}, 3)
	z := Add(x, y)
	assert.Equal(t, []float32{3, 5, 7, 6, 8, 10}, z.data)

	z = Sum(z)
	z.Backward()
	assert.Equal(t, []float32{1, 1, 1, 1, 1, 1}, x.grad.data)
	assert.Equal(t, []float32{2, 2, 2}, y.grad.data)
}

func TestSub(t *testing.T) {
	x := NewTensor([]float32{5, 7, 9, 11, 13, 15}, 2, 3)
	y := NewTensor([]float32{2, 3, 4, 5, 6, 7}, 2, 3)
	z := Sub(x, y)
	assert.Equal(t, []float32{3, 4, 5, 6, 7, 8}, z.data)

	z = Sum(z)
	z.Backward()
	assert.Equal(t, []float32{1, 1, 1, 1, 1, 1}, x.grad.data)
	assert.Equal(t, []float32{-1, -1, -1, -1, -1, -1}, y.grad.data)
}

func TestNeg(t *testing.T) {
	x := NewTensor([]float32{1, -2, 3}, 3)
	y := Neg(x)
	assert.Equal(t, []float32{-1, 2, -3}, y.data)

	z := Sum(y)
	z.Backward()
	assert.Equal(t, []float32{-1, -1, -1}, x.grad.data)
}

func TestSigmoid(t *testing.T) {
	x := NewTensor([]float32{-2, -1, 0, 1, 2, 3}, 2, 3)
	y := Sigmoid(x)
	for i := range x.data {
		assert.InDelta(t, 1/(1+math32.Exp(-x.data[i])), y.data[i], 1e-6)
	}

	z := Sum(y)
	z.Backward()
	dx := numericalDiff(func(x *Tensor) *Tensor {
		f := &sigmoid{}
		return f.forward(x)
	}, x)
	allClose(t, x.grad, dx)
}

func TestBatchDot(t *testing.T) {
	x := NewTensor([]float32{1, 2, 3, 4, 5, 6}, 2, 3)
	y := NewTensor([]float32{2, 3, 4, 5, 6, 7}, 2, 3)
	z := BatchDot(x, y)
	assert.Equal(t, []int{2, 1}, z.shape)
	assert.Equal(t, []float32{20, 92}, z.data)

	s := Sum(z)
	s.Backward()
	assert.Equal(t, y.data, x.grad.data)
	assert.Equal(t, x.data, y.grad.data)
}

func TestEmbedding(t *testing.T) {
	w := NewTensor([]float32{1, 2, 3, 4, 5, 6}, 3, 2)
	x := NewTensor([]float32{0, 2, 2}, 3)
	y := Embedding(w, x)
	assert.Equal(t, []int{3, 2}, y.shape)
	assert.Equal(t, []float32{1, 2, 5, 6, 5, 6}, y.data)

	// gradient accumulates at repeated indices, indices get none
	z := Sum(y)
	z.Backward()
	assert.Equal(t, []float32{1, 1, 0, 0, 2, 2}, w.grad.data)
	assert.Nil(t, x.grad)
}

func TestSum(t *testing.T) {
	x := NewTensor([]float32{1, 2, 3, 4}, 2, 2)
	y := Sum(x)
	assert.Equal(t, float32(10), y.Float())

	y.Backward()
	assert.Equal(t, []float32{1, 1, 1, 1}, x.grad.data)
}

func TestSharedLeafGradientAccumulation(t *testing.T) {
	// the same table feeds two gathers; both contributions must accumulate
	w := NewTensor([]float32{1, 2, 3, 4}, 2, 2)
	a := Embedding(w, NewTensor([]float32{0}, 1))
	b := Embedding(w, NewTensor([]float32{0}, 1))
	z := Sum(Add(a, b))
	z.Backward()
	assert.Equal(t, []float32{2, 2, 0, 0}, w.grad.data)
}

func TestSharedIntermediateGradient(t *testing.T) {
	// one gather feeds both sides of a difference: the gather's backward must
	// run once, against the completed output gradient, so the table receives
	// exactly a-b and not a multiple of it
	w := NewTensor([]float32{1, 4}, 2, 1)
	u := Embedding(w, NewTensor([]float32{0, 1}, 2))
	a := NewTensor([]float32{2, 5}, 2, 1)
	b := NewTensor([]float32{3, 3}, 2, 1)
	z := Sum(Sub(BatchDot(u, a), BatchDot(u, b)))
	z.Backward()
	assert.Equal(t, []float32{-1, 2}, w.grad.data)
	assert.Equal(t, float32(1*2+4*5-1*3-4*3), z.Float())
}
