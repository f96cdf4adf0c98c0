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

// Package nn is a minimal differentiation engine: dense float32 tensors, a
// handful of graph operators with hand-derived gradients, reverse-mode
// backpropagation and a plain SGD update rule.
package nn

import (
	"fmt"
	"strings"

	"github.com/chewxy/math32"

	"github.com/go-recsys/implicit/base"
)

type Tensor struct {
	data  []float32
	shape []int
	grad  *Tensor
	op    op
}

func NewTensor(data []float32, shape ...int) *Tensor {
	n := 1
	for _, s := range shape {
		n *= s
	}
	if n != len(data) {
		panic(fmt.Sprintf("nn: shape %v does not match data length %d", shape, len(data)))
	}
	return &Tensor{
		data:  data,
		shape: shape,
	}
}

func NewScalar(data float32) *Tensor {
	return &Tensor{
		data:  []float32{data},
		shape: []int{},
	}
}

// Ones creates a tensor filled with ones.
func Ones(shape ...int) *Tensor {
	n := 1
	for _, s := range shape {
		n *= s
	}
	data := make([]float32, n)
	for i := range data {
		data[i] = 1
	}
	return &Tensor{
		data:  data,
		shape: shape,
	}
}

// Zeros creates a tensor filled with zeros.
func Zeros(shape ...int) *Tensor {
	n := 1
	for _, s := range shape {
		n *= s
	}
	data := make([]float32, n)
	return &Tensor{
		data:  data,
		shape: shape,
	}
}

// Uniform creates a tensor filled with uniform random floats in [0, scale).
func Uniform(rng base.RandomGenerator, scale float32, shape ...int) *Tensor {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return &Tensor{
		data:  rng.UniformVector(n, 0, scale),
		shape: shape,
	}
}

// Shared returns a view of t sharing the same backing array but carrying its
// own gradient. Workers training in parallel each hold a shared view of the
// parameter tables: value updates are visible to every holder without locks,
// while gradients stay private to the worker.
func (t *Tensor) Shared() *Tensor {
	return &Tensor{
		data:  t.data,
		shape: t.shape,
	}
}

// Data exposes the backing array of a tensor. Mutations are visible to every
// shared view.
func (t *Tensor) Data() []float32 {
	return t.data
}

// Shape returns the dimensions of a tensor.
func (t *Tensor) Shape() []int {
	return t.shape
}

// Float returns the value of a scalar tensor.
func (t *Tensor) Float() float32 {
	if len(t.data) != 1 {
		panic("nn: Float called on a non-scalar tensor")
	}
	return t.data[0]
}

func (t *Tensor) String() string {
	// Print scalar value
	if len(t.shape) == 0 {
		return fmt.Sprint(t.data[0])
	}

	builder := strings.Builder{}
	builder.WriteString("[")
	if len(t.data) <= 10 {
		for i := 0; i < len(t.data); i++ {
			builder.WriteString(fmt.Sprint(t.data[i]))
			if i != len(t.data)-1 {
				builder.WriteString(", ")
			}
		}
	} else {
		for i := 0; i < 5; i++ {
			builder.WriteString(fmt.Sprint(t.data[i]))
			builder.WriteString(", ")
		}
		builder.WriteString("..., ")
		for i := len(t.data) - 5; i < len(t.data); i++ {
			builder.WriteString(fmt.Sprint(t.data[i]))
			if i != len(t.data)-1 {
				builder.WriteString(", ")
			}
		}
	}
	builder.WriteString("]")
	return builder.String()
}

// Backward seeds the gradient of t with ones and backpropagates through the
// graph that produced it. Gradients accumulate across consumers, so a tensor
// feeding several downstream ops receives every contribution. An op runs its
// backward pass exactly once, after the gradient of its output is complete.
func (t *Tensor) Backward() {
	t.grad = Ones(t.shape...)
	// count the gradient contributions each op's output waits for
	pending := make(map[op]int)
	queue := []op{t.op}
	for len(queue) > 0 {
		o := queue[0]
		queue = queue[1:]
		inputs, _ := o.inputsAndOutput()
		for _, input := range inputs {
			if input.op != nil {
				if pending[input.op] == 0 {
					queue = append(queue, input.op)
				}
				pending[input.op]++
			}
		}
	}
	ops := []op{t.op}
	for len(ops) > 0 {
		o := ops[0]
		ops = ops[1:]
		inputs, output := o.inputsAndOutput()
		grads := o.backward(output.grad)
		for i := range grads {
			if grads[i] != nil {
				if inputs[i].grad == nil {
					inputs[i].grad = grads[i]
				} else {
					inputs[i].grad.add(grads[i])
				}
			}
			if inputs[i].op != nil {
				pending[inputs[i].op]--
				if pending[inputs[i].op] == 0 {
					ops = append(ops, inputs[i].op)
				}
			}
		}
	}
}

func (t *Tensor) Grad() *Tensor {
	return t.grad
}

func (t *Tensor) clone() *Tensor {
	newData := make([]float32, len(t.data))
	copy(newData, t.data)
	return &Tensor{
		data:  newData,
		shape: t.shape,
	}
}

func (t *Tensor) add(other *Tensor) *Tensor {
	wSize := 1
	for i := range other.shape {
		wSize *= other.shape[i]
	}
	for i := range t.data {
		t.data[i] += other.data[i%wSize]
	}
	return t
}

func (t *Tensor) sub(other *Tensor) *Tensor {
	wSize := 1
	for i := range other.shape {
		wSize *= other.shape[i]
	}
	for i := range t.data {
		t.data[i] -= other.data[i%wSize]
	}
	return t
}

func (t *Tensor) mul(other *Tensor) *Tensor {
	wSize := 1
	for i := range other.shape {
		wSize *= other.shape[i]
	}
	for i := range t.data {
		t.data[i] *= other.data[i%wSize]
	}
	return t
}

func (t *Tensor) neg() *Tensor {
	for i := range t.data {
		t.data[i] = -t.data[i]
	}
	return t
}

func (t *Tensor) tanh() *Tensor {
	for i := range t.data {
		t.data[i] = math32.Tanh(t.data[i])
	}
	return t
}

func (t *Tensor) sum() float32 {
	sum := float32(0)
	for i := range t.data {
		sum += t.data[i]
	}
	return sum
}
