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
	"github.com/go-recsys/implicit/common/floats"
)

type op interface {
	String() string
	forward(inputs ...*Tensor) *Tensor
	backward(dy *Tensor) []*Tensor
	inputsAndOutput() ([]*Tensor, *Tensor)
	setInputs(inputs ...*Tensor)
	setOutput(y *Tensor)
}

type opBase struct {
	inputs []*Tensor
	output *Tensor
}

func (b *opBase) inputsAndOutput() ([]*Tensor, *Tensor) {
	return b.inputs, b.output
}

func (b *opBase) setInputs(inputs ...*Tensor) {
	b.inputs = inputs
}

func (b *opBase) setOutput(y *Tensor) {
	b.output = y
}

func apply[T op](f T, inputs ...*Tensor) *Tensor {
	y := f.forward(inputs...)
	f.setInputs(inputs...)
	f.setOutput(y)
	y.op = f
	return y
}

type add struct {
	opBase
}

func (a *add) String() string {
	return "Add"
}

func (a *add) forward(inputs ...*Tensor) *Tensor {
	y := inputs[0].clone()
	y.add(inputs[1])
	return y
}

func (a *add) backward(dy *Tensor) []*Tensor {
	gx0 := dy.clone()
	gx1 := Zeros(a.inputs[1].shape...)
	wSize := 1
	for i := range gx1.shape {
		wSize *= gx1.shape[i]
	}
	for i := range dy.data {
		gx1.data[i%wSize] += dy.data[i]
	}
	return []*Tensor{gx0, gx1}
}

type sub struct {
	opBase
}

func (s *sub) String() string {
	return "Sub"
}

func (s *sub) forward(inputs ...*Tensor) *Tensor {
	y := inputs[0].clone()
	y.sub(inputs[1])
	return y
}

func (s *sub) backward(dy *Tensor) []*Tensor {
	gx0 := dy.clone()
	gx1 := Zeros(s.inputs[1].shape...)
	wSize := 1
	for i := range gx1.shape {
		wSize *= gx1.shape[i]
	}
	for i := range dy.data {
		gx1.data[i%wSize] -= dy.data[i]
	}
	return []*Tensor{gx0, gx1}
}

type neg struct {
	opBase
}

func (n *neg) String() string {
	return "Neg"
}

func (n *neg) forward(inputs ...*Tensor) *Tensor {
	y := inputs[0].clone()
	y.neg()
	return y
}

func (n *neg) backward(dy *Tensor) []*Tensor {
	dx := dy.clone()
	dx.neg()
	return []*Tensor{dx}
}

type sigmoid struct {
	opBase
}

func (s *sigmoid) String() string {
	return "Sigmoid"
}

func (s *sigmoid) forward(inputs ...*Tensor) *Tensor {
	// y = tanh(x * 0.5) * 0.5 + 0.5
	y := inputs[0].clone()
	y.mul(NewScalar(0.5))
	y.tanh()
	y.mul(NewScalar(0.5))
	y.add(NewScalar(0.5))
	return y
}

func (s *sigmoid) backward(dy *Tensor) []*Tensor {
	// dx = dy * y * (1 - y)
	dx := dy.clone()
	dx.mul(s.output)
	one := Ones(s.output.shape...)
	one.sub(s.output)
	dx.mul(one)
	return []*Tensor{dx}
}

type batchDot struct {
	opBase
}

func (b *batchDot) String() string {
	return "BatchDot"
}

func (b *batchDot) forward(inputs ...*Tensor) *Tensor {
	x0, x1 := inputs[0], inputs[1]
	batch, dim := x0.shape[0], x0.shape[1]
	y := Zeros(batch, 1)
	for i := 0; i < batch; i++ {
		y.data[i] = floats.Dot(x0.data[i*dim:(i+1)*dim], x1.data[i*dim:(i+1)*dim])
	}
	return y
}

func (b *batchDot) backward(dy *Tensor) []*Tensor {
	x0, x1 := b.inputs[0], b.inputs[1]
	batch, dim := x0.shape[0], x0.shape[1]
	gx0 := Zeros(x0.shape...)
	gx1 := Zeros(x1.shape...)
	for i := 0; i < batch; i++ {
		floats.MulConstTo(x1.data[i*dim:(i+1)*dim], dy.data[i], gx0.data[i*dim:(i+1)*dim])
		floats.MulConstTo(x0.data[i*dim:(i+1)*dim], dy.data[i], gx1.data[i*dim:(i+1)*dim])
	}
	return []*Tensor{gx0, gx1}
}

type embedding struct {
	opBase
}

func (e *embedding) String() string {
	return "Embedding"
}

func (e *embedding) forward(inputs ...*Tensor) *Tensor {
	w, x := inputs[0], inputs[1]
	dim := w.shape[1]
	y := Zeros(x.shape[0], dim)
	for i := range x.data {
		idx := int(x.data[i])
		copy(y.data[i*dim:(i+1)*dim], w.data[idx*dim:(idx+1)*dim])
	}
	return y
}

func (e *embedding) backward(dy *Tensor) []*Tensor {
	w, x := e.inputs[0], e.inputs[1]
	dim := w.shape[1]
	gw := Zeros(w.shape...)
	for i := range x.data {
		idx := int(x.data[i])
		floats.Add(gw.data[idx*dim:(idx+1)*dim], dy.data[i*dim:(i+1)*dim])
	}
	// indices carry no gradient
	return []*Tensor{gw, nil}
}

type sum struct {
	opBase
}

func (s *sum) String() string {
	return "Sum"
}

func (s *sum) forward(inputs ...*Tensor) *Tensor {
	return NewScalar(inputs[0].sum())
}

func (s *sum) backward(dy *Tensor) []*Tensor {
	gx := Ones(s.inputs[0].shape...)
	gx.mul(dy)
	return []*Tensor{gx}
}

// Add returns the element-wise sum of two tensors. The shape of the second
// tensor must be a suffix sequence of the shape of the first tensor.
func Add(x0, x1 *Tensor) *Tensor {
	if len(x0.shape) < len(x1.shape) {
		x0, x1 = x1, x0
	}
	for i := 0; i < len(x1.shape); i++ {
		if x0.shape[len(x0.shape)-len(x1.shape)+i] != x1.shape[i] {
			panic("the shape of the second tensor must be a suffix sequence of the shape of the first tensor")
		}
	}
	return apply(&add{}, x0, x1)
}

// Sub returns the element-wise difference of two tensors. The shape of the
// second tensor must be a suffix sequence of the shape of the first tensor.
func Sub(x0, x1 *Tensor) *Tensor {
	if len(x0.shape) < len(x1.shape) {
		panic("the shape of the second tensor must be a suffix sequence of the shape of the first tensor")
	}
	for i := 0; i < len(x1.shape); i++ {
		if x0.shape[len(x0.shape)-len(x1.shape)+i] != x1.shape[i] {
			panic("the shape of the second tensor must be a suffix sequence of the shape of the first tensor")
		}
	}
	return apply(&sub{}, x0, x1)
}

// Neg returns the element-wise negation of a tensor.
func Neg(x *Tensor) *Tensor {
	return apply(&neg{}, x)
}

// Sigmoid returns the element-wise logistic function of a tensor.
func Sigmoid(x *Tensor) *Tensor {
	return apply(&sigmoid{}, x)
}

// BatchDot returns the row-wise dot product of two (batch, dim) tensors as a
// (batch, 1) tensor.
func BatchDot(x0, x1 *Tensor) *Tensor {
	if len(x0.shape) != 2 || len(x1.shape) != 2 ||
		x0.shape[0] != x1.shape[0] || x0.shape[1] != x1.shape[1] {
		panic("BatchDot requires two tensors of the same (batch, dim) shape")
	}
	return apply(&batchDot{}, x0, x1)
}

// Embedding gathers rows of the table w addressed by the index tensor x. The
// gradient of the table is a table-shaped tensor accumulating the output
// gradient rows at the gathered positions; indices receive no gradient.
func Embedding(w, x *Tensor) *Tensor {
	if len(w.shape) != 2 || len(x.shape) != 1 {
		panic("Embedding requires a (rows, dim) table and a (batch) index tensor")
	}
	return apply(&embedding{}, w, x)
}

// Sum returns the sum of all elements in a tensor.
func Sum(x *Tensor) *Tensor {
	return apply(&sum{}, x)
}
