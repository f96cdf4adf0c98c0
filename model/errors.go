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

package model

import "github.com/juju/errors"

var (
	// ErrNotFitted is returned when a model is queried before any training.
	ErrNotFitted = errors.New("model has not been fitted")
	// ErrInvalidIndex is returned when a user or item id falls outside the
	// dimensions the model was built with.
	ErrInvalidIndex = errors.New("user or item index out of range")
	// ErrEmptyInput is returned when an operation receives no interactions.
	ErrEmptyInput = errors.New("empty interaction set")
	// ErrInvalidConfiguration is returned when hyperparameters or fit
	// arguments are out of their valid range.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)
