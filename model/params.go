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

// Package model defines hyperparameters and the shared error taxonomy for
// recommendation models.
package model

import (
	"go.uber.org/zap"

	"github.com/go-recsys/implicit/base/log"
)

// ParamName is the name of a model hyperparameter.
type ParamName string

const (
	NFactors    ParamName = "NFactors"    // the number of latent factors
	BatchSize   ParamName = "BatchSize"   // the size of a minibatch
	Lr          ParamName = "Lr"          // the learning rate
	RandomState ParamName = "RandomState" // the random seed
)

// Params stores hyperparameters by name. Getters fall back to the supplied
// default when a parameter is absent or carries an unexpected type.
type Params map[ParamName]interface{}

// Copy returns a shallow copy of hyperparameters.
func (parameters Params) Copy() Params {
	newParams := make(Params, len(parameters))
	for k, v := range parameters {
		newParams[k] = v
	}
	return newParams
}

// GetInt gets an integer parameter by name. Returns _default if not exists or type doesn't match.
func (parameters Params) GetInt(name ParamName, _default int) int {
	if val, exist := parameters[name]; exist {
		switch x := val.(type) {
		case int:
			return x
		default:
			log.Logger().Warn("type mismatch in hyperparameters",
				zap.String("param_name", string(name)))
		}
	}
	return _default
}

// GetInt64 gets a int64 parameter by name. Returns _default if not exists or type doesn't match.
// The type will be converted if given int.
func (parameters Params) GetInt64(name ParamName, _default int64) int64 {
	if val, exist := parameters[name]; exist {
		switch x := val.(type) {
		case int64:
			return x
		case int:
			return int64(x)
		default:
			log.Logger().Warn("type mismatch in hyperparameters",
				zap.String("param_name", string(name)))
		}
	}
	return _default
}

// GetFloat32 gets a float parameter by name. Returns _default if not exists or type doesn't match.
// The type will be converted if given int or float64.
func (parameters Params) GetFloat32(name ParamName, _default float32) float32 {
	if val, exist := parameters[name]; exist {
		switch x := val.(type) {
		case float32:
			return x
		case float64:
			return float32(x)
		case int:
			return float32(x)
		default:
			log.Logger().Warn("type mismatch in hyperparameters",
				zap.String("param_name", string(name)))
		}
	}
	return _default
}
