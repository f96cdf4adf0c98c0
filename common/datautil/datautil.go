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

// Package datautil reads interaction datasets from disk.
package datautil

import (
	"encoding/csv"
	"io"
	"os"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/go-recsys/implicit/base/log"
	"github.com/go-recsys/implicit/common/util"
	"github.com/go-recsys/implicit/dataset"
)

// LoadInteractions reads a CSV file of (user id, item id) pairs. A header row
// is skipped if its first field is not an integer. Duplicate pairs are dropped
// so the result is a set of interactions, not an event log.
func LoadInteractions(path string) ([]dataset.Interaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, errors.Trace(err)
	}
	bar := progressbar.DefaultBytes(info.Size(), "Load interactions")
	reader := csv.NewReader(io.TeeReader(f, bar))
	reader.FieldsPerRecord = -1

	seen := mapset.NewThreadUnsafeSet[lo.Tuple2[int32, int32]]()
	interactions := make([]dataset.Interaction, 0)
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.Trace(err)
		}
		line++
		if len(record) < 2 {
			return nil, errors.Errorf("%s:%d: expected at least 2 fields, got %d", path, line, len(record))
		}
		userId, err := util.ParseInt[int32](record[0])
		if err != nil {
			if line == 1 {
				// header row
				continue
			}
			return nil, errors.Annotatef(err, "%s:%d", path, line)
		}
		itemId, err := util.ParseInt[int32](record[1])
		if err != nil {
			return nil, errors.Annotatef(err, "%s:%d", path, line)
		}
		if seen.Add(lo.T2(userId, itemId)) {
			interactions = append(interactions, dataset.NewUnweightedInteraction(userId, itemId))
		}
	}
	log.Logger().Info("load interactions",
		zap.String("path", path),
		zap.Int("n_lines", line),
		zap.Int("n_interactions", len(interactions)))
	return interactions, nil
}
