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
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/juju/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/go-recsys/implicit/base"
	"github.com/go-recsys/implicit/base/log"
	"github.com/go-recsys/implicit/common/datautil"
	"github.com/go-recsys/implicit/dataset"
	"github.com/go-recsys/implicit/model"
	"github.com/go-recsys/implicit/model/mf"
)

var trainCommand = &cobra.Command{
	Use:   "implicit DATA_FILE",
	Short: "Train an implicit-feedback factorization model and report its MRR",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		debug, _ := cmd.PersistentFlags().GetBool("debug")
		log.SetLogger(cmd.PersistentFlags(), debug)
		defer log.CloseLogger()

		testFraction, _ := cmd.PersistentFlags().GetFloat32("test-fraction")
		nFactors, _ := cmd.PersistentFlags().GetInt("factors")
		batchSize, _ := cmd.PersistentFlags().GetInt("batch-size")
		lr, _ := cmd.PersistentFlags().GetFloat32("lr")
		epochs, _ := cmd.PersistentFlags().GetInt("epochs")
		jobs, _ := cmd.PersistentFlags().GetInt("jobs")
		seed, _ := cmd.PersistentFlags().GetInt64("seed")

		interactions, err := datautil.LoadInteractions(args[0])
		if err != nil {
			return errors.Trace(err)
		}
		numUsers, numItems, err := dataset.GetDimensions(interactions)
		if err != nil {
			return errors.Trace(err)
		}
		trainSet, testSet := dataset.Split(interactions, base.NewRandomGenerator(seed), testFraction)
		if len(trainSet) == 0 {
			return errors.Annotatef(model.ErrEmptyInput, "no interactions left for training")
		}

		m, err := mf.NewImplicitFactorization(model.Params{
			model.NFactors:    nFactors,
			model.BatchSize:   batchSize,
			model.Lr:          lr,
			model.RandomState: seed,
		})
		if err != nil {
			return errors.Trace(err)
		}
		loss, err := m.Fit(trainSet, epochs, mf.NewFitConfig().SetJobs(jobs))
		if err != nil {
			return errors.Trace(err)
		}

		trainMatrix, err := dataset.FromInteractions(numUsers, numItems, trainSet)
		if err != nil {
			return errors.Trace(err)
		}
		testMatrix, err := dataset.FromInteractions(numUsers, numItems, testSet)
		if err != nil {
			return errors.Trace(err)
		}
		mrr, err := mf.MRRScore(m, testMatrix, trainMatrix, jobs)
		if err != nil {
			return errors.Trace(err)
		}
		log.Logger().Info("evaluation complete",
			zap.Float32("loss", loss),
			zap.Float32("mrr", mrr))
		fmt.Printf("loss = %v, MRR = %v\n", loss, mrr)
		return nil
	},
}

func init() {
	trainCommand.PersistentFlags().Float32("test-fraction", 0.2, "Fraction of interactions held out for evaluation.")
	trainCommand.PersistentFlags().Int("factors", 16, "Number of latent factors.")
	trainCommand.PersistentFlags().Int("batch-size", 10, "Size of a minibatch.")
	trainCommand.PersistentFlags().Float32("lr", 0.01, "Learning rate.")
	trainCommand.PersistentFlags().Int("epochs", 10, "Number of training epochs.")
	trainCommand.PersistentFlags().IntP("jobs", "j", runtime.NumCPU(), "Number of working jobs.")
	trainCommand.PersistentFlags().Int64("seed", 0, "Random seed.")
	trainCommand.PersistentFlags().Bool("debug", false, "Debug log mode.")
	log.AddFlags(trainCommand.PersistentFlags())
}

func main() {
	if err := trainCommand.Execute(); err != nil {
		log.Logger().Error("failed to execute", zap.Error(err))
		os.Exit(1)
	}
}
