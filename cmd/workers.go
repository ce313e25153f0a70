/*
Copyright 2025 Finrecon Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/raynanbulhoes22/finrecon"
	"github.com/raynanbulhoes22/finrecon/config"
	redis_db "github.com/raynanbulhoes22/finrecon/internal/redis-db"
)

// processEvaluation runs a queued period evaluation in auto-reconcile
// mode. Failures are returned so asynq retries the task.
func (b *finreconInstance) processEvaluation(ctx context.Context, t *asynq.Task) error {
	ctx, span := otel.Tracer("finrecon.evaluation.worker").Start(ctx, "Process Evaluation From Redis Queue")
	defer span.End()

	var payload finrecon.EvaluationPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		logrus.Error(err)
		return err
	}

	result, err := b.engine.EvaluatePeriod(ctx, payload.UserID, payload.Month, payload.Year,
		finrecon.EvaluationOptions{AutoReconcile: true})
	if err != nil {
		logrus.Infof("Evaluation %s %04d-%02d pushed back for retry due to error: %v",
			payload.UserID, payload.Year, payload.Month, err)
		return err
	}

	log.Printf(" [*] Evaluation Processed %s %04d-%02d (%d reconciled of %d)",
		payload.UserID, payload.Year, payload.Month, result.Stats.Reconciled, result.Stats.Total)
	return nil
}

func initializeWorkerServer(conf *config.Configuration) (*asynq.Server, error) {
	redisOption, err := redis_db.ParseRedisURL(conf.Redis.Dns, conf.Redis.SkipTLSVerify)
	if err != nil {
		return nil, fmt.Errorf("error parsing Redis URL: %v", err)
	}

	return asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:      redisOption.Addr,
			Password:  redisOption.Password,
			DB:        redisOption.DB,
			TLSConfig: redisOption.TLSConfig,
		},
		asynq.Config{
			Concurrency: conf.Queue.WorkerCount,
			Queues:      map[string]int{conf.Queue.EvaluationQueue: 1},
		},
	), nil
}

// workerCommands defines the "workers" command that consumes the
// evaluation queue.
func workerCommands(b *finreconInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workers",
		Short: "start finrecon workers",
		Run: func(cmd *cobra.Command, args []string) {
			conf, err := config.Fetch()
			if err != nil {
				log.Fatal("Error fetching config:", err)
			}

			srv, err := initializeWorkerServer(conf)
			if err != nil {
				log.Fatal(err)
			}

			mux := asynq.NewServeMux()
			mux.HandleFunc(conf.Queue.EvaluationQueue, b.processEvaluation)

			if err := srv.Run(mux); err != nil {
				log.Fatalf("could not run worker server: %v", err)
			}
		},
	}

	return cmd
}
