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

package finrecon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"github.com/raynanbulhoes22/finrecon/config"
	redis_db "github.com/raynanbulhoes22/finrecon/internal/redis-db"
)

// Queue dispatches background evaluation tasks to the worker pool.
type Queue struct {
	Client    *asynq.Client
	Inspector *asynq.Inspector
}

// EvaluationPayload is the task body for a queued period evaluation.
// Queued evaluations always run in auto-reconcile mode.
type EvaluationPayload struct {
	UserID string `json:"user_id"`
	Month  int    `json:"month"`
	Year   int    `json:"year"`
}

// NewQueue initializes the queue client against the configured Redis.
func NewQueue(conf *config.Configuration) *Queue {
	redisOption, err := redis_db.ParseRedisURL(conf.Redis.Dns, conf.Redis.SkipTLSVerify)
	if err != nil {
		log.Fatalf("Error parsing Redis URL: %v", err)
	}

	queueOptions := asynq.RedisClientOpt{Addr: redisOption.Addr, Password: redisOption.Password, DB: redisOption.DB, TLSConfig: redisOption.TLSConfig}
	return &Queue{
		Client:    asynq.NewClient(queueOptions),
		Inspector: asynq.NewInspector(queueOptions),
	}
}

// EnqueueEvaluation schedules a background auto-reconcile evaluation for
// one user's period. The task ID is derived from (user, period) so a
// period already queued is not queued twice.
func (f *Finrecon) EnqueueEvaluation(ctx context.Context, userID string, month, year int) error {
	if f.queue == nil {
		return fmt.Errorf("queue not configured")
	}
	cfg, err := config.Fetch()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(EvaluationPayload{UserID: userID, Month: month, Year: year})
	if err != nil {
		return err
	}

	taskID := fmt.Sprintf("eval:%s:%04d-%02d", userID, year, month)
	task := asynq.NewTask(cfg.Queue.EvaluationQueue, payload,
		asynq.TaskID(taskID),
		asynq.Queue(cfg.Queue.EvaluationQueue),
	)
	info, err := f.queue.Client.EnqueueContext(ctx, task)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
			log.Printf(" [*] Evaluation already queued: %s", taskID)
			return nil
		}
		return err
	}
	log.Printf(" [*] Successfully enqueued evaluation: %s (%s)", taskID, info.Queue)
	return nil
}
