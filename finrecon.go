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
	"embed"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/raynanbulhoes22/finrecon/cache"
	"github.com/raynanbulhoes22/finrecon/config"
	"github.com/raynanbulhoes22/finrecon/database"
	redis_db "github.com/raynanbulhoes22/finrecon/internal/redis-db"
)

// Finrecon is the reconciliation engine service. It orchestrates period
// evaluation, match scoring, and the reconciliation state machine over the
// injected datasource.
type Finrecon struct {
	datasource database.IDataSource
	cache      cache.Cache
	redis      redis.UniversalClient
	queue      *Queue
}

//go:embed sql/*.sql
var SQLFiles embed.FS

// NewFinrecon initializes a new engine instance with the provided
// datasource. It fetches the configuration and wires the Redis client, the
// evaluation cache, and the background queue.
func NewFinrecon(db database.IDataSource) (*Finrecon, error) {
	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}
	redisClient, err := redis_db.NewRedisClient([]string{fmt.Sprintf("redis://%s", configuration.Redis.Dns)}, configuration.Redis.SkipTLSVerify)
	if err != nil {
		return nil, err
	}
	evalCache, err := cache.NewCache()
	if err != nil {
		return nil, err
	}
	newQueue := NewQueue(configuration)

	return &Finrecon{
		datasource: db,
		cache:      evalCache,
		redis:      redisClient.Client(),
		queue:      newQueue,
	}, nil
}
