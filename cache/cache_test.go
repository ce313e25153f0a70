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
package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"

	"github.com/raynanbulhoes22/finrecon/config"
)

func newTestCache(t *testing.T) Cache {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("an error '%s' occurred when starting miniredis", err)
	}
	t.Cleanup(mr.Close)

	config.MockConfig(&config.Configuration{
		Redis: config.RedisConfig{
			Dns: mr.Addr(),
		},
	})

	c, err := NewCache()
	assert.NoError(t, err)
	return c
}

func TestSet(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	key := "testKey"
	value := "testValue"

	err := c.Set(ctx, key, value, 10*time.Minute)
	assert.NoError(t, err)

	// Zero TTL stores without expiry
	err = c.Set(ctx, key, value, 0)
	assert.NoError(t, err)
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	key := EvaluationKey("user1", 3, 2024)
	setValue := map[string]string{"hello": "world"}
	err := c.Set(ctx, key, setValue, 10*time.Minute)
	assert.NoError(t, err)

	var getValue map[string]string
	err = c.Get(ctx, key, &getValue)
	assert.NoError(t, err)
	assert.Equal(t, setValue, getValue)

	// A miss is not an error, the target just stays empty
	var getValue1 map[string]string
	err = c.Get(ctx, "nonExistentKey", &getValue1)
	assert.NoError(t, err)
	assert.Empty(t, getValue1)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	key := "testKey"
	value := "testValue"
	err := c.Set(ctx, key, value, 10*time.Minute)
	assert.NoError(t, err)

	err = c.Delete(ctx, key)
	assert.NoError(t, err)

	var getValue string
	err = c.Get(ctx, key, &getValue)
	assert.NoError(t, err)
	assert.Empty(t, getValue)

	// Deleting a non-existent key is a no-op
	err = c.Delete(ctx, "nonExistentKey")
	assert.NoError(t, err)
}

func TestEvaluationKeyFormat(t *testing.T) {
	assert.Equal(t, "recon:eval:user1:2024-03", EvaluationKey("user1", 3, 2024))
	assert.Equal(t, "recon:eval:u:2025-12", EvaluationKey("u", 12, 2025))
}
