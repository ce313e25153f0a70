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
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/raynanbulhoes22/finrecon"
	"github.com/raynanbulhoes22/finrecon/api/middleware"
	"github.com/raynanbulhoes22/finrecon/config"
)

type Api struct {
	engine *finrecon.Finrecon
	router *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router
	router.POST("/reconciliation/evaluate", a.EvaluatePeriod)
	router.POST("/reconciliation/queue", a.QueueEvaluation)
	router.POST("/reconciliation/confirm", a.ConfirmMatch)
	router.POST("/reconciliation/clear", a.ClearMatch)
	router.GET("/reconciliation/config", a.GetMatchingConfig)
	return a.router
}

func NewAPI(engine *finrecon.Finrecon) *Api {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil
	}
	r := gin.Default()
	if conf.Server.Secure {
		r.Use(middleware.SecretKeyAuthMiddleware())
	}
	r.Use(middleware.RateLimitMiddleware(conf))

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, "server running...")
	})

	return &Api{engine: engine, router: r}
}
