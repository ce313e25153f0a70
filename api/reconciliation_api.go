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
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/raynanbulhoes22/finrecon"
	model2 "github.com/raynanbulhoes22/finrecon/api/model"
	"github.com/raynanbulhoes22/finrecon/config"
	"github.com/raynanbulhoes22/finrecon/internal/apierror"
	"github.com/raynanbulhoes22/finrecon/model"
)

func respondWithError(c *gin.Context, err error) {
	logrus.Error(err)
	var apiErr apierror.APIError
	if errors.As(err, &apiErr) {
		c.JSON(apierror.MapErrorToHTTPStatus(apiErr), gin.H{"error": apiErr.Message, "code": apiErr.Code})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

// EvaluatePeriod evaluates one user's accounting period: projects the
// expected events, synchronizes reconciliation records, and returns
// ranked match suggestions plus completion stats.
func (a Api) EvaluatePeriod(c *gin.Context) {
	var req model2.EvaluatePeriod
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.ValidateEvaluatePeriod(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := a.engine.EvaluatePeriod(c.Request.Context(), req.UserID, req.Month, req.Year,
		finrecon.EvaluationOptions{AutoReconcile: req.AutoReconcile})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// QueueEvaluation schedules a background auto-reconcile evaluation.
func (a Api) QueueEvaluation(c *gin.Context) {
	var req model2.EvaluatePeriod
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.ValidateEvaluatePeriod(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := a.engine.EnqueueEvaluation(c.Request.Context(), req.UserID, req.Month, req.Year); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "evaluation queued"})
}

// ConfirmMatch manually links a transaction to an expected event.
func (a Api) ConfirmMatch(c *gin.Context) {
	var req model2.ConfirmMatch
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.ValidateConfirmMatch(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := a.engine.ConfirmMatch(c.Request.Context(), req.UserID,
		model.EventKind(req.EventKind), req.EventID, req.TransactionID, req.Month, req.Year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

// ClearMatch reverts a reconciled record to pending.
func (a Api) ClearMatch(c *gin.Context) {
	var req model2.ClearMatch
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.ValidateClearMatch(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := a.engine.ClearMatch(c.Request.Context(), req.UserID, req.RecordID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

// GetMatchingConfig exposes the active scoring and projection knobs so the
// UI can render thresholds consistently with the backend.
func (a Api) GetMatchingConfig(c *gin.Context) {
	conf, err := config.Fetch()
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, conf.Matching)
}
