//go:build integration_test || all_tests

package test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/2beens/liftlog/internal/middleware"
	"github.com/2beens/liftlog/internal/progression"
	"github.com/2beens/liftlog/internal/workouts"
)

func (s *IntegrationTestSuite) TestWorkoutsFlow() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	token := s.doLogin(ctx)

	resp, body := s.doJSON(ctx, http.MethodPost, "/api/exercises", map[string]string{"name": "  Bench Press  "}, tokenHeader(token))
	s.Require().Equal(http.StatusCreated, resp.StatusCode, string(body))
	var exercise workouts.Exercise
	s.Require().NoError(json.Unmarshal(body, &exercise))
	s.Equal("Bench Press", exercise.Name)

	for _, date := range []string{"2024-05-01", "2024-05-03", "2024-05-06"} {
		resp, body = s.doJSON(ctx, http.MethodPost, "/api/logs", workouts.LogRequest{
			ExerciseID: exercise.ID,
			Date:       date,
			Sets:       3,
			Reps:       8,
			Weight:     60,
		}, tokenHeader(token))
		s.Require().Equal(http.StatusCreated, resp.StatusCode, string(body))
	}

	s.Run("recommendation", func() {
		resp, body := s.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/exercises/%d/recommendation", exercise.ID), nil, nil)
		s.Require().Equal(http.StatusOK, resp.StatusCode)
		var rec progression.Recommendation
		s.Require().NoError(json.Unmarshal(body, &rec))
		s.Equal(progression.OutcomeIncrease, rec.Outcome)
		s.Require().NotNil(rec.SuggestedWeight)
		s.InDelta(61.5, *rec.SuggestedWeight, 1e-9)
	})

	s.Run("recommendation_tuned", func() {
		path := fmt.Sprintf("/api/exercises/%d/recommendation?base_increase=5&max_increase=2", exercise.ID)
		resp, body := s.doJSON(ctx, http.MethodGet, path, nil, nil)
		s.Require().Equal(http.StatusOK, resp.StatusCode)
		var rec progression.Recommendation
		s.Require().NoError(json.Unmarshal(body, &rec))
		s.Require().NotNil(rec.SuggestedWeight)
		s.InDelta(62.0, *rec.SuggestedWeight, 1e-9)
	})

	s.Run("prefill_from_last_log", func() {
		resp, body := s.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/exercises/%d/logs/last", exercise.ID), nil, nil)
		s.Require().Equal(http.StatusOK, resp.StatusCode)
		var prefill workouts.Prefill
		s.Require().NoError(json.Unmarshal(body, &prefill))
		s.True(prefill.FromHistory)
		s.Equal(60.0, prefill.Weight)
	})

	s.Run("invalid_log", func() {
		resp, _ := s.doJSON(ctx, http.MethodPost, "/api/logs", workouts.LogRequest{
			ExerciseID: exercise.ID,
			Date:       "2024-05-07",
			Sets:       11,
			Reps:       8,
			Weight:     60,
		}, tokenHeader(token))
		s.Equal(http.StatusBadRequest, resp.StatusCode)
	})

	s.Run("unknown_exercise", func() {
		resp, _ := s.doJSON(ctx, http.MethodPost, "/api/logs", workouts.LogRequest{
			ExerciseID: 999999,
			Date:       "2024-05-07",
			Sets:       3,
			Reps:       8,
			Weight:     60,
		}, map[string]string{middleware.ApiSecretHeader: testApiSecret})
		s.Equal(http.StatusNotFound, resp.StatusCode)
	})

	s.Run("exercise_in_use", func() {
		resp, _ := s.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/exercises/%d", exercise.ID), nil, tokenHeader(token))
		s.Equal(http.StatusConflict, resp.StatusCode)
	})

	s.Run("write_without_auth", func() {
		resp, _ := s.doJSON(ctx, http.MethodPost, "/api/exercises", map[string]string{"name": "Sneaky"}, nil)
		s.Equal(http.StatusUnauthorized, resp.StatusCode)
	})
}
