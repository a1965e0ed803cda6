package core

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestErrorTypeHTTPStatusMapping(t *testing.T) {
	cases := map[ErrorType]int{
		ErrValidation:         http.StatusBadRequest,
		ErrAreaTooLarge:       http.StatusRequestEntityTooLarge,
		ErrQuotaExceeded:      http.StatusTooManyRequests,
		ErrTimeout:            http.StatusRequestTimeout,
		ErrNoData:             http.StatusNotFound,
		ErrBackendUnavailable: http.StatusOK,
		ErrProcessing:         http.StatusInternalServerError,
	}
	for errType, want := range cases {
		require.Equal(t, want, errType.HTTPStatus(), "error type %s", errType)
	}
}

func TestErrorStringIncludesGuidanceWhenSet(t *testing.T) {
	err := NewError(ErrTimeout, "deadline exceeded")
	require.Equal(t, "timeout: deadline exceeded", err.Error())

	err.WithGuidance("try a smaller area")
	require.Equal(t, "timeout: deadline exceeded (try a smaller area)", err.Error())
}

func TestServiceErrorClassifiesByStatusCode(t *testing.T) {
	require.Equal(t, ErrQuotaExceeded, ServiceError("geocoder", http.StatusTooManyRequests, "rate limited").Type)
	require.Equal(t, ErrTimeout, ServiceError("llm", http.StatusGatewayTimeout, "slow").Type)
	require.Equal(t, ErrValidation, ServiceError("geocoder", http.StatusBadRequest, "bad request").Type)
	require.Equal(t, ErrBackendUnavailable, ServiceError("search", http.StatusServiceUnavailable, "down").Type)
	require.Equal(t, ErrProcessing, ServiceError("llm", http.StatusInternalServerError, "oops").Type)
}

func TestValidateCoordsRejectsOutOfRange(t *testing.T) {
	require.NoError(t, ValidateCoords(28.6, 77.2))
	require.Error(t, ValidateCoords(91, 0))
	require.Error(t, ValidateCoords(0, 181))
}

func TestValidateQueryRejectsEmptyAndWhitespace(t *testing.T) {
	require.Error(t, ValidateQuery(""))
	require.Error(t, ValidateQuery("   "))
	require.NoError(t, ValidateQuery("NDVI for Mumbai"))
}

func TestValidateAreaKM2GateAtLimit(t *testing.T) {
	require.NoError(t, ValidateAreaKM2(34999, 35000))
	err := ValidateAreaKM2(50000, 35000)
	require.Error(t, err)
	ce, ok := err.(*Error)
	require.True(t, ok)
	require.Equal(t, ErrAreaTooLarge, ce.Type)
}

func TestWithRetrySucceedsWithoutRetryingOnFirstOK(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	resp, err := WithRetry(context.Background(), req, server.Client(), RetryOptions{
		MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, calls)
}

func TestWithRetryRetriesUntilSuccess(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	resp, err := WithRetry(context.Background(), req, server.Client(), RetryOptions{
		MaxAttempts: 5, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 3, calls)
}

func TestWithRetryExhaustsAttemptsAndReturnsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	_, err = WithRetry(context.Background(), req, server.Client(), RetryOptions{
		MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2,
	})
	require.Error(t, err)
}

func TestLimitersWaitIsUnrestrictedForUnknownEndpoint(t *testing.T) {
	l := NewLimiters(map[string]RateSpec{"geocoder": {RPS: 1000, Burst: 1000}})
	require.NoError(t, l.Wait(context.Background(), "unconfigured-endpoint"))
	require.NoError(t, l.Wait(context.Background(), "geocoder"))
}
