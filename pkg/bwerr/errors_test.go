package bwerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfRecognizesEveryTaxonomyMember(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{&ValidationError{Fields: map[string]string{"f": "bad"}}, KindValidation},
		{&AuthError{Provider: "weather"}, KindAuth},
		{&RateLimitedError{}, KindRateLimited},
		{&UnavailableError{Provider: "sms"}, KindUnavailable},
		{&BackpressureError{Reason: "full"}, KindBackpressure},
		{&CapacityError{Date: "2026-08-01", Limit: 10, Got: 20}, KindCapacity},
		{&NumericError{Stage: "predict"}, KindNumeric},
		{&CancelledError{Stage: "optimize"}, KindCancelled},
		{&ShapeError{Table: "t", Field: "v", Expected: 3, Got: 2}, KindShape},
	}
	for _, tt := range tests {
		kind, ok := KindOf(tt.err)
		assert.True(t, ok)
		assert.Equal(t, tt.want, kind)
	}
}

func TestKindOfUnclassifiedError(t *testing.T) {
	_, ok := KindOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestKindOfUnwrapsWrappedError(t *testing.T) {
	base := &UnavailableError{Provider: "weather"}
	wrapped := errors.Join(errors.New("context"), base)
	kind, ok := KindOf(wrapped)
	assert.True(t, ok)
	assert.Equal(t, KindUnavailable, kind)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&UnavailableError{Provider: "weather"}))
	assert.True(t, IsRetryable(&RateLimitedError{}))
	assert.False(t, IsRetryable(&ValidationError{Fields: map[string]string{"f": "bad"}}))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestNewValidation(t *testing.T) {
	err := NewValidation("acres", "must be positive")
	assert.Equal(t, "must be positive", err.Fields["acres"])
	assert.Equal(t, KindValidation, err.Kind())
}
