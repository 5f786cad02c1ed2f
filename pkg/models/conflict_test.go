package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverityFromScore(t *testing.T) {
	assert.Equal(t, SeverityCritical, SeverityFromScore(0.9))
	assert.Equal(t, SeverityCritical, SeverityFromScore(0.8))
	assert.Equal(t, SeverityHigh, SeverityFromScore(0.7))
	assert.Equal(t, SeverityHigh, SeverityFromScore(0.6))
	assert.Equal(t, SeverityMedium, SeverityFromScore(0.4))
	assert.Equal(t, SeverityMedium, SeverityFromScore(0.3))
	assert.Equal(t, SeverityLow, SeverityFromScore(0.1))
	assert.Equal(t, SeverityLow, SeverityFromScore(0))
}

func TestNewConflictRecordCanonicalizesOrder(t *testing.T) {
	rec := NewConflictRecord("z-burn", "a-burn", ConflictSpatial, 0.5, 100, 2, 10)
	assert.Equal(t, "a-burn", rec.A)
	assert.Equal(t, "z-burn", rec.B)
	assert.Equal(t, SeverityMedium, rec.Severity)
}

func TestNewConflictRecordPreservesOrderWhenAlreadyCanonical(t *testing.T) {
	rec := NewConflictRecord("a-burn", "z-burn", ConflictTemporal, 0.9, 50, 1, 40)
	assert.Equal(t, "a-burn", rec.A)
	assert.Equal(t, "z-burn", rec.B)
	assert.Equal(t, SeverityCritical, rec.Severity)
}
