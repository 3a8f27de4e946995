package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/amirasaad/ledger/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMapGormErrorToDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    error
		expected error
	}{
		{
			name:     "nil error returns nil",
			input:    nil,
			expected: nil,
		},
		{
			name:     "duplicate key error maps to ErrAlreadyExists",
			input:    gorm.ErrDuplicatedKey,
			expected: domain.ErrAlreadyExists,
		},
		{
			name:     "record not found error maps to ErrNotFound",
			input:    gorm.ErrRecordNotFound,
			expected: domain.ErrNotFound,
		},
		{
			name:     "wrapped duplicate key error maps correctly",
			input:    errors.Join(errors.New("outer error"), gorm.ErrDuplicatedKey),
			expected: domain.ErrAlreadyExists,
		},
		{
			name:     "wrapped record not found error maps correctly",
			input:    errors.Join(errors.New("outer error"), gorm.ErrRecordNotFound),
			expected: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result := MapGormErrorToDomain(tt.input)
			if tt.expected == nil {
				require.NoError(t, result)
				return
			}
			assert.ErrorIs(t, result, tt.expected)
		})
	}

	t.Run("non-GORM error returns original", func(t *testing.T) {
		t.Parallel()
		err := errors.New("some other error")
		assert.Same(t, err, MapGormErrorToDomain(err))
	})
}

func TestWrapError(t *testing.T) {
	t.Parallel()

	driverErr := errors.New("connection refused")

	tests := []struct {
		name     string
		op       func() error
		expected []error
	}{
		{
			name: "nil error",
			op:   func() error { return nil },
		},
		{
			name:     "duplicate key",
			op:       func() error { return gorm.ErrDuplicatedKey },
			expected: []error{domain.ErrAlreadyExists},
		},
		{
			name:     "record not found",
			op:       func() error { return gorm.ErrRecordNotFound },
			expected: []error{domain.ErrNotFound},
		},
		{
			name:     "driver failure becomes storage failure",
			op:       func() error { return driverErr },
			expected: []error{domain.ErrStorageFailure, driverErr},
		},
		{
			name:     "context cancellation passes through",
			op:       func() error { return context.Canceled },
			expected: []error{context.Canceled},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result := WrapError(tt.op)
			if len(tt.expected) == 0 {
				require.NoError(t, result)
				return
			}
			for _, want := range tt.expected {
				assert.ErrorIs(t, result, want)
			}
		})
	}

	t.Run("context cancellation is not a storage failure", func(t *testing.T) {
		t.Parallel()
		err := WrapError(func() error { return context.DeadlineExceeded })
		assert.NotErrorIs(t, err, domain.ErrStorageFailure)
	})
}
