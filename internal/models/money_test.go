package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAmountToMinorUnits(t *testing.T) {
	assert.Equal(t, int64(10050), AmountToMinorUnits(100.50))
	assert.Equal(t, int64(1), AmountToMinorUnits(0.01))
	assert.Equal(t, int64(0), AmountToMinorUnits(0))

	// классическая ловушка float64: 0.1+0.2
	assert.Equal(t, int64(30), AmountToMinorUnits(0.1+0.2))
}

func TestAmountFromMinorUnits(t *testing.T) {
	assert.Equal(t, 100.50, AmountFromMinorUnits(10050))
	assert.Equal(t, 0.01, AmountFromMinorUnits(1))
}

func TestFormatMinorUnits(t *testing.T) {
	assert.Equal(t, "100.50", FormatMinorUnits(10050))
	assert.Equal(t, "0.01", FormatMinorUnits(1))
	assert.Equal(t, "0.00", FormatMinorUnits(0))
}
