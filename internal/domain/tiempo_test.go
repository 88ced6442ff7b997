package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFechaDeMinuto(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, base, FechaDeMinuto(base, 0))
	assert.Equal(t, base.Add(90*time.Minute), FechaDeMinuto(base, 90))
}

func TestDiaDeMinuto(t *testing.T) {
	assert.Equal(t, 0, DiaDeMinuto(0))
	assert.Equal(t, 0, DiaDeMinuto(1439))
	assert.Equal(t, 1, DiaDeMinuto(1440))
	assert.Equal(t, 2, DiaDeMinuto(2881))
}

func TestMinutosEntre(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, int64(120), MinutosEntre(base, base.Add(2*time.Hour)))
	assert.Equal(t, int64(-1), MinutosEntre(base, base.Add(-time.Minute)))
}

func TestTruncarAMinuto(t *testing.T) {
	conSegundos := time.Date(2024, 3, 1, 10, 30, 59, 123, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC), TruncarAMinuto(conSegundos))
}
