package money

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromFloat(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		want   int64
	}{
		{"simple decimal", 12.34, 1234},
		{"whole number", 3000.00, 300000},
		{"zero", 0.0, 0},
		{"negative", -50.99, -5099},
		{"small amount", 0.01, 1},
		{"rounds half away from zero", 12.345, 1235},
		{"float noise", 0.1 + 0.2, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewFromFloat(tt.amount).Amount())
		})
	}
}

func TestNewFromDecimal(t *testing.T) {
	assert.Equal(t, int64(123456), NewFromDecimal(decimal.RequireFromString("1234.56")).Amount())
	assert.Equal(t, int64(-1), NewFromDecimal(decimal.RequireFromString("-0.005")).Amount())
}

func TestFromOptional(t *testing.T) {
	v := 200.0
	assert.Equal(t, int64(20000), FromOptional(&v).Amount())
	assert.True(t, FromOptional(nil).IsZero())
}

func TestArithmetic(t *testing.T) {
	a := New(320000)
	b := New(300000)

	assert.Equal(t, int64(620000), a.Add(b).Amount())
	assert.Equal(t, int64(20000), a.Subtract(b).Amount())
	assert.Equal(t, int64(-20000), b.Subtract(a).Amount())
	assert.Equal(t, int64(-320000), a.Negate().Amount())
	assert.Equal(t, int64(20000), b.Subtract(a).Abs().Amount())
	assert.Equal(t, int64(620001), Sum(a, nil, b, New(1)).Amount())
}

func TestCompare(t *testing.T) {
	assert.Equal(t, -1, New(1).Compare(New(2)))
	assert.Equal(t, 0, New(2).Compare(New(2)))
	assert.Equal(t, 1, New(3).Compare(New(2)))
	assert.True(t, New(-1).IsNegative())
}

func TestConversions(t *testing.T) {
	m := New(123456)
	assert.Equal(t, "1234.56", m.String())
	assert.Equal(t, 1234.56, m.ToFloat64())
	assert.True(t, decimal.RequireFromString("1234.56").Equal(m.ToDecimal()))
	assert.Contains(t, m.Display(), "1")
}

func TestJSON(t *testing.T) {
	data, err := json.Marshal(New(-2050))
	require.NoError(t, err)
	assert.JSONEq(t, `-20.5`, string(data))

	var m Money
	require.NoError(t, json.Unmarshal([]byte(`1506.02`), &m))
	assert.Equal(t, int64(150602), m.Amount())

	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &m))
}

func TestNilSafety(t *testing.T) {
	var m *Money
	assert.Equal(t, int64(0), m.Amount())
	assert.True(t, m.IsZero())
	assert.Equal(t, "0.00", m.String())
	assert.Equal(t, int64(5), m.Add(New(5)).Amount())
}
