package valueobject

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("creates money with valid amount and currency", func(t *testing.T) {
		m, err := NewMoney(decimal.NewFromFloat(12.5), USD)
		require.NoError(t, err)
		assert.Equal(t, USD, m.Currency())
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(12.5)))
	})

	t.Run("returns error for empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromInt(1), "")
		assert.Error(t, err)
	})
}

func TestParseCurrency(t *testing.T) {
	c, err := ParseCurrency("")
	require.NoError(t, err)
	assert.Equal(t, DefaultCurrency, c)

	c, err = ParseCurrency("KES")
	require.NoError(t, err)
	assert.Equal(t, KES, c)

	_, err = ParseCurrency("XXX")
	assert.Error(t, err)
}

func TestMoney_Arithmetic(t *testing.T) {
	a := MustMoney(decimal.RequireFromString("10.25"), USD)
	b := MustMoney(decimal.RequireFromString("4.75"), USD)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "15.00 USD", sum.String())

	diff, err := a.Subtract(b)
	require.NoError(t, err)
	assert.True(t, diff.Amount().Equal(decimal.RequireFromString("5.5")))

	assert.True(t, b.MultiplyByInt(3).Amount().Equal(decimal.RequireFromString("14.25")))

	ok, err := a.GreaterThanOrEqual(b)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMoney_CurrencyMismatch(t *testing.T) {
	a := MustMoney(decimal.NewFromInt(1), USD)
	b := MustMoney(decimal.NewFromInt(1), EUR)

	_, err := a.Add(b)
	assert.True(t, errors.Is(err, ErrCurrencyMismatch))

	_, err = a.GreaterThanOrEqual(b)
	assert.True(t, errors.Is(err, ErrCurrencyMismatch))
}

func TestMoney_JSON(t *testing.T) {
	m := MustMoney(decimal.RequireFromString("3.5"), GBP)
	b, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"3.50","currency":"GBP"}`, string(b))

	var parsed Money
	require.NoError(t, json.Unmarshal([]byte(`{"amount":"7.10"}`), &parsed))
	assert.Equal(t, DefaultCurrency, parsed.Currency())
	assert.True(t, parsed.Amount().Equal(decimal.RequireFromString("7.1")))
}
