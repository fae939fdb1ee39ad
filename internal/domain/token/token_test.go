package token

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSummarizeClaims(t *testing.T) {
	t0 := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	transfers := []Transfer{
		{To: "0xAAAA000000000000000000000000000000000001", Timestamp: t0},
		{To: "0xbbbb000000000000000000000000000000000002", Timestamp: t0.Add(time.Hour)},
		{To: "0xaaaa000000000000000000000000000000000001", Timestamp: t0.Add(2 * time.Hour)},
	}
	reward := decimal.NewFromInt(500000)

	s := SummarizeClaims(transfers, []string{"0xaaaa000000000000000000000000000000000001"}, reward)
	assert.Equal(t, 2, s.Count)
	assert.True(t, s.Amount.Equal(decimal.NewFromInt(1000000)))
	assert.Equal(t, t0.Add(2*time.Hour), s.Last)

	none := SummarizeClaims(transfers, nil, reward)
	assert.Equal(t, 0, none.Count)
	assert.True(t, none.Amount.IsZero())
	assert.True(t, none.Last.IsZero())
}
