package model

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestGenPublicToken(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		token, err := GenPublicToken(10)
		assert.NoError(t, err)
		assert.Len(t, token, 10)
		for _, c := range token {
			assert.True(t, strings.ContainsRune(tokenAlphabet, c), "unexpected character %q", c)
		}
		seen[token] = true
	}
	// 50 draws from a 32^10 space colliding would mean a broken generator.
	assert.Len(t, seen, 50)
}

func TestCashEntrySigned(t *testing.T) {
	in := CashEntry{Kind: EntryKindInflow, Amount: decimal.NewFromInt(100)}
	out := CashEntry{Kind: EntryKindOutflow, Amount: decimal.NewFromInt(30)}

	assert.True(t, in.Signed().Equal(decimal.NewFromInt(100)))
	assert.True(t, out.Signed().Equal(decimal.NewFromInt(-30)))
	assert.True(t, in.Signed().Add(out.Signed()).Equal(decimal.NewFromInt(70)))
}
