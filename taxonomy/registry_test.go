package taxonomy_test

import (
	"testing"

	"github.com/corretorsys/bankcore/taxonomy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_RegisteredPairs(t *testing.T) {
	for _, bank := range taxonomy.Banks() {
		for _, code := range taxonomy.Codes(bank) {
			assert.True(t, taxonomy.HasCode(bank, code), "%s/%s", bank, code)

			entry, ok := taxonomy.Lookup(bank, code)
			require.True(t, ok, "%s/%s", bank, code)
			assert.NotEmpty(t, entry.Message)
			assert.NotEmpty(t, entry.Category)
			assert.Contains(t,
				[]taxonomy.Severity{taxonomy.SeverityLow, taxonomy.SeverityMedium, taxonomy.SeverityHigh},
				entry.Severity)
		}
	}
}

func TestLookup_KnownEntry(t *testing.T) {
	entry, ok := taxonomy.Lookup("Banco do Brasil", "BB-ACC-002")

	require.True(t, ok)
	assert.Equal(t, "Saldo insuficiente", entry.Message)
	assert.Equal(t, taxonomy.CategoryAccount, entry.Category)
	assert.Equal(t, taxonomy.SeverityHigh, entry.Severity)
	assert.Equal(t, taxonomy.CodeInsufficientFunds, entry.CommonCode)
}

func TestLookup_AbsentPairs(t *testing.T) {
	tests := []struct {
		name string
		bank string
		code string
	}{
		{"unknown bank", "Nubank", "BB-AUTH-001"},
		{"unknown code", "Banco do Brasil", "BB-AUTH-999"},
		{"code from another bank", "Itau", "BB-AUTH-001"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := taxonomy.Lookup(tt.bank, tt.code)
			assert.False(t, ok)
			assert.False(t, taxonomy.HasCode(tt.bank, tt.code))

			_, ok = taxonomy.CommonCodeFor(tt.bank, tt.code)
			assert.False(t, ok)
		})
	}
}

func TestCommonCodeFor(t *testing.T) {
	code, ok := taxonomy.CommonCodeFor("Santander", "STD-SEC-001")

	require.True(t, ok)
	assert.Equal(t, taxonomy.CodeSuspiciousActivity, code)
}

func TestFormatMessage(t *testing.T) {
	assert.Equal(t, "[BB-AUTH-001] Credenciais inválidas",
		taxonomy.FormatMessage("Banco do Brasil", "BB-AUTH-001"))

	// Unknown codes come back unchanged.
	assert.Equal(t, "XX-999", taxonomy.FormatMessage("Banco do Brasil", "XX-999"))
	assert.Equal(t, "BB-AUTH-001", taxonomy.FormatMessage("Nubank", "BB-AUTH-001"))
}
