package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindValuesMatchDatabaseConstraints(t *testing.T) {
	// CHECK (tipo IN ('receita', 'despesa'))
	tests := []struct {
		kind     Kind
		expected string
	}{
		{KindIncome, "receita"},
		{KindExpense, "despesa"},
	}

	for _, tt := range tests {
		if string(tt.kind) != tt.expected {
			t.Errorf("Kind constant = %s, want %s", tt.kind, tt.expected)
		}
		if !tt.kind.Valid() {
			t.Errorf("Kind %s should be valid", tt.kind)
		}
	}

	if Kind("income").Valid() {
		t.Error("English kind names are not stored values")
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusPaid, StatusCancelled, StatusScheduled, StatusLate} {
		if !s.Valid() {
			t.Errorf("Status %s should be valid", s)
		}
	}
	if Status("estornado").Valid() {
		t.Error("unknown status should be invalid")
	}
}

func TestTransactionPatch_Validate(t *testing.T) {
	desc := "  Aluguel  "
	amount := decimal.RequireFromString("1500.456")
	kind := KindExpense
	when := time.Date(2025, time.March, 3, 18, 30, 0, 0, time.UTC)

	patch := TransactionPatch{Description: &desc, Amount: &amount, Kind: &kind, Date: &when}
	require.NoError(t, patch.Validate())

	assert.Equal(t, "Aluguel", *patch.Description)
	assert.Equal(t, "1500.46", patch.Amount.StringFixed(2))
	assert.Equal(t, time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC), *patch.Date)
	assert.True(t, patch.IsComplete())
}

func TestTransactionPatch_ValidateRejects(t *testing.T) {
	blank := "   "
	long := strings.Repeat("x", MaxDescriptionLength+1)
	zero := decimal.Zero
	negative := decimal.NewFromInt(-10)
	subCent := decimal.RequireFromString("0.004")
	tooLarge := decimal.RequireFromString("10000000000")
	badKind := Kind("transfer")
	badStatus := Status("unknown")

	tests := []struct {
		name  string
		patch TransactionPatch
		want  error
	}{
		{"empty patch", TransactionPatch{}, ErrEmptyPatch},
		{"blank description", TransactionPatch{Description: &blank}, ErrDescriptionRequired},
		{"long description", TransactionPatch{Description: &long}, ErrDescriptionTooLong},
		{"zero amount", TransactionPatch{Amount: &zero}, ErrInvalidAmount},
		{"negative amount", TransactionPatch{Amount: &negative}, ErrInvalidAmount},
		{"amount rounds to zero", TransactionPatch{Amount: &subCent}, ErrInvalidAmount},
		{"amount above column range", TransactionPatch{Amount: &tooLarge}, ErrInvalidAmount},
		{"invalid kind", TransactionPatch{Kind: &badKind}, ErrInvalidKind},
		{"invalid status", TransactionPatch{Status: &badStatus}, ErrInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.patch.Validate()
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateAmount_Bounds(t *testing.T) {
	got, err := ValidateAmount(decimal.RequireFromString("0.005"))
	require.NoError(t, err)
	assert.Equal(t, "0.01", got.StringFixed(2))

	got, err = ValidateAmount(MaxAmount)
	require.NoError(t, err)
	assert.True(t, got.Equal(MaxAmount))

	_, err = ValidateAmount(decimal.RequireFromString("9999999999.995"))
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestTransactionPatch_ClearFlagsAreNotEmpty(t *testing.T) {
	assert.False(t, TransactionPatch{ClearCategory: true}.IsEmpty())
	assert.False(t, TransactionPatch{ClearStatus: true}.IsEmpty())
	assert.False(t, TransactionPatch{ClearCategory: true}.IsComplete())
}

func TestDeletionPolicies(t *testing.T) {
	assert.Equal(t, SoftDelete, (&Company{}).DeletionPolicy())
	assert.Equal(t, SoftDelete, (&User{}).DeletionPolicy())
	assert.Equal(t, HardDelete, (&Transaction{}).DeletionPolicy())
	assert.Equal(t, HardDelete, (&Category{}).DeletionPolicy())
	assert.Equal(t, "soft", SoftDelete.String())
}

func TestNormalizeTaxID(t *testing.T) {
	got, err := NormalizeTaxID("12.345.678/0001-90")
	require.NoError(t, err)
	assert.Equal(t, "12345678000190", got)

	_, err = NormalizeTaxID("12.345.678/0001")
	assert.ErrorIs(t, err, ErrInvalidTaxID)

	_, err = NormalizeTaxID("12A45678000190")
	assert.ErrorIs(t, err, ErrInvalidTaxID)
}

func TestNormalizeEmail(t *testing.T) {
	got, err := NormalizeEmail("  Maria@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "maria@example.com", got)

	for _, bad := range []string{"", "maria", "Maria <maria@example.com>"} {
		_, err := NormalizeEmail(bad)
		assert.ErrorIs(t, err, ErrInvalidEmail, bad)
	}
}

func TestUserPatch_Validate(t *testing.T) {
	role := Role("ROOT")
	err := (&UserPatch{Role: &role}).Validate()
	assert.ErrorIs(t, err, ErrInvalidRole)

	manager := RoleManager
	name := " Ana "
	patch := UserPatch{Role: &manager, Name: &name}
	require.NoError(t, patch.Validate())
	assert.Equal(t, "Ana", *patch.Name)

	assert.ErrorIs(t, (&UserPatch{}).Validate(), ErrEmptyPatch)
	assert.False(t, UserPatch{ClearCompany: true}.IsEmpty())
}

func TestCategoryPatch_Validate(t *testing.T) {
	bad := Kind("other")
	assert.ErrorIs(t, (&CategoryPatch{Kind: &bad}).Validate(), ErrInvalidKind)

	name := " Salário "
	patch := CategoryPatch{Name: &name}
	require.NoError(t, patch.Validate())
	assert.Equal(t, "Salário", *patch.Name)
}
