package domain

import (
	"strings"
	"testing"
)

func TestValidateAccountName(t *testing.T) {
	tests := []struct {
		name        string
		account     AccountName
		expectError bool
	}{
		{
			name:    "simple hierarchy",
			account: "Assets:US:Brokerage",
		},
		{
			name:    "single segment",
			account: "Equity",
		},
		{
			name:    "digits and dashes inside segments",
			account: "Assets:US:401k-Employer",
		},
		{
			name:    "segment starting with digit",
			account: "Assets:2024:Bonus",
		},
		{
			name:        "empty name",
			account:     "",
			expectError: true,
		},
		{
			name:        "lowercase segment",
			account:     "Assets:cash",
			expectError: true,
		},
		{
			name:        "empty segment",
			account:     "Assets::Checking",
			expectError: true,
		},
		{
			name:        "trailing colon",
			account:     "Assets:Checking:",
			expectError: true,
		},
		{
			name:        "segment with space",
			account:     "Assets:Savings Account",
			expectError: true,
		},
		{
			name:        "name too long",
			account:     AccountName("Assets:" + strings.Repeat("X", MaxAccountNameLength)),
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAccountName(tt.account)

			if tt.expectError && err == nil {
				t.Error("expected error, got nil")
			}

			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateCommodity(t *testing.T) {
	tests := []struct {
		name        string
		commodity   string
		expectError bool
	}{
		{
			name:      "plain currency",
			commodity: "USD",
		},
		{
			name:      "single letter",
			commodity: "X",
		},
		{
			name:      "underscore and digits",
			commodity: "FOO_X100",
		},
		{
			name:      "dotted symbol",
			commodity: "BRK.B",
		},
		{
			name:        "empty",
			commodity:   "",
			expectError: true,
		},
		{
			name:        "lowercase",
			commodity:   "usd",
			expectError: true,
		},
		{
			name:        "leading digit",
			commodity:   "4X",
			expectError: true,
		},
		{
			name:        "trailing underscore",
			commodity:   "FOO_",
			expectError: true,
		},
		{
			name:        "too long",
			commodity:   strings.Repeat("A", MaxCommodityLength+1),
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCommodity(tt.commodity)

			if tt.expectError && err == nil {
				t.Error("expected error, got nil")
			}

			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateMetadata(t *testing.T) {
	if err := ValidateMetadata(nil); err != nil {
		t.Errorf("nil metadata should be valid, got %v", err)
	}

	small := map[string]any{"invoice": "INV-100", "batch": 7}
	if err := ValidateMetadata(small); err != nil {
		t.Errorf("small metadata should be valid, got %v", err)
	}

	big := map[string]any{"blob": strings.Repeat("x", MaxMetadataSize+1)}
	if err := ValidateMetadata(big); err == nil {
		t.Error("oversized metadata should be rejected")
	}
}
