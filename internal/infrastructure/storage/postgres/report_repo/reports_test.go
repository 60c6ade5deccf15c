package report_repo

import (
	"testing"

	"oficina/internal/core/apperror"
	"oficina/internal/domain/reports"
)

func TestGroupExpr(t *testing.T) {
	tests := []struct {
		name  string
		scope reports.ValuationScope
		want  string
	}{
		{"total collapses to one group", reports.ScopeTotal, "''"},
		{"by category", reports.ScopeByCategory, "p.category"},
		{"by supplier", reports.ScopeBySupplier, "p.supplier"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := groupExpr(tt.scope)
			if err != nil {
				t.Fatalf("groupExpr(%s): %v", tt.scope, err)
			}
			if got != tt.want {
				t.Errorf("groupExpr(%s) = %q, want %q", tt.scope, got, tt.want)
			}
		})
	}
}

func TestGroupExprUnknownScope(t *testing.T) {
	_, err := groupExpr(reports.ValuationScope("warehouse"))
	if !apperror.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
