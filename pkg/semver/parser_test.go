package semver

import (
	"testing"
)

func TestParseCapabilityRef(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		wantNamespace string
		wantAction    string
		wantRange     string
		wantID        string
		wantErr       bool
	}{
		{
			name:          "no version",
			input:         "nasdaq.analyze_stock",
			wantNamespace: "nasdaq",
			wantAction:    "analyze_stock",
			wantID:        "nasdaq.analyze_stock",
		},
		{
			name:          "major only",
			input:         "nasdaq.query@1",
			wantNamespace: "nasdaq",
			wantAction:    "query",
			wantRange:     "1",
			wantID:        "nasdaq.query",
		},
		{
			name:          "caret range with dotted action",
			input:         "x.echo.v2@^1.2.0",
			wantNamespace: "x",
			wantAction:    "echo.v2",
			wantRange:     "^1.2.0",
			wantID:        "x.echo.v2",
		},
		{
			name:          "trimmed whitespace",
			input:         "  x.echo@3  ",
			wantNamespace: "x",
			wantAction:    "echo",
			wantRange:     "3",
			wantID:        "x.echo",
		},
		{name: "missing namespace", input: "echo", wantErr: true},
		{name: "empty string", input: "", wantErr: true},
		{name: "empty action", input: "x.", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := ParseCapabilityRef(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("semver:parser_test - expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("semver:parser_test - unexpected error: %v", err)
			}
			if ref.Namespace != tt.wantNamespace {
				t.Errorf("semver:parser_test - Namespace = %q, want %q", ref.Namespace, tt.wantNamespace)
			}
			if ref.Action != tt.wantAction {
				t.Errorf("semver:parser_test - Action = %q, want %q", ref.Action, tt.wantAction)
			}
			if ref.Range != tt.wantRange {
				t.Errorf("semver:parser_test - Range = %q, want %q", ref.Range, tt.wantRange)
			}
			if ref.ID != tt.wantID {
				t.Errorf("semver:parser_test - ID = %q, want %q", ref.ID, tt.wantID)
			}
		})
	}
}

func TestValidateCapabilityID(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"nasdaq.analyze_stock", false},
		{"x.echo", false},
		{"my-ns.do-it", false},
		{"NASDAQ.query", true},
		{"nasdaq.3query", true},
		{"nasdaq.query@1", true},
		{"query", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateCapabilityID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("semver:parser_test - ValidateCapabilityID(%q) err = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestIsMajorOnly(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"3", true},
		{"10", true},
		{"3.2.0", false},
		{"^3.2.0", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsMajorOnly(tt.input); got != tt.want {
			t.Errorf("semver:parser_test - IsMajorOnly(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestIsExactVersion(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"3.2.1", true},
		{"1.2.3-alpha.1", true},
		{"1.2.3+build.123", true},
		{"3.2", false},
		{"^3.2.0", false},
	}
	for _, tt := range tests {
		if got := IsExactVersion(tt.input); got != tt.want {
			t.Errorf("semver:parser_test - IsExactVersion(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
