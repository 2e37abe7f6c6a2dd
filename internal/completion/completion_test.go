package completion

import "testing"

func TestCleanResponse(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", "450|Groceries|UPI|Food", "450|Groceries|UPI|Food"},
		{"surrounding whitespace", "  450|Groceries|UPI|Food \n", "450|Groceries|UPI|Food"},
		{"fenced", "```\n450|Groceries|UPI|Food\n```", "450|Groceries|UPI|Food"},
		{"fenced with language", "```text\n450|Groceries|UPI|Food\n```", "450|Groceries|UPI|Food"},
		{"single line fence", "```450|Groceries", "```450|Groceries"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanResponse(tt.raw); got != tt.want {
				t.Errorf("CleanResponse(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
