package naming

import "testing"

func TestSanitizers(t *testing.T) {
	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{
			name:     "AppName",
			got:      AppName("staging", "Argo-CD"),
			expected: "staging-argo-cd",
		},
		{
			name:     "Name lowercases and replaces",
			got:      Name("My App_v2"),
			expected: "my-app-v2",
		},
		{
			name:     "Name trims hyphens",
			got:      Name("--edge--"),
			expected: "edge",
		},
		{
			name:     "Name caps at 50",
			got:      Name("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"),
			expected: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		},
		{
			name:     "Label keeps dots and underscores",
			got:      Label("Tool_1.2 beta"),
			expected: "tool_1.2-beta",
		},
		{
			name:     "Label collapses dash runs",
			got:      Label("a///b"),
			expected: "a-b",
		},
		{
			name:     "Folder strips unsafe characters",
			got:      Folder("charts/app; rm -rf /"),
			expected: "charts/apprm-rf/",
		},
		{
			name:     "Folder keeps nested path",
			got:      Folder("environments/prod/app_v1.2"),
			expected: "environments/prod/app_v1.2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, tt.got)
			}
		})
	}
}
