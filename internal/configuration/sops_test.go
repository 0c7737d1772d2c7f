package configuration

import (
	"testing"
)

func TestSOPSFormat(t *testing.T) {
	tests := map[string]string{
		"secrets.yaml":     "yaml",
		"secrets.yml":      "yaml",
		"secrets.JSON":     "json",
		"dir/secrets.env":  "dotenv",
		"secrets":          "yaml",
		"secrets.enc.json": "json",
	}

	for path, want := range tests {
		if got := sopsFormat(path); got != want {
			t.Errorf("sopsFormat(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestParseSOPSCleartext(t *testing.T) {
	tests := []struct {
		name      string
		cleartext string
		format    string
		path      string
		want      string
		wantErr   bool
	}{
		{name: "yaml", cleartext: "github:\n  token: abc\n", format: "yaml", path: "github.token", want: "abc"},
		{name: "json", cleartext: `{"github": {"token": "def"}}`, format: "json", path: "github.token", want: "def"},
		{name: "dotenv", cleartext: "API_TOKEN=ghi\n# comment\n", format: "dotenv", path: "API_TOKEN", want: "ghi"},
		{name: "invalid yaml", cleartext: "a: [", format: "yaml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := parseSOPSCleartext([]byte(tt.cleartext), tt.format)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			value, err := GetYAMLValue(data, tt.path)
			if err != nil {
				t.Fatalf("GetYAMLValue failed: %v", err)
			}
			if value != tt.want {
				t.Errorf("value = %v, want %s", value, tt.want)
			}
		})
	}
}
