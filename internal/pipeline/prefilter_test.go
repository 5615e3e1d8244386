package pipeline

import "testing"

func TestTitleMentionsCompany(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		company string
		ticker  string
		aliases []string
		want    bool
	}{
		{
			name:    "first token of name matches case-insensitively",
			title:   "ACME beats revenue expectations",
			company: "Acme Corporation",
			want:    true,
		},
		{
			name:    "second token alone does not match",
			title:   "Corporation tax changes announced",
			company: "Acme Corporation",
			want:    false,
		},
		{
			name:   "ticker matches verbatim",
			title:  "Analysts cut ACME price target",
			ticker: "ACME",
			want:   true,
		},
		{
			name:   "lowercased ticker does not match",
			title:  "it was a quiet week on wall street",
			ticker: "IT",
			want:   false,
		},
		{
			name:    "alias first token matches",
			title:   "Globex subsidiary faces probe",
			company: "Acme Corporation",
			aliases: []string{"Globex Industries"},
			want:    true,
		},
		{
			name:    "nothing matches",
			title:   "Markets rally on rate cut hopes",
			company: "Acme Corporation",
			ticker:  "ACME",
			want:    false,
		},
		{
			name:    "empty name and ticker never match",
			title:   "Any headline at all",
			company: "",
			ticker:  "",
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TitleMentionsCompany(tt.title, tt.company, tt.ticker, tt.aliases)
			if got != tt.want {
				t.Errorf("TitleMentionsCompany(%q) = %v, want %v", tt.title, got, tt.want)
			}
		})
	}
}
