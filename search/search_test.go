package search

import "testing"

func TestBuildURL(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		path     string
		keyword  string
		location string
		want     string
		wantErr  bool
	}{
		{
			name:     "keyword and location",
			base:     "https://www.glassdoor.com",
			path:     "/Job/index.htm",
			keyword:  "Software Intern",
			location: "United States",
			want:     "https://www.glassdoor.com/Job/index.htm?locKeyword=United+States&sc.keyword=Software+Intern",
		},
		{
			name:    "trims and skips empty location",
			base:    "https://www.glassdoor.com/",
			path:    "Job/index.htm",
			keyword: "  Backend Intern ",
			want:    "https://www.glassdoor.com/Job/index.htm?sc.keyword=Backend+Intern",
		},
		{
			name: "no path no query",
			base: "https://example.com",
			want: "https://example.com",
		},
		{
			name:    "relative base",
			base:    "glassdoor.com",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildURL(tt.base, tt.path, tt.keyword, tt.location)
			if (err != nil) != tt.wantErr {
				t.Fatalf("BuildURL() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("BuildURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestJobIDFromURL(t *testing.T) {
	tests := []struct {
		link string
		want string
	}{
		{"https://www.glassdoor.com/job-listing/software-intern-acme-JV_KO0,15.htm?jl=1009393213424", "1009393213424"},
		{"/partner/jobListing.htm?pos=101&ao=1136043&jl=42&cs=1", "42"},
		{"https://www.glassdoor.com/Job/index.htm", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := JobIDFromURL(tt.link); got != tt.want {
			t.Errorf("JobIDFromURL(%q) = %q, want %q", tt.link, got, tt.want)
		}
	}
}
