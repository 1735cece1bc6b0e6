package browser

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFindChrome(t *testing.T) {
	tests := []struct {
		name     string
		existing map[string]bool
		want     string
	}{
		{"first match wins", map[string]bool{"/usr/bin/chromium": true, "/snap/bin/chromium": true}, "/usr/bin/chromium"},
		{"windows path", map[string]bool{`C:\Program Files\Google\Chrome\Application\chrome.exe`: true}, `C:\Program Files\Google\Chrome\Application\chrome.exe`},
		{"none found", map[string]bool{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := findChrome(chromeCandidates, func(p string) bool { return tt.existing[p] })
			if got != tt.want {
				t.Errorf("findChrome() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsSaved(t *testing.T) {
	str := func(s string) *string { return &s }

	tests := []struct {
		name  string
		label *string
		want  bool
	}{
		{"saved", str("Saved"), true},
		{"saved with spaces", str(" saved "), true},
		{"unsaved", str("Save"), false},
		{"no label", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isSaved(tt.label, "Saved"); got != tt.want {
				t.Errorf("isSaved() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWaitForOperator(t *testing.T) {
	s := &Session{}
	var out bytes.Buffer
	require.NoError(t, s.WaitForOperator(context.Background(), strings.NewReader("\n"), &out))
	require.Contains(t, out.String(), "Press Enter")
}

func TestWaitForOperatorCancelled(t *testing.T) {
	s := &Session{}
	r, w := io.Pipe()
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.WaitForOperator(ctx, r, io.Discard)
	require.ErrorIs(t, err, context.Canceled)
}

func TestLoadMoreReady(t *testing.T) {
	cdpErr := errors.New("cdp: context deadline exceeded")
	tests := []struct {
		name    string
		has     bool
		visible bool
		err     error
		want    bool
		wantErr bool
	}{
		{"no button", false, false, nil, false, false},
		{"hidden button", true, false, nil, false, false},
		{"visible button", true, true, nil, true, false},
		{"visibility check failed", true, false, cdpErr, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := loadMoreReady(tt.has, func() (bool, error) { return tt.visible, tt.err })
			require.Equal(t, tt.want, got)
			if tt.wantErr {
				require.ErrorIs(t, err, cdpErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
