package model

import "testing"

func TestSessionTerminal(t *testing.T) {
	cases := []struct {
		status string
		want   bool
	}{
		{StatusInitiated, false},
		{StatusUploading, false},
		{StatusCompleted, true},
		{StatusAborted, true},
	}
	for _, tc := range cases {
		s := &UploadSession{Status: tc.status}
		if got := s.Terminal(); got != tc.want {
			t.Errorf("Terminal() with %s = %v, want %v", tc.status, got, tc.want)
		}
	}
}
