package hook

import (
	"bytes"
	"context"
	"runtime"
	"testing"
)

func TestRun(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("hooks need a POSIX shell")
	}

	cases := []struct {
		name     string
		command  string
		wantCode int
		wantOut  string
		wantErr  bool
	}{
		{name: "empty", command: "", wantCode: 0},
		{name: "success", command: "echo paused", wantCode: 0, wantOut: "paused\n"},
		{name: "failure", command: "exit 4", wantCode: 4},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			r := &Runner{Shell: "/bin/sh", Stdout: &out}
			res := r.Run(context.Background(), tc.command)
			if res.ExitCode != tc.wantCode {
				t.Fatalf("expected exit code %d, got %d", tc.wantCode, res.ExitCode)
			}
			if (res.Err != nil) != tc.wantErr {
				t.Fatalf("unexpected error %v", res.Err)
			}
			if out.String() != tc.wantOut {
				t.Fatalf("expected output %q, got %q", tc.wantOut, out.String())
			}
		})
	}
}

func TestRunMissingShell(t *testing.T) {
	r := &Runner{Shell: "/no/such/shell"}
	res := r.Run(context.Background(), "true")
	if res.Err == nil || res.ExitCode != -1 {
		t.Fatalf("expected start failure, got %+v", res)
	}
}
