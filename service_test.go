package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/kardianos/service"
)

func TestHandleServiceCommand_NotACommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no args", []string{}},
		{"program only", []string{"ruserwation"}},
		{"unknown", []string{"ruserwation", "serve"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			handled, err := HandleServiceCommand(tt.args, &out)
			if handled || err != nil {
				t.Errorf("HandleServiceCommand(%v) = %v, %v; want false, nil", tt.args, handled, err)
			}
			if out.Len() != 0 {
				t.Errorf("unexpected output %q", out.String())
			}
		})
	}
}

func TestHandleServiceCommand_Help(t *testing.T) {
	for _, args := range [][]string{
		{"ruserwation", "help"},
		{"ruserwation", "--help"},
		{"ruserwation", "-h"},
		{"ruserwation", "service"},
		{"ruserwation", "service", "help"},
	} {
		t.Run(strings.Join(args[1:], " "), func(t *testing.T) {
			var out bytes.Buffer
			handled, err := HandleServiceCommand(args, &out)
			if !handled || err != nil {
				t.Fatalf("HandleServiceCommand(%v) = %v, %v", args, handled, err)
			}
			for _, want := range []string{"ruserwation service <command>", "install", "status"} {
				if !strings.Contains(out.String(), want) {
					t.Errorf("usage missing %q:\n%s", want, out.String())
				}
			}
		})
	}
}

func TestHandleServiceCommand_UnknownServiceCommand(t *testing.T) {
	var out bytes.Buffer
	handled, err := HandleServiceCommand([]string{"ruserwation", "service", "reboot"}, &out)
	if !handled {
		t.Error("service subcommand not reported as handled")
	}
	if err == nil || !strings.Contains(err.Error(), "reboot") {
		t.Errorf("err = %v, want unknown command error", err)
	}
}

func TestServiceConfig(t *testing.T) {
	cfg := ServiceConfig()
	if cfg.Name != "ruserwation" {
		t.Errorf("Name = %q", cfg.Name)
	}
	if cfg.WorkingDirectory == "" {
		t.Error("WorkingDirectory not set to the executable's directory")
	}
}

func TestDescribeStatus(t *testing.T) {
	if got := describeStatus(service.StatusRunning); got != "Service is running" {
		t.Errorf("running -> %q", got)
	}
	if got := describeStatus(service.StatusStopped); got != "Service is stopped" {
		t.Errorf("stopped -> %q", got)
	}
	if got := describeStatus(service.StatusUnknown); got != "Service status unknown" {
		t.Errorf("unknown -> %q", got)
	}
}

func TestProgram_StartStop(t *testing.T) {
	started := make(chan struct{})
	prg := NewProgram(func(ctx context.Context) int {
		close(started)
		<-ctx.Done()
		return 143
	})

	if err := prg.Start(nil); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := prg.Start(nil); err == nil {
		t.Error("second Start() succeeded")
	}

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("run was not called")
	}

	if err := prg.Stop(nil); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if prg.ExitCode() != 143 {
		t.Errorf("ExitCode() = %d, want 143", prg.ExitCode())
	}
}

func TestProgram_StopBeforeStart(t *testing.T) {
	prg := NewProgram(func(ctx context.Context) int { return 0 })
	if err := prg.Stop(nil); err != nil {
		t.Errorf("Stop() before Start() = %v", err)
	}
}
