package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kardianos/service"

	"ruserwation/core"
	"ruserwation/shutdown"
)

const serviceName = "ruserwation"

// stopGrace is how long Stop waits beyond the shutdown timeout.
const stopGrace = 5 * time.Second

// Program implements service.Interface. Start runs the server in the
// background; Stop cancels it and waits for graceful shutdown.
type Program struct {
	run func(ctx context.Context) int

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	exitCode int
}

// NewProgram wraps run, which is called once per service start.
func NewProgram(run func(ctx context.Context) int) *Program {
	return &Program{run: run}
}

func (p *Program) Start(s service.Service) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != nil {
		return fmt.Errorf("service already started")
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	go func(done chan struct{}) {
		defer close(done)
		code := p.run(ctx)
		p.mu.Lock()
		p.exitCode = code
		p.mu.Unlock()
	}(p.done)
	return nil
}

func (p *Program) Stop(s service.Service) error {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.mu.Unlock()
	if done == nil {
		return nil
	}

	cancel()
	select {
	case <-done:
		return nil
	case <-time.After(shutdown.DefaultTimeout + stopGrace):
		return fmt.Errorf("timeout waiting for service to stop")
	}
}

// ExitCode returns the code of the last completed run.
func (p *Program) ExitCode() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode
}

// ServiceConfig describes the service to the OS service manager. The working
// directory is the executable's, so .env and data/ resolve as they do in the
// foreground.
func ServiceConfig() *service.Config {
	cfg := &service.Config{
		Name:        serviceName,
		DisplayName: "Ruserwation",
		Description: "Restaurant reservation web service",
		Arguments:   []string{},
		Option: service.KeyValue{
			"StartType": "automatic",
			"Restart":   "on-failure",
		},
	}
	if exe, err := os.Executable(); err == nil {
		cfg.WorkingDirectory = filepath.Dir(exe)
	}
	return cfg
}

func newService() (service.Service, *Program, error) {
	prg := NewProgram(func(ctx context.Context) int {
		return run(ctx, os.Stdout)
	})
	s, err := service.New(prg, ServiceConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create service: %w", err)
	}
	return s, prg, nil
}

// RunAsService runs under the OS service manager when the process was not
// started from a terminal. It reports false for interactive sessions.
func RunAsService() (bool, error) {
	if service.Interactive() {
		return false, nil
	}
	s, prg, err := newService()
	if err != nil {
		return false, err
	}
	if err := s.Run(); err != nil {
		return true, fmt.Errorf("service run failed: %w", err)
	}
	if code := prg.ExitCode(); code != core.ExitCodeSuccess {
		return true, fmt.Errorf("service exited with %s", core.ExitCodeName(code))
	}
	return true, nil
}

// PrintServiceUsage writes the command help to out.
func PrintServiceUsage(out io.Writer) {
	fmt.Fprintf(out, "Ruserwation %s service management\n", core.Version)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Usage: %s service <command>\n", serviceName)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  install    Install ruserwation as a system service")
	fmt.Fprintln(out, "  uninstall  Remove the system service (alias: remove)")
	fmt.Fprintln(out, "  start      Start the service")
	fmt.Fprintln(out, "  stop       Stop the service")
	fmt.Fprintln(out, "  restart    Restart the service")
	fmt.Fprintln(out, "  status     Show the current service status")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Run without arguments to serve in the foreground.")
}

// HandleServiceCommand handles "service <command>" and help arguments. It
// reports whether args named a command; the error is that command's failure.
func HandleServiceCommand(args []string, out io.Writer) (bool, error) {
	if len(args) < 2 {
		return false, nil
	}
	switch args[1] {
	case "help", "-h", "--help", "-help":
		PrintServiceUsage(out)
		return true, nil
	case "service":
	default:
		return false, nil
	}

	if len(args) < 3 {
		PrintServiceUsage(out)
		return true, nil
	}

	var action func(s service.Service) error
	switch args[2] {
	case "install", "uninstall", "remove", "start", "stop", "restart":
		cmd := args[2]
		if cmd == "remove" {
			cmd = "uninstall"
		}
		action = func(s service.Service) error {
			if err := service.Control(s, cmd); err != nil {
				return err
			}
			fmt.Fprintf(out, "Service %s: ok\n", cmd)
			return nil
		}
	case "status":
		action = func(s service.Service) error {
			status, err := s.Status()
			if err != nil {
				return fmt.Errorf("failed to get service status: %w", err)
			}
			fmt.Fprintln(out, describeStatus(status))
			return nil
		}
	case "help", "-h", "--help":
		PrintServiceUsage(out)
		return true, nil
	default:
		PrintServiceUsage(out)
		return true, fmt.Errorf("unknown service command %q", args[2])
	}

	s, _, err := newService()
	if err != nil {
		return true, err
	}
	return true, action(s)
}

func describeStatus(status service.Status) string {
	switch status {
	case service.StatusRunning:
		return "Service is running"
	case service.StatusStopped:
		return "Service is stopped"
	default:
		return "Service status unknown"
	}
}
