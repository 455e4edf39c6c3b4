// Copyright 2013 Federico Sogaro. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package webdriver

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/phayes/freeport"
	"go.uber.org/zap"
)

// DriverService runs a local driver binary (chromedriver, geckodriver) that
// speaks the wire protocol, so a RemoteWebDriver can talk to it.
type DriverService struct {
	// The port the driver listens on. Default: a free port.
	Port int
	// The URL path prefix the driver serves under. Default: ""
	BaseURL string
	// Extra command line switches.
	Args []string
	// Log file to dump the driver's stdout/stderr. If "" output is discarded.
	LogFile string
	// Start fails if the driver doesn't listen within StartTimeout. Default 20s.
	StartTimeout time.Duration
	Logger       *zap.Logger

	path     string
	switches func(s *DriverService) []string

	mu      sync.Mutex
	cmd     *exec.Cmd
	logFile *os.File
}

// NewChromeDriverService prepares a chromedriver service.
func NewChromeDriverService(path string) *DriverService {
	return &DriverService{
		path:         path,
		StartTimeout: 20 * time.Second,
		switches: func(s *DriverService) []string {
			switches := []string{"--port=" + strconv.Itoa(s.Port)}
			if s.BaseURL != "" {
				switches = append(switches, "--url-base="+s.BaseURL)
			}
			return switches
		},
	}
}

// NewGeckoDriverService prepares a geckodriver service for Firefox.
func NewGeckoDriverService(path string) *DriverService {
	return &DriverService{
		path:         path,
		StartTimeout: 20 * time.Second,
		switches: func(s *DriverService) []string {
			return []string{"--port", strconv.Itoa(s.Port)}
		},
	}
}

// URL is the address to hand to NewHTTPCommandExecutor.
func (s *DriverService) URL() string {
	return fmt.Sprintf("http://127.0.0.1:%d%s", s.Port, s.BaseURL)
}

func (s *DriverService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *DriverService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sferr := "driver service start failed: "
	if s.cmd != nil {
		return errors.New(sferr + "already running")
	}
	if s.Port == 0 {
		port, err := freeport.GetFreePort()
		if err != nil {
			return errors.New(sferr + err.Error())
		}
		s.Port = port
	}
	args := append(s.switches(s), s.Args...)
	cmd := exec.Command(s.path, args...)
	var out io.Writer = io.Discard
	if s.LogFile != "" {
		flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
		f, err := os.OpenFile(s.LogFile, flags, 0640)
		if err != nil {
			return errors.New(sferr + "unable to open log file: " + err.Error())
		}
		s.logFile = f
		out = f
	}
	cmd.Stdout = out
	cmd.Stderr = out
	if err := cmd.Start(); err != nil {
		s.closeLog()
		return errors.New(sferr + err.Error())
	}
	s.cmd = cmd
	s.logger().Debug("driver started", zap.String("path", s.path), zap.Int("port", s.Port))
	if err := probePort(s.Port, s.StartTimeout); err != nil {
		s.stop()
		return err
	}
	return nil
}

func (s *DriverService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd == nil {
		return errors.New("stop failed: driver service not running")
	}
	return s.stop()
}

func (s *DriverService) stop() error {
	defer func() {
		s.cmd = nil
		s.closeLog()
	}()
	if err := s.cmd.Process.Signal(os.Interrupt); err != nil {
		if kerr := s.cmd.Process.Kill(); kerr != nil {
			return kerr
		}
	}
	_ = s.cmd.Wait()
	s.logger().Debug("driver stopped", zap.Int("port", s.Port))
	return nil
}

func (s *DriverService) closeLog() {
	if s.logFile != nil {
		s.logFile.Close()
		s.logFile = nil
	}
}

//probe port until get a reply or timeout is up
func probePort(port int, timeout time.Duration) error {
	address := fmt.Sprintf("127.0.0.1:%d", port)
	now := time.Now()
	for {
		if conn, err := net.Dial("tcp", address); err == nil {
			return conn.Close()
		}
		if time.Since(now) > timeout {
			return errors.New("start failed: timeout expired")
		}
		time.Sleep(100 * time.Millisecond)
	}
}
