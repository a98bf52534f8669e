// Package testing holds helpers shared by API and transport tests.
package testing

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/Alia5/keybridge/hid"
	"github.com/Alia5/keybridge/internal/server/api"
)

// StartAPIServer starts an API server on a free port and calls register so
// the test can add the handlers it needs. The server is closed on cleanup.
func StartAPIServer(t *testing.T, cfg api.ServerConfig, register func(r *api.Router)) (addr string) {
	t.Helper()
	cfg.Addr = "127.0.0.1:0"
	srv, err := api.New(cfg, slog.Default())
	if err != nil {
		t.Fatalf("api new failed: %v", err)
	}
	if register != nil {
		register(srv.Router())
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("api start failed: %v", err)
	}
	t.Cleanup(srv.Close)
	return srv.Addr()
}

// ExecCmd dials the API server, sends cmd and reads the response line
// without its trailing newline.
func ExecCmd(t *testing.T, addr string, cmd string) string {
	t.Helper()
	c, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer c.Close()

	_, _ = fmt.Fprintf(c, "%s\x00", cmd)

	line, err := bufio.NewReader(c).ReadString('\n')
	if err != nil && err != io.EOF {
		t.Fatalf("read failed: %v", err)
	}
	return strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
}

// RecordingSink stores every report it receives.
type RecordingSink struct {
	mu      sync.Mutex
	reports []hid.Report
	closed  bool
}

func (s *RecordingSink) WriteReport(r hid.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, r.Clone())
	return nil
}

func (s *RecordingSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Reports returns a copy of the received reports.
func (s *RecordingSink) Reports() []hid.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]hid.Report(nil), s.reports...)
}

// Last returns the latest report, or the empty report.
func (s *RecordingSink) Last() hid.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.reports) == 0 {
		return hid.Report{}
	}
	return s.reports[len(s.reports)-1]
}

// Closed reports whether Close was called.
func (s *RecordingSink) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// MockSink is a testify mock of a report sink.
type MockSink struct {
	mock.Mock
}

func (m *MockSink) WriteReport(r hid.Report) error {
	return m.Called(r).Error(0)
}

func (m *MockSink) Close() error {
	return m.Called().Error(0)
}
