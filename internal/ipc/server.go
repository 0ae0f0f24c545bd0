// Package ipc exposes daemon control via typed JSON-RPC over a Unix domain
// socket. Every operation is a request/response struct pair registered
// under the Gallery service; unknown methods fail at the RPC layer.
package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"path/filepath"
	"sync"
	"time"

	"log/slog"

	"gallerydl/internal/config"
	"gallerydl/internal/daemon"
	"gallerydl/internal/events"
	"gallerydl/internal/logging"
)

// ServiceName is the RPC service the daemon registers on its socket.
const ServiceName = "Gallery"

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path. shutdown is
// invoked when a client requests daemon shutdown.
func NewServer(ctx context.Context, cfg *config.Config, d *daemon.Daemon, bus *events.Bus, shutdown func(), logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	path := cfg.SocketPath()
	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{cfg: cfg, daemon: d, bus: bus, shutdown: shutdown, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName(ServiceName, srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldErrorHint, "Check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually before the next start"))
	}
}

type service struct {
	cfg      *config.Config
	daemon   *daemon.Daemon
	bus      *events.Bus
	shutdown func()
	logger   *slog.Logger
	ctx      context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String(logging.FieldComponent, "ipc"))
}

func (s *service) Enqueue(req EnqueueRequest, resp *EnqueueResponse) error {
	if err := s.daemon.Orchestrator().Enqueue(req.Job); err != nil {
		resp.Accepted = false
		resp.Message = err.Error()
		return nil
	}
	resp.Accepted = true
	return nil
}

func (s *service) StopGallery(req StopGalleryRequest, resp *StopGalleryResponse) error {
	if req.GalleryID == "" {
		resp.OK = false
		resp.Message = "no_gid"
		return nil
	}
	if err := s.daemon.Orchestrator().StopGallery(s.ctx, req.GalleryID); err != nil {
		resp.OK = false
		resp.Message = err.Error()
		return nil
	}
	resp.OK = true
	return nil
}

func (s *service) StopAll(_ StopAllRequest, resp *StopAllResponse) error {
	if err := s.daemon.Orchestrator().StopAll(s.ctx); err != nil {
		return err
	}
	resp.OK = true
	return nil
}

func (s *service) QueueList(_ QueueListRequest, resp *QueueListResponse) error {
	resp.Queue = s.daemon.Orchestrator().QueueSnapshot()
	return nil
}

func (s *service) SettingsGet(_ SettingsGetRequest, resp *SettingsGetResponse) error {
	resp.Settings = s.daemon.Orchestrator().Settings()
	return nil
}

func (s *service) SettingsSave(req SettingsSaveRequest, resp *SettingsSaveResponse) error {
	if err := s.daemon.Orchestrator().UpdateSettings(s.ctx, req.Settings); err != nil {
		return err
	}
	resp.Settings = s.daemon.Orchestrator().Settings()
	s.log().Info("settings saved via IPC",
		logging.String(logging.FieldEventType, "settings_saved"))
	return nil
}

func (s *service) HistoryList(_ HistoryListRequest, resp *HistoryListResponse) error {
	records, err := s.daemon.Store().ListCompleted(s.ctx)
	if err != nil {
		return err
	}
	resp.Completed = records
	return nil
}

func (s *service) ResumeList(_ ResumeListRequest, resp *ResumeListResponse) error {
	records, err := s.daemon.Store().ListResume(s.ctx)
	if err != nil {
		return err
	}
	resp.Resume = records
	return nil
}

func (s *service) HistoryExport(req HistoryExportRequest, resp *HistoryExportResponse) error {
	path := req.Path
	if path == "" {
		name := fmt.Sprintf("history-%s.json", time.Now().UTC().Format("20060102-150405"))
		path = filepath.Join(s.cfg.Paths.ExportDir, name)
	}
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return err
	}
	records, err := s.daemon.Store().ListCompleted(s.ctx)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}
	file, err := os.Create(expanded)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer file.Close()
	if err := s.daemon.Store().ExportCompleted(s.ctx, file); err != nil {
		return err
	}
	resp.Path = expanded
	resp.Count = len(records)
	s.log().Info("history exported",
		logging.String("path", expanded),
		logging.Int("records", len(records)),
		logging.String(logging.FieldEventType, "history_exported"))
	return nil
}

func (s *service) HistoryClear(_ HistoryClearRequest, resp *HistoryClearResponse) error {
	removed, err := s.daemon.Store().ClearCompleted(s.ctx)
	if err != nil {
		return err
	}
	resp.Removed = removed
	s.bus.Publish(events.HistoryCleared())
	s.log().Info("history cleared",
		logging.Int64("removed_count", removed),
		logging.String(logging.FieldEventType, "history_cleared"))
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status()
	resp.Running = status.Running
	resp.Draining = status.Orchestrator.Draining
	resp.QueueLength = status.Orchestrator.QueueLength
	resp.Active = status.Orchestrator.Active
	resp.HistoryDB = status.HistoryDB
	resp.LockPath = status.LockFilePath
	resp.SocketPath = status.SocketPath
	resp.PID = os.Getpid()
	return nil
}

func (s *service) Events(req EventsRequest, resp *EventsResponse) error {
	ctx := s.ctx
	wait := req.WaitMillis > 0
	if wait {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(s.ctx, time.Duration(req.WaitMillis)*time.Millisecond)
		defer cancel()
	}
	evts, next, err := s.bus.Fetch(ctx, req.Since, req.Limit, wait)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		return err
	}
	resp.Events = evts
	resp.Next = next
	return nil
}

func (s *service) StopDaemon(_ StopDaemonRequest, resp *StopDaemonResponse) error {
	s.log().Info("daemon shutdown requested via IPC",
		logging.String(logging.FieldEventType, "daemon_shutdown_requested"))
	if s.shutdown != nil {
		go s.shutdown()
	}
	resp.Stopping = true
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}
