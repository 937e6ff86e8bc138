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

	"twinkle/internal/daemon"
	"twinkle/internal/ledger"
	"twinkle/internal/logging"
	"twinkle/internal/store"
)

// ServiceName is the JSON-RPC service the daemon registers.
const ServiceName = "Twinkle"

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create socket directory: %w", err)
	}
	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: serverCtx}
	if err := rpcServer.RegisterName(ServiceName, srv); err != nil {
		cancel()
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	return &Server{
		path:      path,
		daemon:    d,
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
				if errors.Is(err, net.ErrClosed) {
					return
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
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
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String("component", "ipc"))
}

func toStats(st store.Stats) Stats {
	return Stats{
		FilesOrganized: st.FilesOrganized,
		FoldersCreated: st.FoldersCreated,
		TimeSavedHours: st.TimeSavedHours,
	}
}

func toFolders(folders []daemon.FolderStatus) []FolderStatus {
	out := make([]FolderStatus, 0, len(folders))
	for _, f := range folders {
		out = append(out, FolderStatus{Path: f.Path, Watching: f.Watching, Subfolder: f.Subfolder})
	}
	return out
}

func toAction(a ledger.Action) Action {
	e := ledger.ToEntry(a)
	return Action{
		ID:     e.ID,
		Kind:   string(e.Type),
		Time:   e.Timestamp,
		From:   e.From,
		To:     e.To,
		Folder: e.Folder,
	}
}

func (s *service) Status(req StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx, req.CheckOracle)
	resp.Running = status.Running
	resp.PID = status.PID
	resp.StartedAt = status.StartedAt
	resp.Folders = toFolders(status.Folders)
	resp.Stats = toStats(status.Stats)
	resp.HistoryLen = status.HistoryLen
	resp.Oracle = OracleStatus{
		Provider: status.Oracle.Provider,
		Model:    status.Oracle.Model,
		Checked:  status.Oracle.Checked,
		Ready:    status.Oracle.Ready,
		Detail:   status.Oracle.Detail,
	}
	resp.StoreBackend = status.StoreBackend
	resp.StorePath = status.StorePath
	resp.LockPath = status.LockFilePath
	resp.LogPath = status.LogPath
	resp.RescanSchedule = status.RescanSchedule
	resp.NextRescan = status.NextRescan
	return nil
}

func (s *service) ListFolders(_ ListFoldersRequest, resp *ListFoldersResponse) error {
	resp.Folders = toFolders(s.daemon.Folders())
	return nil
}

func (s *service) AddFolder(req AddFolderRequest, resp *AddFolderResponse) error {
	s.log().Debug("add folder requested", logging.String(logging.FieldFolder, req.Path))
	path, added, err := s.daemon.AddFolder(s.ctx, req.Path)
	if err != nil {
		return err
	}
	resp.Path = path
	resp.Added = added
	return nil
}

func (s *service) RemoveFolder(req RemoveFolderRequest, resp *RemoveFolderResponse) error {
	s.log().Debug("remove folder requested", logging.String(logging.FieldFolder, req.Path))
	path, removed, err := s.daemon.RemoveFolder(s.ctx, req.Path)
	if err != nil {
		return err
	}
	resp.Path = path
	resp.Removed = removed
	if removed {
		s.log().Info("folder removed via IPC",
			logging.String(logging.FieldEventType, "folder_unsaved"),
			logging.String(logging.FieldFolder, path))
	}
	return nil
}

func (s *service) Rescan(req RescanRequest, resp *RescanResponse) error {
	folders, err := s.daemon.Rescan(req.Path)
	if err != nil {
		return err
	}
	resp.Folders = folders
	return nil
}

func (s *service) History(req HistoryRequest, resp *HistoryResponse) error {
	actions := s.daemon.History(req.Limit)
	resp.Actions = make([]Action, 0, len(actions))
	for _, a := range actions {
		resp.Actions = append(resp.Actions, toAction(a))
	}
	return nil
}

func (s *service) Undo(_ UndoRequest, resp *UndoResponse) error {
	s.log().Debug("undo requested")
	result, err := s.daemon.Undo(s.ctx)
	if err != nil {
		return err
	}
	resp.Status = string(result.Status)
	resp.Message = result.Message
	if result.Action != nil {
		action := toAction(result.Action)
		resp.Action = &action
	}
	return nil
}

func (s *service) Stats(_ StatsRequest, resp *StatsResponse) error {
	resp.Stats = toStats(s.daemon.Stats())
	return nil
}

func (s *service) Activity(req ActivityRequest, resp *ActivityResponse) error {
	resp.Entries = s.daemon.Activity(req.Limit)
	return nil
}

func (s *service) Classify(req ClassifyRequest, resp *ClassifyResponse) error {
	verdict, dest, err := s.daemon.Classify(s.ctx, req.Path)
	if err != nil {
		return err
	}
	resp.Category = verdict.Category
	resp.Confidence = verdict.Confidence
	resp.SuggestedFolder = verdict.SuggestedFolder
	resp.Reasoning = verdict.Reasoning
	resp.Source = string(verdict.Source)
	resp.Destination = dest
	return nil
}

func (s *service) Logs(req LogsRequest, resp *LogsResponse) error {
	hub := s.daemon.LogHub()
	if hub == nil {
		resp.Next = req.Since
		return nil
	}
	if archive := s.daemon.LogArchive(); archive != nil && !req.Follow && req.Tail <= 0 && req.Since+1 < hub.FirstSequence() {
		events, _, err := archive.ReadSince(req.Since, req.Limit)
		if err != nil {
			return err
		}
		if len(events) > 0 {
			resp.Events = events
			resp.Next = events[len(events)-1].Sequence
			return nil
		}
	}
	if req.Since == 0 && req.Tail > 0 {
		events, next := hub.Tail(req.Tail)
		resp.Events = events
		resp.Next = next
		return nil
	}
	wait := time.Duration(req.WaitMillis) * time.Millisecond
	if wait <= 0 && req.Follow {
		wait = time.Second
	}
	ctx := s.ctx
	if req.Follow {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(s.ctx, wait)
		defer cancel()
	}
	events, next, err := hub.Fetch(ctx, req.Since, req.Limit, req.Follow)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		return err
	}
	resp.Events = events
	resp.Next = next
	if len(events) > 0 {
		resp.Next = events[len(events)-1].Sequence
	}
	if resp.Next < req.Since {
		resp.Next = req.Since
	}
	return nil
}
