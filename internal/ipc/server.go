package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"log/slog"

	"numcheck/internal/daemon"
	"numcheck/internal/logging"
)

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

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logging.NewComponentLogger(logger, "ipc"), ctx: ctx}
	if err := rpcServer.RegisterName("Numcheck", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
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
	s.logger.Debug("ipc server listening", logging.String("socket", s.path))
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
					logging.String(logging.FieldEventType, "ipc_accept_failed"))
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
			logging.Error(err))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) Ping(_ PingRequest, resp *PingResponse) error {
	resp.PID = os.Getpid()
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status()
	resp.Running = status.Running
	resp.PID = status.PID
	resp.LockPath = status.LockPath
	resp.HistoryDBPath = status.DBPath
	resp.State = status.Supervisor.State
	resp.ActiveSession = status.Supervisor.ActiveSession
	resp.SelfID = status.Supervisor.SelfID
	resp.QRPending = status.Supervisor.QRPending
	resp.LastError = status.Supervisor.LastError
	resp.Sessions = status.Supervisor.Sessions
	resp.Capacity = status.Supervisor.Capacity
	resp.KnownUsers = status.KnownUsers
	resp.Public = status.Public
	return nil
}

func (s *service) Sessions(_ SessionsRequest, resp *SessionsResponse) error {
	status := s.daemon.Status()
	resp.Sessions = status.Supervisor.Sessions
	resp.Active = status.Supervisor.ActiveSession
	resp.Capacity = status.Supervisor.Capacity
	return nil
}

func (s *service) RemoveSession(req RemoveSessionRequest, resp *RemoveSessionResponse) error {
	if req.Name == "" {
		return errors.New("session name required")
	}
	if err := s.daemon.RemoveSession(req.Name); err != nil {
		return err
	}
	resp.Removed = true
	s.logger.Info("session removed via ipc",
		logging.String(logging.FieldSession, req.Name),
		logging.String(logging.FieldEventType, "session_removed"))
	return nil
}

func (s *service) Pair(req PairRequest, resp *PairResponse) error {
	if req.Phone == "" {
		return errors.New("phone identifier required")
	}
	code, err := s.daemon.Pair(s.ctx, req.Phone)
	if err != nil {
		return err
	}
	resp.Code = code
	return nil
}

func (s *service) QR(_ QRRequest, resp *QRResponse) error {
	resp.Payload = s.daemon.QRPayload()
	return nil
}

func (s *service) Verify(req VerifyRequest, resp *VerifyResponse) error {
	if len(req.IDs) == 0 {
		return errors.New("verify requires at least one identifier")
	}
	outcome, err := s.daemon.Verify(s.ctx, req.Kind, req.IDs, "", nil)
	if err != nil {
		return err
	}
	s.fillVerify(resp, outcome)
	return nil
}

func (s *service) Range(req RangeRequest, resp *VerifyResponse) error {
	if req.Prefix == "" {
		return errors.New("range requires a prefix")
	}
	outcome, err := s.daemon.VerifyRange(s.ctx, req.Prefix, req.Start, req.End, "", nil)
	if err != nil {
		return err
	}
	s.fillVerify(resp, outcome)
	return nil
}

func (s *service) fillVerify(resp *VerifyResponse, outcome *daemon.VerifyOutcome) {
	summary := outcome.Summary
	resp.JobID = summary.JobID
	resp.Kind = string(summary.Kind)
	resp.Label = summary.Label
	resp.Total = summary.Total
	resp.Registered = summary.Registered
	resp.Unregistered = summary.Unregistered
	resp.Failed = summary.Failed
	resp.ReportPath = outcome.ReportPath
	resp.ReportText = s.daemon.ReportText(summary)
	for _, rej := range summary.Rejected {
		resp.RejectedRaw = append(resp.RejectedRaw, rej.Raw)
	}
	resp.Results = make([]VerifyResult, 0, len(summary.Results))
	for _, res := range summary.Results {
		out := VerifyResult{
			ID:            res.ID,
			Registered:    res.Registered,
			Confidence:    res.Confidence,
			Repetitive:    res.Repetitive,
			Bio:           res.Bio,
			Business:      res.Business,
			BioConfidence: res.BioConfidence,
			Err:           res.Err,
		}
		if res.BioSetAt != nil {
			out.BioYear = res.BioSetAt.Year()
		}
		resp.Results = append(resp.Results, out)
	}
}

func (s *service) Appeal(req AppealRequest, resp *AppealResponse) error {
	if req.ID == "" {
		return errors.New("appeal requires an identifier")
	}
	subject, err := s.daemon.Appeal(s.ctx, req.ID, "")
	if err != nil {
		return err
	}
	resp.Subject = subject
	return nil
}

func (s *service) History(req HistoryRequest, resp *HistoryResponse) error {
	jobs, err := s.daemon.RecentJobs(s.ctx, req.Limit)
	if err != nil {
		return err
	}
	resp.Jobs = make([]HistoryJob, 0, len(jobs))
	for _, job := range jobs {
		resp.Jobs = append(resp.Jobs, HistoryJob{
			ID:           job.ID,
			Kind:         job.Kind,
			RequestedBy:  job.RequestedBy,
			Total:        job.Total,
			Registered:   job.Registered,
			Unregistered: job.Unregistered,
			Failed:       job.Failed,
			ReportPath:   job.ReportPath,
			FinishedAt:   job.FinishedAt,
		})
	}
	return nil
}

func (s *service) Access(req AccessRequest, resp *AccessResponse) error {
	switch req.Action {
	case "allow-add":
		if err := s.daemon.AllowAdd(req.ID); err != nil {
			return err
		}
		resp.IDs = s.daemon.AllowList()
	case "allow-remove":
		if err := s.daemon.AllowRemove(req.ID); err != nil {
			return err
		}
		resp.IDs = s.daemon.AllowList()
	case "allow-list":
		resp.IDs = s.daemon.AllowList()
	case "admin-add":
		if err := s.daemon.AdminAdd(req.ID); err != nil {
			return err
		}
		resp.IDs = s.daemon.AdminList()
	case "admin-remove":
		if err := s.daemon.AdminRemove(req.ID); err != nil {
			return err
		}
		resp.IDs = s.daemon.AdminList()
	case "admin-list":
		resp.IDs = s.daemon.AdminList()
	case "premium-grant":
		if _, err := s.daemon.PremiumGrant(req.ID, req.Days); err != nil {
			return err
		}
		fillGrants(s, resp)
	case "premium-revoke":
		if err := s.daemon.PremiumRevoke(req.ID); err != nil {
			return err
		}
		fillGrants(s, resp)
	case "premium-list":
		fillGrants(s, resp)
	case "public-on":
		return s.daemon.SetPublic(true)
	case "public-off":
		return s.daemon.SetPublic(false)
	case "maintenance-on":
		return s.daemon.SetMaintenance(true)
	case "maintenance-off":
		return s.daemon.SetMaintenance(false)
	case "limit-set":
		if req.ID == "" {
			return errors.New("limit-set requires a user identifier")
		}
		return s.daemon.SetFixLimit(req.ID, req.Limit)
	default:
		return fmt.Errorf("unknown access action %q", req.Action)
	}
	return nil
}

func (s *service) Template(req TemplateRequest, resp *TemplateResponse) error {
	switch req.Action {
	case "add":
		if _, err := s.daemon.TemplateAdd(req.To, req.Subject, req.Body); err != nil {
			return err
		}
	case "remove":
		if err := s.daemon.TemplateRemove(req.ID); err != nil {
			return err
		}
	case "activate":
		if err := s.daemon.TemplateActivate(req.ID); err != nil {
			return err
		}
	case "list":
	default:
		return fmt.Errorf("unknown template action %q", req.Action)
	}

	templates, active := s.daemon.TemplateList()
	resp.Templates = make([]TemplateInfo, 0, len(templates))
	for _, tpl := range templates {
		resp.Templates = append(resp.Templates, TemplateInfo{
			ID:      tpl.ID,
			To:      tpl.To,
			Subject: tpl.Subject,
			Active:  tpl.ID == active,
		})
	}
	return nil
}

func (s *service) UserInfo(req UserInfoRequest, resp *UserInfoResponse) error {
	if req.ID == "" {
		resp.IDs = s.daemon.UserIDs()
		return nil
	}
	rec, ok := s.daemon.UserInfo(req.ID)
	if !ok {
		return nil
	}
	resp.Known = true
	resp.FirstSeen = rec.FirstSeen
	resp.LastSeen = rec.LastSeen
	resp.LastFix = rec.LastFix
	resp.Jobs = rec.Jobs
	resp.FixLimit = rec.FixLimit
	return nil
}

func fillGrants(s *service, resp *AccessResponse) {
	for _, grant := range s.daemon.PremiumList() {
		resp.IDs = append(resp.IDs, grant.ID)
		resp.Expires = append(resp.Expires, grant.Expires.Format("2006-01-02 15:04"))
	}
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}
