package jobscoordinator

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ArkinSolomon/xpkg-core/internal/telemetry"
	"github.com/ArkinSolomon/xpkg-core/pkg/jobsproto"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// Server upgrades worker connections to websockets and drives the
// handshake and job lifecycle over each one.
type Server struct {
	coordinator *Coordinator
	logger      *slog.Logger
}

// NewServer builds a jobs-coordinator Server.
func NewServer(coordinator *Coordinator, logger *slog.Logger) *Server {
	return &Server{coordinator: coordinator, logger: logger}
}

// ServeHTTP upgrades the request to a websocket and runs the per-connection
// handshake and job loop. One worker occupies one connection for the
// lifetime of one job.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("upgrading worker connection", "error", err)
		return
	}
	defer conn.Close()

	if err := s.handleConn(conn); err != nil {
		s.logger.Error("worker connection ended with error", "error", err)
	}
}

func (s *Server) handleConn(conn *websocket.Conn) error {
	if err := conn.WriteJSON(jobsproto.Message{Type: jobsproto.MsgTrustKey, TrustKey: s.coordinator.TrustKey()}); err != nil {
		return err
	}

	var pwMsg jobsproto.Message
	if err := conn.ReadJSON(&pwMsg); err != nil {
		return err
	}
	if pwMsg.Type != jobsproto.MsgServicePassword || !s.coordinator.VerifyServicePassword(pwMsg.ServicePassword) {
		return conn.Close()
	}

	if err := conn.WriteJSON(jobsproto.Message{Type: jobsproto.MsgAuthorized}); err != nil {
		return err
	}

	var jobMsg jobsproto.Message
	if err := conn.ReadJSON(&jobMsg); err != nil {
		return err
	}
	if jobMsg.Type != jobsproto.MsgJobData || jobMsg.Job == nil {
		return conn.Close()
	}

	key, err := s.coordinator.RegisterJob(*jobMsg.Job)
	if err != nil {
		return err
	}
	defer s.coordinator.Deregister(key)

	if err := conn.WriteJSON(jobsproto.Message{Type: jobsproto.MsgJobDataReceived}); err != nil {
		return err
	}

	return s.monitor(conn, key)
}

// monitor watches for the job exceeding its timeout (emitting abort) and
// for the worker's aborting/done acknowledgements, whichever comes first.
func (s *Server) monitor(conn *websocket.Conn, key string) error {
	incoming := make(chan jobsproto.Message)
	errs := make(chan error, 1)
	go func() {
		for {
			var msg jobsproto.Message
			if err := conn.ReadJSON(&msg); err != nil {
				errs <- err
				return
			}
			incoming <- msg
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	abortSent := false
	for {
		select {
		case msg := <-incoming:
			switch msg.Type {
			case jobsproto.MsgDone:
				return conn.WriteJSON(jobsproto.Message{Type: jobsproto.MsgGoodbye})
			case jobsproto.MsgAborting:
				// worker acknowledged the abort; it will follow with
				// done/aborted once it has unwound.
			default:
				return nil
			}
		case err := <-errs:
			return err
		case <-ticker.C:
			if !abortSent && s.coordinator.Expired(key) {
				if err := conn.WriteJSON(jobsproto.Message{Type: jobsproto.MsgAbort}); err != nil {
					return err
				}
				abortSent = true
				telemetry.JobsAbortedTotal.Inc()
			}
		}
	}
}
