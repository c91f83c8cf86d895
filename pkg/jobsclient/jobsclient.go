// Package jobsclient is the worker-side half of the trust-handshaked
// channel to the jobs coordinator (spec.md §4.5).
package jobsclient

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/ArkinSolomon/xpkg-core/pkg/jobsproto"
)

// Config holds a worker's coordinator connection parameters.
type Config struct {
	CoordinatorURL string
	// TrustHash is sha256(coordinator's trust secret), hex-encoded,
	// configured out of band on the worker so it never has to see the
	// plaintext in advance (spec.md §4.5 step 2).
	TrustHash string
	// ServicePassword is the shared secret presented back to the
	// coordinator (spec.md §4.5 step 3).
	ServicePassword string
}

// Channel is one authorized connection to the coordinator, open for the
// duration of a single job.
type Channel struct {
	conn *websocket.Conn
}

// Dial opens a websocket connection to the coordinator and performs the
// trust handshake (spec.md §4.5 steps 1-3). It returns once the
// coordinator has authorized the connection.
func Dial(cfg Config) (*Channel, error) {
	conn, _, err := websocket.DefaultDialer.Dial(cfg.CoordinatorURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing coordinator: %w", err)
	}

	var trustMsg jobsproto.Message
	if err := conn.ReadJSON(&trustMsg); err != nil {
		conn.Close()
		return nil, fmt.Errorf("reading trust key: %w", err)
	}
	if trustMsg.Type != jobsproto.MsgTrustKey || !verifyTrustKey(cfg.TrustHash, trustMsg.TrustKey) {
		conn.Close()
		return nil, fmt.Errorf("coordinator trust key did not match the configured trust hash")
	}

	if err := conn.WriteJSON(jobsproto.Message{Type: jobsproto.MsgServicePassword, ServicePassword: cfg.ServicePassword}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sending service password: %w", err)
	}

	var authMsg jobsproto.Message
	if err := conn.ReadJSON(&authMsg); err != nil {
		conn.Close()
		return nil, fmt.Errorf("reading authorization: %w", err)
	}
	if authMsg.Type != jobsproto.MsgAuthorized {
		conn.Close()
		return nil, fmt.Errorf("coordinator refused authorization")
	}

	return &Channel{conn: conn}, nil
}

func verifyTrustKey(configuredHash, received string) bool {
	sum := sha256.Sum256([]byte(received))
	return subtle.ConstantTimeCompare([]byte(hex.EncodeToString(sum[:])), []byte(configuredHash)) == 1
}

// RegisterJob sends the job descriptor and waits for the coordinator's
// job_data_received acknowledgement. Only after this call may the worker
// perform externally visible operations (spec.md §4.5 step 4).
func (c *Channel) RegisterJob(job jobsproto.Job) error {
	if err := c.conn.WriteJSON(jobsproto.Message{Type: jobsproto.MsgJobData, Job: &job}); err != nil {
		return fmt.Errorf("sending job data: %w", err)
	}

	var ack jobsproto.Message
	if err := c.conn.ReadJSON(&ack); err != nil {
		return fmt.Errorf("reading job data acknowledgement: %w", err)
	}
	if ack.Type != jobsproto.MsgJobDataReceived {
		return fmt.Errorf("coordinator did not acknowledge job data")
	}
	return nil
}

// Aborts returns a channel that receives a value the moment the
// coordinator emits an abort signal. The channel is closed (with no value)
// if the connection closes first, e.g. on graceful completion. The pipeline
// runs concurrently with a read from this channel so it can unwind as soon
// as an abort arrives (spec.md §4.5 "the coordinator may emit abort at any
// time").
func (c *Channel) Aborts() <-chan struct{} {
	out := make(chan struct{})
	go func() {
		defer close(out)
		for {
			var msg jobsproto.Message
			if err := c.conn.ReadJSON(&msg); err != nil {
				return
			}
			if msg.Type == jobsproto.MsgAbort {
				out <- struct{}{}
				return
			}
		}
	}()
	return out
}

// AcknowledgeAbort sends the aborting frame once the worker has begun
// unwinding in response to an abort signal.
func (c *Channel) AcknowledgeAbort() error {
	return c.conn.WriteJSON(jobsproto.Message{Type: jobsproto.MsgAborting})
}

// Done reports completion to the coordinator and waits for its goodbye.
func (c *Channel) Done(reason jobsproto.DoneReason) error {
	if err := c.conn.WriteJSON(jobsproto.Message{Type: jobsproto.MsgDone, Reason: reason}); err != nil {
		return fmt.Errorf("sending done: %w", err)
	}

	var goodbye jobsproto.Message
	if err := c.conn.ReadJSON(&goodbye); err != nil {
		return fmt.Errorf("reading goodbye: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (c *Channel) Close() error {
	return c.conn.Close()
}
