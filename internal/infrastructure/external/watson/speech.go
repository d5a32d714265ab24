package watson

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/visually/visually-api/internal/domain/entities"
	"github.com/visually/visually-api/internal/usecase/video"
)

const (
	DefaultModel = "en-US_BroadbandModel"

	audioChunkSize = 32 * 1024
	stateListening = "listening"
)

// SpeechToText streams audio to the Watson Speech to Text websocket interface
type SpeechToText struct {
	serviceURL string
	tokens     oauth2.TokenSource
	dialer     *websocket.Dialer
	logger     *zap.Logger
}

// NewSpeechToText creates a recogniser for the service instance at serviceURL
func NewSpeechToText(serviceURL string, tokens oauth2.TokenSource, logger *zap.Logger) *SpeechToText {
	return &SpeechToText{
		serviceURL: strings.TrimSuffix(serviceURL, "/"),
		tokens:     tokens,
		dialer:     &websocket.Dialer{HandshakeTimeout: 30 * time.Second},
		logger:     logger,
	}
}

type startAction struct {
	Action            string `json:"action"`
	ContentType       string `json:"content-type"`
	Timestamps        bool   `json:"timestamps"`
	AudioMetrics      bool   `json:"audio_metrics"`
	InterimResults    bool   `json:"interim_results"`
	InactivityTimeout int    `json:"inactivity_timeout"`
}

type stopAction struct {
	Action string `json:"action"`
}

// message is any frame the service sends back
type message struct {
	State        string                       `json:"state,omitempty"`
	Error        string                       `json:"error,omitempty"`
	ResultIndex  int                          `json:"result_index"`
	Results      []entities.RecognitionResult `json:"results,omitempty"`
	AudioMetrics *struct {
		Accumulated struct {
			Final   bool    `json:"final"`
			EndTime float64 `json:"end_time"`
		} `json:"accumulated"`
	} `json:"audio_metrics,omitempty"`
}

// Transcribe opens a recognition session and starts streaming req.Audio
func (s *SpeechToText) Transcribe(ctx context.Context, req video.TranscribeRequest) (video.TranscriptionStream, error) {
	token, err := s.tokens.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to get IAM token: %w", err)
	}

	endpoint, err := s.recognizeURL(req.Model)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	token.SetAuthHeader(&http.Request{Header: header})

	conn, resp, err := s.dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("failed to open recognize session: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("failed to open recognize session: %w", err)
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	if err := conn.WriteJSON(startAction{
		Action:            "start",
		ContentType:       contentType,
		Timestamps:        true,
		AudioMetrics:      true,
		InactivityTimeout: -1,
	}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to start recognition: %w", err)
	}

	streamCtx, cancel := context.WithCancel(ctx)
	stream := &recognizeStream{
		conn:   conn,
		events: make(chan entities.RecognitionEvent, 16),
		cancel: cancel,
		logger: s.logger,
	}
	go stream.send(streamCtx, req.Audio)
	go stream.receive(streamCtx)

	// unblock the reader when the caller gives up
	go func() {
		<-streamCtx.Done()
		conn.Close()
	}()

	return stream, nil
}

func (s *SpeechToText) recognizeURL(model string) (string, error) {
	u, err := url.Parse(s.serviceURL)
	if err != nil {
		return "", fmt.Errorf("invalid speech to text url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/v1/recognize"

	if model == "" {
		model = DefaultModel
	}
	q := u.Query()
	q.Set("model", model)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// recognizeStream implements video.TranscriptionStream over one websocket session
type recognizeStream struct {
	conn   *websocket.Conn
	events chan entities.RecognitionEvent
	cancel context.CancelFunc
	logger *zap.Logger

	mu       sync.Mutex
	err      error
	duration float64
}

// send streams the audio in binary frames, then asks the service to finish
func (r *recognizeStream) send(ctx context.Context, audio io.Reader) {
	buf := make([]byte, audioChunkSize)
	for {
		if ctx.Err() != nil {
			return
		}
		n, err := audio.Read(buf)
		if n > 0 {
			if werr := r.conn.WriteMessage(websocket.BinaryMessage, buf[:n]); werr != nil {
				r.fail(fmt.Errorf("failed to send audio: %w", werr))
				return
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			r.fail(fmt.Errorf("failed to read audio: %w", err))
			return
		}
	}

	if err := r.conn.WriteJSON(stopAction{Action: "stop"}); err != nil {
		r.fail(fmt.Errorf("failed to stop recognition: %w", err))
	}
}

// receive forwards results until the service returns to the listening state
// a second time, which marks the end of the recognition
func (r *recognizeStream) receive(ctx context.Context) {
	defer close(r.events)

	listening := 0
	for {
		_, data, err := r.conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				r.fail(fmt.Errorf("recognize session closed: %w", err))
			}
			return
		}

		var msg message
		if err := json.Unmarshal(data, &msg); err != nil {
			r.fail(fmt.Errorf("invalid recognize message: %w", err))
			return
		}

		switch {
		case msg.Error != "":
			r.fail(fmt.Errorf("speech to text: %s", msg.Error))
			return
		case msg.AudioMetrics != nil:
			r.mu.Lock()
			r.duration = msg.AudioMetrics.Accumulated.EndTime
			r.mu.Unlock()
		case msg.Results != nil:
			event := entities.RecognitionEvent{ResultIndex: msg.ResultIndex, Results: msg.Results}
			select {
			case r.events <- event:
			case <-ctx.Done():
				return
			}
		case msg.State == stateListening:
			listening++
			if listening > 1 {
				if r.logger != nil {
					r.logger.Debug("recognition finished", zap.Float64("audio_duration", r.AudioDuration()))
				}
				return
			}
		}
	}
}

func (r *recognizeStream) fail(err error) {
	r.mu.Lock()
	if r.err == nil {
		r.err = err
	}
	r.mu.Unlock()
	r.cancel()
}

// Recv returns the next recognition event, or io.EOF once the session ended
func (r *recognizeStream) Recv() (entities.RecognitionEvent, error) {
	event, ok := <-r.events
	if ok {
		return event, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return entities.RecognitionEvent{}, r.err
	}
	return entities.RecognitionEvent{}, io.EOF
}

// AudioDuration is the total audio length reported by the service
func (r *recognizeStream) AudioDuration() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.duration
}

// Close ends the session
func (r *recognizeStream) Close() error {
	r.cancel()
	return nil
}
