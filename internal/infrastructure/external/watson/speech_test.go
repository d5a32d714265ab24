package watson

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/websocket"
	"go.uber.org/zap/zaptest"
	"golang.org/x/oauth2"

	"github.com/visually/visually-api/internal/usecase/video"
)

const forestResults = `{"result_index":0,"results":[{"final":true,"alternatives":[{"transcript":"a forest at dawn ","confidence":0.93,"timestamps":[["a",0.4,0.6],["forest",0.6,1.3],["at",1.3,1.5],["dawn",1.5,2.2]]}]}]}`

// fakeRecognizer speaks the recognize websocket protocol
func fakeRecognizer(t *testing.T, received *bytes.Buffer, frames ...string) *httptest.Server {
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/recognize" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("model") != "en-US_NarrowbandModel" {
			t.Errorf("unexpected model %q", r.URL.Query().Get("model"))
		}
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("unexpected authorization %q", r.Header.Get("Authorization"))
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		var start map[string]interface{}
		if err := conn.ReadJSON(&start); err != nil {
			t.Errorf("read start: %v", err)
			return
		}
		if start["action"] != "start" || start["timestamps"] != true || start["content-type"] != "audio/mpeg" {
			t.Errorf("unexpected start message: %v", start)
		}
		conn.WriteMessage(websocket.TextMessage, []byte(`{"state":"listening"}`))

		for {
			kind, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if kind == websocket.BinaryMessage {
				received.Write(data)
				continue
			}
			var action map[string]string
			json.Unmarshal(data, &action)
			if action["action"] == "stop" {
				break
			}
		}

		for _, frame := range frames {
			conn.WriteMessage(websocket.TextMessage, []byte(frame))
		}
		// wait for the client to hang up
		conn.ReadMessage()
	}))
}

func TestSpeechToText_Transcribe(t *testing.T) {
	var received bytes.Buffer
	ts := fakeRecognizer(t, &received,
		forestResults,
		`{"audio_metrics":{"sampling_interval":0.1,"accumulated":{"final":true,"end_time":8.0}}}`,
		`{"state":"listening"}`,
	)
	defer ts.Close()

	stt := NewSpeechToText(ts.URL, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"}), zaptest.NewLogger(t))
	audio := bytes.Repeat([]byte{0xff}, 3*audioChunkSize+17)

	stream, err := stt.Transcribe(context.Background(), video.TranscribeRequest{
		Audio:       bytes.NewReader(audio),
		ContentType: "audio/mpeg",
		Model:       "en-US_NarrowbandModel",
	})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	defer stream.Close()

	event, err := stream.Recv()
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if len(event.Results) != 1 || len(event.Results[0].Alternatives[0].Timestamps) != 4 {
		t.Fatalf("unexpected event: %+v", event)
	}
	if stamp := event.Results[0].Alternatives[0].Timestamps[1]; stamp.Word != "forest" || stamp.End != 1.3 {
		t.Errorf("unexpected timestamp: %+v", stamp)
	}

	if _, err := stream.Recv(); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
	if stream.AudioDuration() != 8.0 {
		t.Errorf("audio duration = %v, want 8", stream.AudioDuration())
	}
	if received.Len() != len(audio) {
		t.Errorf("server received %d bytes, want %d", received.Len(), len(audio))
	}
}

func TestSpeechToText_ServiceError(t *testing.T) {
	var received bytes.Buffer
	ts := fakeRecognizer(t, &received, `{"error":"unable to transcode data stream audio/mpeg -> audio/x-float-array"}`)
	defer ts.Close()

	stt := NewSpeechToText(ts.URL, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"}), nil)
	stream, err := stt.Transcribe(context.Background(), video.TranscribeRequest{
		Audio: bytes.NewReader([]byte("not audio")),
		Model: "en-US_NarrowbandModel",
	})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	defer stream.Close()

	if _, err := stream.Recv(); err == nil || err == io.EOF {
		t.Fatalf("expected service error, got %v", err)
	}
}

func TestRecognizeURL(t *testing.T) {
	stt := NewSpeechToText("https://api.us-south.speech-to-text.watson.cloud.ibm.com/instances/abc/", nil, nil)
	got, err := stt.recognizeURL("")
	if err != nil {
		t.Fatalf("recognizeURL: %v", err)
	}
	want := "wss://api.us-south.speech-to-text.watson.cloud.ibm.com/instances/abc/v1/recognize?model=en-US_BroadbandModel"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
