package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/visually/visually-api/internal/domain/entities"
	"github.com/visually/visually-api/internal/usecase/video"
	"github.com/visually/visually-api/pkg/config"
	"github.com/visually/visually-api/pkg/jobcontext"
)

type fakeRunner struct {
	plan    *video.Plan
	err     error
	inputs  []video.Input
	modes   []string
	renders int
}

func (f *fakeRunner) Plan(ctx context.Context, in video.Input) (*video.Plan, error) {
	f.inputs = append(f.inputs, in)
	mode, _ := jobcontext.GetRunMode(ctx)
	f.modes = append(f.modes, mode)
	return f.plan, f.err
}

func (f *fakeRunner) Run(ctx context.Context, in video.Input) (*video.Result, error) {
	f.renders++
	if _, err := f.Plan(ctx, in); err != nil {
		return nil, err
	}
	if in.OnSubmitted != nil {
		in.OnSubmitted(entities.RenderJob{ID: "r-42", Status: entities.RenderJobStatusPending})
	}
	return &video.Result{Plan: *f.plan, VideoURL: "https://cdn.test/out.mp4", ProcessingTime: 3 * time.Second}, nil
}

func forestPlan() *video.Plan {
	term := entities.RankedTerm{Kind: entities.TermKindKeyword, Text: "forest", Relevance: 0.97}
	clip := entities.Clip{ID: 1, SourceURL: "https://cdn.test/forest.mp4", DurationSeconds: 8}
	return &video.Plan{
		Transcription: entities.Transcription{
			Text: "a forest at dawn. ",
			Sentences: []entities.Sentence{{
				Transcript: "a forest at dawn. ",
				Duration:   8,
				Timestamps: []entities.Timestamp{{Word: "a", Start: 0.4, End: 0.6}, {Word: "dawn", Start: 1.5, End: 2.0}},
				Analysis:   entities.Analysis{Rank: []entities.RankedTerm{term}, FetchedVideoFor: &term},
				Videos:     []entities.Clip{clip},
			}},
			Statistics: entities.Statistics{SentencesCount: 1, AudioDurationSeconds: 8},
		},
		Timeline: entities.Timeline{
			Assets:        []entities.TimelineAsset{{Clip: clip}},
			TotalDuration: 8,
		},
	}
}

func runCLI(t *testing.T, runner *fakeRunner, args ...string) (string, string, error) {
	t.Helper()
	cctx := &commandContext{
		loadConfig: func(string) (*config.Config, error) {
			return &config.Config{Server: config.ServerConfig{RunTimeout: time.Minute}}, nil
		},
		newRunner: func(context.Context, *config.Config, *zap.Logger, bool) (video.Runner, func(), error) {
			return runner, func() {}, nil
		},
		logger: zaptest.NewLogger(t),
	}
	cmd := newRootCommand(cctx)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestPlanCommand(t *testing.T) {
	runner := &fakeRunner{plan: forestPlan()}
	out, _, err := runCLI(t, runner, "plan", "narration.mp3", "--model", "en-GB_BroadbandModel")
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	for _, want := range []string{"a forest at dawn.", "forest (0.97)", "https://cdn.test/forest.mp4", "1 sentences"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if runner.renders != 0 {
		t.Error("plan must not render")
	}
	in := runner.inputs[0]
	if in.AudioPath != "narration.mp3" || in.Model != "en-GB_BroadbandModel" || !in.RetainLocal {
		t.Errorf("input = %+v", in)
	}
	if runner.modes[0] != jobcontext.ModeCLI {
		t.Errorf("run mode = %q", runner.modes[0])
	}
}

func TestPlanCommand_JSON(t *testing.T) {
	out, _, err := runCLI(t, &fakeRunner{plan: forestPlan()}, "plan", "narration.mp3", "--json")
	if err != nil {
		t.Fatalf("plan --json: %v", err)
	}
	var plan video.Plan
	if err := json.Unmarshal([]byte(out), &plan); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if plan.Timeline.TotalDuration != 8 || plan.Transcription.Sentences[0].Timestamps[1].Word != "dawn" {
		t.Errorf("plan = %+v", plan)
	}
}

func TestRenderCommand(t *testing.T) {
	runner := &fakeRunner{plan: forestPlan()}
	out, errOut, err := runCLI(t, runner, "render", "narration.mp3")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "video: https://cdn.test/out.mp4") {
		t.Errorf("output = %s", out)
	}
	if !strings.Contains(errOut, "render submitted: r-42") {
		t.Errorf("stderr = %s", errOut)
	}
	if !runner.inputs[0].RetainLocal {
		t.Error("CLI renders must keep the user's file")
	}
}

func TestRenderCommand_Errors(t *testing.T) {
	boom := errors.New("footage service: status 500")
	if _, _, err := runCLI(t, &fakeRunner{err: boom}, "render", "narration.mp3"); !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
	if _, _, err := runCLI(t, &fakeRunner{}, "render"); err == nil {
		t.Error("expected an error without an audio argument")
	}
}
