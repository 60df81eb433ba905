package engine

import (
	"context"

	"github.com/tillfalko/interpolation-engine/internal/chat"
	"github.com/tillfalko/interpolation-engine/internal/matheval"
	"github.com/tillfalko/interpolation-engine/internal/program"
	"github.com/tillfalko/interpolation-engine/internal/value"
)

func (e *Engine) cmdMath(state *program.State, snapshot *value.Map, task *value.Map) (Outcome, error) {
	input, err := requireString(task, "input", "math")
	if err != nil {
		return Outcome{}, err
	}
	name, err := requireString(task, "output_name", "math")
	if err != nil {
		return Outcome{}, err
	}
	n, err := matheval.Eval(snapshot, input, e.LoadCtx)
	if err != nil {
		return Outcome{}, err
	}
	state.Inserts.Set(name, value.Int(n))
	return Outcome{}, nil
}

var chatKnownFields = map[string]bool{
	"cmd": true, "line": true, "traceback_label": true,
	"messages": true, "output_name": true,
	"start_marker": true, "stop_marker": true,
	"hide_start": true, "hide_stop": true,
	"n": true, "shown": true, "enumerate": true,
	"choices_list": true, "voice_path": true, "voice_speaker": true,
}

func messagesFromValue(v value.Value) ([]chat.Message, bool) {
	items, ok := v.Seq()
	if !ok {
		return nil, false
	}
	out := make([]chat.Message, 0, len(items))
	for _, it := range items {
		m, ok := it.Map()
		if !ok {
			return nil, false
		}
		roleV, _ := m.Get("role")
		role, _ := roleV.String()
		contentV, _ := m.Get("content")
		content, _ := contentV.String()
		out = append(out, chat.Message{Role: role, Content: content})
	}
	return out, true
}

func (e *Engine) cmdChat(ctx context.Context, state *program.State, snapshot *value.Map, task *value.Map) (Outcome, error) {
	messagesV, ok := task.Get("messages")
	if !ok {
		return Outcome{}, newError(ErrType, "", "chat requires messages")
	}
	messages, ok := messagesFromValue(messagesV)
	if !ok {
		return Outcome{}, newError(ErrType, "", "chat.messages must be an array of {role,content} objects")
	}
	name, err := requireString(task, "output_name", "chat")
	if err != nil {
		return Outcome{}, err
	}

	completionArgs := e.Program.CompletionArgs
	if completionArgs == nil {
		completionArgs = value.NewMap()
	}
	completionArgs = completionArgs.Clone()
	for _, k := range task.Keys() {
		if chatKnownFields[k] {
			continue
		}
		v, _ := task.Get(k)
		completionArgs.Set(k, v)
	}

	startMarker, _ := getString(task, "start_marker")
	stopMarker, _ := getString(task, "stop_marker")
	hideStart, _ := getString(task, "hide_start")
	hideStop, _ := getString(task, "hide_stop")

	n := 1
	if v, ok := task.Get("n"); ok {
		if i, ok := v.Int64(); ok {
			n = int(i)
		}
	}
	shown := true
	if v, ok := task.Get("shown"); ok {
		if b, ok := v.Bool(); ok {
			shown = b
		}
	}
	enumerate := false
	if v, ok := task.Get("enumerate"); ok {
		if b, ok := v.Bool(); ok {
			enumerate = b
		}
	}
	var choicesList []string
	if v, ok := task.Get("choices_list"); ok {
		if items, ok := v.Seq(); ok {
			for _, it := range items {
				s, _ := it.String()
				choicesList = append(choicesList, s)
			}
		}
	}

	var sink *sentenceBuffer
	voicePath, hasVoice := getString(task, "voice_path")
	if hasVoice && voicePath != "" {
		voiceSpeaker, _ := getString(task, "voice_speaker")
		speaker, err := newProcSpeaker(ctx, voicePath, voiceSpeaker)
		if err != nil {
			return Outcome{}, newError(ErrIO, "", "chat: start tts: %v", err)
		}
		sink = newSentenceBuffer(speaker)
		e.setActiveSpeaker(speaker)
		defer func() {
			speaker.Stop()
			e.setActiveSpeaker(nil)
		}()
	}

	onText := func(chunk string) {
		e.IO.Print(chunk)
		if sink != nil {
			_ = sink.Feed(chunk)
		}
	}

	args := chat.Args{
		Messages:       messages,
		CompletionArgs: completionArgs,
		StartMarker:    startMarker,
		StopMarker:     stopMarker,
		HideStart:      hideStart,
		HideStop:       hideStop,
		N:              n,
		Shown:          shown,
		Enumerate:      enumerate,
		ChoicesList:    choicesList,
		Endpoint:       e.Endpoint,
		HTTPClient:     e.HTTPClient,
	}

	var result chat.Result
	for {
		select {
		case <-ctx.Done():
			return Outcome{}, ErrCancelled
		default:
		}
		result, err = chat.Run(ctx, args, onText)
		if err != nil {
			if sink != nil {
				_ = sink.Finish()
			}
			return Outcome{}, err
		}
		if len(result.Outputs) >= n {
			break
		}
		e.IO.Print("\n[retrying: fewer outputs than requested]\n")
		if err := chat.RetryLimiter.Wait(ctx); err != nil {
			return Outcome{}, ErrCancelled
		}
	}
	if sink != nil {
		_ = sink.Finish()
	}

	outputs := make([]value.Value, len(result.Outputs))
	for i, o := range result.Outputs {
		outputs[i] = value.Str(o)
	}
	state.Inserts.Set(name, value.Seq(outputs))
	return Outcome{}, nil
}

// cmdSpeak performs one synchronous utterance. Empty text stops whatever
// speaker a concurrently running chat's TTS sink currently has live,
// mirroring the single-buffered-writer-per-chat sink described in the
// concurrency design; non-empty text spawns its own ephemeral speaker.
func (e *Engine) cmdSpeak(ctx context.Context, task *value.Map) (Outcome, error) {
	text, _ := getString(task, "text")
	if text == "" {
		if active := e.getActiveSpeaker(); active != nil {
			_ = active.Stop()
		}
		return Outcome{}, nil
	}

	voicePath, err := requireString(task, "voice_path", "speak")
	if err != nil {
		return Outcome{}, err
	}
	voiceSpeaker, _ := getString(task, "voice_speaker")

	speaker, err := newProcSpeaker(ctx, voicePath, voiceSpeaker)
	if err != nil {
		return Outcome{}, newError(ErrIO, "", "speak: start tts: %v", err)
	}
	defer speaker.Stop()

	if err := speaker.Speak(text); err != nil {
		return Outcome{}, newError(ErrIO, "", "speak: %v", err)
	}
	return Outcome{}, nil
}

func (e *Engine) setActiveSpeaker(s Speaker) {
	e.speakerMu.Lock()
	defer e.speakerMu.Unlock()
	e.activeSpeaker = s
}

func (e *Engine) getActiveSpeaker() Speaker {
	e.speakerMu.Lock()
	defer e.speakerMu.Unlock()
	return e.activeSpeaker
}
