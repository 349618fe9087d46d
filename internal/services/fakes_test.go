package services

import (
	"context"
	"encoding/json"
	"sync"

	"lasyfinance/internal/llm"
)

// fakeLLM answers with canned output and records the prompts it receives.
// A blocking fake waits for the context to end, like a stalled model call.
type fakeLLM struct {
	available     bool
	blocking      bool
	extracted     string
	extractErr    error
	completion    string
	completeErr   error
	transcript    string
	transcribeErr error

	mu            sync.Mutex
	extractCalls  int
	completeCalls int
	languages     []string
}

func (f *fakeLLM) Available() bool { return f.available }

func (f *fakeLLM) Complete(ctx context.Context, _, _ string) (string, error) {
	f.mu.Lock()
	f.completeCalls++
	f.mu.Unlock()
	if f.blocking {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.completion, f.completeErr
}

func (f *fakeLLM) ExtractJSON(ctx context.Context, _, _ string, out interface{}) error {
	f.mu.Lock()
	f.extractCalls++
	f.mu.Unlock()
	if f.blocking {
		<-ctx.Done()
		return ctx.Err()
	}
	if f.extractErr != nil {
		return f.extractErr
	}
	return json.Unmarshal([]byte(llm.CleanJSON(f.extracted)), out)
}

func (f *fakeLLM) Transcribe(_ context.Context, _ []byte, _, language string) (string, error) {
	f.mu.Lock()
	f.languages = append(f.languages, language)
	f.mu.Unlock()
	return f.transcript, f.transcribeErr
}

type sentMessage struct {
	to   string
	body string
}

// fakeMessenger records outbound messages instead of calling the Cloud API.
// Sends on a finished context fail without being recorded.
type fakeMessenger struct {
	available   bool
	sendErr     error
	media       []byte
	mediaMIME   string
	downloadErr error

	mu   sync.Mutex
	sent []sentMessage
}

func (f *fakeMessenger) Available() bool { return f.available }

func (f *fakeMessenger) SendText(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{to: to, body: body})
	return f.sendErr
}

func (f *fakeMessenger) DownloadMedia(_ context.Context, _ string) ([]byte, string, error) {
	if f.downloadErr != nil {
		return nil, "", f.downloadErr
	}
	return f.media, f.mediaMIME, nil
}

func (f *fakeMessenger) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}
