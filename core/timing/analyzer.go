package timing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/toriisent/yeezyplayer-store/config"
	"github.com/toriisent/yeezyplayer-store/core/lyrics"
	"github.com/toriisent/yeezyplayer-store/logger"
	"github.com/toriisent/yeezyplayer-store/model"

	openai "github.com/sashabaranov/go-openai"
)

// ErrNotConfigured is returned by NewAnalyzer when no API key is set.
// A missing credential is a configuration problem and is reported to
// the operator as "AI timing unavailable", never silently converted
// into a heuristic fallback.
var ErrNotConfigured = errors.New("timing: OpenAI API key not configured")

const systemPrompt = `You are an expert in music timing and lyrics synchronization. Given lyrics text, estimate realistic timing for each word based on typical song patterns.

Return a JSON object with a "lines" array where each element represents a line with this structure:
{
  "time": <start_time_in_seconds>,
  "words": [
    {
      "word": "<word>",
      "start": <start_time_in_seconds>,
      "end": <end_time_in_seconds>
    }
  ]
}

Guidelines:
- Average song tempo is 120 BPM (2 beats per second)
- Average word duration is 0.3-0.6 seconds
- Leave small gaps (0.1-0.2s) between words
- Consider natural breathing pauses between lines
- Typical verse line lasts 3-5 seconds
- Chorus lines might be faster/slower based on energy`

// Result is the outcome of a timing analysis. Fallback is true when
// the heuristic cadence was used because the AI call failed or returned
// an unusable shape, so the UI can tell the operator which timing they
// got.
type Result struct {
	Document model.LyricDocument `json:"timedLyrics"`
	Fallback bool                `json:"usedFallback"`
}

// Analyzer estimates per-word lyric timing by delegating to an OpenAI
// chat model, falling back to the fixed-cadence generator when the
// service misbehaves.
type Analyzer struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewAnalyzer creates an Analyzer from configuration. Returns
// ErrNotConfigured when the API key is absent.
func NewAnalyzer(cfg *config.Config) (*Analyzer, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, ErrNotConfigured
	}

	clientConfig := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		clientConfig.BaseURL = cfg.OpenAIBaseURL
	}

	timeout := time.Duration(cfg.AITimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	return &Analyzer{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   cfg.OpenAIModel,
		timeout: timeout,
	}, nil
}

// Analyze requests word-level timing estimates for the given lyrics.
// audioURL is passed along as context for the model; rawLyrics is the
// operator's pasted text. The call is single-attempt with a timeout;
// any transport, status or parse failure degrades to the heuristic
// generator on the same text and flags the result as a fallback.
// Analyze only returns an error when ctx itself was cancelled by the
// caller (editor closed) before the fallback could be produced.
func (a *Analyzer) Analyze(ctx context.Context, audioURL, rawLyrics string) (Result, error) {
	reqCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	doc, err := a.request(reqCtx, audioURL, rawLyrics)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		logger.Warn("AI timing failed, using heuristic fallback", logger.ErrorField(err))
		return Result{Document: lyrics.Generate(rawLyrics), Fallback: true}, nil
	}

	return Result{Document: lyrics.Normalize(doc)}, nil
}

func (a *Analyzer) request(ctx context.Context, audioURL, rawLyrics string) (model.LyricDocument, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Please analyze these lyrics and provide timing estimates.\nAudio reference: %s\n\n%s", audioURL, rawLyrics),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	return decodeDocument(resp.Choices[0].Message.Content)
}

// decodeDocument parses the model's JSON answer into a document and
// validates its shape. Any mismatch is rejected so the caller falls
// back, rather than trusting whatever the external service produced.
func decodeDocument(content string) (model.LyricDocument, error) {
	content = strings.TrimSpace(content)

	// Accept either {"lines": [...]} as instructed or a bare array.
	var wrapper struct {
		Lines model.LyricDocument `json:"lines"`
	}
	var doc model.LyricDocument
	if err := json.Unmarshal([]byte(content), &wrapper); err == nil && len(wrapper.Lines) > 0 {
		doc = wrapper.Lines
	} else if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return nil, fmt.Errorf("unparseable timing response: %w", err)
	}

	if len(doc) == 0 {
		return nil, fmt.Errorf("timing response contained no lines")
	}
	for i, line := range doc {
		if len(line.Words) == 0 {
			return nil, fmt.Errorf("timing response line %d has no words", i)
		}
		for j, word := range line.Words {
			if word.Word == "" {
				return nil, fmt.Errorf("timing response line %d word %d is empty", i, j)
			}
			if word.Start < 0 || word.End < word.Start {
				return nil, fmt.Errorf("timing response line %d word %d has invalid interval [%v, %v]", i, j, word.Start, word.End)
			}
		}
	}
	return doc, nil
}
