// internal/tts/providers/openai/openai.go
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bookwise-app/bookwise-server/internal/tts"
)

func init() {
	tts.Register("openai", func() tts.Synthesizer {
		return &Synthesizer{
			baseURL: "https://api.openai.com/v1",
		}
	})
}

// Synthesizer talks to the OpenAI /audio/speech endpoint.
type Synthesizer struct {
	apiKey       string
	baseURL      string
	client       *http.Client
	defaultModel string
	defaultVoice string
}

func (s *Synthesizer) Initialize(config map[string]string) error {
	apiKey, exists := config["api_key"]
	if !exists || apiKey == "" {
		return errors.New("OpenAI API key not provided")
	}

	s.apiKey = apiKey
	s.client = &http.Client{Timeout: 60 * time.Second}

	if model, exists := config["default_model"]; exists && model != "" {
		s.defaultModel = model
	} else {
		s.defaultModel = "tts-1"
	}

	if voice, exists := config["voice"]; exists && voice != "" {
		s.defaultVoice = voice
	} else {
		s.defaultVoice = "alloy"
	}

	if baseURL, exists := config["base_url"]; exists && baseURL != "" {
		s.baseURL = baseURL
	}

	return nil
}

func (s *Synthesizer) GetName() string {
	return "OpenAI"
}

func (s *Synthesizer) Synthesize(ctx context.Context, req tts.SpeechRequest) ([]byte, error) {
	model := req.Model
	if model == "" {
		model = s.defaultModel
	}
	voice := req.Voice
	if voice == "" {
		voice = s.defaultVoice
	}

	requestBody := map[string]interface{}{
		"model": model,
		"input": req.Text,
		"voice": voice,
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		"POST",
		s.baseURL+"/audio/speech",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)

	httpResp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(httpResp.Body)
		return nil, fmt.Errorf("OpenAI speech API error (%d): %s", httpResp.StatusCode, string(body))
	}

	audio, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}
	if len(audio) == 0 {
		return nil, errors.New("OpenAI speech API returned an empty body")
	}
	return audio, nil
}
