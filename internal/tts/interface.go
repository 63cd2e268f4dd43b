// internal/tts/interface.go
package tts

import (
	"context"
	"errors"
)

var ErrUnknownSynthesizer = errors.New("unknown speech synthesizer")

// SpeechRequest is the normalized text-to-speech request.
type SpeechRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
	Model string `json:"model,omitempty"`
}

// Synthesizer converts plain text into binary audio.
type Synthesizer interface {
	Initialize(config map[string]string) error
	GetName() string

	// Synthesize returns the encoded audio bytes for the request.
	Synthesize(ctx context.Context, req SpeechRequest) ([]byte, error)
}

// SynthesizerFactory builds an unconfigured synthesizer instance.
type SynthesizerFactory func() Synthesizer

var synthesizers = make(map[string]SynthesizerFactory)

// Register adds a synthesizer factory under a name.
func Register(name string, factory SynthesizerFactory) {
	synthesizers[name] = factory
}

// GetSynthesizer creates and initializes the named synthesizer.
func GetSynthesizer(name string, config map[string]string) (Synthesizer, error) {
	factory, exists := synthesizers[name]
	if !exists {
		return nil, ErrUnknownSynthesizer
	}

	s := factory()
	if err := s.Initialize(config); err != nil {
		return nil, err
	}
	return s, nil
}
