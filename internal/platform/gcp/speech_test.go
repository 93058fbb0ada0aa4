package gcp

import (
	"testing"

	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
)

func TestInferEncoding(t *testing.T) {
	tests := []struct {
		mime string
		want speechpb.RecognitionConfig_AudioEncoding
	}{
		{"audio/webm;codecs=opus", speechpb.RecognitionConfig_WEBM_OPUS},
		{"audio/ogg", speechpb.RecognitionConfig_OGG_OPUS},
		{"audio/wav", speechpb.RecognitionConfig_LINEAR16},
		{"audio/flac", speechpb.RecognitionConfig_FLAC},
		{"audio/mpeg", speechpb.RecognitionConfig_MP3},
		{"application/octet-stream", speechpb.RecognitionConfig_ENCODING_UNSPECIFIED},
	}
	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			if got := inferEncoding(tt.mime); got != tt.want {
				t.Fatalf("inferEncoding(%q): got=%v want=%v", tt.mime, got, tt.want)
			}
		})
	}
}

func TestJoinTranscript(t *testing.T) {
	resp := &speechpb.RecognizeResponse{Results: []*speechpb.SpeechRecognitionResult{
		{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: " When did the pain start? "}, {Transcript: "ignored"}}},
		{Alternatives: nil},
		{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: "Does it radiate?"}}},
	}}
	if got, want := joinTranscript(resp), "When did the pain start? Does it radiate?"; got != want {
		t.Fatalf("joinTranscript: got=%q want=%q", got, want)
	}
	if got := joinTranscript(nil); got != "" {
		t.Fatalf("joinTranscript(nil): got=%q", got)
	}
}
