package protocol

import (
	"encoding/json"
	"testing"
)

func TestLogLevelRanks(t *testing.T) {
	levels := LogLevels()
	if len(levels) != 8 {
		t.Fatalf("expected 8 levels, got %d", len(levels))
	}

	for i := 1; i < len(levels); i++ {
		if levels[i].Rank() <= levels[i-1].Rank() {
			t.Errorf("%s should outrank %s", levels[i], levels[i-1])
		}
	}

	if LogLevelDebug.Rank() != 0 {
		t.Errorf("debug should rank 0, got %d", LogLevelDebug.Rank())
	}
	if LogLevelEmergency.Rank() != 7 {
		t.Errorf("emergency should rank 7, got %d", LogLevelEmergency.Rank())
	}
}

func TestLogLevelUnknown(t *testing.T) {
	unknown := LogLevel("verbose")
	if unknown.Valid() {
		t.Error("unrecognized level should not be valid")
	}
	if unknown.Rank() != 0 {
		t.Errorf("unrecognized level should rank 0, got %d", unknown.Rank())
	}
	if !LogLevelNotice.Valid() {
		t.Error("notice should be valid")
	}
}

func TestServerCapabilitiesJSON(t *testing.T) {
	caps := ServerCapabilities{
		Logging: &LoggingServerCapability{},
		Resources: &ResourcesServerCapability{
			Subscribe:   true,
			ListChanged: true,
		},
	}

	data, err := json.Marshal(caps)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if _, ok := decoded["resources"]; !ok {
		t.Error("resources capability missing from wire form")
	}
	if _, ok := decoded["tools"]; ok {
		t.Error("absent tools capability should be omitted")
	}

	var roundTripped ServerCapabilities
	if err := json.Unmarshal(data, &roundTripped); err != nil {
		t.Fatalf("round-trip failed: %v", err)
	}
	if roundTripped.Resources == nil || !roundTripped.Resources.Subscribe {
		t.Error("resources.subscribe lost in round-trip")
	}
}

func TestLogMessageParamsOmitsEmptyFields(t *testing.T) {
	params := LogMessageParams{
		Level: LogLevelInfo,
		Data:  json.RawMessage(`"hello"`),
	}

	data, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if _, ok := decoded["logger"]; ok {
		t.Error("empty logger name should be omitted")
	}
	if _, ok := decoded["relatedRequestId"]; ok {
		t.Error("absent request id should be omitted")
	}
}
