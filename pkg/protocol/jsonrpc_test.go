package protocol

import (
	"encoding/json"
	"testing"
)

func TestNewRequest(t *testing.T) {
	req, err := NewRequest(1, MethodResourcesSubscribe, &SubscribeParams{URI: "data://live"})
	if err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}

	if req.JSONRPC != JSONRPCVersion {
		t.Errorf("wrong version: %s", req.JSONRPC)
	}
	if req.Method != "resources/subscribe" {
		t.Errorf("wrong method: %s", req.Method)
	}

	var params SubscribeParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		t.Fatalf("params did not round-trip: %v", err)
	}
	if params.URI != "data://live" {
		t.Errorf("wrong URI: %s", params.URI)
	}
}

func TestNewErrorResponse(t *testing.T) {
	resp, err := NewErrorResponse(7, MethodNotFound, "no such method", nil)
	if err != nil {
		t.Fatalf("NewErrorResponse failed: %v", err)
	}

	if resp.Error == nil {
		t.Fatal("expected error payload")
	}
	if resp.Error.Code != int(MethodNotFound) {
		t.Errorf("wrong code: %d", resp.Error.Code)
	}
	if resp.Result != nil {
		t.Error("error response must not carry a result")
	}
}

func TestNewNotificationHasNoID(t *testing.T) {
	n, err := NewNotification(MethodNotificationResourceUpdated, &ResourceUpdatedParams{URI: "data://live"})
	if err != nil {
		t.Fatalf("NewNotification failed: %v", err)
	}

	data, err := json.Marshal(n)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if _, ok := decoded["id"]; ok {
		t.Error("notifications must not carry an id")
	}
}
