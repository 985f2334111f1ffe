package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSMSGatewayClient_Send(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "key-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewSMSGatewayClient("key-123", srv.URL, "PORTAL", 2*time.Second)
	if err := c.Send(context.Background(), "3001234789", "Your code is 1234"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got["to"] != "3001234789" || got["sender"] != "PORTAL" {
		t.Errorf("unexpected payload: %v", got)
	}
}

func TestSMSGatewayClient_SendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewSMSGatewayClient("key-123", srv.URL, "", time.Second)
	if err := c.Send(context.Background(), "3001234789", "msg"); err == nil {
		t.Fatal("non-200 status should return error")
	}
}

func TestSMSGatewayClient_NotConfigured(t *testing.T) {
	c := NewSMSGatewayClient("", "", "", time.Second)
	if err := c.Send(context.Background(), "3001234789", "msg"); err == nil {
		t.Fatal("unconfigured gateway should return error")
	}
}
