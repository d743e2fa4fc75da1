package nats

import (
	"context"
	"reflect"
	"testing"
)

func TestStreamSubjects(t *testing.T) {
	tests := map[string][]string{
		"browsemd.events":  {"browsemd.events.>"},
		"browsemd.events.": {"browsemd.events.>"},
	}
	for prefix, want := range tests {
		if got := StreamSubjects(prefix); !reflect.DeepEqual(got, want) {
			t.Errorf("StreamSubjects(%q) = %v, want %v", prefix, got, want)
		}
	}
}

func TestValidateURL(t *testing.T) {
	valid := []string{"nats://127.0.0.1:4222", "localhost:4222", "nats://a:4222, nats://b:4222"}
	for _, u := range valid {
		if err := validateURL(u); err != nil {
			t.Errorf("Expected %q to be valid, got %v", u, err)
		}
	}

	invalid := []string{"", "localhost"}
	for _, u := range invalid {
		if err := validateURL(u); err == nil {
			t.Errorf("Expected %q to be rejected", u)
		}
	}
}

func TestConnectRejectsInvalidURL(t *testing.T) {
	if _, err := Connect(context.Background(), Config{URL: ""}); err == nil {
		t.Fatal("Expected an error for an empty URL")
	}
}

func TestPublishAfterClose(t *testing.T) {
	c := &Client{}
	c.Close()
	if err := c.Publish("x", nil); err == nil {
		t.Fatal("Expected an error publishing on a closed client")
	}
}
