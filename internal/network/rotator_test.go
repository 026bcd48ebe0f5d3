package network

import (
	"errors"
	"testing"
	"time"
)

func TestRotatorRoundRobin(t *testing.T) {
	rotator, err := NewRotator([]string{"http://a:1", "http://b:2", " "}, time.Minute)
	if err != nil {
		t.Fatalf("NewRotator() error = %v", err)
	}

	var got []string
	for i := 0; i < 4; i++ {
		proxy, err := rotator.Next()
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		got = append(got, proxy.Host)
	}
	want := []string{"a:1", "b:2", "a:1", "b:2"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Next() sequence = %v, want %v", got, want)
		}
	}
}

func TestRotatorBansOnRateLimit(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rotator, err := NewRotator([]string{"http://a:1", "http://b:2"}, time.Minute)
	if err != nil {
		t.Fatalf("NewRotator() error = %v", err)
	}
	rotator.now = func() time.Time { return now }

	first, _ := rotator.Next()
	rotator.Report(first, 429)
	if rotator.Available() != 1 {
		t.Fatalf("Available() = %d, want 1", rotator.Available())
	}

	for i := 0; i < 3; i++ {
		proxy, err := rotator.Next()
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		if proxy.Host == first.Host {
			t.Fatalf("banned proxy %s returned", proxy.Host)
		}
	}

	second, _ := rotator.Next()
	rotator.Report(second, 403)
	if _, err := rotator.Next(); !errors.Is(err, ErrNoProxies) {
		t.Fatalf("Next() error = %v, want ErrNoProxies", err)
	}

	now = now.Add(2 * time.Minute)
	if rotator.Available() != 2 {
		t.Fatalf("Available() after ban expiry = %d, want 2", rotator.Available())
	}
}

func TestRotatorIgnoresOtherStatuses(t *testing.T) {
	rotator, err := NewRotator([]string{"http://a:1"}, time.Minute)
	if err != nil {
		t.Fatalf("NewRotator() error = %v", err)
	}
	proxy, _ := rotator.Next()
	rotator.Report(proxy, 500)
	if rotator.Available() != 1 {
		t.Fatalf("Available() = %d, want 1", rotator.Available())
	}
}

func TestNewRotatorRejectsBareHost(t *testing.T) {
	if _, err := NewRotator([]string{"proxy.local"}, time.Minute); err == nil {
		t.Fatalf("expected error for proxy without scheme")
	}
}

func TestRotatorBansOnTransportError(t *testing.T) {
	rotator, err := NewRotator([]string{"http://a:1", "http://b:2"}, time.Minute)
	if err != nil {
		t.Fatalf("NewRotator() error = %v", err)
	}
	proxy, _ := rotator.Next()
	rotator.Report(proxy, StatusTransportError)
	if rotator.Available() != 1 {
		t.Fatalf("Available() = %d, want 1", rotator.Available())
	}
}
