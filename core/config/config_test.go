package config

import "testing"

func TestIsAdmin(t *testing.T) {
	tg := TelegramConfig{AdminIDs: []int64{100, 200}}
	tests := []struct {
		userID int64
		want   bool
	}{
		{100, true},
		{200, true},
		{300, false},
		{0, false},
	}
	for _, tt := range tests {
		if got := tg.IsAdmin(tt.userID); got != tt.want {
			t.Errorf("IsAdmin(%d) = %v, want %v", tt.userID, got, tt.want)
		}
	}
	if (TelegramConfig{}).IsAdmin(100) {
		t.Error("empty allowlist admitted a user")
	}
}

func TestNormalizeRunMode(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		want    string
		wantErr bool
	}{
		{"empty defaults to longpoll", "", RunModeLongpoll, false},
		{"polling alias", "polling", RunModeLongpoll, false},
		{"longpoll", "longpoll", RunModeLongpoll, false},
		{"mixed case", "LongPoll", RunModeLongpoll, false},
		{"unknown", "carrier-pigeon", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Telegram: TelegramConfig{Token: "t", RunMode: tt.mode}}
			err := Normalize(&cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("want error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if cfg.Telegram.RunMode != tt.want {
				t.Errorf("run_mode = %q, want %q", cfg.Telegram.RunMode, tt.want)
			}
		})
	}
}

func TestNormalizeRequiresToken(t *testing.T) {
	if err := Normalize(&Config{}); err == nil {
		t.Fatal("want error for missing token")
	}
}

func TestNormalizeWebhookRequirements(t *testing.T) {
	cfg := Config{Telegram: TelegramConfig{Token: "t", RunMode: RunModeWebhook}}
	if err := Normalize(&cfg); err == nil {
		t.Fatal("want error for webhook mode without url")
	}
	cfg.Webhook = WebhookConfig{URL: "https://example.com/hook", Listen: "0.0.0.0", Port: 8443}
	if err := Normalize(&cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
}

func TestNormalizeExcludeUpdates(t *testing.T) {
	cfg := Config{
		Telegram:  TelegramConfig{Token: "t"},
		RateLimit: RateLimitConfig{ExcludeUpdates: []string{" Callback ", "message"}},
	}
	if err := Normalize(&cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if cfg.RateLimit.ExcludeUpdates[0] != UpdateCallback {
		t.Errorf("exclude_updates[0] = %q, want %q", cfg.RateLimit.ExcludeUpdates[0], UpdateCallback)
	}
	cfg.RateLimit.ExcludeUpdates = []string{"sticker"}
	if err := Normalize(&cfg); err == nil {
		t.Fatal("want error for unknown exclude_updates value")
	}
}
