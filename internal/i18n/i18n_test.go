package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "BankUnavailable")
	if got != "No question bank is loaded." {
		t.Errorf("T(BankUnavailable) = %q", got)
	}
}

func TestTranslateTraditionalChinese(t *testing.T) {
	ctx := initLang(t, "zh-TW")

	got := T(ctx, "BankUnavailable")
	if got != "尚未載入題庫。" {
		t.Errorf("T(BankUnavailable) = %q", got)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "AttemptSaved", map[string]any{"ID": 42})
	if got != "Attempt #42 saved." {
		t.Errorf("Td(AttemptSaved, ID=42) = %q", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "NonExistentKey")
	if got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want the key itself", got)
	}
}

func TestMiddlewareHonorsAcceptLanguage(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}

	var got string
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = T(r.Context(), "Unauthorized")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "zh-TW")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "未授權。" {
		t.Errorf("zh-TW request translated to %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "fr")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got != "Unauthorized." {
		t.Errorf("unknown language should fall back to default, got %q", got)
	}
}
