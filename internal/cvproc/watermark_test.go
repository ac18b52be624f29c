package cvproc

import (
	"strings"
	"testing"
)

func TestApplyWatermarkUnpaid(t *testing.T) {
	got := ApplyWatermark("Jan Kowalski\nInżynier", false)

	if count := strings.Count(got, BannerHeading); count != 2 {
		t.Errorf("Expected banner before and after content, found %d occurrences", count)
	}

	first := strings.Index(got, BannerHeading)
	last := strings.LastIndex(got, BannerHeading)
	body := strings.Index(got, "Jan Kowalski")
	if !(first < body && body < last) {
		t.Error("Expected content between the two banners")
	}

	if !strings.Contains(got, "9,99 PLN") {
		t.Error("Expected payment prompt in the banner")
	}
	if !strings.Contains(got, strings.Repeat("=", 60)) {
		t.Error("Expected 60-character separator lines")
	}
}

func TestApplyWatermarkEntitled(t *testing.T) {
	got := ApplyWatermark("Jan Kowalski", true)

	if got != "Jan Kowalski" {
		t.Errorf("Expected untouched result for entitled caller, got %q", got)
	}
	if strings.Contains(got, BannerHeading) {
		t.Error("Expected no banner for entitled caller")
	}
}

func TestApplyWatermarkPreservesContent(t *testing.T) {
	content := "linia 1\nlinia 2\nlinia 3"
	got := ApplyWatermark(content, false)

	if !strings.Contains(got, content) {
		t.Error("Expected original content intact inside the watermark")
	}
}
