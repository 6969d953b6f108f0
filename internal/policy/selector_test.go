package policy

import (
	"errors"
	"testing"

	"playbackengine/internal/domain"
)

func versions(labels ...string) []domain.Version {
	out := make([]domain.Version, 0, len(labels))
	for i, label := range labels {
		out = append(out, domain.Version{
			ID:    domain.VersionID(string(rune('a' + i))),
			Label: label,
		})
	}
	return out
}

func TestSelectEmptyListIsError(t *testing.T) {
	_, err := Select(nil, "")
	if !errors.Is(err, domain.ErrNoPlayableVersion) {
		t.Fatalf("expected ErrNoPlayableVersion, got %v", err)
	}
	_, err = Select([]domain.Version{}, "whatever")
	if !errors.Is(err, domain.ErrNoPlayableVersion) {
		t.Fatalf("expected ErrNoPlayableVersion, got %v", err)
	}
}

func TestSelectSingleVersionIsAutomatic(t *testing.T) {
	d, err := Select(versions("1080p"), "")
	if err != nil {
		t.Fatalf("Select returned error: %v", err)
	}
	if !d.Auto() || d.Selected.Label != "1080p" {
		t.Fatalf("expected auto selection, got %+v", d)
	}
}

func TestSelectPreferenceByIDAndLabel(t *testing.T) {
	vs := versions("4K HDR", "1080p", "720p")

	d, err := Select(vs, "b")
	if err != nil {
		t.Fatalf("Select returned error: %v", err)
	}
	if !d.Auto() || d.Selected.Label != "1080p" {
		t.Fatalf("preference by id failed: %+v", d)
	}

	d, err = Select(vs, "4k hdr")
	if err != nil {
		t.Fatalf("Select returned error: %v", err)
	}
	if !d.Auto() || d.Selected.Label != "4K HDR" {
		t.Fatalf("preference by label failed: %+v", d)
	}
}

func TestSelectAmbiguousOrStalePreferenceAsksUser(t *testing.T) {
	dup := versions("1080p", "1080p", "720p")
	d, err := Select(dup, "1080p")
	if err != nil {
		t.Fatalf("Select returned error: %v", err)
	}
	if d.Auto() {
		t.Fatalf("ambiguous preference must not auto-select: %+v", d)
	}
	if len(d.Choices) != 3 {
		t.Fatalf("expected all 3 choices preserved, got %d", len(d.Choices))
	}

	d, err = Select(versions("1080p", "720p"), "gone")
	if err != nil {
		t.Fatalf("Select returned error: %v", err)
	}
	if d.Auto() {
		t.Fatalf("stale preference must not auto-select: %+v", d)
	}
}

func TestSelectPreservesSourceOrder(t *testing.T) {
	vs := versions("720p", "4K", "1080p")
	d, err := Select(vs, "")
	if err != nil {
		t.Fatalf("Select returned error: %v", err)
	}
	for i, want := range []string{"720p", "4K", "1080p"} {
		if d.Choices[i].Label != want {
			t.Fatalf("choice %d = %q, want %q (order must be preserved)", i, d.Choices[i].Label, want)
		}
	}
}
