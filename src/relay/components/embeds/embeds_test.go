package embeds

import (
	"fmt"
	"strings"
	"testing"

	"github.com/formgate/formgate/src/relay/components/answers"
	"github.com/formgate/formgate/src/relay/types"
)

func TestBuildAlwaysHasAtLeastOneField(t *testing.T) {
	embed := Build(types.Form{}, "Survey", nil, nil)
	if len(embed.Fields) != 1 {
		t.Fatalf("expected placeholder field, got %d fields", len(embed.Fields))
	}

	// all-empty answers collapse to the placeholder too
	embed = Build(types.Form{}, "Survey", []answers.Answer{{Text: ""}, {Text: ""}}, nil)
	if len(embed.Fields) != 1 {
		t.Fatalf("expected placeholder field for empty answers, got %d", len(embed.Fields))
	}
}

func TestBuildCapsQuestionCountWithSummary(t *testing.T) {
	var ans []answers.Answer
	for i := 0; i < 25; i++ {
		ans = append(ans, answers.Answer{QuestionID: fmt.Sprintf("q%d", i), Text: fmt.Sprintf("answer %d", i)})
	}

	embed := Build(types.Form{DiscordIDFields: "[]"}, "Big", ans, nil)
	if len(embed.Fields) != MaxQuestions+1 {
		t.Fatalf("expected %d fields, got %d", MaxQuestions+1, len(embed.Fields))
	}

	summary := embed.Fields[len(embed.Fields)-1]
	if !strings.Contains(summary.Value, "first 20 of 25") {
		t.Fatalf("summary must state the omitted count, got %q", summary.Value)
	}
}

func TestBuildTruncatesLongValues(t *testing.T) {
	long := strings.Repeat("x", 3000)
	embed := Build(types.Form{}, "T", []answers.Answer{{Text: long}}, nil)

	v := embed.Fields[0].Value
	if len([]rune(v)) != MaxFieldLen {
		t.Fatalf("expected %d chars, got %d", MaxFieldLen, len([]rune(v)))
	}
	if !strings.HasSuffix(v, "...") {
		t.Fatalf("expected ellipsis suffix, got %q", v[len(v)-8:])
	}
}

func TestBuildRendersIDFieldAsMention(t *testing.T) {
	ans := []answers.Answer{{Text: "123456789012345678"}}
	embed := Build(types.Form{}, "T", ans, []int{0})

	if embed.Fields[0].Value != "<@123456789012345678>" {
		t.Fatalf("expected mention token, got %q", embed.Fields[0].Value)
	}

	// a 16-digit value fails the check and renders raw
	ans = []answers.Answer{{Text: "1234567890123456"}}
	embed = Build(types.Form{}, "T", ans, []int{0})
	if embed.Fields[0].Value != "1234567890123456" {
		t.Fatalf("expected raw text, got %q", embed.Fields[0].Value)
	}
}

func TestBuildTitleFallbacks(t *testing.T) {
	if got := Build(types.Form{Title: "Custom"}, "Ignored", nil, nil).Title; got != "Custom" {
		t.Fatalf("config title must win, got %q", got)
	}
	if got := Build(types.Form{}, "Live Title", nil, nil).Title; got != "📋 Live Title" {
		t.Fatalf("form title fallback broken, got %q", got)
	}
	if got := Build(types.Form{FormName: "Stored"}, "", nil, nil).Title; got != "📋 Stored" {
		t.Fatalf("form name fallback broken, got %q", got)
	}
}

func TestBuildFooterAndDescription(t *testing.T) {
	embed := Build(types.Form{}, "T", nil, nil)
	if embed.Footer == nil || embed.Footer.Text != defaultFooter {
		t.Fatalf("expected default footer, got %+v", embed.Footer)
	}
	if embed.Description != "" {
		t.Fatalf("description must be omitted when unset, got %q", embed.Description)
	}

	embed = Build(types.Form{Footer: "custom", Description: "desc"}, "T", nil, nil)
	if embed.Footer.Text != "custom" || embed.Description != "desc" {
		t.Fatalf("overrides not applied: %+v", embed)
	}
}

func TestParseColor(t *testing.T) {
	if got := ParseColor("#ff0000"); got != 0xff0000 {
		t.Fatalf("expected 0xff0000, got %#x", got)
	}
	for _, raw := range []string{"", "red", "#fff", "#gggggg", "ff0000"} {
		if got := ParseColor(raw); got != defaultColor {
			t.Fatalf("expected default for %q, got %#x", raw, got)
		}
	}
}

func TestParseQuestionTitlesBothSchemas(t *testing.T) {
	flat := ParseQuestionTitles(`["Name","Email"]`)
	if flat[0] != "Name" || flat[1] != "Email" {
		t.Fatalf("flat schema broken: %v", flat)
	}

	pairs := ParseQuestionTitles(`[{"index":3,"title":"Discord ID"}]`)
	if len(pairs) != 1 || pairs[3] != "Discord ID" {
		t.Fatalf("pair schema broken: %v", pairs)
	}

	if got := ParseQuestionTitles("{bad"); len(got) != 0 {
		t.Fatalf("bad JSON must yield empty map, got %v", got)
	}
}

func TestBuildUsesQuestionTitlesAndSynthesizedLabels(t *testing.T) {
	form := types.Form{QuestionTitles: `["Who"]`, DiscordIDFields: "[]"}
	ans := []answers.Answer{{Text: "Alice"}, {Text: "Bob"}}

	embed := Build(form, "T", ans, nil)
	if embed.Fields[0].Name != "Who" {
		t.Fatalf("expected configured label, got %q", embed.Fields[0].Name)
	}
	if embed.Fields[1].Name != "Question 2" {
		t.Fatalf("expected synthesized label, got %q", embed.Fields[1].Name)
	}
}
