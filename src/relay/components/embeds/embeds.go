// Package embeds renders normalized answers into a Discord embed, honoring
// the platform's field-count and field-length ceilings.
package embeds

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/formgate/formgate/src/relay/components/answers"
	"github.com/formgate/formgate/src/relay/components/mentions"
	"github.com/formgate/formgate/src/relay/types"
)

const (
	// MaxQuestions caps the number of answer fields per embed; overflow is
	// summarized in one extra field.
	MaxQuestions = 20
	// Discord rejects embed field values longer than this.
	MaxFieldLen = 1024

	defaultColor  = 0x5865f2 // blurple
	defaultFooter = "FormGate relay"
)

// Build renders the embed body. idFields lists the answer positions whose
// text is expected to carry a Discord user ID; those render as mention
// tokens inside the embed, independent of the content-line mentions.
func Build(form types.Form, formTitle string, ans []answers.Answer, idFields []int) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:     title(form, formTitle),
		Color:     ParseColor(form.Color),
		Timestamp: time.Now().Format(time.RFC3339),
		Footer:    &discordgo.MessageEmbedFooter{Text: defaultFooter},
	}
	if form.Description != "" {
		embed.Description = form.Description
	}
	if form.Footer != "" {
		embed.Footer.Text = form.Footer
	}

	idField := make(map[int]bool, len(idFields))
	for _, idx := range idFields {
		idField[idx] = true
	}
	titles := ParseQuestionTitles(form.QuestionTitles)

	total := len(ans)
	shown := ans
	if total > MaxQuestions {
		shown = ans[:MaxQuestions]
	}

	for i, a := range shown {
		if a.Text == "" {
			continue
		}

		label, ok := titles[i]
		if !ok {
			label = fmt.Sprintf("Question %d", i+1)
		}

		value := a.Text
		if idField[i] {
			if id := mentions.Digits(a.Text); len(id) >= mentions.MinIDDigits {
				value = "<@" + id + ">"
			}
		}

		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  label,
			Value: truncate(value),
		})
	}

	if total > MaxQuestions {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Additional answers",
			Value: fmt.Sprintf("Showing the first %d of %d answers; %d were omitted.", MaxQuestions, total, total-MaxQuestions),
		})
	}
	if len(embed.Fields) == 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "No answers",
			Value: "This submission did not contain any readable answers.",
		})
	}

	return embed
}

func title(form types.Form, formTitle string) string {
	if form.Title != "" {
		return form.Title
	}
	name := formTitle
	if name == "" {
		name = form.FormName
	}
	return "📋 " + name
}

// ParseColor converts a #RRGGBB string into Discord's integer color,
// falling back to blurple.
func ParseColor(raw string) int {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "#") || len(raw) != 7 {
		return defaultColor
	}
	v, err := strconv.ParseInt(raw[1:], 16, 32)
	if err != nil {
		return defaultColor
	}
	return int(v)
}

// ParseQuestionTitles accepts both historical encodings of the
// question_titles column: a flat array of label strings, or an array of
// {index, title} pairs. Either way it becomes a sparse index→label map.
func ParseQuestionTitles(raw string) map[int]string {
	titles := make(map[int]string)
	if strings.TrimSpace(raw) == "" {
		return titles
	}

	var flat []string
	if err := json.Unmarshal([]byte(raw), &flat); err == nil {
		for i, t := range flat {
			if t != "" {
				titles[i] = t
			}
		}
		return titles
	}

	var pairs []struct {
		Index int    `json:"index"`
		Title string `json:"title"`
	}
	if err := json.Unmarshal([]byte(raw), &pairs); err == nil {
		for _, p := range pairs {
			if p.Title != "" {
				titles[p.Index] = p.Title
			}
		}
		return titles
	}

	log.Printf("embeds: bad question_titles %q", raw)
	return titles
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= MaxFieldLen {
		return s
	}
	return string(r[:MaxFieldLen-3]) + "..."
}
