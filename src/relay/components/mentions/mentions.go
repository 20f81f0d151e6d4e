// Package mentions computes which Discord roles and users a relayed
// submission should ping, from a form's static mention list, its
// Discord-ID-bearing answer positions, and its conditional rules.
package mentions

import (
	"encoding/json"
	"log"
	"regexp"
	"strings"

	"github.com/formgate/formgate/src/relay/components/answers"
	"github.com/formgate/formgate/src/relay/types"
)

// MinIDDigits is Discord's minimum snowflake length. Anything shorter is
// not a mentionable identifier and is dropped.
const MinIDDigits = 17

var nonDigits = regexp.MustCompile(`\D`)

// Set holds the resolved mentions, deduplicated, in first-occurrence order.
type Set struct {
	RoleIDs []string
	UserIDs []string
}

// Rule adds role mentions when a specific answer matches exactly
// (trim-only, case-sensitive). RoleID may be a comma-separated list.
type Rule struct {
	QuestionIndex int    `json:"question_index"`
	AnswerValue   string `json:"answer_value"`
	RoleID        string `json:"role_id"`
}

// ParseIDFields decodes the discord_id_fields column. The first answer is
// assumed to carry the submitter's Discord ID when the column is empty or
// does not parse.
func ParseIDFields(raw string) []int {
	if strings.TrimSpace(raw) == "" {
		return []int{0}
	}
	var fields []int
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		log.Printf("mentions: bad discord_id_fields %q: %v", raw, err)
		return []int{0}
	}
	return fields
}

// ParseRules decodes the conditional_mentions column; malformed JSON means
// no rules.
func ParseRules(raw string) []Rule {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var rules []Rule
	if err := json.Unmarshal([]byte(raw), &rules); err != nil {
		log.Printf("mentions: bad conditional_mentions %q: %v", raw, err)
		return nil
	}
	return rules
}

// Digits strips every non-digit rune from s.
func Digits(s string) string {
	return nonDigits.ReplaceAllString(s, "")
}

// Resolve computes the mention set and the content line prefixed onto the
// outgoing message. An empty content line means the payload must omit the
// content field entirely.
func Resolve(form types.Form, ans []answers.Answer) (Set, string) {
	set := Set{}

	seenUsers := make(map[string]bool)
	for _, idx := range ParseIDFields(form.DiscordIDFields) {
		if idx < 0 || idx >= len(ans) {
			continue
		}
		id := Digits(ans[idx].Text)
		if len(id) < MinIDDigits || seenUsers[id] {
			continue
		}
		seenUsers[id] = true
		set.UserIDs = append(set.UserIDs, id)
	}

	var roles []string
	for _, rule := range ParseRules(form.ConditionalMentions) {
		if rule.QuestionIndex < 0 || rule.QuestionIndex >= len(ans) {
			continue
		}
		if strings.TrimSpace(ans[rule.QuestionIndex].Text) != rule.AnswerValue {
			continue
		}
		roles = append(roles, splitRoleIDs(rule.RoleID)...)
	}
	roles = append(roles, splitRoleIDs(form.Mentions)...)

	seenRoles := make(map[string]bool)
	for _, id := range roles {
		if seenRoles[id] {
			continue
		}
		seenRoles[id] = true
		set.RoleIDs = append(set.RoleIDs, id)
	}

	return set, ContentLine(set)
}

// ContentLine renders role mentions before user mentions, space-joined.
func ContentLine(set Set) string {
	parts := make([]string, 0, len(set.RoleIDs)+len(set.UserIDs))
	for _, id := range set.RoleIDs {
		parts = append(parts, "<@&"+id+">")
	}
	for _, id := range set.UserIDs {
		parts = append(parts, "<@"+id+">")
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

func splitRoleIDs(raw string) []string {
	var out []string
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		if len(tok) >= MinIDDigits {
			out = append(out, tok)
		}
	}
	return out
}
