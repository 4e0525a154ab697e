package wire

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/samber/lo"
)

// Reaction is the set of users who reacted to a message with one emoji.
// The count is derived from the user set at serialization time and is never
// stored, so it cannot drift from the membership.
type Reaction struct {
	Emoji string `json:"emoji"`
	Users []uint `json:"users"`
}

func (v Reaction) MarshalJSON() ([]byte, error) {
	return jsoniter.Marshal(struct {
		Emoji string `json:"emoji"`
		Users []uint `json:"users"`
		Count int    `json:"count"`
	}{v.Emoji, v.Users, len(v.Users)})
}

// ToggleReaction flips the membership of a user in one emoji's reaction set
// and returns the updated reaction list. The input is never mutated. Applying
// the same toggle twice restores the original set, and toggles from different
// users commute, so the client's speculative copy and the server's
// authoritative one converge on the same result.
func ToggleReaction(reactions []Reaction, userId uint, emoji string) []Reaction {
	out := make([]Reaction, 0, len(reactions)+1)
	found := false
	for _, reaction := range reactions {
		if reaction.Emoji != emoji {
			out = append(out, reaction)
			continue
		}
		found = true
		var users []uint
		if lo.Contains(reaction.Users, userId) {
			users = lo.Without(reaction.Users, userId)
		} else {
			users = append(append([]uint{}, reaction.Users...), userId)
		}
		if len(users) == 0 {
			continue
		}
		out = append(out, Reaction{Emoji: emoji, Users: users})
	}
	if !found {
		out = append(out, Reaction{Emoji: emoji, Users: []uint{userId}})
	}
	return out
}
