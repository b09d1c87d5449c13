// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import "strings"

// commandNames lists every accepted command word, aliases included.
var commandNames = []string{
	"tui", "login", "signup", "register", "logout", "whoami",
	"chat", "ask", "upload", "reset", "history",
	"status", "config", "devserver", "serve",
	"version", "help",
}

// SuggestCommand returns the closest known command for a mistyped one, or ""
// when nothing is near enough. The allowed edit distance grows with the input
// length: 1 up to three characters, 2 up to eight, 3 beyond.
func SuggestCommand(input string) string {
	input = strings.ToLower(input)
	if len(input) < 2 {
		return ""
	}

	maxDistance := 1
	if len(input) >= 4 {
		maxDistance = 2
	}
	if len(input) > 8 {
		maxDistance = 3
	}

	best, bestDistance := "", maxDistance+1
	for _, name := range commandNames {
		d := levenshtein(input, name)
		if d == 0 {
			return ""
		}
		if d < bestDistance {
			best, bestDistance = name, d
		}
	}
	return best
}

// levenshtein returns the edit distance between a and b using two rolling
// rows.
func levenshtein(a, b string) int {
	if a == "" {
		return len(b)
	}
	if b == "" {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
