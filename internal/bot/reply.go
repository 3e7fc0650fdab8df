package bot

import (
	"fmt"
	"strings"

	"github.com/senselabs/sense/pkg/embedding"
)

// fallbackMessages answer anything the bot cannot make sense of. The
// message id picks the meow, so repeats of the same update stay stable.
var fallbackMessages = []string{
	"😹 Maow?",
	"😼 Meowww!",
	"🙀 Nyaaa!",
	"😿 Mew...",
	"😾 Prrrrr...!",
}

// Fallback returns the canned reply for an unparseable message.
func Fallback(messageID int) string {
	idx := messageID
	if idx < 0 {
		idx = -idx
	}
	return fallbackMessages[idx%len(fallbackMessages)]
}

// HelpText describes the supported commands, with the configured
// postscript appended when present.
func HelpText(postscript string) string {
	var b strings.Builder
	b.WriteString("😼 Purr-fectly supported commands, just for your whiskers 🐾:\n\n")
	b.WriteString("/help - paw-some help text, just for curious kitties.\n")
	b.WriteString("/search - sniff out the purr-fect meme.")
	if postscript != "" {
		b.WriteString("\n\n")
		b.WriteString(postscript)
	}
	return b.String()
}

// FormatMatches renders search results one per line as "NN.NN%: path".
func FormatMatches(matches []embedding.Match) string {
	if len(matches) == 0 {
		return "😿 No results found."
	}
	lines := make([]string, len(matches))
	for i, m := range matches {
		lines[i] = fmt.Sprintf("%.2f%%: %s", m.Score*100, m.Key)
	}
	return strings.Join(lines, "\n")
}
