package dispatch

import (
	"fmt"
	"strings"
	"time"
)

// Memory tool convention shared with the model through the system instruction.
const (
	SearchTool = "searchMemory"
	UpsertTool = "upsert"

	MemoryIndex        = "default"
	MemoryMinRelevance = 0.8
	MemorySearchLimit  = 5
)

// NothingNoteworthy is returned when a turn produced no usable tool result.
const NothingNoteworthy = "Nothing noteworthy. Just respond as is"

const worldTimeLayout = "January 02 2006, 15:04:05"

// WorldTime formats t the way instructions stamp it.
func WorldTime(t time.Time) string { return t.Format(worldTimeLayout) }

// MemoryInstruction is the system instruction telling the model how to
// parameterize the memory tools.
func MemoryInstruction() string {
	return fmt.Sprintf(`You are an obedient assistant. You ask no questions nor clarifications.
Respond to the prompt by calling a function, then summarize the actions while keeping names, dates, event names and the specific actions of characters or the user.
When searching memory (%[1]s) use index: %[3]q, minRelevance: %[4]v, limit: %[5]d.
When storing memory (%[2]s) use index: %[3]q, documentId: <name using only A-Z, a-z, 0-9, '.', '_', '-'>_<worldtime as YYYYMMDDHHMMSS>,
"text": "Characters: <whole name of characters>, Location: <whole name of location>, Details of what happened or discussed: <details> WorldTime: <worldtime>".
Only store memory when told to or when something memorable happens. Whenever the user says "I" it means the character they are portraying.
If a question is asked always search memory first. If it is a statement do not call any function.`,
		SearchTool, UpsertTool, MemoryIndex, MemoryMinRelevance, MemorySearchLimit)
}

// RememberInstruction asks the model to store text in memory.
func RememberInstruction(text string) string {
	return fmt.Sprintf("Instruction: Remember -- %s -- use index: %q\n"+
		"(Summarize always. Remember to always save Dates, Places, Names, Events, specific actions of characters as they are important to note)",
		text, MemoryIndex)
}

// RecallInstruction asks the model to store what the bot just said.
func RecallInstruction(response string, now time.Time) string {
	return fmt.Sprintf("You will need to review these [Context] %s %s [Instruction] "+
		"Remember the names of characters, events, places, objects, date and time via /%s so you can recall if needed. "+
		"Summarize but include the details as they are important",
		now.Format("January 02 2006"), response, UpsertTool)
}

// DocumentID builds a memory document id from name and t. Characters outside
// the allowed set are replaced with '_'.
func DocumentID(name string, t time.Time) string {
	var b strings.Builder
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '.', c == '_', c == '-':
			b.WriteRune(c)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		b.WriteString("memory")
	}
	return b.String() + "_" + t.Format("20060102150405")
}
