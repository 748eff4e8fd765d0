package mcpserver

// NoteFormat describes how CloudNotes derives a note's title and content
// from raw text, for LLM consumers that create or edit notes.
const NoteFormat = `# CloudNotes Note Format

A note is plain text. CloudNotes never stores formatting; it splits the raw
text you send into a **title** and a **content** part.

## Splitting rules

1. If the text contains a newline, the title is everything before the first
   newline and the content is everything from that newline on (the newline
   itself is kept as the first character of the content).
2. If there is no newline and the text is at most 100 characters, the whole
   text is the title and the content is empty.
3. If there is no newline and the text is longer than 100 characters, the
   first 100 characters are the title and the content is a newline followed
   by the rest.

Characters are Unicode code points, not bytes.

## Rows

- Notes are addressed by **row**: row 0 is the most recently modified note.
- Every edit moves the edited note to row 0.
- A note with an empty title is a **draft**. At most one draft exists and it
  is always row 0. ` + "`create_note`" + ` is refused while a draft exists; edit the
  draft instead.
- Editing another row while a draft exists removes the draft.

## Example

Sending ` + "`edit_note(row=0, text=\"Groceries\\nmilk\\neggs\")`" + ` stores:

- title: ` + "`Groceries`" + `
- content: ` + "`\\nmilk\\neggs`" + `

` + "`share_note`" + ` returns the title and content joined back together.
`
