package mcpserver

// ExportFormatContract describes the export envelope accepted by
// import_notes and the content conventions notes follow. LLM consumers
// should read it before writing notes or payloads.
const ExportFormatContract = `# Berkana Export Format

Notes are exchanged as a single JSON envelope.

## Envelope

` + "```" + `json
{
  "version": "1.0",
  "exportedAt": "2026-01-15T09:30:00.000Z",
  "noteCount": 1,
  "notes": [
    {
      "id": "2f8c1a0e-...",
      "contactId": "contact-42",
      "authorContactId": "contact-zero",
      "kind": "note",
      "title": "Lunch with Ana",
      "content": "Talked about [[Garden Design]] and #travel",
      "tags": ["family"],
      "folderId": "inbox",
      "isInbox": false,
      "isArchived": false,
      "sync_version": 3,
      "createdAt": "2026-01-15T09:30:00.000Z",
      "updatedAt": null
    }
  ]
}
` + "```" + `

## Rules

1. **` + "`" + `notes` + "`" + ` is mandatory** and must be an array. Anything else is rejected
   with "Invalid export format: missing notes array". An element that is not a
   note object is rejected with "Invalid export format: malformed note".
2. **Field names are fixed.** Note fields are camelCase except ` + "`" + `sync_version` + "`" + `
   and ` + "`" + `last_synced_at` + "`" + `.
3. **Missing fields are filled on import:** a fresh id, the contact zero as
   contact and author, the derived title, folder ` + "`" + `inbox` + "`" + `, sync version 1.
4. **Collisions:** a note whose id already exists is skipped unless
   ` + "`" + `overwrite` + "`" + ` is set. With ` + "`" + `generate_new_ids` + "`" + ` every note gets a new id.
   An id repeated inside one payload keeps the first copy, or the last one
   when ` + "`" + `overwrite` + "`" + ` is set.
5. **Timestamps** are UTC ISO-8601 with milliseconds.

## Content conventions

- ` + "`" + `[[Label]]` + "`" + ` links to the note titled Label (case-insensitive). A stub note
  is created when none exists, and the label also becomes a topic.
- ` + "`" + `#hashtag` + "`" + ` and ` + "`" + `tags` + "`" + ` entries become topics when the graph is built.
- The title defaults to the first non-empty line of content, without a
  leading Markdown heading marker.
- Journal entries have ` + "`" + `kind` + "`" + ` "log" and a ` + "`" + `dateKey` + "`" + ` (YYYY-MM-DD).
`
