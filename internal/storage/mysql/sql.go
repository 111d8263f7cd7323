package mysql

// Re-saving a message with a known id is a no-op.
const insertMessageSQL = `
INSERT INTO chat_messages
  (id, session_id, role, content, profile_id, created_at)
VALUES
  (?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  id = id
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

// Newest first; the repo reverses to chronological order.
const listSessionSQL = `
SELECT seq, id, session_id, role, content, profile_id, created_at
FROM chat_messages
WHERE session_id = ?
ORDER BY seq DESC
LIMIT ?
`

// Keyset page over one role; aligns with idx_chat_messages_role.
const listByRoleSQL = `
SELECT seq, id, session_id, role, content, profile_id, created_at
FROM chat_messages
WHERE role = ? AND seq > ?
ORDER BY seq ASC
LIMIT ?
`
