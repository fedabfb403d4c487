package snapshot

// documentSchema is checked against raw bytes before decoding.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["schema_version", "session_id", "flow", "form_data", "ledger", "saved_at"],
  "properties": {
    "schema_version": {"type": "integer", "minimum": 1},
    "session_id": {"type": "string", "minLength": 1},
    "flow": {
      "type": "object",
      "required": ["role", "history", "current_step_id"],
      "properties": {
        "role": {"enum": ["", "worker", "sponsor", "agency"]},
        "history": {"type": ["array", "null"], "items": {"type": "string"}},
        "visited": {"type": ["array", "null"], "items": {"type": "string"}},
        "skipped": {"type": ["array", "null"], "items": {"type": "string"}},
        "current_step_id": {"type": "string"},
        "is_complete": {"type": "boolean"}
      }
    },
    "form_data": {"type": "object"},
    "ledger": {
      "type": "object",
      "properties": {
        "entries": {
          "type": ["array", "null"],
          "items": {
            "type": "object",
            "required": ["points", "reason"],
            "properties": {
              "points": {"type": "integer"},
              "reason": {"type": "string"},
              "timestamp": {"type": "string"}
            }
          }
        },
        "achievements": {"type": ["array", "null"], "items": {"type": "string"}}
      }
    },
    "saved_at": {"type": "string"}
  }
}`
