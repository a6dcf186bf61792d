package outbox

import platformevents "example.com/genid/internal/platform/events"

// SchemaCatalogEntry maps event type to schema definition.
type SchemaCatalogEntry struct {
	Schema string
}

var schemaCatalog = map[string]SchemaCatalogEntry{
	platformevents.TypeActivityLogged:    {Schema: activitySchema},
	platformevents.TypeActivityUpdated:   {Schema: activitySchema},
	platformevents.TypeGenIDIssued:       {Schema: genIDIssuedSchema},
	platformevents.TypeAccountEradicated: {Schema: accountEradicatedSchema},
}

// Logged and updated share one subject, so they share one schema.
const activitySchema = `{
  "type": "object",
  "title": "ActivityEvent",
  "properties": {
    "activity_id": {"type": "string"},
    "user_id": {"type": "string"},
    "activity_date": {"type": "string", "format": "date"},
    "steps": {"type": "integer", "minimum": 0},
    "pushups": {"type": "integer", "minimum": 0},
    "workout_minutes": {"type": "integer", "minimum": 0},
    "score": {"type": "integer", "minimum": 0, "maximum": 100},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["activity_id", "user_id", "activity_date", "steps", "pushups", "workout_minutes", "score", "occurred_at"],
  "additionalProperties": false
}`

const genIDIssuedSchema = `{
  "type": "object",
  "title": "GenIDIssued",
  "properties": {
    "identifier_id": {"type": "string"},
    "user_id": {"type": "string"},
    "short_id": {"type": "string", "pattern": "^[0-9]{6}$"},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["identifier_id", "user_id", "short_id", "occurred_at"],
  "additionalProperties": false
}`

const accountEradicatedSchema = `{
  "type": "object",
  "title": "AccountEradicated",
  "properties": {
    "user_id": {"type": "string"},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["user_id", "occurred_at"],
  "additionalProperties": false
}`
