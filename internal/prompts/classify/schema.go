package classify

import "encoding/json"

// ResponseSchema is the JSON schema of a classification answer.
var ResponseSchema = json.RawMessage(`{
  "name": "region_classification",
  "strict": true,
  "schema": {
    "type": "object",
    "properties": {
      "regions": {
        "type": "array",
        "items": {"type": "string"},
        "minItems": 1,
        "description": "Region names, each exactly matching one of the supplied names"
      }
    },
    "required": ["regions"],
    "additionalProperties": false
  }
}`)
