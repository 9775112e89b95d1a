// internal/stimulus/schema.go
package stimulus

// stimuliSchema constrains the stimuli document shape before decoding.
// Domains mirror the reference stimulus set; extra domains are allowed
// because the pipeline supports any stimulus count and topic mix.
const stimuliSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["stimuli"],
  "properties": {
    "stimuli": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "domain", "statement", "justification_pro", "justification_con"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "domain": {"type": "string", "minLength": 1},
          "statement": {"type": "string", "minLength": 1},
          "justification_pro": {"type": "string", "minLength": 1},
          "justification_con": {"type": "string", "minLength": 1}
        }
      }
    }
  }
}`
